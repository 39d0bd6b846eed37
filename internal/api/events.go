package api

import (
	"context"
	"net/http"
	"strconv"

	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
)

// Reprocessor re-runs the automation pipeline for a stored event.
type Reprocessor interface {
	Reprocess(ctx context.Context, eventID string) error
}

type EventHandler struct {
	Store  store.Store
	Engine Reprocessor
}

func NewEventHandler(s store.Store, engine Reprocessor) *EventHandler {
	return &EventHandler{Store: s, Engine: engine}
}

// ListEvents returns recent events for a product
func (h *EventHandler) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := h.Store.ListEvents(c.Request.Context(), c.Query("productId"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, events)
}

// GetEvent returns one stored event with its processing result
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.Store.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// ReprocessEvent manually re-runs the pipeline for an event. The run is
// tagged as reprocessed in the event result.
func (h *EventHandler) ReprocessEvent(c *gin.Context) {
	id := c.Param("id")

	if _, err := h.Store.GetEvent(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	if err := h.Engine.Reprocess(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event reprocessed successfully"})
}
