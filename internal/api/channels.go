package api

import (
	"encoding/json"
	"net/http"

	"social-gateway/internal/models"
	"social-gateway/internal/publisher"
	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChannelHandler struct {
	Store   store.Store
	Factory func(platform string, creds publisher.Credentials) (publisher.Publisher, error)
}

func NewChannelHandler(s store.Store) *ChannelHandler {
	return &ChannelHandler{Store: s, Factory: publisher.New}
}

// ListChannels returns all channels for a product. Credentials are never
// serialized.
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.Store.ListChannels(c.Request.Context(), c.Query("productId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, channels)
}

// CreateChannel connects a platform account to a product
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req struct {
		ProductID   string            `json:"productId" binding:"required"`
		Platform    string            `json:"platform" binding:"required"`
		Name        string            `json:"name"`
		Credentials map[string]string `json:"credentials" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject incomplete credential bags before anything is stored.
	if _, err := h.Factory(req.Platform, req.Credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds, err := json.Marshal(req.Credentials)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	channel := models.Channel{
		ID:          uuid.NewString(),
		ProductID:   req.ProductID,
		Platform:    req.Platform,
		Name:        req.Name,
		Credentials: string(creds),
		Status:      models.ChannelStatusActive,
	}

	if err := h.Store.CreateChannel(c.Request.Context(), &channel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": channel.ID, "message": "Channel connected successfully"})
}

// UpdateChannel updates channel metadata or rotates credentials
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Name        string            `json:"name"`
		Status      string            `json:"status"`
		Credentials map[string]string `json:"credentials"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updateData := map[string]interface{}{}
	if req.Name != "" {
		updateData["name"] = req.Name
	}
	if req.Status != "" {
		updateData["status"] = req.Status
	}
	if req.Credentials != nil {
		channel, err := h.Store.GetChannel(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
			return
		}
		if _, err := h.Factory(channel.Platform, req.Credentials); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		creds, _ := json.Marshal(req.Credentials)
		updateData["credentials"] = string(creds)
	}

	if err := h.Store.PatchChannel(c.Request.Context(), id, updateData); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Channel updated successfully"})
}

// DeleteChannel disconnects a channel
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	if err := h.Store.DeleteChannel(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Channel deleted successfully"})
}

// ValidateChannel checks the stored credentials against the live platform
func (h *ChannelHandler) ValidateChannel(c *gin.Context) {
	id := c.Param("id")

	channel, err := h.Store.GetChannel(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}

	var creds publisher.Credentials
	if err := json.Unmarshal([]byte(channel.Credentials), &creds); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stored credentials are unreadable"})
		return
	}

	adapter, err := h.Factory(channel.Platform, creds)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !adapter.ValidateCredentials(c.Request.Context()) {
		h.Store.PatchChannel(c.Request.Context(), id, map[string]interface{}{"status": models.ChannelStatusError})
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}

	info, _ := adapter.GetAccountInfo(c.Request.Context())
	h.Store.PatchChannel(c.Request.Context(), id, map[string]interface{}{"status": models.ChannelStatusActive})
	c.JSON(http.StatusOK, gin.H{"valid": true, "account": info})
}
