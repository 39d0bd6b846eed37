package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"social-gateway/internal/models"
	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Processor runs the automation pipeline for a stored event.
type Processor interface {
	HandleEvent(ctx context.Context, eventID string) error
}

type Handler struct {
	Store  store.Store
	Engine Processor
}

func NewHandler(s store.Store, engine Processor) *Handler {
	return &Handler{Store: s, Engine: engine}
}

// Verify answers webhook endpoint verification probes by echoing the
// challenge back.
func (h *Handler) Verify(c *gin.Context) {
	challenge := c.Query("challenge")
	if challenge == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive ingests an arbitrary JSON payload for a product, verifies the
// optional HMAC signature, stores the event, and runs the automation
// pipeline.
func (h *Handler) Receive(c *gin.Context) {
	productID := c.Param("productId")

	product, err := h.Store.GetProduct(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown product"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if product.WebhookSecret != "" {
		signature := c.GetHeader("x-webhook-signature")
		timestamp := c.GetHeader("x-webhook-timestamp")
		if !verifySignature(product.WebhookSecret, signature, timestamp, body) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}
	}

	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be valid JSON"})
		return
	}

	// Any valid JSON is accepted and stored verbatim. Only object payloads
	// carry an event type hint; everything else gets the default.
	var payload map[string]interface{}
	json.Unmarshal(body, &payload)

	event := &models.Event{
		ID:        uuid.NewString(),
		ProductID: productID,
		EventType: eventTypeOf(payload),
		Payload:   string(body),
	}
	if err := h.Store.CreateEvent(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.Engine.HandleEvent(c.Request.Context(), event.ID); err != nil {
		log.Printf("webhook: event %s processing failed: %v", event.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "event_id": event.ID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"event_id": event.ID, "event_type": event.EventType})
}

// eventTypeOf picks the event type hint from the payload: type, event,
// then eventType, first present wins.
func eventTypeOf(payload map[string]interface{}) string {
	for _, key := range []string{"type", "event", "eventType"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return "webhook.received"
}

// verifySignature checks an HMAC-SHA256 hex signature over the body,
// prefixed with the timestamp header when one is sent. Comparison is
// constant-time.
func verifySignature(secret, signature, timestamp string, body []byte) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	if timestamp != "" {
		mac.Write([]byte(timestamp))
	}
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
