package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"social-gateway/internal/models"
	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AutomationHandler struct {
	Store store.Store
}

func NewAutomationHandler(s store.Store) *AutomationHandler {
	return &AutomationHandler{Store: s}
}

// ListAutomations returns all automations for a product
func (h *AutomationHandler) ListAutomations(c *gin.Context) {
	automations, err := h.Store.ListAutomations(c.Request.Context(), c.Query("productId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, automations)
}

// CreateAutomation creates a new automation
func (h *AutomationHandler) CreateAutomation(c *gin.Context) {
	var req struct {
		ProductID     string          `json:"productId" binding:"required"`
		Name          string          `json:"name" binding:"required"`
		TriggerType   string          `json:"triggerType" binding:"required"`
		TriggerConfig json.RawMessage `json:"triggerConfig"`
		Conditions    json.RawMessage `json:"conditions"`
		Actions       json.RawMessage `json:"actions" binding:"required"`
		Enabled       *bool           `json:"enabled"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.TriggerType != "webhook" && req.TriggerType != "event" && req.TriggerType != "schedule" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "triggerType must be webhook, event or schedule"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	automation := models.Automation{
		ID:            uuid.NewString(),
		ProductID:     req.ProductID,
		Name:          req.Name,
		Enabled:       enabled,
		TriggerType:   req.TriggerType,
		TriggerConfig: string(req.TriggerConfig),
		Conditions:    string(req.Conditions),
		Actions:       string(req.Actions),
	}

	if err := h.Store.CreateAutomation(c.Request.Context(), &automation); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": automation.ID, "message": "Automation created successfully"})
}

// UpdateAutomation updates an existing automation
func (h *AutomationHandler) UpdateAutomation(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Name          string          `json:"name"`
		TriggerType   string          `json:"triggerType"`
		TriggerConfig json.RawMessage `json:"triggerConfig"`
		Conditions    json.RawMessage `json:"conditions"`
		Actions       json.RawMessage `json:"actions"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updateData := map[string]interface{}{}
	if req.Name != "" {
		updateData["name"] = req.Name
	}
	if req.TriggerType != "" {
		updateData["trigger_type"] = req.TriggerType
	}
	if len(req.TriggerConfig) > 0 {
		updateData["trigger_config"] = string(req.TriggerConfig)
	}
	if len(req.Conditions) > 0 {
		updateData["conditions"] = string(req.Conditions)
	}
	if len(req.Actions) > 0 {
		updateData["actions"] = string(req.Actions)
	}

	if err := h.Store.PatchAutomation(c.Request.Context(), id, updateData); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Automation updated successfully"})
}

// DeleteAutomation deletes an automation
func (h *AutomationHandler) DeleteAutomation(c *gin.Context) {
	if err := h.Store.DeleteAutomation(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Automation deleted successfully"})
}

// ToggleAutomation enables or disables an automation
func (h *AutomationHandler) ToggleAutomation(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Enabled bool `json:"enabled"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.PatchAutomation(c.Request.Context(), id, map[string]interface{}{"enabled": req.Enabled}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Automation toggled successfully", "enabled": req.Enabled})
}

// GetAutomationLogs returns recent execution logs for one automation
func (h *AutomationHandler) GetAutomationLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.Store.ListAutomationLogs(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// GetAutomationStats returns trigger counts and recent success rate
func (h *AutomationHandler) GetAutomationStats(c *gin.Context) {
	id := c.Param("id")

	automation, err := h.Store.GetAutomation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "automation not found"})
		return
	}

	logs, err := h.Store.ListAutomationLogs(c.Request.Context(), id, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	succeeded := 0
	for _, l := range logs {
		if l.Status == models.LogStatusSuccess {
			succeeded++
		}
	}

	successRate := 0.0
	if len(logs) > 0 {
		successRate = float64(succeeded) / float64(len(logs))
	}

	c.JSON(http.StatusOK, gin.H{
		"automation_id":     automation.ID,
		"trigger_count":     automation.TriggerCount,
		"last_triggered_at": automation.LastTriggeredAt,
		"recent_runs":       len(logs),
		"recent_succeeded":  succeeded,
		"success_rate":      successRate,
	})
}
