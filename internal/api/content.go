package api

import (
	"net/http"

	"social-gateway/internal/ai"
	"social-gateway/internal/models"
	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContentHandler struct {
	Store     store.Store
	Generator ai.Generator
}

func NewContentHandler(s store.Store, g ai.Generator) *ContentHandler {
	return &ContentHandler{Store: s, Generator: g}
}

// CreateDraft stores a manually written piece of content
func (h *ContentHandler) CreateDraft(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
		Topic     string `json:"topic"`
		Body      string `json:"body" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content := models.Content{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		Topic:     req.Topic,
		Body:      req.Body,
		Status:    "draft",
		Source:    "manual",
	}

	if err := h.Store.CreateContent(c.Request.Context(), &content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, content)
}

// GenerateContent produces a draft from a topic using the product's brand
// voice
func (h *ContentHandler) GenerateContent(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
		Topic     string `json:"topic" binding:"required"`
		Platform  string `json:"platform"`
		MaxLength int    `json:"maxLength"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.Store.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	body, err := h.Generator.Generate(c.Request.Context(), req.Topic, product.BrandVoice, ai.PlatformConstraints{
		Platform:  req.Platform,
		MaxLength: req.MaxLength,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	content := models.Content{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		Topic:     req.Topic,
		Body:      body,
		Status:    "draft",
		Source:    "generated",
	}

	if err := h.Store.CreateContent(c.Request.Context(), &content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, content)
}

// GetContent returns one content record
func (h *ContentHandler) GetContent(c *gin.Context) {
	content, err := h.Store.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
		return
	}

	c.JSON(http.StatusOK, content)
}
