package api

import (
	"net/http"

	"social-gateway/internal/models"
	"social-gateway/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductHandler struct {
	Store store.Store
}

func NewProductHandler(s store.Store) *ProductHandler {
	return &ProductHandler{Store: s}
}

// CreateProduct registers a product and its webhook secret
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req struct {
		Name          string `json:"name" binding:"required"`
		WebhookSecret string `json:"webhookSecret"`
		BrandVoice    string `json:"brandVoice"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{
		ID:            uuid.NewString(),
		Name:          req.Name,
		WebhookSecret: req.WebhookSecret,
		BrandVoice:    req.BrandVoice,
	}

	if err := h.Store.CreateProduct(c.Request.Context(), &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": product.ID, "message": "Product created successfully"})
}

// GetProduct returns one product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.Store.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}
