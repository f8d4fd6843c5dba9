package apikeys

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thomasvn/keyforge/pkg/keyforge/auth"
	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

// Handler handles API key management requests
type Handler struct {
	store *store.Store
}

// NewHandler creates a new API keys handler
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// CreateAPIKeyRequest represents a request to create an API key
type CreateAPIKeyRequest struct {
	Description string `json:"description" binding:"required"`
	Permissions string `json:"permissions" binding:"required,oneof=read-only full-access"`
}

// ListAPIKeysResponse is one page of API keys plus the unpaginated total
type ListAPIKeysResponse struct {
	APIKeys []models.APIKey `json:"api_keys"`
	Total   int64           `json:"total"`
}

// Create creates a new API key credited to the authenticated user
func (h *Handler) Create(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apiKey := models.APIKey{
		Description: req.Description,
		Permissions: models.APIKeyPermissions(req.Permissions),
		CreatedByID: userID,
	}
	if err := h.store.CreateAPIKey(&apiKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "API key created successfully",
		"api_key": apiKey,
	})
}

// List returns a page of API keys, newest first
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	apiKeys, total, err := h.store.ListAPIKeys(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve API keys"})
		return
	}

	c.JSON(http.StatusOK, ListAPIKeysResponse{APIKeys: apiKeys, Total: total})
}

// Revoke sets an API key to revoked. Keys are never deleted, so a revoked
// key stays visible in listings and in the usage log.
func (h *Handler) Revoke(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid API key ID"})
		return
	}

	ok, err := h.store.RevokeAPIKey(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke API key"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key revoked successfully"})
}

// RegisterRoutes registers API key management routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/apikeys", h.List)
	rg.POST("/apikeys", h.Create)
	rg.PUT("/apikeys/:id/revoke", h.Revoke)
}
