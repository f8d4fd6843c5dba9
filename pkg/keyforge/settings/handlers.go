package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thomasvn/keyforge/pkg/keyforge/auth"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

// Handler handles settings requests
type Handler struct {
	store *store.Store
}

// NewHandler creates a new settings handler
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// UpdateSettingRequest represents the request to set a value
type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required"`
}

// Get returns a setting by name
func (h *Handler) Get(c *gin.Context) {
	setting, err := h.store.Setting(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve setting"})
		return
	}
	if setting == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Setting not found"})
		return
	}
	c.JSON(http.StatusOK, setting)
}

// Update upserts a setting by name, stamping the caller as the editor
func (h *Handler) Update(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setting, err := h.store.UpdateSetting(c.Param("name"), req.Value, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update setting"})
		return
	}
	c.JSON(http.StatusOK, setting)
}

// RegisterRoutes registers settings routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/settings/:name", h.Get)
	rg.PUT("/settings/:name", h.Update)
}
