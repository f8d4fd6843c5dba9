package keys

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/thomasvn/keyforge/pkg/keyforge/auth"
	"github.com/thomasvn/keyforge/pkg/keyforge/keygen"
	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

// MaxBatchSize caps how many VIP keys one request may create
const MaxBatchSize = 100

// Handler handles key management and verification requests
type Handler struct {
	store *store.Store
}

// NewHandler creates a new keys handler
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// ListKeysResponse is one page of keys plus the unpaginated total
type ListKeysResponse struct {
	Keys  []models.Key `json:"keys"`
	Total int64        `json:"total"`
}

// CreateVipRequest represents a request to mint VIP keys
type CreateVipRequest struct {
	ExpiryDays int    `json:"expiry_days" binding:"min=0"` // 0 means no expiry
	Note       string `json:"note"`
	Count      int    `json:"count"`
}

// CheckResponse is the public verification result
type CheckResponse struct {
	Valid bool   `json:"valid"`
	Type  string `json:"type"`
}

// List returns a page of keys, optionally filtered by type
// @Summary List keys
// @Description List keys newest-first with optional type filter and pagination
// @Tags keys
// @Produce json
// @Param type query string false "Key type filter (free or vip)"
// @Param page query int false "Page (1-indexed, default 1)"
// @Param limit query int false "Page size (default 10)"
// @Success 200 {object} ListKeysResponse
// @Security BearerAuth
// @Router /keys [get]
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	keys, total, err := h.store.ListKeys(c.Query("type"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve keys"})
		return
	}

	c.JSON(http.StatusOK, ListKeysResponse{Keys: keys, Total: total})
}

// CreateVip mints one or more VIP keys for the authenticated admin
func (h *Handler) CreateVip(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateVipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count := req.Count
	if count < 1 {
		count = 1
	}
	if count > MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Count must be between 1 and 100"})
		return
	}

	created := make([]models.Key, 0, count)
	for i := 0; i < count; i++ {
		key, err := h.store.CreateVipKey(userID, req.ExpiryDays, req.Note)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create VIP key"})
			return
		}
		created = append(created, *key)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "VIP key(s) created successfully",
		"keys":    created,
	})
}

// ClearFree removes all free keys; the next fetch recreates today's
func (h *Handler) ClearFree(c *gin.Context) {
	count, err := h.store.ClearFreeKeys()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear free keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Free keys cleared", "count": count})
}

// FreeToday returns today's free key, creating it on first request of the
// day. Unauthenticated fetches are recorded in the usage log; admin-panel
// fetches (valid bearer token) are not.
func (h *Handler) FreeToday(c *gin.Context) {
	key, err := h.store.TodayFreeKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve today's free key"})
		return
	}

	if !isAuthenticated(c) {
		h.logUsage(c, &key.ID, nil, true)
	}

	c.JSON(http.StatusOK, gin.H{"key": key.Key})
}

// Check verifies a key string. Every attempt against a known key is
// recorded with its outcome; an expired key flips to expired here.
// @Summary Check key validity
// @Description Verify a key and report its type
// @Tags keys
// @Produce json
// @Param key path string true "Key value"
// @Success 200 {object} CheckResponse
// @Router /keys/check/{key} [get]
func (h *Handler) Check(c *gin.Context) {
	value := c.Param("key")

	valid, err := h.store.CheckKeyValidity(value)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check key validity"})
		return
	}

	keyType := string(keygen.Classify(value))
	if key, err := h.store.GetKeyByValue(value); err == nil && key != nil {
		keyType = string(key.Type)
		h.logUsage(c, &key.ID, nil, valid)
	}

	c.JSON(http.StatusOK, CheckResponse{Valid: valid, Type: keyType})
}

// logUsage records one access attempt; a failed write never fails the request
func (h *Handler) logUsage(c *gin.Context, keyID, apiKeyID *uint, successful bool) {
	entry := models.UsageLog{
		KeyID:      keyID,
		APIKeyID:   apiKeyID,
		IPAddress:  c.ClientIP(),
		UserAgent:  userAgent(c),
		Successful: successful,
	}
	if err := h.store.LogUsage(&entry); err != nil {
		_ = c.Error(err)
	}
}

func userAgent(c *gin.Context) string {
	if ua := c.Request.UserAgent(); ua != "" {
		return ua
	}
	return "unknown"
}

// isAuthenticated reports whether the request carries a valid bearer token.
// Used to keep admin-panel fetches of the free key out of the usage log.
func isAuthenticated(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	_, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	return err == nil
}

// RegisterRoutes registers the authenticated key management routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/keys", h.List)
	rg.POST("/keys/vip", h.CreateVip)
	rg.DELETE("/keys/free", h.ClearFree)
}

// RegisterPublicRoutes registers the unauthenticated verification routes
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/keys/free/today", h.FreeToday)
	rg.GET("/keys/check/:key", h.Check)
}
