package logs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

// Handler handles usage log read requests
type Handler struct {
	store *store.Store
}

// NewHandler creates a new logs handler
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// KeySummary is the lightweight key reference attached to an enriched log
type KeySummary struct {
	ID     uint   `json:"id"`
	Key    string `json:"key"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// APIKeySummary is the lightweight API key reference attached to an enriched log
type APIKeySummary struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
}

// EnrichedLog is a usage log with its references resolved for display.
// A dangling reference resolves to null rather than an error.
type EnrichedLog struct {
	ID         uint           `json:"id"`
	KeyID      *uint          `json:"key_id"`
	APIKeyID   *uint          `json:"api_key_id"`
	IPAddress  string         `json:"ip_address"`
	UserAgent  string         `json:"user_agent"`
	Successful bool           `json:"successful"`
	Timestamp  time.Time      `json:"timestamp"`
	Key        *KeySummary    `json:"key"`
	APIKey     *APIKeySummary `json:"api_key"`
}

// Recent returns the newest usage logs, enriched with key summaries
func (h *Handler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.store.RecentUsage(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent logs"})
		return
	}

	enriched := make([]EnrichedLog, len(entries))
	for i, entry := range entries {
		enriched[i] = h.enrich(entry)
	}

	c.JSON(http.StatusOK, enriched)
}

// ByIP returns every log row recorded for an IP address, newest first
func (h *Handler) ByIP(c *gin.Context) {
	entries, err := h.store.UsageByIP(c.Param("ip"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve logs by IP"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ByKey returns every log row recorded for a key, newest first
func (h *Handler) ByKey(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid key ID"})
		return
	}

	entries, err := h.store.KeyUsage(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve logs by key"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// enrich resolves a log's key references to display summaries
func (h *Handler) enrich(entry models.UsageLog) EnrichedLog {
	out := EnrichedLog{
		ID:         entry.ID,
		KeyID:      entry.KeyID,
		APIKeyID:   entry.APIKeyID,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		Successful: entry.Successful,
		Timestamp:  entry.Timestamp,
	}

	if entry.KeyID != nil {
		if key, err := h.store.GetKey(*entry.KeyID); err == nil && key != nil {
			out.Key = &KeySummary{
				ID:     key.ID,
				Key:    key.Key,
				Type:   string(key.Type),
				Status: string(key.Status),
			}
		}
	}
	if entry.APIKeyID != nil {
		if apiKey, err := h.store.GetAPIKey(*entry.APIKeyID); err == nil && apiKey != nil {
			out.APIKey = &APIKeySummary{
				ID:          apiKey.ID,
				Description: apiKey.Description,
			}
		}
	}
	return out
}

// RegisterRoutes registers usage log routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/logs/recent", h.Recent)
	rg.GET("/logs/ip/:ip", h.ByIP)
	rg.GET("/logs/key/:id", h.ByKey)
}
