package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

// Handler handles dashboard statistics requests
type Handler struct {
	store *store.Store
}

// NewHandler creates a new stats handler
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// Dashboard returns the admin dashboard rollup, recomputed on every call
// @Summary Dashboard statistics
// @Description Key totals, trailing-week usage and key type distribution
// @Tags stats
// @Produce json
// @Success 200 {object} store.DashboardStats
// @Security BearerAuth
// @Router /stats/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RegisterRoutes registers stats routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats/dashboard", h.Dashboard)
}
