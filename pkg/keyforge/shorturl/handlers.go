package shorturl

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

const (
	// CodeLength is the length of generated short codes
	CodeLength = 6
	// codeAttempts bounds regeneration when a generated code collides
	codeAttempts = 5
)

const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Handler handles short URL requests
type Handler struct {
	store *store.Store
}

// NewHandler creates a new short URL handler
func NewHandler(s *store.Store) *Handler {
	return &Handler{store: s}
}

// CreateRequest represents a request to shorten a URL
type CreateRequest struct {
	URL   string `json:"url" binding:"required,url"`
	KeyID *uint  `json:"key_id"`
}

// CreateResponse is the shortened URL result
type CreateResponse struct {
	Status       string `json:"status"`
	OriginalURL  string `json:"original_url"`
	ShortenedURL string `json:"shortened_url"`
	KeyID        *uint  `json:"key_id"`
}

// generateCode returns a random short code
func generateCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		code[i] = codeChars[rand.Intn(len(codeChars))]
	}
	return string(code)
}

// Create shortens a URL, optionally binding it to a key so that following
// the link records usage against that key
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.KeyID != nil {
		key, err := h.store.GetKey(*req.KeyID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate key"})
			return
		}
		if key == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid key ID"})
			return
		}
	}

	var link models.ShortURL
	created := false
	for attempt := 0; attempt < codeAttempts && !created; attempt++ {
		link = models.ShortURL{
			Code:        generateCode(CodeLength),
			Destination: req.URL,
			KeyID:       req.KeyID,
		}
		err := h.store.DB().Create(&link).Error
		switch {
		case err == nil:
			created = true
		case errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "UNIQUE constraint failed"):
			// regenerate
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to shorten URL"})
			return
		}
	}
	if !created {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to shorten URL"})
		return
	}

	c.JSON(http.StatusOK, CreateResponse{
		Status:       "success",
		OriginalURL:  req.URL,
		ShortenedURL: baseURL(c) + "/s/" + link.Code,
		KeyID:        req.KeyID,
	})
}

// Redirect follows a short code. Codes bound to a key record usage and land
// on the key-verified page; plain codes redirect to their destination.
func (h *Handler) Redirect(c *gin.Context) {
	code := c.Param("code")

	var link models.ShortURL
	if err := h.store.DB().Where("code = ?", code).First(&link).Error; err != nil {
		c.String(http.StatusNotFound, "URL not found")
		return
	}

	if link.KeyID != nil {
		key, err := h.store.GetKey(*link.KeyID)
		if err == nil && key != nil {
			ua := c.Request.UserAgent()
			if ua == "" {
				ua = "unknown"
			}
			entry := models.UsageLog{
				KeyID:      &key.ID,
				IPAddress:  c.ClientIP(),
				UserAgent:  ua,
				Successful: true,
			}
			if err := h.store.LogUsage(&entry); err != nil {
				_ = c.Error(err)
			}

			c.Redirect(http.StatusFound, "/key-verified?key="+url.QueryEscape(key.Key))
			return
		}
	}

	c.Redirect(http.StatusFound, link.Destination)
}

func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// RegisterRoutes registers the authenticated creation route
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/urls", h.Create)
}

// RegisterPublicRoutes registers the public redirect on the root router.
// This should be called after all other routes to avoid conflicts.
func (h *Handler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/s/:code", h.Redirect)
}
