package apikeys

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

// HeaderAPIKey carries the credential for programmatic access
const HeaderAPIKey = "X-API-Key"

// ContextKeyAPIKeyID is the key for the authenticated API key id in gin context
const ContextKeyAPIKeyID = "api_key_id"

// Middleware authenticates requests via the X-API-Key header. A read-only
// key passes a read-only gate; full-access gates require a full-access key.
// Every attempt against a known key is recorded in the usage log, rejected
// ones with successful=false.
func Middleware(s *store.Store, required models.APIKeyPermissions) gin.HandlerFunc {
	return func(c *gin.Context) {
		value := c.GetHeader(HeaderAPIKey)
		if value == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key required"})
			c.Abort()
			return
		}

		apiKey, err := s.GetAPIKeyByValue(value)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate API key"})
			c.Abort()
			return
		}
		if apiKey == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		allowed := apiKey.Status == models.APIKeyStatusActive &&
			(required == models.PermissionsReadOnly ||
				apiKey.Permissions == models.PermissionsFullAccess)

		logAccess(c, s, apiKey.ID, allowed)

		if apiKey.Status != models.APIKeyStatusActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key revoked"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Set(ContextKeyAPIKeyID, apiKey.ID)
		c.Next()
	}
}

// GetAPIKeyID returns the authenticated API key id from the gin context
func GetAPIKeyID(c *gin.Context) (uint, bool) {
	id, exists := c.Get(ContextKeyAPIKeyID)
	if !exists {
		return 0, false
	}
	return id.(uint), true
}

func logAccess(c *gin.Context, s *store.Store, apiKeyID uint, successful bool) {
	ua := c.Request.UserAgent()
	if ua == "" {
		ua = "unknown"
	}
	entry := models.UsageLog{
		APIKeyID:   &apiKeyID,
		IPAddress:  c.ClientIP(),
		UserAgent:  ua,
		Successful: successful,
	}
	if err := s.LogUsage(&entry); err != nil {
		_ = c.Error(err)
	}
}
