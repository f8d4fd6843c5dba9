package models

import "time"

// APIKeyPermissions controls what an API key may do
type APIKeyPermissions string

const (
	PermissionsReadOnly   APIKeyPermissions = "read-only"
	PermissionsFullAccess APIKeyPermissions = "full-access"
)

// APIKeyStatus is the lifecycle state of an API key
type APIKeyStatus string

const (
	APIKeyStatusActive  APIKeyStatus = "active"
	APIKeyStatusRevoked APIKeyStatus = "revoked"
)

// APIKey represents a credential for programmatic access.
// Keys are never deleted, only revoked.
type APIKey struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"-"`
	Key         string            `gorm:"uniqueIndex;not null" json:"key"`
	Description string            `json:"description"`
	Permissions APIKeyPermissions `gorm:"type:varchar(20);default:'read-only'" json:"permissions"`
	Status      APIKeyStatus      `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	CreatedByID uint              `gorm:"not null" json:"created_by_id"`
}
