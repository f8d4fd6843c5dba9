package models

import "time"

// KeyType distinguishes the daily free key from generated VIP keys
type KeyType string

const (
	KeyTypeFree KeyType = "free"
	KeyTypeVip  KeyType = "vip"
)

// KeyStatus is the lifecycle state of an access key
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"
	KeyStatusExpired KeyStatus = "expired"
)

// Key represents an access key handed out to end users.
//
// Status lags real expiry: a key past its ExpiresAt stays "active" until a
// validity check or the cleanup sweep touches it. Anything that needs the
// true answer must look at ExpiresAt, not Status.
type Key struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"-"`
	Key       string     `gorm:"uniqueIndex;not null" json:"key"`
	Type      KeyType    `gorm:"type:varchar(10);not null;index" json:"type"`
	Status    KeyStatus  `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
	ExpiresAt *time.Time `json:"expires_at"` // nil means the key never expires
	UserID    uint       `gorm:"not null" json:"user_id"`
	Note      string     `json:"note"`
}
