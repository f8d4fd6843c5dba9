package models

import "time"

// ShortURL maps a short code to a destination URL.
// When KeyID is set, following the link records usage against that key and
// lands on the key-verified page instead of the stored destination.
type ShortURL struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	Destination string    `gorm:"not null" json:"destination"`
	KeyID       *uint     `json:"key_id"`
}
