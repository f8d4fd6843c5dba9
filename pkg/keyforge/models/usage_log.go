package models

import "time"

// UsageLog is one recorded verification or API access attempt.
// Append-only; every attempt is recorded, with no deduplication.
// Either foreign key may be nil for generic hits.
type UsageLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	KeyID      *uint     `gorm:"index" json:"key_id"`
	APIKeyID   *uint     `gorm:"index" json:"api_key_id"`
	IPAddress  string    `gorm:"index" json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	Successful bool      `json:"successful"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
}
