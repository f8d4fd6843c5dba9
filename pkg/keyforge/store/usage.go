package store

import (
	"github.com/thomasvn/keyforge/pkg/keyforge/models"
)

// LogUsage appends a usage log row. Every call is recorded as-is; there is
// no deduplication or rate limiting.
func (s *Store) LogUsage(log *models.UsageLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = s.now()
	}
	return s.db.Create(log).Error
}

// KeyUsage returns every log row for a key, newest first
func (s *Store) KeyUsage(keyID uint) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	err := s.db.Where("key_id = ?", keyID).
		Order("timestamp DESC, id DESC").
		Find(&logs).Error
	return logs, err
}

// UsageByIP returns every log row for an IP address, newest first
func (s *Store) UsageByIP(ipAddress string) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	err := s.db.Where("ip_address = ?", ipAddress).
		Order("timestamp DESC, id DESC").
		Find(&logs).Error
	return logs, err
}

// RecentUsage returns the newest log rows, capped at limit (default 10)
func (s *Store) RecentUsage(limit int) ([]models.UsageLog, error) {
	if limit < 1 {
		limit = 10
	}
	var logs []models.UsageLog
	err := s.db.Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
