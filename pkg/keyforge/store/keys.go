package store

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/thomasvn/keyforge/pkg/keyforge/keygen"
	"github.com/thomasvn/keyforge/pkg/keyforge/models"
)

// vipCreateRetries bounds regeneration when a generated key collides
const vipCreateRetries = 3

// ErrKeyExists is returned when inserting a key whose value is already taken
var ErrKeyExists = errors.New("key value already exists")

// CreateKey inserts a key. The key string must be unique; a conflicting
// insert fails with ErrKeyExists rather than silently duplicating.
func (s *Store) CreateKey(key *models.Key) error {
	err := s.db.Create(key).Error
	if err != nil && isUniqueViolation(err) {
		return ErrKeyExists
	}
	return err
}

// GetKey returns a key by id, or nil when not found
func (s *Store) GetKey(id uint) (*models.Key, error) {
	var key models.Key
	err := s.db.First(&key, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// GetKeyByValue returns a key by its exact string value, or nil when absent.
// Callers treat absence as a normal case: an unknown key is simply invalid.
func (s *Store) GetKeyByValue(value string) (*models.Key, error) {
	var key models.Key
	err := s.db.Where("key = ?", value).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// ListKeys returns one page of keys, newest first, plus the total count
// matching the type filter before pagination. An empty keyType matches all;
// an unrecognized one simply matches nothing.
func (s *Store) ListKeys(keyType string, page, limit int) ([]models.Key, int64, error) {
	page, limit = normalizePage(page, limit)

	query := s.db.Model(&models.Key{})
	if keyType != "" {
		query = query.Where("type = ?", keyType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var keys []models.Key
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&keys).Error
	if err != nil {
		return nil, 0, err
	}
	return keys, total, nil
}

// CheckKeyValidity reports whether a key string is currently usable.
// A key past its expiry is flipped to expired as a side effect, so the
// public verification path doubles as lazy cleanup.
func (s *Store) CheckKeyValidity(value string) (bool, error) {
	valid := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var key models.Key
		err := tx.Where("key = ?", value).First(&key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if key.Status != models.KeyStatusActive {
			return nil
		}

		if key.ExpiresAt != nil && key.ExpiresAt.Before(s.now()) {
			return tx.Model(&key).Update("status", models.KeyStatusExpired).Error
		}

		valid = true
		return nil
	})
	return valid, err
}

// CleanupExpiredKeys flips every active key past its expiry to expired and
// returns how many were touched. Calling it again immediately returns 0.
func (s *Store) CleanupExpiredKeys() (int64, error) {
	result := s.db.Model(&models.Key{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?",
			models.KeyStatusActive, s.now()).
		Update("status", models.KeyStatusExpired)
	return result.RowsAffected, result.Error
}

// TodayFreeKey returns today's free key, creating it on first call of the
// day. The lookup and create run in one transaction so repeated or
// concurrent calls within a day yield the same row.
func (s *Store) TodayFreeKey() (*models.Key, error) {
	value := keygen.FreeKeyFor(s.now())

	var key models.Key
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("key = ?", value).First(&key).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		expires := startOfTomorrow(s.now())
		key = models.Key{
			Key:       value,
			Type:      models.KeyTypeFree,
			Status:    models.KeyStatusActive,
			ExpiresAt: &expires,
			UserID:    systemUserID,
			Note:      "Auto-generated free key",
		}
		return tx.Create(&key).Error
	})
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// CreateVipKey generates and inserts a new VIP key. expiryDays of 0 means
// the key never expires. Generation is retried a few times if the random
// value collides with an existing key.
func (s *Store) CreateVipKey(userID uint, expiryDays int, note string) (*models.Key, error) {
	var expiresAt *time.Time
	if expiryDays > 0 {
		expires := addDays(s.now(), expiryDays)
		expiresAt = &expires
	}

	var lastErr error
	for attempt := 0; attempt < vipCreateRetries; attempt++ {
		value, err := keygen.VipKey(keygen.VipPrefix, keygen.VipLength)
		if err != nil {
			return nil, err
		}

		key := &models.Key{
			Key:       value,
			Type:      models.KeyTypeVip,
			Status:    models.KeyStatusActive,
			ExpiresAt: expiresAt,
			UserID:    userID,
			Note:      note,
		}
		lastErr = s.CreateKey(key)
		if lastErr == nil {
			return key, nil
		}
		if !errors.Is(lastErr, ErrKeyExists) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// ClearFreeKeys removes all free-type keys and returns how many were deleted
func (s *Store) ClearFreeKeys() (int64, error) {
	result := s.db.Where("type = ?", models.KeyTypeFree).Delete(&models.Key{})
	return result.RowsAffected, result.Error
}

// addDays does wall-clock date arithmetic, so a 7-day key tracks the
// calendar rather than a fixed number of hours
func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// startOfTomorrow returns local midnight following t
func startOfTomorrow(t time.Time) time.Time {
	y, m, d := t.AddDate(0, 0, 1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// isUniqueViolation detects a sqlite unique-constraint failure
func isUniqueViolation(err error) bool {
	return err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed"))
}
