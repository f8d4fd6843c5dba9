package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/thomasvn/keyforge/pkg/keyforge/keygen"
	"github.com/thomasvn/keyforge/pkg/keyforge/models"
)

// CreateAPIKey inserts an API key. A missing key string is generated; the
// status is forced to active regardless of what the caller supplied.
func (s *Store) CreateAPIKey(apiKey *models.APIKey) error {
	if apiKey.Key == "" {
		value, err := keygen.APIKeyValue()
		if err != nil {
			return err
		}
		apiKey.Key = value
	}
	apiKey.Status = models.APIKeyStatusActive

	err := s.db.Create(apiKey).Error
	if err != nil && isUniqueViolation(err) {
		return ErrKeyExists
	}
	return err
}

// GetAPIKey returns an API key by id, or nil when not found
func (s *Store) GetAPIKey(id uint) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := s.db.First(&apiKey, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// GetAPIKeyByValue returns an API key by its string value, or nil when absent
func (s *Store) GetAPIKeyByValue(value string) (*models.APIKey, error) {
	var apiKey models.APIKey
	err := s.db.Where("key = ?", value).First(&apiKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &apiKey, nil
}

// ListAPIKeys returns one page of API keys, newest first, plus the total count
func (s *Store) ListAPIKeys(page, limit int) ([]models.APIKey, int64, error) {
	page, limit = normalizePage(page, limit)

	var total int64
	if err := s.db.Model(&models.APIKey{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var apiKeys []models.APIKey
	err := s.db.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&apiKeys).Error
	if err != nil {
		return nil, 0, err
	}
	return apiKeys, total, nil
}

// RevokeAPIKey sets an API key's status to revoked. Returns false for an
// unknown id; revoking an already-revoked key succeeds again.
func (s *Store) RevokeAPIKey(id uint) (bool, error) {
	apiKey, err := s.GetAPIKey(id)
	if err != nil {
		return false, err
	}
	if apiKey == nil {
		return false, nil
	}

	err = s.db.Model(apiKey).Update("status", models.APIKeyStatusRevoked).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
