// Package store owns the key lifecycle: creation, validity, expiry
// transitions, usage logging and dashboard rollups. Handlers hold a *Store
// and never touch the underlying tables directly.
package store

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/thomasvn/keyforge/pkg/keyforge/models"
)

// systemUserID is the seeded admin, owner of auto-generated free keys
const systemUserID = 1

// Store is the record store and lifecycle engine. Create one per process
// (or per test) and pass it explicitly; there is no package-level instance.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a store over an already-migrated database
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// DB exposes the underlying handle for callers that own their own tables
func (s *Store) DB() *gorm.DB {
	return s.db
}

// User operations

// UserByUsername looks a user up by username, case-insensitively.
// Returns nil without error when no such user exists.
func (s *Store) UserByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.db.Where("LOWER(username) = ?", strings.ToLower(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// User returns a user by id, or nil when not found
func (s *Store) User(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user. The caller supplies the password hash; the
// store does not dictate the hashing scheme. Fails when the username is
// already taken under case-insensitive comparison.
func (s *Store) CreateUser(user *models.User) error {
	existing, err := s.UserByUsername(user.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	return s.db.Create(user).Error
}

// ErrUsernameTaken is returned by CreateUser for a duplicate username
var ErrUsernameTaken = errors.New("username already taken")

// Setting operations

// Setting returns the named setting, or nil when not set
func (s *Store) Setting(name string) (*models.Setting, error) {
	var setting models.Setting
	err := s.db.Where("name = ?", name).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// UpdateSetting upserts a setting by name, recording who changed it
func (s *Store) UpdateSetting(name, value string, userID uint) (*models.Setting, error) {
	var setting models.Setting
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).First(&setting).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			setting = models.Setting{Name: name, Value: value, UpdatedByID: userID}
			return tx.Create(&setting).Error
		}
		if err != nil {
			return err
		}
		setting.Value = value
		setting.UpdatedByID = userID
		return tx.Save(&setting).Error
	})
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// normalizePage applies the defaults for 1-indexed pagination
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}
