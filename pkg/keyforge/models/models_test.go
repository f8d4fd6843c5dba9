package models

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	return db
}

func TestAutoMigrate(t *testing.T) {
	db := setupTestDB(t)

	err := AutoMigrate(db)
	if err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	// Verify tables exist by checking if we can query them
	tables := []string{"users", "keys", "api_keys", "usage_logs", "settings", "short_urls"}
	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			t.Errorf("Expected table %s to exist", table)
		}
	}
}

func TestKeyModel(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)

	expires := time.Now().Add(24 * time.Hour)
	key := Key{
		Key:       "THOMAS_abc123XYZ000",
		Type:      KeyTypeVip,
		Status:    KeyStatusActive,
		ExpiresAt: &expires,
		UserID:    1,
		Note:      "test key",
	}

	if err := db.Create(&key).Error; err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}
	if key.ID == 0 {
		t.Error("Expected key ID to be set after create")
	}

	// Key strings are unique
	dup := Key{
		Key:    "THOMAS_abc123XYZ000",
		Type:   KeyTypeVip,
		Status: KeyStatusActive,
		UserID: 1,
	}
	if err := db.Create(&dup).Error; err == nil {
		t.Error("Expected unique constraint violation for duplicate key string")
	}
}

func TestKeyWithoutExpiry(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)

	key := Key{
		Key:    "THOMAS_neverexpires",
		Type:   KeyTypeVip,
		Status: KeyStatusActive,
		UserID: 1,
	}
	if err := db.Create(&key).Error; err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}

	var loaded Key
	if err := db.First(&loaded, key.ID).Error; err != nil {
		t.Fatalf("Failed to load key: %v", err)
	}
	if loaded.ExpiresAt != nil {
		t.Errorf("Expected nil ExpiresAt, got %v", loaded.ExpiresAt)
	}
}

func TestUsageLogNullableReferences(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)

	// A log may reference neither a key nor an API key
	log := UsageLog{
		IPAddress:  "203.0.113.5",
		UserAgent:  "test-agent",
		Successful: true,
		Timestamp:  time.Now(),
	}
	if err := db.Create(&log).Error; err != nil {
		t.Fatalf("Failed to create usage log: %v", err)
	}

	var loaded UsageLog
	if err := db.First(&loaded, log.ID).Error; err != nil {
		t.Fatalf("Failed to load usage log: %v", err)
	}
	if loaded.KeyID != nil || loaded.APIKeyID != nil {
		t.Error("Expected both key references to be nil")
	}
}

func TestSettingUniqueName(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)

	setting := Setting{Name: "site_title", Value: "Keyforge", UpdatedByID: 1}
	if err := db.Create(&setting).Error; err != nil {
		t.Fatalf("Failed to create setting: %v", err)
	}

	dup := Setting{Name: "site_title", Value: "Other", UpdatedByID: 1}
	if err := db.Create(&dup).Error; err == nil {
		t.Error("Expected unique constraint violation for duplicate setting name")
	}
}
