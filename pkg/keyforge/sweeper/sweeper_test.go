package sweeper

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thomasvn/keyforge/pkg/keyforge/models"
	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

func setupTestStore(t *testing.T) *store.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)

	s := store.New(db)
	admin := models.User{Username: "admin", PasswordHash: "x", Role: models.RoleAdmin}
	if err := s.CreateUser(&admin); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}
	return s
}

func TestSweeperPrimesOnStartup(t *testing.T) {
	s := setupTestStore(t)

	past := time.Now().Add(-time.Hour)
	stale := models.Key{Key: "THOMAS_sweeper00001", Type: models.KeyTypeVip,
		Status: models.KeyStatusActive, ExpiresAt: &past, UserID: 1}
	if err := s.CreateKey(&stale); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	New(s, time.Hour).Start(ctx)

	deadline := time.After(2 * time.Second)
	for {
		key, _ := s.GetKey(stale.ID)
		if key != nil && key.Status == models.KeyStatusExpired {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Expected the startup sweep to expire the stale key")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// The rollover primer must have created today's free key
	keys, total, err := s.ListKeys("free", 1, 10)
	if err != nil {
		t.Fatalf("ListKeys failed: %v", err)
	}
	if total != 1 || len(keys) != 1 {
		t.Errorf("Expected today's free key to exist, got %d", total)
	}
}

func TestSweeperTicksCleanup(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	New(s, 20*time.Millisecond).Start(ctx)

	// Give the startup pass a moment, then add a key that expires later
	time.Sleep(50 * time.Millisecond)

	past := time.Now().Add(-time.Minute)
	stale := models.Key{Key: "THOMAS_sweeper00002", Type: models.KeyTypeVip,
		Status: models.KeyStatusActive, ExpiresAt: &past, UserID: 1}
	if err := s.CreateKey(&stale); err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		key, _ := s.GetKey(stale.ID)
		if key != nil && key.Status == models.KeyStatusExpired {
			return
		}
		select {
		case <-deadline:
			t.Fatal("Expected a cleanup tick to expire the key")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSweeperStopsOnCancel(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(s, time.Hour).Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected Run to return after cancellation")
	}
}
