// Package sweeper runs the background maintenance loops: expiring stale
// keys and rotating the daily free key. These are the only paths besides
// the lazy validity check that advance key status, so a freshly expired
// key can read as active for up to one sweep interval.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/thomasvn/keyforge/pkg/keyforge/store"
)

const (
	// DefaultCleanupInterval is how often expired keys are swept
	DefaultCleanupInterval = time.Hour
	// rolloverInterval is deliberately short so the free key rotates
	// shortly after midnight regardless of the cleanup cadence
	rolloverInterval = time.Minute
)

// Sweeper periodically expires stale keys and keeps today's free key fresh
type Sweeper struct {
	store           *store.Store
	cleanupInterval time.Duration
}

// New creates a sweeper. A non-positive interval falls back to the default.
func New(s *store.Store, cleanupInterval time.Duration) *Sweeper {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Sweeper{store: s, cleanupInterval: cleanupInterval}
}

// Run blocks until the context is canceled, sweeping on two independent
// tickers: one for expiry cleanup, one for free-key rollover.
func (w *Sweeper) Run(ctx context.Context) {
	cleanup := time.NewTicker(w.cleanupInterval)
	defer cleanup.Stop()
	rollover := time.NewTicker(rolloverInterval)
	defer rollover.Stop()

	// Prime both on startup rather than waiting a full interval
	w.sweep()
	w.refreshFreeKey()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanup.C:
			w.sweep()
		case <-rollover.C:
			w.refreshFreeKey()
		}
	}
}

// Start runs the sweeper on its own goroutine
func (w *Sweeper) Start(ctx context.Context) {
	go w.Run(ctx)
}

func (w *Sweeper) sweep() {
	count, err := w.store.CleanupExpiredKeys()
	if err != nil {
		log.Printf("Sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Swept %d expired key(s)", count)
	}
}

func (w *Sweeper) refreshFreeKey() {
	if _, err := w.store.TodayFreeKey(); err != nil {
		log.Printf("Free key refresh failed: %v", err)
	}
}
