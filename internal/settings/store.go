package settings

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"callbooker/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Store publishes immutable Settings snapshots to concurrent readers.
// Refresh swaps the whole snapshot, so a request that took a snapshot keeps
// a consistent view even if the row changes mid-request.
type Store struct {
	source  Source
	current atomic.Pointer[Settings]
}

// NewStore loads the initial snapshot; the process must not start without one.
func NewStore(ctx context.Context, source Source) (*Store, error) {
	s := &Store{source: source}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() Settings {
	return *s.current.Load()
}

// Refresh reloads settings. Invalid settings are rejected and the previous
// snapshot stays in place.
func (s *Store) Refresh(ctx context.Context) error {
	next, err := s.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	s.current.Store(&next)
	return nil
}

// Schedule registers a periodic refresh on c.
func (s *Store) Schedule(c *cron.Cron, every time.Duration, timeout time.Duration) (cron.EntryID, error) {
	return c.AddFunc(fmt.Sprintf("@every %s", every), func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			logger.From(ctx).Warn("settings refresh failed; keeping previous snapshot", "err", err)
		}
	})
}
