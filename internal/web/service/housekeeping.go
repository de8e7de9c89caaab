package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/launchpad/internal/web/store"
)

const (
	defaultPurgeInterval = time.Hour
	purgeTimeout         = 30 * time.Second
)

// HousekeepingService purges used reset-token markers once their token
// could no longer verify anyway, keeping the marker table bounded.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Now is overridable for tests.
	Now func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHousekeepingService returns a worker purging every interval. A
// non-positive interval means hourly.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = defaultPurgeInterval
	}
	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
	}
}

// Start runs a purge straight away and then on every tick until Stop.
// Starting a running worker does nothing.
func (s *HousekeepingService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(ctx, s.done)
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop cancels the worker and waits for an in-flight purge to return. It
// is safe to call on a worker that never started.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce deletes every marker that expired before Now and returns how
// many went. Failures are logged and count as zero.
func (s *HousekeepingService) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	purged, err := s.Store.ResetTokens().DeleteExpired(ctx, s.Now().UTC())
	switch {
	case err != nil && ctx.Err() != nil:
		s.Logger.Warn("reset marker purge interrupted", "error", err)
		return 0
	case err != nil:
		s.Logger.Error("failed to purge expired reset markers", "error", err)
		return 0
	}

	if purged > 0 {
		s.Logger.Info("purged expired reset markers", "count", purged)
	}
	return purged
}
