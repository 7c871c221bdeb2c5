package task

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SweeperConfig holds configuration for the retention sweeper
type SweeperConfig struct {
	// Retention is how long a finished task is kept after its end time
	Retention time.Duration

	// Interval defines how often finished tasks are swept
	Interval time.Duration
}

// DefaultSweeperConfig returns a SweeperConfig with reasonable defaults
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Retention: time.Hour,
		Interval:  time.Hour,
	}
}

// Sweeper periodically evicts finished tasks older than the retention window.
// A single goroutine performs every sweep, so sweeps never overlap.
type Sweeper struct {
	store  *Store
	config SweeperConfig
	logger *slog.Logger
	now    func() time.Time

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewSweeper creates a Sweeper for store.
func NewSweeper(store *Store, config SweeperConfig, logger *slog.Logger) *Sweeper {
	defaults := DefaultSweeperConfig()
	if config.Retention <= 0 {
		config.Retention = defaults.Retention
	}
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		store:      store,
		config:     config,
		logger:     logger.With("component", "retention_sweeper"),
		now:        time.Now,
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the periodic sweep loop.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.loop()
		s.logger.Info("retention sweeper started",
			"retention", s.config.Retention,
			"interval", s.config.Interval)
	})
}

// Stop ends the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.cancelFunc()
		s.wg.Wait()
	})
}

// SweepOnce removes finished tasks whose end time is older than the
// retention window and returns how many were removed.
func (s *Sweeper) SweepOnce() int {
	cutoff := s.now().Add(-s.config.Retention)
	removed := s.store.Sweep(cutoff)
	if removed > 0 {
		s.logger.Info("evicted expired tasks", "count", removed, "cutoff", cutoff)
	} else {
		s.logger.Debug("no expired tasks to evict", "cutoff", cutoff)
	}
	return removed
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}
