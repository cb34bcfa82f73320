package scheduler

import (
	"context"
	"log/slog"
	"time"

	"channel_mirror/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.RunStats, error)
}

// RunHook is called after every pass that produced stats.
type RunHook func(ctx context.Context, run *domain.RunStats)

type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	logger   *slog.Logger
	onRun    RunHook
}

func NewScheduler(syncer Syncer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// OnRun registers a hook invoked after each pass.
func (s *Scheduler) OnRun(hook RunHook) {
	s.onRun = hook
}

// Start runs a pass immediately and then once per interval until ctx is done.
// Passes never overlap: a pass longer than the interval delays the next tick.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	run, err := s.syncer.Sync(ctx)
	if err != nil {
		s.logger.Error("sync failed", "error", err)
	}
	if run != nil && s.onRun != nil {
		s.onRun(ctx, run)
	}
}
