package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type checkRunner interface {
	RunReminderCheck(ctx context.Context) error
	RunDueCheck(ctx context.Context) error
}

// Scheduler drives the checks: one run immediately at startup, then one per
// tick. A tick that arrives while a run is still in flight is skipped rather
// than queued, so slow store scans never pile up.
type Scheduler struct {
	runner   checkRunner
	interval time.Duration
	cron     *cron.Cron
	mu       sync.Mutex
}

func NewScheduler(runner checkRunner, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, interval: interval}
}

// Start registers the periodic job and kicks off the immediate first run in
// the background. The ctx is carried into every run; cancel it before Stop
// to abort in-flight store calls.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule notification checks: %w", err)
	}
	go s.runOnce(ctx)
	s.cron.Start()
	slog.Info("notification scheduler started", "interval", s.interval)
	return nil
}

// Stop halts the timer and blocks until any in-flight run has finished.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	// The startup run is a plain goroutine, not a cron job; wait on the
	// run lock to cover it as well.
	s.mu.Lock()
	s.mu.Unlock() //nolint:staticcheck // empty critical section is the wait
	slog.Info("notification scheduler stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.mu.TryLock() {
		slog.Warn("notification checks still running, skipping tick")
		return
	}
	defer s.mu.Unlock()

	if err := s.runner.RunReminderCheck(ctx); err != nil {
		slog.Error("reminder check failed", "err", err)
	}
	if err := s.runner.RunDueCheck(ctx); err != nil {
		slog.Error("due-task check failed", "err", err)
	}
}
