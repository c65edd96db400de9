package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the checkpoint job on a cron schedule.
type Scheduler struct {
	job      *Checkpointer
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler for the given job. An empty schedule
// disables scheduling entirely.
func NewScheduler(job *Checkpointer, schedule string) *Scheduler {
	return &Scheduler{
		job:      job,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "maintenance.scheduler"),
	}
}

// Start begins scheduled maintenance and stops it when ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("checkpoint schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.job.Run(ctx); err != nil {
			s.logger.Error("scheduled checkpoint failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule checkpoint: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("maintenance scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning returns true while the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
