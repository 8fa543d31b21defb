package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/jobs"
)

// Scheduler runs the periodic orphaned-job sweep: any job left in a
// processing or queued state without a live task is re-launched from its
// persisted cursor.
type Scheduler struct {
	orchestrator *jobs.Orchestrator
	cron         *cron.Cron
	logger       arbor.ILogger
}

// NewScheduler creates a recovery scheduler
func NewScheduler(orchestrator *jobs.Orchestrator, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		cron:         cron.New(),
		logger:       logger,
	}
}

// Start begins the scheduled recovery sweep
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = "@every 5m"
	}

	_, err := s.cron.AddFunc(schedule, func() {
		s.runSweep()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Job recovery scheduler started")

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("Job recovery scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	recovered, err := s.orchestrator.RecoverJobs(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Orphaned job sweep failed")
		return
	}
	if recovered > 0 {
		s.logger.Info().Int("recovered", recovered).Msg("Orphaned jobs recovered")
	}
}
