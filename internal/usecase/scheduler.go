package usecase

import (
	"context"
	"log/slog"
	"time"

	"ContentGenerator/internal/ports"
)

// Scheduler wires the cron-like driver with the pipeline runner.
type Scheduler struct {
	driver  ports.Scheduler
	runner  *Runner
	options RunOptions
	enabled bool
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner *Runner, options RunOptions, enabled bool, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, runner: runner, options: options, enabled: enabled, logger: orDiscard(logger)}
}

// Start registers the runner with the provided scheduler. A disabled
// scheduler logs and returns without registering anything.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.enabled {
		s.logger.Info("scheduled runs disabled")
		return nil
	}
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		summary, err := s.runner.RunOnce(ctx, s.options)
		if err != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
			return
		}
		if summary.Skipped {
			s.logger.Debug("scheduled run skipped", "trigger", trigger)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
