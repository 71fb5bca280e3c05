package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ContentGenerator/internal/ports"
	"ContentGenerator/pkg/logger"
)

// CronScheduler fires a job on a five-field cron expression (or a
// descriptor such as "@hourly") evaluated in a fixed timezone.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu       sync.Mutex
	cron     *cron.Cron
	schedule cron.Schedule
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, location *time.Location, log *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{spec: spec, location: location, logger: log}
}

// Start registers job and starts ticking. A trigger that fires while the
// previous job is still running is skipped. Cancelling ctx stops the
// scheduler.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cronLog := logger.NewCron(c.logger)
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cr := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(c.location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	schedule, err := parser.Parse(c.spec)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", c.spec, err)
	}
	cr.Schedule(schedule, cron.FuncJob(func() { job(time.Now().In(c.location)) }))
	cr.Start()
	c.cron = cr
	c.schedule = schedule
	c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.location.String(), "next", c.nextLocked())

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Next returns the next planned trigger, false when not started.
func (c *CronScheduler) Next() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return time.Time{}, false
	}
	return c.nextLocked(), true
}

func (c *CronScheduler) nextLocked() time.Time {
	return c.schedule.Next(time.Now().In(c.location))
}

// Stop halts the scheduler and waits for a running job to return or ctx
// to expire.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cron == nil {
		c.mu.Unlock()
		return nil
	}
	done := c.cron.Stop()
	c.cron = nil
	c.mu.Unlock()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
