package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

// AbandonedReason is stored on items the stale-claim reaper fails.
const AbandonedReason = "abandoned in processing"

// RunOptions tunes a single pipeline run.
type RunOptions struct {
	BatchSize           int                  `json:"batch_size"`
	AutoPopulate        bool                 `json:"auto_populate"`
	PopulateMaxPriority int                  `json:"populate_max_priority"`
	ContentTypes        []domain.ContentType `json:"content_types"`
}

// PipelineDeps wires the use cases and driven adapters into the runner.
type PipelineDeps struct {
	Populator    *Populator
	Orchestrator *Orchestrator
	Queue        ports.QueueRepository
	Locker       ports.Locker
	Observer     ports.Observer
	Notifier     ports.Notifier
	Logger       *slog.Logger
	StaleAfter   time.Duration
}

// Runner executes populate-then-orchestrate runs, at most one at a time.
type Runner struct {
	running atomic.Bool

	populator    *Populator
	orchestrator *Orchestrator
	queue        ports.QueueRepository
	locker       ports.Locker
	observer     ports.Observer
	notifier     ports.Notifier
	logger       *slog.Logger
	staleAfter   time.Duration
	now          func() time.Time
}

// NewRunner constructs the single-flight pipeline runner.
func NewRunner(deps PipelineDeps) *Runner {
	return &Runner{
		populator:    deps.Populator,
		orchestrator: deps.Orchestrator,
		queue:        deps.Queue,
		locker:       deps.Locker,
		observer:     deps.Observer,
		notifier:     deps.Notifier,
		logger:       orDiscard(deps.Logger),
		staleAfter:   deps.StaleAfter,
		now:          time.Now,
	}
}

// Running reports whether a run currently holds the guard.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// RunOnce performs one run. When another run holds the guard it returns
// immediately with Skipped set and touches nothing. The guard is released
// on every exit path, panics included.
func (r *Runner) RunOnce(ctx context.Context, opts RunOptions) (summary domain.RunSummary, err error) {
	summary.StartedAt = r.now().UTC()

	if !r.running.CompareAndSwap(false, true) {
		r.logger.Info("run skipped, previous run still in progress")
		summary.Skipped = true
		return summary, nil
	}
	defer r.running.Store(false)

	if r.locker != nil {
		release, ok, lockErr := r.locker.TryLock(ctx)
		if lockErr != nil {
			summary.Skipped = true
			return summary, fmt.Errorf("acquire run lock: %w", lockErr)
		}
		if !ok {
			r.logger.Info("run skipped, lock held by another instance")
			summary.Skipped = true
			return summary, nil
		}
		defer release()
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("run panicked", "panic", rec)
			err = fmt.Errorf("run panicked: %v", rec)
		}
		summary.Duration = r.now().Sub(summary.StartedAt)
		r.finish(ctx, summary, err)
	}()

	summary.Reaped = r.reap(ctx)

	if opts.AutoPopulate && r.populator != nil {
		result, popErr := r.populator.Populate(ctx, PopulateRequest{
			ContentTypes: opts.ContentTypes,
			MaxPriority:  opts.PopulateMaxPriority,
		})
		if popErr != nil {
			r.logger.Error("populate failed, continuing with queued items", "error", popErr)
			summary.PopulateError = popErr.Error()
		} else {
			summary.Populate = &result
		}
	}

	summary.Batch, err = r.orchestrator.ProcessBatch(ctx, opts.BatchSize)
	if err != nil {
		err = fmt.Errorf("process batch: %w", err)
	}
	return summary, err
}

// reap fails items left in processing by a crashed run.
func (r *Runner) reap(ctx context.Context) int {
	if r.staleAfter <= 0 || r.queue == nil {
		return 0
	}
	n, err := r.queue.FailStale(ctx, r.now().Add(-r.staleAfter), AbandonedReason)
	if err != nil {
		r.logger.Warn("stale claim reaper failed", "error", err)
		return 0
	}
	if n > 0 {
		r.logger.Warn("failed abandoned items", "count", n, "stale_after", r.staleAfter)
	}
	return n
}

func (r *Runner) finish(ctx context.Context, summary domain.RunSummary, runErr error) {
	attrs := []any{
		"processed", summary.Batch.Processed,
		"success", summary.Batch.Success,
		"failed", summary.Batch.Failed,
		"skipped", summary.Batch.Skipped,
		"reaped", summary.Reaped,
		"duration", summary.Duration,
	}
	if summary.Populate != nil {
		attrs = append(attrs, "enqueued", summary.Populate.Enqueued)
	}
	if runErr != nil {
		r.logger.Error("run finished with error", append(attrs, "error", runErr)...)
	} else {
		r.logger.Info("run finished", attrs...)
	}

	if r.observer != nil {
		r.observer.RunFinished(summary)
		if r.queue != nil {
			if counts, err := r.queue.StatusCounts(ctx); err == nil {
				r.observer.QueueDepth(counts)
			}
		}
	}

	if r.notifier != nil {
		if err := r.notifier.PublishRunSummary(ctx, summary); err != nil {
			r.logger.Warn("run summary notification failed", "error", err)
		}
	}
}
