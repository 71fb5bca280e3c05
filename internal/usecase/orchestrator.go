package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ContentGenerator/internal/content"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

const (
	// DefaultBatchSize applies when ProcessBatch is called with a non-positive size.
	DefaultBatchSize = 10
	// DefaultAITimeout bounds a single completion call.
	DefaultAITimeout = 60 * time.Second
)

// OrchestratorDeps wires the adapters the orchestrator drives.
type OrchestratorDeps struct {
	Queue     ports.QueueRepository
	Seeds     ports.SeedStore
	Publisher *Publisher
	Completer ports.Completer
	Log       ports.GenerationLog
	Schemas   *content.Registry
	Prompts   *PromptBuilder
	Observer  ports.Observer
	Logger    *slog.Logger
	Model     string
	Timeout   time.Duration
}

// Orchestrator drives queued items through generation one at a time.
type Orchestrator struct {
	queue     ports.QueueRepository
	seeds     ports.SeedStore
	publisher *Publisher
	completer ports.Completer
	log       ports.GenerationLog
	schemas   *content.Registry
	prompts   *PromptBuilder
	observer  ports.Observer
	logger    *slog.Logger
	model     string
	timeout   time.Duration
	now       func() time.Time
}

// NewOrchestrator constructs the generation orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	schemas := deps.Schemas
	if schemas == nil {
		schemas = content.DefaultRegistry()
	}
	return &Orchestrator{
		queue:     deps.Queue,
		seeds:     deps.Seeds,
		publisher: deps.Publisher,
		completer: deps.Completer,
		log:       deps.Log,
		schemas:   schemas,
		prompts:   deps.Prompts,
		observer:  deps.Observer,
		logger:    orDiscard(deps.Logger),
		model:     deps.Model,
		timeout:   timeout,
		now:       time.Now,
	}
}

// ProcessBatch claims up to batchSize queued items in priority then age
// order and drives each to a terminal state. A failing item never aborts the
// batch. Cancelling ctx stops further claims; an item already claimed still
// finishes. Items lost to another claimant are not counted.
func (o *Orchestrator) ProcessBatch(ctx context.Context, batchSize int) (domain.BatchResult, error) {
	var result domain.BatchResult
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	items, err := o.queue.ListQueued(ctx, batchSize)
	if err != nil {
		return result, fmt.Errorf("list queued: %w", err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("batch interrupted after %d items: %w", result.Processed, err)
		}

		claimed, err := o.queue.Claim(ctx, item.ID)
		if err != nil {
			o.logger.Warn("claim failed", "item", item.ID, "error", err)
			continue
		}
		if !claimed {
			o.logger.Debug("item claimed elsewhere", "item", item.ID)
			continue
		}

		result.Record(o.process(context.WithoutCancel(ctx), item))
	}
	return result, nil
}

// process runs one claimed item and returns its terminal status.
func (o *Orchestrator) process(ctx context.Context, item domain.QueueItem) (outcome domain.Status) {
	target := item.Target()
	logger := o.logger.With("item", item.ID, "target", target.String())
	var aiDuration time.Duration

	defer func() {
		if r := recover(); r != nil {
			logger.Error("item panicked", "panic", r)
			outcome = o.fail(ctx, logger, item.ID, fmt.Errorf("panic: %v", r))
		}
		if o.observer != nil {
			o.observer.ItemFinished(target.Type, outcome, aiDuration)
		}
	}()

	exists, err := o.publisher.Exists(ctx, target)
	if err != nil {
		return o.fail(ctx, logger, item.ID, fmt.Errorf("existence check: %w", err))
	}
	if exists {
		logger.Info("already published, skipping")
		if err := o.queue.MarkSkipped(ctx, item.ID); err != nil {
			return o.fail(ctx, logger, item.ID, fmt.Errorf("mark skipped: %w", err))
		}
		return domain.StatusSkipped
	}

	location, industry, err := o.resolveSeeds(ctx, target)
	if err != nil {
		return o.fail(ctx, logger, item.ID, err)
	}

	prompt, err := o.prompts.Build(target, location, industry)
	if err != nil {
		return o.fail(ctx, logger, item.ID, err)
	}

	completion, aiDuration, err := o.complete(ctx, prompt)
	attempt := domain.GenerationLogEntry{
		QueueRef:       item.ID,
		ContentType:    target.Type,
		TargetSlug:     target.Slug(),
		PromptLength:   len(prompt),
		ResponseLength: completion.Len(),
		DurationMS:     aiDuration.Milliseconds(),
	}
	if err != nil {
		o.record(ctx, logger, attempt, err)
		return o.fail(ctx, logger, item.ID, err)
	}

	fields, err := content.Extract(completion)
	if err == nil {
		err = o.schemas.Validate(target.Type, fields)
	}
	if err != nil {
		o.record(ctx, logger, attempt, err)
		return o.fail(ctx, logger, item.ID, err)
	}

	page, err := o.publisher.Publish(ctx, target, fields)
	if err != nil {
		err = fmt.Errorf("publish: %w", err)
		o.record(ctx, logger, attempt, err)
		return o.fail(ctx, logger, item.ID, err)
	}
	o.record(ctx, logger, attempt, nil)

	if err := o.queue.MarkCompleted(ctx, item.ID, page.ID); err != nil {
		return o.fail(ctx, logger, item.ID, fmt.Errorf("mark completed: %w", err))
	}
	logger.Info("page published", "page", page.ID, "slug", page.Slug, "ai_duration", aiDuration)
	return domain.StatusCompleted
}

// complete calls the AI service under the configured timeout. Any failure,
// including an expired deadline, comes back as a *domain.TransportError.
func (o *Orchestrator) complete(ctx context.Context, prompt string) (domain.Completion, time.Duration, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := o.now()
	completion, err := o.completer.Complete(callCtx, prompt, o.model)
	elapsed := o.now().Sub(start)
	if err != nil {
		var transport *domain.TransportError
		if !errors.As(err, &transport) {
			err = &domain.TransportError{Provider: "completion", Err: err}
		}
		return domain.Completion{}, elapsed, err
	}
	return completion, elapsed, nil
}

func (o *Orchestrator) resolveSeeds(ctx context.Context, target domain.Target) (location, industry *domain.SeedItem, err error) {
	if target.LocationSlug != "" {
		if location, err = o.activeSeed(ctx, domain.DimensionLocation, target.LocationSlug); err != nil {
			return nil, nil, err
		}
	}
	if target.IndustrySlug != "" {
		if industry, err = o.activeSeed(ctx, domain.DimensionIndustry, target.IndustrySlug); err != nil {
			return nil, nil, err
		}
	}
	return location, industry, nil
}

func (o *Orchestrator) activeSeed(ctx context.Context, dim domain.Dimension, slug string) (*domain.SeedItem, error) {
	seed, err := o.seeds.GetSeed(ctx, dim, slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s %q: %w", dim, slug, domain.ErrSeedNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", dim, slug, err)
	}
	if !seed.Active {
		return nil, fmt.Errorf("%s %q: %w", dim, slug, domain.ErrSeedNotFound)
	}
	return &seed, nil
}

// record appends the attempt to the generation log. Append failures are
// only warned about.
func (o *Orchestrator) record(ctx context.Context, logger *slog.Logger, entry domain.GenerationLogEntry, cause error) {
	entry.Status = domain.GenerationSuccess
	if cause != nil {
		entry.Status = domain.GenerationFailure
		entry.ErrorDetail = cause.Error()
		var invalid *domain.ValidationError
		if errors.As(cause, &invalid) {
			entry.Status = domain.GenerationValidationError
		}
	}
	if o.log == nil {
		return
	}
	if err := o.log.Append(ctx, entry); err != nil {
		logger.Warn("generation log append failed", "error", err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, id string, cause error) domain.Status {
	logger.Warn("item failed", "error", cause)
	if err := o.queue.MarkFailed(ctx, id, cause.Error()); err != nil {
		logger.Error("mark failed", "error", err)
	}
	return domain.StatusFailed
}
