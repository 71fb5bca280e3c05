package ports

import (
	"context"
	"time"

	"ContentGenerator/internal/domain"
)

// SeedStore exposes the read-only seed dimensions to the pipeline.
type SeedStore interface {
	ListActive(ctx context.Context, dim domain.Dimension, maxPriority int) ([]domain.SeedItem, error)
	GetSeed(ctx context.Context, dim domain.Dimension, slug string) (domain.SeedItem, error)
}

// SeedAdmin is the administrative write side of the seed store.
type SeedAdmin interface {
	UpsertSeeds(ctx context.Context, items []domain.SeedItem) (int, error)
}

// QueueRepository persists generation tasks. Every Mark* call is a
// conditional transition from processing and fails with
// domain.ErrInvalidTransition when the item is in another state.
type QueueRepository interface {
	ListQueued(ctx context.Context, limit int) ([]domain.QueueItem, error)
	Claim(ctx context.Context, id string) (bool, error)
	MarkSkipped(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, publishedRef string) error
	MarkFailed(ctx context.Context, id, lastError string) error
	FailStale(ctx context.Context, before time.Time, reason string) (int, error)

	OutstandingTargets(ctx context.Context, types []domain.ContentType) ([]domain.Target, error)
	Enqueue(ctx context.Context, items []domain.QueueItem) (int, error)

	Get(ctx context.Context, id string) (domain.QueueItem, error)
	List(ctx context.Context, filter domain.QueueFilter) ([]domain.QueueItem, error)
	StatusCounts(ctx context.Context) (map[domain.Status]int, error)
}

// ContentStore holds the pages of one content type, keyed by slug.
type ContentStore interface {
	Upsert(ctx context.Context, page domain.PublishedPage) (domain.PublishedPage, error)
	ExistsPublished(ctx context.Context, slug string) (bool, error)
	PublishedAmong(ctx context.Context, slugs []string) (map[string]bool, error)
}

// GenerationLog is the append-only trail of AI invocations.
type GenerationLog interface {
	Append(ctx context.Context, entry domain.GenerationLogEntry) error
	Recent(ctx context.Context, limit int) ([]domain.GenerationLogEntry, error)
}

// Completer calls an external AI completion endpoint.
type Completer interface {
	Complete(ctx context.Context, prompt, model string) (domain.Completion, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Locker guards runs across processes. TryLock never blocks; release must
// be called once when ok is true.
type Locker interface {
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

// Observer receives pipeline counters for metrics.
type Observer interface {
	ItemFinished(contentType domain.ContentType, outcome domain.Status, aiDuration time.Duration)
	RunFinished(summary domain.RunSummary)
	QueueDepth(counts map[domain.Status]int)
}

// Notifier streams run summaries to an operator channel (Telegram, etc.).
type Notifier interface {
	PublishRunSummary(ctx context.Context, summary domain.RunSummary) error
}
