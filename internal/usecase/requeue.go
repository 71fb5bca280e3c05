package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

// RequeueResult reports a manual re-enqueue.
type RequeueResult struct {
	Requested int      `json:"requested"`
	Enqueued  int      `json:"enqueued"`
	Ignored   []string `json:"ignored,omitempty"`
}

// Requeuer gives failed targets a fresh queued item. Failed rows are kept
// untouched for audit; nothing here runs automatically.
type Requeuer struct {
	queue  ports.QueueRepository
	logger *slog.Logger
}

// NewRequeuer builds the manual re-enqueue use case.
func NewRequeuer(queue ports.QueueRepository, logger *slog.Logger) *Requeuer {
	return &Requeuer{queue: queue, logger: orDiscard(logger)}
}

// RequeueFailed enqueues the targets of the given failed items, or of every
// failed item when ids is empty. Ids that are unknown or not failed are
// reported as ignored. Targets already outstanding are not duplicated.
func (r *Requeuer) RequeueFailed(ctx context.Context, ids []string) (RequeueResult, error) {
	var result RequeueResult
	var failed []domain.QueueItem

	if len(ids) == 0 {
		items, err := r.queue.List(ctx, domain.QueueFilter{Status: domain.StatusFailed})
		if err != nil {
			return result, fmt.Errorf("list failed items: %w", err)
		}
		failed = items
	} else {
		for _, id := range ids {
			item, err := r.queue.Get(ctx, id)
			if err != nil || item.Status != domain.StatusFailed {
				result.Ignored = append(result.Ignored, id)
				continue
			}
			failed = append(failed, item)
		}
	}
	result.Requested = len(failed)

	seen := map[string]bool{}
	fresh := make([]domain.QueueItem, 0, len(failed))
	for _, item := range failed {
		target := item.Target()
		if seen[target.Key()] {
			continue
		}
		seen[target.Key()] = true
		fresh = append(fresh, domain.NewQueueItem(target, item.Priority))
	}
	if len(fresh) == 0 {
		return result, nil
	}

	n, err := r.queue.Enqueue(ctx, fresh)
	if err != nil {
		return result, fmt.Errorf("enqueue failed targets: %w", err)
	}
	result.Enqueued = n
	r.logger.Info("requeued failed targets", "requested", result.Requested, "enqueued", n)
	return result, nil
}
