package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

// DefaultPopulateMaxPriority applies when a request leaves MaxPriority at zero.
const DefaultPopulateMaxPriority = 3

// PopulateRequest selects which targets a populator pass considers.
type PopulateRequest struct {
	ContentTypes []domain.ContentType
	MaxPriority  int
}

// Populator enqueues every eligible target that is neither outstanding in
// the queue nor already published. Running it twice with the same seeds
// enqueues nothing the second time.
type Populator struct {
	seeds     ports.SeedStore
	queue     ports.QueueRepository
	publisher *Publisher
	logger    *slog.Logger
}

// NewPopulator wires the seed store, queue and publisher skip-checks.
func NewPopulator(seeds ports.SeedStore, queue ports.QueueRepository, publisher *Publisher, logger *slog.Logger) *Populator {
	return &Populator{seeds: seeds, queue: queue, publisher: publisher, logger: orDiscard(logger)}
}

// Populate computes candidates, subtracts outstanding and published targets
// as sets, and bulk-inserts the rest.
func (p *Populator) Populate(ctx context.Context, req PopulateRequest) (domain.PopulateResult, error) {
	var result domain.PopulateResult

	maxPriority := req.MaxPriority
	if maxPriority == 0 {
		maxPriority = DefaultPopulateMaxPriority
	}
	maxPriority = domain.ClampPriority(maxPriority)

	types := req.ContentTypes
	if len(types) == 0 {
		types = domain.AllContentTypes
	}
	wants := map[domain.ContentType]bool{}
	for _, ct := range types {
		if !ct.Valid() {
			return result, fmt.Errorf("unknown content type %q", ct)
		}
		wants[ct] = true
	}

	var locations, industries []domain.SeedItem
	var err error
	if wants[domain.ContentLocation] || wants[domain.ContentCombo] {
		locations, err = p.seeds.ListActive(ctx, domain.DimensionLocation, maxPriority)
		if err != nil {
			return result, fmt.Errorf("list locations: %w", err)
		}
	}
	if wants[domain.ContentIndustry] || wants[domain.ContentCombo] {
		industries, err = p.seeds.ListActive(ctx, domain.DimensionIndustry, maxPriority)
		if err != nil {
			return result, fmt.Errorf("list industries: %w", err)
		}
	}

	candidates := buildCandidates(types, locations, industries)
	result.Candidates = len(candidates)
	p.logger.Debug("populate candidates",
		"types", types,
		"max_priority", maxPriority,
		"locations", len(locations),
		"industries", len(industries),
		"candidates", len(candidates))
	if len(candidates) == 0 {
		return result, nil
	}

	outstanding, err := p.queue.OutstandingTargets(ctx, types)
	if err != nil {
		return result, fmt.Errorf("load outstanding targets: %w", err)
	}
	blocked := make(map[string]bool, len(outstanding))
	for _, target := range outstanding {
		blocked[target.Key()] = true
	}

	published := map[domain.ContentType]map[string]bool{}
	for _, ct := range types {
		slugs := slugsOf(candidates, ct)
		published[ct], err = p.publisher.PublishedAmong(ctx, ct, slugs)
		if err != nil {
			return result, fmt.Errorf("load published targets: %w", err)
		}
	}

	remaining := make([]domain.QueueItem, 0, len(candidates))
	for _, item := range candidates {
		target := item.Target()
		switch {
		case blocked[target.Key()]:
			result.Outstanding++
		case published[target.Type][target.Slug()]:
			result.Published++
		default:
			remaining = append(remaining, item)
		}
	}

	if len(remaining) == 0 {
		return result, nil
	}

	result.Enqueued, err = p.queue.Enqueue(ctx, remaining)
	if err != nil {
		return result, fmt.Errorf("enqueue targets: %w", err)
	}

	p.logger.Info("populate finished",
		"candidates", result.Candidates,
		"outstanding", result.Outstanding,
		"published", result.Published,
		"enqueued", result.Enqueued)
	return result, nil
}

// buildCandidates returns one queued item per eligible target. Combo items
// take the more urgent (numerically smaller) priority of their two seeds.
func buildCandidates(types []domain.ContentType, locations, industries []domain.SeedItem) []domain.QueueItem {
	var out []domain.QueueItem
	for _, ct := range types {
		switch ct {
		case domain.ContentLocation:
			for _, loc := range locations {
				out = append(out, domain.NewQueueItem(domain.Target{Type: ct, LocationSlug: loc.Slug}, loc.Priority))
			}
		case domain.ContentIndustry:
			for _, ind := range industries {
				out = append(out, domain.NewQueueItem(domain.Target{Type: ct, IndustrySlug: ind.Slug}, ind.Priority))
			}
		case domain.ContentCombo:
			for _, loc := range locations {
				for _, ind := range industries {
					target := domain.Target{Type: ct, LocationSlug: loc.Slug, IndustrySlug: ind.Slug}
					out = append(out, domain.NewQueueItem(target, min(loc.Priority, ind.Priority)))
				}
			}
		}
	}
	return out
}

func slugsOf(items []domain.QueueItem, ct domain.ContentType) []string {
	var slugs []string
	for _, item := range items {
		if item.ContentType == ct {
			slugs = append(slugs, item.Target().Slug())
		}
	}
	return slugs
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
