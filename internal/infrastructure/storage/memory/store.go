// Package memory keeps every pipeline table in process memory. It backs the
// "memory://" database DSN for local runs and the use case tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

// Store is a mutex-guarded set of seed, queue, page and log tables.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	seq   int64
	seeds map[domain.Dimension]map[string]domain.SeedItem
	queue map[string]*queueRow
	pages map[domain.ContentType]map[string]domain.PublishedPage
	log   []domain.GenerationLogEntry

	// FailAppend makes Append return this error when set.
	FailAppend error
}

type queueRow struct {
	item domain.QueueItem
	seq  int64
}

var (
	_ ports.SeedStore       = (*Store)(nil)
	_ ports.SeedAdmin       = (*Store)(nil)
	_ ports.QueueRepository = (*Store)(nil)
	_ ports.GenerationLog   = (*Store)(nil)
)

// NewStore builds an empty store using the wall clock.
func NewStore() *Store {
	return &Store{
		now:   time.Now,
		seeds: map[domain.Dimension]map[string]domain.SeedItem{},
		queue: map[string]*queueRow{},
		pages: map[domain.ContentType]map[string]domain.PublishedPage{},
	}
}

// WithClock replaces the time source; used to make ordering deterministic.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// UpsertSeeds inserts or replaces seed items by (dimension, slug).
func (s *Store) UpsertSeeds(_ context.Context, items []domain.SeedItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return 0, err
		}
	}
	for _, item := range items {
		if s.seeds[item.Dimension] == nil {
			s.seeds[item.Dimension] = map[string]domain.SeedItem{}
		}
		now := s.now()
		if prev, ok := s.seeds[item.Dimension][item.Slug]; ok {
			item.CreatedAt = prev.CreatedAt
		} else {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		s.seeds[item.Dimension][item.Slug] = item
	}
	return len(items), nil
}

// ListActive returns active seeds with priority <= maxPriority ordered by priority, slug.
func (s *Store) ListActive(_ context.Context, dim domain.Dimension, maxPriority int) ([]domain.SeedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.SeedItem
	for _, item := range s.seeds[dim] {
		if item.Active && item.Priority <= maxPriority {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

// GetSeed returns one seed or domain.ErrNotFound.
func (s *Store) GetSeed(_ context.Context, dim domain.Dimension, slug string) (domain.SeedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.seeds[dim][slug]
	if !ok {
		return domain.SeedItem{}, fmt.Errorf("%s/%s: %w", dim, slug, domain.ErrNotFound)
	}
	return item, nil
}

// ListQueued returns queued items by priority, then age.
func (s *Store) ListQueued(_ context.Context, limit int) ([]domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.sortedRows(func(item domain.QueueItem) bool { return item.Status == domain.StatusQueued })
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.item.Priority != b.item.Priority {
			return a.item.Priority < b.item.Priority
		}
		if !a.item.CreatedAt.Equal(b.item.CreatedAt) {
			return a.item.CreatedAt.Before(b.item.CreatedAt)
		}
		return a.seq < b.seq
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return itemsOf(rows), nil
}

// Claim moves a queued item to processing; false means another claimant won.
func (s *Store) Claim(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.queue[id]
	if !ok {
		return false, fmt.Errorf("queue item %s: %w", id, domain.ErrNotFound)
	}
	if row.item.Status != domain.StatusQueued {
		return false, nil
	}
	row.item.Status = domain.StatusProcessing
	row.item.UpdatedAt = s.now()
	return true, nil
}

// MarkSkipped finishes a processing item without content.
func (s *Store) MarkSkipped(_ context.Context, id string) error {
	return s.finish(id, domain.StatusSkipped, "", "")
}

// MarkCompleted finishes a processing item with the page it produced.
func (s *Store) MarkCompleted(_ context.Context, id, publishedRef string) error {
	return s.finish(id, domain.StatusCompleted, publishedRef, "")
}

// MarkFailed finishes a processing item with a human-readable cause.
func (s *Store) MarkFailed(_ context.Context, id, lastError string) error {
	return s.finish(id, domain.StatusFailed, "", lastError)
}

func (s *Store) finish(id string, to domain.Status, ref, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.queue[id]
	if !ok {
		return fmt.Errorf("queue item %s: %w", id, domain.ErrNotFound)
	}
	if !row.item.Status.CanTransition(to) {
		return fmt.Errorf("queue item %s %s -> %s: %w", id, row.item.Status, to, domain.ErrInvalidTransition)
	}
	row.item.Status = to
	row.item.PublishedRef = ref
	row.item.LastError = lastError
	row.item.UpdatedAt = s.now()
	return nil
}

// FailStale fails items stuck in processing since before.
func (s *Store) FailStale(_ context.Context, before time.Time, reason string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, row := range s.queue {
		if row.item.Status == domain.StatusProcessing && row.item.UpdatedAt.Before(before) {
			row.item.Status = domain.StatusFailed
			row.item.LastError = reason
			row.item.UpdatedAt = s.now()
			n++
		}
	}
	return n, nil
}

// OutstandingTargets returns targets of queued or processing items.
func (s *Store) OutstandingTargets(_ context.Context, types []domain.ContentType) ([]domain.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := map[domain.ContentType]bool{}
	for _, ct := range types {
		wanted[ct] = true
	}

	rows := s.sortedRows(func(item domain.QueueItem) bool {
		return item.Status.Outstanding() && wanted[item.ContentType]
	})
	out := make([]domain.Target, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.item.Target())
	}
	return out, nil
}

// Enqueue inserts queued items, silently dropping any whose target is
// already outstanding. It returns the number inserted.
func (s *Store) Enqueue(_ context.Context, items []domain.QueueItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outstanding := map[string]bool{}
	for _, row := range s.queue {
		if row.item.Status.Outstanding() {
			outstanding[row.item.Target().Key()] = true
		}
	}

	inserted := 0
	for _, item := range items {
		target := item.Target()
		if err := target.Validate(); err != nil {
			return inserted, err
		}
		if outstanding[target.Key()] {
			continue
		}
		outstanding[target.Key()] = true

		s.seq++
		now := s.now()
		item.ID = uuid.NewString()
		item.Status = domain.StatusQueued
		item.CreatedAt = now
		item.UpdatedAt = now
		s.queue[item.ID] = &queueRow{item: item, seq: s.seq}
		inserted++
	}
	return inserted, nil
}

// Get returns one queue item or domain.ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.queue[id]
	if !ok {
		return domain.QueueItem{}, fmt.Errorf("queue item %s: %w", id, domain.ErrNotFound)
	}
	return row.item, nil
}

// List returns items matching filter, newest first.
func (s *Store) List(_ context.Context, filter domain.QueueFilter) ([]domain.QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.sortedRows(func(item domain.QueueItem) bool {
		if filter.Status != "" && item.Status != filter.Status {
			return false
		}
		return filter.ContentType == "" || item.ContentType == filter.ContentType
	})
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}
	return itemsOf(rows), nil
}

// StatusCounts returns the number of items per status.
func (s *Store) StatusCounts(_ context.Context) (map[domain.Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[domain.Status]int{}
	for _, row := range s.queue {
		counts[row.item.Status]++
	}
	return counts, nil
}

// Append records one generation attempt.
func (s *Store) Append(_ context.Context, entry domain.GenerationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAppend != nil {
		return s.FailAppend
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.log = append(s.log, entry)
	return nil
}

// Recent returns the newest log entries first.
func (s *Store) Recent(_ context.Context, limit int) ([]domain.GenerationLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.GenerationLogEntry, 0, len(s.log))
	for i := len(s.log) - 1; i >= 0; i-- {
		out = append(out, s.log[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Pages returns the content store for one content type.
func (s *Store) Pages(ct domain.ContentType) ports.ContentStore {
	return &pageStore{store: s, contentType: ct}
}

// sortedRows returns matching rows in insertion order. Callers hold s.mu.
func (s *Store) sortedRows(match func(domain.QueueItem) bool) []*queueRow {
	var rows []*queueRow
	for _, row := range s.queue {
		if match(row.item) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	return rows
}

func itemsOf(rows []*queueRow) []domain.QueueItem {
	out := make([]domain.QueueItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.item)
	}
	return out
}
