package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ContentGenerator/internal/domain"
)

func steppingClock() func() time.Time {
	current := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestEnqueueDropsOutstandingDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	target := domain.Target{Type: domain.ContentLocation, LocationSlug: "dublin"}

	n, err := store.Enqueue(ctx, []domain.QueueItem{
		domain.NewQueueItem(target, 1),
		domain.NewQueueItem(target, 1),
	})
	if err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 insert, got %d", n)
	}

	n, err = store.Enqueue(ctx, []domain.QueueItem{domain.NewQueueItem(target, 1)})
	if err != nil || n != 0 {
		t.Fatalf("expected outstanding duplicate to be dropped, got %d (%v)", n, err)
	}
}

func TestEnqueueAllowsTargetAgainAfterTerminalState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	target := domain.Target{Type: domain.ContentIndustry, IndustrySlug: "dentist"}

	if _, err := store.Enqueue(ctx, []domain.QueueItem{domain.NewQueueItem(target, 2)}); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	items, _ := store.ListQueued(ctx, 10)
	if ok, err := store.Claim(ctx, items[0].ID); !ok || err != nil {
		t.Fatalf("Claim failed: %v %v", ok, err)
	}
	if err := store.MarkFailed(ctx, items[0].ID, "boom"); err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}

	n, err := store.Enqueue(ctx, []domain.QueueItem{domain.NewQueueItem(target, 2)})
	if err != nil || n != 1 {
		t.Fatalf("expected re-enqueue after failure, got %d (%v)", n, err)
	}
}

func TestClaimIsExclusiveAndTransitionsAreGuarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	target := domain.Target{Type: domain.ContentLocation, LocationSlug: "cork"}
	if _, err := store.Enqueue(ctx, []domain.QueueItem{domain.NewQueueItem(target, 1)}); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	items, _ := store.ListQueued(ctx, 1)
	id := items[0].ID

	if err := store.MarkCompleted(ctx, id, "page-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition from queued, got %v", err)
	}

	first, _ := store.Claim(ctx, id)
	second, _ := store.Claim(ctx, id)
	if !first || second {
		t.Fatalf("expected exactly one claim to win, got %v/%v", first, second)
	}

	if err := store.MarkSkipped(ctx, id); err != nil {
		t.Fatalf("MarkSkipped returned error: %v", err)
	}
	if err := store.MarkFailed(ctx, id, "late"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected terminal state to be final, got %v", err)
	}
}

func TestListQueuedOrdersByPriorityThenAge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore().WithClock(steppingClock())

	_, err := store.Enqueue(ctx, []domain.QueueItem{
		domain.NewQueueItem(domain.Target{Type: domain.ContentLocation, LocationSlug: "old-p2"}, 2),
		domain.NewQueueItem(domain.Target{Type: domain.ContentLocation, LocationSlug: "old-p1"}, 1),
		domain.NewQueueItem(domain.Target{Type: domain.ContentLocation, LocationSlug: "new-p1"}, 1),
	})
	if err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	items, err := store.ListQueued(ctx, 10)
	if err != nil {
		t.Fatalf("ListQueued returned error: %v", err)
	}
	want := []string{"old-p1", "new-p1", "old-p2"}
	for i, slug := range want {
		if items[i].LocationSlug != slug {
			t.Fatalf("position %d: expected %s, got %s", i, slug, items[i].LocationSlug)
		}
	}
}

func TestFailStaleOnlyTouchesOldProcessingItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore().WithClock(steppingClock())
	_, _ = store.Enqueue(ctx, []domain.QueueItem{
		domain.NewQueueItem(domain.Target{Type: domain.ContentLocation, LocationSlug: "a"}, 1),
		domain.NewQueueItem(domain.Target{Type: domain.ContentLocation, LocationSlug: "b"}, 1),
	})
	items, _ := store.ListQueued(ctx, 10)
	_, _ = store.Claim(ctx, items[0].ID)

	n, err := store.FailStale(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), "abandoned")
	if err != nil || n != 1 {
		t.Fatalf("expected one reaped item, got %d (%v)", n, err)
	}
	reaped, _ := store.Get(ctx, items[0].ID)
	if reaped.Status != domain.StatusFailed || reaped.LastError != "abandoned" {
		t.Fatalf("unexpected reaped item: %+v", reaped)
	}
	untouched, _ := store.Get(ctx, items[1].ID)
	if untouched.Status != domain.StatusQueued {
		t.Fatalf("queued item must not be reaped: %+v", untouched)
	}
}

func TestPageUpsertOverwritesBySlug(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore()
	pages := store.Pages(domain.ContentCombo)

	first, err := pages.Upsert(ctx, domain.PublishedPage{Slug: "dentist-cork", Title: "v1", Status: domain.PagePublished})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	second, err := pages.Upsert(ctx, domain.PublishedPage{Slug: "dentist-cork", Title: "v2", Status: domain.PagePublished})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected stable id, got %s and %s", first.ID, second.ID)
	}
	if store.PageCount(domain.ContentCombo) != 1 {
		t.Fatalf("expected one row, got %d", store.PageCount(domain.ContentCombo))
	}
	page, _ := store.Page(domain.ContentCombo, "dentist-cork")
	if page.Title != "v2" {
		t.Fatalf("expected second write to win, got %s", page.Title)
	}
}
