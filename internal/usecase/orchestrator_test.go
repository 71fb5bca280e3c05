package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ContentGenerator/internal/domain"
)

func TestProcessBatchPublishesValidContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1), industry("dentist", "Dentist", 1))
	h.enqueue(t, locationTarget("dublin"), comboTarget("dentist", "dublin"))

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result != (domain.BatchResult{Processed: 2, Success: 2}) {
		t.Fatalf("unexpected result: %+v", result)
	}

	page, ok := h.store.Page(domain.ContentCombo, "dentist-dublin")
	if !ok {
		t.Fatal("expected combo page to be published")
	}
	if page.Status != domain.PagePublished || page.PublishedAt == nil {
		t.Fatalf("unexpected page: %+v", page)
	}
	item := h.itemFor(t, comboTarget("dentist", "dublin"))
	if item.Status != domain.StatusCompleted || item.PublishedRef != page.ID {
		t.Fatalf("unexpected queue item: %+v", item)
	}

	entries, _ := h.store.Recent(ctx, 0)
	if len(entries) != 2 {
		t.Fatalf("expected two log entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Status != domain.GenerationSuccess || entry.PromptLength == 0 || entry.ResponseLength == 0 {
			t.Fatalf("unexpected log entry: %+v", entry)
		}
	}
}

func TestProcessBatchRejectsShortList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1))
	h.enqueue(t, locationTarget("dublin"))
	h.completer.reply = func(context.Context, string) (domain.Completion, error) {
		return domain.Completion{Text: "Sure! Here it is:\n```json\n" + `{
  "title": "Dublin",
  "meta_description": "Calls answered.",
  "description": "Local answering.",
  "local_benefits": ["one", "two"],
  "faqs": [{"question": "q", "answer": "a"}, {"question": "q2", "answer": "a2"}]
}` + "\n```"}, nil
	}

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result != (domain.BatchResult{Processed: 1, Failed: 1}) {
		t.Fatalf("unexpected result: %+v", result)
	}

	item := h.itemFor(t, locationTarget("dublin"))
	if item.Status != domain.StatusFailed || !strings.Contains(item.LastError, "local_benefits") {
		t.Fatalf("unexpected queue item: %+v", item)
	}
	if h.store.PageCount(domain.ContentLocation) != 0 {
		t.Fatal("invalid content must not be published")
	}

	entries, _ := h.store.Recent(ctx, 1)
	if len(entries) != 1 || entries[0].Status != domain.GenerationValidationError {
		t.Fatalf("expected validation_error log entry, got %+v", entries)
	}
	if !strings.Contains(entries[0].ErrorDetail, "local_benefits") {
		t.Fatalf("error detail should name the field, got %q", entries[0].ErrorDetail)
	}
}

func TestProcessBatchSkipsPublishedTargetsWithoutAICall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1))
	h.enqueue(t, locationTarget("dublin"))

	if _, err := h.publisher.Publish(ctx, locationTarget("dublin"), map[string]any{"title": "existing"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result != (domain.BatchResult{Processed: 1, Skipped: 1}) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if h.completer.Calls() != 0 {
		t.Fatalf("expected no AI call, got %d", h.completer.Calls())
	}
	if item := h.itemFor(t, locationTarget("dublin")); item.Status != domain.StatusSkipped || item.LastError != "" {
		t.Fatalf("unexpected queue item: %+v", item)
	}
	if entries, _ := h.store.Recent(ctx, 0); len(entries) != 0 {
		t.Fatalf("skipped items must not log an AI attempt, got %d", len(entries))
	}
}

func TestProcessBatchSkipsPublishedTargetWithRetiredSeed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1))
	h.enqueue(t, locationTarget("dublin"))
	if _, err := h.publisher.Publish(ctx, locationTarget("dublin"), map[string]any{"title": "existing"}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	retired := location("dublin", "Dublin", 1)
	retired.Active = false
	h.seed(t, retired)

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result != (domain.BatchResult{Processed: 1, Skipped: 1}) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if item := h.itemFor(t, locationTarget("dublin")); item.Status != domain.StatusSkipped || item.LastError != "" {
		t.Fatalf("unexpected queue item: %+v", item)
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1), location("cork", "Cork", 1), location("galway", "Galway", 1))
	h.enqueue(t, locationTarget("dublin"), locationTarget("cork"), locationTarget("galway"))

	h.completer.reply = func(ctx context.Context, prompt string) (domain.Completion, error) {
		switch {
		case strings.Contains(prompt, "Cork"):
			return domain.Completion{}, &domain.TransportError{Provider: "fake", StatusCode: 502, Err: errors.New("bad gateway")}
		case strings.Contains(prompt, "Galway"):
			return domain.Completion{Text: "I cannot help with that."}, nil
		}
		return replyByType(ctx, prompt)
	}

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result.Processed != 3 || result.Success != 1 || result.Failed != 2 || result.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Processed != result.Success+result.Failed+result.Skipped {
		t.Fatalf("counts do not add up: %+v", result)
	}

	if item := h.itemFor(t, locationTarget("dublin")); item.Status != domain.StatusCompleted {
		t.Fatalf("dublin should complete, got %+v", item)
	}
	if item := h.itemFor(t, locationTarget("cork")); item.Status != domain.StatusFailed || !strings.Contains(item.LastError, "502") {
		t.Fatalf("cork should fail with transport error, got %+v", item)
	}
	if item := h.itemFor(t, locationTarget("galway")); item.Status != domain.StatusFailed || !strings.Contains(item.LastError, "no object literal") {
		t.Fatalf("galway should fail with parse error, got %+v", item)
	}

	entries, _ := h.store.Recent(ctx, 0)
	statuses := map[domain.GenerationStatus]int{}
	for _, entry := range entries {
		statuses[entry.Status]++
	}
	if statuses[domain.GenerationSuccess] != 1 || statuses[domain.GenerationFailure] != 2 {
		t.Fatalf("unexpected log statuses: %v", statuses)
	}
}

func TestProcessBatchSwallowsLogFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1))
	h.enqueue(t, locationTarget("dublin"))
	h.store.FailAppend = errors.New("log table locked")

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result.Success != 1 {
		t.Fatalf("log failure must not fail the item, got %+v", result)
	}
}

func TestProcessBatchFailsItemsWithMissingSeeds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	retired := location("cork", "Cork", 1)
	retired.Active = false
	h.seed(t, industry("dentist", "Dentist", 1), retired)
	h.enqueue(t, comboTarget("dentist", "dublin"), comboTarget("dentist", "cork"))

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result != (domain.BatchResult{Processed: 2, Failed: 2}) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if h.completer.Calls() != 0 {
		t.Fatalf("expected no AI call, got %d", h.completer.Calls())
	}
	item := h.itemFor(t, comboTarget("dentist", "cork"))
	if !strings.Contains(item.LastError, domain.ErrSeedNotFound.Error()) {
		t.Fatalf("unexpected last error: %q", item.LastError)
	}
}

func TestProcessBatchTimesOutSlowCompletions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.orchestrator.timeout = 20 * time.Millisecond
	h.seed(t, location("dublin", "Dublin", 1))
	h.enqueue(t, locationTarget("dublin"))
	h.completer.reply = func(ctx context.Context, _ string) (domain.Completion, error) {
		<-ctx.Done()
		return domain.Completion{}, ctx.Err()
	}

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	item := h.itemFor(t, locationTarget("dublin"))
	if !strings.Contains(item.LastError, "deadline exceeded") {
		t.Fatalf("expected deadline error, got %q", item.LastError)
	}
}

func TestProcessBatchRecoversFromPanics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1), location("cork", "Cork", 2))
	if _, err := h.store.Enqueue(ctx, []domain.QueueItem{
		domain.NewQueueItem(locationTarget("dublin"), 1),
		domain.NewQueueItem(locationTarget("cork"), 2),
	}); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	h.completer.reply = func(ctx context.Context, prompt string) (domain.Completion, error) {
		if strings.Contains(prompt, "Dublin") {
			panic("provider exploded")
		}
		return replyByType(ctx, prompt)
	}

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result != (domain.BatchResult{Processed: 2, Success: 1, Failed: 1}) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if item := h.itemFor(t, locationTarget("dublin")); item.Status != domain.StatusFailed || !strings.Contains(item.LastError, "panic") {
		t.Fatalf("unexpected queue item: %+v", item)
	}
}

func TestProcessBatchRespectsBatchSizeAndOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1), location("cork", "Cork", 1), location("galway", "Galway", 1))
	if _, err := h.store.Enqueue(ctx, []domain.QueueItem{
		domain.NewQueueItem(locationTarget("galway"), 3),
		domain.NewQueueItem(locationTarget("cork"), 2),
		domain.NewQueueItem(locationTarget("dublin"), 1),
	}); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	result, err := h.orchestrator.ProcessBatch(ctx, 2)
	if err != nil {
		t.Fatalf("ProcessBatch returned error: %v", err)
	}
	if result.Processed != 2 {
		t.Fatalf("expected batch of two, got %+v", result)
	}
	if item := h.itemFor(t, locationTarget("galway")); item.Status != domain.StatusQueued {
		t.Fatalf("lowest priority item should still be queued, got %+v", item)
	}
	if !strings.Contains(h.completer.prompts[0], "Dublin") {
		t.Fatalf("most urgent item should be generated first, got %q", h.completer.prompts[0])
	}
}

func TestProcessBatchStopsClaimingWhenCancelled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.seed(t, location("dublin", "Dublin", 1))
	h.enqueue(t, locationTarget("dublin"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.orchestrator.ProcessBatch(ctx, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.Processed != 0 {
		t.Fatalf("nothing should be processed, got %+v", result)
	}
	if item := h.itemFor(t, locationTarget("dublin")); item.Status != domain.StatusQueued {
		t.Fatalf("item must stay queued, got %+v", item)
	}
}
