package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"

	"ContentGenerator/internal/content"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/infrastructure/storage/memory"
	"ContentGenerator/internal/ports"
)

const validLocationJSON = `{
  "title": "Phone answering nearby",
  "meta_description": "Never miss a call.",
  "description": "<p>Local businesses rely on us.</p>",
  "local_benefits": ["Local numbers", "Same timezone", "Knows the area"],
  "faqs": [{"question": "Is it local?", "answer": "Yes."}, {"question": "Price?", "answer": "Fair."}]
}`

const validComboJSON = `{
  "title": "Combo page",
  "meta_description": "Never miss a patient call.",
  "intro": "Practices in the city trust us.",
  "benefits": ["a", "b", "c"],
  "local_considerations": ["x", "y"],
  "faqs": [{"question": "q1", "answer": "a1"}, {"question": "q2", "answer": "a2"}, {"question": "q3", "answer": "a3"}]
}`

const validIndustryJSON = `{
  "title": "Industry page",
  "meta_description": "Built for the trade.",
  "description": "Everything the trade needs.",
  "pain_points": ["a", "b", "c"],
  "services": ["x", "y", "z"],
  "faqs": [{"question": "q1", "answer": "a1"}, {"question": "q2", "answer": "a2"}]
}`

// fakeCompleter answers prompts through reply and counts calls.
type fakeCompleter struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	reply   func(ctx context.Context, prompt string) (domain.Completion, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt, _ string) (domain.Completion, error) {
	f.mu.Lock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	reply := f.reply
	f.mu.Unlock()
	return reply(ctx, prompt)
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// replyByType returns valid content for whichever page the prompt asks for.
func replyByType(_ context.Context, prompt string) (domain.Completion, error) {
	switch {
	case strings.Contains(prompt, `"intro"`):
		return domain.Completion{Text: validComboJSON}, nil
	case strings.Contains(prompt, `"pain_points"`):
		return domain.Completion{Text: validIndustryJSON}, nil
	default:
		return domain.Completion{Text: "```json\n" + validLocationJSON + "\n```"}, nil
	}
}

type harness struct {
	store        *memory.Store
	completer    *fakeCompleter
	publisher    *Publisher
	populator    *Populator
	orchestrator *Orchestrator
	runner       *Runner
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	completer := &fakeCompleter{reply: replyByType}
	publisher := NewPublisher(pageStores(store), domain.PagePublished)

	registry := content.DefaultRegistry()
	prompts, err := NewPromptBuilder(registry, nil)
	if err != nil {
		t.Fatalf("NewPromptBuilder returned error: %v", err)
	}

	orchestrator := NewOrchestrator(OrchestratorDeps{
		Queue:     store,
		Seeds:     store,
		Publisher: publisher,
		Completer: completer,
		Log:       store,
		Schemas:   registry,
		Prompts:   prompts,
		Model:     "test-model",
	})
	populator := NewPopulator(store, store, publisher, nil)
	runner := NewRunner(PipelineDeps{
		Populator:    populator,
		Orchestrator: orchestrator,
		Queue:        store,
	})

	return &harness{
		store:        store,
		completer:    completer,
		publisher:    publisher,
		populator:    populator,
		orchestrator: orchestrator,
		runner:       runner,
	}
}

func pageStores(store *memory.Store) map[domain.ContentType]ports.ContentStore {
	stores := map[domain.ContentType]ports.ContentStore{}
	for _, ct := range domain.AllContentTypes {
		stores[ct] = store.Pages(ct)
	}
	return stores
}

func location(slug, name string, priority int) domain.SeedItem {
	return domain.SeedItem{Dimension: domain.DimensionLocation, Slug: slug, Name: name, Priority: priority, Active: true}
}

func industry(slug, name string, priority int) domain.SeedItem {
	return domain.SeedItem{Dimension: domain.DimensionIndustry, Slug: slug, Name: name, Priority: priority, Active: true}
}

func (h *harness) seed(t *testing.T, items ...domain.SeedItem) {
	t.Helper()
	if _, err := h.store.UpsertSeeds(context.Background(), items); err != nil {
		t.Fatalf("UpsertSeeds returned error: %v", err)
	}
}

func (h *harness) enqueue(t *testing.T, targets ...domain.Target) []domain.QueueItem {
	t.Helper()
	items := make([]domain.QueueItem, 0, len(targets))
	for _, target := range targets {
		items = append(items, domain.NewQueueItem(target, 1))
	}
	if _, err := h.store.Enqueue(context.Background(), items); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	queued, err := h.store.ListQueued(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListQueued returned error: %v", err)
	}
	return queued
}

func (h *harness) itemFor(t *testing.T, target domain.Target) domain.QueueItem {
	t.Helper()
	items, err := h.store.List(context.Background(), domain.QueueFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	for _, item := range items {
		if item.Target() == target {
			return item
		}
	}
	t.Fatalf("no queue item for %s", target)
	return domain.QueueItem{}
}

func locationTarget(slug string) domain.Target {
	return domain.Target{Type: domain.ContentLocation, LocationSlug: slug}
}

func comboTarget(industrySlug, locationSlug string) domain.Target {
	return domain.Target{Type: domain.ContentCombo, LocationSlug: locationSlug, IndustrySlug: industrySlug}
}
