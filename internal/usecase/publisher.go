package usecase

import (
	"context"
	"fmt"
	"time"

	"ContentGenerator/internal/content"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

// Publisher owns the page tables: it upserts validated content by slug and
// answers the skip-checks that gate AI spend. It never caches.
type Publisher struct {
	stores map[domain.ContentType]ports.ContentStore
	status domain.PageStatus
	now    func() time.Time
}

// NewPublisher wires one content store per content type. status selects
// whether new pages go live immediately (published) or wait as drafts.
func NewPublisher(stores map[domain.ContentType]ports.ContentStore, status domain.PageStatus) *Publisher {
	if status == "" {
		status = domain.PagePublished
	}
	return &Publisher{stores: stores, status: status, now: time.Now}
}

func (p *Publisher) store(ct domain.ContentType) (ports.ContentStore, error) {
	store, ok := p.stores[ct]
	if !ok || store == nil {
		return nil, fmt.Errorf("no content store for %s pages", ct)
	}
	return store, nil
}

// Exists reports whether target already has a published page.
func (p *Publisher) Exists(ctx context.Context, target domain.Target) (bool, error) {
	store, err := p.store(target.Type)
	if err != nil {
		return false, err
	}
	exists, err := store.ExistsPublished(ctx, target.Slug())
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", target, err)
	}
	return exists, nil
}

// PublishedAmong returns the subset of slugs already published for ct.
func (p *Publisher) PublishedAmong(ctx context.Context, ct domain.ContentType, slugs []string) (map[string]bool, error) {
	if len(slugs) == 0 {
		return map[string]bool{}, nil
	}
	store, err := p.store(ct)
	if err != nil {
		return nil, err
	}
	published, err := store.PublishedAmong(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("published %s pages: %w", ct, err)
	}
	return published, nil
}

// Publish upserts the page for target. Re-publishing a slug overwrites it.
func (p *Publisher) Publish(ctx context.Context, target domain.Target, fields map[string]any) (domain.PublishedPage, error) {
	if err := target.Validate(); err != nil {
		return domain.PublishedPage{}, err
	}
	store, err := p.store(target.Type)
	if err != nil {
		return domain.PublishedPage{}, err
	}

	page := domain.PublishedPage{
		ContentType:  target.Type,
		Slug:         target.Slug(),
		LocationSlug: target.LocationSlug,
		IndustrySlug: target.IndustrySlug,
		Title:        content.Title(fields),
		Content:      fields,
		Status:       p.status,
	}
	if p.status == domain.PagePublished {
		now := p.now().UTC()
		page.PublishedAt = &now
	}

	saved, err := store.Upsert(ctx, page)
	if err != nil {
		return domain.PublishedPage{}, fmt.Errorf("upsert %s: %w", target, err)
	}
	return saved, nil
}
