package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

type pageStore struct {
	store       *Store
	contentType domain.ContentType
}

var _ ports.ContentStore = (*pageStore)(nil)

// Upsert replaces the page with the same slug, keeping its ID.
func (p *pageStore) Upsert(_ context.Context, page domain.PublishedPage) (domain.PublishedPage, error) {
	if page.Slug == "" {
		return domain.PublishedPage{}, fmt.Errorf("%s page without slug", p.contentType)
	}

	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()

	table := s.pages[p.contentType]
	if table == nil {
		table = map[string]domain.PublishedPage{}
		s.pages[p.contentType] = table
	}

	now := s.now()
	page.ContentType = p.contentType
	if prev, ok := table[page.Slug]; ok {
		page.ID = prev.ID
		page.CreatedAt = prev.CreatedAt
	} else {
		page.ID = uuid.NewString()
		page.CreatedAt = now
	}
	page.UpdatedAt = now
	table[page.Slug] = page
	return page, nil
}

func (p *pageStore) ExistsPublished(_ context.Context, slug string) (bool, error) {
	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()

	page, ok := s.pages[p.contentType][slug]
	return ok && page.Status == domain.PagePublished, nil
}

func (p *pageStore) PublishedAmong(_ context.Context, slugs []string) (map[string]bool, error) {
	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()

	result := map[string]bool{}
	for _, slug := range slugs {
		if page, ok := s.pages[p.contentType][slug]; ok && page.Status == domain.PagePublished {
			result[slug] = true
		}
	}
	return result, nil
}

// PageCount reports how many rows a content type holds.
func (s *Store) PageCount(ct domain.ContentType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages[ct])
}

// Page returns a stored page by slug.
func (s *Store) Page(ct domain.ContentType, slug string) (domain.PublishedPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[ct][slug]
	return page, ok
}
