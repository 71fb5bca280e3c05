package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

// pageStore maps one content type onto its pages table.
type pageStore struct {
	db          *sqlx.DB
	psql        sq.StatementBuilderType
	table       string
	contentType domain.ContentType
}

var _ ports.ContentStore = (*pageStore)(nil)

// Upsert writes the page keyed by slug. An existing row keeps its ID and
// creation time.
func (p *pageStore) Upsert(ctx context.Context, page domain.PublishedPage) (domain.PublishedPage, error) {
	if page.Slug == "" {
		return domain.PublishedPage{}, fmt.Errorf("%s page without slug", p.contentType)
	}
	body, err := json.Marshal(page.Content)
	if err != nil {
		return domain.PublishedPage{}, fmt.Errorf("encode %s/%s content: %w", p.contentType, page.Slug, err)
	}

	query, args, err := p.psql.Insert(p.table).
		Columns("id", "slug", "location_slug", "industry_slug", "title", "content", "status", "published_at").
		Values(uuid.NewString(), page.Slug, page.LocationSlug, page.IndustrySlug, page.Title, body, string(page.Status), page.PublishedAt).
		Suffix(`ON CONFLICT (slug) DO UPDATE
              SET location_slug = EXCLUDED.location_slug,
                  industry_slug = EXCLUDED.industry_slug,
                  title = EXCLUDED.title,
                  content = EXCLUDED.content,
                  status = EXCLUDED.status,
                  published_at = EXCLUDED.published_at,
                  updated_at = NOW()
              RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return domain.PublishedPage{}, fmt.Errorf("build page upsert: %w", err)
	}

	var saved struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := p.db.GetContext(ctx, &saved, query, args...); err != nil {
		return domain.PublishedPage{}, fmt.Errorf("upsert %s page %s: %w", p.contentType, page.Slug, err)
	}

	page.ID = saved.ID
	page.ContentType = p.contentType
	page.CreatedAt = saved.CreatedAt
	page.UpdatedAt = saved.UpdatedAt
	return page, nil
}

func (p *pageStore) ExistsPublished(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM ` + p.table + ` WHERE slug = $1 AND status = 'published')`

	var exists bool
	if err := p.db.GetContext(ctx, &exists, query, slug); err != nil {
		return false, fmt.Errorf("check %s page %s: %w", p.contentType, slug, err)
	}
	return exists, nil
}

func (p *pageStore) PublishedAmong(ctx context.Context, slugs []string) (map[string]bool, error) {
	if len(slugs) == 0 {
		return map[string]bool{}, nil
	}

	query := `SELECT slug FROM ` + p.table + ` WHERE status = 'published' AND slug = ANY($1)`

	var found []string
	if err := p.db.SelectContext(ctx, &found, query, pq.StringArray(slugs)); err != nil {
		return nil, fmt.Errorf("query published %s pages: %w", p.contentType, err)
	}

	result := make(map[string]bool, len(found))
	for _, slug := range found {
		result[slug] = true
	}
	return result, nil
}
