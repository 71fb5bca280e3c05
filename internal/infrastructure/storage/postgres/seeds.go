package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ContentGenerator/internal/domain"
)

const seedColumns = "dimension, slug, name, priority, active, metadata, created_at, updated_at"

type seedRow struct {
	Dimension string    `db:"dimension"`
	Slug      string    `db:"slug"`
	Name      string    `db:"name"`
	Priority  int       `db:"priority"`
	Active    bool      `db:"active"`
	Metadata  []byte    `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r seedRow) toDomain() (domain.SeedItem, error) {
	item := domain.SeedItem{
		Dimension: domain.Dimension(r.Dimension),
		Slug:      r.Slug,
		Name:      r.Name,
		Priority:  r.Priority,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Metadata) > 0 {
		if err := json.Unmarshal(r.Metadata, &item.Metadata); err != nil {
			return domain.SeedItem{}, fmt.Errorf("decode metadata of %s/%s: %w", r.Dimension, r.Slug, err)
		}
	}
	return item, nil
}

// UpsertSeeds writes all items in one transaction; nothing is written when
// any item is invalid.
func (s *Store) UpsertSeeds(ctx context.Context, items []domain.SeedItem) (int, error) {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `INSERT INTO seed_items (dimension, slug, name, priority, active, metadata)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (dimension, slug) DO UPDATE
              SET name = EXCLUDED.name,
                  priority = EXCLUDED.priority,
                  active = EXCLUDED.active,
                  metadata = EXCLUDED.metadata,
                  updated_at = NOW()`

	for _, item := range items {
		metadata, err := json.Marshal(nonNilMetadata(item.Metadata))
		if err != nil {
			return 0, fmt.Errorf("encode metadata of %s/%s: %w", item.Dimension, item.Slug, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			string(item.Dimension), item.Slug, item.Name, item.Priority, item.Active, metadata,
		); err != nil {
			return 0, fmt.Errorf("upsert seed %s/%s: %w", item.Dimension, item.Slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed upsert: %w", err)
	}
	return len(items), nil
}

// ListActive returns active seeds with priority <= maxPriority ordered by priority, slug.
func (s *Store) ListActive(ctx context.Context, dim domain.Dimension, maxPriority int) ([]domain.SeedItem, error) {
	query, args, err := s.psql.Select(seedColumns).
		From("seed_items").
		Where(sq.Eq{"dimension": string(dim), "active": true}).
		Where(sq.LtOrEq{"priority": maxPriority}).
		OrderBy("priority ASC", "slug ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seed query: %w", err)
	}

	var rows []seedRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s seeds: %w", dim, err)
	}

	out := make([]domain.SeedItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// GetSeed returns one seed or domain.ErrNotFound.
func (s *Store) GetSeed(ctx context.Context, dim domain.Dimension, slug string) (domain.SeedItem, error) {
	query := `SELECT ` + seedColumns + ` FROM seed_items WHERE dimension = $1 AND slug = $2`

	var row seedRow
	if err := s.db.GetContext(ctx, &row, query, string(dim), slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SeedItem{}, fmt.Errorf("%s/%s: %w", dim, slug, domain.ErrNotFound)
		}
		return domain.SeedItem{}, fmt.Errorf("get seed %s/%s: %w", dim, slug, err)
	}
	return row.toDomain()
}

func nonNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
