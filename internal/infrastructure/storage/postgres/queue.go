package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"ContentGenerator/internal/domain"
)

const queueColumns = "id, content_type, location_slug, industry_slug, status, priority, published_ref, last_error, created_at, updated_at"

type queueRow struct {
	ID           string    `db:"id"`
	ContentType  string    `db:"content_type"`
	LocationSlug string    `db:"location_slug"`
	IndustrySlug string    `db:"industry_slug"`
	Status       string    `db:"status"`
	Priority     int       `db:"priority"`
	PublishedRef string    `db:"published_ref"`
	LastError    string    `db:"last_error"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r queueRow) toDomain() domain.QueueItem {
	return domain.QueueItem{
		ID:           r.ID,
		ContentType:  domain.ContentType(r.ContentType),
		LocationSlug: r.LocationSlug,
		IndustrySlug: r.IndustrySlug,
		Status:       domain.Status(r.Status),
		Priority:     r.Priority,
		PublishedRef: r.PublishedRef,
		LastError:    r.LastError,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func queueItems(rows []queueRow) []domain.QueueItem {
	out := make([]domain.QueueItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}

// ListQueued returns queued items by priority, then age.
func (s *Store) ListQueued(ctx context.Context, limit int) ([]domain.QueueItem, error) {
	builder := s.psql.Select(queueColumns).
		From("queue_items").
		Where(sq.Eq{"status": string(domain.StatusQueued)}).
		OrderBy("priority ASC", "created_at ASC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build queued query: %w", err)
	}

	var rows []queueRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	return queueItems(rows), nil
}

// Claim moves a queued item to processing with a conditional update; false
// means the item was no longer queued.
func (s *Store) Claim(ctx context.Context, id string) (bool, error) {
	query := `UPDATE queue_items SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	res, err := s.db.ExecContext(ctx, query, string(domain.StatusProcessing), id, string(domain.StatusQueued))
	if err != nil {
		return false, fmt.Errorf("claim queue item %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim queue item %s: %w", id, err)
	}
	if affected == 1 {
		return true, nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// MarkSkipped finishes a processing item without content.
func (s *Store) MarkSkipped(ctx context.Context, id string) error {
	return s.finish(ctx, id, domain.StatusSkipped, "", "")
}

// MarkCompleted finishes a processing item with the page it produced.
func (s *Store) MarkCompleted(ctx context.Context, id, publishedRef string) error {
	return s.finish(ctx, id, domain.StatusCompleted, publishedRef, "")
}

// MarkFailed finishes a processing item with a human-readable cause.
func (s *Store) MarkFailed(ctx context.Context, id, lastError string) error {
	return s.finish(ctx, id, domain.StatusFailed, "", lastError)
}

func (s *Store) finish(ctx context.Context, id string, to domain.Status, ref, lastError string) error {
	query := `UPDATE queue_items
              SET status = $1, published_ref = $2, last_error = $3, updated_at = NOW()
              WHERE id = $4 AND status = $5`

	res, err := s.db.ExecContext(ctx, query, string(to), ref, lastError, id, string(domain.StatusProcessing))
	if err != nil {
		return fmt.Errorf("mark queue item %s %s: %w", id, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark queue item %s %s: %w", id, to, err)
	}
	if affected == 1 {
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("queue item %s %s -> %s: %w", id, current.Status, to, domain.ErrInvalidTransition)
}

// FailStale fails items stuck in processing since before.
func (s *Store) FailStale(ctx context.Context, before time.Time, reason string) (int, error) {
	query := `UPDATE queue_items
              SET status = $1, last_error = $2, updated_at = NOW()
              WHERE status = $3 AND updated_at < $4`

	res, err := s.db.ExecContext(ctx, query,
		string(domain.StatusFailed), reason, string(domain.StatusProcessing), before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("fail stale items: %w", err)
	}
	return int(affected), nil
}

// OutstandingTargets returns targets of queued or processing items.
func (s *Store) OutstandingTargets(ctx context.Context, types []domain.ContentType) ([]domain.Target, error) {
	if len(types) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(types))
	for _, ct := range types {
		names = append(names, string(ct))
	}

	query := `SELECT content_type, location_slug, industry_slug FROM queue_items
              WHERE status IN ('queued', 'processing') AND content_type = ANY($1)`

	rows, err := s.db.QueryContext(ctx, query, pq.StringArray(names))
	if err != nil {
		return nil, fmt.Errorf("query outstanding: %w", err)
	}

	var out []domain.Target
	for rows.Next() {
		var ct, location, industry string
		if err := rows.Scan(&ct, &location, &industry); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, domain.Target{Type: domain.ContentType(ct), LocationSlug: location, IndustrySlug: industry})
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}
	return out, nil
}

// Enqueue inserts queued items. The partial unique index on outstanding
// targets drops duplicates; the return value counts inserted rows.
func (s *Store) Enqueue(ctx context.Context, items []domain.QueueItem) (int, error) {
	for _, item := range items {
		if err := item.Target().Validate(); err != nil {
			return 0, err
		}
	}

	inserted := 0
	for start := 0; start < len(items); start += enqueueChunk {
		end := min(start+enqueueChunk, len(items))

		builder := s.psql.Insert("queue_items").
			Columns("id", "content_type", "location_slug", "industry_slug", "status", "priority").
			Suffix("ON CONFLICT (content_type, location_slug, industry_slug) WHERE status IN ('queued', 'processing') DO NOTHING")
		for _, item := range items[start:end] {
			builder = builder.Values(
				uuid.NewString(),
				string(item.ContentType),
				item.LocationSlug,
				item.IndustrySlug,
				string(domain.StatusQueued),
				item.Priority,
			)
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return inserted, fmt.Errorf("build enqueue: %w", err)
		}
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("enqueue: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("enqueue: %w", err)
		}
		inserted += int(affected)
	}
	return inserted, nil
}

// Get returns one queue item or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (domain.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_items WHERE id = $1`

	var row queueRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.QueueItem{}, fmt.Errorf("queue item %s: %w", id, domain.ErrNotFound)
		}
		return domain.QueueItem{}, fmt.Errorf("get queue item %s: %w", id, err)
	}
	return row.toDomain(), nil
}

// List returns items matching filter, newest first.
func (s *Store) List(ctx context.Context, filter domain.QueueFilter) ([]domain.QueueItem, error) {
	builder := s.psql.Select(queueColumns).From("queue_items")
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.ContentType != "" {
		builder = builder.Where(sq.Eq{"content_type": string(filter.ContentType)})
	}
	builder = builder.OrderBy("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	var rows []queueRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return queueItems(rows), nil
}

// StatusCounts returns the number of items per status.
func (s *Store) StatusCounts(ctx context.Context) (map[domain.Status]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM queue_items GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count queue statuses: %w", err)
	}

	counts := make(map[domain.Status]int, len(rows))
	for _, row := range rows {
		counts[domain.Status(row.Status)] = row.Count
	}
	return counts, nil
}
