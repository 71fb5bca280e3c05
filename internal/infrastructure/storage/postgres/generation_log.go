package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ContentGenerator/internal/domain"
)

type logRow struct {
	ID             string         `db:"id"`
	QueueRef       sql.NullString `db:"queue_ref"`
	ContentType    string         `db:"content_type"`
	TargetSlug     string         `db:"target_slug"`
	PromptLength   int            `db:"prompt_length"`
	ResponseLength int            `db:"response_length"`
	DurationMS     int64          `db:"duration_ms"`
	Status         string         `db:"status"`
	ErrorDetail    string         `db:"error_detail"`
	CreatedAt      time.Time      `db:"created_at"`
}

// Append records one generation attempt. Rows are never updated.
func (s *Store) Append(ctx context.Context, entry domain.GenerationLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	queueRef := sql.NullString{String: entry.QueueRef, Valid: entry.QueueRef != ""}

	query, args, err := s.psql.Insert("generation_log").
		Columns("id", "queue_ref", "content_type", "target_slug", "prompt_length",
			"response_length", "duration_ms", "status", "error_detail").
		Values(entry.ID, queueRef, string(entry.ContentType), entry.TargetSlug, entry.PromptLength,
			entry.ResponseLength, entry.DurationMS, string(entry.Status), entry.ErrorDetail).
		ToSql()
	if err != nil {
		return fmt.Errorf("build log insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append generation log: %w", err)
	}
	return nil
}

// Recent returns the newest log entries first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.GenerationLogEntry, error) {
	builder := s.psql.Select("id, queue_ref, content_type, target_slug, prompt_length, response_length, duration_ms, status, error_detail, created_at").
		From("generation_log").
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build log query: %w", err)
	}

	var rows []logRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list generation log: %w", err)
	}

	out := make([]domain.GenerationLogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.GenerationLogEntry{
			ID:             row.ID,
			QueueRef:       row.QueueRef.String,
			ContentType:    domain.ContentType(row.ContentType),
			TargetSlug:     row.TargetSlug,
			PromptLength:   row.PromptLength,
			ResponseLength: row.ResponseLength,
			DurationMS:     row.DurationMS,
			Status:         domain.GenerationStatus(row.Status),
			ErrorDetail:    row.ErrorDetail,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out, nil
}
