// Package postgres persists seeds, the work queue, pages and the generation
// log in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"ContentGenerator/internal/config"
	"ContentGenerator/internal/domain"
	"ContentGenerator/internal/ports"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
	pingTimeout            = 5 * time.Second

	// enqueueChunk bounds the rows per INSERT so a large populate stays
	// under the driver's parameter limit.
	enqueueChunk = 500
)

// Open connects to Postgres and applies pool settings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(lifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Store implements the seed, queue and generation log ports on one pool.
type Store struct {
	db   *sqlx.DB
	psql sq.StatementBuilderType
}

var (
	_ ports.SeedStore       = (*Store)(nil)
	_ ports.SeedAdmin       = (*Store)(nil)
	_ ports.QueueRepository = (*Store)(nil)
	_ ports.GenerationLog   = (*Store)(nil)
)

// NewStore wraps an open pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Pages returns the content store backing one content type's table.
func (s *Store) Pages(ct domain.ContentType) ports.ContentStore {
	return &pageStore{db: s.db, psql: s.psql, table: pageTable(ct), contentType: ct}
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func pageTable(ct domain.ContentType) string {
	switch ct {
	case domain.ContentLocation:
		return "location_pages"
	case domain.ContentIndustry:
		return "industry_pages"
	default:
		return "combo_pages"
	}
}
