// Package history records conversion runs in PostgreSQL.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/entityexport/internal/config"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ArchiveSummary describes one entity archive of a run.
type ArchiveSummary struct {
	Entity  string `json:"entity"`
	Label   string `json:"label"`
	File    string `json:"file"`
	Records int    `json:"records"`
	Written int    `json:"written"`
	Skipped int    `json:"skipped"`
}

// Run is one row of conversion_runs.
type Run struct {
	ID           string           `json:"id"`
	FileName     string           `json:"fileName"`
	SheetName    string           `json:"sheetName"`
	Status       string           `json:"status"`
	Records      int              `json:"records"`
	Skipped      int              `json:"skipped"`
	Archives     []ArchiveSummary `json:"archives"`
	ErrorCode    string           `json:"errorCode,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	ClientIP     string           `json:"clientIp,omitempty"`
	StartedAt    time.Time        `json:"startedAt"`
	FinishedAt   time.Time        `json:"finishedAt"`
}

// Duration returns how long the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store reads and writes conversion_runs.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the configured database, verifies the connection and
// applies migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(cfg.URL); err != nil {
		pool.Close()
		return nil, err
	}

	return NewStore(pool), nil
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const insertRun = `
INSERT INTO conversion_runs (
    id, file_name, sheet_name, status, records, skipped, archives,
    error_code, error_message, client_ip, started_at, finished_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11, $12)`

// Record inserts run.
func (s *Store) Record(ctx context.Context, run Run) error {
	archives := run.Archives
	if archives == nil {
		archives = []ArchiveSummary{}
	}

	_, err := s.pool.Exec(ctx, insertRun,
		run.ID, run.FileName, run.SheetName, run.Status, run.Records, run.Skipped, archives,
		run.ErrorCode, run.ErrorMessage, run.ClientIP, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

const selectRecent = `
SELECT id::text, file_name, sheet_name, status, records, skipped, archives,
       COALESCE(error_code, ''), COALESCE(error_message, ''), COALESCE(client_ip, ''),
       started_at, finished_at
FROM conversion_runs
ORDER BY started_at DESC
LIMIT $1`

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		var r Run
		err := row.Scan(
			&r.ID, &r.FileName, &r.SheetName, &r.Status, &r.Records, &r.Skipped, &r.Archives,
			&r.ErrorCode, &r.ErrorMessage, &r.ClientIP, &r.StartedAt, &r.FinishedAt,
		)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}
