package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"mpbcrawl/models"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	run_id  uuid PRIMARY KEY,
	run_at  timestamptz NOT NULL,
	status  text NOT NULL,
	stats   jsonb NOT NULL,
	report  jsonb NOT NULL
)`

// PGSink stores one row per run in Postgres, next to the JSON file output.
// Optional: the crawl does not depend on it.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink connects, verifies connectivity, and ensures the runs table.
func NewPGSink(ctx context.Context, dsn string) (*PGSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	if _, err := pool.Exec(ctx, createRunsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure crawl_runs table: %w", err)
	}
	return &PGSink{pool: pool}, nil
}

// Save inserts the run, ignoring replays of an already stored run id.
func (s *PGSink) Save(ctx context.Context, rep *models.RunReport) error {
	stats, err := json.Marshal(rep.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	full, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO crawl_runs (run_id, run_at, status, stats, report)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id) DO NOTHING`,
		rep.ScrapeRunID, rep.ScrapeTimestamp, rep.Status, stats, full,
	)
	if err != nil {
		return fmt.Errorf("insert crawl run: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PGSink) Close() {
	s.pool.Close()
}
