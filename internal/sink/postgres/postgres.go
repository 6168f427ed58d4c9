package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/sift/internal/sink"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresSink implements sink.Sink
var _ sink.Sink = (*postgresSink)(nil)

// postgresSink lands triage rows in a shared Postgres table so several
// operators can work off the same backlog.
type postgresSink struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS triage_matches (
	run_id TEXT NOT NULL,
	url TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, url)
);
`

// New connects to the database at dsn and ensures the triage table exists.
func New(ctx context.Context, dsn string) (sink.Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	return &postgresSink{pool: pool}, nil
}

func (s *postgresSink) Write(ctx context.Context, rows []sink.Row) error {
	const insert = `
	INSERT INTO triage_matches (run_id, url, message, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (run_id, url) DO NOTHING
	`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	for _, r := range rows {
		if _, err := tx.Exec(ctx, insert, r.RunID, r.URL, r.Message, r.CreatedAt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("%w: %w", sink.ErrWrite, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	return nil
}

func (s *postgresSink) Close() error {
	s.pool.Close()
	return nil
}
