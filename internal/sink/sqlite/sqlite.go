package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/sift/internal/sink"
	_ "modernc.org/sqlite"
)

// ensure sqliteSink implements sink.Sink
var _ sink.Sink = (*sqliteSink)(nil)

type sqliteSink struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS triage_matches (
	run_id TEXT NOT NULL,
	url TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (run_id, url)
);
`

// New opens (creating if necessary) the SQLite database at dsn and ensures
// the triage table exists. Rows from different runs accumulate in the same
// table, keyed by run ID.
func New(dsn string) (sink.Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	return &sqliteSink{db: db}, nil
}

func (s *sqliteSink) Write(ctx context.Context, rows []sink.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	const insert = `
	INSERT INTO triage_matches (run_id, url, message, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (run_id, url) DO NOTHING
	`

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx, insert, r.RunID, r.URL, r.Message, r.CreatedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %w", sink.ErrWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	return nil
}

func (s *sqliteSink) Close() error {
	return s.db.Close()
}
