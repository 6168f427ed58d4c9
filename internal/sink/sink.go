package sink

import (
	"context"
	"errors"
	"time"
)

// Row is one deduplicated triage entry as persisted by a Sink. RunID ties
// rows from the same invocation together when repeated runs land in a
// shared table.
type Row struct {
	RunID     string    `json:"run_id"`
	Message   string    `json:"message"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrWrite marks failures while creating or writing an output target
// (permission denied, file locked, connection lost), so callers can report
// them separately from input parse failures.
var ErrWrite = errors.New("sink write failed")

// Sink persists triage rows. A sink is opened only once the pipeline has
// rows to write, which keeps runs with no matches from leaving empty
// files behind.
type Sink interface {
	Write(ctx context.Context, rows []Row) error
	Close() error
}

// Factory describes an output target and defers opening it until needed.
type Factory struct {
	// Kind names the backend family ("csv", "json", "sqlite", "postgres").
	Kind string
	// Target is the human-readable destination: a file path or a DSN.
	Target string
	Open   func(ctx context.Context) (Sink, error)
}
