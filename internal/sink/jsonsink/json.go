package jsonsink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/FranksOps/sift/internal/sink"
)

// ensure jsonSink implements sink.Sink
var _ sink.Sink = (*jsonSink)(nil)

// jsonSink writes rows as NDJSON, one object per line, carrying the full
// row including run ID and timestamp. Unlike the CSV output this is meant
// as an audit trail, so an existing file is appended to rather than
// overwritten.
type jsonSink struct {
	file *os.File
}

// New opens (creating if necessary) the NDJSON file at path.
func New(path string) (sink.Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	return &jsonSink{file: f}, nil
}

func (s *jsonSink) Write(ctx context.Context, rows []sink.Row) error {
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("%w: %w", sink.ErrWrite, err)
		}
		if _, err := s.file.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("%w: %w", sink.ErrWrite, err)
		}
	}
	return nil
}

func (s *jsonSink) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	return nil
}
