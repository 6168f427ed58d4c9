package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/FranksOps/sift/internal/sink"
)

// Default column labels for the two-column triage CSV. The message label
// mirrors the console error class the report is usually filtered for.
const (
	DefaultMessageLabel = "Failed to load resource: net::ERR_FAILED"
	DefaultURLLabel     = "URL"
)

// ensure csvSink implements sink.Sink
var _ sink.Sink = (*csvSink)(nil)

type csvSink struct {
	file *os.File
	w    *csv.Writer
}

// New creates (or truncates) the CSV file at path and writes the header
// row. Empty labels fall back to the defaults. Rows are two columns,
// message then URL; there is no index column.
func New(path, messageLabel, urlLabel string) (sink.Sink, error) {
	if messageLabel == "" {
		messageLabel = DefaultMessageLabel
	}
	if urlLabel == "" {
		urlLabel = DefaultURLLabel
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{messageLabel, urlLabel}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}

	return &csvSink{file: f, w: w}, nil
}

func (s *csvSink) Write(ctx context.Context, rows []sink.Row) error {
	for _, r := range rows {
		if err := s.w.Write([]string{r.Message, r.URL}); err != nil {
			return fmt.Errorf("%w: %w", sink.ErrWrite, err)
		}
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	return nil
}

func (s *csvSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: %w", sink.ErrWrite, err)
	}
	return nil
}
