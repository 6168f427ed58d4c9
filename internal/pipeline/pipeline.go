package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/sift/internal/errlog"
	"github.com/FranksOps/sift/internal/filter"
	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/internal/report"
	"github.com/FranksOps/sift/internal/sink"
	"github.com/google/uuid"
)

// Config parameterizes one triage run. Input, Substring and the sink
// targets are the only real variability points; everything else has
// working defaults.
type Config struct {
	// Input is the path of the JSON error report.
	Input string
	// Substring is the literal, case-sensitive URL filter.
	Substring string
	// ProgressEvery is the record cadence of Progress callbacks
	// (default filter.DefaultProgressEvery).
	ProgressEvery int
	// Progress, if set, receives periodic scan counters.
	Progress filter.Progress
	// Sinks are the output targets, opened only when there are rows.
	Sinks []sink.Factory

	Logger *slog.Logger
}

// Run executes the whole pipeline once: stream-parse, filter, dedupe,
// write. All failure modes surface here as a returned error; none of them
// leave a partial primary output behind, because no sink is opened before
// the scan has fully succeeded. The returned summary is valid even on
// failure, reporting how far the run got.
func Run(ctx context.Context, cfg Config) (summary report.Summary, err error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now().UTC()
	summary = report.Summary{
		RunID:     uuid.New().String(),
		Input:     cfg.Input,
		Substring: cfg.Substring,
		StartTime: start,
	}
	defer func() {
		summary.EndTime = time.Now().UTC()
		summary.Duration = summary.EndTime.Sub(start)
		metrics.RecordRun(summary)
	}()

	r, err := errlog.Open(cfg.Input)
	if err != nil {
		return summary, err
	}
	defer r.Close()

	logger.Info("scanning error report", "path", cfg.Input, "filter", cfg.Substring, "run", summary.RunID)

	matches, scanned, err := filter.Collect(r, cfg.Substring, cfg.ProgressEvery, cfg.Progress)
	summary.Scanned = scanned
	if err != nil {
		return summary, fmt.Errorf("parsing %s: %w", cfg.Input, err)
	}
	summary.Matched = len(matches)

	deduped, removed := filter.DedupeByURL(matches)
	summary.DuplicatesRemoved = removed

	if len(deduped) == 0 {
		logger.Info("no matching records found, not writing any output",
			"scanned", scanned, "filter", cfg.Substring)
		return summary, nil
	}

	now := time.Now().UTC()
	rows := make([]sink.Row, len(deduped))
	for i, m := range deduped {
		rows[i] = sink.Row{
			RunID:     summary.RunID,
			Message:   m.Message,
			URL:       m.URL,
			CreatedAt: now,
		}
	}

	for _, f := range cfg.Sinks {
		s, err := f.Open(ctx)
		if err != nil {
			return summary, fmt.Errorf("opening %s output %s: %w", f.Kind, f.Target, err)
		}
		if err := s.Write(ctx, rows); err != nil {
			_ = s.Close()
			return summary, fmt.Errorf("writing %s output %s: %w", f.Kind, f.Target, err)
		}
		if err := s.Close(); err != nil {
			return summary, fmt.Errorf("closing %s output %s: %w", f.Kind, f.Target, err)
		}

		summary.Written = len(rows)
		summary.Outputs = append(summary.Outputs, f.Target)
		metrics.SinkWrites.WithLabelValues(f.Kind).Add(float64(len(rows)))
		logger.Info("wrote triage rows", "sink", f.Kind, "target", f.Target, "rows", len(rows))
	}

	return summary, nil
}
