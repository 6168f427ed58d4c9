package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/FranksOps/sift/internal/errlog"
	"github.com/FranksOps/sift/internal/metrics"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/report"
	"github.com/FranksOps/sift/internal/sink"
	"github.com/FranksOps/sift/internal/sink/csvsink"
	"github.com/FranksOps/sift/internal/sink/jsonsink"
	"github.com/FranksOps/sift/internal/sink/postgres"
	"github.com/FranksOps/sift/internal/sink/sqlite"
)

var extractFlags struct {
	input         string
	output        string
	match         string
	progressEvery int
	jsonPath      string
	sqliteDSN     string
	postgresDSN   string
	summaryJSON   string
	metricsPort   int
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Filter an error report into a deduplicated CSV",
	Long: `extract stream-parses a JSON error report (a top-level array of
records), keeps every record whose errorLocation contains the --match
substring, removes duplicate URLs (first occurrence wins) and writes the
survivors to the output CSV. With no matches, no file is written.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractFlags.input, "input", "i", "", "path of the JSON error report (required)")
	f.StringVarP(&extractFlags.output, "output", "o", "filtered_errors.csv", "path of the output CSV")
	f.StringVarP(&extractFlags.match, "match", "m", "/content/dam/", "substring the URL must contain")
	f.IntVar(&extractFlags.progressEvery, "progress-every", 0, "records between progress updates (default 100000)")
	f.StringVar(&extractFlags.jsonPath, "json", "", "also append rows to this NDJSON file")
	f.StringVar(&extractFlags.sqliteDSN, "sqlite", "", "also write rows to this SQLite database")
	f.StringVar(&extractFlags.postgresDSN, "postgres", "", "also write rows to this Postgres DSN")
	f.StringVar(&extractFlags.summaryJSON, "summary-json", "", "write the run summary as JSON to this path")
	f.IntVar(&extractFlags.metricsPort, "metrics-port", 0, "expose Prometheus metrics on this port during the run")
	_ = extractCmd.MarkFlagRequired("input")
}

func buildSinks() []sink.Factory {
	sinks := []sink.Factory{{
		Kind:   "csv",
		Target: extractFlags.output,
		Open: func(ctx context.Context) (sink.Sink, error) {
			return csvsink.New(extractFlags.output, "", "")
		},
	}}

	if p := extractFlags.jsonPath; p != "" {
		sinks = append(sinks, sink.Factory{
			Kind:   "json",
			Target: p,
			Open: func(ctx context.Context) (sink.Sink, error) {
				return jsonsink.New(p)
			},
		})
	}
	if dsn := extractFlags.sqliteDSN; dsn != "" {
		sinks = append(sinks, sink.Factory{
			Kind:   "sqlite",
			Target: dsn,
			Open: func(ctx context.Context) (sink.Sink, error) {
				return sqlite.New(dsn)
			},
		})
	}
	if dsn := extractFlags.postgresDSN; dsn != "" {
		sinks = append(sinks, sink.Factory{
			Kind:   "postgres",
			Target: dsn,
			Open: func(ctx context.Context) (sink.Sink, error) {
				return postgres.New(ctx, dsn)
			},
		})
	}
	return sinks
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger := slog.Default()
	ctx := cmd.Context()

	if extractFlags.metricsPort > 0 {
		srv := metrics.Start(extractFlags.metricsPort)
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	sp.Suffix = " scanning " + extractFlags.input
	sp.Start()

	progress := func(scanned, matched int) {
		sp.Suffix = fmt.Sprintf(" scanned %d records, %d matches", scanned, matched)
		logger.Debug("scan progress", "scanned", scanned, "matched", matched)
	}

	summary, err := pipeline.Run(ctx, pipeline.Config{
		Input:         extractFlags.input,
		Substring:     extractFlags.match,
		ProgressEvery: extractFlags.progressEvery,
		Progress:      progress,
		Sinks:         buildSinks(),
		Logger:        logger,
	})
	sp.Stop()

	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Error("input report not found", "path", extractFlags.input)
		case errors.Is(err, errlog.ErrMalformed):
			logger.Error("could not parse the report, no output written", "err", err)
		case errors.Is(err, sink.ErrWrite):
			logger.Error("could not write an output target (open elsewhere, or permission denied?)", "err", err)
		default:
			logger.Error("extract failed", "err", err)
		}
		return err
	}

	if err := report.WriteText(os.Stdout, summary); err != nil {
		return err
	}

	if path := extractFlags.summaryJSON; path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create summary file: %w", err)
		}
		defer f.Close()
		if err := report.WriteJSON(f, summary); err != nil {
			return err
		}
	}
	return nil
}
