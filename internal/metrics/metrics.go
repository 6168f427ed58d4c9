package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/FranksOps/sift/internal/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecordsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sift_records_scanned_total",
			Help: "Total number of error report records scanned",
		},
	)

	MatchesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sift_matches_total",
			Help: "Total number of records that matched the URL filter",
		},
	)

	DuplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sift_duplicates_removed_total",
			Help: "Total number of matches dropped by URL deduplication",
		},
	)

	SinkWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_sink_rows_written_total",
			Help: "Total triage rows written, labelled by sink kind",
		},
		[]string{"sink"},
	)

	VerifyChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sift_verify_checks_total",
			Help: "Total URL re-checks performed, labelled by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordRun updates the scan counters from a finished run summary.
func RecordRun(s report.Summary) {
	RecordsScanned.Add(float64(s.Scanned))
	MatchesFound.Add(float64(s.Matched))
	DuplicatesRemoved.Add(float64(s.DuplicatesRemoved))
}

// Server encapsulates an HTTP server for Prometheus metrics. It exists for
// very large scans, where an operator may want to watch progress from the
// outside; day-to-day runs never start it.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
