//go:build integration

package test

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"log/slog"

	"github.com/FranksOps/sift/internal/fingerprint"
	"github.com/FranksOps/sift/internal/pipeline"
	"github.com/FranksOps/sift/internal/sink"
	"github.com/FranksOps/sift/internal/sink/csvsink"
	"github.com/FranksOps/sift/internal/sink/jsonsink"
	"github.com/FranksOps/sift/internal/sink/sqlite"
	"github.com/FranksOps/sift/internal/verify"
)

// TestIntegration_ExtractThenVerify runs the whole workflow: a report is
// extracted to CSV (plus NDJSON and SQLite), then the surviving URLs are
// re-checked against a live test server.
func TestIntegration_ExtractThenVerify(t *testing.T) {
	// 1. Target server standing in for the crawled site.
	mux := http.NewServeMux()
	mux.HandleFunc("/content/dam/a.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/content/dam/b.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("recovered"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	// 2. Error report that references the server, with one duplicate and
	// one out-of-scope record.
	dir := t.TempDir()
	input := filepath.Join(dir, "report.json")
	reportJSON := fmt.Sprintf(`[
		{"errorLocation": "%[1]s/content/dam/a.png", "errorText": "404"},
		{"errorLocation": "%[1]s/other/c.png", "errorText": "500"},
		{"errorLocation": "%[1]s/content/dam/a.png", "errorText": "404-dup"},
		{"errorLocation": "%[1]s/content/dam/b.png", "errorText": "503"}
	]`, ts.URL)
	if err := os.WriteFile(input, []byte(reportJSON), 0644); err != nil {
		t.Fatalf("Failed to write report: %v", err)
	}

	output := filepath.Join(dir, "filtered.csv")
	ndjson := filepath.Join(dir, "triage.ndjson")
	db := filepath.Join(dir, "triage.db")

	summary, err := pipeline.Run(context.Background(), pipeline.Config{
		Input:     input,
		Substring: "/content/dam/",
		Logger:    slog.Default(),
		Sinks: []sink.Factory{
			{Kind: "csv", Target: output, Open: func(ctx context.Context) (sink.Sink, error) {
				return csvsink.New(output, "", "")
			}},
			{Kind: "json", Target: ndjson, Open: func(ctx context.Context) (sink.Sink, error) {
				return jsonsink.New(ndjson)
			}},
			{Kind: "sqlite", Target: db, Open: func(ctx context.Context) (sink.Sink, error) {
				return sqlite.New(db)
			}},
		},
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if summary.Scanned != 4 || summary.Matched != 3 || summary.DuplicatesRemoved != 1 || summary.Written != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %v", summary.Outputs)
	}

	// 3. Re-check the extracted URLs.
	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	records, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}

	urls := []string{records[1][1], records[2][1]}

	checker, err := verify.New(verify.Config{
		Concurrency: 2,
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
	})
	if err != nil {
		t.Fatalf("Failed to create checker: %v", err)
	}
	defer checker.Close()

	results, err := checker.Check(context.Background(), urls)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if results[0].Outcome != verify.OutcomeFailing {
		t.Errorf("expected a.png still failing, got %s", results[0].Outcome)
	}
	if results[1].Outcome != verify.OutcomeOK {
		t.Errorf("expected b.png recovered, got %s", results[1].Outcome)
	}
}
