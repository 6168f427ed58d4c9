package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/sift/internal/fingerprint"
	"github.com/FranksOps/sift/internal/verify"
)

var verifyFlags struct {
	csvPath     string
	concurrency int
	rps         float64
	jitter      float64
	timeout     time.Duration
	profile     string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-check the URLs from an extracted CSV",
	Long: `verify re-fetches every URL in a CSV produced by extract and reports
which still fail, which answer 2xx with an error page body (soft
failures), and which have recovered.`,
	RunE: runVerify,
}

func init() {
	f := verifyCmd.Flags()
	f.StringVar(&verifyFlags.csvPath, "csv", "filtered_errors.csv", "CSV produced by extract")
	f.IntVar(&verifyFlags.concurrency, "concurrency", 4, "number of parallel checks")
	f.Float64Var(&verifyFlags.rps, "rps", 2, "requests per second (0 = unlimited)")
	f.Float64Var(&verifyFlags.jitter, "jitter", 0.25, "rate limiter jitter fraction")
	f.DurationVar(&verifyFlags.timeout, "timeout", 15*time.Second, "per-request timeout")
	f.StringVar(&verifyFlags.profile, "fingerprint", "chrome", "TLS fingerprint profile (chrome, firefox, safari, go)")
}

// readURLColumn loads the URL column of an extract CSV, skipping the
// header row.
func readURLColumn(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var urls []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(record) < 2 || record[1] == "" {
			continue
		}
		urls = append(urls, record[1])
	}
	return urls, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	urls, err := readURLColumn(verifyFlags.csvPath)
	if err != nil {
		logger.Error("could not load the extracted CSV", "path", verifyFlags.csvPath, "err", err)
		return err
	}
	if len(urls) == 0 {
		logger.Info("no URLs to verify", "path", verifyFlags.csvPath)
		return nil
	}

	profile, err := fingerprint.ParseProfile(verifyFlags.profile)
	if err != nil {
		return err
	}

	checker, err := verify.New(verify.Config{
		Concurrency:       verifyFlags.concurrency,
		Timeout:           verifyFlags.timeout,
		RequestsPerSecond: verifyFlags.rps,
		Jitter:            verifyFlags.jitter,
		Fingerprint:       profile,
		Logger:            logger,
	})
	if err != nil {
		return err
	}
	defer checker.Close()

	logger.Info("re-checking extracted URLs", "count", len(urls), "concurrency", verifyFlags.concurrency)

	results, err := checker.Check(cmd.Context(), urls)
	if err != nil {
		logger.Error("verification aborted", "err", err)
		return err
	}

	counts := map[verify.Outcome]int{}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OUTCOME\tSTATUS\tURL\tDETAIL")
	for _, r := range results {
		counts[r.Outcome]++
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.Outcome, r.StatusCode, r.URL, r.Detail)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nchecked %d URLs: %d failing, %d soft failures, %d ok, %d unreachable\n",
		len(results),
		counts[verify.OutcomeFailing],
		counts[verify.OutcomeSoft],
		counts[verify.OutcomeOK],
		counts[verify.OutcomeUnreachable])
	return nil
}
