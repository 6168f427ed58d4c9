package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "sift",
	Short: "Triage crawl error reports",
	Long: `sift filters a site crawl's JSON error report down to the URLs an
operator actually cares about: extract streams the report, keeps records
whose URL contains a substring, deduplicates them and writes a CSV (plus
optional NDJSON, SQLite or Postgres outputs); verify re-checks the
extracted URLs to see which still fail.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(verifyCmd)
}
