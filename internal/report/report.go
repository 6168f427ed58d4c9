package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"
	"time"
)

// Summary captures the outcome of one triage run.
type Summary struct {
	RunID             string
	Input             string
	Substring         string
	Scanned           int
	Matched           int
	DuplicatesRemoved int
	Written           int
	Outputs           []string
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Sift Triage Summary
-------------------
Run:          {{.RunID}}
Input:        {{.Input}}
Filter:       URL contains {{printf "%q" .Substring}}
Time:         {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})
Scanned:      {{.Scanned}} records
Matches:      {{.Matched}}
Duplicates:   {{.DuplicatesRemoved}} removed
Rows written: {{.Written}}

Outputs:
{{- range .Outputs}}
  {{.}}
{{- else}}
  none (no matching records found)
{{- end}}
`

	t, err := template.New("textSummary").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse summary template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}
