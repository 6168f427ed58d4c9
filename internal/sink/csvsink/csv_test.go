package csvsink

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/sift/internal/sink"
)

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.csv")

	s, err := New(path, "", "")
	if err != nil {
		t.Fatalf("Failed to create CSV sink: %v", err)
	}

	now := time.Now().UTC()
	rows := []sink.Row{
		{RunID: "run1", Message: "404", URL: "https://x.com/content/dam/a.png", CreatedAt: now},
		{RunID: "run1", Message: "500", URL: "https://x.com/content/dam/b.png", CreatedAt: now},
	}

	if err := s.Write(context.Background(), rows); err != nil {
		t.Fatalf("Failed to write rows: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close sink: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen CSV: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != DefaultMessageLabel || records[0][1] != DefaultURLLabel {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][0] != "404" || records[1][1] != "https://x.com/content/dam/a.png" {
		t.Errorf("unexpected first row: %v", records[1])
	}
	if len(records[1]) != 2 {
		t.Errorf("expected exactly 2 columns, got %d", len(records[1]))
	}
}

func TestCSVSink_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.csv")
	if err := os.WriteFile(path, []byte("stale,content\n1,2\n3,4\n"), 0644); err != nil {
		t.Fatalf("Failed to seed stale file: %v", err)
	}

	s, err := New(path, "", "")
	if err != nil {
		t.Fatalf("Failed to create CSV sink: %v", err)
	}
	if err := s.Write(context.Background(), []sink.Row{{Message: "404", URL: "u"}}); err != nil {
		t.Fatalf("Failed to write row: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close sink: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read CSV back: %v", err)
	}
	want := DefaultMessageLabel + "," + DefaultURLLabel + "\n404,u\n"
	if string(data) != want {
		t.Errorf("expected file truncated and rewritten, got %q", string(data))
	}
}

func TestCSVSink_CustomLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.csv")

	s, err := New(path, "Error", "Location")
	if err != nil {
		t.Fatalf("Failed to create CSV sink: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Failed to close sink: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read CSV back: %v", err)
	}
	if string(data) != "Error,Location\n" {
		t.Errorf("unexpected header content: %q", string(data))
	}
}

func TestCSVSink_UnwritablePath(t *testing.T) {
	// A directory as the target path fails at creation time.
	_, err := New(t.TempDir(), "", "")
	if err == nil {
		t.Fatal("expected error creating CSV at a directory path")
	}
	if !errors.Is(err, sink.ErrWrite) {
		t.Errorf("expected sink.ErrWrite, got %v", err)
	}
}
