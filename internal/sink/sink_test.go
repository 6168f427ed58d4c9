package sink

import (
	"context"
	"testing"
	"time"
)

type mockSink struct {
	rows   []Row
	closed bool
}

func (m *mockSink) Write(ctx context.Context, rows []Row) error {
	m.rows = append(m.rows, rows...)
	return nil
}
func (m *mockSink) Close() error {
	m.closed = true
	return nil
}

func TestSinkInterface(t *testing.T) {
	var s Sink = &mockSink{}

	rows := []Row{{
		RunID:     "run1",
		Message:   "404",
		URL:       "https://x.com/a.png",
		CreatedAt: time.Now().UTC(),
	}}

	if err := s.Write(context.Background(), rows); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	m := s.(*mockSink)
	if len(m.rows) != 1 || !m.closed {
		t.Errorf("expected 1 row and closed sink, got %d rows, closed=%v", len(m.rows), m.closed)
	}
}

func TestFactory_DeferredOpen(t *testing.T) {
	opened := 0
	f := Factory{
		Kind:   "csv",
		Target: "out.csv",
		Open: func(ctx context.Context) (Sink, error) {
			opened++
			return &mockSink{}, nil
		},
	}

	if opened != 0 {
		t.Fatalf("factory must not open eagerly, opened %d times", opened)
	}
	if _, err := f.Open(context.Background()); err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if opened != 1 {
		t.Errorf("expected 1 open, got %d", opened)
	}
}
