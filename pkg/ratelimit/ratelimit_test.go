package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_Unlimited(t *testing.T) {
	l := New(0, 0)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("unlimited limiter blocked for %v", elapsed)
	}
}

func TestLimiter_Paces(t *testing.T) {
	// 50 rps = 20ms interval; three waits should take at least ~40ms.
	l := New(50, 0)
	defer l.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least 40ms of pacing, got %v", elapsed)
	}
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := New(0.1, 0) // 10s interval, will not tick during the test
	defer l.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestLimiter_JitterClamped(t *testing.T) {
	l := New(100, 5.0) // jitter clamps to 1.0
	defer l.Stop()
	if l.jitter != 1.0 {
		t.Errorf("expected jitter clamped to 1.0, got %f", l.jitter)
	}

	l2 := New(100, -1)
	defer l2.Stop()
	if l2.jitter != 0 {
		t.Errorf("expected negative jitter clamped to 0, got %f", l2.jitter)
	}
}
