package backoff

import (
	"context"
	"testing"
	"time"
)

func TestBackoff_Next(t *testing.T) {
	b := New(100*time.Millisecond, 400*time.Millisecond)

	tests := []struct {
		base time.Duration
	}{
		{100 * time.Millisecond},
		{200 * time.Millisecond},
		{400 * time.Millisecond},
		{400 * time.Millisecond},
	}
	for i, tt := range tests {
		d := b.Next()
		lo := time.Duration(float64(tt.base) * 0.8)
		hi := time.Duration(float64(tt.base) * 1.2)
		if d < lo || d > hi {
			t.Fatalf("step %d: got %v, want within [%v, %v]", i, d, lo, hi)
		}
	}
}

func TestBackoff_Reset(t *testing.T) {
	b := New(10*time.Millisecond, time.Second)
	b.Next()
	b.Next()
	if got := b.Current(); got != 40*time.Millisecond {
		t.Fatalf("Current() = %v, want 40ms", got)
	}
	b.Reset()
	if got := b.Current(); got != 10*time.Millisecond {
		t.Fatalf("Current() after Reset = %v, want 10ms", got)
	}
}

func TestBackoff_MaxBelowInitial(t *testing.T) {
	b := New(time.Second, time.Millisecond)
	b.Next()
	if got := b.Current(); got != time.Second {
		t.Fatalf("Current() = %v, want 1s", got)
	}
}

func TestBackoff_WaitCancelled(t *testing.T) {
	b := New(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Wait(ctx); err != context.Canceled {
		t.Fatalf("Wait() = %v, want context.Canceled", err)
	}
}

func TestBackoff_Wait(t *testing.T) {
	b := New(time.Millisecond, time.Millisecond)
	if err := b.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
}
