package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoCancelOnError(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background(), WithCancelOnError(true))
	s.Go("failing", func(ctx context.Context) error { return errors.New("boom") })
	s.Go0("waiter", func(ctx context.Context) { <-ctx.Done() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if err == nil || err.Error() != "failing: boom" {
		t.Fatalf("Wait error = %v", err)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background())
	s.Go("panicky", func(ctx context.Context) error { panic("kaboom") })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("expected panic to surface as error")
	}
	snap := s.Snapshot()
	if len(snap.Goroutines) != 1 || snap.Goroutines[0].Panics != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestGoRestartUntilClean(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background())
	var runs atomic.Int32
	s.GoRestart("flaky", func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithRestartBackoff(time.Millisecond, 5*time.Millisecond), WithPublishFirstError(true))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.Wait(ctx)
	if got := runs.Load(); got != 3 {
		t.Fatalf("runs = %d, want 3", got)
	}
	if s.Err() == nil {
		t.Fatal("first error should be published")
	}
	if snap := s.Snapshot(); snap.Goroutines[0].Restarts != 2 {
		t.Fatalf("restarts = %d, want 2", snap.Goroutines[0].Restarts)
	}
}

func TestGoRestartGivesUp(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background())
	var runs atomic.Int32
	s.GoRestart("broken", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("permanent")
	}, WithRestartBackoff(time.Millisecond, time.Millisecond), WithMaxRestarts(2))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("expected final error")
	}
	if got := runs.Load(); got != 3 {
		t.Fatalf("runs = %d, want 3 (1 + 2 restarts)", got)
	}
}

func TestStopCancelsContext(t *testing.T) {
	t.Parallel()
	s := NewSupervisor(context.Background())
	s.Go0("loop", func(ctx context.Context) { <-ctx.Done() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
}
