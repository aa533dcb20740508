package deadline

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunReturnsResult(t *testing.T) {
	got, err := Run(context.Background(), time.Second, "fast op", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 42 {
		t.Fatalf("got = %d, want 42", got)
	}
}

func TestRunPropagatesOperationError(t *testing.T) {
	opErr := errors.New("collaborator exploded")
	_, err := Run(context.Background(), time.Second, "failing op", func(ctx context.Context) (string, error) {
		return "", opErr
	})
	if !errors.Is(err, opErr) {
		t.Fatalf("expected operation error, got %v", err)
	}
}

func TestRunTimesOut(t *testing.T) {
	started := make(chan struct{})
	_, err := Run(context.Background(), 20*time.Millisecond, "slow op", func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	})

	<-started
	var dErr *Error
	if !errors.As(err, &dErr) {
		t.Fatalf("expected *deadline.Error, got %v", err)
	}
	if dErr.Label != "slow op" {
		t.Fatalf("label = %q, want %q", dErr.Label, "slow op")
	}
	if dErr.Timeout != 20*time.Millisecond {
		t.Fatalf("timeout = %v, want 20ms", dErr.Timeout)
	}
}

func TestRunSignalsCancellationToOperation(t *testing.T) {
	cancelled := make(chan struct{})
	_, err := Run(context.Background(), 10*time.Millisecond, "observed", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	})

	var dErr *Error
	if !errors.As(err, &dErr) {
		t.Fatalf("expected *deadline.Error, got %v", err)
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("operation never observed cancellation")
	}
}

func TestRunCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, time.Second, "cancelled", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	var dErr *Error
	if errors.As(err, &dErr) {
		t.Fatalf("caller cancellation must not be reported as deadline, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
