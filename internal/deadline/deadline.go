// Package deadline wraps long-running collaborator calls with a
// maximum duration. Retry policy, if any, belongs to the caller.
package deadline

import (
	"context"
	"fmt"
	"time"
)

// Error reports that an operation exceeded its deadline
type Error struct {
	Label   string
	Timeout time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("operation %q timed out after %d seconds", e.Label, int(e.Timeout.Seconds()))
}

// Run executes op with a deadline of max. If op does not return in
// time, the derived context is cancelled (best-effort: the operation
// is asked to stop but Run does not wait for it to acknowledge) and a
// *Error is returned. Otherwise op's result and error pass through
// unchanged.
func Run[T any](ctx context.Context, max time.Duration, label string, op func(context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		value, err := op(opCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-opCtx.Done():
		var zero T
		if ctx.Err() != nil {
			// Caller cancelled; not a deadline of ours.
			return zero, ctx.Err()
		}
		return zero, &Error{Label: label, Timeout: max}
	}
}
