package sources

import (
	"context"
	"fmt"
	"time"

	"k8s.io/utils/clock"
)

// RunWithTimeout runs fn and waits for it at most timeout, measured on clk.
//
// fn receives a context that is cancelled as soon as RunWithTimeout returns,
// so a function honoring its context stops when it loses the race. The
// result of a function that ignores cancellation is discarded once it
// settles.
func RunWithTimeout[T any](
	ctx context.Context, clk clock.Clock, timeout time.Duration, fn func(context.Context) (T, error),
) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		value, err := fn(ctx)
		done <- result{value: value, err: err}
	}()

	timer := clk.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C():
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
