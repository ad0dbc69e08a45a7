// Package pacer runs an operation over a list of items, launching one item
// at a time on a fixed cadence.
//
// The cadence keeps request bursts under the remote service's rate ceiling.
// It is a pacing throttle, not a concurrency limit: a new item is started
// when the interval elapses whether or not earlier items have finished.
package pacer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultInterval is the delay between two dispatches.
const DefaultInterval = 200 * time.Millisecond

// Map applies op to every item and returns the results in input order.
//
// op(items[i]) is started, then Map waits interval before starting
// op(items[i+1]). Started operations run concurrently and each writes only
// its own slot. A failing item leaves its slot at the zero value; the first
// reported error is returned once every started operation has completed.
// Errors never stop the remaining dispatches.
//
// If ctx is cancelled between two dispatches the remaining items are not
// started and ctx.Err() is reported unless an item already failed.
func Map[T, R any](ctx context.Context, items []T, interval time.Duration, op func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	var g errgroup.Group
	var stopped error

	for i, item := range items {
		if i > 0 && interval > 0 {
			stopped = wait(ctx, interval)
			if stopped != nil {
				break
			}
		}

		g.Go(func() error {
			r, err := op(ctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = stopped
	}
	return results, err
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
