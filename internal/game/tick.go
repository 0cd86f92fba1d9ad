package game

import (
	"context"
	"time"
)

// Sweep advances every raid with a due transition as of now and returns how
// many transitions were applied.  Returns are collected before arrivals are
// processed, so a raid whose arrival lands during this sweep does not also
// have its fresh return leg resolved in the same pass: each raid moves at
// most one stage per sweep.  Every transition commits independently; one
// failing raid is logged into the returned error only after the rest of the
// batch has been attempted.
func (e *Engine) Sweep(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()

	returns, err := e.store.DueReturns(ctx, now)
	if err != nil {
		return 0, err
	}
	arrivals, err := e.store.DueArrivals(ctx, now)
	if err != nil {
		return 0, err
	}

	advanced := 0
	var firstErr error
	for _, id := range append(returns, arrivals...) {
		stepped, err := e.advanceOnce(ctx, id, now)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if stepped {
			advanced++
		}
	}
	return advanced, firstErr
}

// RunSweeper calls Sweep on every tick of the interval until the context is
// cancelled.  Intended to be launched as a goroutine next to the HTTP
// server.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.Sweep(ctx, e.clock.Now()); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
