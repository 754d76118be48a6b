// Package notify polls the pending-transfer queue and reports when its
// size changes, so operators see incoming transfers without refreshing.
package notify

import (
	"context"
	"time"
)

// DefaultInterval is how often the watcher polls when no interval is set.
const DefaultInterval = 30 * time.Second

// fetchTimeout bounds a single poll so one slow query cannot stall the
// loop across ticks.
const fetchTimeout = 10 * time.Second

// Watcher periodically fetches the pending-transfer count and invokes
// OnChange whenever the count differs from the previous poll.
type Watcher struct {
	// Interval between polls. Zero means DefaultInterval.
	Interval time.Duration

	// Fetch returns the current pending count.
	Fetch func(ctx context.Context) (int, error)

	// OnChange is called with the new count when it changes, including
	// on the first successful poll.
	OnChange func(count int)

	// OnError is called when a poll fails. Optional.
	OnError func(err error)
}

// Run polls until ctx is cancelled. Failed polls keep the last known
// count, so a transient error does not fire a spurious change.
func (w *Watcher) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := -1
	w.poll(ctx, &last)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx, &last)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, last *int) {
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	count, err := w.Fetch(fetchCtx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}

	if count != *last {
		*last = count
		w.OnChange(count)
	}
}
