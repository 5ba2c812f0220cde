package history

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CleanupInterval is how often the retention loop deletes old entries.
const CleanupInterval = 1 * time.Hour

// RunCleanupLoop runs a cleanup function periodically until the stop channel is closed.
// It runs cleanup immediately on start, then every interval.
func RunCleanupLoop(stop <-chan struct{}, interval time.Duration, cleanupFn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cleanupFn()

	for {
		select {
		case <-ticker.C:
			cleanupFn()
		case <-stop:
			return
		}
	}
}

// Retention deletes history older than a fixed number of days in the background.
type Retention struct {
	store    Store
	days     int
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// StartRetention starts the cleanup loop. It returns nil when days <= 0,
// meaning history is kept forever; Stop is safe on a nil Retention.
func StartRetention(store Store, days int) *Retention {
	return startRetention(store, days, CleanupInterval)
}

func startRetention(store Store, days int, interval time.Duration) *Retention {
	if days <= 0 || store == nil {
		return nil
	}
	r := &Retention{
		store: store,
		days:  days,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	go func() {
		defer close(r.done)
		RunCleanupLoop(r.stop, interval, r.cleanup)
	}()
	return r
}

func (r *Retention) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := retentionCutoff(r.now(), r.days)
	n, err := r.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		slog.Error("failed to clean up history", "error", err)
		return
	}
	if n > 0 {
		slog.Info("cleaned up old history entries", "deleted", n, "cutoff", cutoff)
	}
}

// retentionCutoff is calendar arithmetic, so large day counts stay in the past
// where a time.Duration would overflow.
func retentionCutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// Stop ends the cleanup loop and waits for it to exit.
func (r *Retention) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}
