// Package janitor runs periodic cleanup over the server's process-local
// state: expired session cache entries and idle rate limiter buckets.
package janitor

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper drops whatever it holds that is stale at now and reports how many
// entries it removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc func(now time.Time) int

// Sweep calls f.
func (f SweeperFunc) Sweep(now time.Time) int { return f(now) }

// Janitor sweeps its registered sweepers on a fixed interval.
type Janitor struct {
	interval time.Duration
	sweepers map[string]Sweeper
	now      func() time.Time
}

// New creates a Janitor. Sweepers are keyed by the name used in logs.
func New(interval time.Duration, sweepers map[string]Sweeper) *Janitor {
	return &Janitor{
		interval: interval,
		sweepers: sweepers,
		now:      time.Now,
	}
}

// Start begins the sweep loop. It blocks until ctx is cancelled. A
// non-positive interval disables the loop.
func (j *Janitor) Start(ctx context.Context) {
	if j.interval <= 0 {
		slog.Warn("janitor disabled: interval must be positive", "interval", j.interval.String())
		return
	}
	slog.Info("janitor started", "interval", j.interval.String(), "sweepers", len(j.sweepers))
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("janitor stopped")
			return
		case <-ticker.C:
			j.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs every sweeper once.
func (j *Janitor) SweepOnce(ctx context.Context) {
	now := j.now()
	for name, s := range j.sweepers {
		if ctx.Err() != nil {
			return
		}
		if n := s.Sweep(now); n > 0 {
			slog.Debug("janitor: swept entries", "sweeper", name, "removed", n)
		}
	}
}
