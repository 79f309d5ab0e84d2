// Package plugin implements the per-plugin invocation watchdog (§4.2
// "plugin mode"): budget stamping for each invocation, quarantine after a
// consecutive-timeout streak, and quarantine expiry/manual release.
// Grounded on the teacher's atomic-counter Observer pattern (metrics.go)
// for lock-free per-invocation bookkeeping.
package plugin

import (
	"sync/atomic"
	"time"

	"github.com/openwheel/ffbcore/internal/constants"
)

// Watchdog tracks one plugin's invocation health. Safe for concurrent
// use: Record is called from the tick thread, IsQuarantined and Release
// may be called from a management goroutine.
type Watchdog struct {
	streak       atomic.Uint32
	quarantined  atomic.Bool
	quarantinedAt atomic.Int64 // unix nanos, 0 when not quarantined
	timeoutStreak uint32
	duration     time.Duration
	onQuarantine func(streak uint32)
}

// Option configures a Watchdog at construction.
type Option func(*Watchdog)

// WithTimeoutStreak overrides the default consecutive-timeout threshold.
func WithTimeoutStreak(n uint32) Option {
	return func(w *Watchdog) { w.timeoutStreak = n }
}

// WithQuarantineDuration overrides the default quarantine duration.
func WithQuarantineDuration(d time.Duration) Option {
	return func(w *Watchdog) { w.duration = d }
}

// WithOnQuarantine registers a callback invoked when quarantine engages,
// with the timeout streak that triggered it.
func WithOnQuarantine(cb func(streak uint32)) Option {
	return func(w *Watchdog) { w.onQuarantine = cb }
}

// New returns a Watchdog using spec defaults unless overridden by opts.
func New(opts ...Option) *Watchdog {
	w := &Watchdog{
		timeoutStreak: constants.DefaultPluginTimeoutStreak,
		duration:      constants.DefaultQuarantineDuration,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record stamps the outcome of one plugin invocation. withinBudget must
// reflect whether the invocation completed inside its allotted per-tick
// budget (§4.2); exceeding it counts as a timeout even if the plugin
// eventually returned a value.
func (w *Watchdog) Record(withinBudget bool, now time.Time) {
	if withinBudget {
		w.streak.Store(0)
		return
	}
	n := w.streak.Add(1)
	if n >= w.timeoutStreak && w.quarantined.CompareAndSwap(false, true) {
		w.quarantinedAt.Store(now.UnixNano())
		if w.onQuarantine != nil {
			w.onQuarantine(n)
		}
	}
}

// IsQuarantined reports whether the plugin is currently quarantined,
// automatically clearing quarantine once the quarantine duration
// (DefaultQuarantineDuration unless overridden) has elapsed since it engaged (§4.2 "quarantine expires automatically").
func (w *Watchdog) IsQuarantined(now time.Time) bool {
	if !w.quarantined.Load() {
		return false
	}
	since := time.Unix(0, w.quarantinedAt.Load())
	if now.Sub(since) >= w.duration {
		w.Release()
		return false
	}
	return true
}

// Release manually clears quarantine, used by an operator override or by
// automatic expiry.
func (w *Watchdog) Release() {
	w.quarantined.Store(false)
	w.quarantinedAt.Store(0)
	w.streak.Store(0)
}

// Streak returns the current consecutive-timeout count, for diagnostics.
func (w *Watchdog) Streak() uint32 { return w.streak.Load() }
