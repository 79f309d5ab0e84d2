// Package rtsched implements the 1 kHz absolute-timer tick scheduler:
// OS-thread pinning and CPU affinity (§4.1), a PLL that steers the
// nominal period toward the measured completion cadence, a busy-spin tail
// for sub-microsecond wakeup accuracy, and the adaptive period widening
// used when jitter or processing time creeps up. Grounded on the
// teacher's ioLoop (internal/queue/runner.go): same thread-pinning and
// CPU-affinity setup, generalized from a kernel completion loop to a
// fixed-period timer loop.
package rtsched

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/openwheel/ffbcore/internal/constants"
)

// TickFunc is invoked once per scheduler tick. It receives the measured
// tick period (post drift-correction) and must return quickly: processing
// over the adaptive "relax" threshold (ProcRelaxThreshold) pushes the
// scheduler to widen the period on the next adjustment window.
type TickFunc func(tick uint64, period time.Duration) (shouldContinue bool)

// Config configures a Scheduler.
type Config struct {
	// CPUAffinity pins the tick thread to one CPU when non-empty (first
	// element is used; multi-queue round robin is not meaningful for a
	// single RT loop).
	CPUAffinity []int
	// SpinTail is how far ahead of the deadline the scheduler switches
	// from sleeping to busy-spinning.
	SpinTail time.Duration
	// Adaptive enables the period-widening policy of §4.1; when false the
	// scheduler holds NominalTickPeriod exactly (aside from PLL trim).
	Adaptive bool
}

// DefaultConfig returns the spec's default scheduler tuning.
func DefaultConfig() Config {
	return Config{SpinTail: constants.DefaultSpinTail, Adaptive: true}
}

// Scheduler drives a fixed-cadence RT loop on a pinned OS thread.
type Scheduler struct {
	cfg    Config
	jitter *JitterWindow
	pll    pll
	period time.Duration
}

// New creates a Scheduler with the given configuration.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		jitter: NewJitterWindow(constants.JitterWindowSize),
		period: constants.NominalTickPeriod,
	}
}

// Period returns the scheduler's current (possibly adapted) tick period.
func (s *Scheduler) Period() time.Duration { return s.period }

// JitterPercentiles returns the p50/p99 jitter observed over the sliding
// window, for metrics export (§4.1 "expose p50/p99 jitter").
func (s *Scheduler) JitterPercentiles() (p50, p99 time.Duration) {
	return s.jitter.Percentile(0.5), s.jitter.Percentile(0.99)
}

// Run pins the calling goroutine's OS thread and drives fn at the
// scheduler's cadence until fn returns false. Run never returns except
// via that signal; callers invoke it from a dedicated goroutine.
func (s *Scheduler) Run(fn TickFunc) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if len(s.cfg.CPUAffinity) > 0 {
		var mask unix.CPUSet
		mask.Set(s.cfg.CPUAffinity[0])
		_ = unix.SchedSetaffinity(0, &mask) // best effort; not fatal without it
	}

	deadline := now()
	var tick uint64
	for {
		deadline = deadline.Add(s.period)
		actual := s.sleepUntil(deadline)

		jitter := actual.Sub(deadline)
		s.jitter.Add(jitter)
		processingStart := now()

		if !fn(tick, s.period) {
			return
		}
		tick++

		processing := now().Sub(processingStart)
		if s.cfg.Adaptive {
			s.period = adapt(s.period, jitter, processing)
		}
		s.period = s.pll.trim(s.period, jitter)
	}
}

// sleepUntil blocks until deadline using the platform absolute sleep for
// as long as possible, then busy-spins through the configured tail for
// sub-tick wakeup precision, and returns the actual wake time.
func (s *Scheduler) sleepUntil(deadline time.Time) time.Time {
	for {
		remaining := deadline.Sub(now())
		if remaining <= s.cfg.SpinTail {
			break
		}
		platformSleep(remaining - s.cfg.SpinTail)
	}
	for now().Before(deadline) {
		// busy spin
	}
	return now()
}

func now() time.Time { return time.Now() }

// adapt widens or tightens period based on observed jitter/processing
// time, bounded to [MinAdaptivePeriod, MaxAdaptivePeriod] (§4.1).
func adapt(period time.Duration, jitter time.Duration, processing time.Duration) time.Duration {
	absJitter := jitter
	if absJitter < 0 {
		absJitter = -absJitter
	}
	switch {
	case absJitter > constants.JitterRelaxThreshold || processing > constants.ProcRelaxThreshold:
		period += constants.AdaptiveRelaxStep
	case absJitter < constants.JitterTightThreshold && processing < constants.ProcTightThreshold:
		period -= constants.AdaptiveTightenStep
	}
	if period < constants.MinAdaptivePeriod {
		period = constants.MinAdaptivePeriod
	}
	if period > constants.MaxAdaptivePeriod {
		period = constants.MaxAdaptivePeriod
	}
	return period
}

// pll is a simple proportional-integral controller nudging the tick
// period to cancel out a persistent jitter bias (e.g. a USB frame cadence
// slightly off 1kHz), clamped by PeriodDriftClamp so it can never run
// away.
type pll struct {
	integral time.Duration
}

func (p *pll) trim(period time.Duration, jitter time.Duration) time.Duration {
	p.integral += time.Duration(float64(jitter) * constants.PLLIntegralGain)
	if p.integral > constants.PeriodDriftClamp {
		p.integral = constants.PeriodDriftClamp
	} else if p.integral < -constants.PeriodDriftClamp {
		p.integral = -constants.PeriodDriftClamp
	}
	correction := time.Duration(float64(jitter)*constants.PLLProportionalGain) + p.integral
	if correction > constants.PeriodDriftClamp {
		correction = constants.PeriodDriftClamp
	} else if correction < -constants.PeriodDriftClamp {
		correction = -constants.PeriodDriftClamp
	}
	period += correction
	if period > constants.NominalTickPeriod+constants.PeriodDriftClamp {
		period = constants.NominalTickPeriod + constants.PeriodDriftClamp
	} else if period < constants.NominalTickPeriod-constants.PeriodDriftClamp {
		period = constants.NominalTickPeriod - constants.PeriodDriftClamp
	}
	return period
}
