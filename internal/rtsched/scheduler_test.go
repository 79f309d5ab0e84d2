package rtsched

import (
	"testing"
	"time"
)

func TestJitterWindowPercentiles(t *testing.T) {
	w := NewJitterWindow(8)
	for i := 1; i <= 8; i++ {
		w.Add(time.Duration(i) * time.Microsecond)
	}
	if p50 := w.Percentile(0.5); p50 < 3*time.Microsecond || p50 > 6*time.Microsecond {
		t.Errorf("p50 = %v, want roughly the median of 1..8us", p50)
	}
	if p99 := w.Percentile(0.99); p99 != 8*time.Microsecond {
		t.Errorf("p99 = %v, want 8us (the max)", p99)
	}
}

func TestJitterWindowWrapsAround(t *testing.T) {
	w := NewJitterWindow(4)
	for i := 1; i <= 10; i++ {
		w.Add(time.Duration(i) * time.Microsecond)
	}
	// After wrapping, only the last 4 samples (7,8,9,10us) should remain.
	if p99 := w.Percentile(0.99); p99 != 10*time.Microsecond {
		t.Errorf("p99 after wrap = %v, want 10us", p99)
	}
}

func TestAdaptWidensOnHighJitter(t *testing.T) {
	base := 1000 * time.Microsecond
	widened := adapt(base, 500*time.Microsecond, 0)
	if widened <= base {
		t.Errorf("adapt() with high jitter = %v, want wider than %v", widened, base)
	}
}

func TestAdaptTightensOnLowJitter(t *testing.T) {
	base := 1000 * time.Microsecond
	tightened := adapt(base, 1*time.Microsecond, 1*time.Microsecond)
	if tightened >= base {
		t.Errorf("adapt() with low jitter = %v, want tighter than %v", tightened, base)
	}
}

func TestAdaptRespectsBounds(t *testing.T) {
	period := 900 * time.Microsecond
	for i := 0; i < 100; i++ {
		period = adapt(period, 1*time.Millisecond, 1*time.Millisecond)
	}
	if period > 1100*time.Microsecond {
		t.Errorf("adapt() exceeded MaxAdaptivePeriod: %v", period)
	}
}

func TestPLLClampsDrift(t *testing.T) {
	var p pll
	period := time.Millisecond
	for i := 0; i < 1000; i++ {
		period = p.trim(period, 10*time.Millisecond) // pathological jitter input
	}
	if p.integral > 200*time.Microsecond || p.integral < -200*time.Microsecond {
		t.Errorf("pll integral = %v, want clamped near PeriodDriftClamp", p.integral)
	}
}
