package safety

import (
	"math"
	"time"

	"github.com/openwheel/ffbcore/internal/constants"
)

// EncoderNaNDetector tracks a rolling window of wheel-angle samples and
// trips once EncoderNaNThreshold NaN/Inf readings occur within
// EncoderNaNWindow samples (§4.4).
type EncoderNaNDetector struct {
	window  []bool
	next    int
	filled  bool
	badCount int
}

// NewEncoderNaNDetector returns a detector sized per constants.EncoderNaNWindow.
func NewEncoderNaNDetector() *EncoderNaNDetector {
	return &EncoderNaNDetector{window: make([]bool, constants.EncoderNaNWindow)}
}

// Observe records one sample and reports whether the fault threshold has
// been crossed.
func (d *EncoderNaNDetector) Observe(angle float32) bool {
	bad := math.IsNaN(float64(angle)) || math.IsInf(float64(angle), 0)

	if d.window[d.next] {
		d.badCount--
	}
	d.window[d.next] = bad
	if bad {
		d.badCount++
	}
	d.next = (d.next + 1) % len(d.window)
	if d.next == 0 {
		d.filled = true
	}
	return d.badCount >= constants.EncoderNaNThreshold
}

// ThermalDetector applies hysteresis between ThermalTripC and
// ThermalClearC so a sensor hovering at the trip point does not chatter
// the safety state machine (§4.4).
type ThermalDetector struct {
	tripped bool
}

// Observe reports whether the thermal fault condition is currently
// active, applying the trip/clear hysteresis band.
func (d *ThermalDetector) Observe(tempC float32) bool {
	if d.tripped {
		if tempC < constants.ThermalClearC {
			d.tripped = false
		}
		return d.tripped
	}
	if tempC >= constants.ThermalTripC {
		d.tripped = true
	}
	return d.tripped
}

// USBStallDetector counts consecutive transport write/read failures and
// trips after USBStallFailureCount in a row (§4.4).
type USBStallDetector struct {
	streak int
}

// Observe records a transport I/O outcome and reports whether the
// failure streak has crossed the threshold.
func (d *USBStallDetector) Observe(ok bool) bool {
	if ok {
		d.streak = 0
		return false
	}
	d.streak++
	return d.streak >= constants.USBStallFailureCount
}

// Tripped reports the current streak's fault state without recording a
// new observation, used when the safety check and the I/O that feeds it
// happen in different tick phases.
func (d *USBStallDetector) Tripped() bool {
	return d.streak >= constants.USBStallFailureCount
}

// PluginWatchdogDetector counts consecutive plugin invocation timeouts,
// mirrored by internal/plugin's own quarantine policy; this detector only
// decides whether the *safety* FSM should treat the streak as a fault,
// independent of whether the plugin itself gets quarantined.
type PluginWatchdogDetector struct {
	streak int
	limit  int
}

// NewPluginWatchdogDetector returns a detector tripping after limit
// consecutive timeouts.
func NewPluginWatchdogDetector(limit int) *PluginWatchdogDetector {
	if limit <= 0 {
		limit = constants.DefaultPluginTimeoutStreak
	}
	return &PluginWatchdogDetector{limit: limit}
}

// Observe records whether the most recent plugin invocation completed
// within budget.
func (d *PluginWatchdogDetector) Observe(withinBudget bool) bool {
	if withinBudget {
		d.streak = 0
		return false
	}
	d.streak++
	return d.streak >= d.limit
}

// HandsOffDetector tracks elapsed time since hands-on was last reported
// and trips after DefaultHandsOffTimeout (§4.4). The filter pipeline's
// own hands_off_detector node estimates hands-on from input variance;
// this tracks the timeout independent of that estimate so a
// vendor-reported HandsOn bit works even with no pipeline installed.
type HandsOffDetector struct {
	lastHandsOn time.Time
	timeout     time.Duration
}

// NewHandsOffDetector returns a detector using the default timeout.
func NewHandsOffDetector(now time.Time) *HandsOffDetector {
	return &HandsOffDetector{lastHandsOn: now, timeout: constants.DefaultHandsOffTimeout}
}

// Observe records the latest hands-on state at time now and reports
// whether the timeout has elapsed since hands were last detected on.
func (d *HandsOffDetector) Observe(now time.Time, handsOn bool) bool {
	if handsOn {
		d.lastHandsOn = now
		return false
	}
	return now.Sub(d.lastHandsOn) >= d.timeout
}
