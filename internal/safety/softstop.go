package safety

import (
	"time"

	"github.com/openwheel/ffbcore/internal/constants"
)

// SoftStop ramps torque output linearly to zero over at most
// SoftStopMaxDuration once a fault interrupts normal pipeline output
// (§4.4). It holds no reference to the pipeline itself: the engine feeds
// it the last commanded torque and reads back the ramped value each tick.
type SoftStop struct {
	startTorque float32
	elapsed     time.Duration
	duration    time.Duration
	done        bool
}

// Start begins a ramp from fromTorque to zero over constants.SoftStopMaxDuration.
func (s *SoftStop) Start(fromTorque float32) {
	s.start(fromTorque, constants.SoftStopMaxDuration)
}

// StartForce begins the "SoftStop (force)" variant: torque goes to zero
// on the very next Step rather than ramping, for fault kinds whose table
// entry demands a sub-10ms detect-to-action budget (Overcurrent,
// PipelineFault) that the normal 50ms linear ramp can't meet.
func (s *SoftStop) StartForce(fromTorque float32) {
	s.start(fromTorque, 0)
}

func (s *SoftStop) start(fromTorque float32, duration time.Duration) {
	s.startTorque = fromTorque
	s.elapsed = 0
	s.duration = duration
	s.done = false
}

// Step advances the ramp by dt and returns the torque to command this
// tick. Once the ramp completes, Step returns 0 on every subsequent call
// and Done reports true.
func (s *SoftStop) Step(dt time.Duration) float32 {
	if s.done {
		return 0
	}
	s.elapsed += dt
	if s.elapsed >= s.duration {
		s.done = true
		return 0
	}
	remaining := float32(s.duration-s.elapsed) / float32(s.duration)
	return s.startTorque * remaining
}

// Done reports whether the ramp has reached zero.
func (s *SoftStop) Done() bool { return s.done }
