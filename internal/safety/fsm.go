// Package safety implements the force-feedback safety state machine and
// FMEA fault detectors (§4.4): the SafeTorque/HighTorqueChallenge/
// HighTorqueActive/Faulted/Recovering state machine, soft-stop ramping,
// and the high-torque interlock challenge/token protocol. Grounded on the
// teacher's structured error taxonomy (errors.go) for fault codes and its
// per-tag state machine (internal/queue/runner.go TagState) for the FSM
// shape.
package safety

import "fmt"

// State is the safety state machine's current mode. The zero value is
// SafeTorque, the state every device starts and ends up back in after a
// successful Recovering transition.
type State int

const (
	SafeTorque State = iota
	HighTorqueChallenge
	HighTorqueActive
	Faulted
	Recovering
)

func (s State) String() string {
	switch s {
	case SafeTorque:
		return "safe_torque"
	case HighTorqueChallenge:
		return "high_torque_challenge"
	case HighTorqueActive:
		return "high_torque_active"
	case Faulted:
		return "faulted"
	case Recovering:
		return "recovering"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event is an input driving a state transition.
type Event int

const (
	EventChallengeRequested Event = iota
	EventChallengeAccepted
	EventChallengeExpired
	EventChallengeRejected
	EventFaultDetected
	EventSoftStopComplete
	EventRecoveryConfirmed
	EventHighTorqueReleased
)

// FSM is the safety state machine for one device. Not safe for concurrent
// use; the engine owns one FSM per device and drives it from the single
// RT tick thread.
type FSM struct {
	state       State
	fault       *Fault
	onTransition func(from, to State, ev Event)
}

// NewFSM returns an FSM starting in SafeTorque.
func NewFSM() *FSM {
	return &FSM{state: SafeTorque}
}

// State returns the current state.
func (f *FSM) State() State { return f.state }

// Fault returns the active fault. It stays set through Faulted and
// Recovering and is nil before any fault and after recovery is confirmed.
func (f *FSM) Fault() *Fault { return f.fault }

// OnTransition registers a callback invoked after every state change, for
// blackbox annotation and logging.
func (f *FSM) OnTransition(cb func(from, to State, ev Event)) { f.onTransition = cb }

// Apply drives the transition table for event ev, returning an error if
// ev is not valid from the current state. A fault event is always valid
// from any non-Faulted state and transitions unconditionally to Faulted
// (§4.4 "a fault always wins").
func (f *FSM) Apply(ev Event, fault *Fault) error {
	from := f.state

	if ev == EventFaultDetected {
		f.fault = fault
		return f.transition(from, Faulted, ev)
	}

	switch from {
	case SafeTorque:
		if ev == EventChallengeRequested {
			return f.transition(from, HighTorqueChallenge, ev)
		}
	case HighTorqueChallenge:
		switch ev {
		case EventChallengeAccepted:
			return f.transition(from, HighTorqueActive, ev)
		case EventChallengeExpired, EventChallengeRejected:
			return f.transition(from, SafeTorque, ev)
		}
	case HighTorqueActive:
		if ev == EventHighTorqueReleased {
			return f.transition(from, SafeTorque, ev)
		}
	case Faulted:
		if ev == EventSoftStopComplete {
			return f.transition(from, Recovering, ev)
		}
	case Recovering:
		if ev == EventRecoveryConfirmed {
			f.fault = nil
			return f.transition(from, SafeTorque, ev)
		}
		if ev == EventFaultDetected {
			// handled above
		}
	}
	return fmt.Errorf("safety: event %v invalid in state %v", ev, from)
}

func (f *FSM) transition(from, to State, ev Event) error {
	f.state = to
	if f.onTransition != nil {
		f.onTransition(from, to, ev)
	}
	return nil
}

// TorquePermitted reports whether the FSM's current state allows any
// non-zero torque output at all. Faulted and Recovering permit only the
// soft-stop ramp, driven separately (softstop.go), never pipeline output.
func (f *FSM) TorquePermitted() bool {
	return f.state == SafeTorque || f.state == HighTorqueActive
}

// HighTorqueAllowed reports whether the current state permits torque
// above the SafeTorque ceiling.
func (f *FSM) HighTorqueAllowed() bool {
	return f.state == HighTorqueActive
}
