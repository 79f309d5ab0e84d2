// Package filter implements the force-feedback filter pipeline nodes
// (§4.2): stateless per-sample transforms plus the stateful nodes (slew,
// notch, damper/inertia integrators) that carry their state in a
// caller-owned State struct rather than a closure, so the RT pipeline can
// keep every node's memory in one contiguous arena (grounded on the
// teacher's size-bucketed sync.Pool arena in internal/queue/pool.go).
package filter

// State holds the mutable memory a stateful node needs between ticks. Not
// every node uses every field; each node's doc comment says which it
// reads. Kept as a flat struct instead of per-node interfaces so a
// pipeline can allocate one []State slice up front and never touch the
// heap again during Process.
type State struct {
	Prev      float32 // last output, for slew-rate limiting
	Prev2     float32 // second-to-last output, for the notch biquad
	PrevIn    float32
	PrevIn2   float32
	Velocity  float32 // for inertia integration
	HandsOffAccum float32
	HandsOffTicks uint32
}

// Node is the per-sample transform contract every filter implements.
// Process must be pure with respect to anything other than st: same
// (in, st, dt) must produce the same (out, st'). Implementations must not
// allocate.
type Node interface {
	// Process transforms the input torque/position sample in using and
	// updating st, with dt the tick period in seconds.
	Process(in float32, st *State, dt float32) float32

	// Name identifies the node kind for blackbox annotation and
	// diagnostics; it is not used for dispatch.
	Name() string
}

// Func adapts a plain function to the Node interface for stateless nodes,
// mirroring the teacher's preference for small interfaces over deep
// inheritance hierarchies.
type Func struct {
	FuncName string
	Fn       func(in float32, st *State, dt float32) float32
}

func (f Func) Process(in float32, st *State, dt float32) float32 { return f.Fn(in, st, dt) }
func (f Func) Name() string                                      { return f.FuncName }
