// Package pipeline compiles a filter chain configuration into a flat,
// allocation-free execution plan and exposes the lock-free two-phase swap
// that lets the RT tick thread pick up a newly compiled pipeline without
// ever blocking (§4.2, §4.5). Grounded on the teacher's atomic-load tag
// state machine (internal/queue/runner.go) and its size-bucketed buffer
// arena (internal/queue/pool.go).
package pipeline

import "github.com/openwheel/ffbcore/internal/filter"

// Pipeline is a compiled, flat list of nodes plus their per-node state,
// ready to run from the RT tick thread with zero allocation.
type Pipeline struct {
	nodes      []filter.Node
	state      []filter.State
	ConfigHash uint64
	Mode       string
}

// Process runs the sample through every node in order, returning the
// final torque command. Must only be called from the single RT tick
// thread that owns this *Pipeline value; Pipeline itself holds no locks.
func (p *Pipeline) Process(in float32, dt float32) float32 {
	out := in
	for i, n := range p.nodes {
		out = n.Process(out, &p.state[i], dt)
	}
	return out
}

// NodeCount returns the number of compiled nodes, for diagnostics and
// blackbox annotation.
func (p *Pipeline) NodeCount() int { return len(p.nodes) }
