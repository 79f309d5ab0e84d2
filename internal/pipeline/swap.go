package pipeline

import "sync/atomic"

// Slot holds the currently active *Pipeline behind an atomic pointer, so
// the RT tick thread can load it with Acquire semantics and never
// observes a partially constructed Pipeline (§4.5 "pipeline swap must be
// wait-free on the RT thread"). Grounded on the teacher's atomic-load
// discipline for shared descriptor state (internal/queue/runner.go
// loadDescriptor).
type Slot struct {
	current atomic.Pointer[Pipeline]
	pending atomic.Pointer[Pipeline]
	// generation increments on every committed swap, surfaced to the
	// health registry's pipeline generation gauge.
	generation atomic.Uint64
}

// NewSlot returns a Slot holding initial as the active pipeline.
func NewSlot(initial *Pipeline) *Slot {
	s := &Slot{}
	s.current.Store(initial)
	return s
}

// Load returns the currently active pipeline. Safe to call concurrently
// with Stage/Commit from any thread.
func (s *Slot) Load() *Pipeline {
	return s.current.Load()
}

// Generation returns the count of pipelines that have been committed
// active, starting at 0 for the pipeline passed to NewSlot.
func (s *Slot) Generation() uint64 {
	return s.generation.Load()
}

// Stage publishes next as the pending pipeline without making it active.
// This is phase one of the two-phase swap: compilation and staging can
// happen arbitrarily far ahead of the tick that actually commits it.
func (s *Slot) Stage(next *Pipeline) {
	s.pending.Store(next)
}

// Commit atomically promotes the staged pipeline to active and returns
// the pipeline it replaced, so the caller (the engine's per-tick swap
// check, §4.5 step 2) can drop the old one after the tick that might
// still be reading it has completed. Returns nil if nothing was staged.
func (s *Slot) Commit() (old *Pipeline) {
	next := s.pending.Swap(nil)
	if next == nil {
		return nil
	}
	old = s.current.Swap(next)
	s.generation.Add(1)
	return old
}

// HasPending reports whether a staged pipeline is waiting to be
// committed, used by the engine to decide whether this tick boundary is
// a valid swap point.
func (s *Slot) HasPending() bool {
	return s.pending.Load() != nil
}
