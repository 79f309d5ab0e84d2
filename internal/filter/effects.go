package filter

import (
	"math"

	"github.com/openwheel/ffbcore/internal/constants"
)

// Friction returns a node that opposes wheel velocity with a constant
// magnitude coefficient, clamped to avoid a sign flip at near-zero
// velocity (§4.2 "friction must not oscillate at the velocity zero
// crossing").
func Friction(coefficient float32, velocityDeadband float32) Node {
	return Func{FuncName: "friction", Fn: func(in float32, st *State, dt float32) float32 {
		v := st.Velocity
		if v > velocityDeadband {
			return in - coefficient
		}
		if v < -velocityDeadband {
			return in + coefficient
		}
		// Inside the deadband, scale linearly to zero instead of
		// snapping, so torque stays continuous.
		return in - coefficient*(v/velocityDeadband)
	}}
}

// Damper returns a node applying torque proportional to wheel velocity.
func Damper(coefficient float32) Node {
	return Func{FuncName: "damper", Fn: func(in float32, st *State, dt float32) float32 {
		return in - coefficient*st.Velocity
	}}
}

// Inertia returns a node simulating a virtual rotational mass: it
// integrates the commanded torque into a velocity delta and resists
// changes in that velocity.
func Inertia(mass float32) Node {
	return Func{FuncName: "inertia", Fn: func(in float32, st *State, dt float32) float32 {
		if mass <= 0 {
			return in
		}
		accel := in / mass
		st.Velocity += accel * dt
		return in - mass*accel*0.5
	}}
}

// Bumpstop returns a node that ramps in a strong restoring torque as the
// wheel angle (normalized to [-1,1] of the mechanical range) approaches
// the physical end stop, per the manufacturer soft-stop curve used by
// sim racing wheels.
func Bumpstop(engageAt float32, maxTorque float32) Node {
	return Func{FuncName: "bumpstop", Fn: func(in float32, st *State, dt float32) float32 {
		pos := st.PrevIn // caller feeds normalized angle as PrevIn via a position tap
		mag := float32(0)
		switch {
		case pos > engageAt:
			mag = -maxTorque * (pos - engageAt) / (1 - engageAt)
		case pos < -engageAt:
			mag = maxTorque * (-pos - engageAt) / (1 - engageAt)
		}
		return in + mag
	}}
}

// TorqueCap returns a node that hard-clamps output magnitude to maxTorque,
// the mandatory last stage of every mode's chain (§4.2). No profile can
// raise the effective limit past constants.KidModeAbsoluteTorqueCeiling:
// that ceiling is clamped in here, not layered on top, so it applies
// however large a maxTorque a pipeline config requests.
func TorqueCap(maxTorque float32) Node {
	limit := maxTorque
	if limit > constants.KidModeAbsoluteTorqueCeiling {
		limit = constants.KidModeAbsoluteTorqueCeiling
	}
	return Func{FuncName: "torque_cap", Fn: func(in float32, st *State, dt float32) float32 {
		if in > limit {
			return limit
		}
		if in < -limit {
			return -limit
		}
		return in
	}}
}

// SlewRate returns a node limiting the per-tick change in output to
// maxDelta, preventing torque step discontinuities at pipeline swap
// boundaries and mode transitions (§4.5).
func SlewRate(maxDeltaPerSecond float32) Node {
	return Func{FuncName: "slew_rate", Fn: func(in float32, st *State, dt float32) float32 {
		maxDelta := maxDeltaPerSecond * dt
		delta := in - st.Prev
		if delta > maxDelta {
			delta = maxDelta
		} else if delta < -maxDelta {
			delta = -maxDelta
		}
		out := st.Prev + delta
		st.Prev = out
		return out
	}}
}

// Notch returns a second-order IIR notch filter tuned to centerHz with
// quality factor q, used to suppress mechanical resonance peaks reported
// by the vendor's caps report (§4.2 "notch filter for resonance
// rejection"). Coefficients follow the standard RBJ biquad cookbook
// notch formula.
func Notch(centerHz, q, sampleRateHz float32) Node {
	omega := 2 * math.Pi * float64(centerHz) / float64(sampleRateHz)
	alpha := float32(math.Sin(omega)) / (2 * q)
	cosw := float32(math.Cos(omega))

	b0, b1, b2 := float32(1), -2*cosw, float32(1)
	a0, a1, a2 := 1+alpha, -2*cosw, 1-alpha

	b0 /= a0
	b1 /= a0
	b2 /= a0
	a1 /= a0
	a2 /= a0

	return Func{FuncName: "notch", Fn: func(in float32, st *State, dt float32) float32 {
		out := b0*in + b1*st.PrevIn + b2*st.PrevIn2 - a1*st.Prev - a2*st.Prev2
		st.PrevIn2 = st.PrevIn
		st.PrevIn = in
		st.Prev2 = st.Prev
		st.Prev = out
		return out
	}}
}

// HandsOffDetector returns a node that does not alter torque but tracks
// rolling low-variance input as a hands-off signal, surfaced to the
// safety FSM via st.HandsOffTicks. varianceThreshold comes from §4.4's
// hands-off timeout policy.
func HandsOffDetector(varianceThreshold float32) Node {
	return Func{FuncName: "hands_off_detector", Fn: func(in float32, st *State, dt float32) float32 {
		delta := in - st.HandsOffAccum
		if delta < 0 {
			delta = -delta
		}
		if delta < varianceThreshold {
			st.HandsOffTicks++
		} else {
			st.HandsOffTicks = 0
		}
		st.HandsOffAccum = in
		return in
	}}
}
