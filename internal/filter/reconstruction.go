package filter

import "github.com/openwheel/ffbcore/internal/constants"

// Reconstruction returns a node that upsamples a plugin's low-rate torque
// output to the 1 kHz tick cadence by linear interpolation between the
// last two plugin samples, so a plugin running at e.g. 250 Hz does not
// produce a torque staircase (§4.2 "reconstruction level"). level is the
// number of ticks between expected plugin updates; it must not exceed
// constants.MaxReconstructionLevel, which the pipeline compiler enforces.
//
// The node expects the caller to feed it a fresh plugin sample only every
// `level` ticks (in changes), holding `in` constant between updates; on
// every tick it advances the interpolation fraction and returns the
// blended value.
func Reconstruction(level int) Node {
	if level < 1 {
		level = 1
	}
	if level > constants.MaxReconstructionLevel {
		level = constants.MaxReconstructionLevel
	}
	step := float32(1) / float32(level)

	return Func{FuncName: "reconstruction", Fn: func(in float32, st *State, dt float32) float32 {
		if in != st.PrevIn2 {
			// New plugin sample arrived: the previous interpolation
			// target becomes the new baseline.
			st.PrevIn = st.Prev
			st.PrevIn2 = in
			st.Velocity = 0 // reused as the interpolation fraction accumulator
		}
		st.Velocity += step
		if st.Velocity > 1 {
			st.Velocity = 1
		}
		out := st.PrevIn + st.Velocity*(st.PrevIn2-st.PrevIn)
		st.Prev = out
		return out
	}}
}
