package filter

import "math"

// CurvePoint is one (input, output) sample of a monotonic lookup table,
// used by Curve for user-authored response shaping (§4.2 "custom
// curves").
type CurvePoint struct {
	X, Y float32
}

// Curve returns a node applying piecewise-linear interpolation over a
// caller-supplied monotonic set of points. points must be sorted
// ascending by X and contain at least two points; the caller (the
// pipeline compiler) is responsible for validating monotonicity before
// construction, matching the teacher's fail-fast-at-build-time style.
func Curve(points []CurvePoint) Node {
	pts := append([]CurvePoint(nil), points...) // defensive copy, build time only
	return Func{FuncName: "curve", Fn: func(in float32, st *State, dt float32) float32 {
		return interpolate(pts, in)
	}}
}

func interpolate(pts []CurvePoint, x float32) float32 {
	if len(pts) == 0 {
		return x
	}
	if x <= pts[0].X {
		return pts[0].Y
	}
	last := pts[len(pts)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 1; i < len(pts); i++ {
		if x <= pts[i].X {
			x0, y0 := pts[i-1].X, pts[i-1].Y
			x1, y1 := pts[i].X, pts[i].Y
			if x1 == x0 {
				return y0
			}
			t := (x - x0) / (x1 - x0)
			return y0 + t*(y1-y0)
		}
	}
	return last.Y
}

// ResponseShape selects the analytic response-curve family (§4.2).
type ResponseShape int

const (
	ResponseLinear ResponseShape = iota
	ResponseExponential
	ResponseLogarithmic
)

// Response returns a node applying an analytic response curve to scale
// input magnitude while preserving sign, with strength in [0,1]
// controlling how aggressively the curve departs from linear.
func Response(shape ResponseShape, strength float32) Node {
	return Func{FuncName: "response_curve", Fn: func(in float32, st *State, dt float32) float32 {
		sign := float32(1)
		if in < 0 {
			sign = -1
			in = -in
		}
		var out float32
		switch shape {
		case ResponseExponential:
			out = float32(math.Pow(float64(in), float64(1+2*strength)))
		case ResponseLogarithmic:
			out = float32(math.Log1p(float64(in)*float64(strength)*10) / math.Log1p(float64(strength)*10))
		default:
			out = in
		}
		return sign * out
	}}
}

// Bezier returns a node applying a cubic Bezier response curve defined by
// two interior control points (p1, p2), with endpoints fixed at (0,0) and
// (1,1) after normalization, matching common sim-racing UI curve editors.
func Bezier(p1x, p1y, p2x, p2y float32) Node {
	return Func{FuncName: "bezier", Fn: func(in float32, st *State, dt float32) float32 {
		sign := float32(1)
		if in < 0 {
			sign = -1
			in = -in
		}
		if in > 1 {
			in = 1
		}
		t := in
		// A handful of Newton iterations on the cubic Bezier x(t) to
		// find t for the given x, then evaluate y(t).
		for i := 0; i < 4; i++ {
			x := bezierComponent(t, 0, p1x, p2x, 1)
			dx := bezierDerivative(t, 0, p1x, p2x, 1)
			if dx == 0 {
				break
			}
			t -= (x - in) / dx
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
		}
		y := bezierComponent(t, 0, p1y, p2y, 1)
		return sign * y
	}}
}

func bezierComponent(t, p0, p1, p2, p3 float32) float32 {
	u := 1 - t
	return u*u*u*p0 + 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t*p3
}

func bezierDerivative(t, p0, p1, p2, p3 float32) float32 {
	u := 1 - t
	return 3*u*u*(p1-p0) + 6*u*t*(p2-p1) + 3*t*t*(p3-p2)
}
