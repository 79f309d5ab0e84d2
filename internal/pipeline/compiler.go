package pipeline

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/openwheel/ffbcore/internal/constants"
	"github.com/openwheel/ffbcore/internal/filter"
)

// ErrKind names one of the three validation failure categories a profile
// author needs to distinguish: a structurally invalid chain, an
// out-of-range or non-finite node parameter, or a curve that isn't
// strictly monotonic.
type ErrKind string

const (
	ErrInvalidConfig     ErrKind = "InvalidConfig"
	ErrInvalidParameters ErrKind = "InvalidParameters"
	ErrNonMonotonicCurve ErrKind = "NonMonotonicCurve"
)

// CompileError reports a Compile/build validation failure tagged with its
// ErrKind, so callers can branch on Kind instead of matching message
// text. Node is -1 when the failure isn't attributable to one node.
type CompileError struct {
	Kind ErrKind
	Mode string
	Node int
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Node >= 0 {
		return fmt.Sprintf("pipeline: mode %q node %d: %s: %s", e.Mode, e.Node, e.Kind, e.Msg)
	}
	return fmt.Sprintf("pipeline: mode %q: %s: %s", e.Mode, e.Kind, e.Msg)
}

// NodeConfig describes one filter stage in a user-authored pipeline
// configuration, decoded from JSON (the engine's on-disk profile format).
type NodeConfig struct {
	Kind   string             `json:"kind"`
	Params map[string]float64 `json:"params,omitempty"`
	Curve  []filter.CurvePoint `json:"curve,omitempty"`
}

// FilterConfig is the full user-authored chain for one FFB mode.
type FilterConfig struct {
	Mode  string       `json:"mode"`
	Nodes []NodeConfig `json:"nodes"`
}

// Compile validates cfg and builds a ready-to-run Pipeline. Compilation
// happens off the RT thread; the only RT-thread-visible artifact is the
// resulting *Pipeline, installed via a two-phase Swap (swap.go).
func Compile(cfg FilterConfig) (*Pipeline, error) {
	if len(cfg.Nodes) == 0 {
		return nil, &CompileError{Kind: ErrInvalidConfig, Mode: cfg.Mode, Node: -1, Msg: "has no filter nodes"}
	}

	nodes := make([]filter.Node, 0, len(cfg.Nodes)+1)
	for i, nc := range cfg.Nodes {
		if err := validateFinite(nc.Params); err != nil {
			return nil, &CompileError{Kind: ErrInvalidParameters, Mode: cfg.Mode, Node: i, Msg: err.Error()}
		}
		n, err := build(nc)
		if err != nil {
			if ce, ok := err.(*CompileError); ok {
				ce.Mode = cfg.Mode
				ce.Node = i
				return nil, ce
			}
			return nil, &CompileError{Kind: ErrInvalidParameters, Mode: cfg.Mode, Node: i, Msg: err.Error()}
		}
		nodes = append(nodes, n)
	}

	if nodes[len(nodes)-1].Name() != "torque_cap" {
		return nil, &CompileError{Kind: ErrInvalidConfig, Mode: cfg.Mode, Node: -1, Msg: "must end with a torque_cap node"}
	}

	hash, err := configHash(cfg)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		nodes:      nodes,
		state:      make([]filter.State, len(nodes)),
		ConfigHash: hash,
		Mode:       cfg.Mode,
	}, nil
}

// SafeMode returns the minimal single-node pipeline the engine swaps to
// when a PipelineFault fires (§4.2 "safe-mode single-node pipeline"):
// identity input through a zero-output torque cap, so the device goes
// silent without a discontinuous step and without running whatever
// produced the fault again.
func SafeMode() *Pipeline {
	nodes := []filter.Node{filter.TorqueCap(0)}
	return &Pipeline{
		nodes:      nodes,
		state:      make([]filter.State, len(nodes)),
		ConfigHash: 0,
		Mode:       "safe_mode",
	}
}

func build(nc NodeConfig) (filter.Node, error) {
	p := nc.Params
	switch nc.Kind {
	case "friction":
		return filter.Friction(float32(p["coefficient"]), float32(orDefault(p, "deadband", 0.02))), nil
	case "damper":
		return filter.Damper(float32(p["coefficient"])), nil
	case "inertia":
		return filter.Inertia(float32(p["mass"])), nil
	case "bumpstop":
		return filter.Bumpstop(float32(orDefault(p, "engage_at", 0.9)), float32(p["max_torque"])), nil
	case "torque_cap":
		return filter.TorqueCap(float32(p["max_torque"])), nil
	case "slew_rate":
		return filter.SlewRate(float32(p["max_delta_per_second"])), nil
	case "notch":
		return filter.Notch(float32(p["center_hz"]), float32(orDefault(p, "q", 2.0)), float32(1000)), nil
	case "hands_off_detector":
		return filter.HandsOffDetector(float32(orDefault(p, "variance_threshold", 0.001))), nil
	case "curve":
		if len(nc.Curve) < 2 {
			return nil, &CompileError{Kind: ErrInvalidConfig, Msg: "curve node requires at least 2 points"}
		}
		if err := validateCurveFinite(nc.Curve); err != nil {
			return nil, &CompileError{Kind: ErrInvalidParameters, Msg: err.Error()}
		}
		if err := validateMonotonic(nc.Curve); err != nil {
			return nil, &CompileError{Kind: ErrNonMonotonicCurve, Msg: err.Error()}
		}
		if len(nc.Curve) > constants.MaxCurvePoints {
			return nil, &CompileError{Kind: ErrInvalidConfig, Msg: fmt.Sprintf("curve has %d points, max %d", len(nc.Curve), constants.MaxCurvePoints)}
		}
		return filter.Curve(nc.Curve), nil
	case "response_curve":
		shape := filter.ResponseShape(int(orDefault(p, "shape", 0)))
		return filter.Response(shape, float32(orDefault(p, "strength", 0.5))), nil
	case "bezier":
		return filter.Bezier(
			float32(p["p1x"]), float32(p["p1y"]),
			float32(p["p2x"]), float32(p["p2y"]),
		), nil
	case "reconstruction":
		level := int(orDefault(p, "level", 1))
		if level < 1 || level > constants.MaxReconstructionLevel {
			return nil, &CompileError{Kind: ErrInvalidParameters, Msg: fmt.Sprintf("reconstruction level %d outside [1, %d]", level, constants.MaxReconstructionLevel)}
		}
		return filter.Reconstruction(level), nil
	default:
		return nil, &CompileError{Kind: ErrInvalidConfig, Msg: fmt.Sprintf("unknown filter kind %q", nc.Kind)}
	}
}

func orDefault(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func validateMonotonic(pts []filter.CurvePoint) error {
	for i := 1; i < len(pts); i++ {
		if pts[i].X <= pts[i-1].X {
			return fmt.Errorf("curve points must be strictly increasing in X, got %v then %v", pts[i-1], pts[i])
		}
	}
	return nil
}

// validateFinite rejects a node's parameter map if any value is NaN or
// +/-Infinity (§4.2 "validation rejects... NaN/Infinity anywhere").
func validateFinite(params map[string]float64) error {
	for k, v := range params {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter %q is not finite: %v", k, v)
		}
	}
	return nil
}

// validateCurveFinite rejects a curve node if any point coordinate is
// NaN or +/-Infinity.
func validateCurveFinite(pts []filter.CurvePoint) error {
	for i, pt := range pts {
		if math.IsNaN(float64(pt.X)) || math.IsInf(float64(pt.X), 0) ||
			math.IsNaN(float64(pt.Y)) || math.IsInf(float64(pt.Y), 0) {
			return fmt.Errorf("curve point %d is not finite: %v", i, pt)
		}
	}
	return nil
}

// configHash derives the stable xxhash of the JSON-encoded config, so
// equal configs give equal hashes. It is separate from Slot's generation
// counter and is not written into blackbox index entries.
func configHash(cfg FilterConfig) (uint64, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("pipeline: hashing config: %w", err)
	}
	return xxhash.Sum64(b), nil
}
