package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/openwheel/ffbcore/internal/filter"
)

func validConfig() FilterConfig {
	return FilterConfig{
		Mode: "default",
		Nodes: []NodeConfig{
			{Kind: "damper", Params: map[string]float64{"coefficient": 0.1}},
			{Kind: "torque_cap", Params: map[string]float64{"max_torque": 1.0}},
		},
	}
}

func TestCompileValidConfig(t *testing.T) {
	p, err := Compile(validConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.NodeCount() != 2 {
		t.Errorf("NodeCount() = %d, want 2", p.NodeCount())
	}
	if p.ConfigHash == 0 {
		t.Error("ConfigHash is zero, want a stable non-zero hash")
	}
}

func TestCompileRejectsMissingTorqueCap(t *testing.T) {
	cfg := FilterConfig{Mode: "bad", Nodes: []NodeConfig{{Kind: "damper", Params: map[string]float64{"coefficient": 0.1}}}}
	if _, err := Compile(cfg); err == nil {
		t.Error("Compile() with no torque_cap should fail")
	}
}

func TestCompileRejectsEmptyChain(t *testing.T) {
	if _, err := Compile(FilterConfig{Mode: "empty"}); err == nil {
		t.Error("Compile() with no nodes should fail")
	}
}

func TestCompileRejectsNonMonotonicCurve(t *testing.T) {
	cfg := FilterConfig{
		Mode: "bad_curve",
		Nodes: []NodeConfig{
			{Kind: "curve", Curve: []filter.CurvePoint{{X: 0, Y: 0}, {X: 0.5, Y: 1}, {X: 0.2, Y: 2}}},
			{Kind: "torque_cap", Params: map[string]float64{"max_torque": 1.0}},
		},
	}
	if _, err := Compile(cfg); err == nil {
		t.Error("Compile() with non-monotonic curve should fail")
	}
}

func TestCompileRejectsReconstructionAboveMax(t *testing.T) {
	cfg := FilterConfig{
		Mode: "bad_reconstruction",
		Nodes: []NodeConfig{
			{Kind: "reconstruction", Params: map[string]float64{"level": 9}},
			{Kind: "torque_cap", Params: map[string]float64{"max_torque": 1.0}},
		},
	}
	_, err := Compile(cfg)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile() error = %v, want *CompileError", err)
	}
	if ce.Kind != ErrInvalidParameters {
		t.Errorf("CompileError.Kind = %v, want %v", ce.Kind, ErrInvalidParameters)
	}
}

func TestCompileRejectsNonFiniteParameter(t *testing.T) {
	cfg := FilterConfig{
		Mode: "bad_nan",
		Nodes: []NodeConfig{
			{Kind: "damper", Params: map[string]float64{"coefficient": math.NaN()}},
			{Kind: "torque_cap", Params: map[string]float64{"max_torque": 1.0}},
		},
	}
	_, err := Compile(cfg)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile() error = %v, want *CompileError", err)
	}
	if ce.Kind != ErrInvalidParameters {
		t.Errorf("CompileError.Kind = %v, want %v", ce.Kind, ErrInvalidParameters)
	}
}

func TestCompileRejectsInfiniteCurvePoint(t *testing.T) {
	cfg := FilterConfig{
		Mode: "bad_inf_curve",
		Nodes: []NodeConfig{
			{Kind: "curve", Curve: []filter.CurvePoint{{X: 0, Y: 0}, {X: 1, Y: float32(math.Inf(1))}}},
			{Kind: "torque_cap", Params: map[string]float64{"max_torque": 1.0}},
		},
	}
	_, err := Compile(cfg)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile() error = %v, want *CompileError", err)
	}
	if ce.Kind != ErrInvalidParameters {
		t.Errorf("CompileError.Kind = %v, want %v", ce.Kind, ErrInvalidParameters)
	}
}

func TestCompileRejectsNonMonotonicCurveKind(t *testing.T) {
	cfg := FilterConfig{
		Mode: "bad_curve",
		Nodes: []NodeConfig{
			{Kind: "curve", Curve: []filter.CurvePoint{{X: 0, Y: 0}, {X: 0.5, Y: 1}, {X: 0.2, Y: 2}}},
			{Kind: "torque_cap", Params: map[string]float64{"max_torque": 1.0}},
		},
	}
	_, err := Compile(cfg)
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Compile() error = %v, want *CompileError", err)
	}
	if ce.Kind != ErrNonMonotonicCurve {
		t.Errorf("CompileError.Kind = %v, want %v", ce.Kind, ErrNonMonotonicCurve)
	}
}

func TestSafeModeIsSingleNodeZeroOutput(t *testing.T) {
	p := SafeMode()
	if p.NodeCount() != 1 {
		t.Fatalf("SafeMode().NodeCount() = %d, want 1", p.NodeCount())
	}
	if got := p.Process(1.0, 0.001); got != 0 {
		t.Errorf("SafeMode().Process(1.0) = %v, want 0", got)
	}
}

func TestSameConfigSameHash(t *testing.T) {
	p1, err := Compile(validConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	p2, err := Compile(validConfig())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p1.ConfigHash != p2.ConfigHash {
		t.Errorf("ConfigHash mismatch for identical configs: %d vs %d", p1.ConfigHash, p2.ConfigHash)
	}
}

func TestSlotTwoPhaseSwap(t *testing.T) {
	p1, _ := Compile(validConfig())
	slot := NewSlot(p1)
	if slot.Generation() != 0 {
		t.Fatalf("Generation() = %d, want 0", slot.Generation())
	}

	p2, _ := Compile(validConfig())
	slot.Stage(p2)
	if slot.Load() != p1 {
		t.Error("Load() returned pending pipeline before Commit")
	}
	if !slot.HasPending() {
		t.Error("HasPending() = false after Stage")
	}

	old := slot.Commit()
	if old != p1 {
		t.Error("Commit() did not return the previously active pipeline")
	}
	if slot.Load() != p2 {
		t.Error("Load() did not return the committed pipeline")
	}
	if slot.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", slot.Generation())
	}
	if slot.HasPending() {
		t.Error("HasPending() = true after Commit")
	}
}

func TestSlotCommitNoopWithoutStage(t *testing.T) {
	p1, _ := Compile(validConfig())
	slot := NewSlot(p1)
	if old := slot.Commit(); old != nil {
		t.Errorf("Commit() without Stage returned %v, want nil", old)
	}
}
