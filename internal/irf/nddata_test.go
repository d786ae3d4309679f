package irf

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustAxis(t *testing.T, name, unit string, nodes []float64, interp AxisInterp) *MapAxis {
	t.Helper()
	axis, err := AxisFromNodes(name, unit, nodes, interp)
	if err != nil {
		t.Fatalf("axis %s: %v", name, err)
	}
	return axis
}

func TestNewNDDataArrayValidation(t *testing.T) {
	energy := mustAxis(t, AxisEnergyTrue, "TeV", []float64{1, 10}, InterpLog)
	rad := mustAxis(t, AxisRad, "deg", []float64{0, 1, 2}, InterpLinear)

	if _, err := NewNDDataArray(nil, nil, nil); err == nil {
		t.Error("empty axis list should fail")
	}
	if _, err := NewNDDataArray([]*MapAxis{energy, rad}, make([]float64, 6), []int{2}); err == nil {
		t.Error("rank mismatch should fail")
	}
	if _, err := NewNDDataArray([]*MapAxis{rad, rad}, make([]float64, 9), []int{3, 3}); err == nil {
		t.Error("duplicate axis name should fail")
	}
	// Transposed shape: data laid out (rad, energy) against (energy, rad) axes.
	if _, err := NewNDDataArray([]*MapAxis{energy, rad}, make([]float64, 6), []int{3, 2}); err == nil {
		t.Error("transposed shape should fail")
	}
	if _, err := NewNDDataArray([]*MapAxis{energy, rad}, make([]float64, 5), []int{2, 3}); err == nil {
		t.Error("data length mismatch should fail")
	}
	if _, err := NewNDDataArray([]*MapAxis{energy, rad}, make([]float64, 6), []int{2, 3}); err != nil {
		t.Errorf("valid construction failed: %v", err)
	}
}

func TestNDDataArrayAt(t *testing.T) {
	energy := mustAxis(t, AxisEnergyTrue, "TeV", []float64{1, 10}, InterpLog)
	rad := mustAxis(t, AxisRad, "deg", []float64{0, 1, 2}, InterpLinear)
	nd, err := NewNDDataArray([]*MapAxis{energy, rad}, []float64{0, 1, 2, 10, 11, 12}, []int{2, 3})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}
	if got := nd.At(1, 2); got != 12 {
		t.Errorf("At(1,2) = %v, want 12", got)
	}
	if got := nd.At(0, 1); got != 1 {
		t.Errorf("At(0,1) = %v, want 1", got)
	}
}

func TestEvaluateGridInvalidMethod(t *testing.T) {
	rad := mustAxis(t, AxisRad, "deg", []float64{0, 1}, InterpLinear)
	nd, err := NewNDDataArray([]*MapAxis{rad}, []float64{1, 2}, []int{2})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}
	_, _, err = nd.EvaluateGrid([][]float64{{0.5}}, InterpMethod("cubic"))
	if !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("got %v, want ErrInvalidMethod", err)
	}
}

func TestEvaluateGridLinear(t *testing.T) {
	rad := mustAxis(t, AxisRad, "deg", []float64{0, 1, 2}, InterpLinear)
	nd, err := NewNDDataArray([]*MapAxis{rad}, []float64{0, 10, 40}, []int{3})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}

	vals, shape, err := nd.EvaluateGrid([][]float64{{0, 0.5, 1, 1.25, 2, 5, -1}}, MethodLinear)
	if err != nil {
		t.Fatalf("EvaluateGrid: %v", err)
	}
	if diff := cmp.Diff([]int{7}, shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}
	want := []float64{0, 5, 10, 17.5, 40, 40, 0} // clamped at both ends
	for i := range want {
		if math.Abs(vals[i]-want[i]) > 1e-12 {
			t.Errorf("vals[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestEvaluateGridNearest(t *testing.T) {
	rad := mustAxis(t, AxisRad, "deg", []float64{0, 1, 2}, InterpLinear)
	nd, err := NewNDDataArray([]*MapAxis{rad}, []float64{0, 10, 40}, []int{3})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}

	vals, _, err := nd.EvaluateGrid([][]float64{{0.4, 0.5, 0.6, 1.9}}, MethodNearest)
	if err != nil {
		t.Fatalf("EvaluateGrid: %v", err)
	}
	// Exact midpoints snap to the lower node.
	want := []float64{0, 0, 10, 40}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("vals[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestEvaluateGridLogAxis(t *testing.T) {
	energy := mustAxis(t, AxisEnergyTrue, "TeV", []float64{1, 100}, InterpLog)
	nd, err := NewNDDataArray([]*MapAxis{energy}, []float64{0, 2}, []int{2})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}
	// 10 TeV is the log-space midpoint of [1, 100].
	vals, _, err := nd.EvaluateGrid([][]float64{{10}}, MethodLinear)
	if err != nil {
		t.Fatalf("EvaluateGrid: %v", err)
	}
	if math.Abs(vals[0]-1) > 1e-12 {
		t.Errorf("log-space midpoint = %v, want 1", vals[0])
	}
}

func TestEvaluateGridOuterProduct(t *testing.T) {
	energy := mustAxis(t, AxisEnergyTrue, "TeV", []float64{1, 10}, InterpLog)
	rad := mustAxis(t, AxisRad, "deg", []float64{0, 1, 2}, InterpLinear)
	data := []float64{0, 1, 2, 10, 11, 12}
	nd, err := NewNDDataArray([]*MapAxis{energy, rad}, data, []int{2, 3})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}

	vals, shape, err := nd.EvaluateGrid([][]float64{{1, 10}, {0, 1, 2}}, MethodLinear)
	if err != nil {
		t.Fatalf("EvaluateGrid: %v", err)
	}
	if diff := cmp.Diff([]int{2, 3}, shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(data, vals); diff != "" {
		t.Errorf("node evaluation should reproduce the data (-want +got):\n%s", diff)
	}
}

func TestIntegrateRadNeedsTrailingRadAxis(t *testing.T) {
	energy := mustAxis(t, AxisEnergyTrue, "TeV", []float64{1, 10}, InterpLog)
	nd, err := NewNDDataArray([]*MapAxis{energy}, []float64{1, 2}, []int{2})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}
	if _, _, err := nd.IntegrateRad(nil, []float64{1}); err == nil {
		t.Error("IntegrateRad without a trailing rad axis should fail")
	}
}

func TestIntegrateRadConstantDensity(t *testing.T) {
	// Constant density f: the integral up to r is pi*r^2*f exactly,
	// since the trapezoid rule is exact for the linear integrand
	// 2*pi*r*f.
	nodes := make([]float64, 101)
	for i := range nodes {
		nodes[i] = 2.0 * float64(i) / 100 // deg
	}
	rad := mustAxis(t, AxisRad, "deg", nodes, InterpLinear)
	data := make([]float64, len(nodes))
	for i := range data {
		data[i] = 3
	}
	nd, err := NewNDDataArray([]*MapAxis{rad}, data, []int{len(nodes)})
	if err != nil {
		t.Fatalf("NewNDDataArray: %v", err)
	}

	out, shape, err := nd.IntegrateRad(nil, []float64{1, 2, 99})
	if err != nil {
		t.Fatalf("IntegrateRad: %v", err)
	}
	if diff := cmp.Diff([]int{3}, shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}

	degToRad := math.Pi / 180
	wantAt1 := math.Pi * math.Pow(1*degToRad, 2) * 3
	if math.Abs(out[0]-wantAt1) > 1e-12*wantAt1 {
		t.Errorf("integral to 1 deg = %v, want %v", out[0], wantAt1)
	}
	// Bounds beyond the grid clamp to the full integral.
	if out[2] != out[1] {
		t.Errorf("clamped integral = %v, want %v", out[2], out[1])
	}
}
