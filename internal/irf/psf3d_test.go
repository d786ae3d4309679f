package irf

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gammaray-data/irf.report/internal/units"
)

// testPSF3D builds a small cube with a Gaussian radial profile whose
// width narrows with energy and broadens with offset.
func testPSF3D(t *testing.T, meta map[string]any) *PSF3D {
	t.Helper()

	energyAxis := mustAxis(t, AxisEnergyTrue, units.UnitTeV, []float64{0.1, 1, 10}, InterpLog)
	offsetAxis := mustAxis(t, AxisOffset, units.UnitDeg, []float64{0, 1, 2, 3}, InterpLinear)

	radNodes := make([]float64, 150)
	for i := range radNodes {
		radNodes[i] = 2.0 * float64(i) / float64(len(radNodes)-1)
	}
	radAxis := mustAxis(t, AxisRad, units.UnitDeg, radNodes, InterpLinear)

	nE, nO, nR := energyAxis.NBin(), offsetAxis.NBin(), radAxis.NBin()
	data := make([]float64, nE*nO*nR)
	for e := 0; e < nE; e++ {
		for o := 0; o < nO; o++ {
			sigma := units.Deg(0.3 - 0.08*float64(e) + 0.05*float64(o)).Rad()
			pdf := Gauss2DPDF{Sigma: sigma}
			for r := 0; r < nR; r++ {
				data[(e*nO+o)*nR+r] = pdf.At(units.Deg(radNodes[r]).Rad())
			}
		}
	}

	psf, err := NewPSF3D(energyAxis, offsetAxis, radAxis, data, []int{nE, nO, nR}, meta)
	if err != nil {
		t.Fatalf("NewPSF3D: %v", err)
	}
	return psf
}

func TestNewPSF3DRejectsTransposed(t *testing.T) {
	energyAxis := mustAxis(t, AxisEnergyTrue, units.UnitTeV, []float64{0.1, 1, 10}, InterpLog)
	offsetAxis := mustAxis(t, AxisOffset, units.UnitDeg, []float64{0, 1}, InterpLinear)
	radAxis := mustAxis(t, AxisRad, units.UnitDeg, []float64{0, 0.5, 1, 1.5}, InterpLinear)

	data := make([]float64, 3*2*4)
	if _, err := NewPSF3D(energyAxis, offsetAxis, radAxis, data, []int{4, 2, 3}, nil); err == nil {
		t.Error("transposed shape should be rejected")
	}
	if _, err := NewPSF3D(energyAxis, offsetAxis, radAxis, data, []int{3, 2, 4}, nil); err != nil {
		t.Errorf("valid construction failed: %v", err)
	}
}

func TestPSF3DEvaluateShape(t *testing.T) {
	psf := testPSF3D(t, nil)

	// Scalar query: the result keeps the reversed (rad, offset, energy)
	// nesting even when every dimension has length one.
	out, err := psf.Evaluate(
		[]units.Energy{units.TeV(1)},
		[]units.Angle{units.Deg(0.3)},
		[]units.Angle{units.Deg(0.1)},
	)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(out) != 1 || len(out[0]) != 1 || len(out[0][0]) != 1 {
		t.Fatalf("scalar query shape = (%d,%d,%d), want (1,1,1)", len(out), len(out[0]), len(out[0][0]))
	}
	if out[0][0][0] <= 0 {
		t.Errorf("PSF value = %v, want > 0", out[0][0][0])
	}

	// Full-grid query: nil slices default to the stored nodes.
	full, err := psf.Evaluate(nil, nil, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	nE, nO, nR := psf.EnergyAxis().NBin(), psf.OffsetAxis().NBin(), psf.RadAxis().NBin()
	if len(full) != nR || len(full[0]) != nO || len(full[0][0]) != nE {
		t.Fatalf("full query shape = (%d,%d,%d), want (%d,%d,%d)",
			len(full), len(full[0]), len(full[0][0]), nR, nO, nE)
	}
	// Spot-check the transposition against the in-memory cube.
	if got, want := full[5][2][1], psf.Data().At(1, 2, 5); got != want {
		t.Errorf("full[5][2][1] = %v, want %v", got, want)
	}
}

func TestPSF3DString(t *testing.T) {
	psf := testPSF3D(t, nil)
	if s := psf.String(); !strings.Contains(s, "PSF3D") {
		t.Errorf("String() = %q, want it to mention PSF3D", s)
	}
}

func TestPSF3DEnergyThresholds(t *testing.T) {
	psf := testPSF3D(t, map[string]any{MetaLoThres: 0.01, MetaHiThres: 100.0})
	lo, err := psf.EnergyThreshLo()
	if err != nil {
		t.Fatalf("EnergyThreshLo: %v", err)
	}
	if math.Abs(lo.TeV()-0.01) > 1e-12 {
		t.Errorf("lo threshold = %v TeV, want 0.01", lo.TeV())
	}
	hi, err := psf.EnergyThreshHi()
	if err != nil {
		t.Fatalf("EnergyThreshHi: %v", err)
	}
	if math.Abs(hi.TeV()-100) > 1e-12 {
		t.Errorf("hi threshold = %v TeV, want 100", hi.TeV())
	}

	bare := testPSF3D(t, nil)
	if _, err := bare.EnergyThreshLo(); err == nil {
		t.Error("missing LO_THRES should fail")
	}
}

func TestPSF3DToEnergyDependentTablePSF(t *testing.T) {
	psf := testPSF3D(t, nil)

	table, err := psf.ToEnergyDependentTablePSF(units.Deg(0), nil, nil)
	if err != nil {
		t.Fatalf("ToEnergyDependentTablePSF: %v", err)
	}
	if diff := cmp.Diff([]int{3, 150}, table.Data().Shape()); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}

	// Offset 0 is an exact node: the slice reproduces the o=0 planes.
	nR := psf.RadAxis().NBin()
	for e := 0; e < 3; e++ {
		for r := 0; r < nR; r += 37 {
			if got, want := table.Data().At(e, r), psf.Data().At(e, 0, r); got != want {
				t.Fatalf("slice (%d,%d) = %v, want %v", e, r, got, want)
			}
		}
	}

	// Resampled rad axis.
	edges := []units.Angle{units.Deg(0), units.Deg(0.5), units.Deg(1), units.Deg(2)}
	coarse, err := psf.ToEnergyDependentTablePSF(units.Deg(1), edges, nil)
	if err != nil {
		t.Fatalf("ToEnergyDependentTablePSF resampled: %v", err)
	}
	if got := coarse.RadAxis().NBin(); got != 3 {
		t.Errorf("resampled rad bins = %d, want 3", got)
	}
}

func TestPSF3DToTablePSF(t *testing.T) {
	psf := testPSF3D(t, nil)
	table, err := psf.ToTablePSF(units.TeV(1), units.Deg(0))
	if err != nil {
		t.Fatalf("ToTablePSF: %v", err)
	}

	// Matches the analytic width for the (e=1, o=0) cell.
	r68, err := table.ContainmentRadius([]float64{0.68})
	if err != nil {
		t.Fatalf("ContainmentRadius: %v", err)
	}
	want := (0.3 - 0.08) * math.Sqrt(2*math.Log(1/0.32))
	if relDiff(r68[0].Deg(), want) > 5e-3 {
		t.Errorf("r68 = %v deg, want %v deg", r68[0].Deg(), want)
	}
}

func TestPSF3DContainmentRadius(t *testing.T) {
	psf := testPSF3D(t, nil)

	energies := []units.Energy{units.TeV(1), units.TeV(10)}
	thetas := []units.Angle{units.Deg(0), units.Deg(2)}
	radii, err := psf.ContainmentRadius(energies, thetas, 0.68)
	if err != nil {
		t.Fatalf("ContainmentRadius: %v", err)
	}
	if len(radii) != 2 || len(radii[0]) != 2 {
		t.Fatalf("shape = (%d,%d), want (2,2)", len(radii), len(radii[0]))
	}

	// Narrower at high energy, broader off axis.
	if radii[1][0].Deg() >= radii[0][0].Deg() {
		t.Errorf("radius should shrink with energy: %v >= %v", radii[1][0].Deg(), radii[0][0].Deg())
	}
	if radii[0][1].Deg() <= radii[0][0].Deg() {
		t.Errorf("radius should grow with offset: %v <= %v", radii[0][1].Deg(), radii[0][0].Deg())
	}

	// Nil thetas default to on-axis, and the two derivation paths
	// agree.
	onAxis, err := psf.ContainmentRadius(energies, nil, 0.68)
	if err != nil {
		t.Fatalf("ContainmentRadius nil thetas: %v", err)
	}
	table, err := psf.ToEnergyDependentTablePSF(units.Deg(0), nil, nil)
	if err != nil {
		t.Fatalf("ToEnergyDependentTablePSF: %v", err)
	}
	viaTable, err := table.ContainmentRadius(energies, 0.68)
	if err != nil {
		t.Fatalf("table ContainmentRadius: %v", err)
	}
	for i := range energies {
		if relDiff(onAxis[i][0].Deg(), viaTable[i].Deg()) > 1e-2 {
			t.Errorf("paths disagree at %d: %v vs %v", i, onAxis[i][0].Deg(), viaTable[i].Deg())
		}
	}
}

func TestPSF3DWriteRequiresThresholds(t *testing.T) {
	psf := testPSF3D(t, nil)
	path := filepath.Join(t.TempDir(), "psf.fits")
	if err := psf.Write(path); err == nil {
		t.Error("writing without safe energy thresholds should fail")
	}
}

func TestPSF3DRoundTrip(t *testing.T) {
	psf := testPSF3D(t, map[string]any{MetaLoThres: 0.01, MetaHiThres: 100.0})

	path := filepath.Join(t.TempDir(), "psf.fits")
	if err := psf.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	back, err := ReadPSF3D(path, "")
	if err != nil {
		t.Fatalf("ReadPSF3D: %v", err)
	}

	if diff := cmp.Diff(psf.Data().Shape(), back.Data().Shape()); diff != "" {
		t.Fatalf("shape changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(psf.EnergyAxis().Edges(), back.EnergyAxis().Edges()); diff != "" {
		t.Errorf("energy edges changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(psf.OffsetAxis().Edges(), back.OffsetAxis().Edges()); diff != "" {
		t.Errorf("offset edges changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(psf.RadAxis().Edges(), back.RadAxis().Edges()); diff != "" {
		t.Errorf("rad edges changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(psf.Data().Data(), back.Data().Data()); diff != "" {
		t.Errorf("data changed (-want +got):\n%s", diff)
	}

	lo, err := back.EnergyThreshLo()
	if err != nil {
		t.Fatalf("EnergyThreshLo after round trip: %v", err)
	}
	if math.Abs(lo.TeV()-0.01) > 1e-12 {
		t.Errorf("lo threshold = %v TeV, want 0.01", lo.TeV())
	}
}
