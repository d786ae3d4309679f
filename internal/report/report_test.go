package report

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gammaray-data/irf.report/internal/irf"
	"github.com/gammaray-data/irf.report/internal/units"
)

// gaussPSF builds an energy-dependent PSF whose width narrows with
// energy, roughly how a real instrument behaves.
func gaussPSF(t *testing.T) *irf.EnergyDependentTablePSF {
	t.Helper()

	energyAxis, err := irf.AxisFromNodes(irf.AxisEnergyTrue, units.UnitTeV,
		[]float64{0.1, 0.3, 1, 3, 10}, irf.InterpLog)
	if err != nil {
		t.Fatalf("energy axis: %v", err)
	}

	radNodes := make([]float64, 100)
	for i := range radNodes {
		radNodes[i] = 2.0 * float64(i) / float64(len(radNodes)-1)
	}
	radAxis, err := irf.AxisFromNodes(irf.AxisRad, units.UnitDeg, radNodes, irf.InterpLinear)
	if err != nil {
		t.Fatalf("rad axis: %v", err)
	}

	data := make([]float64, energyAxis.NBin()*radAxis.NBin())
	for e := 0; e < energyAxis.NBin(); e++ {
		sigma := (0.3 - 0.05*float64(e)) * math.Pi / 180
		pdf := irf.Gauss2DPDF{Sigma: sigma}
		for r := 0; r < radAxis.NBin(); r++ {
			data[e*radAxis.NBin()+r] = pdf.At(radNodes[r] * math.Pi / 180)
		}
	}

	psf, err := irf.NewEnergyDependentTablePSF(energyAxis, radAxis, nil, data)
	if err != nil {
		t.Fatalf("psf: %v", err)
	}
	return psf
}

func TestContainmentReportRender(t *testing.T) {
	psf := gaussPSF(t)

	var buf bytes.Buffer
	rep := DefaultContainmentReport("test-obs-0001")
	if err := rep.Render(psf, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"test-obs-0001", "Containment Radius vs Energy", "PSF Radial Profile", "68%", "95%"} {
		if !strings.Contains(html, want) {
			t.Errorf("report HTML missing %q", want)
		}
	}
}

func TestContainmentReportDefaults(t *testing.T) {
	psf := gaussPSF(t)

	var buf bytes.Buffer
	rep := ContainmentReport{Title: "defaults"}
	if err := rep.Render(psf, &buf); err != nil {
		t.Fatalf("Render with zero-value config: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty report output")
	}
}

func TestPlotPSFVsRad(t *testing.T) {
	psf := gaussPSF(t)
	table, err := psf.TablePSFAtEnergy(units.TeV(1), irf.MethodLinear)
	if err != nil {
		t.Fatalf("TablePSFAtEnergy: %v", err)
	}

	path := filepath.Join(t.TempDir(), "psf.png")
	if err := PlotPSFVsRad(table, "profile", path); err != nil {
		t.Fatalf("PlotPSFVsRad: %v", err)
	}
}

func TestPlotContainmentVsEnergy(t *testing.T) {
	psf := gaussPSF(t)

	path := filepath.Join(t.TempDir(), "containment.png")
	if err := PlotContainmentVsEnergy(psf, []float64{0.68, 0.95}, "containment", path); err != nil {
		t.Fatalf("PlotContainmentVsEnergy: %v", err)
	}
}
