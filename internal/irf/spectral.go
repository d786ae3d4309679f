package irf

import (
	"fmt"
	"math"
	"sort"

	"github.com/gammaray-data/irf.report/internal/units"
)

// SpectralModel is the interface consumed by energy-band averaging:
// a differential flux evaluated at a true energy. Absolute
// normalization cancels in the band weights, so only the shape
// matters.
type SpectralModel interface {
	Flux(energy units.Energy) float64
}

// PowerLaw is a power-law spectral model
// flux = Amplitude * (E / Reference)^-Index.
type PowerLaw struct {
	Index     float64
	Amplitude float64
	Reference units.Energy
}

// NewPowerLaw returns the default spectral weighting model: a power
// law of index 2 referenced at 1 TeV.
func NewPowerLaw() PowerLaw {
	return PowerLaw{Index: 2, Amplitude: 1, Reference: units.TeV(1)}
}

// Flux evaluates the power law at the given energy.
func (p PowerLaw) Flux(energy units.Energy) float64 {
	return p.Amplitude * math.Pow(energy.TeV()/p.Reference.TeV(), -p.Index)
}

// TemplateSpectralModel interpolates tabulated values over energy
// nodes, linear in log-energy with edge clamping. It serves as the
// exposure template in exposure-weighted band averaging.
type TemplateSpectralModel struct {
	logE   []float64 // ln(E/MeV), strictly increasing
	values []float64
}

// NewTemplateSpectralModel builds a template from energy nodes and
// matching values.
func NewTemplateSpectralModel(energies []units.Energy, values []float64) (*TemplateSpectralModel, error) {
	if len(energies) != len(values) {
		return nil, fmt.Errorf("template model: %d energies but %d values", len(energies), len(values))
	}
	if len(energies) < 2 {
		return nil, fmt.Errorf("template model: need at least 2 nodes, got %d", len(energies))
	}
	logE := make([]float64, len(energies))
	for i, e := range energies {
		if e.MeV() <= 0 {
			return nil, fmt.Errorf("template model: energies must be positive, node %d is %v MeV", i, e.MeV())
		}
		logE[i] = math.Log(e.MeV())
		if i > 0 && logE[i] <= logE[i-1] {
			return nil, fmt.Errorf("template model: energies must be strictly increasing at node %d", i)
		}
	}
	return &TemplateSpectralModel{logE: logE, values: append([]float64(nil), values...)}, nil
}

// Flux evaluates the template at the given energy.
func (t *TemplateSpectralModel) Flux(energy units.Energy) float64 {
	x := math.Log(energy.MeV())
	n := len(t.logE)
	if x <= t.logE[0] {
		return t.values[0]
	}
	if x >= t.logE[n-1] {
		return t.values[n-1]
	}
	i := sort.SearchFloat64s(t.logE, x)
	if t.logE[i] == x {
		return t.values[i]
	}
	w := (x - t.logE[i-1]) / (t.logE[i] - t.logE[i-1])
	return t.values[i-1] + w*(t.values[i]-t.values[i-1])
}
