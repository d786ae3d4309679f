package irf

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/gammaray-data/irf.report/internal/units"
)

// DefaultBandBins is the number of energy bins used by
// TablePSFInEnergyRange when the caller does not specify one.
const DefaultBandBins = 11

// EnergyDependentTablePSF is a radially symmetric PSF tabulated over
// (energy_true, rad), with an exposure vector over energy. This is the
// "gtpsf" data model.
type EnergyDependentTablePSF struct {
	data     *NDDataArray
	exposure []float64 // cm^2 s, indexed by energy_true
}

// NewEnergyDependentTablePSF wraps the axes, data cube (flattened
// energy x rad, sr^-1) and exposure vector (cm^2 s). A nil exposure
// means exposure-unaware weighting: all ones.
func NewEnergyDependentTablePSF(energyAxis, radAxis *MapAxis, exposure, data []float64) (*EnergyDependentTablePSF, error) {
	if err := energyAxis.AssertName(AxisEnergyTrue); err != nil {
		return nil, err
	}
	if err := radAxis.AssertName(AxisRad); err != nil {
		return nil, err
	}
	nd, err := NewNDDataArray(
		[]*MapAxis{energyAxis, radAxis}, data, []int{energyAxis.NBin(), radAxis.NBin()},
	)
	if err != nil {
		return nil, err
	}

	if exposure == nil {
		exposure = make([]float64, energyAxis.NBin())
		for i := range exposure {
			exposure[i] = 1
		}
	} else if len(exposure) != energyAxis.NBin() {
		return nil, fmt.Errorf("exposure length %d does not match energy axis bins %d",
			len(exposure), energyAxis.NBin())
	}

	return &EnergyDependentTablePSF{data: nd, exposure: exposure}, nil
}

// EnergyAxis returns the true-energy axis.
func (p *EnergyDependentTablePSF) EnergyAxis() *MapAxis { return p.data.Axis(AxisEnergyTrue) }

// RadAxis returns the rad axis.
func (p *EnergyDependentTablePSF) RadAxis() *MapAxis { return p.data.Axis(AxisRad) }

// Exposure returns the exposure vector (cm^2 s) indexed by energy.
func (p *EnergyDependentTablePSF) Exposure() []float64 { return p.exposure }

// Data returns the underlying data array.
func (p *EnergyDependentTablePSF) Data() *NDDataArray { return p.data }

// Evaluate interpolates the PSF on the outer product of the given
// energies and radii. Nil argument slices default to the stored axis
// nodes. The result is indexed [energy][rad].
func (p *EnergyDependentTablePSF) Evaluate(energies []units.Energy, rad []units.Angle, method InterpMethod) ([][]float64, error) {
	eCoords, err := p.energyCoords(energies)
	if err != nil {
		return nil, err
	}
	rCoords, err := p.radCoords(rad)
	if err != nil {
		return nil, err
	}

	vals, shape, err := p.data.EvaluateGrid([][]float64{eCoords, rCoords}, method)
	if err != nil {
		return nil, err
	}
	return reshape2D(vals, shape[0], shape[1]), nil
}

// TablePSFAtEnergy evaluates the PSF at one energy and wraps the
// resulting radial profile as a TablePSF sharing the rad axis.
func (p *EnergyDependentTablePSF) TablePSFAtEnergy(energy units.Energy, method InterpMethod) (*TablePSF, error) {
	rows, err := p.Evaluate([]units.Energy{energy}, nil, method)
	if err != nil {
		return nil, err
	}
	return NewTablePSF(p.RadAxis(), rows[0])
}

// TablePSFInEnergyRange computes a counts-weighted average PSF over an
// energy band. The band is sampled on nBins log-spaced sub-bins
// (DefaultBandBins when nBins <= 0); each sample energy is weighted by
// spectrum(e) * exposure(e) with the weights normalized to sum to 1.
// A nil spectrum defaults to a power law of index 2.
func (p *EnergyDependentTablePSF) TablePSFInEnergyRange(eMin, eMax units.Energy, spectrum SpectralModel, nBins int) (*TablePSF, error) {
	if eMin.MeV() <= 0 || eMax.MeV() <= eMin.MeV() {
		return nil, fmt.Errorf("invalid energy range [%g, %g] MeV", eMin.MeV(), eMax.MeV())
	}
	if nBins <= 0 {
		nBins = DefaultBandBins
	}
	if spectrum == nil {
		spectrum = NewPowerLaw()
	}

	centerEnergies := make([]units.Energy, p.EnergyAxis().NBin())
	for i, c := range p.EnergyAxis().Center() {
		e, err := units.EnergyIn(c, p.EnergyAxis().Unit())
		if err != nil {
			return nil, err
		}
		centerEnergies[i] = e
	}
	exposure, err := NewTemplateSpectralModel(centerEnergies, p.exposure)
	if err != nil {
		return nil, err
	}

	// Log-spaced bin edges spanning the band; the edges themselves are
	// the sample energies.
	edges := make([]float64, nBins+1)
	floats.LogSpan(edges, eMin.MeV(), eMax.MeV())

	energies := make([]units.Energy, len(edges))
	weights := make([]float64, len(edges))
	for i, e := range edges {
		energies[i] = units.MeV(e)
		weights[i] = spectrum.Flux(energies[i]) * exposure.Flux(energies[i])
	}
	floats.Scale(1/floats.Sum(weights), weights)

	rows, err := p.Evaluate(energies, nil, MethodLinear)
	if err != nil {
		return nil, err
	}
	avg := make([]float64, p.RadAxis().NBin())
	for i, row := range rows {
		for j, v := range row {
			avg[j] += weights[i] * v
		}
	}
	return NewTablePSF(p.RadAxis(), avg)
}

// Containment returns containment fractions on the outer product of
// energies and upper radial bounds, indexed [energy][radMax].
func (p *EnergyDependentTablePSF) Containment(energies []units.Energy, radMax []units.Angle) ([][]float64, error) {
	eCoords, err := p.energyCoords(energies)
	if err != nil {
		return nil, err
	}
	bounds, err := anglesIn(radMax, p.RadAxis().Unit())
	if err != nil {
		return nil, err
	}
	vals, shape, err := p.data.IntegrateRad([][]float64{eCoords}, bounds)
	if err != nil {
		return nil, err
	}
	return reshape2D(vals, shape[0], shape[1]), nil
}

// ContainmentRadius inverts Containment per energy. The rad axis is
// upsampled by a factor of 10 for precision before the nearest-sample
// search; ties resolve at the first minimum.
func (p *EnergyDependentTablePSF) ContainmentRadius(energies []units.Energy, fraction float64) ([]units.Angle, error) {
	dense, err := p.RadAxis().Upsample(10)
	if err != nil {
		return nil, err
	}
	radMax := make([]units.Angle, dense.NBin())
	for i, r := range dense.Center() {
		a, err := units.AngleIn(r, dense.Unit())
		if err != nil {
			return nil, err
		}
		radMax[i] = a
	}

	containment, err := p.Containment(energies, radMax)
	if err != nil {
		return nil, err
	}

	out := make([]units.Angle, len(energies))
	for i, row := range containment {
		best := 0
		bestDiff := math.Abs(row[0] - fraction)
		for j := 1; j < len(row); j++ {
			if d := math.Abs(row[j] - fraction); d < bestDiff {
				best, bestDiff = j, d
			}
		}
		out[i] = radMax[best]
	}
	return out, nil
}

// Info returns a short human-readable summary.
func (p *EnergyDependentTablePSF) Info() string {
	var b strings.Builder
	b.WriteString("EnergyDependentTablePSF\n")
	b.WriteString("-----------------------\n")
	e := p.EnergyAxis()
	r := p.RadAxis()
	fmt.Fprintf(&b, "energy axis: %d nodes, %g .. %g %s (%s)\n",
		e.NBin(), e.Center()[0], e.Center()[e.NBin()-1], e.Unit(), e.Interp())
	fmt.Fprintf(&b, "rad axis: %d nodes, %g .. %g %s\n",
		r.NBin(), r.Center()[0], r.Center()[r.NBin()-1], r.Unit())

	for _, fraction := range []float64{0.68, 0.95} {
		energies := []units.Energy{units.GeV(10), units.GeV(100)}
		radii, err := p.ContainmentRadius(energies, fraction)
		if err != nil {
			continue
		}
		for i, energy := range energies {
			fmt.Fprintf(&b, "%.0f%% containment radius at %g GeV: %.4f deg\n",
				100*fraction, energy.GeV(), radii[i].Deg())
		}
	}
	return b.String()
}

func (p *EnergyDependentTablePSF) energyCoords(energies []units.Energy) ([]float64, error) {
	if energies == nil {
		return p.EnergyAxis().Center(), nil
	}
	return energiesIn(energies, p.EnergyAxis().Unit())
}

func (p *EnergyDependentTablePSF) radCoords(rad []units.Angle) ([]float64, error) {
	if rad == nil {
		return p.RadAxis().Center(), nil
	}
	return anglesIn(rad, p.RadAxis().Unit())
}

// reshape2D views a flattened C-order array as rows x cols slices.
func reshape2D(vals []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = vals[i*cols : (i+1)*cols]
	}
	return out
}
