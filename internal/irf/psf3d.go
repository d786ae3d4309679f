package irf

import (
	"fmt"

	"github.com/gammaray-data/irf.report/internal/units"
)

// Meta keys carrying the safe energy range of a PSF3D, in TeV.
const (
	MetaLoThres = "LO_THRES"
	MetaHiThres = "HI_THRES"
)

// PSF3D is a PSF tabulated over (energy_true, offset, rad). In-memory
// data is C-ordered (energy, offset, rad); the on-disk GADF format
// stores the reversed (rad, offset, energy) order, transposed at the
// serialization boundary.
type PSF3D struct {
	data *NDDataArray
	meta map[string]any
}

// NewPSF3D validates the axes and data cube and wraps them. The shape
// must match the axis bin counts in (energy, offset, rad) order; a
// transposed cube is rejected with a shape-mismatch error.
func NewPSF3D(energyAxis, offsetAxis, radAxis *MapAxis, data []float64, shape []int, meta map[string]any) (*PSF3D, error) {
	if err := energyAxis.AssertName(AxisEnergyTrue); err != nil {
		return nil, err
	}
	if err := offsetAxis.AssertName(AxisOffset); err != nil {
		return nil, err
	}
	if err := radAxis.AssertName(AxisRad); err != nil {
		return nil, err
	}
	nd, err := NewNDDataArray([]*MapAxis{energyAxis, offsetAxis, radAxis}, data, shape)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return &PSF3D{data: nd, meta: meta}, nil
}

// EnergyAxis returns the true-energy axis.
func (p *PSF3D) EnergyAxis() *MapAxis { return p.data.Axis(AxisEnergyTrue) }

// OffsetAxis returns the field-of-view offset axis.
func (p *PSF3D) OffsetAxis() *MapAxis { return p.data.Axis(AxisOffset) }

// RadAxis returns the rad axis.
func (p *PSF3D) RadAxis() *MapAxis { return p.data.Axis(AxisRad) }

// Data returns the underlying data array.
func (p *PSF3D) Data() *NDDataArray { return p.data }

// Meta returns the opaque metadata mapping.
func (p *PSF3D) Meta() map[string]any { return p.meta }

// EnergyThreshLo returns the low safe energy threshold from meta.
// Fails with a missing-key error when accessed on a PSF without one.
func (p *PSF3D) EnergyThreshLo() (units.Energy, error) {
	return p.metaEnergy(MetaLoThres)
}

// EnergyThreshHi returns the high safe energy threshold from meta.
func (p *PSF3D) EnergyThreshHi() (units.Energy, error) {
	return p.metaEnergy(MetaHiThres)
}

func (p *PSF3D) metaEnergy(key string) (units.Energy, error) {
	v, ok := p.meta[key]
	if !ok {
		return 0, fmt.Errorf("meta key %q not found", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("meta key %q is %T, want float64 (TeV)", key, v)
	}
	return units.TeV(f), nil
}

func (p *PSF3D) String() string {
	return fmt.Sprintf("PSF3D\n-----\n\tshape : %v\n", p.data.Shape())
}

// Evaluate interpolates the PSF on the outer product of the given
// coordinates. Nil argument slices default to the stored axis nodes.
// The result is indexed [rad][offset][energy]: the axis order is
// reversed relative to construction order, matching the on-disk
// storage convention.
func (p *PSF3D) Evaluate(energies []units.Energy, offsets, rad []units.Angle) ([][][]float64, error) {
	eCoords, err := axisCoordsEnergy(p.EnergyAxis(), energies)
	if err != nil {
		return nil, err
	}
	oCoords, err := axisCoordsAngle(p.OffsetAxis(), offsets)
	if err != nil {
		return nil, err
	}
	rCoords, err := axisCoordsAngle(p.RadAxis(), rad)
	if err != nil {
		return nil, err
	}

	vals, shape, err := p.data.EvaluateGrid([][]float64{eCoords, oCoords, rCoords}, MethodLinear)
	if err != nil {
		return nil, err
	}

	nE, nO, nR := shape[0], shape[1], shape[2]
	out := make([][][]float64, nR)
	for r := 0; r < nR; r++ {
		out[r] = make([][]float64, nO)
		for o := 0; o < nO; o++ {
			row := make([]float64, nE)
			for e := 0; e < nE; e++ {
				row[e] = vals[(e*nO+o)*nR+r]
			}
			out[r][o] = row
		}
	}
	return out, nil
}

// ToEnergyDependentTablePSF fixes the field-of-view offset to theta
// (default 0 deg via units.Deg(0)) and returns the (energy, rad) slice
// as an EnergyDependentTablePSF. A non-nil radEdges resamples the rad
// axis from the given edge values; exposure is passed through (nil
// means unweighted).
func (p *PSF3D) ToEnergyDependentTablePSF(theta units.Angle, radEdges []units.Angle, exposure []float64) (*EnergyDependentTablePSF, error) {
	radAxis := p.RadAxis()
	if radEdges != nil {
		edges, err := anglesIn(radEdges, radAxis.Unit())
		if err != nil {
			return nil, err
		}
		radAxis, err = AxisFromEdges(AxisRad, p.RadAxis().Unit(), edges, InterpLinear)
		if err != nil {
			return nil, err
		}
	}

	thetaCoord, err := theta.In(p.OffsetAxis().Unit())
	if err != nil {
		return nil, err
	}
	coords := [][]float64{
		p.EnergyAxis().Center(),
		{thetaCoord},
		radAxis.Center(),
	}
	// Offset dimension has length 1, so the flattened result is
	// already C-ordered (energy, rad).
	vals, _, err := p.data.EvaluateGrid(coords, MethodLinear)
	if err != nil {
		return nil, err
	}
	return NewEnergyDependentTablePSF(p.EnergyAxis(), radAxis, exposure, vals)
}

// ToTablePSF fixes energy and offset, producing a TablePSF that shares
// the rad axis.
func (p *PSF3D) ToTablePSF(energy units.Energy, theta units.Angle) (*TablePSF, error) {
	eCoord, err := energy.In(p.EnergyAxis().Unit())
	if err != nil {
		return nil, err
	}
	thetaCoord, err := theta.In(p.OffsetAxis().Unit())
	if err != nil {
		return nil, err
	}
	vals, _, err := p.data.EvaluateGrid(
		[][]float64{{eCoord}, {thetaCoord}, p.RadAxis().Center()}, MethodLinear,
	)
	if err != nil {
		return nil, err
	}
	return NewTablePSF(p.RadAxis(), vals)
}

// ContainmentRadius inverts containment per (energy, offset). For each
// requested offset an EnergyDependentTablePSF is derived at that
// offset and its inversion reused; results are indexed
// [energy][theta]. A nil thetas slice defaults to offset 0 deg. The
// per-offset derivation re-creates an intermediate object per theta,
// acceptable for typical offset grids.
func (p *PSF3D) ContainmentRadius(energies []units.Energy, thetas []units.Angle, fraction float64) ([][]units.Angle, error) {
	if thetas == nil {
		thetas = []units.Angle{units.Deg(0)}
	}

	out := make([][]units.Angle, len(energies))
	for i := range out {
		out[i] = make([]units.Angle, len(thetas))
	}
	for t, theta := range thetas {
		psf, err := p.ToEnergyDependentTablePSF(theta, nil, nil)
		if err != nil {
			return nil, err
		}
		radii, err := psf.ContainmentRadius(energies, fraction)
		if err != nil {
			return nil, err
		}
		for e := range energies {
			out[e][t] = radii[e]
		}
	}
	return out, nil
}

func axisCoordsEnergy(axis *MapAxis, energies []units.Energy) ([]float64, error) {
	if energies == nil {
		return axis.Center(), nil
	}
	return energiesIn(energies, axis.Unit())
}

func axisCoordsAngle(axis *MapAxis, angles []units.Angle) ([]float64, error) {
	if angles == nil {
		return axis.Center(), nil
	}
	return anglesIn(angles, axis.Unit())
}
