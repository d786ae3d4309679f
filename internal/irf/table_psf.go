package irf

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/gammaray-data/irf.report/internal/units"
)

// Shape tags the analytic PSF profiles TablePSFFromShape can build.
type Shape string

const (
	// ShapeDisk is a flat-top profile normalized to unit volume over a
	// disk of the given width.
	ShapeDisk Shape = "disk"
	// ShapeGauss is a radially symmetric 2-D Gaussian with the given
	// width as standard deviation.
	ShapeGauss Shape = "gauss"
)

// ErrInvalidShape is returned for shape tags outside the supported set.
var ErrInvalidShape = errors.New("invalid PSF shape")

// TablePSF is a radially symmetric table PSF: a density in sr^-1
// tabulated over a single rad axis.
type TablePSF struct {
	data *NDDataArray
}

// NewTablePSF wraps a rad axis and matching density values (sr^-1).
// The axis must be named "rad".
func NewTablePSF(radAxis *MapAxis, data []float64) (*TablePSF, error) {
	if err := radAxis.AssertName(AxisRad); err != nil {
		return nil, err
	}
	nd, err := NewNDDataArray([]*MapAxis{radAxis}, data, []int{radAxis.NBin()})
	if err != nil {
		return nil, err
	}
	return &TablePSF{data: nd}, nil
}

// TablePSFFromShape builds an analytic PSF on the given rad nodes.
// Mostly useful for examples and testing.
func TablePSFFromShape(shape Shape, width units.Angle, rad []units.Angle) (*TablePSF, error) {
	nodes := make([]float64, len(rad))
	for i, r := range rad {
		nodes[i] = r.Deg()
	}
	radAxis, err := AxisFromNodes(AxisRad, units.UnitDeg, nodes, InterpLinear)
	if err != nil {
		return nil, err
	}

	data := make([]float64, len(rad))
	switch shape {
	case ShapeDisk:
		amplitude := 1 / (math.Pi * width.Rad() * width.Rad())
		for i, r := range rad {
			if r.Rad() < width.Rad() {
				data[i] = amplitude
			}
		}
	case ShapeGauss:
		pdf := Gauss2DPDF{Sigma: width.Rad()}
		for i, r := range rad {
			data[i] = pdf.At(r.Rad())
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidShape, string(shape))
	}

	return NewTablePSF(radAxis, data)
}

// RadAxis returns the rad axis.
func (p *TablePSF) RadAxis() *MapAxis { return p.data.Axis(AxisRad) }

// Data returns the underlying data array.
func (p *TablePSF) Data() *NDDataArray { return p.data }

// Evaluate interpolates the density (sr^-1) at the given radii.
// Out-of-range radii clamp to the nearest node.
func (p *TablePSF) Evaluate(rad []units.Angle) ([]float64, error) {
	coords, err := anglesIn(rad, p.RadAxis().Unit())
	if err != nil {
		return nil, err
	}
	vals, _, err := p.data.EvaluateGrid([][]float64{coords}, MethodLinear)
	return vals, err
}

// Containment integrates the density over solid angle from zero to
// each upper bound, returning containment fractions aligned with the
// input.
func (p *TablePSF) Containment(radMax []units.Angle) ([]float64, error) {
	bounds, err := anglesIn(radMax, p.RadAxis().Unit())
	if err != nil {
		return nil, err
	}
	out, _, err := p.data.IntegrateRad(nil, bounds)
	return out, err
}

// ContainmentRadius inverts Containment. The containment curve is
// sampled on a dense grid of 10x the axis bin count spanning
// [0, last node]; each fraction maps to the sampled radius whose
// containment is closest, ties resolved at the first minimum. The
// inversion error is bounded by the grid spacing.
func (p *TablePSF) ContainmentRadius(fractions []float64) ([]units.Angle, error) {
	axis := p.RadAxis()
	grid := make([]float64, 10*axis.NBin())
	floats.Span(grid, 0, axis.Center()[axis.NBin()-1])

	containment, _, err := p.data.IntegrateRad(nil, grid)
	if err != nil {
		return nil, err
	}

	out := make([]units.Angle, len(fractions))
	for i, f := range fractions {
		best := 0
		bestDiff := math.Abs(containment[0] - f)
		for j := 1; j < len(containment); j++ {
			if d := math.Abs(containment[j] - f); d < bestDiff {
				best, bestDiff = j, d
			}
		}
		a, err := units.AngleIn(grid[best], axis.Unit())
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

// Normalize rescales the density in place so the total solid-angle
// integral over the stored nodes becomes 1. A zero integral is not
// guarded against and produces non-finite values.
func (p *TablePSF) Normalize() {
	axis := p.RadAxis()
	radRad := make([]float64, axis.NBin())
	g := make([]float64, axis.NBin())
	for i, r := range axis.Center() {
		a, _ := units.AngleIn(r, axis.Unit())
		radRad[i] = a.Rad()
		g[i] = 2 * math.Pi * radRad[i] * p.data.Data()[i]
	}
	integral := integrate.Trapezoidal(radRad, g)
	p.data.DivideBy(integral)
}

// Info returns a short human-readable summary.
func (p *TablePSF) Info() string {
	var b strings.Builder
	axis := p.RadAxis()
	center := axis.Center()
	fmt.Fprintf(&b, "rad axis: %d nodes, %g .. %g %s\n", axis.NBin(), center[0], center[len(center)-1], axis.Unit())

	edge, _ := units.AngleIn(axis.Edges()[axis.NBin()], axis.Unit())
	if integral, err := p.Containment([]units.Angle{edge}); err == nil {
		fmt.Fprintf(&b, "integral = %g\n", integral[0])
	}
	for _, pct := range []int{68, 80, 95} {
		if radius, err := p.ContainmentRadius([]float64{0.01 * float64(pct)}); err == nil {
			fmt.Fprintf(&b, "containment radius %g deg for %d%%\n", radius[0].Deg(), pct)
		}
	}
	return b.String()
}

// anglesIn converts a list of angles into the named axis unit.
func anglesIn(angles []units.Angle, unit string) ([]float64, error) {
	out := make([]float64, len(angles))
	for i, a := range angles {
		v, err := a.In(unit)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// energiesIn converts a list of energies into the named axis unit.
func energiesIn(energies []units.Energy, unit string) ([]float64, error) {
	out := make([]float64, len(energies))
	for i, e := range energies {
		v, err := e.In(unit)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
