package irf

import (
	"fmt"
	"math"
	"sort"
)

// Axis names used by the PSF family. An axis passed to a PSF
// constructor must carry the exact expected name.
const (
	AxisRad        = "rad"
	AxisEnergyTrue = "energy_true"
	AxisOffset     = "offset"
)

// AxisInterp selects the node spacing model of an axis. It controls
// the coordinate transform applied before interpolation and how bin
// edges are derived from node values.
type AxisInterp int

const (
	// InterpLinear treats node spacing as linear.
	InterpLinear AxisInterp = iota
	// InterpLog treats node spacing as logarithmic. All node values
	// must be strictly positive.
	InterpLog
)

func (i AxisInterp) String() string {
	switch i {
	case InterpLinear:
		return "lin"
	case InterpLog:
		return "log"
	}
	return fmt.Sprintf("AxisInterp(%d)", int(i))
}

// MapAxis is a named, ordered 1-D coordinate axis with a unit and an
// interpolation mode. Instances are immutable after construction and
// safe to share across PSF objects.
type MapAxis struct {
	name   string
	unit   string
	nodes  []float64
	edges  []float64
	interp AxisInterp
}

// AxisFromNodes builds an axis from node (center) values. Values must
// be strictly increasing; log axes additionally require positive
// values. Bin edges are derived as midpoints in the interpolation
// space, with the outer edges mirrored from the first and last bins.
func AxisFromNodes(name, unit string, nodes []float64, interp AxisInterp) (*MapAxis, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("axis %q: need at least 2 nodes, got %d", name, len(nodes))
	}
	if err := checkMonotonic(name, nodes, interp); err != nil {
		return nil, err
	}

	n := len(nodes)
	edges := make([]float64, n+1)
	switch interp {
	case InterpLinear:
		for i := 1; i < n; i++ {
			edges[i] = 0.5 * (nodes[i-1] + nodes[i])
		}
		edges[0] = nodes[0] - 0.5*(nodes[1]-nodes[0])
		edges[n] = nodes[n-1] + 0.5*(nodes[n-1]-nodes[n-2])
	case InterpLog:
		for i := 1; i < n; i++ {
			edges[i] = math.Sqrt(nodes[i-1] * nodes[i])
		}
		edges[0] = nodes[0] * math.Sqrt(nodes[0]/nodes[1])
		edges[n] = nodes[n-1] * math.Sqrt(nodes[n-1]/nodes[n-2])
	default:
		return nil, fmt.Errorf("axis %q: unsupported interp mode %v", name, interp)
	}

	return &MapAxis{
		name:   name,
		unit:   unit,
		nodes:  append([]float64(nil), nodes...),
		edges:  edges,
		interp: interp,
	}, nil
}

// AxisFromEdges builds an axis from bin edge values. Node values are
// the bin midpoints in the interpolation space.
func AxisFromEdges(name, unit string, edges []float64, interp AxisInterp) (*MapAxis, error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("axis %q: need at least 2 edges, got %d", name, len(edges))
	}
	if err := checkMonotonic(name, edges, interp); err != nil {
		return nil, err
	}

	n := len(edges) - 1
	nodes := make([]float64, n)
	switch interp {
	case InterpLinear:
		for i := 0; i < n; i++ {
			nodes[i] = 0.5 * (edges[i] + edges[i+1])
		}
	case InterpLog:
		for i := 0; i < n; i++ {
			nodes[i] = math.Sqrt(edges[i] * edges[i+1])
		}
	default:
		return nil, fmt.Errorf("axis %q: unsupported interp mode %v", name, interp)
	}

	return &MapAxis{
		name:   name,
		unit:   unit,
		nodes:  nodes,
		edges:  append([]float64(nil), edges...),
		interp: interp,
	}, nil
}

func checkMonotonic(name string, values []float64, interp AxisInterp) error {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return fmt.Errorf("axis %q: values must be strictly increasing (index %d: %v <= %v)",
				name, i, values[i], values[i-1])
		}
	}
	if interp == InterpLog && values[0] <= 0 {
		return fmt.Errorf("axis %q: log axis requires positive values, got %v", name, values[0])
	}
	return nil
}

// Name returns the axis identifier.
func (a *MapAxis) Name() string { return a.name }

// Unit returns the unit the node and edge values are expressed in.
func (a *MapAxis) Unit() string { return a.unit }

// Interp returns the axis interpolation mode.
func (a *MapAxis) Interp() AxisInterp { return a.interp }

// NBin returns the number of bins (for node axes, the node count).
func (a *MapAxis) NBin() int { return len(a.nodes) }

// Center returns the node values. The returned slice is owned by the
// axis and must not be modified.
func (a *MapAxis) Center() []float64 { return a.nodes }

// Edges returns the bin edge values. The returned slice is owned by
// the axis and must not be modified.
func (a *MapAxis) Edges() []float64 { return a.edges }

// AssertName fails if the axis name does not match the expected
// identifier.
func (a *MapAxis) AssertName(expected string) error {
	if a.name != expected {
		return fmt.Errorf("axis name mismatch: expected %q, got %q", expected, a.name)
	}
	return nil
}

// Upsample returns a new axis with factor-times denser nodes. Each
// node interval is subdivided in the interpolation space; the original
// nodes are preserved.
func (a *MapAxis) Upsample(factor int) (*MapAxis, error) {
	if factor < 1 {
		return nil, fmt.Errorf("axis %q: upsample factor must be >= 1, got %d", a.name, factor)
	}
	if factor == 1 {
		return a, nil
	}

	dense := make([]float64, 0, (len(a.nodes)-1)*factor+1)
	for i := 0; i < len(a.nodes)-1; i++ {
		lo, hi := a.transform(a.nodes[i]), a.transform(a.nodes[i+1])
		for k := 0; k < factor; k++ {
			t := lo + (hi-lo)*float64(k)/float64(factor)
			dense = append(dense, a.invTransform(t))
		}
	}
	dense = append(dense, a.nodes[len(a.nodes)-1])
	return AxisFromNodes(a.name, a.unit, dense, a.interp)
}

// transform maps a coordinate into the interpolation space.
func (a *MapAxis) transform(x float64) float64 {
	if a.interp == InterpLog {
		return math.Log(x)
	}
	return x
}

func (a *MapAxis) invTransform(t float64) float64 {
	if a.interp == InterpLog {
		return math.Exp(t)
	}
	return t
}

// nodeWeight is the result of locating a coordinate on the axis:
// bracketing node indices and the linear weight of the upper node in
// the interpolation space. Out-of-range coordinates clamp to the
// nearest node (w forced to 0 or 1).
type nodeWeight struct {
	lo, hi int
	w      float64
}

// lookup locates x on the axis with edge clamping.
func (a *MapAxis) lookup(x float64) nodeWeight {
	n := len(a.nodes)
	if x <= a.nodes[0] {
		return nodeWeight{lo: 0, hi: 0, w: 0}
	}
	if x >= a.nodes[n-1] {
		return nodeWeight{lo: n - 1, hi: n - 1, w: 0}
	}

	idx := sort.SearchFloat64s(a.nodes, x)
	// SearchFloat64s returns the first index with nodes[idx] >= x, so
	// the bracket is [idx-1, idx].
	lo, hi := idx-1, idx
	if a.nodes[idx] == x {
		return nodeWeight{lo: idx, hi: idx, w: 0}
	}
	tlo, thi := a.transform(a.nodes[lo]), a.transform(a.nodes[hi])
	w := (a.transform(x) - tlo) / (thi - tlo)
	return nodeWeight{lo: lo, hi: hi, w: w}
}
