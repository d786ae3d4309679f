package irf

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gammaray-data/irf.report/internal/units"
)

// InterpMethod selects how NDDataArray evaluates between grid nodes.
type InterpMethod string

const (
	// MethodLinear performs multilinear interpolation in each axis'
	// interpolation space.
	MethodLinear InterpMethod = "linear"
	// MethodNearest snaps each coordinate to the nearest grid node.
	MethodNearest InterpMethod = "nearest"
)

// ErrInvalidMethod is returned for interpolation methods outside the
// supported set.
var ErrInvalidMethod = errors.New("invalid interpolation method")

func (m InterpMethod) validate() error {
	switch m {
	case MethodLinear, MethodNearest:
		return nil
	}
	return fmt.Errorf("%w: %q (valid: %q, %q)", ErrInvalidMethod, string(m), MethodLinear, MethodNearest)
}

// NDDataArray associates an ordered tuple of axes with an
// N-dimensional array of values in sr^-1. The data slice is flattened
// in C order: the last axis varies fastest. The array is exclusively
// owned by its containing PSF object.
type NDDataArray struct {
	axes    []*MapAxis
	data    []float64
	shape   []int
	strides []int
}

// NewNDDataArray validates that the data shape matches the axis bin
// counts in axis order and wraps the array. A transposed data array is
// rejected with a shape-mismatch error.
func NewNDDataArray(axes []*MapAxis, data []float64, shape []int) (*NDDataArray, error) {
	if len(axes) == 0 {
		return nil, errors.New("nddata: need at least one axis")
	}
	if len(shape) != len(axes) {
		return nil, fmt.Errorf("nddata: shape rank %d does not match axis count %d", len(shape), len(axes))
	}

	seen := make(map[string]bool, len(axes))
	total := 1
	for i, ax := range axes {
		if seen[ax.Name()] {
			return nil, fmt.Errorf("nddata: duplicate axis name %q", ax.Name())
		}
		seen[ax.Name()] = true
		if shape[i] != ax.NBin() {
			return nil, fmt.Errorf("nddata: shape mismatch on axis %d (%s): data has %d, axis has %d bins",
				i, ax.Name(), shape[i], ax.NBin())
		}
		total *= shape[i]
	}
	if total != len(data) {
		return nil, fmt.Errorf("nddata: data length %d does not match shape product %d", len(data), total)
	}

	strides := make([]int, len(shape))
	s := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = s
		s *= shape[i]
	}

	return &NDDataArray{axes: axes, data: data, shape: shape, strides: strides}, nil
}

// Axes returns the ordered axis tuple.
func (n *NDDataArray) Axes() []*MapAxis { return n.axes }

// Axis returns the axis with the given name, or nil.
func (n *NDDataArray) Axis(name string) *MapAxis {
	for _, ax := range n.axes {
		if ax.Name() == name {
			return ax
		}
	}
	return nil
}

// Data returns the flattened value array. The slice is owned by the
// NDDataArray; use DivideBy for in-place rescaling.
func (n *NDDataArray) Data() []float64 { return n.data }

// Shape returns the array dimensions in axis order.
func (n *NDDataArray) Shape() []int { return n.shape }

// At returns the value at the given multi-index.
func (n *NDDataArray) At(idx ...int) float64 {
	off := 0
	for i, j := range idx {
		off += j * n.strides[i]
	}
	return n.data[off]
}

// DivideBy rescales the data in place. No guard against zero or
// non-finite divisors: dividing by zero produces Inf/NaN values.
func (n *NDDataArray) DivideBy(v float64) {
	for i := range n.data {
		n.data[i] /= v
	}
}

// EvaluateGrid interpolates the array on the outer product of the
// given per-axis coordinates (in axis units). The result is flattened
// in C order with shape len(coords[0]) x ... x len(coords[k-1]).
// Out-of-range coordinates clamp to the nearest grid node.
func (n *NDDataArray) EvaluateGrid(coords [][]float64, method InterpMethod) ([]float64, []int, error) {
	if err := method.validate(); err != nil {
		return nil, nil, err
	}
	if len(coords) != len(n.axes) {
		return nil, nil, fmt.Errorf("nddata: got coordinates for %d axes, want %d", len(coords), len(n.axes))
	}

	weights := make([][]nodeWeight, len(coords))
	outShape := make([]int, len(coords))
	outLen := 1
	for i, cs := range coords {
		if len(cs) == 0 {
			return nil, nil, fmt.Errorf("nddata: empty coordinate list for axis %q", n.axes[i].Name())
		}
		ws := make([]nodeWeight, len(cs))
		for j, x := range cs {
			w := n.axes[i].lookup(x)
			if method == MethodNearest {
				// Snap to the closer node; exact midpoints resolve to
				// the lower index.
				if w.w > 0.5 {
					w.lo = w.hi
				}
				w.hi = w.lo
				w.w = 0
			}
			ws[j] = w
		}
		weights[i] = ws
		outShape[i] = len(cs)
		outLen *= len(cs)
	}

	out := make([]float64, outLen)
	idx := make([]int, len(coords))
	for o := 0; o < outLen; o++ {
		out[o] = n.evalPoint(weights, idx)
		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out, outShape, nil
}

// evalPoint accumulates the multilinear corner sum for one output
// point described by per-axis coordinate indices.
func (n *NDDataArray) evalPoint(weights [][]nodeWeight, idx []int) float64 {
	k := len(weights)
	corners := 1 << k
	var sum float64
	for c := 0; c < corners; c++ {
		w := 1.0
		off := 0
		for d := 0; d < k; d++ {
			nw := weights[d][idx[d]]
			if c&(1<<d) != 0 {
				w *= nw.w
				off += nw.hi * n.strides[d]
			} else {
				w *= 1 - nw.w
				off += nw.lo * n.strides[d]
			}
			if w == 0 {
				break
			}
		}
		if w != 0 {
			sum += w * n.data[off]
		}
	}
	return sum
}

// IntegrateRad computes the cumulative solid-angle integral
// 2*pi*r*f(r) dr over the trailing rad axis, up to each of the given
// upper bounds. The leading coordinate lists (one per non-rad axis, in
// axis units) form an outer-product grid; the result is flattened in C
// order with shape leading... x len(radMax). Upper bounds are in rad
// axis units; bounds beyond the node range clamp to the full integral.
func (n *NDDataArray) IntegrateRad(leading [][]float64, radMax []float64) ([]float64, []int, error) {
	last := n.axes[len(n.axes)-1]
	if err := last.AssertName(AxisRad); err != nil {
		return nil, nil, fmt.Errorf("nddata: radial integration needs trailing rad axis: %w", err)
	}
	if len(leading) != len(n.axes)-1 {
		return nil, nil, fmt.Errorf("nddata: got %d leading coordinate lists, want %d", len(leading), len(n.axes)-1)
	}

	radNodes := last.Center()
	coords := make([][]float64, 0, len(n.axes))
	coords = append(coords, leading...)
	coords = append(coords, radNodes)
	vals, shape, err := n.EvaluateGrid(coords, MethodLinear)
	if err != nil {
		return nil, nil, err
	}

	// Node positions in radians for the 2*pi*r weight; cumulative
	// lookup stays in axis units.
	radRad := make([]float64, len(radNodes))
	for i, r := range radNodes {
		a, err := units.AngleIn(r, last.Unit())
		if err != nil {
			return nil, nil, fmt.Errorf("nddata: rad axis: %w", err)
		}
		radRad[i] = a.Rad()
	}

	nRad := len(radNodes)
	nLead := len(vals) / nRad
	out := make([]float64, nLead*len(radMax))
	cum := make([]float64, nRad)
	for p := 0; p < nLead; p++ {
		f := vals[p*nRad : (p+1)*nRad]
		cum[0] = 0
		for i := 1; i < nRad; i++ {
			g0 := 2 * math.Pi * radRad[i-1] * f[i-1]
			g1 := 2 * math.Pi * radRad[i] * f[i]
			cum[i] = cum[i-1] + 0.5*(g0+g1)*(radRad[i]-radRad[i-1])
		}
		for j, rm := range radMax {
			out[p*len(radMax)+j] = interpCumulative(radNodes, cum, rm)
		}
	}

	outShape := make([]int, 0, len(n.axes))
	outShape = append(outShape, shape[:len(shape)-1]...)
	outShape = append(outShape, len(radMax))
	return out, outShape, nil
}

// interpCumulative linearly interpolates the cumulative integral at
// the upper bound x, clamping outside the node range.
func interpCumulative(nodes, cum []float64, x float64) float64 {
	n := len(nodes)
	if x <= nodes[0] {
		return cum[0]
	}
	if x >= nodes[n-1] {
		return cum[n-1]
	}
	i := sort.SearchFloat64s(nodes, x)
	if nodes[i] == x {
		return cum[i]
	}
	w := (x - nodes[i-1]) / (nodes[i] - nodes[i-1])
	return cum[i-1] + w*(cum[i]-cum[i-1])
}
