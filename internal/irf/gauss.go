package irf

import "math"

// Gauss2DPDF is a radially symmetric 2-D Gaussian probability density,
// normalized to unit integral over the plane. Sigma and evaluation
// radii are in radians; the returned density is per steradian.
type Gauss2DPDF struct {
	Sigma float64
}

// At evaluates the density at radius r (radians).
func (g Gauss2DPDF) At(r float64) float64 {
	s2 := g.Sigma * g.Sigma
	return math.Exp(-0.5*r*r/s2) / (2 * math.Pi * s2)
}

// ContainmentRadius returns the radius (radians) enclosing the given
// probability fraction. Used as the analytic reference for table PSFs.
func (g Gauss2DPDF) ContainmentRadius(fraction float64) float64 {
	return g.Sigma * math.Sqrt(2*math.Log(1/(1-fraction)))
}
