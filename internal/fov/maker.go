// Package fov normalizes a field-of-view background model against
// observed counts, outside an optional exclusion mask. The background
// amplitude can be scaled directly or fitted by minimizing the Poisson
// (Cash) statistic. Degenerate inputs and non-converged fits are
// logged as warnings and leave the dataset usable.
package fov

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/optimize"
)

// Method selects how the background norm is determined.
type Method string

const (
	// MethodScale sets the norm to the ratio of total counts to total
	// background outside the exclusion mask.
	MethodScale Method = "scale"
	// MethodFit minimizes the Cash statistic of the masked pixels.
	MethodFit Method = "fit"
)

// DefaultSpectralModelTag is the norm-family spectral model attached
// to datasets without a background model.
const DefaultSpectralModelTag = "pl-norm"

// BackgroundModel is the normalized background attached to a dataset:
// a norm-family spectral correction applied to the background
// template.
type BackgroundModel struct {
	DatasetName      string
	SpectralModelTag string
	Norm             float64
}

// MapDataset is the slice of the dataset interface the maker consumes:
// observed counts and the background template (both per pixel, norm=1)
// plus an optional fit mask.
type MapDataset struct {
	Name       string
	Counts     []float64
	Background []float64
	MaskFit    []bool // nil means all pixels participate
	Model      *BackgroundModel
}

// npredBackground returns the predicted background for pixel i under
// the current model.
func (d *MapDataset) npredBackground(i int) float64 {
	norm := 1.0
	if d.Model != nil {
		norm = d.Model.Norm
	}
	return norm * d.Background[i]
}

// Maker normalizes a dataset's background model over the field of
// view.
type Maker struct {
	method           Method
	exclusionMask    []bool // true = pixel participates in normalization
	spectralModelTag string
}

// NewMaker validates the method and spectral model tag. The tag must
// belong to the "norm" model family; anything else is an invalid
// configuration.
func NewMaker(method Method, exclusionMask []bool, spectralModelTag string) (*Maker, error) {
	switch method {
	case MethodScale, MethodFit:
	default:
		return nil, fmt.Errorf("not a valid method for background maker: %q", string(method))
	}
	if spectralModelTag == "" {
		spectralModelTag = DefaultSpectralModelTag
	}
	if !strings.Contains(spectralModelTag, "norm") {
		return nil, fmt.Errorf("spectral model must be a norm spectral model, got %q", spectralModelTag)
	}
	return &Maker{
		method:           method,
		exclusionMask:    exclusionMask,
		spectralModelTag: spectralModelTag,
	}, nil
}

// Run normalizes the dataset's background model in place and returns
// the dataset. A missing background model is created first. Failures
// are logged, never fatal: the dataset always comes back usable.
func (m *Maker) Run(ds *MapDataset) (*MapDataset, error) {
	if len(ds.Counts) != len(ds.Background) {
		return nil, fmt.Errorf("dataset %q: counts length %d != background length %d",
			ds.Name, len(ds.Counts), len(ds.Background))
	}

	if ds.Name == "" {
		ds.Name = uuid.NewString()
	}
	if ds.Model == nil {
		ds.Model = &BackgroundModel{
			DatasetName:      ds.Name,
			SpectralModelTag: m.spectralModelTag,
			Norm:             1,
		}
	}

	savedMask := ds.MaskFit
	if m.exclusionMask != nil {
		if len(m.exclusionMask) != len(ds.Counts) {
			return nil, fmt.Errorf("dataset %q: exclusion mask length %d != counts length %d",
				ds.Name, len(m.exclusionMask), len(ds.Counts))
		}
		ds.MaskFit = m.exclusionMask
	}

	if m.method == MethodFit {
		m.fitBkg(ds)
	} else {
		m.scaleBkg(ds)
	}

	ds.MaskFit = savedMask
	return ds, nil
}

// scaleBkg sets the norm to total counts over total predicted
// background in the masked region. Nonpositive totals are warned about
// and leave the model unnormalized.
func (m *Maker) scaleBkg(ds *MapDataset) {
	var countTot, bkgTot float64
	for i := range ds.Counts {
		if ds.MaskFit != nil && !ds.MaskFit[i] {
			continue
		}
		countTot += ds.Counts[i]
		bkgTot += ds.npredBackground(i)
	}

	if countTot <= 0 {
		log.Printf("[FoVBackgroundMaker] failed: no counts found outside exclusion mask for %s", ds.Name)
		return
	}
	if bkgTot <= 0 {
		log.Printf("[FoVBackgroundMaker] failed: no positive background found outside exclusion mask for %s", ds.Name)
		return
	}
	ds.Model.Norm *= countTot / bkgTot
}

// fitBkg fits the norm by minimizing the Cash statistic
// 2*sum(mu - n*ln(mu)) with mu = norm*background. On failure the
// previous norm is restored and a warning logged.
func (m *Maker) fitBkg(ds *MapDataset) {
	prevNorm := ds.Model.Norm

	cash := func(x []float64) float64 {
		norm := x[0]
		if norm <= 0 {
			return math.Inf(1)
		}
		var stat float64
		for i := range ds.Counts {
			if ds.MaskFit != nil && !ds.MaskFit[i] {
				continue
			}
			mu := norm * ds.Background[i]
			if mu <= 0 {
				if ds.Counts[i] > 0 {
					return math.Inf(1)
				}
				continue
			}
			stat += 2 * (mu - ds.Counts[i]*math.Log(mu))
		}
		return stat
	}

	problem := optimize.Problem{Func: cash}
	result, err := optimize.Minimize(problem, []float64{prevNorm}, nil, &optimize.NelderMead{})
	if err != nil || result == nil || !isFiniteNorm(result.X) {
		log.Printf("[FoVBackgroundMaker] fit did not converge for %s; background model parameters restored", ds.Name)
		ds.Model.Norm = prevNorm
		return
	}
	ds.Model.Norm = result.X[0]
}

func isFiniteNorm(x []float64) bool {
	return len(x) == 1 && !math.IsNaN(x[0]) && !math.IsInf(x[0], 0) && x[0] > 0
}
