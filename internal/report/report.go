// Package report renders PSF summaries: static PNG plots via gonum
// plot and an interactive HTML containment report via go-echarts.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/gammaray-data/irf.report/internal/irf"
	"github.com/gammaray-data/irf.report/internal/units"
)

// ContainmentReport describes one interactive HTML report: containment
// radius versus energy at a set of fractions, plus the radial profile
// at a set of reference energies.
type ContainmentReport struct {
	Title     string
	Fractions []float64      // defaults to 68% and 95%
	Energies  []units.Energy // profile reference energies; defaults to 1 and 10 TeV
}

// DefaultContainmentReport returns the standard report configuration.
func DefaultContainmentReport(title string) ContainmentReport {
	return ContainmentReport{
		Title:     title,
		Fractions: []float64{0.68, 0.95},
		Energies:  []units.Energy{units.TeV(1), units.TeV(10)},
	}
}

// Render writes the report as a standalone HTML page.
func (r ContainmentReport) Render(psf *irf.EnergyDependentTablePSF, w io.Writer) error {
	fractions := r.Fractions
	if len(fractions) == 0 {
		fractions = []float64{0.68, 0.95}
	}
	refEnergies := r.Energies
	if len(refEnergies) == 0 {
		refEnergies = []units.Energy{units.TeV(1), units.TeV(10)}
	}

	containment, err := r.containmentChart(psf, fractions)
	if err != nil {
		return err
	}
	profile, err := r.profileChart(psf, refEnergies)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = r.Title
	page.AddCharts(containment, profile)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render containment report: %w", err)
	}
	return nil
}

// containmentChart builds the containment-radius-vs-energy line chart.
func (r ContainmentReport) containmentChart(psf *irf.EnergyDependentTablePSF, fractions []float64) (*charts.Line, error) {
	axis := psf.EnergyAxis()
	energies := make([]units.Energy, axis.NBin())
	xLabels := make([]string, axis.NBin())
	for i, c := range axis.Center() {
		e, err := units.EnergyIn(c, axis.Unit())
		if err != nil {
			return nil, err
		}
		energies[i] = e
		xLabels[i] = fmt.Sprintf("%.3g", e.TeV())
	}

	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: r.Title,
			Width:     "1100px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Containment Radius vs Energy",
			Subtitle: r.Title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Energy (TeV)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Radius (deg)"}),
	)

	chart.SetXAxis(xLabels)
	for _, fraction := range fractions {
		radii, err := psf.ContainmentRadius(energies, fraction)
		if err != nil {
			return nil, fmt.Errorf("containment radius at %g: %w", fraction, err)
		}
		data := make([]opts.LineData, len(radii))
		for i, radius := range radii {
			data[i] = opts.LineData{Value: radius.Deg()}
		}
		chart.AddSeries(fmt.Sprintf("%.0f%%", 100*fraction), data)
	}
	return chart, nil
}

// profileChart builds the radial-profile line chart at the reference
// energies.
func (r ContainmentReport) profileChart(psf *irf.EnergyDependentTablePSF, energies []units.Energy) (*charts.Line, error) {
	axis := psf.RadAxis()
	xLabels := make([]string, axis.NBin())
	for i, c := range axis.Center() {
		a, err := units.AngleIn(c, axis.Unit())
		if err != nil {
			return nil, err
		}
		xLabels[i] = fmt.Sprintf("%.3g", a.Deg())
	}

	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: r.Title,
			Width:     "1100px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "PSF Radial Profile",
			Subtitle: r.Title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Radius (deg)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PSF (1 / sr)", Type: "log"}),
	)

	chart.SetXAxis(xLabels)
	for _, energy := range energies {
		rows, err := psf.Evaluate([]units.Energy{energy}, nil, irf.MethodLinear)
		if err != nil {
			return nil, fmt.Errorf("evaluate profile at %g TeV: %w", energy.TeV(), err)
		}
		data := make([]opts.LineData, len(rows[0]))
		for i, v := range rows[0] {
			data[i] = opts.LineData{Value: v}
		}
		chart.AddSeries(fmt.Sprintf("%g TeV", energy.TeV()), data)
	}
	return chart, nil
}
