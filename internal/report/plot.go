package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gammaray-data/irf.report/internal/irf"
	"github.com/gammaray-data/irf.report/internal/units"
)

// PlotPSFVsRad renders the radial PSF profile of a table PSF to a PNG
// file, with the density on a log scale.
func PlotPSFVsRad(psf *irf.TablePSF, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Radius (deg)"
	p.Y.Label.Text = "PSF (1 / sr)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	axis := psf.RadAxis()
	pts := make(plotter.XYs, 0, axis.NBin())
	for i, r := range axis.Center() {
		v := psf.Data().Data()[i]
		if v <= 0 {
			continue // log scale cannot show zeros
		}
		a, err := units.AngleIn(r, axis.Unit())
		if err != nil {
			return err
		}
		pts = append(pts, plotter.XY{X: a.Deg(), Y: v})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("psf profile line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// PlotContainmentVsEnergy renders containment radius versus energy for
// the given fractions to a PNG file.
func PlotContainmentVsEnergy(psf *irf.EnergyDependentTablePSF, fractions []float64, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Energy (TeV)"
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Label.Text = "Containment radius (deg)"

	axis := psf.EnergyAxis()
	energies := make([]units.Energy, axis.NBin())
	for i, c := range axis.Center() {
		e, err := units.EnergyIn(c, axis.Unit())
		if err != nil {
			return err
		}
		energies[i] = e
	}

	for _, fraction := range fractions {
		radii, err := psf.ContainmentRadius(energies, fraction)
		if err != nil {
			return fmt.Errorf("containment radius at %g: %w", fraction, err)
		}
		pts := make(plotter.XYs, len(energies))
		for i := range energies {
			pts[i] = plotter.XY{X: energies[i].TeV(), Y: radii[i].Deg()}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("containment line: %w", err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%.0f%% containment", 100*fraction), line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
