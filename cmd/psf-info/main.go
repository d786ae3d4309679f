// psf-info prints a summary of a PSF FITS file: axes, containment
// radii, and (for gtpsf files) the exposure-weighted band PSF.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gammaray-data/irf.report/internal/irf"
	"github.com/gammaray-data/irf.report/internal/units"
)

func main() {
	input := flag.String("input", "", "PSF FITS file to inspect")
	format := flag.String("format", "gtpsf", "Input format: 'gtpsf' or 'psf_table'")
	hdu := flag.String("hdu", "", "HDU name for psf_table input (defaults to PSF_2D_TABLE)")
	theta := flag.Float64("theta", 0, "Field-of-view offset in deg (psf_table only)")
	fraction := flag.Float64("fraction", 0.68, "Containment fraction for the radius summary")
	flag.Parse()

	if *input == "" {
		log.Fatal("missing required -input flag")
	}

	switch *format {
	case "gtpsf":
		psf, err := irf.ReadGTPSF(*input)
		if err != nil {
			log.Fatalf("failed to read gtpsf file %s: %v", *input, err)
		}
		fmt.Print(psf.Info())

	case "psf_table":
		psf3d, err := irf.ReadPSF3D(*input, *hdu)
		if err != nil {
			log.Fatalf("failed to read psf_table file %s: %v", *input, err)
		}
		fmt.Print(psf3d.String())
		printThresholds(psf3d)

		psf, err := psf3d.ToEnergyDependentTablePSF(units.Deg(*theta), nil, nil)
		if err != nil {
			log.Fatalf("failed to slice PSF at offset %g deg: %v", *theta, err)
		}
		fmt.Printf("\nAt offset %g deg:\n", *theta)
		fmt.Print(psf.Info())
		printContainment(psf, *fraction)

	default:
		log.Fatalf("unknown format %q (want 'gtpsf' or 'psf_table')", *format)
	}
}

func printThresholds(p *irf.PSF3D) {
	lo, errLo := p.EnergyThreshLo()
	hi, errHi := p.EnergyThreshHi()
	if errLo != nil || errHi != nil {
		fmt.Println("safe energy range: not set")
		return
	}
	fmt.Printf("safe energy range: %g .. %g TeV\n", lo.TeV(), hi.TeV())
}

func printContainment(p *irf.EnergyDependentTablePSF, fraction float64) {
	axis := p.EnergyAxis()
	energies := make([]units.Energy, axis.NBin())
	for i, c := range axis.Center() {
		e, err := units.EnergyIn(c, axis.Unit())
		if err != nil {
			log.Fatalf("bad energy axis unit %q: %v", axis.Unit(), err)
		}
		energies[i] = e
	}

	radii, err := p.ContainmentRadius(energies, fraction)
	if err != nil {
		log.Fatalf("containment radius failed: %v", err)
	}
	fmt.Printf("\n%.0f%% containment radius:\n", 100*fraction)
	for i, e := range energies {
		fmt.Printf("  %10.4g TeV  %8.4f deg\n", e.TeV(), radii[i].Deg())
	}
}
