// psf-report reads a GADF DL3 psf_table file, renders containment
// plots (PNG) and an interactive HTML report, and records the file and
// its containment summary in the IRF index database.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gammaray-data/irf.report/internal/fsutil"
	"github.com/gammaray-data/irf.report/internal/irf"
	"github.com/gammaray-data/irf.report/internal/irfdb"
	"github.com/gammaray-data/irf.report/internal/report"
	"github.com/gammaray-data/irf.report/internal/units"
)

func main() {
	input := flag.String("input", "", "GADF DL3 psf_table FITS file")
	hdu := flag.String("hdu", "", "HDU name (defaults to PSF_2D_TABLE)")
	obsID := flag.Int64("obs-id", 0, "Observation ID for the database record")
	theta := flag.Float64("theta", 0, "Field-of-view offset in deg")
	fraction := flag.Float64("fraction", 0.68, "Containment fraction recorded in the database")
	outDir := flag.String("out", "psf-report", "Output directory for plots and HTML")
	dbPath := flag.String("db", "", "IRF index SQLite database (empty disables recording)")
	flag.Parse()

	if *input == "" {
		log.Fatal("missing required -input flag")
	}

	psf3d, err := irf.ReadPSF3D(*input, *hdu)
	if err != nil {
		log.Fatalf("failed to read psf_table file %s: %v", *input, err)
	}
	psf, err := psf3d.ToEnergyDependentTablePSF(units.Deg(*theta), nil, nil)
	if err != nil {
		log.Fatalf("failed to slice PSF at offset %g deg: %v", *theta, err)
	}

	if err := fsutil.EnsureDir(*outDir); err != nil {
		log.Fatalf("failed to create output directory %s: %v", *outDir, err)
	}

	title := fmt.Sprintf("%s (offset %g deg)", filepath.Base(*input), *theta)

	table, err := psf.TablePSFAtEnergy(units.TeV(1), irf.MethodLinear)
	if err != nil {
		log.Fatalf("failed to extract 1 TeV profile: %v", err)
	}
	profilePNG := filepath.Join(*outDir, "psf_profile.png")
	if err := report.PlotPSFVsRad(table, title, profilePNG); err != nil {
		log.Fatalf("failed to plot PSF profile: %v", err)
	}
	log.Printf("[PSFReport] wrote %s", profilePNG)

	containmentPNG := filepath.Join(*outDir, "containment.png")
	if err := report.PlotContainmentVsEnergy(psf, []float64{0.68, 0.95}, title, containmentPNG); err != nil {
		log.Fatalf("failed to plot containment: %v", err)
	}
	log.Printf("[PSFReport] wrote %s", containmentPNG)

	htmlPath := filepath.Join(*outDir, "report.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", htmlPath, err)
	}
	rep := report.DefaultContainmentReport(title)
	if err := rep.Render(psf, f); err != nil {
		f.Close()
		log.Fatalf("failed to render HTML report: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("failed to close %s: %v", htmlPath, err)
	}
	log.Printf("[PSFReport] wrote %s", htmlPath)

	if *dbPath != "" {
		if err := record(*dbPath, *obsID, *input, *hdu, psf, *theta, *fraction); err != nil {
			log.Fatalf("failed to record report in %s: %v", *dbPath, err)
		}
		log.Printf("[PSFReport] recorded obs %d in %s", *obsID, *dbPath)
	}
}

// record stores the HDU index entry and per-energy containment radii.
func record(dbPath string, obsID int64, input, hdu string, psf *irf.EnergyDependentTablePSF, theta, fraction float64) error {
	db, err := irfdb.NewDB(fsutil.ExpandPath(dbPath))
	if err != nil {
		return err
	}
	defer db.Close()

	hduName := hdu
	if hduName == "" {
		hduName = irf.DefaultPSF3DHDU
	}
	err = db.RecordHDU(irfdb.HDUIndexEntry{
		ObsID:    obsID,
		HDUType:  "psf_table",
		HDUName:  hduName,
		FilePath: fsutil.ExpandPath(input),
	})
	if err != nil {
		return err
	}

	axis := psf.EnergyAxis()
	energies := make([]units.Energy, axis.NBin())
	for i, c := range axis.Center() {
		e, err := units.EnergyIn(c, axis.Unit())
		if err != nil {
			return err
		}
		energies[i] = e
	}
	radii, err := psf.ContainmentRadius(energies, fraction)
	if err != nil {
		return err
	}
	for i, e := range energies {
		err := db.RecordContainment(irfdb.ContainmentEntry{
			ObsID:     obsID,
			EnergyTeV: e.TeV(),
			OffsetDeg: theta,
			Fraction:  fraction,
			RadiusDeg: radii[i].Deg(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
