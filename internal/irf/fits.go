package irf

import (
	"fmt"

	"github.com/gammaray-data/irf.report/internal/fitstable"
	"github.com/gammaray-data/irf.report/internal/fsutil"
)

// gtpsf format: a THETA table holding the rad nodes and a PSF table
// holding energy nodes, exposure and the PSF cube. Field names and
// units are fixed by the interchange convention; round trips preserve
// node values and the data array exactly.
const (
	gtpsfThetaHDU = "THETA"
	gtpsfPSFHDU   = "PSF"
)

// DefaultPSF3DHDU is the conventional extension name of a GADF DL3
// PSF table.
const DefaultPSF3DHDU = "PSF_2D_TABLE"

// ReadGTPSF reads an EnergyDependentTablePSF from a gtpsf-format FITS
// file. The path may contain environment-variable references.
func ReadGTPSF(path string) (*EnergyDependentTablePSF, error) {
	f, err := fitstable.Open(fsutil.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	theta, err := f.Table(gtpsfThetaHDU)
	if err != nil {
		return nil, err
	}
	rad, err := theta.ReadFloatColumn("Theta")
	if err != nil {
		return nil, err
	}
	radAxis, err := AxisFromNodes(AxisRad, "deg", rad, InterpLinear)
	if err != nil {
		return nil, err
	}

	psf, err := f.Table(gtpsfPSFHDU)
	if err != nil {
		return nil, err
	}
	energy, err := psf.ReadFloatColumn("Energy")
	if err != nil {
		return nil, err
	}
	energyAxis, err := AxisFromNodes(AxisEnergyTrue, "MeV", energy, InterpLog)
	if err != nil {
		return nil, err
	}
	exposure, err := psf.ReadFloatColumn("Exposure")
	if err != nil {
		return nil, err
	}
	cube, err := psf.ReadArrayColumn("PSF")
	if err != nil {
		return nil, err
	}

	if len(cube) != energyAxis.NBin() {
		return nil, fmt.Errorf("gtpsf: PSF column has %d rows, want %d energies", len(cube), energyAxis.NBin())
	}
	data := make([]float64, 0, energyAxis.NBin()*radAxis.NBin())
	for i, row := range cube {
		if len(row) != radAxis.NBin() {
			return nil, fmt.Errorf("gtpsf: PSF row %d has %d values, want %d rad nodes", i, len(row), radAxis.NBin())
		}
		data = append(data, row...)
	}

	return NewEnergyDependentTablePSF(energyAxis, radAxis, exposure, data)
}

// WriteGTPSF writes the PSF to a gtpsf-format FITS file.
func (p *EnergyDependentTablePSF) WriteGTPSF(path string) error {
	radAxis := p.RadAxis()
	energyAxis := p.EnergyAxis()
	nRad := radAxis.NBin()

	thetaRows := make([][]interface{}, nRad)
	for i, r := range radAxis.Center() {
		thetaRows[i] = []interface{}{r}
	}

	psfRows := make([][]interface{}, energyAxis.NBin())
	for i, e := range energyAxis.Center() {
		row := p.data.Data()[i*nRad : (i+1)*nRad]
		psfRows[i] = []interface{}{e, p.exposure[i], row}
	}

	return fitstable.Write(fsutil.ExpandPath(path), []fitstable.TableSpec{
		{
			Name: gtpsfThetaHDU,
			Cols: []fitstable.ColumnDef{{Name: "Theta", Unit: "deg", Repeat: 1}},
			Rows: thetaRows,
		},
		{
			Name: gtpsfPSFHDU,
			Cols: []fitstable.ColumnDef{
				{Name: "Energy", Unit: "MeV", Repeat: 1},
				{Name: "Exposure", Unit: "cm2 s", Repeat: 1},
				{Name: "PSF", Unit: "sr-1", Repeat: nRad},
			},
			Rows: psfRows,
		},
	})
}

// ReadPSF3D reads a PSF3D from a GADF DL3 psf_table FITS file. An
// empty hduName selects the conventional extension name.
func ReadPSF3D(path, hduName string) (*PSF3D, error) {
	if hduName == "" {
		hduName = DefaultPSF3DHDU
	}
	f, err := fitstable.Open(fsutil.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl, err := f.Table(hduName)
	if err != nil {
		return nil, err
	}

	energyAxis, err := axisFromEdgeColumns(tbl, "ENERG", AxisEnergyTrue, "TeV", InterpLog)
	if err != nil {
		return nil, err
	}
	offsetAxis, err := axisFromEdgeColumns(tbl, "THETA", AxisOffset, "deg", InterpLinear)
	if err != nil {
		return nil, err
	}
	radAxis, err := axisFromEdgeColumns(tbl, "RAD", AxisRad, "deg", InterpLinear)
	if err != nil {
		return nil, err
	}

	rpsf, err := tbl.ReadArrayColumn("RPSF")
	if err != nil {
		return nil, err
	}
	if len(rpsf) != 1 {
		return nil, fmt.Errorf("psf_table: expected single-row RPSF column, got %d rows", len(rpsf))
	}

	nE, nO, nR := energyAxis.NBin(), offsetAxis.NBin(), radAxis.NBin()
	disk := rpsf[0]
	if len(disk) != nE*nO*nR {
		return nil, fmt.Errorf("psf_table: RPSF has %d values, want %d", len(disk), nE*nO*nR)
	}

	// On-disk order is (rad, offset, energy); transpose into the
	// in-memory (energy, offset, rad) order.
	data := make([]float64, len(disk))
	for r := 0; r < nR; r++ {
		for o := 0; o < nO; o++ {
			for e := 0; e < nE; e++ {
				data[(e*nO+o)*nR+r] = disk[(r*nO+o)*nE+e]
			}
		}
	}

	meta := map[string]any{}
	if v, ok := tbl.HeaderFloat(MetaLoThres); ok {
		meta[MetaLoThres] = v
	}
	if v, ok := tbl.HeaderFloat(MetaHiThres); ok {
		meta[MetaHiThres] = v
	}

	return NewPSF3D(energyAxis, offsetAxis, radAxis, data, []int{nE, nO, nR}, meta)
}

// Write writes the PSF to a GADF DL3 psf_table FITS file. The safe
// energy thresholds must be present in meta; they are serialized as
// LO_THRES/HI_THRES header keys.
func (p *PSF3D) Write(path string) error {
	lo, err := p.EnergyThreshLo()
	if err != nil {
		return fmt.Errorf("psf_table write: %w", err)
	}
	hi, err := p.EnergyThreshHi()
	if err != nil {
		return fmt.Errorf("psf_table write: %w", err)
	}

	energyAxis, offsetAxis, radAxis := p.EnergyAxis(), p.OffsetAxis(), p.RadAxis()
	nE, nO, nR := energyAxis.NBin(), offsetAxis.NBin(), radAxis.NBin()

	// Transpose the in-memory (energy, offset, rad) cube into the
	// on-disk (rad, offset, energy) order.
	mem := p.data.Data()
	disk := make([]float64, len(mem))
	for e := 0; e < nE; e++ {
		for o := 0; o < nO; o++ {
			for r := 0; r < nR; r++ {
				disk[(r*nO+o)*nE+e] = mem[(e*nO+o)*nR+r]
			}
		}
	}

	eLo, eHi := edgePairs(energyAxis)
	oLo, oHi := edgePairs(offsetAxis)
	rLo, rHi := edgePairs(radAxis)

	return fitstable.Write(fsutil.ExpandPath(path), []fitstable.TableSpec{
		{
			Name: DefaultPSF3DHDU,
			Cols: []fitstable.ColumnDef{
				{Name: "ENERG_LO", Unit: "TeV", Repeat: nE},
				{Name: "ENERG_HI", Unit: "TeV", Repeat: nE},
				{Name: "THETA_LO", Unit: "deg", Repeat: nO},
				{Name: "THETA_HI", Unit: "deg", Repeat: nO},
				{Name: "RAD_LO", Unit: "deg", Repeat: nR},
				{Name: "RAD_HI", Unit: "deg", Repeat: nR},
				{Name: "RPSF", Unit: "sr-1", Repeat: nE * nO * nR},
			},
			Rows: [][]interface{}{
				{eLo, eHi, oLo, oHi, rLo, rHi, disk},
			},
			Cards: []fitstable.Card{
				{Name: MetaLoThres, Value: lo.TeV(), Comment: "Low safe energy threshold (TeV)"},
				{Name: MetaHiThres, Value: hi.TeV(), Comment: "High safe energy threshold (TeV)"},
			},
		},
	})
}

// axisFromEdgeColumns builds an axis from the GADF <prefix>_LO /
// <prefix>_HI edge-pair columns of a single-row table.
func axisFromEdgeColumns(tbl *fitstable.Table, prefix, name, unit string, interp AxisInterp) (*MapAxis, error) {
	lo, err := tbl.ReadArrayColumn(prefix + "_LO")
	if err != nil {
		return nil, err
	}
	hi, err := tbl.ReadArrayColumn(prefix + "_HI")
	if err != nil {
		return nil, err
	}
	if len(lo) != 1 || len(hi) != 1 {
		return nil, fmt.Errorf("psf_table: %s edge columns must be single-row", prefix)
	}
	los, his := lo[0], hi[0]
	if len(los) != len(his) || len(los) == 0 {
		return nil, fmt.Errorf("psf_table: %s edge columns disagree (%d vs %d)", prefix, len(los), len(his))
	}

	edges := make([]float64, 0, len(los)+1)
	edges = append(edges, los[0])
	for i := range los {
		if i > 0 && los[i] != his[i-1] {
			return nil, fmt.Errorf("psf_table: %s edges not contiguous at bin %d", prefix, i)
		}
		edges = append(edges, his[i])
	}
	return AxisFromEdges(name, unit, edges, interp)
}

// edgePairs splits axis edges into the GADF _LO/_HI pair arrays.
func edgePairs(axis *MapAxis) (lo, hi []float64) {
	edges := axis.Edges()
	n := axis.NBin()
	lo = make([]float64, n)
	hi = make([]float64, n)
	for i := 0; i < n; i++ {
		lo[i] = edges[i]
		hi[i] = edges[i+1]
	}
	return lo, hi
}
