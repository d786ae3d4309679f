// Package fitstable is a thin layer over FITS binary tables, scoped to
// what the IRF interchange formats need: open a file, locate a named
// table HDU, read scalar and array-valued columns, and write HDU lists
// with header cards. File handles are closed on all paths.
package fitstable

import (
	"fmt"
	"os"
	"reflect"

	"github.com/astrogo/fitsio"
)

// File is an open FITS file.
type File struct {
	src  *os.File
	fits *fitsio.File
}

// Open opens a FITS file for reading.
func Open(path string) (*File, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	f, err := fitsio.Open(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("parse FITS %s: %w", path, err)
	}
	return &File{src: src, fits: f}, nil
}

// Close releases the FITS decoder and the underlying file.
func (f *File) Close() error {
	ferr := f.fits.Close()
	serr := f.src.Close()
	if ferr != nil {
		return ferr
	}
	return serr
}

// Table locates a binary table HDU by extension name.
func (f *File) Table(name string) (*Table, error) {
	for _, hdu := range f.fits.HDUs() {
		if hdu.Name() != name {
			continue
		}
		tbl, ok := hdu.(*fitsio.Table)
		if !ok {
			return nil, fmt.Errorf("HDU %q is not a binary table", name)
		}
		return &Table{tbl: tbl}, nil
	}
	return nil, fmt.Errorf("no HDU named %q", name)
}

// TableAt returns the binary table HDU at the given index.
func (f *File) TableAt(i int) (*Table, error) {
	hdus := f.fits.HDUs()
	if i < 0 || i >= len(hdus) {
		return nil, fmt.Errorf("HDU index %d out of range (%d HDUs)", i, len(hdus))
	}
	tbl, ok := hdus[i].(*fitsio.Table)
	if !ok {
		return nil, fmt.Errorf("HDU %d is not a binary table", i)
	}
	return &Table{tbl: tbl}, nil
}

// Table is a binary table HDU opened for reading.
type Table struct {
	tbl *fitsio.Table
}

// Name returns the extension name.
func (t *Table) Name() string { return t.tbl.Name() }

// NumRows returns the row count.
func (t *Table) NumRows() int64 { return t.tbl.NumRows() }

// HeaderFloat reads a numeric header card. The second return reports
// whether the key exists and is numeric.
func (t *Table) HeaderFloat(key string) (float64, bool) {
	card := t.tbl.Header().Get(key)
	if card == nil {
		return 0, false
	}
	switch v := card.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (t *Table) hasColumn(name string) bool {
	for _, col := range t.tbl.Cols() {
		if col.Name == name {
			return true
		}
	}
	return false
}

// ReadFloatColumn reads a scalar float column over all rows.
func (t *Table) ReadFloatColumn(name string) ([]float64, error) {
	if !t.hasColumn(name) {
		return nil, fmt.Errorf("table %q has no column %q", t.Name(), name)
	}

	rows, err := t.tbl.Read(0, t.tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("read table %q: %w", t.Name(), err)
	}
	defer rows.Close()

	out := make([]float64, 0, t.tbl.NumRows())
	for rows.Next() {
		cell := make(map[string]interface{})
		if err := rows.Scan(&cell); err != nil {
			return nil, fmt.Errorf("scan table %q: %w", t.Name(), err)
		}
		v, err := asFloat(cell[name])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %q: %w", t.Name(), err)
	}
	return out, nil
}

// ReadArrayColumn reads an array-valued float column, one slice per
// row.
func (t *Table) ReadArrayColumn(name string) ([][]float64, error) {
	if !t.hasColumn(name) {
		return nil, fmt.Errorf("table %q has no column %q", t.Name(), name)
	}

	rows, err := t.tbl.Read(0, t.tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("read table %q: %w", t.Name(), err)
	}
	defer rows.Close()

	out := make([][]float64, 0, t.tbl.NumRows())
	for rows.Next() {
		cell := make(map[string]interface{})
		if err := rows.Scan(&cell); err != nil {
			return nil, fmt.Errorf("scan table %q: %w", t.Name(), err)
		}
		v, err := asFloatSlice(cell[name])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %q: %w", t.Name(), err)
	}
	return out, nil
}

func asFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case nil:
		return 0, fmt.Errorf("missing value")
	}
	return 0, fmt.Errorf("unexpected cell type %T", v)
}

func asFloatSlice(v interface{}) ([]float64, error) {
	switch x := v.(type) {
	case []float64:
		return x, nil
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("missing value")
	}

	// Fixed-repeat columns ("ND") scan as fixed-size Go arrays.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array || rv.Kind() == reflect.Slice {
		out := make([]float64, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			switch e := rv.Index(i).Interface().(type) {
			case float64:
				out[i] = e
			case float32:
				out[i] = float64(e)
			default:
				return nil, fmt.Errorf("unexpected array element type %T", e)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected cell type %T", v)
}

// ColumnDef declares one output column. Repeat 1 means a scalar
// column; larger values declare a fixed-length array column. All
// columns are 64-bit floats.
type ColumnDef struct {
	Name   string
	Unit   string
	Repeat int
}

// Card is a header keyword to set on a written table HDU.
type Card struct {
	Name    string
	Value   interface{}
	Comment string
}

// TableSpec describes one binary table extension to write. Rows hold
// cell values in column order: float64 for scalar columns, []float64
// for array columns.
type TableSpec struct {
	Name  string
	Cols  []ColumnDef
	Rows  [][]interface{}
	Cards []Card
}

// Write creates a FITS file with an empty primary HDU followed by the
// given binary tables. The file is closed on all paths.
func Write(path string, tables []TableSpec) (err error) {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	f, err := fitsio.Create(dst)
	if err != nil {
		return fmt.Errorf("create FITS %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		return fmt.Errorf("primary HDU: %w", err)
	}
	if err := f.Write(phdu); err != nil {
		return fmt.Errorf("write primary HDU: %w", err)
	}

	for _, spec := range tables {
		if err := writeTable(f, spec); err != nil {
			return fmt.Errorf("table %q: %w", spec.Name, err)
		}
	}
	return nil
}

func writeTable(f *fitsio.File, spec TableSpec) error {
	cols := make([]fitsio.Column, len(spec.Cols))
	for i, c := range spec.Cols {
		format := "D"
		if c.Repeat > 1 {
			format = fmt.Sprintf("%dD", c.Repeat)
		}
		cols[i] = fitsio.Column{Name: c.Name, Format: format, Unit: c.Unit}
	}

	tbl, err := fitsio.NewTable(spec.Name, cols, fitsio.BINARY_TBL)
	if err != nil {
		return err
	}
	defer tbl.Close()

	for _, card := range spec.Cards {
		if err := tbl.Header().Append(fitsio.Card{
			Name:    card.Name,
			Value:   card.Value,
			Comment: card.Comment,
		}); err != nil {
			return fmt.Errorf("header card %s: %w", card.Name, err)
		}
	}

	for r, row := range spec.Rows {
		if len(row) != len(spec.Cols) {
			return fmt.Errorf("row %d has %d cells, want %d", r, len(row), len(spec.Cols))
		}
		args := make([]interface{}, len(row))
		for i := range row {
			switch v := row[i].(type) {
			case float64:
				val := v
				args[i] = &val
			case []float64:
				if len(v) != spec.Cols[i].Repeat {
					return fmt.Errorf("row %d column %q: %d values, want repeat %d",
						r, spec.Cols[i].Name, len(v), spec.Cols[i].Repeat)
				}
				// Fixed-repeat columns must be written as fixed-size
				// arrays; a slice would serialize as a variable-length
				// descriptor.
				arr := reflect.New(reflect.ArrayOf(spec.Cols[i].Repeat, reflect.TypeOf(float64(0))))
				reflect.Copy(arr.Elem(), reflect.ValueOf(v))
				args[i] = arr.Interface()
			default:
				return fmt.Errorf("row %d column %q: unsupported cell type %T", r, spec.Cols[i].Name, row[i])
			}
		}
		if err := tbl.Write(args...); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}

	return f.Write(tbl)
}
