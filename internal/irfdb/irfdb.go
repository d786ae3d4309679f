// Package irfdb stores an index of IRF files and derived containment
// summaries in SQLite, in the spirit of the GADF hdu-index table:
// report tooling uses it to list previously indexed PSF files per
// observation without re-reading them.
package irfdb

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
}

// HDUIndexEntry records one IRF HDU living in a FITS file.
type HDUIndexEntry struct {
	ObsID    int64
	HDUType  string // e.g. "psf_table", "gtpsf"
	HDUName  string // FITS extension name
	FilePath string
}

// ContainmentEntry records one derived containment radius.
type ContainmentEntry struct {
	ObsID     int64
	EnergyTeV float64
	OffsetDeg float64
	Fraction  float64
	RadiusDeg float64
}

// NewDB opens (creating if needed) an IRF index database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS irf_hdu_index (
			obs_id            BIGINT NOT NULL,
			hdu_type          TEXT NOT NULL,
			hdu_name          TEXT NOT NULL,
			file_path         TEXT NOT NULL,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS psf_containment (
			obs_id            BIGINT NOT NULL,
			energy_tev        DOUBLE NOT NULL,
			offset_deg        DOUBLE NOT NULL,
			fraction          DOUBLE NOT NULL,
			radius_deg        DOUBLE NOT NULL,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_hdu_obs ON irf_hdu_index(obs_id);
		CREATE INDEX IF NOT EXISTS idx_containment_obs ON psf_containment(obs_id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create irfdb schema: %w", err)
	}

	return &DB{db}, nil
}

// RecordHDU inserts one HDU index entry.
func (db *DB) RecordHDU(e HDUIndexEntry) error {
	_, err := db.Exec(
		`INSERT INTO irf_hdu_index (obs_id, hdu_type, hdu_name, file_path, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ObsID, e.HDUType, e.HDUName, e.FilePath, time.Now().UTC(),
	)
	return err
}

// ListHDUs returns the HDU entries recorded for one observation.
func (db *DB) ListHDUs(obsID int64) ([]HDUIndexEntry, error) {
	rows, err := db.Query(
		`SELECT obs_id, hdu_type, hdu_name, file_path
		 FROM irf_hdu_index WHERE obs_id = ? ORDER BY rowid`,
		obsID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HDUIndexEntry
	for rows.Next() {
		var e HDUIndexEntry
		if err := rows.Scan(&e.ObsID, &e.HDUType, &e.HDUName, &e.FilePath); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecordContainment inserts one containment summary row.
func (db *DB) RecordContainment(e ContainmentEntry) error {
	_, err := db.Exec(
		`INSERT INTO psf_containment (obs_id, energy_tev, offset_deg, fraction, radius_deg, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ObsID, e.EnergyTeV, e.OffsetDeg, e.Fraction, e.RadiusDeg, time.Now().UTC(),
	)
	return err
}

// ListContainment returns the containment rows recorded for one
// observation, ordered by energy then offset.
func (db *DB) ListContainment(obsID int64) ([]ContainmentEntry, error) {
	rows, err := db.Query(
		`SELECT obs_id, energy_tev, offset_deg, fraction, radius_deg
		 FROM psf_containment WHERE obs_id = ? ORDER BY energy_tev, offset_deg`,
		obsID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ContainmentEntry
	for rows.Next() {
		var e ContainmentEntry
		if err := rows.Scan(&e.ObsID, &e.EnergyTeV, &e.OffsetDeg, &e.Fraction, &e.RadiusDeg); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
