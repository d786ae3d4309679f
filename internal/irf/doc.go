// Package irf owns the instrument response function (IRF) data model
// for point spread functions.
//
// Responsibilities: coordinate axes (MapAxis), gridded unit-carrying
// data with interpolation (NDDataArray), the PSF family (TablePSF,
// EnergyDependentTablePSF, PSF3D) and their FITS interchange formats.
// Key invariants: axis names are fixed per PSF type, data arrays are
// exclusively owned by their PSF, axes are immutable and may be shared
// across derived PSFs.
//
// Dependency rule: irf may depend on units, fitstable and fsutil, but
// never on fov, irfdb or report. No SQL/database code is allowed in
// this package.
package irf
