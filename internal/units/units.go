// Package units provides shared constants and conversions for the angle
// and energy quantities carried by IRF axes and data arrays.
// Axis arrays keep the unit they were constructed with; callers convert
// scalar coordinates at the boundary, never whole arrays.
package units

import (
	"fmt"
	"math"
)

// Unit name constants as they appear in axis and FITS column metadata.
const (
	UnitDeg = "deg"
	UnitRad = "rad"
	UnitMeV = "MeV"
	UnitGeV = "GeV"
	UnitTeV = "TeV"
)

// ValidAngleUnits contains all valid angle unit names.
var ValidAngleUnits = []string{UnitDeg, UnitRad}

// ValidEnergyUnits contains all valid energy unit names.
var ValidEnergyUnits = []string{UnitMeV, UnitGeV, UnitTeV}

// Angle is an angular quantity, stored internally in radians.
type Angle float64

// Deg constructs an Angle from a value in degrees.
func Deg(v float64) Angle { return Angle(v * math.Pi / 180) }

// Rad constructs an Angle from a value in radians.
func Rad(v float64) Angle { return Angle(v) }

// Deg returns the angle in degrees.
func (a Angle) Deg() float64 { return float64(a) * 180 / math.Pi }

// Rad returns the angle in radians.
func (a Angle) Rad() float64 { return float64(a) }

// In returns the angle expressed in the named unit.
func (a Angle) In(unit string) (float64, error) {
	switch unit {
	case UnitDeg:
		return a.Deg(), nil
	case UnitRad:
		return a.Rad(), nil
	}
	return 0, fmt.Errorf("unknown angle unit %q (valid: %v)", unit, ValidAngleUnits)
}

// AngleIn constructs an Angle from a value in the named unit.
func AngleIn(v float64, unit string) (Angle, error) {
	switch unit {
	case UnitDeg:
		return Deg(v), nil
	case UnitRad:
		return Rad(v), nil
	}
	return 0, fmt.Errorf("unknown angle unit %q (valid: %v)", unit, ValidAngleUnits)
}

// Energy is a photon energy, stored internally in MeV.
type Energy float64

// MeV constructs an Energy from a value in mega-electronvolt.
func MeV(v float64) Energy { return Energy(v) }

// GeV constructs an Energy from a value in giga-electronvolt.
func GeV(v float64) Energy { return Energy(v * 1e3) }

// TeV constructs an Energy from a value in tera-electronvolt.
func TeV(v float64) Energy { return Energy(v * 1e6) }

// MeV returns the energy in mega-electronvolt.
func (e Energy) MeV() float64 { return float64(e) }

// GeV returns the energy in giga-electronvolt.
func (e Energy) GeV() float64 { return float64(e) * 1e-3 }

// TeV returns the energy in tera-electronvolt.
func (e Energy) TeV() float64 { return float64(e) * 1e-6 }

// In returns the energy expressed in the named unit.
func (e Energy) In(unit string) (float64, error) {
	switch unit {
	case UnitMeV:
		return e.MeV(), nil
	case UnitGeV:
		return e.GeV(), nil
	case UnitTeV:
		return e.TeV(), nil
	}
	return 0, fmt.Errorf("unknown energy unit %q (valid: %v)", unit, ValidEnergyUnits)
}

// EnergyIn constructs an Energy from a value in the named unit.
func EnergyIn(v float64, unit string) (Energy, error) {
	switch unit {
	case UnitMeV:
		return MeV(v), nil
	case UnitGeV:
		return GeV(v), nil
	case UnitTeV:
		return TeV(v), nil
	}
	return 0, fmt.Errorf("unknown energy unit %q (valid: %v)", unit, ValidEnergyUnits)
}

// IsAngleUnit checks if the given unit names an angle unit.
func IsAngleUnit(unit string) bool {
	for _, u := range ValidAngleUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// IsEnergyUnit checks if the given unit names an energy unit.
func IsEnergyUnit(unit string) bool {
	for _, u := range ValidEnergyUnits {
		if unit == u {
			return true
		}
	}
	return false
}
