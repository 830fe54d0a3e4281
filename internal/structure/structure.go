// Package structure describes the site and building a ground-motion
// prediction is evaluated for.
package structure

import (
	"fmt"
	"math"
)

// ReferenceVS30 is the shear-wave velocity (m/s) of the idealized bedrock
// site used for unamplified ground-motion calculations.
const ReferenceVS30 = 760.0

// Structure is an immutable description of a building at a site: its
// fundamental vibration period, the soil stiffness beneath it (vs30), and
// its location. A period of 0 denotes rigid/bedrock conditions.
type Structure struct {
	Height    float64 // metres
	Latitude  float64 // degrees
	Longitude float64 // degrees
	VS30      float64 // m/s, top-30m average shear-wave velocity
	Period    float64 // seconds
}

// Validate reports whether the structure can drive an evaluation.
func (s Structure) Validate() error {
	if s.Height <= 0 {
		return fmt.Errorf("structure height must be positive, got %g", s.Height)
	}
	if s.VS30 <= 0 {
		return fmt.Errorf("structure vs30 must be positive, got %g", s.VS30)
	}
	if s.Period < 0 {
		return fmt.Errorf("structure period must be non-negative, got %g", s.Period)
	}
	return nil
}

// Ground returns the reference-rock variant of the structure: same height
// and location, period forced to 0 and vs30 to the bedrock reference. The
// returned value is independent of the receiver.
func (s Structure) Ground() Structure {
	return Structure{
		Height:    s.Height,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		VS30:      ReferenceVS30,
		Period:    0,
	}
}

// StructureType selects the ASCE 7-10 empirical period coefficients.
type StructureType string

const (
	SteelMRF            StructureType = "Steel MRF"
	ConcreteMRF         StructureType = "Concrete MRF"
	EccentricallyBraced StructureType = "Eccentrically braced SF"
	OtherSystems        StructureType = "Other systems"
)

// periodCoefficients hold the Ct and x parameters of ASCE 7-10 equation
// 12.8-7 (metric units).
type periodCoefficients struct {
	ct float64
	x  float64
}

var ascePeriodCoefficients = map[StructureType]periodCoefficients{
	SteelMRF:            {ct: 0.0724, x: 0.8},
	ConcreteMRF:         {ct: 0.0466, x: 0.9},
	EccentricallyBraced: {ct: 0.0731, x: 0.75},
	OtherSystems:        {ct: 0.0488, x: 0.75},
}

// ASCEPeriod computes the approximate fundamental period Ta = Ct * h^x per
// ASCE 7-10 equation 12.8-7 for a building of the given height in metres.
func ASCEPeriod(structureType StructureType, height float64) (float64, error) {
	if height <= 0 {
		return 0, fmt.Errorf("building height must be positive, got %g", height)
	}
	c, ok := ascePeriodCoefficients[structureType]
	if !ok {
		return 0, fmt.Errorf("unknown structure type %q", structureType)
	}
	return c.ct * math.Pow(height, c.x), nil
}

// NewASCEStructure builds a Structure whose period comes from the ASCE 7-10
// empirical period model.
func NewASCEStructure(structureType StructureType, height, lat, lon, vs30 float64) (Structure, error) {
	period, err := ASCEPeriod(structureType, height)
	if err != nil {
		return Structure{}, err
	}
	s := Structure{
		Height:    height,
		Latitude:  lat,
		Longitude: lon,
		VS30:      vs30,
		Period:    period,
	}
	if err := s.Validate(); err != nil {
		return Structure{}, err
	}
	return s, nil
}
