// Package gmpe defines the contracts for evaluating empirical Ground Motion
// Prediction Equations: coefficient lookup, the event/path/site functional
// terms, and the two-pass evaluator that combines them.
//
// A GMPE predicts a ground-motion intensity measure (log peak ground
// acceleration or spectral acceleration) as the sum of independently modeled
// physical contributions: the earthquake source (event term), wave
// propagation (path term), and local soil response (site term). Each term
// pulls its regression coefficients from a model table keyed by the
// structure's fundamental period, so a fresh term trio is built for every
// period being evaluated.
package gmpe

import (
	"fmt"

	"github.com/justinschembri/isprs/internal/structure"
)

// FaultType enumerates the rupture mechanisms BSSA-style models distinguish.
type FaultType string

const (
	FaultUnspecified FaultType = "U"
	FaultStrikeSlip  FaultType = "SS"
	FaultNormal      FaultType = "NS"
	FaultReverse     FaultType = "RS"
)

// Valid reports whether f is one of the known mechanisms.
func (f FaultType) Valid() bool {
	switch f {
	case FaultUnspecified, FaultStrikeSlip, FaultNormal, FaultReverse:
		return true
	}
	return false
}

// Scenario is one earthquake case to evaluate against a site.
type Scenario struct {
	Magnitude  float64 // moment magnitude
	DistanceJB float64 // Joyner-Boore distance, km
	Fault      FaultType
}

// Validate reports whether the scenario can drive an evaluation.
func (s Scenario) Validate() error {
	if s.DistanceJB < 0 {
		return &PreconditionError{Reason: fmt.Sprintf("rjb distance must be non-negative, got %g", s.DistanceJB)}
	}
	if !s.Fault.Valid() {
		return &PreconditionError{Reason: fmt.Sprintf("unknown fault type %q", s.Fault)}
	}
	return nil
}

// CoefficientSource resolves model regression coefficients by name and
// period. Implementations are read-only after construction and safe for
// concurrent use.
type CoefficientSource interface {
	// Lookup returns the coefficient value for the given name at the given
	// period, or a *CoefficientNotFoundError.
	Lookup(name string, period float64) (float64, error)

	// LookupAll resolves every name against the same period in one pass.
	// Resolution is atomic: either all names resolve or an error is
	// returned and no partial mapping exists.
	LookupAll(names []string, period float64) (map[string]float64, error)
}

// Term is one physical contribution to the predicted intensity.
type Term interface {
	Calculate() (float64, error)
}

// SiteTerm is the soil-response contribution. Its nonlinear component
// depends on the reference PGA produced by the first evaluation pass, so
// unlike the other terms it is completed after construction.
type SiteTerm interface {
	Term

	// LinearComponent returns the vs30-dependent part of the site term,
	// fixed at construction time.
	LinearComponent() float64

	// SetReferencePGA supplies the unamplified bedrock PGA the nonlinear
	// component needs. Calculate fails with ErrReferencePGAUnset until it
	// has been called.
	SetReferencePGA(pgaR float64)
}

// Model builds the term trio for one published regression model. Term
// constructors resolve coefficients for the site's current period, so
// instances must not be reused across periods or scenarios.
type Model interface {
	Name() string
	EventTerm(site structure.Structure, s Scenario) (Term, error)
	PathTerm(site structure.Structure, s Scenario) (Term, error)
	SiteTerm(site structure.Structure, s Scenario) (SiteTerm, error)
}
