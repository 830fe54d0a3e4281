package gmpe

import (
	"errors"
	"fmt"
)

// ErrReferencePGAUnset is returned when a site term's Calculate is invoked
// before the reference PGA from the first evaluation pass has been supplied.
var ErrReferencePGAUnset = errors.New("site term: reference PGA not set")

// CoefficientNotFoundError reports a coefficient name absent from a model
// table at the requested period. Evaluation aborts; there is no default.
type CoefficientNotFoundError struct {
	Name   string
	Period float64
}

func (e *CoefficientNotFoundError) Error() string {
	return fmt.Sprintf("coefficient %q not found for period %g", e.Name, e.Period)
}

// ModelIntegrityError reports a coefficient value that makes the model's
// equations undefined (e.g. a non-positive Rref or f3 under a logarithm).
// It indicates a corrupt coefficient table, not a bad scenario.
type ModelIntegrityError struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ModelIntegrityError) Error() string {
	return fmt.Sprintf("model table integrity: coefficient %q = %g: %s", e.Name, e.Value, e.Reason)
}

// PreconditionError reports evaluation inputs that violate the model's
// domain (negative distance, unknown fault type, invalid structure).
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "invalid precondition: " + e.Reason
}
