// Package bssa13 implements the Boore, Stewart, Seyhan & Atkinson (2013)
// ground motion prediction equations: the event, path, and site functional
// terms and the published regression coefficient table that parameterizes
// them by spectral period.
package bssa13

import (
	"fmt"
	"math"

	"github.com/justinschembri/isprs/internal/gmpe"
	"github.com/justinschembri/isprs/internal/structure"
)

// ModelName identifies the model in evaluation results.
const ModelName = "BSSA13"

var (
	eventCoefficients = []string{"e0", "e1", "e2", "e3", "e4", "e5", "e6", "Mh"}
	pathCoefficients  = []string{"c1", "c2", "c3", "h", "mref", "rref"}
	siteCoefficients  = []string{"c", "vc", "vref", "f1", "f3", "f4", "f5"}
)

// Model implements gmpe.Model for BSSA13. It holds only the shared read-only
// coefficient source; term instances are built fresh per evaluation pass.
type Model struct {
	coeffs gmpe.CoefficientSource
}

// New creates a BSSA13 model backed by the given coefficient source.
func New(coeffs gmpe.CoefficientSource) *Model {
	return &Model{coeffs: coeffs}
}

// NewDefault creates a BSSA13 model backed by the embedded published table.
func NewDefault() *Model {
	return New(DefaultTable())
}

func (m *Model) Name() string { return ModelName }

// EventTerm builds the earthquake-source term for the site's period.
func (m *Model) EventTerm(site structure.Structure, s gmpe.Scenario) (gmpe.Term, error) {
	if !s.Fault.Valid() {
		return nil, &gmpe.PreconditionError{Reason: fmt.Sprintf("unknown fault type %q", s.Fault)}
	}
	c, err := m.coeffs.LookupAll(eventCoefficients, site.Period)
	if err != nil {
		return nil, err
	}
	return &EventTerm{
		magnitude: s.Magnitude,
		fault:     s.Fault,
		e0:        c["e0"],
		e1:        c["e1"],
		e2:        c["e2"],
		e3:        c["e3"],
		e4:        c["e4"],
		e5:        c["e5"],
		e6:        c["e6"],
		mh:        c["Mh"],
	}, nil
}

// PathTerm builds the wave-propagation term for the site's period.
func (m *Model) PathTerm(site structure.Structure, s gmpe.Scenario) (gmpe.Term, error) {
	c, err := m.coeffs.LookupAll(pathCoefficients, site.Period)
	if err != nil {
		return nil, err
	}
	if c["rref"] <= 0 {
		return nil, &gmpe.ModelIntegrityError{Name: "rref", Value: c["rref"], Reason: "must be positive for ln(R/Rref)"}
	}
	return &PathTerm{
		magnitude: s.Magnitude,
		rjb:       s.DistanceJB,
		c1:        c["c1"],
		c2:        c["c2"],
		c3:        c["c3"],
		h:         c["h"],
		mref:      c["mref"],
		rref:      c["rref"],
	}, nil
}

// SiteTerm builds the soil-response term for the site's period and vs30.
// The returned term still needs the reference PGA before Calculate works.
func (m *Model) SiteTerm(site structure.Structure, s gmpe.Scenario) (gmpe.SiteTerm, error) {
	c, err := m.coeffs.LookupAll(siteCoefficients, site.Period)
	if err != nil {
		return nil, err
	}
	if c["f3"] <= 0 {
		return nil, &gmpe.ModelIntegrityError{Name: "f3", Value: c["f3"], Reason: "must be positive for ln((pga_r+f3)/f3)"}
	}
	if c["vref"] <= 0 {
		return nil, &gmpe.ModelIntegrityError{Name: "vref", Value: c["vref"], Reason: "must be positive for ln(vs30/vref)"}
	}
	return newSiteTerm(site.VS30, c), nil
}

// EventTerm is the BSSA13 earthquake-source contribution. Piecewise in
// magnitude around the hinge magnitude Mh, with the fault mechanism entering
// through one-hot indicators.
type EventTerm struct {
	magnitude float64
	fault     gmpe.FaultType

	e0, e1, e2, e3, e4, e5, e6, mh float64
}

// Calculate evaluates the event term. A magnitude exactly at the hinge takes
// the low-magnitude branch. The branch asymmetry is the published model's:
// below the hinge e0 applies unconditionally, above it e0 is gated by the
// unspecified-mechanism indicator and the quadratic is replaced by e6 linear.
func (t *EventTerm) Calculate() (float64, error) {
	u, ss, ns, rs := faultIndicators(t.fault)
	dm := t.magnitude - t.mh
	if t.magnitude <= t.mh {
		return t.e0 + t.e1*ss + t.e2*ns + t.e3*rs + t.e4*dm + t.e5*dm*dm, nil
	}
	return t.e0*u + t.e1*ss + t.e2*ns + t.e3*rs + t.e6*dm, nil
}

func faultIndicators(f gmpe.FaultType) (u, ss, ns, rs float64) {
	switch f {
	case gmpe.FaultStrikeSlip:
		ss = 1
	case gmpe.FaultNormal:
		ns = 1
	case gmpe.FaultReverse:
		rs = 1
	default:
		// FaultUnspecified; other values are rejected in EventTerm.
		u = 1
	}
	return u, ss, ns, rs
}

// PathTerm is the BSSA13 wave-propagation contribution: geometric spreading
// plus anelastic attenuation over the pseudo-depth-adjusted distance.
type PathTerm struct {
	magnitude float64
	rjb       float64

	c1, c2, c3, h, mref, rref float64
}

// Calculate evaluates (c1 + c2*(M-Mref))*ln(R/Rref) + c3*(R-Rref) with
// R = sqrt(Rjb^2 + h^2).
func (t *PathTerm) Calculate() (float64, error) {
	r := math.Sqrt(t.rjb*t.rjb + t.h*t.h)
	return (t.c1+t.c2*(t.magnitude-t.mref))*math.Log(r/t.rref) + t.c3*(r-t.rref), nil
}

// SiteTerm is the BSSA13 soil-response contribution. The linear component
// depends only on vs30 and is fixed at construction; the nonlinear component
// depends on the reference rock PGA produced by the first evaluation pass.
type SiteTerm struct {
	vs30 float64

	c, vc, vref, f1, f3, f4, f5 float64

	f2      float64
	linear  float64
	pgaR    float64
	pgaRSet bool
}

func newSiteTerm(vs30 float64, c map[string]float64) *SiteTerm {
	t := &SiteTerm{
		vs30: vs30,
		c:    c["c"],
		vc:   c["vc"],
		vref: c["vref"],
		f1:   c["f1"],
		f3:   c["f3"],
		f4:   c["f4"],
		f5:   c["f5"],
	}
	// f2 and the linear component are independent of the reference PGA, so
	// they are computed once here. The 360 m/s offset follows the published
	// model.
	t.f2 = t.f4 * (math.Exp(t.f5*(math.Min(vs30, structure.ReferenceVS30)-360)) -
		math.Exp(t.f5*(structure.ReferenceVS30-360)))
	if vs30 <= t.vc {
		t.linear = t.c * math.Log(vs30/t.vref)
	} else {
		t.linear = t.c * math.Log(t.vc/t.vref)
	}
	return t
}

// LinearComponent returns the vs30-dependent amplification, clipped at vc.
func (t *SiteTerm) LinearComponent() float64 {
	return t.linear
}

// SetReferencePGA supplies the unamplified bedrock PGA in the model's
// natural acceleration units.
func (t *SiteTerm) SetReferencePGA(pgaR float64) {
	t.pgaR = pgaR
	t.pgaRSet = true
}

// Calculate returns linear + nonlinear soil amplification. It fails if the
// reference PGA has not been set.
func (t *SiteTerm) Calculate() (float64, error) {
	if !t.pgaRSet {
		return 0, gmpe.ErrReferencePGAUnset
	}
	nonlinear := t.f1 + t.f2*math.Log((t.pgaR+t.f3)/t.f3)
	return t.linear + nonlinear, nil
}
