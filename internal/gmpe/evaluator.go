package gmpe

import (
	"fmt"
	"math"

	"github.com/justinschembri/isprs/internal/structure"
)

// Result is the outcome of one evaluation, with the per-term breakdown kept
// for diagnosability. Event, Path, Site, and Intensity are in the model's
// natural log units; ReferencePGA is the unamplified bedrock PGA in the
// model's acceleration units.
type Result struct {
	Model        string  `json:"model"`
	Event        float64 `json:"event_term"`
	Path         float64 `json:"path_term"`
	Site         float64 `json:"site_term"`
	ReferencePGA float64 `json:"reference_pga"`
	Intensity    float64 `json:"intensity"`
}

// Evaluator drives the two-pass GMPE evaluation protocol for one model.
// It holds no per-scenario state: every Evaluate call builds an independent
// structure/term graph, so a single Evaluator is safe to share across
// concurrent scenario evaluations.
type Evaluator struct {
	model Model
}

// NewEvaluator creates an Evaluator for the given model.
func NewEvaluator(model Model) *Evaluator {
	return &Evaluator{model: model}
}

// ModelName returns the name of the model this evaluator drives.
func (e *Evaluator) ModelName() string {
	return e.model.Name()
}

// Evaluate predicts the ground-motion intensity for the scenario at the
// site. Pass 1 evaluates the model under reference-rock conditions (the
// site's Ground variant) to obtain the unamplified PGA that drives the site
// term's nonlinear soil response; pass 2 evaluates under actual conditions.
// The input structure is never mutated: each pass works on freshly
// constructed values.
func (e *Evaluator) Evaluate(site structure.Structure, s Scenario) (Result, error) {
	if err := site.Validate(); err != nil {
		return Result{}, &PreconditionError{Reason: err.Error()}
	}
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	pgaR, err := e.referencePGA(site.Ground(), s)
	if err != nil {
		return Result{}, err
	}

	event, path, siteTerm, err := e.buildTerms(site, s)
	if err != nil {
		return Result{}, err
	}
	siteTerm.SetReferencePGA(pgaR)

	eventVal, err := event.Calculate()
	if err != nil {
		return Result{}, fmt.Errorf("event term: %w", err)
	}
	pathVal, err := path.Calculate()
	if err != nil {
		return Result{}, fmt.Errorf("path term: %w", err)
	}
	siteVal, err := siteTerm.Calculate()
	if err != nil {
		return Result{}, fmt.Errorf("site term: %w", err)
	}

	return Result{
		Model:        e.model.Name(),
		Event:        eventVal,
		Path:         pathVal,
		Site:         siteVal,
		ReferencePGA: pgaR,
		Intensity:    eventVal + pathVal + siteVal,
	}, nil
}

// referencePGA runs the first pass: a transient term trio built against the
// reference-rock structure. Only the site term's linear component
// contributes here; the nonlinear component is defined to be absent under
// bedrock conditions.
func (e *Evaluator) referencePGA(ground structure.Structure, s Scenario) (float64, error) {
	event, path, siteTerm, err := e.buildTerms(ground, s)
	if err != nil {
		return 0, err
	}

	eventVal, err := event.Calculate()
	if err != nil {
		return 0, fmt.Errorf("reference-rock event term: %w", err)
	}
	pathVal, err := path.Calculate()
	if err != nil {
		return 0, fmt.Errorf("reference-rock path term: %w", err)
	}

	return math.Exp(eventVal + pathVal + siteTerm.LinearComponent()), nil
}

func (e *Evaluator) buildTerms(site structure.Structure, s Scenario) (Term, Term, SiteTerm, error) {
	event, err := e.model.EventTerm(site, s)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("event term: %w", err)
	}
	path, err := e.model.PathTerm(site, s)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("path term: %w", err)
	}
	siteTerm, err := e.model.SiteTerm(site, s)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("site term: %w", err)
	}
	return event, path, siteTerm, nil
}
