package bssa13

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/justinschembri/isprs/internal/gmpe"
)

//go:embed bssa13.json
var embeddedTable []byte

// tableJSON mirrors the on-disk coefficient table format: coefficient names
// mapping to string period keys mapping to values.
type tableJSON struct {
	Model        string                        `json:"model"`
	Coefficients map[string]map[string]float64 `json:"coefficients"`
}

// Table is a parsed, validated BSSA13 coefficient table. It is read-only
// after construction and safe for concurrent lookups.
type Table struct {
	coeffs  map[string]map[float64]float64
	periods []float64
}

// ParseTable decodes and validates a JSON coefficient table. Validation is
// structural: every coefficient name the model's terms require must be
// present, and every name must carry the same set of periods, so missing
// coefficients surface at load time rather than mid-evaluation.
func ParseTable(data []byte) (*Table, error) {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse coefficient table: %w", err)
	}

	coeffs := make(map[string]map[float64]float64, len(raw.Coefficients))
	for name, byPeriod := range raw.Coefficients {
		parsed := make(map[float64]float64, len(byPeriod))
		for key, value := range byPeriod {
			period, err := strconv.ParseFloat(key, 64)
			if err != nil {
				return nil, fmt.Errorf("coefficient %q: invalid period key %q: %w", name, key, err)
			}
			if period < 0 {
				return nil, fmt.Errorf("coefficient %q: negative period key %q", name, key)
			}
			parsed[period] = value
		}
		coeffs[name] = parsed
	}

	required := requiredCoefficients()
	for _, name := range required {
		if _, ok := coeffs[name]; !ok {
			return nil, fmt.Errorf("coefficient table missing required name %q", name)
		}
	}

	periods := sortedPeriods(coeffs[required[0]])
	if len(periods) == 0 {
		return nil, fmt.Errorf("coefficient table defines no periods")
	}
	for _, name := range required {
		if len(coeffs[name]) != len(periods) {
			return nil, fmt.Errorf("coefficient %q defines %d periods, want %d", name, len(coeffs[name]), len(periods))
		}
		for _, p := range periods {
			if _, ok := coeffs[name][p]; !ok {
				return nil, fmt.Errorf("coefficient %q missing period %g", name, p)
			}
		}
	}

	return &Table{coeffs: coeffs, periods: periods}, nil
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := ParseTable(embeddedTable)
	if err != nil {
		panic(fmt.Sprintf("embedded bssa13 coefficient table: %v", err))
	}
	return t
})

// DefaultTable returns the embedded published BSSA13 coefficient table,
// parsed once and shared.
func DefaultTable() *Table {
	return defaultTable()
}

// Lookup returns the coefficient value for name at period.
func (t *Table) Lookup(name string, period float64) (float64, error) {
	byPeriod, ok := t.coeffs[name]
	if !ok {
		return 0, &gmpe.CoefficientNotFoundError{Name: name, Period: period}
	}
	value, ok := byPeriod[period]
	if !ok {
		return 0, &gmpe.CoefficientNotFoundError{Name: name, Period: period}
	}
	return value, nil
}

// LookupAll resolves every name against the same period. Either all names
// resolve or an error is returned with no partial result.
func (t *Table) LookupAll(names []string, period float64) (map[string]float64, error) {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		value, err := t.Lookup(name, period)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// Periods returns the tabulated spectral periods in ascending order.
func (t *Table) Periods() []float64 {
	out := make([]float64, len(t.periods))
	copy(out, t.periods)
	return out
}

// NearestPeriod returns the tabulated period closest to the given period.
// The table carries coefficients at fixed spectral periods; callers with an
// arbitrary structural period snap to the nearest one before evaluating.
func (t *Table) NearestPeriod(period float64) float64 {
	nearest := t.periods[0]
	for _, p := range t.periods[1:] {
		if diff(p, period) < diff(nearest, period) {
			nearest = p
		}
	}
	return nearest
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func sortedPeriods(byPeriod map[float64]float64) []float64 {
	periods := make([]float64, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Float64s(periods)
	return periods
}

// requiredCoefficients is the union of the coefficient names the three
// BSSA13 terms resolve.
func requiredCoefficients() []string {
	names := make([]string, 0, len(eventCoefficients)+len(pathCoefficients)+len(siteCoefficients))
	names = append(names, eventCoefficients...)
	names = append(names, pathCoefficients...)
	names = append(names, siteCoefficients...)
	return names
}
