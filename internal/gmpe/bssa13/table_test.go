package bssa13

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinschembri/isprs/internal/gmpe"
)

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	t.Run("known coefficient values", func(t *testing.T) {
		tests := []struct {
			name   string
			period float64
			want   float64
		}{
			{"e0", 1.0, 0.3932},
			{"Mh", 1.0, 6.2},
			{"Mh", 0.0, 5.5},
			{"c1", 1.0, -1.193},
			{"h", 0.0, 4.5},
			{"vc", 1.0, 967.51},
			{"f5", 1.0, -0.00844},
		}
		for _, tt := range tests {
			got, err := table.Lookup(tt.name, tt.period)
			require.NoError(t, err, "%s at %g", tt.name, tt.period)
			assert.Equal(t, tt.want, got, "%s at %g", tt.name, tt.period)
		}
	})

	t.Run("periods are ascending and include PGA", func(t *testing.T) {
		periods := table.Periods()
		require.NotEmpty(t, periods)
		assert.Equal(t, 0.0, periods[0])
		assert.True(t, sort.Float64sAreSorted(periods))
	})

	t.Run("nearest period snapping", func(t *testing.T) {
		assert.Equal(t, 0.5, table.NearestPeriod(0.4568))
		assert.Equal(t, 1.0, table.NearestPeriod(0.9))
		assert.Equal(t, 0.0, table.NearestPeriod(0.01))
		assert.Equal(t, 3.0, table.NearestPeriod(10))
	})
}

func TestTableLookupErrors(t *testing.T) {
	table := DefaultTable()

	t.Run("unknown coefficient name", func(t *testing.T) {
		_, err := table.Lookup("e9", 1.0)
		var cnf *gmpe.CoefficientNotFoundError
		require.ErrorAs(t, err, &cnf)
		assert.Equal(t, "e9", cnf.Name)
		assert.Equal(t, 1.0, cnf.Period)
	})

	t.Run("untabulated period", func(t *testing.T) {
		_, err := table.Lookup("e0", 0.42)
		var cnf *gmpe.CoefficientNotFoundError
		require.ErrorAs(t, err, &cnf)
		assert.Equal(t, 0.42, cnf.Period)
	})

	t.Run("LookupAll is atomic", func(t *testing.T) {
		got, err := table.LookupAll([]string{"e0", "nope", "e1"}, 1.0)
		require.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestParseTable(t *testing.T) {
	// minimalTable builds a one-period table covering every required name.
	minimalTable := func(mutate func(map[string]map[string]float64)) []byte {
		coeffs := make(map[string]map[string]float64)
		for _, name := range requiredCoefficients() {
			coeffs[name] = map[string]float64{"0.0": 1.0}
		}
		if mutate != nil {
			mutate(coeffs)
		}
		data, err := jsonMarshalTable(coeffs)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}

	t.Run("valid table", func(t *testing.T) {
		table, err := ParseTable(minimalTable(nil))
		require.NoError(t, err)
		got, err := table.Lookup("e0", 0)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got)
	})

	t.Run("missing required name", func(t *testing.T) {
		_, err := ParseTable(minimalTable(func(c map[string]map[string]float64) {
			delete(c, "Mh")
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"Mh"`)
	})

	t.Run("inconsistent period sets", func(t *testing.T) {
		_, err := ParseTable(minimalTable(func(c map[string]map[string]float64) {
			c["c1"]["1.0"] = -1.193
		}))
		require.Error(t, err)
	})

	t.Run("invalid period key", func(t *testing.T) {
		_, err := ParseTable(minimalTable(func(c map[string]map[string]float64) {
			delete(c["e0"], "0.0")
			c["e0"]["pga"] = 1.0
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "period key")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := ParseTable([]byte("{not json"))
		require.Error(t, err)
	})
}

func jsonMarshalTable(coeffs map[string]map[string]float64) ([]byte, error) {
	type doc struct {
		Model        string                        `json:"model"`
		Coefficients map[string]map[string]float64 `json:"coefficients"`
	}
	return json.Marshal(doc{Model: "bssa13", Coefficients: coeffs})
}
