package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/justinschembri/isprs/internal/gmpe"
	"github.com/justinschembri/isprs/internal/observability"
	"github.com/justinschembri/isprs/internal/parser"
	"github.com/justinschembri/isprs/internal/sensorthings"
	"github.com/justinschembri/isprs/internal/structure"
)

// Vs30Provider resolves the top-30m shear-wave velocity at a coordinate.
type Vs30Provider interface {
	Vs30(ctx context.Context, lat, lon float64) (float64, error)
}

// PeriodSnapper maps an arbitrary vibration period onto one the model's
// coefficient table carries.
type PeriodSnapper interface {
	NearestPeriod(period float64) float64
}

// SiteDefaults describe the structure under assessment. Strong-motion record
// headers identify the event and station but not the building the deployment
// evaluates, so these come from configuration.
type SiteDefaults struct {
	StructureType  structure.StructureType
	BuildingHeight float64 // metres
	VS30           float64 // m/s, fallback when no vs30 provider is available
	Fault          gmpe.FaultType
}

// RecordTransformer parses raw CSMIP records, evaluates ground motion at the
// configured structure, and shapes the result as a SensorThings observation.
type RecordTransformer struct {
	lineMap   parser.LineMap
	evaluator *gmpe.Evaluator
	periods   PeriodSnapper
	vs30      Vs30Provider // nil disables site-conditions lookup
	defaults  SiteDefaults
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRecordTransformer creates a RecordTransformer. Pass a nil Vs30Provider
// to evaluate every site at the configured default vs30.
func NewRecordTransformer(lineMap parser.LineMap, evaluator *gmpe.Evaluator, periods PeriodSnapper, vs30 Vs30Provider, defaults SiteDefaults, logger *slog.Logger, metrics *observability.Metrics) *RecordTransformer {
	return &RecordTransformer{
		lineMap:   lineMap,
		evaluator: evaluator,
		periods:   periods,
		vs30:      vs30,
		defaults:  defaults,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *RecordTransformer) Transform(ctx context.Context, raw RawRecord) (OutputEvent, error) {
	rec, err := parser.ParseRecord(string(raw.Value), t.lineMap)
	if err != nil {
		return OutputEvent{}, err
	}

	site, err := t.buildSite(ctx, rec)
	if err != nil {
		return OutputEvent{}, err
	}

	scenario := gmpe.Scenario{
		Magnitude:  rec.Magnitude,
		DistanceJB: haversineKM(site.Latitude, site.Longitude, rec.HypocenterLat, rec.HypocenterLon),
		Fault:      t.defaults.Fault,
	}

	result, err := t.evaluate(site, scenario)
	if err != nil {
		return OutputEvent{}, err
	}

	obs := buildObservation(rec, site, scenario, result)
	value, err := json.Marshal(obs)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("marshal observation: %w", err)
	}

	return OutputEvent{
		Key:   []byte(rec.RecordID),
		Value: value,
		Headers: map[string]string{
			"model":   result.Model,
			"station": strconv.Itoa(rec.StationNumber),
		},
	}, nil
}

// buildSite constructs the structure at the station's coordinates, looking
// up site conditions when a provider is configured. A failed lookup falls
// back to the configured default rather than dropping the record.
func (t *RecordTransformer) buildSite(ctx context.Context, rec parser.Record) (structure.Structure, error) {
	vs30 := t.defaults.VS30
	if t.vs30 != nil {
		v, err := t.vs30.Vs30(ctx, rec.StationLat, rec.StationLon)
		if err != nil {
			t.logger.Warn("vs30 lookup failed, using default",
				"error", err, "lat", rec.StationLat, "lon", rec.StationLon,
				"default_vs30", t.defaults.VS30)
		} else {
			vs30 = v
		}
	}

	site, err := structure.NewASCEStructure(t.defaults.StructureType, t.defaults.BuildingHeight, rec.StationLat, rec.StationLon, vs30)
	if err != nil {
		return structure.Structure{}, err
	}

	// The empirical period rarely lands on a tabulated period, so snap it
	// to the nearest one the coefficient table carries.
	site.Period = t.periods.NearestPeriod(site.Period)
	return site, nil
}

func (t *RecordTransformer) evaluate(site structure.Structure, scenario gmpe.Scenario) (gmpe.Result, error) {
	start := time.Now()
	result, err := t.evaluator.Evaluate(site, scenario)
	t.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		t.metrics.Evaluations.WithLabelValues(t.evaluator.ModelName(), "error").Inc()
		return gmpe.Result{}, err
	}
	t.metrics.Evaluations.WithLabelValues(result.Model, "success").Inc()
	return result, nil
}

// buildObservation shapes one evaluation as a SensorThings observation. The
// result is the log spectral intensity; the per-term breakdown and the
// scenario inputs travel in the parameters map.
func buildObservation(rec parser.Record, site structure.Structure, scenario gmpe.Scenario, result gmpe.Result) sensorthings.Observation {
	station := strconv.Itoa(rec.StationNumber)
	return sensorthings.Observation{
		Result:         result.Intensity,
		PhenomenonTime: rec.TriggerTime,
		ResultTime:     clock.Now(),
		Parameters: map[string]any{
			"event_term":    result.Event,
			"path_term":     result.Path,
			"site_term":     result.Site,
			"reference_pga": result.ReferencePGA,
			"magnitude":     scenario.Magnitude,
			"distance_km":   scenario.DistanceJB,
			"fault_type":    string(scenario.Fault),
			"vs30":          site.VS30,
			"period":        site.Period,
			"channel":       rec.Channel,
			"observed_pga":  rec.PGA,
			"pga_unit":      rec.PGAUnit,
		},
		Datastream: &sensorthings.Datastream{
			Name:            fmt.Sprintf("%s spectral intensity at station %s", result.Model, station),
			ObservationType: "http://www.opengis.net/def/observationType/OGC-OM/2.0/OM_Measurement",
			UnitOfMeasurement: sensorthings.UnitOfMeasurement{
				Name:   "log spectral acceleration",
				Symbol: "ln(g)",
			},
			Thing: &sensorthings.Thing{
				Name:        rec.StationName,
				Description: rec.LocationDescription,
				Properties: map[string]any{
					"station_number": rec.StationNumber,
				},
			},
			Sensor: &sensorthings.Sensor{
				Name: rec.InstrumentType,
				Properties: map[string]any{
					"serial_number":     rec.InstrumentSerialNum,
					"transducer_period": rec.TransducerPeriod,
					"damping":           rec.Damping,
					"sensitivity":       rec.Sensitivity,
				},
			},
			ObservedProperty: &sensorthings.ObservedProperty{
				Name:        "spectral acceleration",
				Description: "predicted spectral acceleration at the structure's fundamental period",
			},
		},
		FeatureOfInterest: &sensorthings.FeatureOfInterest{
			Name:         rec.StationName,
			Description:  rec.EarthquakeName,
			EncodingType: "application/geo+json",
			Feature:      sensorthings.NewPoint(rec.StationLat, rec.StationLon),
		},
	}
}

const earthRadiusKM = 6371.0

// haversineKM returns the great-circle distance in kilometres between two
// WGS-84 coordinates. The pipeline uses it as the epicentral stand-in for
// Joyner-Boore distance, since record headers carry no rupture geometry.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
