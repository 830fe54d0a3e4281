// Package sensorthings models the OGC SensorThings entities the platform
// uses to shape sensor metadata and observations. Only the fields the
// pipeline populates are carried; encoding follows the SensorThings naming
// conventions (camelCase, navigation properties capitalized).
package sensorthings

import "time"

// Point is a GeoJSON point in longitude/latitude order.
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewPoint builds a GeoJSON point from latitude and longitude.
func NewPoint(lat, lon float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// Thing is the observed object, e.g. a recording station or structure.
type Thing struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Location places a Thing geographically.
type Location struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	EncodingType string `json:"encodingType"`
	Location     Point  `json:"location"`
}

// Sensor describes the instrument that produced an observation.
type Sensor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	EncodingType string         `json:"encodingType,omitempty"`
	Metadata     any            `json:"metadata,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// ObservedProperty names the phenomenon a datastream measures.
type ObservedProperty struct {
	Name        string `json:"name"`
	Definition  string `json:"definition,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnitOfMeasurement follows the SensorThings unit triple.
type UnitOfMeasurement struct {
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Definition string `json:"definition,omitempty"`
}

// Datastream groups observations of one property from one sensor and thing.
type Datastream struct {
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	ObservationType   string            `json:"observationType,omitempty"`
	UnitOfMeasurement UnitOfMeasurement `json:"unitOfMeasurement"`
	Properties        map[string]any    `json:"properties,omitempty"`

	Thing            *Thing            `json:"Thing,omitempty"`
	Sensor           *Sensor           `json:"Sensor,omitempty"`
	ObservedProperty *ObservedProperty `json:"ObservedProperty,omitempty"`
}

// FeatureOfInterest is the real-world feature an observation applies to.
type FeatureOfInterest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	EncodingType string `json:"encodingType"`
	Feature      Point  `json:"feature"`
}

// Observation is a single measured or derived result.
type Observation struct {
	Result         any            `json:"result"`
	PhenomenonTime time.Time      `json:"phenomenonTime"`
	ResultTime     time.Time      `json:"resultTime"`
	Parameters     map[string]any `json:"parameters,omitempty"`

	Datastream        *Datastream        `json:"Datastream,omitempty"`
	FeatureOfInterest *FeatureOfInterest `json:"FeatureOfInterest,omitempty"`
}
