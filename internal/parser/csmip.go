package parser

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

//go:embed csmip_v2.json
var csmipV2LineMap []byte

var defaultCSMIPMap = sync.OnceValue(func() LineMap {
	m, err := ParseLineMap(csmipV2LineMap)
	if err != nil {
		panic(fmt.Sprintf("embedded csmip v2 line map: %v", err))
	}
	return m
})

// CSMIPV2LineMap returns the embedded line map for CSMIP Volume 2 corrected
// accelerogram headers.
func CSMIPV2LineMap() LineMap {
	return defaultCSMIPMap()
}

// Record holds the header fields of a CSMIP Volume 2 strong-motion record.
type Record struct {
	RecordID       string
	Channel        string
	EarthquakeName string
	EventDate      string // free text, e.g. "OCTOBER 17, 1989 17:04 PDT"

	TriggerTime     time.Time // wall-clock time in the record's zone
	TriggerTimeZone string

	StationNumber       int
	StationName         string
	StationLat          float64
	StationLon          float64
	InstrumentType      string
	InstrumentSerialNum int
	LocationDescription string

	HypocenterLat     float64
	HypocenterLon     float64
	HypocenterDepthKM float64

	Magnitude     float64
	MagnitudeType string

	TransducerPeriod float64 // seconds
	Damping          float64 // fraction of critical
	Sensitivity      float64
	RecordLengthSec  float64

	PGA     float64 // observed peak acceleration
	PGAUnit string
	PGATime float64 // seconds into the record
}

// ParseRecord parses a CSMIP Volume 2 record header using the given line
// map. Every mapped field must parse; a malformed field is an error, not a
// default.
func ParseRecord(text string, m LineMap) (Record, error) {
	chunks, err := m.Chunk(text)
	if err != nil {
		return Record{}, fmt.Errorf("parse csmip record: %w", err)
	}

	var rec Record
	p := &fieldParser{chunks: chunks}

	rec.RecordID, rec.Channel = p.title("vol2_title")
	rec.EarthquakeName = p.text("eq_name")
	rec.EventDate = p.text("eq_datetime")
	rec.TriggerTime, rec.TriggerTimeZone = p.triggerTime("trigger_time")
	rec.StationNumber = p.integer("station_number")
	rec.StationLat = p.hemisphereCoord("station_lat", 'N', 'S')
	rec.StationLon = p.hemisphereCoord("station_long", 'E', 'W')
	rec.InstrumentType = p.text("instrument_type")
	rec.InstrumentSerialNum = p.integer("instrument_serial_num")
	rec.StationName = p.text("station_name")
	rec.LocationDescription = p.text("location_description")
	rec.HypocenterLat, rec.HypocenterLon, rec.HypocenterDepthKM = p.hypocenter("eq_hypocenter")
	rec.Magnitude, rec.MagnitudeType = p.magnitude("eq_magnitude")
	rec.TransducerPeriod = p.float("transducer_period")
	rec.Damping = p.float("damping")
	rec.Sensitivity = p.float("sensitivity")
	rec.RecordLengthSec = p.float("record_length")
	rec.PGA, rec.PGAUnit, rec.PGATime = p.peakAcceleration("vol2_pga")

	if p.err != nil {
		return Record{}, fmt.Errorf("parse csmip record: %w", p.err)
	}
	return rec, nil
}

// fieldParser accumulates the first field-level error so ParseRecord reports
// a single failure with the offending key.
type fieldParser struct {
	chunks map[string]string
	err    error
}

func (p *fieldParser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("field %q: %w", key, err)
	}
}

func (p *fieldParser) text(key string) string {
	return strings.TrimSpace(p.chunks[key])
}

func (p *fieldParser) integer(key string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.text(key))
	if err != nil {
		p.fail(key, err)
		return 0
	}
	return v
}

func (p *fieldParser) float(key string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.text(key), 64)
	if err != nil {
		p.fail(key, err)
		return 0
	}
	return v
}

// title splits "CORRECTED ACCELEROGRAM <record-id> CHANNEL <n>".
func (p *fieldParser) title(key string) (recordID, channel string) {
	if p.err != nil {
		return "", ""
	}
	fields := strings.Fields(p.chunks[key])
	if len(fields) < 5 {
		p.fail(key, fmt.Errorf("want at least 5 fields, got %d", len(fields)))
		return "", ""
	}
	return fields[2], fields[len(fields)-1]
}

// triggerTime splits "TRIGGER TIME: <mm/dd/yy> <hh:mm:ss.s> <zone>". The
// timestamp is parsed as a wall-clock value; the zone is kept as text since
// record zones are abbreviations, not tzdata names.
func (p *fieldParser) triggerTime(key string) (time.Time, string) {
	if p.err != nil {
		return time.Time{}, ""
	}
	fields := strings.Fields(p.chunks[key])
	if len(fields) < 5 {
		p.fail(key, fmt.Errorf("want 5 fields, got %d", len(fields)))
		return time.Time{}, ""
	}
	t, err := time.Parse("01/02/06 15:04:05.0", fields[2]+" "+fields[3])
	if err != nil {
		p.fail(key, err)
		return time.Time{}, ""
	}
	return t, fields[4]
}

// hemisphereCoord parses "<value><hemisphere>", e.g. "37.04N" or "121.80W".
// The negative hemisphere (S or W) flips the sign.
func (p *fieldParser) hemisphereCoord(key string, positive, negative byte) float64 {
	if p.err != nil {
		return 0
	}
	raw := p.text(key)
	if len(raw) < 2 {
		p.fail(key, fmt.Errorf("coordinate %q too short", raw))
		return 0
	}
	value, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
	if err != nil {
		p.fail(key, err)
		return 0
	}
	switch raw[len(raw)-1] {
	case positive:
		return value
	case negative:
		return -value
	default:
		p.fail(key, fmt.Errorf("coordinate %q: unknown hemisphere %q", raw, raw[len(raw)-1]))
		return 0
	}
}

// hypocenter splits "HYPOCENTER: <lat> <lon> <depth> KM".
func (p *fieldParser) hypocenter(key string) (lat, lon, depthKM float64) {
	if p.err != nil {
		return 0, 0, 0
	}
	_, rest, found := strings.Cut(p.chunks[key], ":")
	if !found {
		p.fail(key, fmt.Errorf("no colon separator in %q", p.chunks[key]))
		return 0, 0, 0
	}
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		p.fail(key, fmt.Errorf("want lat, lon, depth, got %q", rest))
		return 0, 0, 0
	}
	lat = p.coordField(key, fields[0], 'N', 'S')
	lon = p.coordField(key, fields[1], 'E', 'W')
	depthKM, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		p.fail(key, err)
	}
	return lat, lon, depthKM
}

func (p *fieldParser) coordField(key, raw string, positive, negative byte) float64 {
	if p.err != nil || len(raw) < 2 {
		if p.err == nil {
			p.fail(key, fmt.Errorf("coordinate %q too short", raw))
		}
		return 0
	}
	value, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
	if err != nil {
		p.fail(key, err)
		return 0
	}
	switch raw[len(raw)-1] {
	case positive:
		return value
	case negative:
		return -value
	default:
		p.fail(key, fmt.Errorf("coordinate %q: unknown hemisphere %q", raw, raw[len(raw)-1]))
		return 0
	}
}

// magnitude splits "<type>: <value>", e.g. "MW: 6.9".
func (p *fieldParser) magnitude(key string) (float64, string) {
	if p.err != nil {
		return 0, ""
	}
	typ, rest, found := strings.Cut(p.chunks[key], ":")
	if !found {
		p.fail(key, fmt.Errorf("no colon separator in %q", p.chunks[key]))
		return 0, ""
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		p.fail(key, err)
		return 0, ""
	}
	return value, strings.TrimSpace(typ)
}

// peakAcceleration splits "PEAK ACCELERATION = <value> <unit> AT <time> SEC".
func (p *fieldParser) peakAcceleration(key string) (pga float64, unit string, at float64) {
	if p.err != nil {
		return 0, "", 0
	}
	fields := strings.Fields(p.chunks[key])
	if len(fields) < 8 {
		p.fail(key, fmt.Errorf("want 8 fields, got %d", len(fields)))
		return 0, "", 0
	}
	pga, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		p.fail(key, err)
		return 0, "", 0
	}
	at, err = strconv.ParseFloat(fields[6], 64)
	if err != nil {
		p.fail(key, err)
		return 0, "", 0
	}
	return pga, fields[4], at
}
