// Command evaluate runs a one-shot ground-motion evaluation and prints the
// result as JSON. The scenario comes either from flags or from a CSMIP
// Volume 2 record file.
//
// Usage:
//
//	go run ./cmd/evaluate -magnitude 5.0 -distance 100 -fault U -vs30 350 -period 1.0
//	go run ./cmd/evaluate -record testdata/record.v2 -structure-type "Steel MRF" -height 20 -vs30 350
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/justinschembri/isprs/internal/gmpe"
	"github.com/justinschembri/isprs/internal/gmpe/bssa13"
	"github.com/justinschembri/isprs/internal/parser"
	"github.com/justinschembri/isprs/internal/structure"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "evaluate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	magnitude := flag.Float64("magnitude", 0, "moment magnitude")
	distance := flag.Float64("distance", 0, "Joyner-Boore distance in km")
	fault := flag.String("fault", "U", "fault type: U, SS, NS, or RS")
	vs30 := flag.Float64("vs30", 350, "site vs30 in m/s")
	period := flag.Float64("period", 0, "vibration period in seconds (overrides structure flags)")
	structureType := flag.String("structure-type", string(structure.SteelMRF), "structure type for the empirical period model")
	height := flag.Float64("height", 20, "building height in metres")
	record := flag.String("record", "", "path to a CSMIP Volume 2 record; supplies magnitude and distance")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	if *record != "" {
		rec, err := loadRecord(*record)
		if err != nil {
			return err
		}
		*magnitude = rec.Magnitude
		*distance = epicentralKM(rec)
		fmt.Fprintf(os.Stderr, "record %s: M%.1f at %.1f km\n", rec.RecordID, *magnitude, *distance)
	}

	site, err := buildSite(*period, *structureType, *height, *vs30)
	if err != nil {
		return err
	}

	evaluator := gmpe.NewEvaluator(bssa13.NewDefault())
	result, err := evaluator.Evaluate(site, gmpe.Scenario{
		Magnitude:  *magnitude,
		DistanceJB: *distance,
		Fault:      gmpe.FaultType(*fault),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func buildSite(period float64, structureType string, height, vs30 float64) (structure.Structure, error) {
	table := bssa13.DefaultTable()
	if period > 0 {
		return structure.Structure{
			Height: height,
			VS30:   vs30,
			Period: table.NearestPeriod(period),
		}, nil
	}

	site, err := structure.NewASCEStructure(structure.StructureType(structureType), height, 0, 0, vs30)
	if err != nil {
		return structure.Structure{}, err
	}
	site.Period = table.NearestPeriod(site.Period)
	return site, nil
}

func loadRecord(path string) (parser.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return parser.Record{}, err
	}
	return parser.ParseRecord(string(data), parser.CSMIPV2LineMap())
}

// epicentralKM approximates Joyner-Boore distance with the great-circle
// distance between the station and the hypocenter.
func epicentralKM(rec parser.Record) float64 {
	const earthRadiusKM = 6371.0
	rad := math.Pi / 180

	dLat := (rec.HypocenterLat - rec.StationLat) * rad
	dLon := (rec.HypocenterLon - rec.StationLon) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rec.StationLat*rad)*math.Cos(rec.HypocenterLat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
