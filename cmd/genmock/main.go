// Command genmock generates mock CSMIP Volume 2 record fixtures for the test
// suites and for seeding the source Kafka topic during local development.
// Every generated record round-trips through the actual parser so the
// fixtures stay aligned with real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -count 10
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/justinschembri/isprs/internal/parser"
)

// stations are real California strong-motion sites used to vary the mocks.
var stations = []struct {
	number int
	name   string
	lat    float64
	lon    float64
}{
	{57217, "SARATOGA - ALOHA AVE", 37.04, -121.80},
	{58065, "EMERYVILLE - PACIFIC PARK", 37.84, -122.29},
	{24278, "CASTAIC - OLD RIDGE ROUTE", 34.56, -118.64},
	{89324, "CAPE MENDOCINO - PETROLIA", 40.32, -124.28},
	{14395, "LOS ANGELES - OBREGON PARK", 34.04, -118.17},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for generated record files")
	count := flag.Int("count", 10, "number of records to generate")
	seed := flag.Int64("seed", 1, "random seed for reproducible fixtures")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))
	lineMap := parser.CSMIPV2LineMap()

	for i := 0; i < *count; i++ {
		st := stations[rng.Intn(len(stations))]
		magnitude := 4.5 + rng.Float64()*3.0
		channel := 1 + rng.Intn(3)
		recordID := fmt.Sprintf("%d-S%04d-89290.%02d", st.number, rng.Intn(10000), i)

		text := buildRecord(recordID, channel, st.number, st.name, st.lat, st.lon, magnitude, rng)

		// Round-trip through the parser so a layout drift fails loudly here
		// instead of in the pipeline.
		if _, err := parser.ParseRecord(text, lineMap); err != nil {
			return fmt.Errorf("generated record %s does not parse: %w", recordID, err)
		}

		path := filepath.Join(*outDir, fmt.Sprintf("record_%02d.v2", i))
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return err
		}
	}

	log.Printf("wrote %d records to %s", *count, *outDir)
	return nil
}

func buildRecord(recordID string, channel, stationNumber int, stationName string, lat, lon, magnitude float64, rng *rand.Rand) string {
	hypoLat := lat + (rng.Float64()-0.5)*0.5
	hypoLon := lon + (rng.Float64()-0.5)*0.5
	depth := 5.0 + rng.Float64()*15.0
	pga := 50.0 + rng.Float64()*400.0
	pgaAt := rng.Float64() * 20.0

	lines := []string{
		fmt.Sprintf("CORRECTED ACCELEROGRAM %s CHANNEL %d", recordID, channel),
		"LOMA PRIETA EARTHQUAKE",
		"OCTOBER 17, 1989 17:04 PDT",
		"TRIGGER TIME: 10/17/89 17:04:12.3 PDT",
		fmt.Sprintf("%-10s%-10s%-12s", fmt.Sprintf("%d", stationNumber), coord(lat, 'N', 'S'), coord(lon, 'E', 'W')),
		fmt.Sprintf("%-40s%-10s", "SMA-1", fmt.Sprintf("%d", 1000+rng.Intn(9000))),
		fmt.Sprintf("%-40s%-40s", stationName, "GROUND SITE"),
		fmt.Sprintf("HYPOCENTER: %s %s %.1f KM", coord(hypoLat, 'N', 'S'), coord(hypoLon, 'E', 'W'), depth),
		fmt.Sprintf("MW: %.1f", magnitude),
		fmt.Sprintf("%-10s%-10s%-10s%-10s", "0.039", "0.57", "1.9", "40.0"),
		fmt.Sprintf("PEAK ACCELERATION = %.1f CM/SEC/SEC AT %.2f SEC", pga, pgaAt),
	}
	return strings.Join(lines, "\n") + "\n"
}

// coord formats a signed coordinate in the record's hemisphere notation,
// e.g. 37.04 -> "37.04N", -121.80 -> "121.80W".
func coord(v float64, positive, negative byte) string {
	hemisphere := positive
	if v < 0 {
		v = -v
		hemisphere = negative
	}
	return fmt.Sprintf("%.2f%c", v, hemisphere)
}
