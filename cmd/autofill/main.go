// Command autofill projects a place through a YAML field mapping, either
// from a place JSON file or by geocoding a coordinate or free text.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"autofill_backend/internal/autofill/engine"
	"autofill_backend/internal/maps"
	"autofill_backend/platform/config"
	"autofill_backend/platform/logger"

	"github.com/goccy/go-json"
)

const usage = `
autofill - fill form fields from a geocoded place.

Usage:
  autofill -mapping form.yaml -place place.json
  autofill -mapping form.yaml -lat 52.37 -lng 4.89
  autofill -mapping form.yaml -query "Damrak 12, Amsterdam"

Geocoding modes read GEOCODER_* settings from the environment (or .env).

Options:
`

// geocoderFactory builds the geocoder lazily so the place mode needs no
// configuration.
type geocoderFactory func() (engine.Geocoder, *logger.Logger, error)

type result struct {
	Outcome       engine.Outcome        `json:"outcome"`
	Fields        []engine.FieldValue   `json:"fields"`
	Notifications []engine.Notification `json:"notifications,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, geocoderFromEnv))
}

func geocoderFromEnv() (engine.Geocoder, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Env)
	provider, err := maps.NewProvider(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return provider, log, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, newGeocoder geocoderFactory) int {
	flagSet := flag.NewFlagSet("autofill", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(stderr, usage)
		flagSet.PrintDefaults()
	}

	mappingPath := flagSet.String("mapping", "", "Path to the YAML mapping file (required).")
	placePath := flagSet.String("place", "", "Path to a place JSON file to project.")
	lat := flagSet.Float64("lat", math.NaN(), "Latitude to reverse geocode.")
	lng := flagSet.Float64("lng", math.NaN(), "Longitude to reverse geocode.")
	query := flagSet.String("query", "", "Free text to forward geocode.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	hasCoordinate := !math.IsNaN(*lat) || !math.IsNaN(*lng)
	modes := 0
	for _, set := range []bool{*placePath != "", hasCoordinate, *query != ""} {
		if set {
			modes++
		}
	}
	if *mappingPath == "" || modes != 1 {
		fmt.Fprintln(stderr, "exactly one of -place, -lat/-lng or -query is required together with -mapping")
		flagSet.Usage()
		return 2
	}
	if hasCoordinate && (math.IsNaN(*lat) || math.IsNaN(*lng)) {
		fmt.Fprintln(stderr, "-lat and -lng must be given together")
		return 2
	}

	mf, err := engine.LoadMappingFile(*mappingPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg, err := mf.Config()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var geocoder engine.Geocoder = noGeocoder{}
	var source engine.PlaceSource
	log := logger.Discard()
	if *placePath != "" {
		place, err := readPlace(*placePath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		source = staticPlace{place: place}
	} else {
		geocoder, log, err = newGeocoder()
		if err != nil {
			fmt.Fprintln(stderr, "failed to initialize geocoder:", err)
			return 1
		}
	}

	sink := engine.NewMemorySink(cfg.SourceField)
	out := result{}
	ac, err := engine.New(cfg, engine.Deps{
		Sink:     sink,
		Geocoder: geocoder,
		Source:   source,
		Notifier: engine.NotifierFunc(func(_ context.Context, n engine.Notification) {
			out.Notifications = append(out.Notifications, n)
		}),
		Logger: log,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer ac.Close()

	switch {
	case source != nil:
		out.Outcome = ac.PlaceChanged(ctx)
	case hasCoordinate:
		out.Outcome = ac.AddressAt(ctx, engine.Coordinate{Lat: *lat, Lng: *lng})
	default:
		out.Outcome = ac.SelectFirst(ctx, *query)
	}

	targets := ac.Mapping().Targets()
	out.Fields = make([]engine.FieldValue, 0, len(targets))
	for _, target := range targets {
		out.Fields = append(out.Fields, engine.FieldValue{Field: target, Value: sink.Value(target)})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stdout, string(data))

	if out.Outcome == engine.OutcomeServiceFailure {
		return 1
	}
	return 0
}

func readPlace(path string) (*engine.PlaceResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read place file %s: %w", path, err)
	}
	var place engine.PlaceResult
	if err := json.Unmarshal(data, &place); err != nil {
		return nil, fmt.Errorf("failed to parse place file %s: %w", path, err)
	}
	return &place, nil
}

type staticPlace struct {
	place *engine.PlaceResult
}

func (p staticPlace) Place() *engine.PlaceResult { return p.place }

// noGeocoder backs the place mode, which never geocodes.
type noGeocoder struct{}

func (noGeocoder) ReverseGeocode(context.Context, engine.Coordinate) ([]engine.PlaceResult, error) {
	return nil, errors.New("geocoding is not configured")
}

func (noGeocoder) ForwardGeocode(context.Context, string) ([]engine.PlaceResult, error) {
	return nil, errors.New("geocoding is not configured")
}
