package maps

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"autofill_backend/internal/autofill/engine"
)

const nominatimURL = "https://nominatim.openstreetmap.org"

// Reverse lookups are issued at building and street zoom so the candidate
// list is ordered most specific first, like the Google geocoder.
var nominatimReverseZooms = []int{18, 16}

// nominatimComponents maps OSM address keys onto address component types, in
// the order components are emitted. The first non-empty key of a group wins.
var nominatimComponents = []struct {
	keys  []string
	types []string
}{
	{keys: []string{"house_number"}, types: []string{"street_number"}},
	{keys: []string{"road", "pedestrian", "footway", "cycleway"}, types: []string{"route"}},
	{keys: []string{"neighbourhood", "quarter"}, types: []string{"neighborhood", "political"}},
	{keys: []string{"suburb", "city_district", "borough"}, types: []string{"sublocality", "political"}},
	{keys: []string{"city", "town", "village", "municipality", "hamlet"}, types: []string{"locality", "political"}},
	{keys: []string{"county"}, types: []string{"administrative_area_level_2", "political"}},
	{keys: []string{"state", "province", "region"}, types: []string{"administrative_area_level_1", "political"}},
	{keys: []string{"country"}, types: []string{"country", "political"}},
	{keys: []string{"postcode"}, types: []string{"postal_code"}},
}

// NominatimClient geocodes against an OpenStreetMap Nominatim server.
type NominatimClient struct {
	upstream  *upstream
	baseURL   string
	countries []string
}

func NewNominatimClient(u *upstream, baseURL, countryCodes string) *NominatimClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimURL
	}
	return &NominatimClient{
		upstream:  u,
		baseURL:   strings.TrimRight(baseURL, "/"),
		countries: splitCountryCodes(countryCodes),
	}
}

func (c *NominatimClient) Name() string { return "nominatim" }

// ForwardGeocode searches free text and returns up to five candidates.
func (c *NominatimClient) ForwardGeocode(ctx context.Context, text string) (results []engine.PlaceResult, err error) {
	start := time.Now()
	defer func() { c.upstream.observe(ctx, c.Name(), "forward", start, len(results), err) }()

	params := url.Values{}
	params.Add("q", text)
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("limit", "5")
	if len(c.countries) > 0 {
		params.Add("countrycodes", strings.Join(c.countries, ","))
	}

	var raw []nominatimResponse
	if err := c.upstream.getJSON(ctx, fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode()), &raw); err != nil {
		return nil, err
	}

	results = make([]engine.PlaceResult, 0, len(raw))
	for _, item := range raw {
		results = append(results, nominatimPlace(item))
	}
	return results, nil
}

// ReverseGeocode returns the distinct places found around at, most specific first.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, at engine.Coordinate) (results []engine.PlaceResult, err error) {
	start := time.Now()
	defer func() { c.upstream.observe(ctx, c.Name(), "reverse", start, len(results), err) }()

	seen := make(map[int64]struct{}, len(nominatimReverseZooms))
	results = make([]engine.PlaceResult, 0, len(nominatimReverseZooms))
	for _, zoom := range nominatimReverseZooms {
		params := url.Values{}
		params.Add("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
		params.Add("lon", strconv.FormatFloat(at.Lng, 'f', -1, 64))
		params.Add("format", "json")
		params.Add("addressdetails", "1")
		params.Add("zoom", strconv.Itoa(zoom))

		var raw nominatimResponse
		if err := c.upstream.getJSON(ctx, fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode()), &raw); err != nil {
			return nil, err
		}
		if raw.Error != "" {
			continue
		}
		if _, dup := seen[raw.PlaceID]; dup {
			continue
		}
		seen[raw.PlaceID] = struct{}{}
		results = append(results, nominatimPlace(raw))
	}
	return results, nil
}

func nominatimPlace(raw nominatimResponse) engine.PlaceResult {
	place := engine.PlaceResult{
		PlaceID:           strconv.FormatInt(raw.PlaceID, 10),
		FormattedAddress:  raw.DisplayName,
		Types:             nominatimResultTypes(raw),
		AddressComponents: make([]engine.AddressComponent, 0, len(nominatimComponents)),
	}

	lat, latErr := strconv.ParseFloat(raw.Lat, 64)
	lon, lonErr := strconv.ParseFloat(raw.Lon, 64)
	if latErr == nil && lonErr == nil {
		place.Location = &engine.Coordinate{Lat: lat, Lng: lon}
	}

	for _, group := range nominatimComponents {
		value := firstNonEmpty(raw.Address, group.keys)
		if value == "" {
			continue
		}
		place.AddressComponents = append(place.AddressComponents, engine.AddressComponent{
			Types:     append([]string(nil), group.types...),
			LongName:  value,
			ShortName: nominatimShortName(raw.Address, group.types[0], value),
		})
	}

	return place
}

func nominatimResultTypes(raw nominatimResponse) []string {
	switch {
	case raw.Address["house_number"] != "":
		return []string{"street_address"}
	case raw.Class == "highway":
		return []string{"route"}
	case raw.Class == "place" || raw.Class == "boundary":
		return []string{raw.Type, "political"}
	case raw.Type != "":
		return []string{raw.Type}
	default:
		return nil
	}
}

func nominatimShortName(address map[string]string, componentType, longName string) string {
	switch componentType {
	case "country":
		if code := address["country_code"]; code != "" {
			return strings.ToUpper(code)
		}
	case "administrative_area_level_1":
		// e.g. "US-OR" -> "OR"
		if iso := address["ISO3166-2-lvl4"]; iso != "" {
			if _, subdivision, ok := strings.Cut(iso, "-"); ok && subdivision != "" {
				return subdivision
			}
		}
	}
	return longName
}

func firstNonEmpty(values map[string]string, keys []string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(values[key]); v != "" {
			return v
		}
	}
	return ""
}

var _ Provider = (*NominatimClient)(nil)
