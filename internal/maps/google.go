package maps

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"autofill_backend/internal/autofill/engine"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleClient geocodes against the Google Geocoding API. Candidate lists
// are returned in service order.
type GoogleClient struct {
	upstream *upstream
	baseURL  string
	apiKey   string
	region   string
}

func NewGoogleClient(u *upstream, baseURL, apiKey, countryCodes string) *GoogleClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeocodeURL
	}
	region := ""
	// The geocoding API filters on a single country component.
	if codes := splitCountryCodes(countryCodes); len(codes) > 0 {
		region = codes[0]
	}
	return &GoogleClient{upstream: u, baseURL: baseURL, apiKey: apiKey, region: region}
}

func (c *GoogleClient) Name() string { return "google" }

func (c *GoogleClient) ForwardGeocode(ctx context.Context, text string) (results []engine.PlaceResult, err error) {
	start := time.Now()
	defer func() { c.upstream.observe(ctx, c.Name(), "forward", start, len(results), err) }()

	params := url.Values{}
	params.Add("address", text)
	if c.region != "" {
		params.Add("components", "country:"+strings.ToUpper(c.region))
		params.Add("region", c.region)
	}
	return c.geocode(ctx, params)
}

func (c *GoogleClient) ReverseGeocode(ctx context.Context, at engine.Coordinate) (results []engine.PlaceResult, err error) {
	start := time.Now()
	defer func() { c.upstream.observe(ctx, c.Name(), "reverse", start, len(results), err) }()

	params := url.Values{}
	params.Add("latlng", strconv.FormatFloat(at.Lat, 'f', -1, 64)+","+strconv.FormatFloat(at.Lng, 'f', -1, 64))
	return c.geocode(ctx, params)
}

func (c *GoogleClient) geocode(ctx context.Context, params url.Values) ([]engine.PlaceResult, error) {
	params.Add("key", c.apiKey)

	var resp googleResponse
	if err := c.upstream.getJSON(ctx, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()), &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case googleStatusOK:
	case googleStatusZeroResults:
		return []engine.PlaceResult{}, nil
	default:
		statusErr := &engine.StatusError{Status: resp.Status}
		if resp.ErrorMessage != "" {
			statusErr.Err = errors.New(resp.ErrorMessage)
		}
		return nil, statusErr
	}

	results := make([]engine.PlaceResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, googlePlace(r))
	}
	return results, nil
}

func googlePlace(r googleResult) engine.PlaceResult {
	components := make([]engine.AddressComponent, 0, len(r.AddressComponents))
	for _, ac := range r.AddressComponents {
		components = append(components, engine.AddressComponent{
			Types:     ac.Types,
			LongName:  ac.LongName,
			ShortName: ac.ShortName,
		})
	}
	return engine.PlaceResult{
		PlaceID:           r.PlaceID,
		FormattedAddress:  r.FormattedAddress,
		Types:             r.Types,
		Location:          &engine.Coordinate{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		AddressComponents: components,
	}
}

var _ Provider = (*GoogleClient)(nil)
