package maps

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autofill_backend/internal/autofill/engine"
	"autofill_backend/platform/config"
	"autofill_backend/platform/logger"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Provider is a geocoding backend with a name for logging.
type Provider interface {
	engine.Geocoder
	Name() string
}

// NewProvider builds the configured geocoding provider.
func NewProvider(cfg config.GeocoderConfig, log *logger.Logger) (Provider, error) {
	transport := newUpstream(cfg, log)
	switch cfg.GetGeocoderProvider() {
	case config.ProviderGoogle:
		return NewGoogleClient(transport, cfg.GetGeocoderBaseURL(), cfg.GetGoogleMapsAPIKey(), cfg.GetGeocoderCountryCodes()), nil
	case config.ProviderNominatim, "":
		return NewNominatimClient(transport, cfg.GetGeocoderBaseURL(), cfg.GetGeocoderCountryCodes()), nil
	default:
		return nil, fmt.Errorf("unsupported geocoder provider %q", cfg.GetGeocoderProvider())
	}
}

// upstream performs throttled JSON GETs against a geocoding API. Public
// geocoders enforce request budgets (Nominatim allows one request per second),
// so every call waits on the limiter first.
type upstream struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       *logger.Logger
}

func newUpstream(cfg config.GeocoderConfig, log *logger.Logger) *upstream {
	limit := rate.Inf
	if perSec := cfg.GetGeocoderRatePerSec(); perSec > 0 {
		limit = rate.Limit(perSec)
	}
	return &upstream{
		client:    &http.Client{Timeout: cfg.GetGeocoderTimeout()},
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.GetGeocoderUserAgent(),
		log:       log,
	}
}

func (u *upstream) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	if err := u.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if u.userAgent != "" {
		req.Header.Set("User-Agent", u.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return &engine.StatusError{
			Status: strconv.Itoa(resp.StatusCode),
			Err:    fmt.Errorf("upstream api error: %d", resp.StatusCode),
		}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (u *upstream) observe(ctx context.Context, provider, operation string, start time.Time, candidates int, err error) {
	if u.log == nil {
		return
	}
	u.log.WithContext(ctx).GeocodeRequest(provider, operation, candidates, float64(time.Since(start).Milliseconds()), err)
}

func splitCountryCodes(value string) []string {
	parts := strings.Split(value, ",")
	codes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			codes = append(codes, trimmed)
		}
	}
	return codes
}
