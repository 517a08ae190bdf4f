package maps

import (
	"context"
	"strconv"
	"strings"

	"autofill_backend/internal/autofill/engine"
	"autofill_backend/platform/apperr"
	"autofill_backend/platform/logger"
	"autofill_backend/platform/sanitize"
)

// Service turns geocoder candidates into address suggestions for forms.
type Service struct {
	provider Provider
	log      *logger.Logger
}

func NewService(provider Provider, log *logger.Logger) *Service {
	return &Service{provider: provider, log: log}
}

// Provider returns the underlying geocoder.
func (s *Service) Provider() Provider { return s.provider }

// SearchAddress forward geocodes query and keeps candidates that resolve to a
// street in a city.
func (s *Service) SearchAddress(ctx context.Context, query string) ([]AddressSuggestion, error) {
	query = sanitize.Query(query)
	if query == "" {
		return nil, apperr.Validation("query is empty after sanitizing")
	}

	places, err := s.provider.ForwardGeocode(ctx, query)
	if err != nil {
		return nil, apperr.Unavailable("address lookup service unavailable", err).WithOp("maps.SearchAddress")
	}
	return buildSuggestions(places), nil
}

// Reverse returns the suggestions found around at, most specific first.
func (s *Service) Reverse(ctx context.Context, at engine.Coordinate) ([]AddressSuggestion, error) {
	places, err := s.provider.ReverseGeocode(ctx, at)
	if err != nil {
		return nil, apperr.Unavailable("reverse geocoding service unavailable", err).WithOp("maps.Reverse")
	}
	return buildSuggestions(places), nil
}

func buildSuggestions(places []engine.PlaceResult) []AddressSuggestion {
	suggestions := make([]AddressSuggestion, 0, len(places))
	for i := range places {
		suggestion, ok := buildSuggestion(&places[i])
		if !ok {
			continue
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions
}

func buildSuggestion(place *engine.PlaceResult) (AddressSuggestion, bool) {
	street := componentValue(place, "route")
	if street == "" {
		return AddressSuggestion{}, false
	}

	city := componentValue(place, "locality")
	if city == "" {
		city = componentValue(place, "postal_town")
	}
	if city == "" {
		return AddressSuggestion{}, false
	}

	suggestion := AddressSuggestion{
		Street:      street,
		HouseNumber: componentValue(place, "street_number"),
		ZipCode:     componentValue(place, "postal_code"),
		City:        city,
		PlaceID:     place.PlaceID,
	}
	if place.Location != nil {
		suggestion.Lat = strconv.FormatFloat(place.Location.Lat, 'f', -1, 64)
		suggestion.Lon = strconv.FormatFloat(place.Location.Lng, 'f', -1, 64)
	}

	suggestion.Label = buildLabel(suggestion)

	return suggestion, true
}

func componentValue(place *engine.PlaceResult, componentType string) string {
	for _, c := range place.AddressComponents {
		if t, ok := c.PrimaryType(); ok && t == componentType {
			return c.LongName
		}
	}
	return ""
}

func buildLabel(suggestion AddressSuggestion) string {
	parts := []string{suggestion.Street}
	if suggestion.HouseNumber != "" {
		parts = append(parts, suggestion.HouseNumber)
	}
	parts = append(parts, ",")
	if suggestion.ZipCode != "" {
		parts = append(parts, suggestion.ZipCode)
	}
	parts = append(parts, suggestion.City)

	label := strings.Join(parts, " ")
	label = strings.ReplaceAll(label, " ,", ",")
	return strings.TrimSpace(label)
}
