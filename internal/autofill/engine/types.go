// Package engine projects structured place results from a geocoding service
// into form fields according to a declarative component mapping.
//
// A mapping is compiled once per widget (Compile), every trigger yields a
// place result that is narrowed by a Selector when the source returns several
// candidates, and Project turns the chosen result into field values that are
// written to a FieldSink.
package engine

import "strings"

// Style selects which textual form of an address component is used.
type Style string

const (
	StyleLongName  Style = "long_name"
	StyleShortName Style = "short_name"
)

// WildcardType matches every address component regardless of its category.
const WildcardType = "_all"

// DefaultSeparator joins collected component values when a field sets none.
const DefaultSeparator = ", "

// FieldRef identifies a destination field in a FieldSink.
type FieldRef string

// ComponentSpec names one address component category and the style to read.
type ComponentSpec struct {
	Type  string
	Style Style
}

// IsWildcard reports whether the spec expands to every component.
func (s ComponentSpec) IsWildcard() bool {
	return s.Type == WildcardType
}

func (s ComponentSpec) String() string {
	return s.Type + ":" + string(s.Style)
}

// AddressComponent is one typed part of a place result.
type AddressComponent struct {
	Types     []string `json:"types" yaml:"types"`
	LongName  string   `json:"long_name" yaml:"long_name"`
	ShortName string   `json:"short_name" yaml:"short_name"`
}

// PrimaryType returns types[0], the only category consulted for matching.
func (c AddressComponent) PrimaryType() (string, bool) {
	if len(c.Types) == 0 {
		return "", false
	}
	return c.Types[0], true
}

// Value returns the component text in the requested style.
func (c AddressComponent) Value(style Style) string {
	if style == StyleShortName {
		return c.ShortName
	}
	return c.LongName
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Position is a coordinate with the accuracy radius (meters) reported by the
// geolocation provider.
type Position struct {
	Coordinate
	Accuracy float64 `json:"accuracy" yaml:"accuracy"`
}

// PlaceResult is the structured response of an autocomplete or geocoding
// service. A nil AddressComponents slice means the place carries no component
// data at all, which projects to no result.
type PlaceResult struct {
	PlaceID           string             `json:"place_id,omitempty" yaml:"place_id,omitempty"`
	FormattedAddress  string             `json:"formatted_address,omitempty" yaml:"formatted_address,omitempty"`
	Types             []string           `json:"types,omitempty" yaml:"types,omitempty"`
	Location          *Coordinate        `json:"location,omitempty" yaml:"location,omitempty"`
	AddressComponents []AddressComponent `json:"address_components" yaml:"address_components"`
}

// HasType reports whether the place is tagged with the given result type.
func (p PlaceResult) HasType(resultType string) bool {
	for _, t := range p.Types {
		if strings.EqualFold(t, resultType) {
			return true
		}
	}
	return false
}
