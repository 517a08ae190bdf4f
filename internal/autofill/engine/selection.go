package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Selector narrows a list of geocoding candidates to the one to project.
type Selector interface {
	Select(candidates []PlaceResult) (*PlaceResult, bool)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(candidates []PlaceResult) (*PlaceResult, bool)

func (f SelectorFunc) Select(candidates []PlaceResult) (*PlaceResult, bool) {
	return f(candidates)
}

// IndexSelector picks the candidate at a fixed position and never falls back.
type IndexSelector int

func (i IndexSelector) Select(candidates []PlaceResult) (*PlaceResult, bool) {
	idx := int(i)
	if idx < 0 || idx >= len(candidates) {
		return nil, false
	}
	return &candidates[idx], true
}

// TypeSelector picks the first candidate tagged with one of Types, in the
// order the types are listed, and defers to Fallback when none matches.
type TypeSelector struct {
	Types    []string
	Fallback Selector
}

func (s TypeSelector) Select(candidates []PlaceResult) (*PlaceResult, bool) {
	for _, resultType := range s.Types {
		for i := range candidates {
			if candidates[i].HasType(resultType) {
				return &candidates[i], true
			}
		}
	}
	if s.Fallback == nil {
		return nil, false
	}
	return s.Fallback.Select(candidates)
}

// Reverse geocoding tends to list the most specific match (a point of
// interest or plus code) first and the street address second. The ordering
// is an observation about the service, not a contract.
var (
	DefaultReverseSelector Selector = IndexSelector(1)
	DefaultForwardSelector Selector = IndexSelector(0)
)

// ParseSelector reads a selector expression:
//
//	""                          -> fallback
//	"index:N"                   -> IndexSelector(N)
//	"type:a,b[;fallback-expr]"  -> TypeSelector over a, b, falling back to
//	                               fallback-expr or to fallback when omitted
func ParseSelector(expr string, fallback Selector) (Selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return fallback, nil
	}

	kind, arg, _ := strings.Cut(expr, ":")
	switch kind {
	case "index":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid selector index %q", arg)
		}
		return IndexSelector(n), nil
	case "type":
		typesPart, fallbackPart, hasFallback := strings.Cut(arg, ";")
		types := make([]string, 0)
		for _, t := range strings.Split(typesPart, ",") {
			if trimmed := strings.TrimSpace(t); trimmed != "" {
				types = append(types, trimmed)
			}
		}
		if len(types) == 0 {
			return nil, fmt.Errorf("type selector %q lists no types", expr)
		}
		next := fallback
		if hasFallback {
			parsed, err := ParseSelector(fallbackPart, fallback)
			if err != nil {
				return nil, err
			}
			next = parsed
		}
		return TypeSelector{Types: types, Fallback: next}, nil
	default:
		return nil, fmt.Errorf("unknown selector %q", expr)
	}
}
