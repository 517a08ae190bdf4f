package engine

import "strings"

// FieldValue is one projected field.
type FieldValue struct {
	Field FieldRef `json:"field"`
	Value string   `json:"value"`
}

// Projection holds field values in the mapping's declared order.
type Projection []FieldValue

// Get returns the value projected for field.
func (p Projection) Get(field FieldRef) (string, bool) {
	for _, fv := range p {
		if fv.Field == field {
			return fv.Value, true
		}
	}
	return "", false
}

// Project turns place into field values. It returns false when there is
// nothing to project: no fields, no place, or a place without component data.
// Project is pure; the same inputs always give the same projection.
func Project(m *CompiledMapping, place *PlaceResult) (Projection, bool) {
	if m == nil || len(m.fields) == 0 || place == nil || place.AddressComponents == nil {
		return nil, false
	}

	lookup := buildLookup(m, place.AddressComponents)

	out := make(Projection, 0, len(m.fields))
	for _, field := range m.fields {
		values := make([]string, 0, len(field.Components))
		for _, spec := range field.Components {
			if spec.IsWildcard() {
				for _, component := range place.AddressComponents {
					values = append(values, component.Value(spec.Style))
				}
				continue
			}
			if value, ok := lookup[spec.String()]; ok {
				values = append(values, value)
			}
		}
		out = append(out, FieldValue{Field: field.Target, Value: strings.Join(values, field.Separator)})
	}

	return out, true
}

// buildLookup indexes components by "primaryType:style" for every required
// spec. A later component with the same primary type replaces an earlier one.
func buildLookup(m *CompiledMapping, components []AddressComponent) map[string]string {
	lookup := make(map[string]string)
	for _, component := range components {
		primary, ok := component.PrimaryType()
		if !ok {
			continue
		}
		for _, style := range m.required[primary] {
			lookup[ComponentSpec{Type: primary, Style: style}.String()] = component.Value(style)
		}
	}
	return lookup
}
