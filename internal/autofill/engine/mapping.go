package engine

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"autofill_backend/platform/apperr"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks every error produced while compiling a widget
// configuration. Such errors abort construction.
var ErrConfiguration = errors.New("autofill configuration error")

// Target keys that designate the source field itself.
const (
	SelfKey      = "0"
	SelfKeyAlias = "self"
)

// RawField is one entry of the caller-supplied mapping, before compilation.
// Components hold "type" or "type:style" strings.
type RawField struct {
	Target     string   `json:"target" yaml:"target"`
	Components []string `json:"components" yaml:"components"`
	Separator  *string  `json:"separator,omitempty" yaml:"separator,omitempty"`
}

type rawFieldBody struct {
	Components []string `json:"components" yaml:"components"`
	Separator  *string  `json:"separator,omitempty" yaml:"separator,omitempty"`
}

// RawConfig is the ordered list of raw field mappings. It decodes from either
// a list of RawField or an object keyed by target, in which case key order is
// kept. A field body may also be a bare list of component strings.
type RawConfig []RawField

// UnmarshalJSON implements json.Unmarshaler.
func (c *RawConfig) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var fields []RawField
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return err
		}
		*c = fields
		return nil
	case '{':
		fields, err := decodeJSONFieldObject(trimmed)
		if err != nil {
			return err
		}
		*c = fields
		return nil
	default:
		return fmt.Errorf("autofill fields must be an object or a list")
	}
}

func decodeJSONFieldObject(data []byte) (RawConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	fields := RawConfig{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		target, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected autofill field key %v", tok)
		}

		var body json.RawMessage
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("field %q: %w", target, err)
		}

		field := RawField{Target: target}
		body = bytes.TrimSpace(body)
		if len(body) > 0 && body[0] == '[' {
			if err := json.Unmarshal(body, &field.Components); err != nil {
				return nil, fmt.Errorf("field %q: %w", target, err)
			}
		} else {
			var decoded rawFieldBody
			if err := json.Unmarshal(body, &decoded); err != nil {
				return nil, fmt.Errorf("field %q: %w", target, err)
			}
			field.Components = decoded.Components
			field.Separator = decoded.Separator
		}
		fields = append(fields, field)
	}

	return fields, nil
}

// MarshalJSON always emits the list form so that field order survives
// storage and transport.
func (c RawConfig) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	return json.Marshal([]RawField(c))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *RawConfig) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var fields []RawField
		if err := value.Decode(&fields); err != nil {
			return err
		}
		*c = fields
		return nil
	case yaml.MappingNode:
		fields := make(RawConfig, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			target := value.Content[i].Value
			bodyNode := value.Content[i+1]

			field := RawField{Target: target}
			if bodyNode.Kind == yaml.SequenceNode {
				if err := bodyNode.Decode(&field.Components); err != nil {
					return fmt.Errorf("field %q: %w", target, err)
				}
			} else {
				var body rawFieldBody
				if err := bodyNode.Decode(&body); err != nil {
					return fmt.Errorf("field %q: %w", target, err)
				}
				field.Components = body.Components
				field.Separator = body.Separator
			}
			fields = append(fields, field)
		}
		*c = fields
		return nil
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*c = nil
			return nil
		}
	}
	return fmt.Errorf("line %d: autofill fields must be a mapping or a list", value.Line)
}

// FieldMapping is a compiled destination field.
type FieldMapping struct {
	Target     FieldRef
	Self       bool
	Components []ComponentSpec
	Separator  string
}

// CompiledMapping is the immutable result of Compile.
type CompiledMapping struct {
	fields []FieldMapping
	// required indexes non-wildcard specs by component type; a type may be
	// wanted in several styles.
	required map[string][]Style
}

// Fields returns a copy of the compiled field mappings in declared order.
func (m *CompiledMapping) Fields() []FieldMapping {
	out := make([]FieldMapping, len(m.fields))
	for i, f := range m.fields {
		f.Components = append([]ComponentSpec(nil), f.Components...)
		out[i] = f
	}
	return out
}

// Targets returns the destination fields in declared order.
func (m *CompiledMapping) Targets() []FieldRef {
	out := make([]FieldRef, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f.Target)
	}
	return out
}

// RequiredTypes returns every non-wildcard spec used by the mapping.
func (m *CompiledMapping) RequiredTypes() []ComponentSpec {
	out := make([]ComponentSpec, 0)
	for _, f := range m.fields {
		for _, spec := range f.Components {
			if !spec.IsWildcard() {
				out = append(out, spec)
			}
		}
	}
	return out
}

// Requires reports whether spec takes part in lookup-table construction.
func (m *CompiledMapping) Requires(spec ComponentSpec) bool {
	for _, style := range m.required[spec.Type] {
		if style == spec.Style {
			return true
		}
	}
	return false
}

// DefaultConfig fills the source field itself with every component, long form.
func DefaultConfig() RawConfig {
	return RawConfig{{Target: SelfKey, Components: []string{WildcardType + ":" + string(StyleLongName)}}}
}

// Compile normalizes raw into a CompiledMapping. Target keys "0" and "self"
// resolve to the self field. An empty raw config compiles to DefaultConfig.
func Compile(raw RawConfig, self FieldRef) (*CompiledMapping, error) {
	if len(raw) == 0 {
		raw = DefaultConfig()
	}

	compiled := &CompiledMapping{
		fields:   make([]FieldMapping, 0, len(raw)),
		required: make(map[string][]Style),
	}

	for _, rawField := range raw {
		field, err := compileField(rawField, self)
		if err != nil {
			return nil, err
		}
		for _, spec := range field.Components {
			if spec.IsWildcard() || compiled.Requires(spec) {
				continue
			}
			compiled.required[spec.Type] = append(compiled.required[spec.Type], spec.Style)
		}
		compiled.fields = append(compiled.fields, field)
	}

	return compiled, nil
}

func compileField(raw RawField, self FieldRef) (FieldMapping, error) {
	target := strings.TrimSpace(raw.Target)
	field := FieldMapping{
		Target:     FieldRef(target),
		Components: make([]ComponentSpec, 0, len(raw.Components)),
		Separator:  DefaultSeparator,
	}

	switch target {
	case "":
		return FieldMapping{}, configError("autofill field target must not be empty")
	case SelfKey, SelfKeyAlias:
		if self == "" {
			return FieldMapping{}, configError("self-fill target requires a source field")
		}
		field.Target = self
		field.Self = true
	}

	if raw.Separator != nil {
		field.Separator = *raw.Separator
	}

	for _, rawSpec := range raw.Components {
		spec, err := ParseComponentSpec(rawSpec)
		if err != nil {
			return FieldMapping{}, configError(fmt.Sprintf("field %q: %s", target, err.Error()))
		}
		field.Components = append(field.Components, spec)
	}

	return field, nil
}

// ParseComponentSpec parses "type" or "type:style". A missing style means
// long_name; any style other than long_name or short_name is rejected.
func ParseComponentSpec(raw string) (ComponentSpec, error) {
	componentType, style, hasStyle := strings.Cut(strings.TrimSpace(raw), ":")
	if componentType == "" {
		return ComponentSpec{}, fmt.Errorf("component %q has no type", raw)
	}
	if !hasStyle {
		return ComponentSpec{Type: componentType, Style: StyleLongName}, nil
	}

	switch Style(style) {
	case StyleLongName, StyleShortName:
		return ComponentSpec{Type: componentType, Style: Style(style)}, nil
	default:
		return ComponentSpec{}, fmt.Errorf("component %q has unknown style %q", raw, style)
	}
}

func configError(message string) *apperr.Error {
	return apperr.Wrap(apperr.KindValidation, message, ErrConfiguration).WithOp("autofill.Compile")
}
