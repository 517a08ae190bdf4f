package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MappingFile is the on-disk form of a widget configuration:
//
//	source: address
//	geolocate_trigger: locate-me
//	select_first_on_enter: true
//	reverse_selector: "index:1"
//	fields:
//	  street:
//	    components: [route, street_number:short_name]
//	    separator: " "
//	  postcode: [postal_code]
//	  0: [_all]
type MappingFile struct {
	Source             string    `yaml:"source"`
	GeolocateTrigger   string    `yaml:"geolocate_trigger,omitempty"`
	SelectFirstOnEnter *bool     `yaml:"select_first_on_enter,omitempty"`
	ReverseSelector    string    `yaml:"reverse_selector,omitempty"`
	ForwardSelector    string    `yaml:"forward_selector,omitempty"`
	Fields             RawConfig `yaml:"fields,omitempty"`
}

// LoadMappingFile reads and parses a YAML mapping file.
func LoadMappingFile(path string) (*MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	return ParseMappingFile(data)
}

// ParseMappingFile parses YAML data into a MappingFile.
func ParseMappingFile(data []byte) (*MappingFile, error) {
	var mf MappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse mapping YAML: %w", err)
	}
	return &mf, nil
}

// Config resolves the file into a widget configuration.
func (mf *MappingFile) Config() (Config, error) {
	reverse, err := ParseSelector(mf.ReverseSelector, DefaultReverseSelector)
	if err != nil {
		return Config{}, configError("reverse_selector: " + err.Error())
	}
	forward, err := ParseSelector(mf.ForwardSelector, DefaultForwardSelector)
	if err != nil {
		return Config{}, configError("forward_selector: " + err.Error())
	}

	return Config{
		SourceField:          FieldRef(mf.Source),
		AutoFillTargetFields: mf.Fields,
		GeolocateTrigger:     mf.GeolocateTrigger,
		SelectFirstOnEnter:   mf.SelectFirstOnEnter,
		ReverseSelector:      reverse,
		ForwardSelector:      forward,
	}, nil
}
