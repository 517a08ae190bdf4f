package validator

import "testing"

type specHolder struct {
	Specs []string `validate:"dive,component_spec"`
}

func TestComponentSpecTag(t *testing.T) {
	val := New()

	valid := specHolder{Specs: []string{"locality", "postal_code:short_name", "_all:long_name"}}
	if err := val.Struct(valid); err != nil {
		t.Fatalf("expected specs to be valid, got %v", err)
	}

	for _, spec := range []string{"", ":long_name", "route:medium_name"} {
		if err := val.Struct(specHolder{Specs: []string{spec}}); err == nil {
			t.Fatalf("expected %q to be rejected", spec)
		}
	}
}
