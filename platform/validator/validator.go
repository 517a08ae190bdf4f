// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the application's custom tags registered.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("component_spec", componentSpec)
	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// componentSpec accepts "type" or "type:style" where style is long_name or short_name.
func componentSpec(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	componentType, style, hasStyle := strings.Cut(raw, ":")
	if strings.TrimSpace(componentType) == "" {
		return false
	}
	if !hasStyle {
		return true
	}
	return style == "long_name" || style == "short_name"
}
