package transport

import (
	"autofill_backend/internal/autofill/engine"

	"github.com/google/uuid"
)

// WidgetConfig describes the form a request fills. Fields and Preset are
// mutually exclusive; with neither, the source field receives the whole
// formatted address.
type WidgetConfig struct {
	Source             string           `json:"source" validate:"required,max=200"`
	Fields             engine.RawConfig `json:"fields,omitempty" validate:"omitempty,max=50"`
	Preset             string           `json:"preset,omitempty" validate:"omitempty,max=100"`
	SelectFirstOnEnter *bool            `json:"selectFirstOnEnter,omitempty"`
	ReverseSelector    string           `json:"reverseSelector,omitempty" validate:"omitempty,max=200"`
	ForwardSelector    string           `json:"forwardSelector,omitempty" validate:"omitempty,max=200"`
}

// FillRequest fills the form from a place picked in the autocomplete dropdown.
type FillRequest struct {
	Config WidgetConfig        `json:"config"`
	Place  *engine.PlaceResult `json:"place"`
}

// GeolocateRequest fills the form from the address at the device position.
type GeolocateRequest struct {
	Config   WidgetConfig `json:"config"`
	Lat      *float64     `json:"lat" validate:"required,min=-90,max=90"`
	Lng      *float64     `json:"lng" validate:"required,min=-180,max=180"`
	Accuracy float64      `json:"accuracy" validate:"min=0"`
}

// SelectFirstRequest replays an Enter key press on the source field. Text is
// the typed value; Suggestions are the dropdown entries shown at the time.
type SelectFirstRequest struct {
	Config      WidgetConfig `json:"config"`
	Text        string       `json:"text" validate:"max=512"`
	Suggestions []string     `json:"suggestions,omitempty" validate:"omitempty,max=10,dive,max=512"`
}

// FillResponse reports the value of every target field after the trigger.
type FillResponse struct {
	Fields        []engine.FieldValue   `json:"fields"`
	Outcome       engine.Outcome        `json:"outcome"`
	Notifications []engine.Notification `json:"notifications"`
}

// SavePresetRequest contains data for creating or replacing a preset.
type SavePresetRequest struct {
	Description string           `json:"description" validate:"max=500"`
	Fields      engine.RawConfig `json:"fields" validate:"required,min=1,max=50"`
}

// PresetResponse represents a preset in API responses.
type PresetResponse struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Fields      engine.RawConfig `json:"fields"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
}

// PresetListResponse wraps a list of presets.
type PresetListResponse struct {
	Items []PresetResponse `json:"items"`
}
