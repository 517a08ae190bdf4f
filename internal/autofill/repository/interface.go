package repository

import (
	"context"
	"time"

	"autofill_backend/internal/autofill/engine"

	"github.com/google/uuid"
)

// Preset is a named, stored field mapping.
type Preset struct {
	ID          uuid.UUID
	Name        string
	Description string
	Fields      engine.RawConfig
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaveParams contains parameters for creating or replacing a preset.
type SaveParams struct {
	Name        string
	Description string
	Fields      engine.RawConfig
}

// PresetReader provides read operations for presets.
type PresetReader interface {
	GetByName(ctx context.Context, name string) (Preset, error)
	List(ctx context.Context) ([]Preset, error)
}

// PresetWriter provides write operations for presets.
type PresetWriter interface {
	Save(ctx context.Context, params SaveParams) (Preset, error)
	Delete(ctx context.Context, name string) error
}

// Repository combines all preset repository operations.
type Repository interface {
	PresetReader
	PresetWriter
}
