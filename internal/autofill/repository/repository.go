package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"autofill_backend/internal/autofill/engine"
	"autofill_backend/platform/apperr"
)

const presetNotFoundMessage = "preset not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new preset repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByName retrieves a preset by its unique name.
func (r *Repo) GetByName(ctx context.Context, name string) (Preset, error) {
	query := `
		SELECT id, name, description, fields, created_at, updated_at
		FROM autofill_presets
		WHERE name = $1`

	p, err := scanPreset(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Preset{}, apperr.NotFound(presetNotFoundMessage)
		}
		return Preset{}, fmt.Errorf("get preset by name: %w", err)
	}
	return p, nil
}

// List retrieves all presets ordered by name.
func (r *Repo) List(ctx context.Context) ([]Preset, error) {
	query := `
		SELECT id, name, description, fields, created_at, updated_at
		FROM autofill_presets
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	presets := make([]Preset, 0)
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate presets: %w", err)
	}
	return presets, nil
}

// Save inserts a preset or replaces the one with the same name.
func (r *Repo) Save(ctx context.Context, params SaveParams) (Preset, error) {
	fields, err := json.Marshal(params.Fields)
	if err != nil {
		return Preset{}, fmt.Errorf("encode preset fields: %w", err)
	}

	query := `
		INSERT INTO autofill_presets (id, name, description, fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
			fields = EXCLUDED.fields,
			updated_at = now()
		RETURNING id, name, description, fields, created_at, updated_at`

	p, err := scanPreset(r.pool.QueryRow(ctx, query, uuid.New(), params.Name, params.Description, fields))
	if err != nil {
		return Preset{}, fmt.Errorf("save preset: %w", err)
	}
	return p, nil
}

// Delete removes a preset by name.
func (r *Repo) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM autofill_presets WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(presetNotFoundMessage)
	}
	return nil
}

func scanPreset(row pgx.Row) (Preset, error) {
	var p Preset
	var fields []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &fields, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Preset{}, err
	}
	if len(fields) > 0 {
		var raw engine.RawConfig
		if err := json.Unmarshal(fields, &raw); err != nil {
			return Preset{}, fmt.Errorf("decode preset fields: %w", err)
		}
		p.Fields = raw
	}
	return p, nil
}
