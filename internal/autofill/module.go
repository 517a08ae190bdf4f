// Package autofill provides the address autofill bounded context module.
// It fills form fields from geocoded places using a per-request field map.
package autofill

import (
	"autofill_backend/internal/autofill/engine"
	"autofill_backend/internal/autofill/handler"
	"autofill_backend/internal/autofill/repository"
	"autofill_backend/internal/autofill/service"
	apphttp "autofill_backend/internal/http"
	"autofill_backend/platform/logger"
	"autofill_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the autofill bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the autofill module. pool may be nil, in which case
// preset storage is disabled.
func NewModule(pool *pgxpool.Pool, geocoder engine.Geocoder, val *validator.Validator, log *logger.Logger) *Module {
	var repo repository.Repository
	if pool != nil {
		repo = repository.New(pool)
	}
	return newModule(service.New(geocoder, repo, val, log), val)
}

func newModule(svc *service.Service, val *validator.Validator) *Module {
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "autofill"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts autofill routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/autofill")
	group.POST("/fill", m.handler.Fill)
	group.POST("/geolocate", m.handler.Geolocate)
	group.POST("/select-first", m.handler.SelectFirst)

	if !m.service.PresetsEnabled() {
		return
	}
	presets := group.Group("/presets")
	presets.GET("", m.handler.ListPresets)
	presets.GET("/:name", m.handler.GetPreset)
	presets.PUT("/:name", m.handler.SavePreset)
	presets.DELETE("/:name", m.handler.DeletePreset)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
