package maps

import (
	apphttp "autofill_backend/internal/http"
	"autofill_backend/platform/logger"
)

// Module wires the maps lookup HTTP routes.
type Module struct {
	handler *Handler
}

func NewModule(svc *Service) *Module {
	return &Module{handler: NewHandler(svc)}
}

// NewModuleFromProvider builds the service around provider.
func NewModuleFromProvider(provider Provider, log *logger.Logger) *Module {
	return NewModule(NewService(provider, log))
}

func (m *Module) Name() string {
	return "maps"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/maps")
	group.GET("/address-lookup", m.handler.LookupAddress)
	group.GET("/reverse", m.handler.ReverseLookup)
}

var _ apphttp.Module = (*Module)(nil)
