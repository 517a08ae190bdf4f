package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"autofill_backend/internal/autofill/service"
	"autofill_backend/internal/autofill/transport"
	"autofill_backend/platform/httpkit"
	"autofill_backend/platform/validator"
)

// Handler handles HTTP requests for autofill.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidName      = "invalid preset name"
)

// New creates a new autofill handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Fill projects a picked place into the configured fields.
// POST /api/v1/autofill/fill
func (h *Handler) Fill(c *gin.Context) {
	var req transport.FillRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Fill(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Geolocate fills from the address at the device position.
// POST /api/v1/autofill/geolocate
func (h *Handler) Geolocate(c *gin.Context) {
	var req transport.GeolocateRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Geolocate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SelectFirst fills from the first forward-geocoding result for the typed text.
// POST /api/v1/autofill/select-first
func (h *Handler) SelectFirst(c *gin.Context) {
	var req transport.SelectFirstRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.SelectFirst(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListPresets retrieves all presets.
// GET /api/v1/autofill/presets
func (h *Handler) ListPresets(c *gin.Context) {
	result, err := h.svc.ListPresets(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetPreset retrieves a preset by name.
// GET /api/v1/autofill/presets/:name
func (h *Handler) GetPreset(c *gin.Context) {
	name, ok := h.presetName(c)
	if !ok {
		return
	}

	result, err := h.svc.GetPreset(c.Request.Context(), name)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SavePreset creates or replaces a preset.
// PUT /api/v1/autofill/presets/:name
func (h *Handler) SavePreset(c *gin.Context) {
	name, ok := h.presetName(c)
	if !ok {
		return
	}
	var req transport.SavePresetRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.SavePreset(c.Request.Context(), name, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeletePreset removes a preset.
// DELETE /api/v1/autofill/presets/:name
func (h *Handler) DeletePreset(c *gin.Context) {
	name, ok := h.presetName(c)
	if !ok {
		return
	}

	if err := h.svc.DeletePreset(c.Request.Context(), name); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func (h *Handler) presetName(c *gin.Context) (string, bool) {
	name := strings.TrimSpace(c.Param("name"))
	if err := h.val.Var(name, "required,max=100,printascii"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidName, nil)
		return "", false
	}
	return name, true
}
