package maps

import (
	"net/http"

	"autofill_backend/internal/autofill/engine"
	"autofill_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler exposes the maps lookup endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// LookupAddress handles GET /api/v1/maps/address-lookup?q=...
func (h *Handler) LookupAddress(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'q' is required (min 3 chars)", nil)
		return
	}

	results, err := h.svc.SearchAddress(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, results)
}

// ReverseLookup handles GET /api/v1/maps/reverse?lat=...&lng=...
func (h *Handler) ReverseLookup(c *gin.Context) {
	var req ReverseRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query 'lat' and 'lng' must be valid coordinates", nil)
		return
	}

	results, err := h.svc.Reverse(c.Request.Context(), engine.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, results)
}
