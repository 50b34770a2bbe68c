// Package handler exposes the valuation HTTP endpoints.
package handler

import (
	"net/http"

	"trefa_backend/internal/valuation/pricing"
	"trefa_backend/internal/valuation/service"
	"trefa_backend/internal/valuation/transport"
	"trefa_backend/platform/httpkit"
	"trefa_backend/platform/logger"
	"trefa_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles valuation HTTP requests.
type Handler struct {
	service   *service.Service
	validator *validator.Validator
	log       *logger.Logger
}

// New creates a valuation handler.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: svc, validator: val, log: log}
}

// RequestValuation handles POST /api/v1/valuations.
// Public endpoint used by the seller-facing quote flow.
func (h *Handler) RequestValuation(c *gin.Context) {
	var req transport.ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	resp, err := h.service.RequestValuation(c.Request.Context(), req)
	if err != nil {
		h.respondPricingError(c, err)
		return
	}

	httpkit.OK(c, resp)
}

// ListValuations handles GET /api/v1/valuations.
// Protected back-office endpoint returning recent attempts.
func (h *Handler) ListValuations(c *gin.Context) {
	attempts, err := h.service.ListRecent(c.Request.Context(), 50)
	if err != nil {
		h.log.DatabaseError("list valuation attempts", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to list valuations", nil)
		return
	}
	httpkit.OK(c, gin.H{"valuations": attempts})
}

// respondPricingError maps typed pricing failures onto stable HTTP
// responses. The failure kind travels in the "code" field so the frontend
// can branch without parsing messages.
func (h *Handler) respondPricingError(c *gin.Context, err error) {
	kind, ok := pricing.KindOf(err)
	if !ok {
		httpkit.Error(c, http.StatusBadGateway, "valuation failed", nil)
		return
	}

	var status int
	var message string
	switch kind {
	case pricing.FailureExhausted:
		status = http.StatusUnprocessableEntity
		message = "we could not price this vehicle automatically"
	case pricing.FailureDeadline:
		status = http.StatusGatewayTimeout
		message = "the pricing service took too long to respond"
	case pricing.FailureAuth:
		status = http.StatusBadGateway
		message = "the pricing service rejected our credentials"
	default:
		// FailureTransport, FailureProtocol
		status = http.StatusBadGateway
		message = "the pricing service is unavailable"
	}

	h.log.HTTPError(c.Request.Method, c.Request.URL.Path, status, err, c.ClientIP())
	c.JSON(status, httpkit.ErrorResponse{Error: message, Code: kind.String()})
}
