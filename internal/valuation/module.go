// Package valuation wires the vehicle valuation bounded context: the
// public quote endpoint and the back-office attempt listing.
package valuation

import (
	apphttp "trefa_backend/internal/http"
	"trefa_backend/internal/valuation/handler"
	"trefa_backend/internal/valuation/service"
	"trefa_backend/platform/logger"
	"trefa_backend/platform/validator"
)

// Module implements the HTTP module interface for valuations.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the valuation module from an initialized service.
func NewModule(svc *service.Service, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: handler.New(svc, val, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "valuation" }

// RegisterRoutes mounts the valuation routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public, but rate limited: every request fans out into upstream
	// pricing calls that we pay for.
	ctx.V1.POST("/valuations", ctx.ValuationRateLimiter.RateLimit(), m.handler.RequestValuation)

	ctx.Protected.GET("/valuations", m.handler.ListValuations)
}
