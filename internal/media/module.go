// Package media wires the media sync bounded context: mirroring record
// attachments into the blob store tiers.
package media

import (
	apphttp "trefa_backend/internal/http"
	"trefa_backend/internal/media/handler"
	"trefa_backend/internal/media/service"
	"trefa_backend/internal/scheduler"
	"trefa_backend/platform/logger"
)

// Module implements the HTTP module interface for media sync.
type Module struct {
	handler *handler.Handler
}

// NewModule creates the media module from an initialized service.
func NewModule(svc *service.Service, enqueuer scheduler.MediaSyncEnqueuer, log *logger.Logger) *Module {
	return &Module{handler: handler.New(svc, enqueuer, log)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "media" }

// RegisterRoutes mounts the media routes. Both endpoints mutate external
// storage, so they sit behind authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	records := ctx.Protected.Group("/media/records")
	records.POST("/:recordId/sync", m.handler.EnqueueSync)
	records.POST("/:recordId/sync/run", m.handler.RunSync)
}
