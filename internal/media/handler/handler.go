// Package handler exposes the media sync HTTP endpoints.
package handler

import (
	"net/http"
	"strings"

	"trefa_backend/internal/media/service"
	"trefa_backend/internal/media/transport"
	"trefa_backend/internal/scheduler"
	"trefa_backend/platform/httpkit"
	"trefa_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler handles media sync requests.
type Handler struct {
	service  *service.Service
	enqueuer scheduler.MediaSyncEnqueuer
	log      *logger.Logger
}

// New creates a media handler. enqueuer may be nil when the queue is not
// configured; background syncs are then rejected.
func New(svc *service.Service, enqueuer scheduler.MediaSyncEnqueuer, log *logger.Logger) *Handler {
	return &Handler{service: svc, enqueuer: enqueuer, log: log}
}

// EnqueueSync handles POST /api/v1/media/records/:recordId/sync.
// Queues a background sync and returns immediately.
func (h *Handler) EnqueueSync(c *gin.Context) {
	recordID, ok := recordIDParam(c)
	if !ok {
		return
	}

	if h.enqueuer == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "background sync is not configured", nil)
		return
	}

	if err := h.enqueuer.EnqueueMediaSync(c.Request.Context(), scheduler.MediaSyncPayload{RecordID: recordID}); err != nil {
		h.log.Error("failed to enqueue media sync", "record_id", recordID, "error", err)
		httpkit.Error(c, http.StatusInternalServerError, "failed to enqueue sync", nil)
		return
	}

	actor := httpkit.GetIdentity(c)
	h.log.Info("media sync queued", "record_id", recordID, "user_id", actor.UserID().String())

	httpkit.Accepted(c, transport.SyncAccepted{RecordID: recordID, Status: "queued"})
}

// RunSync handles POST /api/v1/media/records/:recordId/sync/run.
// Runs the sync synchronously and returns the per-category summary.
func (h *Handler) RunSync(c *gin.Context) {
	recordID, ok := recordIDParam(c)
	if !ok {
		return
	}

	actor := httpkit.GetIdentity(c)
	h.log.Info("media sync started", "record_id", recordID, "user_id", actor.UserID().String())

	result, err := h.service.SyncRecord(c.Request.Context(), recordID)
	if err != nil {
		h.log.Error("media sync failed", "record_id", recordID, "error", err)
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, result)
}

func recordIDParam(c *gin.Context) (string, bool) {
	recordID := strings.TrimSpace(c.Param("recordId"))
	if recordID == "" {
		httpkit.Error(c, http.StatusBadRequest, "record id is required", nil)
		return "", false
	}
	return recordID, true
}
