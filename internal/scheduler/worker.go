package scheduler

import (
	"context"
	"fmt"
	"strings"

	mediaservice "trefa_backend/internal/media/service"
	"trefa_backend/platform/config"
	"trefa_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	media  *mediaservice.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, media *mediaservice.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 5
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		media:  media,
		log:    log,
	}

	mux.HandleFunc(TaskMediaSync, w.handleMediaSync)

	return w, nil
}

func (w *Worker) handleMediaSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMediaSyncPayload(task)
	if err != nil {
		return err
	}

	recordID := strings.TrimSpace(payload.RecordID)
	if recordID == "" {
		// A malformed payload will never succeed; drop it.
		w.log.Warn("media sync task with empty record id")
		return nil
	}

	result, err := w.media.SyncRecord(ctx, recordID)
	if err != nil {
		w.log.Error("media sync failed", "record_id", recordID, "error", err)
		return err
	}

	w.log.Info("media sync completed",
		"record_id", recordID,
		"uploaded", result.Uploaded,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
