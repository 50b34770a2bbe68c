package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trefa_backend/internal/events"
	mediaservice "trefa_backend/internal/media/service"
	"trefa_backend/internal/media/store"
	"trefa_backend/internal/records"
	"trefa_backend/internal/scheduler"
	"trefa_backend/platform/config"
	"trefa_backend/platform/logger"
)

// The worker consumes queued media sync tasks. It shares the media
// service wiring with the API process but carries no HTTP surface.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting media sync worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.IsRecordStoreEnabled() {
		panic("record store must be configured for the media sync worker")
	}

	recordClient := records.NewClient(records.Config{
		APIKey: cfg.GetAirtableAPIKey(),
		BaseID: cfg.GetAirtableBaseID(),
	})
	inventoryStore := records.NewInventoryStore(recordClient, cfg.GetAirtableInventoryTable())

	eventBus := events.NewInMemoryBus(log)
	mediaSvc := mediaservice.New(buildStoreTiers(cfg, log), inventoryStore, eventBus, log, cfg.GetMediaMaxFileSize())

	worker, err := scheduler.NewWorker(cfg, mediaSvc, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("worker listening", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("worker stopped")
}

func buildStoreTiers(cfg *config.Config, log *logger.Logger) []store.Tier {
	tiers := []store.Tier{
		{
			Store: store.NewR2Store(store.R2Config{
				EdgeFunctionsURL: cfg.GetEdgeFunctionsURL(),
				ServiceKey:       cfg.GetEdgeServiceKey(),
				AccountID:        cfg.GetR2AccountID(),
				Bucket:           cfg.GetR2BucketName(),
			}),
			Retry: store.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second},
		},
		{
			Store: store.NewSupabaseStore(store.SupabaseConfig{
				URL:        cfg.GetSupabaseURL(),
				ServiceKey: cfg.GetEdgeServiceKey(),
				Bucket:     cfg.GetSupabaseBucketName(),
			}),
			Retry: store.RetryPolicy{MaxAttempts: 1},
		},
	}

	if cfg.IsDirectS3Enabled() {
		s3Store, err := store.NewS3Store(store.S3Config{
			Endpoint:  cfg.GetDirectS3Endpoint(),
			AccessKey: cfg.GetDirectS3AccessKey(),
			SecretKey: cfg.GetDirectS3SecretKey(),
			Bucket:    cfg.GetR2BucketName(),
			UseSSL:    cfg.GetDirectS3UseSSL(),
		})
		if err != nil {
			log.Error("failed to initialize direct s3 store", "error", err)
		} else {
			tiers = append(tiers, store.Tier{Store: s3Store, Retry: store.RetryPolicy{MaxAttempts: 1}})
		}
	}

	return tiers
}
