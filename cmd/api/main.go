package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trefa_backend/internal/email"
	"trefa_backend/internal/events"
	apphttp "trefa_backend/internal/http"
	"trefa_backend/internal/http/router"
	"trefa_backend/internal/media"
	mediaservice "trefa_backend/internal/media/service"
	"trefa_backend/internal/media/store"
	"trefa_backend/internal/records"
	"trefa_backend/internal/scheduler"
	"trefa_backend/internal/valuation"
	"trefa_backend/internal/valuation/pricing"
	"trefa_backend/internal/valuation/repository"
	valuationservice "trefa_backend/internal/valuation/service"
	"trefa_backend/platform/config"
	"trefa_backend/platform/db"
	"trefa_backend/platform/logger"
	"trefa_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Offer email notifications subscribe to the event bus
	sender := email.NewSender(cfg)
	email.NewNotifier(sender, log).Register(eventBus)

	// External record store (Airtable) is optional; the valuation flow
	// works without it and media sync endpoints report it as missing.
	var inventoryStore *records.InventoryStore
	var valuationRecords valuationservice.RecordStore
	if cfg.IsRecordStoreEnabled() {
		recordClient := records.NewClient(records.Config{
			APIKey: cfg.GetAirtableAPIKey(),
			BaseID: cfg.GetAirtableBaseID(),
		})
		inventoryStore = records.NewInventoryStore(recordClient, cfg.GetAirtableInventoryTable())
		valuationRecords = records.NewValuationStore(recordClient, cfg.GetAirtableValuationsTable())
		log.Info("record store configured", "base", cfg.GetAirtableBaseID())
	} else {
		log.Warn("record store not configured; valuations will not be mirrored")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	pricingClient := pricing.NewClient(pricing.Config{
		RelayURL:  cfg.GetPricingRelayURL(),
		BaseURL:   cfg.GetPricingAPIBaseURL(),
		APIKey:    cfg.GetPricingAPIKey(),
		APISecret: cfg.GetPricingAPISecret(),
	})

	valuationSvc := valuationservice.New(
		pricingClient,
		repository.NewPostgres(pool),
		valuationRecords,
		eventBus,
		log,
		valuationservice.Config{
			BusinessUnitID: cfg.GetPricingBusinessUnitID(),
			Deadline:       cfg.GetValuationDeadline(),
			PollInterval:   cfg.GetPollInterval(),
			MaxAttempts:    cfg.GetPollMaxAttempts(),
		},
	)
	valuationModule := valuation.NewModule(valuationSvc, val, log)

	mediaSvc := mediaservice.New(buildStoreTiers(cfg, log), recordSource(inventoryStore), eventBus, log, cfg.GetMediaMaxFileSize())

	schedulerClient, closeScheduler := initSchedulerClient(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	mediaModule := media.NewModule(mediaSvc, schedulerClient, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			valuationModule,
			mediaModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// buildStoreTiers assembles the blob store tiers in upload order: the R2
// edge functions first with bounded retries, Supabase as the single-shot
// fallback, and the optional direct S3 tier last.
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
			log.Info("direct s3 store tier enabled", "endpoint", cfg.GetDirectS3Endpoint())
		}
	}

	return tiers
}

// recordSource avoids storing a typed nil pointer in the interface when
// the record store is not configured.
func recordSource(inventory *records.InventoryStore) mediaservice.RecordSource {
	if inventory == nil {
		return nil
	}
	return inventory
}

func initSchedulerClient(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.MediaSyncEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background media sync disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
