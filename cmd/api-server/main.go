package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sungwon/erasure-bridge/internal/api"
	"github.com/sungwon/erasure-bridge/internal/archive"
	"github.com/sungwon/erasure-bridge/internal/audit"
	"github.com/sungwon/erasure-bridge/internal/auth"
	"github.com/sungwon/erasure-bridge/internal/bootstrap"
	"github.com/sungwon/erasure-bridge/internal/catalog"
	"github.com/sungwon/erasure-bridge/internal/config"
	"github.com/sungwon/erasure-bridge/internal/datastore"
	"github.com/sungwon/erasure-bridge/internal/deletion"
	"github.com/sungwon/erasure-bridge/internal/logger"
	"github.com/sungwon/erasure-bridge/internal/metrics"
	"github.com/sungwon/erasure-bridge/internal/storage"
)

const defaultSigningKey = "change-me-in-production-use-a-strong-secret"

func main() {
	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	log.Info().Msg("starting erasure bridge")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := storage.Migrate(cfg.Database.URL, "up"); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
		log.Info().Msg("migrations applied")
	}

	// Connect to database
	db, err := storage.NewDB(
		ctx,
		cfg.Database.URL,
		cfg.Database.PoolMin,
		cfg.Database.PoolMax,
		cfg.Database.ConnectTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connection established")

	store := storage.NewStore(db)

	if err := bootstrap.SeedWebhookSecret(ctx, store, log, cfg.Bootstrap.WebhookSecret); err != nil {
		log.Fatal().Err(err).Msg("failed to seed webhook secret")
	}

	// Catalog, optionally cached in Redis
	var (
		cat         catalog.Catalog = catalog.NewStoreCatalog(store)
		invalidator api.CacheInvalidator
		limiter     *auth.LoginLimiter
	)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, catalog reads will fall through to the database")
		}
		cached := catalog.NewCachedCatalog(cat, rdb, cfg.Redis.CacheTTL)
		cat = cached
		invalidator = cached
		log.Info().Dur("ttl", cfg.Redis.CacheTTL).Msg("catalog cache enabled")

		limiter = auth.NewLoginLimiter(rdb, auth.RateLimitConfig{
			LoginAttemptsLimit:   cfg.Auth.LoginAttemptsLimit,
			LoginLockoutDuration: cfg.Auth.LoginLockoutDuration,
		})
	}

	arch, err := archive.New(ctx, archive.Config{
		Type:       cfg.Archive.Type,
		Path:       cfg.Archive.Path,
		S3Bucket:   cfg.Archive.S3Bucket,
		S3Prefix:   cfg.Archive.S3Prefix,
		S3Endpoint: cfg.Archive.S3Endpoint,
		S3Region:   cfg.Archive.S3Region,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize notification archive")
	}

	client := datastore.NewClient(cfg.Datastore.BaseURL, datastore.NewHTTPClient(cfg.Datastore.Timeout))
	recorder := audit.NewRecorder(store, log)
	dispatcher := deletion.NewDispatcher(cat, client, recorder, cfg.Datastore.Workers)

	if cfg.Auth.SigningKey == "" || cfg.Auth.SigningKey == defaultSigningKey {
		log.Warn().Msg("admin token signing key is not set or using default value; set ERASURE_BRIDGE_AUTH_SIGNING_KEY in production")
	}
	tokens := auth.NewTokenService(auth.Config{
		SigningKey:  cfg.Auth.SigningKey,
		Issuer:      cfg.Auth.Issuer,
		Audience:    cfg.Auth.Audience,
		TokenExpiry: cfg.Auth.TokenExpiry,
	})

	router := api.NewRouter(api.Deps{
		Queries:           store,
		DB:                db,
		Catalog:           cat,
		Dispatcher:        dispatcher,
		Archive:           arch,
		Tokens:            tokens,
		Limiter:           limiter,
		Invalidator:       invalidator,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
		CORSOrigins:       cfg.API.CORSAllowedOrigins,
		Logger:            log,
	})

	go reportPoolStats(ctx, db, 15*time.Second)

	// Configure HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	// Graceful shutdown with 30-second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// reportPoolStats publishes connection pool gauges until ctx is done.
func reportPoolStats(ctx context.Context, db *storage.DB, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stat := db.Pool.Stat()
			metrics.RecordPoolStats(stat.AcquiredConns(), stat.IdleConns())
		}
	}
}
