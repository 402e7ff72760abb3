// cmd/validation-api/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"field-validation/internal/api"
	"field-validation/internal/common/config"
	"field-validation/internal/common/database"
	"field-validation/internal/common/logger"
	"field-validation/internal/common/observability"
	"field-validation/internal/engine/catalog"
	"field-validation/internal/rulesource"
	"field-validation/internal/service"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting validation API...",
		zap.String("version", cfg.App.Version),
		zap.String("ruleSource", cfg.Rules.Source),
	)

	obs := observability.New("validation-api")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Rule source ---
	var source rulesource.Source
	switch cfg.Rules.Source {
	case config.SourceBundle:
		b, err := rulesource.NewBundle(afero.NewOsFs(), cfg.Rules.BundlePath)
		if err != nil {
			zapLog.Fatal("rule bundle failed to load", zap.String("path", cfg.Rules.BundlePath), zap.Error(err))
		}
		source = b
		zapLog.Info("Rule bundle loaded", zap.String("path", cfg.Rules.BundlePath))

	default:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		source = rulesource.NewPostgres(pg.DB)
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Optional Redis rule cache ---
	if cfg.Rules.CacheEnabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()

		source = rulesource.NewCached(source, rdb.Client, config.GetDuration(cfg.Rules.CacheTTL), log)
		zapLog.Info("Redis rule cache enabled", zap.Int("ttl_ms", cfg.Rules.CacheTTL))
	}

	svc := service.New(source, catalog.Default(), config.GetDuration(cfg.Rules.ViewTTL), log)

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(svc, log, obs),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Validation API stopped gracefully")
}
