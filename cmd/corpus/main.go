package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/corpus/pkg/api"
	"github.com/platinummonkey/corpus/pkg/config"
	"github.com/platinummonkey/corpus/pkg/httputil"
	"github.com/platinummonkey/corpus/pkg/middleware"
	"github.com/platinummonkey/corpus/pkg/mirror"
	"github.com/platinummonkey/corpus/pkg/observability"
	"github.com/platinummonkey/corpus/pkg/ratelimit"
	"github.com/platinummonkey/corpus/pkg/registry"
	"github.com/platinummonkey/corpus/pkg/usage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"addr":      cfg.Server.Addr(),
		"document":  cfg.Store.DocumentPath,
		"db_driver": cfg.Store.DBDriver,
	}).Info("Starting corpus dataset registry")

	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, cfg.Observability.OTelConfig(), logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize OpenTelemetry")
		os.Exit(1)
	}

	// Open the search mirror and bring its schema up to date.
	db, dialect, err := mirror.Open(ctx, cfg.Store.DBDriver, cfg.Store.DBDSN)
	if err != nil {
		logger.WithError(err).Error("Failed to open mirror database")
		os.Exit(1)
	}
	if err := mirror.Migrate(ctx, db, dialect); err != nil {
		logger.WithError(err).Error("Failed to migrate mirror database")
		os.Exit(1)
	}

	// The document store writes through this syncer after every mutation.
	syncer := mirror.NewSyncer(db, dialect, nil)
	store, err := registry.NewDocumentStore(cfg.Store.DocumentPath, syncer)
	if err != nil {
		logger.WithError(err).Error("Failed to open document store")
		os.Exit(1)
	}

	// Full rebuild at startup so the mirror reflects any edits made to the
	// document file while the service was down.
	records, err := mirror.NewSyncer(db, dialect, store).RebuildAll(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to rebuild mirror from document store")
		os.Exit(1)
	}
	logger.WithField("records", records).Info("Mirror rebuilt from document store")

	var promRegistry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		promRegistry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(promRegistry)
	}

	// Components that take a logrus logger share this one.
	componentLog := logrus.New()
	componentLog.SetLevel(logrusLevel(cfg.Observability.LogLevel))

	recorder := usage.NewRecorder(ctx, usage.NewWriter(db, dialect), cfg.Usage.QueueSize, componentLog)

	// Redis-backed rate limiting when configured, otherwise a per-process
	// sliding window. A Redis that is down at startup is a warning, not an
	// outage.
	limiterCfg := cfg.RateLimit.LimiterConfig()
	var limiter ratelimit.Limiter
	var redisClient *redis.Client
	backend := "memory"
	if cfg.RateLimit.RedisURL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, falling back to in-memory rate limiting")
		} else {
			redisClient = client
			limiter = ratelimit.NewRedisLimiter(client, limiterCfg, componentLog)
			backend = "redis"
		}
	}
	if limiter == nil {
		memLimiter := ratelimit.NewMemoryLimiter(limiterCfg)
		memLimiter.StartCleanup(ctx)
		limiter = memLimiter
	}
	logger.WithField("backend", backend).Info("Rate limiter configured")

	health := observability.NewHealthChecker(db, redisClient, store)
	health.Version = cfg.Observability.OTelServiceVersion

	server := api.NewServer(store, db, dialect, api.Options{
		AdminSecret: cfg.Admin.Secret,
		Health:      health,
		Metrics:     promRegistry,
		Log:         componentLog,
	})

	rateMW := middleware.NewRateLimitMiddleware(limiter, limiterCfg, backend, metrics)
	usageMW := middleware.NewUsageMiddleware(recorder)

	chain := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware,
		httputil.CORSMiddleware([]string{"*"}),
	}
	if metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(metrics))
	}
	chain = append(chain, rateMW.Handler, usageMW.Handler)

	var handler http.Handler = httputil.Chain(chain...)(server)
	if otelProviders != nil {
		handler = otelhttp.NewHandler(handler, "corpus")
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Hooks run in reverse registration order, so the usage recorder drains
	// before the database underneath it closes.
	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	if otelProviders != nil {
		shutdown.Register("opentelemetry", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}
	shutdown.Register("mirror database", func(context.Context) error {
		return db.Close()
	})
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.Register("usage recorder", func(context.Context) error {
		return recorder.Close(5 * time.Second)
	})

	if metrics != nil {
		go refreshGauges(metrics, db, recorder)
	}

	go func() {
		logger.WithField("addr", cfg.Server.Addr()).Info("corpus listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
	logger.Info("corpus stopped")
}

// refreshGauges periodically copies pool and queue statistics into the
// metrics registry.
func refreshGauges(metrics *observability.Metrics, db *sql.DB, recorder *usage.Recorder) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		metrics.UpdateDBStats(db.Stats())
		metrics.UpdateUsageStats(recorder.Stats())
	}
}

// logrusLevel maps the service log level onto logrus for components that log
// through it.
func logrusLevel(level observability.LogLevel) logrus.Level {
	switch level {
	case observability.DebugLevel:
		return logrus.DebugLevel
	case observability.WarnLevel:
		return logrus.WarnLevel
	case observability.ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
