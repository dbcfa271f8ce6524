package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	gatewayhandler "aigateway/internal/gateway/handler"
	"aigateway/internal/generator"
	"aigateway/internal/jwttoken"
	"aigateway/internal/llm"
	"aigateway/internal/llm/gemini"
	"aigateway/internal/platform/config"
	"aigateway/internal/platform/httpserver"
	"aigateway/internal/platform/logger"
	"aigateway/internal/platform/metrics"
	rlhandler "aigateway/internal/ratelimit/handler"
	rlmetrics "aigateway/internal/ratelimit/metrics"
	rlmiddleware "aigateway/internal/ratelimit/middleware"
	"aigateway/internal/ratelimit/models"
	rlservice "aigateway/internal/ratelimit/service"
	"aigateway/pkg/platform/audit"
	"aigateway/pkg/platform/audit/kafka"
	"aigateway/pkg/platform/middleware/admin"
	"aigateway/pkg/platform/middleware/auth"
	"aigateway/pkg/platform/middleware/metadata"
	"aigateway/pkg/platform/middleware/request"
)

// serve wires the gateway and blocks until SIGINT/SIGTERM, then drains in-flight
// requests and background workers.
func serve(parent context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	group, gctx := errgroup.WithContext(ctx)

	auditPublisher, err := buildAudit(gctx, group, cfg, log)
	if err != nil {
		return err
	}

	provider, err := buildProvider(ctx, cfg, log)
	if err != nil {
		return err
	}
	gen := generator.New(provider,
		generator.WithLogger(log),
		generator.WithMetrics(generator.NewMetrics()),
	)

	limiterMetrics := rlmetrics.New()
	stores, err := buildCounterStores(ctx, cfg, limiterMetrics, log)
	if err != nil {
		return fmt.Errorf("counter store: %w", err)
	}
	defer stores.Close()
	startStoreJobs(gctx, group, cfg, stores, log)

	limiter, err := rlservice.New(stores.store,
		rlservice.WithLogger(log),
		rlservice.WithAuditPublisher(auditPublisher),
		rlservice.WithMetrics(limiterMetrics),
		rlservice.WithLimits(
			models.Limit{Requests: cfg.RateLimit.BurstLimit, Window: cfg.RateLimit.BurstWindow},
			models.Limit{Requests: cfg.RateLimit.DailyLimit, Window: cfg.RateLimit.DailyWindow},
		),
		rlservice.WithQuotaBypass(cfg.RateLimit.QuotaBypass),
	)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if cfg.RateLimit.QuotaBypass {
		log.Warn("daily quota bypass is enabled; only the burst limit applies")
	}

	router := chi.NewRouter()
	router.Use(
		request.Recover(log),
		request.RequestID,
		request.RequestTime,
		metadata.ClientMetadata(cfg.HTTP.TrustProxy),
		request.AccessLog(log),
		metrics.New().Middleware,
		corsPolicy(cfg.HTTP.AllowedOrigins),
		request.BodyLimit(cfg.HTTP.BodyLimitBytes),
	)
	router.Handle("/metrics", metrics.Handler())

	requireAuth := auth.RequireAuth(jwttoken.NewVerifier(cfg.Auth.JWTSecret), log)
	rateLimit := rlmiddleware.New(limiter, log).RateLimit()
	gatewayhandler.New(gen, provider, log,
		gatewayhandler.WithUsageReporter(limiter),
		gatewayhandler.WithAuditPublisher(auditPublisher),
		gatewayhandler.WithStartTime(startedAt),
	).Register(router, requireAuth, rateLimit)

	if cfg.Admin.Token != "" {
		rlhandler.New(limiter, auditPublisher, log).Register(router, admin.RequireAdminToken(cfg.Admin.Token, log))
	}

	srv := httpserver.New(cfg.Addr, router, cfg.Gemini.Timeout)
	group.Go(func() error {
		log.Info("starting ai-gateway",
			"addr", cfg.Addr,
			"environment", cfg.Environment,
			"model", provider.ModelName(),
			"provider_ready", provider.IsReady(),
			"counter_store", stores.backend,
			"audit_kafka", len(cfg.Audit.KafkaBrokers) > 0,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return group.Wait()
}

// buildProvider returns a client that is not ready when no API key is set, so
// the gateway still boots and reports the missing credential on /health.
func buildProvider(ctx context.Context, cfg config.Config, log *slog.Logger) (*llm.Client, error) {
	opts := []llm.ClientOption{
		llm.WithTimeout(cfg.Gemini.Timeout),
		llm.WithLogger(log),
		llm.WithMetrics(llm.NewMetrics()),
		llm.WithTracer(otel.Tracer("aigateway/llm")),
	}
	if cfg.Gemini.APIKey == "" {
		log.Warn("GEMINI_API_KEY is not set; generation routes will return 503")
		return llm.NewClient(nil, opts...), nil
	}
	model, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return llm.NewClient(model, opts...), nil
}

// buildAudit always logs events; with brokers configured it also ships them to
// Kafka through a buffered publisher that runs on group until ctx ends.
func buildAudit(ctx context.Context, group *errgroup.Group, cfg config.Config, log *slog.Logger) (audit.Publisher, error) {
	publishers := audit.Fanout{audit.NewLogPublisher(log)}
	if len(cfg.Audit.KafkaBrokers) == 0 {
		return publishers, nil
	}

	client, err := kafka.NewClient(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
	if err != nil {
		return nil, err
	}
	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := kafka.EnsureTopic(setupCtx, client, cfg.Audit.KafkaTopic, cfg.Audit.KafkaPartitions, 1); err != nil {
		// The topic may be managed elsewhere; publishing still surfaces real failures.
		log.Warn("could not ensure audit topic", "topic", cfg.Audit.KafkaTopic, "error", err)
	}

	publisher := kafka.New(client, cfg.Audit.KafkaTopic,
		kafka.WithLogger(log),
		kafka.WithMetrics(kafka.NewMetrics()),
	)
	group.Go(func() error {
		defer client.Close()
		return publisher.Run(ctx)
	})
	return append(publishers, publisher), nil
}

// startStoreJobs runs the retention sweeps for whichever stores hold history.
func startStoreJobs(ctx context.Context, group *errgroup.Group, cfg config.Config, stores *counterStores, log *slog.Logger) {
	group.Go(func() error {
		return stores.local.Run(ctx, cfg.RateLimit.SweepInterval)
	})
	if stores.postgres == nil {
		return
	}
	maxWindow := max(cfg.RateLimit.BurstWindow, cfg.RateLimit.DailyWindow)
	group.Go(func() error {
		ticker := time.NewTicker(cfg.Postgres.PurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := stores.postgres.Purge(ctx, maxWindow)
				if err != nil {
					log.WarnContext(ctx, "usage purge failed", "error", err)
					continue
				}
				log.DebugContext(ctx, "usage purge complete", "rows", n)
			}
		}
	})
}

// corsPolicy allows the configured origins, or any origin without credentials
// when the list is empty.
func corsPolicy(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", request.HeaderRequestID, metadata.HeaderClientPlatform},
		ExposedHeaders: []string{
			request.HeaderRequestID,
			rlmiddleware.HeaderLimit,
			rlmiddleware.HeaderRemaining,
			rlmiddleware.HeaderReset,
			"Retry-After",
		},
		AllowCredentials: len(origins) > 0,
		MaxAge:           300,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return cors.Handler(opts)
}
