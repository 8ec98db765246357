package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/homez-ai/searchd/internal/config"
	"github.com/homez-ai/searchd/internal/db"
	dbRedis "github.com/homez-ai/searchd/internal/db/redis"
	"github.com/homez-ai/searchd/internal/domain"
	logpkg "github.com/homez-ai/searchd/internal/logger"
	"github.com/homez-ai/searchd/internal/metrics"
	catalogrepo "github.com/homez-ai/searchd/internal/repository/catalog"
	"github.com/homez-ai/searchd/internal/repository/embcache"
	queuerepo "github.com/homez-ai/searchd/internal/repository/queue"
	vectorrepo "github.com/homez-ai/searchd/internal/repository/vector"
	chiTransport "github.com/homez-ai/searchd/internal/transport/chi"
	openaiEmb "github.com/homez-ai/searchd/internal/transport/openai"
	embeddinguc "github.com/homez-ai/searchd/internal/usecase/embedding"
	healthuc "github.com/homez-ai/searchd/internal/usecase/health"
	ingestuc "github.com/homez-ai/searchd/internal/usecase/ingest"
	searchuc "github.com/homez-ai/searchd/internal/usecase/search"
	"github.com/homez-ai/searchd/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchd API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("queue_enabled", cfg.Ingest.QueueEnabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Build embedder chain — composition root
	embedder, base, offload := buildEmbedder(cfg.Embedding, store, logger)
	defer offload.Release()
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Int("workers", cfg.Embedding.Workers),
	)

	// Repositories
	vecRepo := vectorrepo.New(store, vectorrepo.Config{
		Dimensions:  cfg.Embedding.Dimensions,
		M:           cfg.Search.HNSWM,
		EFConstruct: cfg.Search.HNSWEFConstruct,
	})
	if err := vecRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create vector indexes", zap.Error(err))
	}
	catalogRepo := catalogrepo.New(store, cfg.Embedding.Dimensions)

	// Durable ingestion queue (optional)
	// Pass nil interface (not typed nil pointer!) when the queue is disabled.
	var taskQueue ingestuc.TaskQueue
	if cfg.Ingest.QueueEnabled {
		taskQueue = queuerepo.New(store, cfg.Ingest.Group)
	}

	// Use case services
	ingestSvc := ingestuc.New(catalogRepo, embedder, taskQueue, logger)
	searchSvc := searchuc.New(vecRepo, embedder, searchuc.Config{
		CategoryBoost: cfg.Search.CategoryBoost,
		DefaultLimit:  cfg.Search.DefaultLimit,
		MaxLimit:      cfg.Search.MaxLimit,
	}, logger)
	healthSvc := healthuc.New(store, base, vecRepo)

	// Queue consumer lifecycle
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	consumerDone := make(chan struct{})
	if cfg.Ingest.QueueEnabled {
		consumer := ingestuc.NewConsumer(ingestSvc, taskQueue, ingestuc.ConsumerConfig{
			Consumer:     cfg.Ingest.Consumer,
			Block:        time.Duration(cfg.Ingest.BlockMS) * time.Millisecond,
			MaxBatchSize: cfg.Ingest.MaxBatchSize,
		}, logger)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(consumerCtx); err != nil {
				logger.Error("Queue consumer exited", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	// HTTP server
	server := chiTransport.NewServer(searchSvc, ingestSvc, catalogRepo, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Stop the consumer after the HTTP server so in-flight submissions land
	// on the queue before the drain stops.
	stopConsumer()
	select {
	case <-consumerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Queue consumer did not stop in time")
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> Breaker -> Offload -> Cached -> Instrumented.
// The cache sits outside the pool so a hit never occupies a worker.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	store db.Store,
	logger *zap.Logger,
) (*embeddinguc.InstrumentedEmbedder, *openaiEmb.Embedder, *embeddinguc.OffloadEmbedder) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Breaker.Enabled {
		embedder = embeddinguc.NewBreakerEmbedder(embedder, embeddinguc.BreakerSettings{
			MaxRequests: cfg.Breaker.MaxRequests,
			Interval:    time.Duration(cfg.Breaker.IntervalSec) * time.Second,
			Timeout:     time.Duration(cfg.Breaker.TimeoutSec) * time.Second,
			FailureRate: cfg.Breaker.FailureRate,
		}, logger)
	}

	offload, err := embeddinguc.NewOffloadEmbedder(embedder, cfg.Workers, metrics.EmbeddingOffloadQueueDepth)
	if err != nil {
		logger.Fatal("Failed to create embedding worker pool", zap.Error(err))
	}
	embedder = offload

	if cfg.Cache {
		embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)
	return instrumented, base, offload
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
