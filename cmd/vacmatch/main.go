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

	"github.com/hirewire/vacmatch/internal/config"
	"github.com/hirewire/vacmatch/internal/db/postgres"
	dbRedis "github.com/hirewire/vacmatch/internal/db/redis"
	logpkg "github.com/hirewire/vacmatch/internal/logger"
	"github.com/hirewire/vacmatch/internal/metrics"
	postingrepo "github.com/hirewire/vacmatch/internal/repository/posting"
	"github.com/hirewire/vacmatch/internal/repository/rankcache"
	"github.com/hirewire/vacmatch/internal/scheduler"
	chiTransport "github.com/hirewire/vacmatch/internal/transport/chi"
	healthuc "github.com/hirewire/vacmatch/internal/usecase/health"
	ingestuc "github.com/hirewire/vacmatch/internal/usecase/ingest"
	maintenanceuc "github.com/hirewire/vacmatch/internal/usecase/maintenance"
	matchuc "github.com/hirewire/vacmatch/internal/usecase/match"
	"github.com/hirewire/vacmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vacmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
	)

	ctx := context.Background()

	// Posting storage
	pool, err := postgres.NewPool(ctx, cfg.Postgres.URL)
	if err != nil {
		logger.Fatal("Failed to create postgres pool", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.WaitForReady(ctx, pool, time.Duration(cfg.Postgres.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Postgres not ready", zap.Error(err))
	}
	logger.Info("Connected to postgres")

	// Rank cache store
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Cache.Addrs,
		Username: cfg.Cache.Username,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache store not ready", zap.Error(err))
	}
	logger.Info("Connected to cache store")

	// Register matching metrics explicitly (no init())
	metrics.RegisterMatchingMetrics()

	// Repositories
	postings := postingrepo.New(pool)
	ranks := rankcache.New(store,
		time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.RankCacheTotal, logger)

	// Use case services
	ingestSvc := ingestuc.New(postings, ingestuc.Config{
		SimilarityThreshold: cfg.Dedup.SimilarityThreshold,
		MaxFingerprintBytes: cfg.Dedup.MaxFingerprintBytes,
	}, metrics.IngestCandidatesTotal, metrics.IngestRunDuration, logger)

	matchSvc := matchuc.New(postings, ranks, matchuc.Config{
		RecencyWindowDays:    cfg.Matching.RecencyWindowDays,
		MinSimilarityPercent: cfg.Matching.MinSimilarityPercent,
		MinSkillsCount:       cfg.Matching.MinSkillsCount,
		BonusPerExtraSkill:   cfg.Matching.BonusPerExtraSkill,
		MissingSkillPenalty:  cfg.Matching.MissingSkillPenalty,
		SubsetBonus:          cfg.Matching.SubsetBonus,
		RecencyBonusDays:     cfg.Matching.RecencyBonusDays,
		RecencyBonusPerDay:   cfg.Matching.RecencyBonusPerDay,
		ResultLimit:          cfg.Matching.ResultLimit,
	}, metrics.MatchDuration, logger)

	healthSvc := healthuc.New(pool, store)
	maintenanceSvc := maintenanceuc.New(postings, logger)

	// Periodic maintenance
	sched := scheduler.New(maintenanceSvc,
		cfg.Maintenance.IntervalHours, cfg.Maintenance.RetireBatchLimit, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("Failed to start maintenance scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// HTTP server
	server := chiTransport.NewServer(matchSvc, ingestSvc, healthSvc, logger)

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

	logger.Info("Server stopped gracefully")
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

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
