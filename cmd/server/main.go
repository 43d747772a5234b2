package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/notcelab/notce-backend/internal/config"
	"github.com/notcelab/notce-backend/internal/database"
	"github.com/notcelab/notce-backend/internal/email"
	"github.com/notcelab/notce-backend/internal/gemini"
	"github.com/notcelab/notce-backend/internal/handler"
	"github.com/notcelab/notce-backend/internal/logger"
	"github.com/notcelab/notce-backend/internal/repository"
	"github.com/notcelab/notce-backend/internal/router"
	"github.com/notcelab/notce-backend/internal/service"
	"github.com/notcelab/notce-backend/internal/validator"
	"github.com/notcelab/notce-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting NOTCE Prep Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Gemini ─────────────────────────────────────────────
	// Every study surface depends on generation, so a missing key is a
	// startup error rather than a degraded mode.
	if cfg.GeminiAPIKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required")
	}
	source, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	// ─── Initialize Email ──────────────────────────────────────────────
	mailer, err := email.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create email service")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewStudySessionRepository(pool)
	caseRepo := repository.NewCaseRepository(pool)
	caseProgressRepo := repository.NewCaseProgressRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	highlightRepo := repository.NewHighlightRepository(pool)
	memoryRepo := repository.NewMemoryRepository(pool)
	queue := repository.NewQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	studyService := service.NewStudyService(sessionRepo, source, queue, mailer, userRepo, log)
	caseService := service.NewCaseService(caseRepo, caseProgressRepo, memoryRepo, source, queue, rdb, log)
	reviewService := service.NewReviewService(caseRepo, answerRepo, source, log)
	memoryService := service.NewMemoryService(memoryRepo)
	analyticsService := service.NewAnalyticsService(answerRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, userRepo),
		Study:     handler.NewStudyHandler(studyService),
		Case:      handler.NewCaseHandler(caseService),
		Review:    handler.NewReviewHandler(reviewService),
		Highlight: handler.NewHighlightHandler(highlightRepo),
		Memory:    handler.NewMemoryHandler(memoryService),
		Analytics: handler.NewAnalyticsHandler(analyticsService),
		WS:        handler.NewWSHandler(queue, studyService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	prefetchWorker := worker.NewPrefetchWorker(sessionRepo, source, rdb, log)
	answerLogWorker := worker.NewAnswerLogWorker(answerRepo, rdb, log)
	casegenWorker := worker.NewCaseGenWorker(caseService, rdb, log)
	progressWorker := worker.NewProgressWorker(sessionRepo, rdb, log)

	go prefetchWorker.Start(workerCtx)
	go answerLogWorker.Start(workerCtx)
	go casegenWorker.Start(workerCtx)
	go progressWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
