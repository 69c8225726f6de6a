package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patshala/patshala-backend/internal/config"
	"github.com/patshala/patshala-backend/internal/database"
	"github.com/patshala/patshala-backend/internal/handler"
	"github.com/patshala/patshala-backend/internal/logger"
	"github.com/patshala/patshala-backend/internal/repository"
	"github.com/patshala/patshala-backend/internal/router"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/patshala/patshala-backend/internal/storage"
	"github.com/patshala/patshala-backend/internal/validator"
	"github.com/patshala/patshala-backend/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting Patshala Backend")

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

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	batchRepo := repository.NewBatchRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, storage.NewRedisKV(rdb))
	userService := service.NewUserService(userRepo)
	batchService := service.NewBatchService(batchRepo)
	orderService := service.NewOrderService(orderRepo, tokenRepo, userRepo, cfg.TokenPrefix, log)
	tokenService := service.NewTokenService(tokenRepo, userRepo, log)
	examService := service.NewExamService(examRepo, questionRepo, resultRepo, rdb, log)

	resultQueue := worker.NewRedisResultQueue(rdb)
	sessionService := service.NewExamSessionService(
		examService,
		storage.NewRedisKV(rdb),
		resultQueue,
		cfg.ExamSnapshotEvery,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:  handler.NewAuthHandler(authService, userService),
		Batch: handler.NewBatchHandler(batchService),
		Order: handler.NewOrderHandler(orderService, batchService),
		Token: handler.NewTokenHandler(tokenService),
		Exam:  handler.NewExamHandler(examService, sessionService, userService),
		WS:    handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)
	go resultWorker.Start(workerCtx)

	// Session clock: one tick per second drives every live exam session.
	go sessionService.Run(workerCtx)

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

	// 2. Stop the session clock and result worker; Run flushes session
	//    snapshots on cancel, the worker drains its queue.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
