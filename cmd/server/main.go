package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courierwatch/courier-tracker/internal/config"
	"github.com/courierwatch/courier-tracker/internal/dashboard"
	"github.com/courierwatch/courier-tracker/internal/database"
	"github.com/courierwatch/courier-tracker/internal/events"
	"github.com/courierwatch/courier-tracker/internal/handler"
	"github.com/courierwatch/courier-tracker/internal/ingest"
	"github.com/courierwatch/courier-tracker/internal/jobs"
	"github.com/courierwatch/courier-tracker/internal/middleware"
	"github.com/courierwatch/courier-tracker/internal/redis"
	"github.com/courierwatch/courier-tracker/internal/repository"
	"github.com/courierwatch/courier-tracker/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	location, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load timezone")
	}
	window, err := jobs.ParseWindow(cfg.MaintenanceWindowStart, cfg.MaintenanceWindowEnd)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid maintenance window")
	}

	var summary jobs.SummaryFetcher
	if cfg.SummaryEnabled() {
		client, err := dashboard.NewClient(dashboard.OptionsFromConfig(cfg))
		if err != nil {
			log.Fatal().Err(err).Msg("dashboard summary configured without session credentials")
		}
		summary = client
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrated")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	broker := events.NewBroker(redisClient)
	if err := broker.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start event broker")
	}
	defer broker.Close()

	courierRepo := repository.NewCourierRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	storeRepo := repository.NewStoreRepository(db.DB)

	inferenceService := service.NewInferenceService(db, courierRepo, sessionRepo, broker, service.ZoneClock(location))
	reportService := service.NewReportService(courierRepo, sessionRepo)

	queue := ingest.NewQueue(cfg.QueueSize)
	retentionJob := jobs.NewRetentionJob(courierRepo, storeRepo, broker, window, location)
	pollJob := jobs.NewPollJob(queue, inferenceService, retentionJob, summary, cfg.PollInterval())

	ingestAuthMiddleware := middleware.NewIngestAuthMiddleware(cfg.IngestToken, cfg.IngestTokenHash)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.IngestRateLimitPerMin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.EnableHSTS)

	courierHandler := handler.NewCourierHandler(reportService)
	ingestHandler := handler.NewIngestHandler(queue)
	eventsHandler := handler.NewEventsHandler(broker)
	healthHandler := handler.NewHealthHandler(db, queue)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/events", eventsHandler.ServeHTTP)

		r.With(
			rateLimitMiddleware.Handler,
			ingestAuthMiddleware.Handler,
			bodyLimitMiddleware.Handler,
		).Post("/observations", ingestHandler.ServeHTTP)

		r.With(chimiddleware.Timeout(config.ServerRequestTimeout)).
			Mount("/", courierHandler.Routes())
	})

	pollJob.Start()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	// SSE streams only end when the broker releases them.
	server.RegisterOnShutdown(broker.Close)

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("timezone", location.String()).
			Str("maintenance_window", window.String()).
			Bool("ingest_auth", ingestAuthMiddleware.Enabled()).
			Bool("dashboard_summary", summary != nil).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Accepted batches still queued are recorded before the store closes.
	pending := queue.Len()
	result := pollJob.Drain(config.QueueFlushTimeout)
	if pending > 0 {
		log.Info().
			Int("batches", pending).
			Int("recorded", result.Recorded).
			Int("remaining", queue.Len()).
			Msg("flushed observation queue")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
