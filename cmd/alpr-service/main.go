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

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"alpr-service/internal/auth"
	"alpr-service/internal/config"
	"alpr-service/internal/db"
	"alpr-service/internal/domain/alpr"
	httphandler "alpr-service/internal/http"
	"alpr-service/internal/http/middleware"
	"alpr-service/internal/logger"
	"alpr-service/internal/model"
	"alpr-service/internal/repository"
	"alpr-service/internal/service"
	"alpr-service/internal/storage"
)

const cleanupInterval = 24 * time.Hour

type seeder interface {
	Seed(ctx context.Context, records []alpr.VehicleRecord) (int, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)
	ctx := context.Background()

	var database *gorm.DB
	if cfg.NeedsDatabase() {
		database, err = db.New(cfg, appLogger)
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer db.Close(database)
	}

	var checks []httphandler.ReadinessCheck
	if database != nil {
		checks = append(checks, httphandler.ReadinessCheck{
			Name:  "database",
			Check: func(ctx context.Context) error { return db.HealthCheck(ctx, database) },
		})
	}

	vehicles, closeVehicles, err := openVehicleStore(cfg, database, &checks)
	if err != nil {
		appLogger.Fatal().Err(err).Str("backend", cfg.Registry.Backend).Msg("failed to open vehicle registry")
	}
	defer closeVehicles()

	if s, ok := vehicles.(seeder); ok {
		added, err := s.Seed(ctx, repository.DefaultVehicles())
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to seed vehicle registry")
		}
		appLogger.Info().Int("added", added).Str("backend", cfg.Registry.Backend).Msg("vehicle registry seeded")
	}

	registryService := service.NewRegistryService(vehicles, appLogger)
	if cfg.Registry.SeedFile != "" {
		if err := importSeedFile(ctx, registryService, cfg.Registry.SeedFile, appLogger); err != nil {
			appLogger.Fatal().Err(err).Str("file", cfg.Registry.SeedFile).Msg("failed to import seed file")
		}
	}

	// only assign when enabled; a typed nil would make the service think
	// the event log is on
	var events service.EventStore
	if cfg.Events.Enabled {
		events = repository.NewEventRepository(database)
	}
	recognitionService := service.NewRecognitionService(vehicles, events, appLogger)

	var snapshots httphandler.SnapshotUploader
	r2Client, err := storage.NewR2Client(cfg.Storage)
	switch {
	case err == nil:
		snapshots = r2Client
	case errors.Is(err, storage.ErrNotConfigured):
		appLogger.Warn().Msg("R2 storage not configured, snapshot uploads will be disabled")
	default:
		appLogger.Fatal().Err(err).Msg("failed to initialize R2 client")
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	handler := httphandler.NewHandler(recognitionService, registryService, cfg, appLogger, snapshots)
	router := httphandler.NewRouter(handler, httphandler.Middlewares{
		Auth:      middleware.Auth(tokenParser),
		AdminOnly: middleware.RequireRole(model.UserRoleRegistryAdmin),
		RateLimit: middleware.RateLimit(limiter),
	}, cfg.Environment, appLogger, checks...)

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	if recognitionService.EventsEnabled() {
		go runEventCleanup(cleanupCtx, recognitionService, cfg.Events.RetentionDays, appLogger)
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().
		Str("addr", addr).
		Str("registry", cfg.Registry.Backend).
		Bool("events", cfg.Events.Enabled).
		Msg("starting ALPR service")

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error().Err(err).Msg("failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server")
	stopCleanup()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server exited")
}

func openVehicleStore(cfg *config.Config, database *gorm.DB, checks *[]httphandler.ReadinessCheck) (service.VehicleStore, func(), error) {
	switch cfg.Registry.Backend {
	case config.BackendPostgres:
		return repository.NewVehicleRepository(database), func() {}, nil
	case config.BackendSQLite:
		repo, err := repository.OpenSQLiteVehicleRepository(cfg.Registry.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		*checks = append(*checks, httphandler.ReadinessCheck{Name: "sqlite", Check: repo.Ping})
		return repo, func() { repo.Close() }, nil
	default:
		return repository.NewMemoryVehicleRepository(nil), func() {}, nil
	}
}

func importSeedFile(ctx context.Context, registry *service.RegistryService, path string, log zerolog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := registry.Import(ctx, f)
	if err != nil {
		return err
	}
	for _, failure := range res.Failures {
		log.Warn().Str("file", path).Str("row", failure).Msg("skipped invalid seed row")
	}
	return nil
}

func runEventCleanup(ctx context.Context, svc *service.RecognitionService, days int, log zerolog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := svc.CleanupOldEvents(ctx, days); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("event cleanup failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
