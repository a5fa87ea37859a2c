// Package setup wires configuration, logging, storage and Redis for the binaries.
package setup

import (
	"context"
	"fmt"
	"log"

	"github.com/luckyroll/casino/internal/database"
	"github.com/luckyroll/casino/internal/database/migrations"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/redis"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/luckyroll/casino/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// MigrationMode decides what happens to pending migrations on startup.
type MigrationMode int

const (
	// MigrationsPrompt asks on stdin before migrating.
	MigrationsPrompt MigrationMode = iota
	// MigrationsAuto migrates without asking.
	MigrationsAuto
	// MigrationsSkip leaves the schema alone.
	MigrationsSkip
)

// App bundles the dependencies shared by the binaries.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the config was loaded from
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log management system
}

// InitializeApp loads the config and brings up logging, Redis and the database.
func InitializeApp(
	ctx context.Context, serviceType telemetry.ServiceType, logDir string, mode MigrationMode,
) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("dir", configDir))

	settings, err := NewSettings(cfg)
	if err != nil {
		return nil, err
	}

	database.ConfigureRetry(cfg.Common.Retry)

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	db, err := connectDatabase(ctx, &cfg.Common.Database, settings, dbLogger.Named("database"), mode)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		LogManager:   logManager,
	}, nil
}

// NewSettings extracts what the database services need from the config.
func NewSettings(cfg *config.Config) (service.Settings, error) {
	loc, err := cfg.Bot.Location()
	if err != nil {
		return service.Settings{}, err
	}

	return service.Settings{
		Location:   loc,
		AdminIDs:   cfg.Bot.AdminIDs,
		BlockedIDs: cfg.Bot.BlockedIDs,
	}, nil
}

// Cleanup shuts components down in reverse initialization order. Errors are
// logged so that every component gets its chance to close.
func (s *App) Cleanup() {
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()

	_ = s.Logger.Sync()
	_ = s.DBLogger.Sync()

	if err := s.LogManager.Stop(); err != nil {
		log.Printf("Failed to close log files: %v", err)
	}
}

// connectDatabase opens the database and handles pending migrations per mode.
func connectDatabase(
	ctx context.Context, cfg *config.Database, settings service.Settings, dbLogger *zap.Logger, mode MigrationMode,
) (database.Client, error) {
	if mode == MigrationsAuto {
		return database.NewConnection(ctx, cfg, settings, dbLogger, true)
	}

	db, err := database.NewConnection(ctx, cfg, settings, dbLogger, false)
	if err != nil {
		return nil, err
	}

	if mode == MigrationsSkip {
		return db, nil
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if len(ms.Unapplied()) == 0 {
		return db, nil
	}

	log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

	var response string

	_, _ = fmt.Scanln(&response)

	_ = db.Close()

	if response != "y" && response != "Y" {
		return nil, ErrMigrationsPending
	}

	return database.NewConnection(ctx, cfg, settings, dbLogger, true)
}
