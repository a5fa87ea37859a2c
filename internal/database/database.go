package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/luckyroll/casino/internal/database/dbretry"
	"github.com/luckyroll/casino/internal/database/migrations"
	"github.com/luckyroll/casino/internal/database/service"
	"github.com/luckyroll/casino/internal/setup/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunjson"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// sonicProvider is a JSON provider that uses Sonic for encoding and decoding.
type sonicProvider struct{}

func (sonicProvider) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (sonicProvider) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

func (sonicProvider) NewEncoder(w io.Writer) bunjson.Encoder {
	return sonic.ConfigDefault.NewEncoder(w)
}

func (sonicProvider) NewDecoder(r io.Reader) bunjson.Decoder {
	return sonic.ConfigDefault.NewDecoder(r)
}

var setJSONProvider sync.Once

// Client defines the methods that a database client must implement.
type Client interface {
	// Model returns the repository containing all model operations.
	Model() *Repository
	// Service returns the service containing all service operations.
	Service() *Service
	// Close gracefully shuts down the database connection.
	Close() error
	// DB returns the underlying bun.DB instance.
	DB() *bun.DB
}

// clientImpl represents the concrete implementation of the database client.
type clientImpl struct {
	db      *bun.DB
	logger  *zap.Logger
	repo    *Repository
	service *Service
}

// NewConnection establishes a new database connection and returns a Client instance.
func NewConnection(
	ctx context.Context, cfg *config.Database, settings service.Settings, logger *zap.Logger, autoMigrate bool,
) (Client, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	// Set Sonic as the JSON provider
	setJSONProvider.Do(func() {
		bunjson.SetProvider(sonicProvider{})
	})

	// Add query hook for monitoring
	db.AddQueryHook(NewHook(logger))

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", cfg.Driver, err)
	}

	// Run migrations if requested
	if autoMigrate {
		if err := runMigrations(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	// Create client instance
	repo := NewRepository(db, logger)
	svc := NewService(db, repo, settings, logger)

	client := &clientImpl{
		db:      db,
		logger:  logger,
		repo:    repo,
		service: svc,
	}

	logger.Info("Database connection established", zap.String("driver", cfg.Driver))

	return client, nil
}

// openDB opens the configured backend without touching the network.
func openDB(cfg *config.Database) (*bun.DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pg := cfg.PostgreSQL
		sqldb := sql.OpenDB(pgdriver.NewConnector(
			pgdriver.WithAddr(fmt.Sprintf("%s:%d", pg.Host, pg.Port)),
			pgdriver.WithUser(pg.User),
			pgdriver.WithPassword(pg.Password),
			pgdriver.WithDatabase(pg.DBName),
			pgdriver.WithInsecure(true),
			pgdriver.WithApplicationName("casino"),
		))

		// Set connection pool settings
		sqldb.SetMaxOpenConns(pg.MaxOpenConns)
		sqldb.SetMaxIdleConns(pg.MaxIdleConns)
		sqldb.SetConnMaxLifetime(time.Duration(pg.MaxLifetime) * time.Minute)
		sqldb.SetConnMaxIdleTime(time.Duration(pg.MaxIdleTime) * time.Minute)

		return bun.NewDB(sqldb, pgdialect.New()), nil

	case config.DriverSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
			cfg.SQLite.Path)

		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}

		// SQLite allows a single writer; one connection keeps transactions serialized
		sqldb.SetMaxOpenConns(1)

		return bun.NewDB(sqldb, sqlitedialect.New()), nil

	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}

// runMigrations applies every pending migration.
func runMigrations(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if !group.IsZero() {
		logger.Info("Automatically ran migrations", zap.String("group", group.String()))
	}

	return nil
}

// ConfigureRetry applies the configured retry policy to every database call.
func ConfigureRetry(cfg config.Retry) {
	dbretry.SetPolicy(dbretry.Policy{
		MaxElapsedTime:  30 * time.Second,
		InitialInterval: time.Duration(cfg.Delay) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.MaxDelay) * time.Millisecond,
		MaxRetries:      cfg.MaxRetries,
	})
}

// Close gracefully shuts down the database connection.
func (c *clientImpl) Close() error {
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}

	c.logger.Info("Database connection closed")

	return nil
}

// Model returns the repository containing all model operations.
func (c *clientImpl) Model() *Repository {
	return c.repo
}

// Service returns the service containing all service operations.
func (c *clientImpl) Service() *Service {
	return c.service
}

// DB returns the underlying bun.DB instance.
func (c *clientImpl) DB() *bun.DB {
	return c.db
}
