package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/luckyroll/casino/cmd/db/commands"
	"github.com/luckyroll/casino/internal/database/migrations"
	"github.com/luckyroll/casino/internal/rating"
	"github.com/luckyroll/casino/internal/setup"
	"github.com/luckyroll/casino/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v3"
)

// CLILogDir specifies where CLI log files are stored.
const CLILogDir = "logs/cli_logs"

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pending migrations never block the CLI, it is how they get applied
	app, err := setup.InitializeApp(ctx, telemetry.ServiceCLI, CLILogDir, setup.MigrationsSkip)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Cleanup()

	cache, release, err := rating.NewCache(
		time.Duration(app.Config.Bot.RatingCacheTTL)*time.Millisecond, app.RedisManager,
	)
	if err != nil {
		return err
	}
	defer release()

	deps := &commands.CLIDependencies{
		DB:       app.DB,
		Migrator: migrate.NewMigrator(app.DB.DB(), migrations.Migrations),
		Rating:   rating.NewBuilder(app.DB.Service().Stats(), app.DB.Model().User(), cache, app.Logger),
		Config:   app.Config,
		Logger:   app.Logger,
	}

	cmd := &cli.Command{
		Name:  "db",
		Usage: "Database management tool for the casino bot",
		Commands: slices.Concat(
			commands.MigrationCommands(deps),
			commands.StatsCommands(deps),
			commands.AdminCommands(deps),
		),
	}

	return cmd.Run(ctx, os.Args)
}
