package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/meditrack/identity/internal/config"
	"github.com/meditrack/identity/internal/database"
	"github.com/meditrack/identity/internal/services"
)

// Initializes the identity store: applies pending schema migrations and seeds
// the bootstrap admin if no admin account exists. The subsystem itself is
// consumed in-process by the host application; this binary only prepares the
// store it runs against.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.App.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	stores := services.NewStores(db)
	if err := services.EnsureBootstrapAdmin(ctx, stores.Users(), cfg.Bootstrap, logger); err != nil {
		logger.Error("failed to ensure bootstrap admin", slog.Any("error", err))
		os.Exit(1)
	}

	total, err := stores.Users().CountTotal(ctx)
	if err != nil {
		logger.Error("failed to count users", slog.Any("error", err))
		os.Exit(1)
	}
	pending, err := stores.Users().CountPending(ctx)
	if err != nil {
		logger.Error("failed to count pending registrations", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("identity store ready",
		slog.Int64("users", total),
		slog.Int64("pending_registrations", pending))
}
