package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tomlord1122/goal-tracker/internal/auth"
	"github.com/Tomlord1122/goal-tracker/internal/config"
	"github.com/Tomlord1122/goal-tracker/internal/database"
	"github.com/Tomlord1122/goal-tracker/internal/logger"
	"github.com/Tomlord1122/goal-tracker/internal/repository"
	"github.com/Tomlord1122/goal-tracker/internal/server"
	"github.com/Tomlord1122/goal-tracker/internal/service"
)

func gracefulShutdown(apiServer *http.Server, dbService database.Service, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	slog.Info("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 5 seconds to finish the request it is currently handling
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			slog.Error("error closing database connection pool", "error", err)
		} else {
			slog.Info("database connection pool closed")
		}
	}

	slog.Info("server exiting")
	done <- true
}

// openDatabase connects to the configured primary store. A nil Service means
// goals are kept in memory, either by choice or because the database is
// unreachable.
func openDatabase(ctx context.Context, cfg *config.Config) database.Service {
	if cfg.Database.Driver == config.DriverMemory {
		return nil
	}

	dbService, err := database.New(ctx, cfg.Database, repository.Models()...)
	if err != nil {
		slog.Warn("primary database unavailable", "driver", cfg.Database.Driver, "error", err)
		return nil
	}
	return dbService
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	_, flush := logger.Init(logger.Options{
		Development: cfg.IsDevelopment(),
		SentryDSN:   cfg.SentryDSN,
		File:        cfg.LogFile,
	})
	defer flush()

	for _, w := range cfg.Warnings {
		slog.Warn(w)
	}

	ctx := context.Background()

	// 1. Database, falling back to the in-memory store
	dbService := openDatabase(ctx, cfg)

	// 2. Repositories
	goalRepo := repository.Select(ctx, dbService)

	// 3. Services
	goalService := service.NewGoalService(goalRepo)

	// 4. Server
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTExpiry)
	apiServer := server.NewServer(cfg.Port, goalService, verifier, dbService, goalRepo.Backend())

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, done)

	slog.Info("starting server", "addr", apiServer.Addr, "backend", goalRepo.Backend())
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server error", "error", err)
		flush()
		os.Exit(1)
	}

	<-done
	slog.Info("graceful shutdown complete")
}
