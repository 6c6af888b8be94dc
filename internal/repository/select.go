package repository

import (
	"context"
	"log/slog"

	"github.com/Tomlord1122/goal-tracker/internal/database"
)

// Select picks the goal store at startup: the database-backed repository when
// db is present and answers a ping, the in-memory repository otherwise.
// Both satisfy the same contract, so callers never branch on the backend.
func Select(ctx context.Context, db database.Service) GoalRepository {
	if db == nil {
		slog.Warn("no database configured, using in-memory goal store")
		return NewMemoryGoalRepository()
	}

	repo := NewGormGoalRepository(db.GetDB())
	if err := repo.Ping(ctx); err != nil {
		slog.Warn("database unreachable, using in-memory goal store", "backend", db.Backend(), "error", err)
		return NewMemoryGoalRepository()
	}

	slog.Info("using database goal store", "backend", repo.Backend())
	return repo
}
