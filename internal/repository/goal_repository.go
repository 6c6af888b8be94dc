package repository

import (
	"context"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
	"github.com/Tomlord1122/goal-tracker/internal/query"
)

// MutateFunc edits a goal in place. Returning an error aborts the write.
type MutateFunc func(goal *domain.Goal) error

// GoalRepository defines the interface for goal data operations.
// Every lookup is scoped by owner; a goal owned by someone else is reported
// as domain.ErrGoalNotFound.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) error
	FindByID(ctx context.Context, ownerID, id string) (*domain.Goal, error)
	ListByOwner(ctx context.Context, ownerID string, filter query.Filter, page query.Page) (query.Result, error)
	AllByOwner(ctx context.Context, ownerID string) ([]domain.Goal, error)
	// Mutate loads the goal, applies fn and writes the whole record back as
	// one atomic unit. UpdatedAt is bumped on success.
	Mutate(ctx context.Context, ownerID, id string, fn MutateFunc) (*domain.Goal, error)
	Delete(ctx context.Context, ownerID, id string) error
	Ping(ctx context.Context) error
	// Backend names the storage implementation ("memory", "postgres", ...).
	Backend() string
}
