package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
	"github.com/Tomlord1122/goal-tracker/internal/query"
)

// memoryGoalRepository implements GoalRepository with a map. It is the
// fallback when no database is reachable and loses everything on restart.
type memoryGoalRepository struct {
	mu    sync.RWMutex
	goals map[string]*domain.Goal
	now   func() time.Time
}

// NewMemoryGoalRepository creates an empty in-memory goal repository
func NewMemoryGoalRepository() GoalRepository {
	return &memoryGoalRepository{
		goals: make(map[string]*domain.Goal),
		now:   time.Now,
	}
}

func (r *memoryGoalRepository) Backend() string {
	return "memory"
}

func (r *memoryGoalRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *memoryGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = r.now()
	}
	goal.UpdatedAt = goal.CreatedAt
	ensureChildIDs(goal)
	goal.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.goals[goal.ID] = goal.Clone()
	return nil
}

// owned returns the stored goal if it exists and belongs to ownerID.
// Callers must hold the lock.
func (r *memoryGoalRepository) owned(ownerID, id string) (*domain.Goal, error) {
	g, ok := r.goals[id]
	if !ok || g.OwnerID != ownerID {
		return nil, domain.ErrGoalNotFound
	}
	return g, nil
}

func (r *memoryGoalRepository) FindByID(ctx context.Context, ownerID, id string) (*domain.Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	g, err := r.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

func (r *memoryGoalRepository) AllByOwner(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	goals := make([]domain.Goal, 0)
	for _, g := range r.goals {
		if g.OwnerID == ownerID {
			goals = append(goals, *g.Clone())
		}
	}
	query.SortNewestFirst(goals)
	return goals, nil
}

func (r *memoryGoalRepository) ListByOwner(ctx context.Context, ownerID string, filter query.Filter, page query.Page) (query.Result, error) {
	goals, err := r.AllByOwner(ctx, ownerID)
	if err != nil {
		return query.Result{}, err
	}
	return query.Apply(goals, filter, page), nil
}

func (r *memoryGoalRepository) Mutate(ctx context.Context, ownerID, id string, fn MutateFunc) (*domain.Goal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.owned(ownerID, id)
	if err != nil {
		return nil, err
	}

	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}

	// Identity and ownership are not editable through Mutate.
	working.ID = stored.ID
	working.OwnerID = stored.OwnerID
	working.CreatedAt = stored.CreatedAt
	working.UpdatedAt = r.now()
	ensureChildIDs(working)
	working.Normalize()

	r.goals[id] = working
	return working.Clone(), nil
}

func (r *memoryGoalRepository) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.owned(ownerID, id); err != nil {
		return err
	}
	delete(r.goals, id)
	return nil
}
