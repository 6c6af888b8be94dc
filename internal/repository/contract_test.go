package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
	"github.com/Tomlord1122/goal-tracker/internal/query"
)

var contractBase = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func newTestGoal(ownerID, title string, offset time.Duration) *domain.Goal {
	return &domain.Goal{
		OwnerID:    ownerID,
		Title:      title,
		Category:   domain.CategoryPersonal,
		Priority:   domain.PriorityMedium,
		Status:     domain.StatusNotStarted,
		TargetDate: contractBase.Add(30 * 24 * time.Hour),
		CreatedAt:  contractBase.Add(offset),
	}
}

func goalIDs(goals []domain.Goal) []string {
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		out = append(out, g.ID)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// runGoalRepositoryContract checks the behaviour every GoalRepository backend
// must share. Subtests use fresh owner ids so one store can serve them all.
func runGoalRepositoryContract(t *testing.T, repo GoalRepository) {
	ctx := context.Background()

	t.Run("create and find round-trip", func(t *testing.T) {
		owner := uuid.NewString()
		done := contractBase.Add(time.Hour)
		msTarget := contractBase.Add(10 * 24 * time.Hour)

		goal := newTestGoal(owner, "Learn to sail", 0)
		goal.Description = "Get the day skipper certificate"
		goal.Progress = 50
		goal.Tags = []string{"water", "outdoors", "water"}
		goal.Milestones = []domain.Milestone{
			{Title: "Theory course", Completed: true, CompletedAt: &done},
			{Title: "Practical week", TargetDate: &msTarget},
		}
		goal.Notes = []domain.Note{{Content: "Booked the course", CreatedAt: contractBase}}

		require.NoError(t, repo.Create(ctx, goal))
		require.NotEmpty(t, goal.ID)
		require.NotEmpty(t, goal.Milestones[0].ID)
		require.NotEmpty(t, goal.Notes[0].ID)
		assert.Equal(t, goal.CreatedAt, goal.UpdatedAt)

		found, err := repo.FindByID(ctx, owner, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, goal, found)
	})

	t.Run("create normalizes empty collections", func(t *testing.T) {
		owner := uuid.NewString()
		goal := newTestGoal(owner, "Bare", 0)
		require.NoError(t, repo.Create(ctx, goal))

		found, err := repo.FindByID(ctx, owner, goal.ID)
		require.NoError(t, err)
		assert.NotNil(t, found.Milestones)
		assert.NotNil(t, found.Notes)
		assert.NotNil(t, found.Tags)
		assert.Nil(t, found.CompletedAt)
	})

	t.Run("goals of other owners are invisible", func(t *testing.T) {
		owner, other := uuid.NewString(), uuid.NewString()
		goal := newTestGoal(owner, "Private", 0)
		require.NoError(t, repo.Create(ctx, goal))

		_, err := repo.FindByID(ctx, other, goal.ID)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)

		_, err = repo.Mutate(ctx, other, goal.ID, func(g *domain.Goal) error {
			g.Title = "hijacked"
			return nil
		})
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)

		assert.ErrorIs(t, repo.Delete(ctx, other, goal.ID), domain.ErrGoalNotFound)

		all, err := repo.AllByOwner(ctx, other)
		require.NoError(t, err)
		assert.Empty(t, all)

		page, err := repo.ListByOwner(ctx, other, query.Filter{}, query.Page{Number: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Total)
		assert.Empty(t, page.Items)

		found, err := repo.FindByID(ctx, owner, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, "Private", found.Title)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.NewString(), uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)
	})

	t.Run("list matches in-memory query semantics", func(t *testing.T) {
		owner := uuid.NewString()
		seed := []struct {
			title, desc string
			category    domain.Category
			priority    domain.Priority
			status      domain.Status
			tags        []string
		}{
			{"Run a marathon", "", domain.CategoryHealth, domain.PriorityHigh, domain.StatusInProgress, []string{"running"}},
			{"Learn Go", "finish the Tour", domain.CategoryEducation, domain.PriorityMedium, domain.StatusNotStarted, nil},
			{"Save 100% of bonus", "", domain.CategoryFinance, domain.PriorityHigh, domain.StatusCompleted, []string{"Budget"}},
			{"snake_case everything", "", domain.CategoryCareer, domain.PriorityLow, domain.StatusPaused, nil},
			{"Read books", "", domain.CategoryPersonal, domain.PriorityLow, domain.StatusInProgress, []string{"tour reading"}},
			{"Yoga", "", domain.CategoryHealth, domain.PriorityHigh, domain.StatusInProgress, nil},
			{"Call grandma", "weekly", domain.CategoryRelationships, domain.PriorityMedium, domain.StatusCancelled, nil},
			{"ÉCOLE du soir", "", domain.CategoryEducation, domain.PriorityLow, domain.StatusNotStarted, nil},
			{"Café crème daily", "", domain.CategoryPersonal, domain.PriorityLow, domain.StatusInProgress, []string{"Straße"}},
		}
		for i, s := range seed {
			g := newTestGoal(owner, s.title, time.Duration(i%4)*time.Minute)
			g.Description = s.desc
			g.Category = s.category
			g.Priority = s.priority
			g.Status = s.status
			g.Tags = s.tags
			require.NoError(t, repo.Create(ctx, g))
		}
		// Noise from another owner.
		require.NoError(t, repo.Create(ctx, newTestGoal(uuid.NewString(), "Run a marathon", 0)))

		all, err := repo.AllByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, all, len(seed))

		filters := []query.Filter{
			{},
			{Status: ptr(domain.StatusInProgress)},
			{Category: ptr(domain.CategoryHealth)},
			{Priority: ptr(domain.PriorityHigh), Status: ptr(domain.StatusInProgress)},
			{Search: "TOUR"},
			{Search: "budget"},
			{Search: "%"},
			{Search: "_"},
			{Search: "!"},
			{Search: "nothing matches"},
			{Search: "a", Category: ptr(domain.CategoryHealth)},
			{Search: "école"},
			{Search: "CAFÉ"},
			{Search: "cafe"},
			{Search: "straße"},
		}

		unicode, err := repo.ListByOwner(ctx, owner, query.Filter{Search: "école"}, query.Page{Number: 1, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 1, unicode.Total, "case folding covers non-ASCII letters")
		assert.Equal(t, "ÉCOLE du soir", unicode.Items[0].Title)

		accents, err := repo.ListByOwner(ctx, owner, query.Filter{Search: "cafe"}, query.Page{Number: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 0, accents.Total, "accents are significant")

		for i, f := range filters {
			for _, p := range []query.Page{{Number: 1, Limit: 2}, {Number: 2, Limit: 2}, {Number: 1, Limit: 100}, {Number: 9, Limit: 3}} {
				t.Run(fmt.Sprintf("filter%d/page%d-limit%d", i, p.Number, p.Limit), func(t *testing.T) {
					want := query.Apply(all, f, p)

					got, err := repo.ListByOwner(ctx, owner, f, p)
					require.NoError(t, err)
					assert.Equal(t, goalIDs(want.Items), goalIDs(got.Items))
					assert.Equal(t, want.Total, got.Total)
					assert.Equal(t, want.Pages, got.Pages)
					assert.Equal(t, p.Number, got.Page)
				})
			}
		}
	})

	t.Run("all by owner is newest first", func(t *testing.T) {
		owner := uuid.NewString()
		for i := 0; i < 4; i++ {
			require.NoError(t, repo.Create(ctx, newTestGoal(owner, fmt.Sprintf("goal %d", i), time.Duration(i)*time.Hour)))
		}

		all, err := repo.AllByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, all, 4)
		for i := 1; i < len(all); i++ {
			assert.True(t, all[i-1].CreatedAt.After(all[i].CreatedAt))
		}
		assert.Equal(t, "goal 3", all[0].Title)
	})

	t.Run("mutate persists the whole goal", func(t *testing.T) {
		owner := uuid.NewString()
		goal := newTestGoal(owner, "Original", 0)
		goal.Tags = []string{"one"}
		goal.Milestones = []domain.Milestone{{Title: "first"}, {Title: "second"}}
		require.NoError(t, repo.Create(ctx, goal))
		keptID := goal.Milestones[1].ID

		updated, err := repo.Mutate(ctx, owner, goal.ID, func(g *domain.Goal) error {
			g.Title = "Renamed"
			g.ID = "ignored"
			g.OwnerID = "ignored"
			g.Tags = []string{"two", "three"}
			g.Milestones = []domain.Milestone{g.Milestones[1], {Title: "third"}}
			g.Milestones[0].SetCompleted(true, contractBase)
			domain.RecomputeProgress(g, contractBase)
			g.Notes = append(g.Notes, domain.Note{Content: "went well", CreatedAt: contractBase})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, goal.ID, updated.ID)
		assert.Equal(t, owner, updated.OwnerID)
		assert.Equal(t, goal.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(goal.UpdatedAt))
		assert.Equal(t, 50, updated.Progress)

		found, err := repo.FindByID(ctx, owner, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, found)
		assert.Equal(t, "Renamed", found.Title)
		assert.Equal(t, []string{"two", "three"}, found.Tags)
		require.Len(t, found.Milestones, 2)
		assert.Equal(t, keptID, found.Milestones[0].ID)
		assert.True(t, found.Milestones[0].Completed)
		assert.NotEmpty(t, found.Milestones[1].ID)
		require.Len(t, found.Notes, 1)
		assert.NotEmpty(t, found.Notes[0].ID)
	})

	t.Run("mutate error leaves the goal untouched", func(t *testing.T) {
		owner := uuid.NewString()
		goal := newTestGoal(owner, "Stable", 0)
		require.NoError(t, repo.Create(ctx, goal))

		boom := errors.New("boom")
		_, err := repo.Mutate(ctx, owner, goal.ID, func(g *domain.Goal) error {
			g.Title = "Changed"
			g.Tags = []string{"x"}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := repo.FindByID(ctx, owner, goal.ID)
		require.NoError(t, err)
		assert.Equal(t, goal, found)
	})

	t.Run("concurrent mutations are serialized", func(t *testing.T) {
		owner := uuid.NewString()
		goal := newTestGoal(owner, "Busy", 0)
		require.NoError(t, repo.Create(ctx, goal))

		const writers = 12
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.Mutate(ctx, owner, goal.ID, func(g *domain.Goal) error {
					g.Notes = append(g.Notes, domain.Note{Content: fmt.Sprintf("note %d", i), CreatedAt: contractBase})
					return nil
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		found, err := repo.FindByID(ctx, owner, goal.ID)
		require.NoError(t, err)
		assert.Len(t, found.Notes, writers, "no lost updates")
	})

	t.Run("delete removes the goal", func(t *testing.T) {
		owner := uuid.NewString()
		goal := newTestGoal(owner, "Temporary", 0)
		goal.Milestones = []domain.Milestone{{Title: "m"}}
		goal.Tags = []string{"t"}
		require.NoError(t, repo.Create(ctx, goal))

		require.NoError(t, repo.Delete(ctx, owner, goal.ID))

		_, err := repo.FindByID(ctx, owner, goal.ID)
		assert.ErrorIs(t, err, domain.ErrGoalNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, owner, goal.ID), domain.ErrGoalNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
