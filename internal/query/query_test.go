package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func fixtureGoals() []domain.Goal {
	return []domain.Goal{
		{ID: "a", Title: "Run a marathon", Category: domain.CategoryHealth, Priority: domain.PriorityHigh, Status: domain.StatusInProgress, Tags: []string{"running"}, CreatedAt: base.Add(1 * time.Hour)},
		{ID: "b", Title: "Learn Go", Description: "Finish the TOUR", Category: domain.CategoryEducation, Priority: domain.PriorityMedium, Status: domain.StatusNotStarted, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "c", Title: "Save money", Category: domain.CategoryFinance, Priority: domain.PriorityHigh, Status: domain.StatusCompleted, Tags: []string{"Budget"}, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "d", Title: "Read books", Category: domain.CategoryPersonal, Priority: domain.PriorityLow, Status: domain.StatusInProgress, Tags: []string{"tour de france"}, CreatedAt: base.Add(4 * time.Hour)},
		{ID: "e", Title: "Yoga", Category: domain.CategoryHealth, Priority: domain.PriorityHigh, Status: domain.StatusInProgress, CreatedAt: base.Add(4 * time.Hour)},
	}
}

func ids(goals []domain.Goal) []string {
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		out = append(out, g.ID)
	}
	return out
}

func TestNewPage(t *testing.T) {
	p, err := NewPage(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Limit: DefaultLimit}, p)

	p, err = NewPage(3, 100)
	require.NoError(t, err)
	assert.Equal(t, 200, p.Offset())

	for _, tc := range []struct{ number, limit int }{{-1, 10}, {1, -5}, {1, 101}} {
		t.Run(fmt.Sprintf("%d/%d", tc.number, tc.limit), func(t *testing.T) {
			_, err := NewPage(tc.number, tc.limit)
			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestMatch(t *testing.T) {
	goals := fixtureGoals()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter", Filter{}, []string{"e", "d", "c", "b", "a"}},
		{"status", Filter{Status: ptr(domain.StatusInProgress)}, []string{"e", "d", "a"}},
		{"category", Filter{Category: ptr(domain.CategoryHealth)}, []string{"e", "a"}},
		{"priority", Filter{Priority: ptr(domain.PriorityHigh)}, []string{"e", "c", "a"}},
		{"combined", Filter{Status: ptr(domain.StatusInProgress), Priority: ptr(domain.PriorityHigh), Category: ptr(domain.CategoryHealth)}, []string{"e", "a"}},
		{"search title case-insensitive", Filter{Search: "MARATHON"}, []string{"a"}},
		{"search description and tags", Filter{Search: "tour"}, []string{"d", "b"}},
		{"search tag", Filter{Search: "budget"}, []string{"c"}},
		{"search with status", Filter{Search: "tour", Status: ptr(domain.StatusNotStarted)}, []string{"b"}},
		{"no match", Filter{Search: "nothing here"}, []string{}},
		{"whitespace search matches all", Filter{Search: "   "}, []string{"e", "d", "c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(goals, tt.filter, Page{Number: 1, Limit: MaxLimit})
			assert.Equal(t, tt.want, ids(res.Items))
			assert.Equal(t, len(tt.want), res.Total)
		})
	}
}

func TestFiltersCommute(t *testing.T) {
	goals := fixtureGoals()
	status := Filter{Status: ptr(domain.StatusInProgress)}
	priority := Filter{Priority: ptr(domain.PriorityHigh)}

	var viaStatus, viaPriority []string
	for i := range goals {
		if status.Match(&goals[i]) && priority.Match(&goals[i]) {
			viaStatus = append(viaStatus, goals[i].ID)
		}
		if priority.Match(&goals[i]) && status.Match(&goals[i]) {
			viaPriority = append(viaPriority, goals[i].ID)
		}
	}

	combined := Apply(goals, Filter{Status: status.Status, Priority: priority.Priority}, Page{Number: 1, Limit: MaxLimit})
	assert.Equal(t, viaStatus, viaPriority)
	assert.ElementsMatch(t, viaStatus, ids(combined.Items))
}

func TestSortIsTotalOnEqualCreatedAt(t *testing.T) {
	goals := fixtureGoals()
	SortNewestFirst(goals)
	// d and e share a timestamp; id breaks the tie descending.
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids(goals))
}

func TestPaginationReconstructsFilteredSet(t *testing.T) {
	var goals []domain.Goal
	for i := 0; i < 23; i++ {
		goals = append(goals, domain.Goal{
			ID:        fmt.Sprintf("g%02d", i),
			Title:     "goal",
			Status:    domain.StatusInProgress,
			CreatedAt: base.Add(time.Duration(i%5) * time.Minute),
		})
	}

	full := Apply(goals, Filter{}, Page{Number: 1, Limit: MaxLimit})

	for _, limit := range []int{1, 4, 10, 23, 50} {
		t.Run(fmt.Sprintf("limit=%d", limit), func(t *testing.T) {
			first := Apply(goals, Filter{}, Page{Number: 1, Limit: limit})
			require.Equal(t, 23, first.Total)
			require.Equal(t, Pages(23, limit), first.Pages)

			var collected []string
			for n := 1; n <= first.Pages; n++ {
				res := Apply(goals, Filter{}, Page{Number: n, Limit: limit})
				assert.LessOrEqual(t, len(res.Items), limit)
				collected = append(collected, ids(res.Items)...)
			}
			assert.Equal(t, ids(full.Items), collected)
		})
	}
}

func TestPageBeyondEndIsEmpty(t *testing.T) {
	res := Apply(fixtureGoals(), Filter{}, Page{Number: 9, Limit: 2})
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 9, res.Page)
}

func TestApplyDoesNotReorderInput(t *testing.T) {
	goals := fixtureGoals()
	before := ids(goals)

	Apply(goals, Filter{}, Page{Number: 1, Limit: 2})

	assert.Equal(t, before, ids(goals))
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 10))
	assert.Equal(t, 1, Pages(1, 10))
	assert.Equal(t, 1, Pages(10, 10))
	assert.Equal(t, 2, Pages(11, 10))
	assert.Equal(t, 0, Pages(5, 0))
}
