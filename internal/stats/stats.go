// Package stats folds a user's goals into a summary for the overview screen.
package stats

import (
	"sort"
	"time"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
)

type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

type MonthCount struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Count int `json:"count"`
}

// Summary is computed fresh on every call; nothing is cached.
type Summary struct {
	Total           int             `json:"total"`
	Completed       int             `json:"completed"`
	InProgress      int             `json:"inProgress"`
	NotStarted      int             `json:"notStarted"`
	Paused          int             `json:"paused"`
	Cancelled       int             `json:"cancelled"`
	Overdue         int             `json:"overdue"`
	CompletionRate  int             `json:"completionRate"`
	Categories      []CategoryCount `json:"categories"`
	MonthlyProgress []MonthCount    `json:"monthlyProgress"`
}

type monthKey struct {
	year  int
	month time.Month
}

// Compute aggregates goals as of now.
func Compute(goals []domain.Goal, now time.Time) Summary {
	s := Summary{
		Total:           len(goals),
		Categories:      []CategoryCount{},
		MonthlyProgress: []MonthCount{},
	}

	categories := make(map[domain.Category]int)
	months := make(map[monthKey]int)

	for i := range goals {
		g := &goals[i]

		switch g.Status {
		case domain.StatusCompleted:
			s.Completed++
		case domain.StatusInProgress:
			s.InProgress++
		case domain.StatusNotStarted:
			s.NotStarted++
		case domain.StatusPaused:
			s.Paused++
		case domain.StatusCancelled:
			s.Cancelled++
		}

		if g.Overdue(now) {
			s.Overdue++
		}

		categories[g.Category]++

		if g.CompletedAt != nil {
			at := g.CompletedAt.UTC()
			months[monthKey{year: at.Year(), month: at.Month()}]++
		}
	}

	s.CompletionRate = domain.RoundPercent(s.Completed, s.Total)

	for _, c := range domain.AllCategories() {
		if n, ok := categories[c]; ok {
			s.Categories = append(s.Categories, CategoryCount{Category: c, Count: n})
			delete(categories, c)
		}
	}
	// Values outside the enum can only come from a corrupted store; report them last.
	for c, n := range categories {
		s.Categories = append(s.Categories, CategoryCount{Category: c, Count: n})
	}

	for k, n := range months {
		s.MonthlyProgress = append(s.MonthlyProgress, MonthCount{Year: k.year, Month: int(k.month), Count: n})
	}
	sort.Slice(s.MonthlyProgress, func(i, j int) bool {
		a, b := s.MonthlyProgress[i], s.MonthlyProgress[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Month < b.Month
	})

	return s
}
