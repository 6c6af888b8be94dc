// Package query narrows, orders and pages a user's goals. The in-memory store
// applies it directly; SQL stores reproduce the same semantics in queries.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter holds optional predicates. Nil fields and an empty Search match everything.
type Filter struct {
	Status   *domain.Status
	Category *domain.Category
	Priority *domain.Priority
	Search   string
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Result is one page of goals together with totals over the filtered set.
type Result struct {
	Items []domain.Goal
	Total int
	Page  int
	Pages int
}

// NewPage builds a page request, defaulting zero values and rejecting out of
// range ones.
func NewPage(number, limit int) (Page, error) {
	if number == 0 {
		number = 1
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	verr := &domain.ValidationError{}
	if number < 1 {
		verr.Add("page", "Page must be a positive integer")
	}
	if limit < 1 || limit > MaxLimit {
		verr.Add("limit", fmt.Sprintf("Limit must be between 1 and %d", MaxLimit))
	}
	if err := verr.OrNil(); err != nil {
		return Page{}, err
	}
	return Page{Number: number, Limit: limit}, nil
}

// Offset is the index of the first item on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// SearchTerm returns the lowercased search string used for matching.
func (f Filter) SearchTerm() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// Match reports whether g satisfies every predicate in f.
func (f Filter) Match(g *domain.Goal) bool {
	if f.Status != nil && g.Status != *f.Status {
		return false
	}
	if f.Category != nil && g.Category != *f.Category {
		return false
	}
	if f.Priority != nil && g.Priority != *f.Priority {
		return false
	}
	term := f.SearchTerm()
	if term == "" {
		return true
	}
	if contains(g.Title, term) || contains(g.Description, term) {
		return true
	}
	for _, tag := range g.Tags {
		if contains(tag, term) {
			return true
		}
	}
	return false
}

func contains(s, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(s), lowerTerm)
}

// SortNewestFirst orders goals by creation time descending, breaking ties by
// ID descending so the order is total.
func SortNewestFirst(goals []domain.Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Pages returns ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Paginate slices an already ordered set.
func Paginate(goals []domain.Goal, p Page) Result {
	total := len(goals)
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)

	items := make([]domain.Goal, end-start)
	copy(items, goals[start:end])

	return Result{
		Items: items,
		Total: total,
		Page:  p.Number,
		Pages: Pages(total, p.Limit),
	}
}

// Apply filters, sorts and pages goals. The input slice is not modified.
func Apply(goals []domain.Goal, f Filter, p Page) Result {
	matched := make([]domain.Goal, 0, len(goals))
	for i := range goals {
		if f.Match(&goals[i]) {
			matched = append(matched, goals[i])
		}
	}
	SortNewestFirst(matched)
	return Paginate(matched, p)
}
