package service

import (
	"github.com/Tomlord1122/goal-tracker/internal/domain"
	"github.com/Tomlord1122/goal-tracker/internal/query"
)

// Input/Output structs (DTOs) decouple the HTTP layer from the domain model.
// Dates travel as strings so malformed values surface as field errors rather
// than JSON decoding failures.

// CreateGoalRequest holds the data needed to create a new goal.
type CreateGoalRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	TargetDate  string   `json:"targetDate"`
	Progress    *int     `json:"progress"`
	Tags        []string `json:"tags"`
}

// UpdateGoalRequest holds a partial update. Nil pointers leave the field
// untouched; a non-nil Milestones replaces the whole list.
type UpdateGoalRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Priority    *string           `json:"priority"`
	Status      *string           `json:"status"`
	TargetDate  *string           `json:"targetDate"`
	Progress    *int              `json:"progress"`
	Tags        *[]string         `json:"tags"`
	Milestones  *[]MilestoneInput `json:"milestones"`
}

// MilestoneInput describes a milestone to add. ID is only honoured when
// replacing the list through UpdateGoalRequest, to keep an existing milestone.
type MilestoneInput struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	TargetDate  *string `json:"targetDate"`
	Completed   bool    `json:"completed"`
}

type UpdateMilestoneRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	TargetDate  *string `json:"targetDate"`
	Completed   *bool   `json:"completed"`
}

type AddNoteRequest struct {
	Content string `json:"content"`
}

// ListGoalsRequest carries raw list parameters; empty strings mean no filter.
type ListGoalsRequest struct {
	Status   string
	Category string
	Priority string
	Search   string
	Page     int
	Limit    int
}

// GoalPage is one page of a user's goals.
type GoalPage struct {
	Goals []domain.Goal `json:"goals"`
	Count int           `json:"count"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

func (r ListGoalsRequest) toQuery() (query.Filter, query.Page, error) {
	verr := &domain.ValidationError{}
	filter := query.Filter{Search: r.Search}

	if r.Status != "" {
		s, err := domain.ParseStatus(r.Status)
		verr.Merge(err)
		filter.Status = &s
	}
	if r.Category != "" {
		c, err := domain.ParseCategory(r.Category)
		verr.Merge(err)
		filter.Category = &c
	}
	if r.Priority != "" {
		p, err := domain.ParsePriority(r.Priority)
		verr.Merge(err)
		filter.Priority = &p
	}

	page, err := query.NewPage(r.Page, r.Limit)
	verr.Merge(err)

	if err := verr.OrNil(); err != nil {
		return query.Filter{}, query.Page{}, err
	}
	return filter, page, nil
}
