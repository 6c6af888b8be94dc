package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
	"github.com/Tomlord1122/goal-tracker/internal/repository"
	"github.com/Tomlord1122/goal-tracker/internal/stats"
)

// --- Service Interface ---

// GoalService defines the operations for managing goals.
// Every method is scoped by the authenticated owner id; goals belonging to
// other owners behave exactly like missing ones.
type GoalService interface {
	CreateGoal(ctx context.Context, ownerID string, req CreateGoalRequest) (*domain.Goal, error)
	GetGoal(ctx context.Context, ownerID, id string) (*domain.Goal, error)
	ListGoals(ctx context.Context, ownerID string, req ListGoalsRequest) (*GoalPage, error)
	UpdateGoal(ctx context.Context, ownerID, id string, req UpdateGoalRequest) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, ownerID, id string) error

	// Milestone and note sub-operations either apply fully, including the
	// progress/status recomputation, or leave the goal untouched.
	AddMilestone(ctx context.Context, ownerID, goalID string, req MilestoneInput) (*domain.Goal, error)
	UpdateMilestone(ctx context.Context, ownerID, goalID, milestoneID string, req UpdateMilestoneRequest) (*domain.Goal, error)
	DeleteMilestone(ctx context.Context, ownerID, goalID, milestoneID string) (*domain.Goal, error)
	AddNote(ctx context.Context, ownerID, goalID string, req AddNoteRequest) (*domain.Goal, error)

	// Stats summarizes all of the owner's goals.
	Stats(ctx context.Context, ownerID string) (*stats.Summary, error)
}

// --- Service Implementation ---

// goalService implements the GoalService interface.
// It depends on a GoalRepository to interact with the data layer.
type goalService struct {
	repo repository.GoalRepository
	now  func() time.Time
}

// NewGoalService creates a new instance of goalService.
func NewGoalService(repo repository.GoalRepository) GoalService {
	return &goalService{
		repo: repo,
		now:  time.Now,
	}
}

// checkRepoErr logs unexpected repository failures and passes the error on.
// Not-found and validation errors are expected outcomes and are not logged.
func checkRepoErr(op string, err error, attrs ...any) error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	if errors.Is(err, domain.ErrGoalNotFound) || errors.Is(err, domain.ErrMilestoneNotFound) || errors.As(err, &verr) {
		return err
	}
	slog.Error("goal repository failure", append([]any{"op", op, "error", err}, attrs...)...)
	if !errors.Is(err, domain.ErrStorage) {
		return errors.Join(domain.ErrStorage, err)
	}
	return err
}

// CreateGoal validates the request and stores a new goal with empty
// milestones and notes.
func (s *goalService) CreateGoal(ctx context.Context, ownerID string, req CreateGoalRequest) (*domain.Goal, error) {
	verr := &domain.ValidationError{}

	title, err := domain.ValidateTitle(req.Title)
	verr.Merge(err)
	description, err := domain.ValidateDescription(req.Description)
	verr.Merge(err)
	category, err := domain.ParseCategory(req.Category)
	verr.Merge(err)
	targetDate, err := domain.ParseDate("targetDate", req.TargetDate)
	verr.Merge(err)

	priority := domain.PriorityMedium
	if req.Priority != "" {
		priority, err = domain.ParsePriority(req.Priority)
		verr.Merge(err)
	}
	status := domain.StatusNotStarted
	if req.Status != "" {
		status, err = domain.ParseStatus(req.Status)
		verr.Merge(err)
	}
	progress := 0
	if req.Progress != nil {
		progress = *req.Progress
		verr.Merge(domain.ValidateProgress(progress))
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.now()
	goal := &domain.Goal{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      domain.StatusNotStarted,
		TargetDate:  targetDate,
		Progress:    progress,
		Milestones:  []domain.Milestone{},
		Notes:       []domain.Note{},
		Tags:        domain.CleanTags(req.Tags),
	}
	domain.ApplyStatus(goal, status, now)

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, checkRepoErr("create", err, "owner", ownerID)
	}
	return goal, nil
}

// GetGoal retrieves a single goal by its ID.
func (s *goalService) GetGoal(ctx context.Context, ownerID, id string) (*domain.Goal, error) {
	goal, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, checkRepoErr("get", err, "goal", id)
	}
	return goal, nil
}

// ListGoals filters, orders newest first and pages the owner's goals.
func (s *goalService) ListGoals(ctx context.Context, ownerID string, req ListGoalsRequest) (*GoalPage, error) {
	filter, page, err := req.toQuery()
	if err != nil {
		return nil, err
	}

	res, err := s.repo.ListByOwner(ctx, ownerID, filter, page)
	if err != nil {
		return nil, checkRepoErr("list", err, "owner", ownerID)
	}

	return &GoalPage{
		Goals: res.Items,
		Count: len(res.Items),
		Total: res.Total,
		Page:  res.Page,
		Pages: res.Pages,
	}, nil
}

// goalPatch is a validated UpdateGoalRequest.
type goalPatch struct {
	title         *string
	description   *string
	category      *domain.Category
	priority      *domain.Priority
	status        *domain.Status
	targetDate    *time.Time
	progress      *int
	tags          []string
	setTags       bool
	milestones    []milestonePatch
	setMilestones bool
}

type milestonePatch struct {
	id          string
	title       string
	description string
	targetDate  *time.Time
	completed   bool
}

func parseGoalPatch(req UpdateGoalRequest) (*goalPatch, error) {
	verr := &domain.ValidationError{}
	p := &goalPatch{}

	if req.Title != nil {
		title, err := domain.ValidateTitle(*req.Title)
		verr.Merge(err)
		p.title = &title
	}
	if req.Description != nil {
		desc, err := domain.ValidateDescription(*req.Description)
		verr.Merge(err)
		p.description = &desc
	}
	if req.Category != nil {
		c, err := domain.ParseCategory(*req.Category)
		verr.Merge(err)
		p.category = &c
	}
	if req.Priority != nil {
		pr, err := domain.ParsePriority(*req.Priority)
		verr.Merge(err)
		p.priority = &pr
	}
	if req.Status != nil {
		st, err := domain.ParseStatus(*req.Status)
		verr.Merge(err)
		p.status = &st
	}
	if req.TargetDate != nil {
		t, err := domain.ParseDate("targetDate", *req.TargetDate)
		verr.Merge(err)
		p.targetDate = &t
	}
	if req.Progress != nil {
		verr.Merge(domain.ValidateProgress(*req.Progress))
		p.progress = req.Progress
	}
	if req.Tags != nil {
		p.tags = domain.CleanTags(*req.Tags)
		p.setTags = true
	}
	if req.Milestones != nil {
		p.setMilestones = true
		p.milestones = make([]milestonePatch, 0, len(*req.Milestones))
		seen := make(map[string]bool, len(*req.Milestones))
		for _, in := range *req.Milestones {
			mp, err := parseMilestoneInput("milestones.", in)
			verr.Merge(err)
			if mp.id != "" {
				if seen[mp.id] {
					verr.Add("milestones.id", "Milestone id "+mp.id+" is listed more than once")
				}
				seen[mp.id] = true
			}
			p.milestones = append(p.milestones, mp)
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return p, nil
}

// parseMilestoneInput validates one milestone; prefix qualifies field names
// when the milestone is part of a list.
func parseMilestoneInput(prefix string, in MilestoneInput) (milestonePatch, error) {
	verr := &domain.ValidationError{}
	title, err := domain.RequireText(prefix+"title", in.Title)
	verr.Merge(err)

	mp := milestonePatch{
		id:          in.ID,
		title:       title,
		description: in.Description,
		completed:   in.Completed,
	}
	if in.TargetDate != nil && *in.TargetDate != "" {
		t, err := domain.ParseDate(prefix+"targetDate", *in.TargetDate)
		verr.Merge(err)
		mp.targetDate = &t
	}
	return mp, verr.OrNil()
}

// buildMilestone turns a patch into a milestone, starting from prev when the
// patch refers to an existing one so its completion stamp survives.
func buildMilestone(mp milestonePatch, prev *domain.Milestone, now time.Time) domain.Milestone {
	m := domain.Milestone{ID: uuid.NewString()}
	if prev != nil {
		m = *prev
	}
	m.Title = mp.title
	m.Description = mp.description
	m.TargetDate = mp.targetDate
	m.SetCompleted(mp.completed, now)
	return m
}

// UpdateGoal merges the provided fields. Replacing milestones re-derives
// progress; setting status to completed forces progress to 100 and stamps
// completedAt.
func (s *goalService) UpdateGoal(ctx context.Context, ownerID, id string, req UpdateGoalRequest) (*domain.Goal, error) {
	patch, err := parseGoalPatch(req)
	if err != nil {
		return nil, err
	}

	goal, err := s.repo.Mutate(ctx, ownerID, id, func(g *domain.Goal) error {
		now := s.now()

		if patch.title != nil {
			g.Title = *patch.title
		}
		if patch.description != nil {
			g.Description = *patch.description
		}
		if patch.category != nil {
			g.Category = *patch.category
		}
		if patch.priority != nil {
			g.Priority = *patch.priority
		}
		if patch.targetDate != nil {
			g.TargetDate = *patch.targetDate
		}
		if patch.progress != nil {
			g.Progress = *patch.progress
		}
		if patch.setTags {
			g.Tags = patch.tags
		}

		if patch.setMilestones {
			milestones := make([]domain.Milestone, 0, len(patch.milestones))
			for _, mp := range patch.milestones {
				var prev *domain.Milestone
				if mp.id != "" {
					prev, _ = g.Milestone(mp.id)
				}
				milestones = append(milestones, buildMilestone(mp, prev, now))
			}
			g.Milestones = milestones
			domain.RecomputeProgress(g, now)
		}

		if patch.status != nil {
			domain.ApplyStatus(g, *patch.status, now)
		}
		return nil
	})
	if err != nil {
		return nil, checkRepoErr("update", err, "goal", id)
	}
	return goal, nil
}

// DeleteGoal permanently removes a goal.
func (s *goalService) DeleteGoal(ctx context.Context, ownerID, id string) error {
	return checkRepoErr("delete", s.repo.Delete(ctx, ownerID, id), "goal", id)
}

func (s *goalService) AddMilestone(ctx context.Context, ownerID, goalID string, req MilestoneInput) (*domain.Goal, error) {
	mp, err := parseMilestoneInput("", req)
	if err != nil {
		return nil, err
	}

	goal, err := s.repo.Mutate(ctx, ownerID, goalID, func(g *domain.Goal) error {
		now := s.now()
		mp.id = ""
		g.Milestones = append(g.Milestones, buildMilestone(mp, nil, now))
		domain.RecomputeProgress(g, now)
		return nil
	})
	if err != nil {
		return nil, checkRepoErr("add milestone", err, "goal", goalID)
	}
	return goal, nil
}

func (s *goalService) UpdateMilestone(ctx context.Context, ownerID, goalID, milestoneID string, req UpdateMilestoneRequest) (*domain.Goal, error) {
	verr := &domain.ValidationError{}
	var (
		title      string
		targetDate *time.Time
	)
	if req.Title != nil {
		t, err := domain.RequireText("title", *req.Title)
		verr.Merge(err)
		title = t
	}
	if req.TargetDate != nil && *req.TargetDate != "" {
		t, err := domain.ParseDate("targetDate", *req.TargetDate)
		verr.Merge(err)
		targetDate = &t
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	goal, err := s.repo.Mutate(ctx, ownerID, goalID, func(g *domain.Goal) error {
		m, err := g.Milestone(milestoneID)
		if err != nil {
			return err
		}

		now := s.now()
		if req.Title != nil {
			m.Title = title
		}
		if req.Description != nil {
			m.Description = *req.Description
		}
		if req.TargetDate != nil {
			m.TargetDate = targetDate
		}
		if req.Completed != nil {
			m.SetCompleted(*req.Completed, now)
		}

		domain.RecomputeProgress(g, now)
		return nil
	})
	if err != nil {
		return nil, checkRepoErr("update milestone", err, "goal", goalID, "milestone", milestoneID)
	}
	return goal, nil
}

// DeleteMilestone removes a milestone. Removing the last one leaves progress
// at its previous value.
func (s *goalService) DeleteMilestone(ctx context.Context, ownerID, goalID, milestoneID string) (*domain.Goal, error) {
	goal, err := s.repo.Mutate(ctx, ownerID, goalID, func(g *domain.Goal) error {
		if err := g.RemoveMilestone(milestoneID); err != nil {
			return err
		}
		domain.RecomputeProgress(g, s.now())
		return nil
	})
	if err != nil {
		return nil, checkRepoErr("delete milestone", err, "goal", goalID, "milestone", milestoneID)
	}
	return goal, nil
}

func (s *goalService) AddNote(ctx context.Context, ownerID, goalID string, req AddNoteRequest) (*domain.Goal, error) {
	content, err := domain.RequireText("content", req.Content)
	if err != nil {
		return nil, err
	}

	goal, err := s.repo.Mutate(ctx, ownerID, goalID, func(g *domain.Goal) error {
		g.Notes = append(g.Notes, domain.Note{
			ID:        uuid.NewString(),
			Content:   content,
			CreatedAt: s.now(),
		})
		return nil
	})
	if err != nil {
		return nil, checkRepoErr("add note", err, "goal", goalID)
	}
	return goal, nil
}

func (s *goalService) Stats(ctx context.Context, ownerID string) (*stats.Summary, error) {
	goals, err := s.repo.AllByOwner(ctx, ownerID)
	if err != nil {
		return nil, checkRepoErr("stats", err, "owner", ownerID)
	}
	summary := stats.Compute(goals, s.now())
	return &summary, nil
}
