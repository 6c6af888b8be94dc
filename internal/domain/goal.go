package domain

import (
	"time"
)

// Goal is the top-level objective tracked by a single owner.
type Goal struct {
	ID          string      `json:"id"`
	OwnerID     string      `json:"user"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    Category    `json:"category"`
	Priority    Priority    `json:"priority"`
	Status      Status      `json:"status"`
	TargetDate  time.Time   `json:"targetDate"`
	Progress    int         `json:"progress"`
	Milestones  []Milestone `json:"milestones"`
	Tags        []string    `json:"tags"`
	Notes       []Note      `json:"notes"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Milestone is a sub-task of a goal. IDs are unique within the owning goal.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Note is an append-only annotation on a goal.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Timestamp normalizes t to the precision every backend can round-trip.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func timestampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := Timestamp(*t)
	return &v
}

// Normalize rewrites every timestamp on the goal with Timestamp and replaces
// nil collections with empty ones.
func (g *Goal) Normalize() {
	g.TargetDate = Timestamp(g.TargetDate)
	g.CreatedAt = Timestamp(g.CreatedAt)
	g.UpdatedAt = Timestamp(g.UpdatedAt)
	g.CompletedAt = timestampPtr(g.CompletedAt)
	if g.Milestones == nil {
		g.Milestones = []Milestone{}
	}
	if g.Notes == nil {
		g.Notes = []Note{}
	}
	if g.Tags == nil {
		g.Tags = []string{}
	}
	for i := range g.Milestones {
		g.Milestones[i].TargetDate = timestampPtr(g.Milestones[i].TargetDate)
		g.Milestones[i].CompletedAt = timestampPtr(g.Milestones[i].CompletedAt)
	}
	for i := range g.Notes {
		g.Notes[i].CreatedAt = Timestamp(g.Notes[i].CreatedAt)
	}
}

// Clone returns a deep copy that shares no slices or pointers with g.
func (g *Goal) Clone() *Goal {
	c := *g
	c.CompletedAt = clonePtr(g.CompletedAt)
	c.Tags = append([]string{}, g.Tags...)
	c.Notes = append([]Note{}, g.Notes...)
	c.Milestones = make([]Milestone, len(g.Milestones))
	for i, m := range g.Milestones {
		m.TargetDate = clonePtr(m.TargetDate)
		m.CompletedAt = clonePtr(m.CompletedAt)
		c.Milestones[i] = m
	}
	return &c
}

// Milestone returns a pointer into g.Milestones for the given id.
func (g *Goal) Milestone(id string) (*Milestone, error) {
	for i := range g.Milestones {
		if g.Milestones[i].ID == id {
			return &g.Milestones[i], nil
		}
	}
	return nil, ErrMilestoneNotFound
}

// RemoveMilestone drops the milestone with the given id, keeping order.
func (g *Goal) RemoveMilestone(id string) error {
	for i := range g.Milestones {
		if g.Milestones[i].ID == id {
			g.Milestones = append(g.Milestones[:i], g.Milestones[i+1:]...)
			return nil
		}
	}
	return ErrMilestoneNotFound
}

// CompletedMilestones counts milestones marked completed.
func (g *Goal) CompletedMilestones() int {
	n := 0
	for _, m := range g.Milestones {
		if m.Completed {
			n++
		}
	}
	return n
}

// Overdue reports whether the target date has passed while the goal is still open.
func (g *Goal) Overdue(now time.Time) bool {
	return g.TargetDate.Before(now) && !g.Status.Closed()
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
