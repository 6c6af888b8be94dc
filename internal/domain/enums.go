package domain

// Category groups goals by life area.
type Category string

const (
	CategoryHealth        Category = "health"
	CategoryCareer        Category = "career"
	CategoryEducation     Category = "education"
	CategoryFinance       Category = "finance"
	CategoryPersonal      Category = "personal"
	CategoryRelationships Category = "relationships"
	CategoryOther         Category = "other"
)

// AllCategories returns the category domain in declaration order.
func AllCategories() []Category {
	return []Category{
		CategoryHealth,
		CategoryCareer,
		CategoryEducation,
		CategoryFinance,
		CategoryPersonal,
		CategoryRelationships,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryHealth, CategoryCareer, CategoryEducation, CategoryFinance,
		CategoryPersonal, CategoryRelationships, CategoryOther:
		return true
	}
	return false
}

// Priority of a goal. The zero value is not valid; use PriorityMedium as default.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status is the lifecycle state of a goal.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusPaused     Status = "paused"
	StatusCancelled  Status = "cancelled"
)

func AllStatuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusPaused, StatusCancelled}
}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusPaused, StatusCancelled:
		return true
	}
	return false
}

// Closed reports whether a goal in this status can no longer become overdue.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseCategory converts raw input into a Category, rejecting unknown values.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if !c.Valid() {
		return "", NewFieldError("category", "Invalid category")
	}
	return c, nil
}

func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", NewFieldError("priority", "Invalid priority")
	}
	return p, nil
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", NewFieldError("status", "Invalid status")
	}
	return s, nil
}
