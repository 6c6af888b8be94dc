package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
)

// goalRecord is the relational shape of domain.Goal. Children live in their
// own tables and carry a position to keep insertion order.
type goalRecord struct {
	ID          string     `gorm:"primaryKey;size:36"`
	OwnerID     string     `gorm:"size:64;not null;index:idx_goals_owner_status,priority:1;index:idx_goals_owner_category,priority:1"`
	Title       string     `gorm:"size:100;not null"`
	Description string     `gorm:"size:500;not null"`
	Category    string     `gorm:"size:32;not null;index:idx_goals_owner_category,priority:2"`
	Priority    string     `gorm:"size:16;not null"`
	Status      string     `gorm:"size:16;not null;index:idx_goals_owner_status,priority:2"`
	TargetDate  time.Time  `gorm:"not null;index;precision:6"`
	Progress    int        `gorm:"not null"`
	CompletedAt *time.Time `gorm:"precision:6"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime:false;precision:6"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime:false;precision:6"`

	Milestones []milestoneRecord `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Notes      []noteRecord      `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
	Tags       []tagRecord       `gorm:"foreignKey:GoalID;constraint:OnDelete:CASCADE"`
}

func (goalRecord) TableName() string { return "goals" }

func (g *goalRecord) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

type milestoneRecord struct {
	ID          string     `gorm:"primaryKey;size:36"`
	GoalID      string     `gorm:"size:36;not null;index"`
	Position    int        `gorm:"not null"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"not null"`
	TargetDate  *time.Time `gorm:"precision:6"`
	Completed   bool       `gorm:"not null"`
	CompletedAt *time.Time `gorm:"precision:6"`
}

func (milestoneRecord) TableName() string { return "goal_milestones" }

func (m *milestoneRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type noteRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	GoalID    string    `gorm:"size:36;not null;index"`
	Position  int       `gorm:"not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;precision:6"`
}

func (noteRecord) TableName() string { return "goal_notes" }

func (n *noteRecord) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

type tagRecord struct {
	GoalID   string `gorm:"primaryKey;size:36"`
	Position int    `gorm:"primaryKey;autoIncrement:false"`
	Value    string `gorm:"not null"`
}

func (tagRecord) TableName() string { return "goal_tags" }

// Models lists every record type for schema migration.
func Models() []any {
	return []any{&goalRecord{}, &milestoneRecord{}, &noteRecord{}, &tagRecord{}}
}

func newGoalRecord(g *domain.Goal) goalRecord {
	rec := goalRecord{
		ID:          g.ID,
		OwnerID:     g.OwnerID,
		Title:       g.Title,
		Description: g.Description,
		Category:    string(g.Category),
		Priority:    string(g.Priority),
		Status:      string(g.Status),
		TargetDate:  g.TargetDate,
		Progress:    g.Progress,
		CompletedAt: g.CompletedAt,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	rec.Milestones, rec.Notes, rec.Tags = childRecords(g)
	return rec
}

func childRecords(g *domain.Goal) ([]milestoneRecord, []noteRecord, []tagRecord) {
	milestones := make([]milestoneRecord, 0, len(g.Milestones))
	for i, m := range g.Milestones {
		milestones = append(milestones, milestoneRecord{
			ID:          m.ID,
			GoalID:      g.ID,
			Position:    i,
			Title:       m.Title,
			Description: m.Description,
			TargetDate:  m.TargetDate,
			Completed:   m.Completed,
			CompletedAt: m.CompletedAt,
		})
	}

	notes := make([]noteRecord, 0, len(g.Notes))
	for i, n := range g.Notes {
		notes = append(notes, noteRecord{
			ID:        n.ID,
			GoalID:    g.ID,
			Position:  i,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
		})
	}

	tags := make([]tagRecord, 0, len(g.Tags))
	for i, t := range g.Tags {
		tags = append(tags, tagRecord{GoalID: g.ID, Position: i, Value: t})
	}

	return milestones, notes, tags
}

func (r *goalRecord) toDomain() *domain.Goal {
	g := &domain.Goal{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Priority:    domain.Priority(r.Priority),
		Status:      domain.Status(r.Status),
		TargetDate:  r.TargetDate,
		Progress:    r.Progress,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Milestones:  make([]domain.Milestone, 0, len(r.Milestones)),
		Notes:       make([]domain.Note, 0, len(r.Notes)),
		Tags:        make([]string, 0, len(r.Tags)),
	}
	for _, m := range r.Milestones {
		g.Milestones = append(g.Milestones, domain.Milestone{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			TargetDate:  m.TargetDate,
			Completed:   m.Completed,
			CompletedAt: m.CompletedAt,
		})
	}
	for _, n := range r.Notes {
		g.Notes = append(g.Notes, domain.Note{ID: n.ID, Content: n.Content, CreatedAt: n.CreatedAt})
	}
	for _, t := range r.Tags {
		g.Tags = append(g.Tags, t.Value)
	}
	g.Normalize()
	return g
}
