package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/goal-tracker/internal/domain"
	"github.com/Tomlord1122/goal-tracker/internal/query"
)

// gormGoalRepository implements GoalRepository using GORM
type gormGoalRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormGoalRepository creates a new GORM goal repository
func NewGormGoalRepository(db *gorm.DB) GoalRepository {
	return &gormGoalRepository{db: db, now: time.Now}
}

func (r *gormGoalRepository) Backend() string {
	return r.db.Dialector.Name()
}

func (r *gormGoalRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageErr("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}

// withChildren preloads milestones, notes and tags in their stored order.
func withChildren(db *gorm.DB) *gorm.DB {
	byPosition := func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }
	return db.
		Preload("Milestones", byPosition).
		Preload("Notes", byPosition).
		Preload("Tags", byPosition)
}

// forUpdate takes a row lock. SQLite serializes writers at the database level
// and has no row locks.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Create adds a new goal together with its children
func (r *gormGoalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = r.now()
	}
	goal.UpdatedAt = goal.CreatedAt
	ensureChildIDs(goal)
	goal.Normalize()

	rec := newGoalRecord(goal)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return storageErr("create goal", err)
	}
	return nil
}

// FindByID retrieves a goal by its ID, scoped to the owner
func (r *gormGoalRepository) FindByID(ctx context.Context, ownerID, id string) (*domain.Goal, error) {
	var rec goalRecord
	err := r.db.WithContext(ctx).
		Scopes(withChildren).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, storageErr("find goal", err)
	}
	return rec.toDomain(), nil
}

func (r *gormGoalRepository) AllByOwner(ctx context.Context, ownerID string) ([]domain.Goal, error) {
	var recs []goalRecord
	err := r.db.WithContext(ctx).
		Scopes(withChildren).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, storageErr("list goals", err)
	}
	return toDomainSlice(recs), nil
}

// ListByOwner pushes the equality predicates, ordering, COUNT and paging into
// SQL. The search term is matched with query.Filter.Match over the owner's
// narrowed rows, because LOWER and LIKE fold case and accents differently on
// every dialect.
func (r *gormGoalRepository) ListByOwner(ctx context.Context, ownerID string, filter query.Filter, page query.Page) (query.Result, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&goalRecord{}).Where("owner_id = ?", ownerID)

	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.Category != nil {
		q = q.Where("category = ?", string(*filter.Category))
	}
	if filter.Priority != nil {
		q = q.Where("priority = ?", string(*filter.Priority))
	}
	q = q.Session(&gorm.Session{})

	if filter.SearchTerm() != "" {
		ids, err := searchIDs(q, filter)
		if err != nil {
			return query.Result{}, storageErr("search goals", err)
		}
		if len(ids) == 0 {
			return query.Result{Items: []domain.Goal{}, Page: page.Number}, nil
		}
		q = q.Where("id IN ?", ids).Session(&gorm.Session{})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return query.Result{}, storageErr("count goals", err)
	}

	var recs []goalRecord
	err := q.Scopes(withChildren).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recs).Error
	if err != nil {
		return query.Result{}, storageErr("list goals", err)
	}

	return query.Result{
		Items: toDomainSlice(recs),
		Total: int(total),
		Page:  page.Number,
		Pages: query.Pages(int(total), page.Limit),
	}, nil
}

// searchIDs loads only the searchable columns of the rows selected by q and
// returns the ids whose title, description or tags contain the search term.
func searchIDs(q *gorm.DB, filter query.Filter) ([]string, error) {
	var recs []goalRecord
	err := q.Select("id", "title", "description").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	search := query.Filter{Search: filter.Search}
	ids := make([]string, 0, len(recs))
	for i := range recs {
		g := domain.Goal{Title: recs[i].Title, Description: recs[i].Description}
		for _, t := range recs[i].Tags {
			g.Tags = append(g.Tags, t.Value)
		}
		if search.Match(&g) {
			ids = append(ids, recs[i].ID)
		}
	}
	return ids, nil
}

// Mutate locks the goal row, applies fn and rewrites the goal and its children
// inside one transaction.
func (r *gormGoalRepository) Mutate(ctx context.Context, ownerID, id string, fn MutateFunc) (*domain.Goal, error) {
	var (
		result *domain.Goal
		fnErr  error
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec goalRecord
		err := tx.Scopes(forUpdate, withChildren).
			Where("id = ? AND owner_id = ?", id, ownerID).
			Take(&rec).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fnErr = domain.ErrGoalNotFound
				return fnErr
			}
			return err
		}

		goal := rec.toDomain()
		if fnErr = fn(goal); fnErr != nil {
			return fnErr
		}

		goal.ID = rec.ID
		goal.OwnerID = rec.OwnerID
		goal.CreatedAt = rec.CreatedAt
		goal.UpdatedAt = r.now()
		ensureChildIDs(goal)
		goal.Normalize()

		updated := newGoalRecord(goal)
		if err := tx.Omit(clause.Associations).Save(&updated).Error; err != nil {
			return err
		}
		if err := replaceChildren(tx, &updated); err != nil {
			return err
		}

		result = updated.toDomain()
		return nil
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, storageErr("update goal", err)
	}
	return result, nil
}

func replaceChildren(tx *gorm.DB, rec *goalRecord) error {
	if err := deleteChildren(tx, rec.ID); err != nil {
		return err
	}
	if len(rec.Milestones) > 0 {
		if err := tx.Create(&rec.Milestones).Error; err != nil {
			return err
		}
	}
	if len(rec.Notes) > 0 {
		if err := tx.Create(&rec.Notes).Error; err != nil {
			return err
		}
	}
	if len(rec.Tags) > 0 {
		if err := tx.Create(&rec.Tags).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteChildren(tx *gorm.DB, goalID string) error {
	for _, model := range []any{&milestoneRecord{}, &noteRecord{}, &tagRecord{}} {
		if err := tx.Where("goal_id = ?", goalID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete permanently removes a goal and its children
func (r *gormGoalRepository) Delete(ctx context.Context, ownerID, id string) error {
	notFound := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec goalRecord
		err := tx.Scopes(forUpdate).
			Select("id").
			Where("id = ? AND owner_id = ?", id, ownerID).
			Take(&rec).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				notFound = true
			}
			return err
		}
		if err := deleteChildren(tx, id); err != nil {
			return err
		}
		return tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&goalRecord{}).Error
	})
	if notFound {
		return domain.ErrGoalNotFound
	}
	if err != nil {
		return storageErr("delete goal", err)
	}
	return nil
}

func toDomainSlice(recs []goalRecord) []domain.Goal {
	goals := make([]domain.Goal, 0, len(recs))
	for i := range recs {
		goals = append(goals, *recs[i].toDomain())
	}
	return goals
}

// ensureChildIDs assigns IDs to milestones and notes added without one.
func ensureChildIDs(g *domain.Goal) {
	for i := range g.Milestones {
		if g.Milestones[i].ID == "" {
			g.Milestones[i].ID = uuid.NewString()
		}
	}
	for i := range g.Notes {
		if g.Notes[i].ID == "" {
			g.Notes[i].ID = uuid.NewString()
		}
	}
}
