package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var courseSorters = map[string]query.Less[models.Course]{
	"created_at": func(a, b models.Course) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"title":      func(a, b models.Course) bool { return a.Title < b.Title },
	"price":      func(a, b models.Course) bool { return a.PriceCents < b.PriceCents },
	"starts_at": func(a, b models.Course) bool {
		return startsAt(a).Before(startsAt(b))
	},
}

func startsAt(c models.Course) time.Time {
	if c.StartsAt == nil {
		return time.Time{}
	}
	return *c.StartsAt
}

func cloneCourse(c models.Course) models.Course {
	if c.VideoIDs != nil {
		c.VideoIDs = slices.Clone(c.VideoIDs)
	}
	c.SeminarID = cloneUUID(c.SeminarID)
	c.StartsAt = cloneTime(c.StartsAt)
	return c
}

// Courses is the in-memory course repository.
type Courses struct {
	t *table[models.Course]
}

// NewCourses creates an empty course repository.
func NewCourses() *Courses {
	return &Courses{t: newTable(cloneCourse)}
}

// Create stores c, assigning id and timestamps on c.
func (r *Courses) Create(_ context.Context, c *models.Course) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	assignID(&c.ID)
	if _, ok := r.t.rows[c.ID]; ok {
		return store.ErrConflict
	}
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	r.t.rows[c.ID] = cloneCourse(*c)
	return nil
}

// FindByID returns a copy of the course.
func (r *Courses) FindByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	c, ok := r.t.get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

// FindAll filters, sorts and pages courses.
func (r *Courses) FindAll(_ context.Context, f store.CourseFilter) ([]models.Course, int, error) {
	list, total := query.New[models.Course]().
		Where(func(c models.Course) bool {
			return query.EqualFold(f.Status, c.Status) &&
				query.EqualFold(f.Format, c.Format) &&
				query.EqualFold(f.Department, c.Department) &&
				query.EqualFold(f.Level, c.Level)
		}).
		Search(f.Search, func(c models.Course) []string {
			return []string{c.Title, c.Description, c.Instructor}
		}).
		Sort(f.ListParams, courseSorters, "created_at").
		ThenBy(func(a, b models.Course) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}

// Update replaces the stored course, keeping its creation time.
func (r *Courses) Update(_ context.Context, c *models.Course) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	old, ok := r.t.rows[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = now()
	r.t.rows[c.ID] = cloneCourse(*c)
	return nil
}

// Delete removes a course.
func (r *Courses) Delete(_ context.Context, id uuid.UUID) error {
	if !r.t.del(id) {
		return store.ErrNotFound
	}
	return nil
}
