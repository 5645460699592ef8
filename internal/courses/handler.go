// Package courses serves the admin course catalogue, the public list of upcoming live courses
// and the discount rules used to price courses.
package courses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// CourseRequest is the body for POST /admin/courses.
type CourseRequest struct {
	Title       string      `json:"title" binding:"required,max=200"`
	Description string      `json:"description" binding:"max=5000"`
	Department  string      `json:"department" binding:"max=100"`
	Level       string      `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Instructor  string      `json:"instructor" binding:"max=200"`
	Format      string      `json:"format" binding:"required,oneof=video live"`
	Status      string      `json:"status" binding:"omitempty,oneof=draft published archived"`
	PriceCents  int         `json:"price_cents" binding:"min=0"`
	Currency    string      `json:"currency" binding:"omitempty,len=3"`
	VideoIDs    []uuid.UUID `json:"video_ids" binding:"max=200"`
	SeminarID   *uuid.UUID  `json:"seminar_id"`
	StartsAt    *time.Time  `json:"starts_at"`
}

// CourseUpdate is the body for PATCH /admin/courses/:id. Absent fields are left unchanged.
type CourseUpdate struct {
	Title       *string      `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string      `json:"description" binding:"omitempty,max=5000"`
	Department  *string      `json:"department" binding:"omitempty,max=100"`
	Level       *string      `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Instructor  *string      `json:"instructor" binding:"omitempty,max=200"`
	Format      *string      `json:"format" binding:"omitempty,oneof=video live"`
	Status      *string      `json:"status" binding:"omitempty,oneof=draft published archived"`
	PriceCents  *int         `json:"price_cents" binding:"omitempty,min=0"`
	Currency    *string      `json:"currency" binding:"omitempty,len=3"`
	VideoIDs    *[]uuid.UUID `json:"video_ids" binding:"omitempty,max=200"`
	SeminarID   *uuid.UUID   `json:"seminar_id"`
	StartsAt    *time.Time   `json:"starts_at"`
}

// Handler serves course and discount rule endpoints.
type Handler struct {
	courses   store.Courses
	discounts store.DiscountRules
	videos    store.Videos
	seminars  store.Seminars
	currency  string
	now       func() time.Time
	logger    *zap.Logger
}

// NewHandler creates a course handler. currency is the default for new courses.
func NewHandler(courses store.Courses, discounts store.DiscountRules, videos store.Videos, seminars store.Seminars,
	currency string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if currency == "" {
		currency = "usd"
	}
	return &Handler{
		courses:   courses,
		discounts: discounts,
		videos:    videos,
		seminars:  seminars,
		currency:  strings.ToLower(currency),
		now:       time.Now,
		logger:    logger,
	}
}

var errReference = errors.New("unknown reference")

// checkRefs verifies referenced videos and the seminar exist. A live course linked to a
// seminar without its own start time takes the seminar's.
func (h *Handler) checkRefs(ctx context.Context, c *models.Course) error {
	for _, id := range c.VideoIDs {
		if _, err := h.videos.FindByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("%w: video %s", errReference, id)
			}
			return err
		}
	}
	if c.SeminarID == nil {
		return nil
	}
	sem, err := h.seminars.FindByID(ctx, *c.SeminarID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: seminar %s", errReference, c.SeminarID)
	}
	if err != nil {
		return err
	}
	if c.StartsAt == nil {
		at := sem.ScheduledAt
		c.StartsAt = &at
	}
	return nil
}

func (h *Handler) saveFailed(c *gin.Context, err error) {
	if errors.Is(err, errReference) {
		response.UnprocessableEntity(c, err.Error())
		return
	}
	h.logger.Error("save course", zap.Error(err))
	response.Internal(c, "failed to save course")
}

func (h *Handler) load(c *gin.Context) (*models.Course, bool) {
	id, ok := request.ID(c, "course")
	if !ok {
		return nil, false
	}
	course, err := h.courses.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "course not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("find course", zap.Error(err))
		response.Internal(c, "failed to load course")
		return nil, false
	}
	return course, true
}

// List handles GET /admin/courses.
func (h *Handler) List(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	h.list(c, store.CourseFilter{
		Status:     c.Query("status"),
		Format:     c.Query("format"),
		Department: c.Query("department"),
		Level:      c.Query("level"),
		ListParams: p,
	})
}

// Live handles GET /courses/live: published live courses, soonest first.
func (h *Handler) Live(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	p.Sort, p.Order = "starts_at", query.OrderAsc
	h.list(c, store.CourseFilter{
		Status:     models.CourseStatusPublished,
		Format:     models.CourseFormatLive,
		Department: c.Query("department"),
		ListParams: p,
	})
}

func (h *Handler) list(c *gin.Context, f store.CourseFilter) {
	items, total, err := h.courses.FindAll(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list courses", zap.Error(err))
		response.Internal(c, "failed to list courses")
		return
	}
	response.OK(c, query.NewPage(items, total, f.ListParams))
}

// Get handles GET /admin/courses/:id.
func (h *Handler) Get(c *gin.Context) {
	course, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, course)
}

// Create handles POST /admin/courses.
func (h *Handler) Create(c *gin.Context) {
	var req CourseRequest
	if !request.JSON(c, &req) {
		return
	}
	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Department:  req.Department,
		Level:       req.Level,
		Instructor:  req.Instructor,
		Format:      req.Format,
		Status:      req.Status,
		PriceCents:  req.PriceCents,
		Currency:    strings.ToLower(req.Currency),
		VideoIDs:    req.VideoIDs,
		SeminarID:   req.SeminarID,
		StartsAt:    req.StartsAt,
	}
	if course.Status == "" {
		course.Status = models.CourseStatusDraft
	}
	if course.Currency == "" {
		course.Currency = h.currency
	}
	if course.VideoIDs == nil {
		course.VideoIDs = []uuid.UUID{}
	}
	ctx := c.Request.Context()
	if err := h.checkRefs(ctx, course); err != nil {
		h.saveFailed(c, err)
		return
	}
	if err := h.courses.Create(ctx, course); err != nil {
		h.saveFailed(c, err)
		return
	}
	h.logger.Info("course created",
		zap.String("course_id", course.ID.String()),
		zap.String("by", middleware.IdentityFrom(c).UserID),
	)
	response.Created(c, course)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Update handles PATCH /admin/courses/:id.
func (h *Handler) Update(c *gin.Context) {
	course, ok := h.load(c)
	if !ok {
		return
	}
	var req CourseUpdate
	if !request.JSON(c, &req) {
		return
	}
	setIf(&course.Title, req.Title)
	setIf(&course.Description, req.Description)
	setIf(&course.Department, req.Department)
	setIf(&course.Level, req.Level)
	setIf(&course.Instructor, req.Instructor)
	setIf(&course.Format, req.Format)
	setIf(&course.Status, req.Status)
	setIf(&course.PriceCents, req.PriceCents)
	setIf(&course.VideoIDs, req.VideoIDs)
	if req.Currency != nil {
		course.Currency = strings.ToLower(*req.Currency)
	}
	if req.SeminarID != nil {
		course.SeminarID = req.SeminarID
	}
	if req.StartsAt != nil {
		course.StartsAt = req.StartsAt
	}
	ctx := c.Request.Context()
	if err := h.checkRefs(ctx, course); err != nil {
		h.saveFailed(c, err)
		return
	}
	if err := h.courses.Update(ctx, course); err != nil {
		h.saveFailed(c, err)
		return
	}
	response.OK(c, course)
}

// Delete handles DELETE /admin/courses/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := request.ID(c, "course")
	if !ok {
		return
	}
	err := h.courses.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "course not found")
		return
	}
	if err != nil {
		h.logger.Error("delete course", zap.Error(err))
		response.Internal(c, "failed to delete course")
		return
	}
	response.NoContent(c)
}

// Price handles GET /courses/:id/price. Only published courses are priced for non-admins.
func (h *Handler) Price(c *gin.Context) {
	course, ok := h.load(c)
	if !ok {
		return
	}
	if caller := middleware.IdentityFrom(c); course.Status != models.CourseStatusPublished && (caller == nil || !caller.IsAdmin()) {
		response.NotFound(c, "course not found")
		return
	}
	rules, _, err := h.discounts.FindAll(c.Request.Context(), store.DiscountFilter{ActiveOnly: true})
	if err != nil {
		h.logger.Error("list discount rules", zap.Error(err))
		response.Internal(c, "failed to price course")
		return
	}
	response.OK(c, Price(rules, course, h.now()))
}
