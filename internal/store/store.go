// Package store defines the persistence interfaces of the platform. Two backends implement
// them: store/memory for local development and tests, store/postgres for production.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("store: conflict")
)

// VideoFilter narrows Videos.FindAll. Zero values mean "any".
type VideoFilter struct {
	Status     string
	Department string
	Level      string
	Category   string
	Instructor string
	Tag        string
	VimeoID    string
	Premium    *bool
	Featured   *bool
	Popular    *bool
	query.ListParams
}

// Videos persists video records.
type Videos interface {
	Create(ctx context.Context, v *models.Video) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Video, error)
	FindAll(ctx context.Context, f VideoFilter) ([]models.Video, int, error)
	Update(ctx context.Context, v *models.Video) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	SetRating(ctx context.Context, id uuid.UUID, average float64, count int) error
}

// SeminarFilter narrows Seminars.FindAll.
type SeminarFilter struct {
	Status     string
	Department string
	Instructor string
	From       *time.Time
	To         *time.Time
	query.ListParams
}

// Seminars persists seminar records.
type Seminars interface {
	Create(ctx context.Context, s *models.Seminar) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Seminar, error)
	FindAll(ctx context.Context, f SeminarFilter) ([]models.Seminar, int, error)
	Update(ctx context.Context, s *models.Seminar) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegistrationFilter narrows Registrations.FindAll.
type RegistrationFilter struct {
	SeminarID        *uuid.UUID
	UserID           string
	PaymentStatus    string
	AttendanceStatus string
	query.ListParams
}

// Registrations persists seminar registrations, unique per (user, seminar).
type Registrations interface {
	Create(ctx context.Context, r *models.SeminarRegistration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SeminarRegistration, error)
	FindByUserAndSeminar(ctx context.Context, userID string, seminarID uuid.UUID) (*models.SeminarRegistration, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.SeminarRegistration, error)
	FindAll(ctx context.Context, f RegistrationFilter) ([]models.SeminarRegistration, int, error)
	Update(ctx context.Context, r *models.SeminarRegistration) error
	// CountActive counts registrations of a seminar whose payment has not failed.
	CountActive(ctx context.Context, seminarID uuid.UUID) (int, error)
	// MarkNoShow moves every still-registered attendee of a seminar to no_show.
	MarkNoShow(ctx context.Context, seminarID uuid.UUID) (int, error)
}

// WatchFilter narrows WatchSessions.FindAll.
type WatchFilter struct {
	UserID    string
	VideoID   *uuid.UUID
	Completed *bool
	query.ListParams
}

// WatchSessions persists playback progress, unique per (user, video).
type WatchSessions interface {
	FindByUserAndVideo(ctx context.Context, userID string, videoID uuid.UUID) (*models.WatchSession, error)
	// Upsert inserts or replaces the session for (UserID, VideoID); ID and timestamps are set on s.
	Upsert(ctx context.Context, s *models.WatchSession) error
	FindAll(ctx context.Context, f WatchFilter) ([]models.WatchSession, int, error)
}

// ActivityFilter narrows Activities.FindAll.
type ActivityFilter struct {
	UserID string
	Action string
	query.ListParams
}

// Activities persists the user activity log.
type Activities interface {
	Create(ctx context.Context, a *models.UserActivity) error
	FindAll(ctx context.Context, f ActivityFilter) ([]models.UserActivity, int, error)
}

// UploadFilter narrows UploadTasks.FindAll.
type UploadFilter struct {
	UserID string
	Status string
	query.ListParams
}

// UploadTasks persists upload tasks.
type UploadTasks interface {
	Create(ctx context.Context, t *models.UploadTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.UploadTask, error)
	FindAll(ctx context.Context, f UploadFilter) ([]models.UploadTask, int, error)
	Update(ctx context.Context, t *models.UploadTask) error
}

// CourseFilter narrows Courses.FindAll.
type CourseFilter struct {
	Status     string
	Format     string
	Department string
	Level      string
	query.ListParams
}

// Courses persists courses.
type Courses interface {
	Create(ctx context.Context, c *models.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
	FindAll(ctx context.Context, f CourseFilter) ([]models.Course, int, error)
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DiscountFilter narrows DiscountRules.FindAll.
type DiscountFilter struct {
	ActiveOnly bool
	query.ListParams
}

// DiscountRules persists discount rules.
type DiscountRules interface {
	Create(ctx context.Context, r *models.DiscountRule) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error)
	FindAll(ctx context.Context, f DiscountFilter) ([]models.DiscountRule, int, error)
	Update(ctx context.Context, r *models.DiscountRule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Departments persists departments, unique by slug.
type Departments interface {
	Create(ctx context.Context, d *models.Department) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Department, error)
	FindAll(ctx context.Context, p query.ListParams) ([]models.Department, int, error)
	Update(ctx context.Context, d *models.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Ratings persists video ratings, unique per (user, video).
type Ratings interface {
	Upsert(ctx context.Context, r *models.VideoRating) error
	// Stats returns the average rating and number of ratings of a video.
	Stats(ctx context.Context, videoID uuid.UUID) (float64, int, error)
}

// RefundFilter narrows Refunds.FindAll.
type RefundFilter struct {
	RegistrationID *uuid.UUID
	query.ListParams
}

// Refunds persists issued refunds.
type Refunds interface {
	Create(ctx context.Context, r *models.Refund) error
	FindAll(ctx context.Context, f RefundFilter) ([]models.Refund, int, error)
}

// Store bundles every repository of one backend.
type Store struct {
	Driver        string
	Videos        Videos
	Seminars      Seminars
	Registrations Registrations
	WatchSessions WatchSessions
	Activities    Activities
	UploadTasks   UploadTasks
	Courses       Courses
	DiscountRules DiscountRules
	Departments   Departments
	Ratings       Ratings
	Refunds       Refunds
}
