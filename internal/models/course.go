package models

import (
	"time"

	"github.com/google/uuid"
)

// Course formats.
const (
	CourseFormatVideo = "video"
	CourseFormatLive  = "live"
)

// Course statuses share the video status values.
const (
	CourseStatusDraft     = VideoStatusDraft
	CourseStatusPublished = VideoStatusPublished
	CourseStatusArchived  = VideoStatusArchived
)

// Course groups videos or a live seminar into a sellable unit.
type Course struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Department  string      `json:"department"`
	Level       string      `json:"level"`
	Instructor  string      `json:"instructor"`
	Format      string      `json:"format"`
	Status      string      `json:"status"`
	PriceCents  int         `json:"price_cents"`
	Currency    string      `json:"currency"`
	VideoIDs    []uuid.UUID `json:"video_ids"`
	SeminarID   *uuid.UUID  `json:"seminar_id,omitempty"`
	StartsAt    *time.Time  `json:"starts_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Discount kinds.
const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

// DiscountRule is a price reduction applied to matching courses.
type DiscountRule struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Kind          string     `json:"kind"`
	Value         int        `json:"value"` // percent points or cents
	Department    string     `json:"department,omitempty"`
	CourseID      *uuid.UUID `json:"course_id,omitempty"`
	MinPriceCents int        `json:"min_price_cents"`
	Active        bool       `json:"active"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Department groups courses, videos and seminars.
type Department struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
