package models

import (
	"time"

	"github.com/google/uuid"
)

// Seminar statuses.
const (
	SeminarStatusScheduled = "scheduled"
	SeminarStatusLive      = "live"
	SeminarStatusCompleted = "completed"
	SeminarStatusCancelled = "cancelled"
)

// Zoom session kinds.
const (
	ZoomTypeMeeting = "meeting"
	ZoomTypeWebinar = "webinar"
)

// Registration plans.
const (
	PlanFree    = "free"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// ValidPlan reports whether plan is one of the registration plans.
func ValidPlan(plan string) bool {
	return plan == PlanFree || plan == PlanBasic || plan == PlanPremium
}

// Seminar is a scheduled live session hosted on Zoom.
type Seminar struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Department      string    `json:"department"`
	Instructor      string    `json:"instructor"`
	ZoomType        string    `json:"zoom_type"`
	ZoomMeetingID   string    `json:"zoom_meeting_id,omitempty"`
	ZoomJoinURL     string    `json:"zoom_join_url,omitempty"`
	ZoomStartURL    string    `json:"zoom_start_url,omitempty"`
	ZoomPassword    string    `json:"zoom_password,omitempty"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity"` // 0 = unlimited
	Status          string    `json:"status"`
	PriceFree       int       `json:"price_free"`
	PriceBasic      int       `json:"price_basic"`
	PricePremium    int       `json:"price_premium"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PriceFor returns the price in cents charged for a plan. The free plan never charges.
func (s *Seminar) PriceFor(plan string) int {
	switch plan {
	case PlanBasic:
		return s.PriceBasic
	case PlanPremium:
		return s.PricePremium
	default:
		return 0
	}
}

// Registration payment statuses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusFree     = "free"
	PaymentStatusRefunded = "refunded"
)

// Registration attendance statuses.
const (
	AttendanceRegistered = "registered"
	AttendanceAttended   = "attended"
	AttendanceNoShow     = "no_show"
)

// SeminarRegistration links a user to a seminar.
type SeminarRegistration struct {
	ID               uuid.UUID `json:"id"`
	SeminarID        uuid.UUID `json:"seminar_id"`
	UserID           string    `json:"user_id"`
	UserEmail        string    `json:"user_email,omitempty"`
	Plan             string    `json:"plan"`
	AmountCents      int       `json:"amount_cents"`
	Currency         string    `json:"currency"`
	PaymentStatus    string    `json:"payment_status"`
	PaymentIntentID  string    `json:"payment_intent_id,omitempty"`
	AttendanceStatus string    `json:"attendance_status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
