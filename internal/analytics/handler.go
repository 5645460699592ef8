// Package analytics aggregates per-seminar and per-video figures for the admin dashboards.
package analytics

import (
	"context"
	"errors"
	"math"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// Handler handles GET /seminars/:id/analytics and GET /videos/:id/analytics.
type Handler struct {
	seminars      store.Seminars
	registrations store.Registrations
	refunds       store.Refunds
	videos        store.Videos
	sessions      store.WatchSessions
	logger        *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(s *store.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		seminars:      s.Seminars,
		registrations: s.Registrations,
		refunds:       s.Refunds,
		videos:        s.Videos,
		sessions:      s.WatchSessions,
		logger:        logger,
	}
}

// SeminarSummary is the JSON shape of seminar analytics.
type SeminarSummary struct {
	SeminarID          uuid.UUID      `json:"seminar_id"`
	Capacity           int            `json:"capacity"`
	TotalRegistrations int            `json:"total_registrations"`
	ActiveSeats        int            `json:"active_seats"`
	TotalAttended      int            `json:"total_attended"`
	TotalNoShow        int            `json:"total_no_show"`
	ByPlan             map[string]int `json:"by_plan"`
	PaidCount          int            `json:"paid_count"`
	RevenueCents       int            `json:"revenue_cents"`
	RefundedCents      int            `json:"refunded_cents"`
	ConversionRate     *float64       `json:"conversion_rate,omitempty"`
}

// VideoSummary is the JSON shape of video analytics.
type VideoSummary struct {
	VideoID            uuid.UUID `json:"video_id"`
	Views              int       `json:"views"`
	Viewers            int       `json:"viewers"`
	Completions        int       `json:"completions"`
	CompletionRate     float64   `json:"completion_rate"`
	AvgProgressPercent float64   `json:"avg_progress_percent"`
	AvgWatchSeconds    int64     `json:"avg_watch_seconds"`
	RatingAverage      float64   `json:"rating_average"`
	RatingCount        int       `json:"rating_count"`
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// SummarizeSeminar folds registrations and refunds into a summary.
func SummarizeSeminar(sem *models.Seminar, regs []models.SeminarRegistration, refunds []models.Refund) SeminarSummary {
	out := SeminarSummary{SeminarID: sem.ID, Capacity: sem.Capacity, TotalRegistrations: len(regs), ByPlan: map[string]int{}}
	for _, r := range regs {
		out.ByPlan[r.Plan]++
		switch r.PaymentStatus {
		case models.PaymentStatusFailed, models.PaymentStatusRefunded:
		default:
			out.ActiveSeats++
		}
		switch r.AttendanceStatus {
		case models.AttendanceAttended:
			out.TotalAttended++
		case models.AttendanceNoShow:
			out.TotalNoShow++
		}
		// refunded registrations were paid once; their refunds are subtracted below
		if r.PaymentStatus == models.PaymentStatusPaid || r.PaymentStatus == models.PaymentStatusRefunded {
			out.PaidCount++
			out.RevenueCents += r.AmountCents
		}
	}
	for _, rf := range refunds {
		out.RefundedCents += rf.AmountCents
	}
	out.RevenueCents -= out.RefundedCents
	if decided := out.TotalAttended + out.TotalNoShow; decided > 0 {
		conv := round2(float64(out.TotalAttended) / float64(decided))
		out.ConversionRate = &conv
	}
	return out
}

// SummarizeVideo folds watch sessions into a summary.
func SummarizeVideo(v *models.Video, sessions []models.WatchSession) VideoSummary {
	out := VideoSummary{
		VideoID:       v.ID,
		Views:         v.ViewCount,
		Viewers:       len(sessions),
		RatingAverage: v.RatingAverage,
		RatingCount:   v.RatingCount,
	}
	if len(sessions) == 0 {
		return out
	}
	var progress, watch float64
	for _, s := range sessions {
		if s.Completed {
			out.Completions++
		}
		progress += s.ProgressPercent
		watch += s.WatchTime
	}
	n := float64(len(sessions))
	out.CompletionRate = round2(float64(out.Completions) / n)
	out.AvgProgressPercent = round2(progress / n)
	out.AvgWatchSeconds = int64(watch / n)
	return out
}

func (h *Handler) registrationsOf(ctx context.Context, id uuid.UUID) ([]models.SeminarRegistration, []models.Refund, error) {
	regs, _, err := h.registrations.FindAll(ctx, store.RegistrationFilter{SeminarID: &id})
	if err != nil {
		return nil, nil, err
	}
	var refunds []models.Refund
	for _, r := range regs {
		if r.PaymentStatus != models.PaymentStatusRefunded {
			continue
		}
		regID := r.ID
		list, _, err := h.refunds.FindAll(ctx, store.RefundFilter{RegistrationID: &regID})
		if err != nil {
			return nil, nil, err
		}
		refunds = append(refunds, list...)
	}
	return regs, refunds, nil
}

// Seminar handles GET /seminars/:id/analytics (admin).
func (h *Handler) Seminar(c *gin.Context) {
	id, ok := request.ID(c, "seminar")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	sem, err := h.seminars.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "seminar not found")
		return
	}
	if err != nil {
		h.logger.Error("find seminar", zap.Error(err))
		response.Internal(c, "failed to load seminar")
		return
	}
	regs, refunds, err := h.registrationsOf(ctx, id)
	if err != nil {
		h.logger.Error("load seminar registrations", zap.String("seminar_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load registrations")
		return
	}
	response.OK(c, SummarizeSeminar(sem, regs, refunds))
}

// Video handles GET /videos/:id/analytics (admin).
func (h *Handler) Video(c *gin.Context) {
	id, ok := request.ID(c, "video")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	v, err := h.videos.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "video not found")
		return
	}
	if err != nil {
		h.logger.Error("find video", zap.Error(err))
		response.Internal(c, "failed to load video")
		return
	}
	sessions, _, err := h.sessions.FindAll(ctx, store.WatchFilter{VideoID: &id})
	if err != nil {
		h.logger.Error("load watch sessions", zap.String("video_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to load watch sessions")
		return
	}
	response.OK(c, SummarizeVideo(v, sessions))
}
