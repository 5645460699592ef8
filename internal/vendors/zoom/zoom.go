// Package zoom provisions seminar meetings and webinars through Zoom's server-to-server OAuth API.
package zoom

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
)

// MeetingRequest describes a meeting or webinar to schedule.
type MeetingRequest struct {
	Topic           string
	Agenda          string
	StartTime       time.Time
	DurationMinutes int
	Timezone        string
}

// Meeting is a scheduled Zoom meeting or webinar.
type Meeting struct {
	ID       string `json:"id"`
	JoinURL  string `json:"join_url"`
	StartURL string `json:"start_url"`
	Password string `json:"password"`
}

// Client is the Zoom surface used by seminars.
type Client interface {
	Mode() string
	CreateMeeting(ctx context.Context, req MeetingRequest) (*Meeting, error)
	CreateWebinar(ctx context.Context, req MeetingRequest) (*Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
	DeleteWebinar(ctx context.Context, id string) error
}

// New returns the live client when account credentials are configured, the mock otherwise.
func New(cfg config.ZoomConfig, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Configured() {
		logger.Warn("Zoom credentials not set, using mock client")
		return NewMock()
	}
	logger.Info("Zoom client in live mode", zap.String("timezone", cfg.Timezone))
	return NewLive(cfg, logger)
}

var (
	_ Client = (*Live)(nil)
	_ Client = (*Mock)(nil)
)
