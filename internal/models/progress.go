package models

import (
	"time"

	"github.com/google/uuid"
)

// CompletionThreshold is the progress percent at which a video counts as watched.
const CompletionThreshold = 90.0

// WatchSession tracks one user's playback progress on one video.
type WatchSession struct {
	ID              uuid.UUID  `json:"id"`
	UserID          string     `json:"user_id"`
	VideoID         uuid.UUID  `json:"video_id"`
	ProgressPercent float64    `json:"progress_percent"`
	LastPosition    float64    `json:"last_position"` // seconds
	WatchTime       float64    `json:"watch_time"`    // seconds
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	SessionStart    time.Time  `json:"session_start"`
	SessionEnd      *time.Time `json:"session_end,omitempty"`
	DeviceType      string     `json:"device_type,omitempty"`
	UserAgent       string     `json:"user_agent,omitempty"`
	IPAddress       string     `json:"ip_address,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
