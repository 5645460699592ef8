package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Activity actions.
const (
	ActivityVideoStarted      = "video_started"
	ActivityVideoCompleted    = "video_completed"
	ActivityVideoRated        = "video_rated"
	ActivitySeminarRegistered = "seminar_registered"
	ActivityRefundIssued      = "refund_issued"
)

// UserActivity is one entry in a user's activity log.
type UserActivity struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"user_id"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
