package models

import (
	"time"

	"github.com/google/uuid"
)

// Upload task statuses.
const (
	UploadStatusPending    = "PENDING"
	UploadStatusUploading  = "UPLOADING"
	UploadStatusProcessing = "PROCESSING"
	UploadStatusCompleted  = "COMPLETED"
	UploadStatusFailed     = "FAILED"
)

// UploadTask tracks a video upload from the client to Vimeo-hosted availability.
type UploadTask struct {
	ID             uuid.UUID  `json:"id"`
	UserID         string     `json:"user_id"`
	Filename       string     `json:"filename"`
	FileSize       int64      `json:"file_size"`
	MimeType       string     `json:"mime_type"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Department     string     `json:"department"`
	Level          string     `json:"level"`
	Category       string     `json:"category"`
	VimeoUploadURL string     `json:"vimeo_upload_url,omitempty"`
	VimeoURI       string     `json:"vimeo_uri,omitempty"`
	VimeoTicket    string     `json:"vimeo_ticket,omitempty"`
	VideoID        *uuid.UUID `json:"video_id,omitempty"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	PollCount      int        `json:"poll_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
