// Package vimeo wraps the Vimeo API used for lesson video hosting. New picks the live client when
// an access token is configured and the in-memory mock otherwise.
package vimeo

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
)

// Normalised video states.
const (
	StatusAvailable   = "available"
	StatusTranscoding = "transcoding"
	StatusUploading   = "uploading"
	StatusError       = "error"
)

// Upload is a freshly created upload slot.
type Upload struct {
	VideoID    string `json:"video_id"`
	URI        string `json:"uri"`
	UploadLink string `json:"upload_link"`
	Ticket     string `json:"ticket"`
	Approach   string `json:"approach"`
}

// VideoMeta is the subset of Vimeo video metadata the platform uses.
type VideoMeta struct {
	ID           string   `json:"id"`
	URI          string   `json:"uri"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Duration     int      `json:"duration"`
	Status       string   `json:"status"`
	Link         string   `json:"link"`
	EmbedURL     string   `json:"embed_url"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Tags         []string `json:"tags"`
}

// Client is the Vimeo surface used by uploads and the video catalogue.
type Client interface {
	Mode() string
	CreateUpload(ctx context.Context, name string, size int64) (*Upload, error)
	GetVideo(ctx context.Context, id string) (*VideoMeta, error)
	UpdateVideo(ctx context.Context, id, title, description string) error
	DeleteVideo(ctx context.Context, id string) error
}

// New returns the live client when cfg carries an access token, the mock otherwise.
func New(cfg config.VimeoConfig, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Configured() {
		logger.Warn("Vimeo credentials not set, using mock client")
		return NewMock()
	}
	logger.Info("Vimeo client in live mode", zap.Int("requests_per_sec", cfg.RequestsPerSecond))
	return NewLive(cfg, logger)
}

// IDFromURI returns the numeric id of a "/videos/{id}" URI.
func IDFromURI(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}

// normaliseStatus folds Vimeo's status and transcode state into the four platform states.
func normaliseStatus(status, transcode string) string {
	switch status {
	case "available":
		if transcode == "" || transcode == "complete" {
			return StatusAvailable
		}
		if transcode == "error" {
			return StatusError
		}
		return StatusTranscoding
	case "uploading":
		return StatusUploading
	case "transcoding", "transcode_starting":
		return StatusTranscoding
	case "uploading_error", "transcoding_error", "quota_exceeded", "total_cap_exceeded":
		return StatusError
	default:
		return StatusTranscoding
	}
}

var (
	_ Client = (*Live)(nil)
	_ Client = (*Mock)(nil)
)
