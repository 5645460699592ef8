package models

import (
	"time"

	"github.com/google/uuid"
)

// Video sources.
const (
	VideoSourceVimeo   = "vimeo"
	VideoSourceYouTube = "youtube"
)

// Video statuses.
const (
	VideoStatusDraft     = "draft"
	VideoStatusPublished = "published"
	VideoStatusArchived  = "archived"
)

// Video levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Video is a catalogue entry for a hosted lesson video.
type Video struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Source        string    `json:"source"`
	VimeoID       string    `json:"vimeo_id,omitempty"`
	VimeoURI      string    `json:"vimeo_uri,omitempty"`
	YouTubeID     string    `json:"youtube_id,omitempty"`
	EmbedURL      string    `json:"embed_url,omitempty"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	Duration      int       `json:"duration"` // seconds
	Department    string    `json:"department"`
	Level         string    `json:"level"`
	Category      string    `json:"category"`
	IsPremium     bool      `json:"is_premium"`
	IsFeatured    bool      `json:"is_featured"`
	IsPopular     bool      `json:"is_popular"`
	Tags          []string  `json:"tags"`
	Instructor    string    `json:"instructor"`
	Status        string    `json:"status"`
	ViewCount     int       `json:"view_count"`
	LikeCount     int       `json:"like_count"`
	RatingAverage float64   `json:"rating_average"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VideoRating is one user's 1-5 rating of a video.
type VideoRating struct {
	UserID    string    `json:"user_id"`
	VideoID   uuid.UUID `json:"video_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
