// Package videos serves the lesson video catalogue: browsing, admin management, Vimeo
// metadata sync, playback links, ratings and thumbnails.
package videos

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/vendors"
	"github.com/aura-academy/backend/internal/vendors/vimeo"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// ThumbnailStore keeps thumbnail images; implemented by storage.S3.
type ThumbnailStore interface {
	UploadThumbnail(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	DeleteThumbnail(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
	PublicObjectURL(key string) string
	PresignThumbnailUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
}

// CreateRequest is the body for POST /videos.
type CreateRequest struct {
	Title        string   `json:"title" binding:"required,max=200"`
	Description  string   `json:"description" binding:"max=5000"`
	VideoURL     string   `json:"video_url" binding:"required,videourl"`
	ThumbnailURL string   `json:"thumbnail_url" binding:"omitempty,url"`
	Duration     int      `json:"duration" binding:"min=0"`
	Department   string   `json:"department" binding:"max=100"`
	Level        string   `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Category     string   `json:"category" binding:"max=100"`
	Instructor   string   `json:"instructor" binding:"max=200"`
	IsPremium    bool     `json:"is_premium"`
	IsFeatured   bool     `json:"is_featured"`
	IsPopular    bool     `json:"is_popular"`
	Tags         []string `json:"tags" binding:"max=20,dive,max=40"`
	Status       string   `json:"status" binding:"omitempty,oneof=draft published archived"`
}

// UpdateRequest is the body for PATCH /videos/:id. Absent fields are left unchanged.
type UpdateRequest struct {
	Title        *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description  *string   `json:"description" binding:"omitempty,max=5000"`
	VideoURL     *string   `json:"video_url" binding:"omitempty,videourl"`
	ThumbnailURL *string   `json:"thumbnail_url" binding:"omitempty,url"`
	Duration     *int      `json:"duration" binding:"omitempty,min=0"`
	Department   *string   `json:"department" binding:"omitempty,max=100"`
	Level        *string   `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Category     *string   `json:"category" binding:"omitempty,max=100"`
	Instructor   *string   `json:"instructor" binding:"omitempty,max=200"`
	IsPremium    *bool     `json:"is_premium"`
	IsFeatured   *bool     `json:"is_featured"`
	IsPopular    *bool     `json:"is_popular"`
	Tags         *[]string `json:"tags" binding:"omitempty,max=20,dive,max=40"`
	Status       *string   `json:"status" binding:"omitempty,oneof=draft published archived"`
}

// Playback is the response of GET /videos/:id/playback.
type Playback struct {
	VideoID  uuid.UUID `json:"video_id"`
	Source   string    `json:"source"`
	EmbedURL string    `json:"embed_url"`
	Duration int       `json:"duration"`
}

// Handler serves video endpoints.
type Handler struct {
	videos     store.Videos
	ratings    store.Ratings
	vimeo      vimeo.Client
	thumbnails ThumbnailStore
	activity   activity.Recorder
	logger     *zap.Logger
}

// NewHandler creates a video handler. thumbnails may be nil when S3 is not configured.
func NewHandler(videos store.Videos, ratings store.Ratings, vc vimeo.Client, thumbnails ThumbnailStore,
	rec activity.Recorder, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{videos: videos, ratings: ratings, vimeo: vc, thumbnails: thumbnails, activity: rec, logger: logger}
}

// load fetches the :id video. Unpublished videos are hidden from non-admins.
func (h *Handler) load(c *gin.Context) (*models.Video, bool) {
	id, ok := request.ID(c, "video")
	if !ok {
		return nil, false
	}
	v, err := h.videos.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "video not found")
		return nil, false
	}
	if err != nil {
		h.logger.Error("find video", zap.Error(err))
		response.Internal(c, "failed to load video")
		return nil, false
	}
	if caller := middleware.IdentityFrom(c); v.Status != models.VideoStatusPublished && (caller == nil || !caller.IsAdmin()) {
		response.NotFound(c, "video not found")
		return nil, false
	}
	return v, true
}

// List handles GET /videos. Non-admins only see published videos.
func (h *Handler) List(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	f := store.VideoFilter{
		Status:     c.Query("status"),
		Department: c.Query("department"),
		Level:      c.Query("level"),
		Category:   c.Query("category"),
		Instructor: c.Query("instructor"),
		Tag:        c.Query("tag"),
		ListParams: p,
	}
	for key, dst := range map[string]**bool{"is_premium": &f.Premium, "is_featured": &f.Featured, "is_popular": &f.Popular} {
		b, ok := request.Bool(c, key)
		if !ok {
			return
		}
		*dst = b
	}
	if caller := middleware.IdentityFrom(c); caller == nil || !caller.IsAdmin() {
		f.Status = models.VideoStatusPublished
	}
	items, total, err := h.videos.FindAll(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list videos", zap.Error(err))
		response.Internal(c, "failed to list videos")
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}

// Get handles GET /videos/:id.
func (h *Handler) Get(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	response.OK(c, v)
}

func applySource(v *models.Video, rawURL string) {
	source, id, _ := vimeo.ParseVideoURL(rawURL)
	v.Source = source
	v.VimeoID, v.VimeoURI, v.YouTubeID = "", "", ""
	if source == vimeo.SourceVimeo {
		v.VimeoID = id
		v.VimeoURI = "/videos/" + id
	} else {
		v.YouTubeID = id
	}
	v.EmbedURL = vimeo.EmbedURL(source, id)
}

// Create handles POST /videos (admin). Vimeo videos without a duration are filled in from Vimeo.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !request.JSON(c, &req) {
		return
	}
	v := &models.Video{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		Duration:     req.Duration,
		Department:   req.Department,
		Level:        req.Level,
		Category:     req.Category,
		Instructor:   req.Instructor,
		IsPremium:    req.IsPremium,
		IsFeatured:   req.IsFeatured,
		IsPopular:    req.IsPopular,
		Tags:         req.Tags,
		Status:       req.Status,
	}
	if v.Status == "" {
		v.Status = models.VideoStatusDraft
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	applySource(v, req.VideoURL)
	if v.Source == vimeo.SourceVimeo && v.Duration == 0 {
		if meta, err := h.vimeo.GetVideo(c.Request.Context(), v.VimeoID); err != nil {
			h.logger.Warn("vimeo metadata lookup failed", zap.String("vimeo_id", v.VimeoID), zap.Error(err))
		} else {
			mergeMeta(v, meta)
		}
	}
	if err := h.videos.Create(c.Request.Context(), v); err != nil {
		h.logger.Error("create video", zap.Error(err))
		response.Internal(c, "failed to create video")
		return
	}
	response.Created(c, v)
}

// Update handles PATCH /videos/:id (admin). Title and description changes are pushed to Vimeo.
func (h *Handler) Update(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if !request.JSON(c, &req) {
		return
	}
	textChanged := (req.Title != nil && *req.Title != v.Title) ||
		(req.Description != nil && *req.Description != v.Description)
	setIf(&v.Title, req.Title)
	setIf(&v.Description, req.Description)
	setIf(&v.ThumbnailURL, req.ThumbnailURL)
	setIf(&v.Duration, req.Duration)
	setIf(&v.Department, req.Department)
	setIf(&v.Level, req.Level)
	setIf(&v.Category, req.Category)
	setIf(&v.Instructor, req.Instructor)
	setIf(&v.IsPremium, req.IsPremium)
	setIf(&v.IsFeatured, req.IsFeatured)
	setIf(&v.IsPopular, req.IsPopular)
	setIf(&v.Tags, req.Tags)
	setIf(&v.Status, req.Status)
	if req.VideoURL != nil {
		applySource(v, *req.VideoURL)
	}
	if err := h.videos.Update(c.Request.Context(), v); err != nil {
		h.logger.Error("update video", zap.Error(err))
		response.Internal(c, "failed to update video")
		return
	}
	if textChanged && v.VimeoID != "" && h.vimeo.Mode() == vendors.ModeLive {
		if err := h.vimeo.UpdateVideo(c.Request.Context(), v.VimeoID, v.Title, v.Description); err != nil {
			h.logger.Warn("vimeo update failed", zap.String("vimeo_id", v.VimeoID), zap.Error(err))
		}
	}
	response.OK(c, v)
}

// Delete handles DELETE /videos/:id (admin). A live Vimeo video is deleted first; if Vimeo
// refuses, the catalogue entry is kept.
func (h *Handler) Delete(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if v.VimeoID != "" && h.vimeo.Mode() == vendors.ModeLive {
		if err := h.vimeo.DeleteVideo(ctx, v.VimeoID); err != nil && !vendors.IsNotFound(err) {
			h.logger.Error("vimeo delete failed", zap.String("vimeo_id", v.VimeoID), zap.Error(err))
			response.BadGateway(c, "video host request failed")
			return
		}
	}
	if err := h.videos.Delete(ctx, v.ID); err != nil {
		h.logger.Error("delete video", zap.Error(err))
		response.Internal(c, "failed to delete video")
		return
	}
	h.dropThumbnail(ctx, v.ThumbnailURL)
	response.NoContent(c)
}

// Sync handles POST /videos/:id/sync (admin): refresh duration, embed link and thumbnail from Vimeo.
func (h *Handler) Sync(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	if v.VimeoID == "" {
		response.UnprocessableEntity(c, "video is not hosted on Vimeo")
		return
	}
	meta, err := h.vimeo.GetVideo(c.Request.Context(), v.VimeoID)
	if err != nil {
		h.logger.Error("vimeo sync failed", zap.String("vimeo_id", v.VimeoID), zap.Error(err))
		if vendors.IsNotFound(err) {
			response.NotFound(c, "video not found on Vimeo")
			return
		}
		response.BadGateway(c, "video host request failed")
		return
	}
	mergeMeta(v, meta)
	if err := h.videos.Update(c.Request.Context(), v); err != nil {
		h.logger.Error("update video", zap.Error(err))
		response.Internal(c, "failed to update video")
		return
	}
	response.OK(c, v)
}

// Playback handles GET /videos/:id/playback. Premium videos need a paid plan or the admin role.
func (h *Handler) Playback(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	caller := middleware.IdentityFrom(c)
	if v.IsPremium && !canWatchPremium(caller) {
		response.Forbidden(c, "premium video requires a paid plan")
		return
	}
	response.OK(c, Playback{VideoID: v.ID, Source: v.Source, EmbedURL: v.EmbedURL, Duration: v.Duration})
}

func canWatchPremium(id *auth.Identity) bool {
	return id != nil && (id.IsAdmin() || id.HasPaidPlan())
}

func mergeMeta(v *models.Video, meta *vimeo.VideoMeta) {
	if meta.Duration > 0 {
		v.Duration = meta.Duration
	}
	if meta.EmbedURL != "" {
		v.EmbedURL = meta.EmbedURL
	}
	if v.ThumbnailURL == "" {
		v.ThumbnailURL = meta.ThumbnailURL
	}
	if meta.URI != "" {
		v.VimeoURI = meta.URI
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
