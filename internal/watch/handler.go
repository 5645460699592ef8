package watch

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// StartRequest is the optional body for POST /videos/:id/watch.
type StartRequest struct {
	DeviceType string `json:"device_type" binding:"omitempty,oneof=desktop mobile tablet tv web"`
}

// ProgressRequest is the body for PUT /videos/:id/watch.
type ProgressRequest struct {
	CurrentTime float64 `json:"current_time" binding:"min=0"`
	WatchTime   float64 `json:"watch_time" binding:"min=0"`
}

// Handler serves the watch session routes.
type Handler struct {
	tracker *Tracker
	logger  *zap.Logger
}

// NewHandler creates a watch handler.
func NewHandler(tracker *Tracker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{tracker: tracker, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrVideoNotFound):
		response.NotFound(c, "video not found")
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(c, "watch session not found")
	case errors.Is(err, ErrPaidPlanRequired):
		response.Forbidden(c, "premium video requires a paid plan")
	default:
		h.logger.Error("watch session", zap.Error(err))
		response.Internal(c, "failed to update watch session")
	}
}

// Start handles POST /videos/:id/watch.
func (h *Handler) Start(c *gin.Context) {
	videoID, ok := request.ID(c, "video")
	if !ok {
		return
	}
	var req StartRequest
	if c.Request.ContentLength > 0 && !request.JSON(c, &req) {
		return
	}
	id := middleware.IdentityFrom(c)
	s, err := h.tracker.Start(c.Request.Context(), *id, videoID, Device{
		Type:      req.DeviceType,
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, s)
}

// Progress handles PUT /videos/:id/watch.
func (h *Handler) Progress(c *gin.Context) {
	videoID, ok := request.ID(c, "video")
	if !ok {
		return
	}
	var req ProgressRequest
	if !request.JSON(c, &req) {
		return
	}
	id := middleware.IdentityFrom(c)
	s, err := h.tracker.Progress(c.Request.Context(), *id, videoID, req.CurrentTime, req.WatchTime)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, s)
}

// End handles POST /videos/:id/watch/end.
func (h *Handler) End(c *gin.Context) {
	videoID, ok := request.ID(c, "video")
	if !ok {
		return
	}
	s, err := h.tracker.End(c.Request.Context(), middleware.IdentityFrom(c).UserID, videoID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, s)
}

// Get handles GET /videos/:id/watch.
func (h *Handler) Get(c *gin.Context) {
	videoID, ok := request.ID(c, "video")
	if !ok {
		return
	}
	s, err := h.tracker.Get(c.Request.Context(), middleware.IdentityFrom(c).UserID, videoID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, s)
}

// Mine handles GET /me/progress?completed=.
func (h *Handler) Mine(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	completed, ok := request.Bool(c, "completed")
	if !ok {
		return
	}
	items, total, err := h.tracker.ListForUser(c.Request.Context(), middleware.IdentityFrom(c).UserID, completed, p)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}
