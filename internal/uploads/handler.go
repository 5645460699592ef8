package uploads

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// ProgressRequest is the body for PATCH /upload-tasks/:id.
type ProgressRequest struct {
	Progress int `json:"progress" binding:"min=0,max=100"`
}

// FailRequest is the body for POST /upload-tasks/:id/fail.
type FailRequest struct {
	ErrorMessage string `json:"error_message" binding:"max=1000"`
}

// Handler serves upload task endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an upload task handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		response.NotFound(c, "upload task not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error("upload task", zap.Error(err))
		response.Internal(c, "failed to update upload task")
	}
}

// owned loads the :id task and checks the caller owns it or is an admin.
func (h *Handler) owned(c *gin.Context) (*models.UploadTask, bool) {
	id, ok := request.ID(c, "upload task")
	if !ok {
		return nil, false
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	caller := middleware.IdentityFrom(c)
	if t.UserID != caller.UserID && !caller.IsAdmin() {
		response.NotFound(c, "upload task not found")
		return nil, false
	}
	return t, true
}

// Create handles POST /upload-tasks. Only admins register uploads.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !request.JSON(c, &req) {
		return
	}
	t, err := h.svc.Create(c.Request.Context(), middleware.IdentityFrom(c).UserID, req)
	if errors.Is(err, ErrVendor) {
		response.BadGateway(c, "video host unavailable, upload task failed")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, t)
}

// List handles GET /upload-tasks. Admins may pass ?user_id=, others see their own tasks.
func (h *Handler) List(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	caller := middleware.IdentityFrom(c)
	f := store.UploadFilter{UserID: caller.UserID, Status: c.Query("status"), ListParams: p}
	if caller.IsAdmin() {
		f.UserID = c.Query("user_id")
	}
	items, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}

// Get handles GET /upload-tasks/:id.
func (h *Handler) Get(c *gin.Context) {
	t, ok := h.owned(c)
	if !ok {
		return
	}
	response.OK(c, t)
}

// Progress handles PATCH /upload-tasks/:id.
func (h *Handler) Progress(c *gin.Context) {
	t, ok := h.owned(c)
	if !ok {
		return
	}
	var req ProgressRequest
	if !request.JSON(c, &req) {
		return
	}
	t, err := h.svc.ReportProgress(c.Request.Context(), t.ID, req.Progress)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// Complete handles POST /upload-tasks/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	t, ok := h.owned(c)
	if !ok {
		return
	}
	t, err := h.svc.Complete(c.Request.Context(), t.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}

// Fail handles POST /upload-tasks/:id/fail.
func (h *Handler) Fail(c *gin.Context) {
	t, ok := h.owned(c)
	if !ok {
		return
	}
	var req FailRequest
	if c.Request.ContentLength > 0 && !request.JSON(c, &req) {
		return
	}
	t, err := h.svc.Fail(c.Request.Context(), t.ID, req.ErrorMessage)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, t)
}
