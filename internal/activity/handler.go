package activity

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// Handler serves activity feeds.
type Handler struct {
	store  store.Activities
	logger *zap.Logger
}

// NewHandler creates an activity handler.
func NewHandler(s store.Activities, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: s, logger: logger}
}

// Mine handles GET /me/activity.
func (h *Handler) Mine(c *gin.Context) {
	id := middleware.IdentityFrom(c)
	h.list(c, id.UserID)
}

// List handles GET /admin/activity?user_id= (admin only).
func (h *Handler) List(c *gin.Context) {
	h.list(c, c.Query("user_id"))
}

func (h *Handler) list(c *gin.Context, userID string) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	items, total, err := h.store.FindAll(c.Request.Context(), store.ActivityFilter{
		UserID:     userID,
		Action:     c.Query("action"),
		ListParams: p,
	})
	if err != nil {
		h.logger.Error("list activity", zap.Error(err))
		response.Internal(c, "failed to list activity")
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}
