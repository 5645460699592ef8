package videos

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// RateRequest is the body for POST /videos/:id/rate.
type RateRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// RatingSummary is returned after rating a video.
type RatingSummary struct {
	Rating        int     `json:"rating"`
	RatingAverage float64 `json:"rating_average"`
	RatingCount   int     `json:"rating_count"`
}

// Rate handles POST /videos/:id/rate. A user's new rating replaces their previous one and the
// video's aggregate is recomputed from all ratings.
func (h *Handler) Rate(c *gin.Context) {
	v, ok := h.load(c)
	if !ok {
		return
	}
	var req RateRequest
	if !request.JSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	caller := middleware.IdentityFrom(c)
	if err := h.ratings.Upsert(ctx, &models.VideoRating{UserID: caller.UserID, VideoID: v.ID, Rating: req.Rating}); err != nil {
		h.logger.Error("save rating", zap.Error(err))
		response.Internal(c, "failed to save rating")
		return
	}
	avg, count, err := h.ratings.Stats(ctx, v.ID)
	if err != nil {
		h.logger.Error("rating stats", zap.Error(err))
		response.Internal(c, "failed to save rating")
		return
	}
	if err := h.videos.SetRating(ctx, v.ID, avg, count); err != nil {
		h.logger.Error("update video rating", zap.Error(err))
		response.Internal(c, "failed to save rating")
		return
	}
	if h.activity != nil {
		h.activity.Log(ctx, caller.UserID, models.ActivityVideoRated, "video", v.ID.String(),
			map[string]interface{}{"rating": req.Rating})
	}
	response.OK(c, RatingSummary{Rating: req.Rating, RatingAverage: avg, RatingCount: count})
}
