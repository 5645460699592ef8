package videos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
	"github.com/aura-academy/backend/pkg/storage"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

// UploadThumbnail handles POST /videos/:id/thumbnail (admin, multipart field "file").
func (h *Handler) UploadThumbnail(c *gin.Context) {
	if h.thumbnails == nil {
		response.ServiceUnavailable(c, "thumbnail storage is not configured")
		return
	}
	v, ok := h.load(c)
	if !ok {
		return
	}
	const limit = storage.MaxThumbnailSize + formOverhead
	if c.Request.ContentLength > limit {
		response.RequestEntityTooLarge(c, storage.ErrThumbnailTooLarge.Error())
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RequestEntityTooLarge(c, storage.ErrThumbnailTooLarge.Error())
			return
		}
		response.BadRequest(c, "file is required")
		return
	}
	contentType, err := storage.ValidateThumbnail(fh.Header.Get("Content-Type"), fh.Filename, fh.Size)
	switch {
	case errors.Is(err, storage.ErrThumbnailTooLarge):
		response.RequestEntityTooLarge(c, err.Error())
		return
	case err != nil:
		response.UnprocessableEntity(c, err.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	key := storage.ThumbnailKey(v.ID.String(), fmt.Sprintf("thumb-%d", time.Now().UnixMilli()), fh.Filename)
	url, err := h.thumbnails.UploadThumbnail(ctx, key, contentType, f, fh.Size)
	if err != nil {
		h.logger.Error("thumbnail upload failed", zap.String("video_id", v.ID.String()), zap.Error(err))
		response.BadGateway(c, "thumbnail upload failed")
		return
	}
	previous := v.ThumbnailURL
	v.ThumbnailURL = url
	if err := h.videos.Update(ctx, v); err != nil {
		h.logger.Error("update video", zap.Error(err))
		response.Internal(c, "failed to update video")
		return
	}
	h.dropThumbnail(ctx, previous)
	response.OK(c, v)
}

// dropThumbnail deletes a thumbnail this platform uploaded. Foreign URLs are left alone.
func (h *Handler) dropThumbnail(ctx context.Context, url string) {
	if h.thumbnails == nil || url == "" {
		return
	}
	key, ok := h.thumbnails.KeyFromURL(url)
	if !ok {
		return
	}
	if err := h.thumbnails.DeleteThumbnail(ctx, key); err != nil {
		h.logger.Warn("delete old thumbnail", zap.String("key", key), zap.Error(err))
	}
}

// ThumbnailUploadRequest is the body for POST /videos/:id/thumbnail/upload-url.
type ThumbnailUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

// ThumbnailUpload is a pre-signed direct upload. After the PUT succeeds the client sets
// thumbnail_url to PublicURL with PATCH /videos/:id.
type ThumbnailUpload struct {
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PresignThumbnail handles POST /videos/:id/thumbnail/upload-url (admin).
func (h *Handler) PresignThumbnail(c *gin.Context) {
	if h.thumbnails == nil {
		response.ServiceUnavailable(c, "thumbnail storage is not configured")
		return
	}
	v, ok := h.load(c)
	if !ok {
		return
	}
	var req ThumbnailUploadRequest
	if !request.JSON(c, &req) {
		return
	}
	contentType, err := storage.ValidateThumbnail(req.ContentType, req.Filename, req.Size)
	switch {
	case errors.Is(err, storage.ErrThumbnailTooLarge):
		response.RequestEntityTooLarge(c, err.Error())
		return
	case err != nil:
		response.UnprocessableEntity(c, err.Error())
		return
	}
	key := storage.ThumbnailKey(v.ID.String(), fmt.Sprintf("thumb-%d", time.Now().UnixMilli()), req.Filename)
	url, expires, err := h.thumbnails.PresignThumbnailUpload(c.Request.Context(), key, contentType)
	if err != nil {
		h.logger.Error("presign thumbnail upload", zap.String("video_id", v.ID.String()), zap.Error(err))
		response.BadGateway(c, "could not create upload URL")
		return
	}
	response.OK(c, ThumbnailUpload{UploadURL: url, PublicURL: h.thumbnails.PublicObjectURL(key), Key: key, ExpiresAt: expires})
}
