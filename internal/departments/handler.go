// Package departments serves the department list used by the admin forms.
package departments

import (
	"errors"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/validation"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// CreateRequest is the body for POST /departments. The slug defaults to one derived from name.
type CreateRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"omitempty,slug"`
	Description string `json:"description" binding:"max=1000"`
}

// UpdateRequest is the body for PATCH /departments/:id.
type UpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Slug        *string `json:"slug" binding:"omitempty,slug"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

// Slugify lowercases name and joins its alphanumeric runs with single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	s := b.String()
	if len(s) > 64 {
		s = strings.TrimRight(s[:64], "-")
	}
	return s
}

// Handler serves department endpoints.
type Handler struct {
	departments store.Departments
	logger      *zap.Logger
}

// NewHandler creates a department handler.
func NewHandler(departments store.Departments, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{departments: departments, logger: logger}
}

func (h *Handler) saveFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrConflict):
		response.Conflict(c, "slug already in use")
	case errors.Is(err, store.ErrNotFound):
		response.NotFound(c, "department not found")
	default:
		h.logger.Error("save department", zap.Error(err))
		response.Internal(c, "failed to save department")
	}
}

// List handles GET /departments.
func (h *Handler) List(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	items, total, err := h.departments.FindAll(c.Request.Context(), p)
	if err != nil {
		h.logger.Error("list departments", zap.Error(err))
		response.Internal(c, "failed to list departments")
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}

// Create handles POST /departments.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !request.JSON(c, &req) {
		return
	}
	d := &models.Department{Name: strings.TrimSpace(req.Name), Slug: req.Slug, Description: req.Description}
	if d.Slug == "" {
		d.Slug = Slugify(d.Name)
	}
	if !validation.ValidSlug(d.Slug) {
		response.BadRequest(c, "name does not produce a valid slug, pass one explicitly")
		return
	}
	if err := h.departments.Create(c.Request.Context(), d); err != nil {
		h.saveFailed(c, err)
		return
	}
	response.Created(c, d)
}

// Update handles PATCH /departments/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := request.ID(c, "department")
	if !ok {
		return
	}
	var req UpdateRequest
	if !request.JSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	d, err := h.departments.FindByID(ctx, id)
	if err != nil {
		h.saveFailed(c, err)
		return
	}
	if req.Name != nil {
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		d.Slug = *req.Slug
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if err := h.departments.Update(ctx, d); err != nil {
		h.saveFailed(c, err)
		return
	}
	response.OK(c, d)
}

// Delete handles DELETE /departments/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := request.ID(c, "department")
	if !ok {
		return
	}
	if err := h.departments.Delete(c.Request.Context(), id); err != nil {
		h.saveFailed(c, err)
		return
	}
	response.NoContent(c)
}
