package courses

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// DiscountRequest is the body for POST /courses/discount-rules.
type DiscountRequest struct {
	Name          string     `json:"name" binding:"required,max=120"`
	Kind          string     `json:"kind" binding:"required,oneof=percent fixed"`
	Value         int        `json:"value" binding:"required,min=1"`
	Department    string     `json:"department" binding:"max=100"`
	CourseID      *uuid.UUID `json:"course_id"`
	MinPriceCents int        `json:"min_price_cents" binding:"min=0"`
	Active        *bool      `json:"active"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
}

// DiscountUpdate is the body for PATCH /courses/discount-rules/:id.
// course_id, valid_from and valid_until accept null to clear them.
type DiscountUpdate struct {
	Name          *string                     `json:"name" binding:"omitempty,min=1,max=120"`
	Kind          *string                     `json:"kind" binding:"omitempty,oneof=percent fixed"`
	Value         *int                        `json:"value" binding:"omitempty,min=1"`
	Department    *string                     `json:"department" binding:"omitempty,max=100"`
	CourseID      request.Nullable[uuid.UUID] `json:"course_id"`
	MinPriceCents *int                        `json:"min_price_cents" binding:"omitempty,min=0"`
	Active        *bool                       `json:"active"`
	ValidFrom     request.Nullable[time.Time] `json:"valid_from"`
	ValidUntil    request.Nullable[time.Time] `json:"valid_until"`
}

// checkRule validates what the binding tags cannot express.
func checkRule(r *models.DiscountRule) string {
	if r.Kind == models.DiscountPercent && r.Value > 100 {
		return "percent discounts must be at most 100"
	}
	if r.ValidFrom != nil && r.ValidUntil != nil && !r.ValidUntil.After(*r.ValidFrom) {
		return "valid_until must be after valid_from"
	}
	return ""
}

// ListDiscounts handles GET /courses/discount-rules. ?active=true limits to active rules.
func (h *Handler) ListDiscounts(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	active, ok := request.Bool(c, "active")
	if !ok {
		return
	}
	f := store.DiscountFilter{ActiveOnly: active != nil && *active, ListParams: p}
	items, total, err := h.discounts.FindAll(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list discount rules", zap.Error(err))
		response.Internal(c, "failed to list discount rules")
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}

// CreateDiscount handles POST /courses/discount-rules.
func (h *Handler) CreateDiscount(c *gin.Context) {
	var req DiscountRequest
	if !request.JSON(c, &req) {
		return
	}
	rule := &models.DiscountRule{
		Name:          req.Name,
		Kind:          req.Kind,
		Value:         req.Value,
		Department:    req.Department,
		CourseID:      req.CourseID,
		MinPriceCents: req.MinPriceCents,
		Active:        req.Active == nil || *req.Active,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
	}
	if msg := checkRule(rule); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.discounts.Create(c.Request.Context(), rule); err != nil {
		h.logger.Error("create discount rule", zap.Error(err))
		response.Internal(c, "failed to create discount rule")
		return
	}
	response.Created(c, rule)
}

// UpdateDiscount handles PATCH /courses/discount-rules/:id.
func (h *Handler) UpdateDiscount(c *gin.Context) {
	id, ok := request.ID(c, "discount rule")
	if !ok {
		return
	}
	var req DiscountUpdate
	if !request.JSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	rule, err := h.discounts.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "discount rule not found")
		return
	}
	if err != nil {
		h.logger.Error("find discount rule", zap.Error(err))
		response.Internal(c, "failed to load discount rule")
		return
	}
	setIf(&rule.Name, req.Name)
	setIf(&rule.Kind, req.Kind)
	setIf(&rule.Value, req.Value)
	setIf(&rule.Department, req.Department)
	setIf(&rule.MinPriceCents, req.MinPriceCents)
	setIf(&rule.Active, req.Active)
	req.CourseID.ApplyTo(&rule.CourseID)
	req.ValidFrom.ApplyTo(&rule.ValidFrom)
	req.ValidUntil.ApplyTo(&rule.ValidUntil)
	if msg := checkRule(rule); msg != "" {
		response.BadRequest(c, msg)
		return
	}
	if err := h.discounts.Update(ctx, rule); err != nil {
		h.logger.Error("update discount rule", zap.Error(err))
		response.Internal(c, "failed to update discount rule")
		return
	}
	response.OK(c, rule)
}

// DeleteDiscount handles DELETE /courses/discount-rules/:id.
func (h *Handler) DeleteDiscount(c *gin.Context) {
	id, ok := request.ID(c, "discount rule")
	if !ok {
		return
	}
	err := h.discounts.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		response.NotFound(c, "discount rule not found")
		return
	}
	if err != nil {
		h.logger.Error("delete discount rule", zap.Error(err))
		response.Internal(c, "failed to delete discount rule")
		return
	}
	response.NoContent(c)
}
