package payments

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/vendors/stripe"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// Stripe event bodies are well under this.
const maxWebhookBody = 65536

// Handler serves refund and webhook endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a payment handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Refund handles POST /stripe/refund (admin).
func (h *Handler) Refund(c *gin.Context) {
	var req RefundRequest
	if !request.JSON(c, &req) {
		return
	}
	refund, err := h.svc.Refund(c.Request.Context(), middleware.IdentityFrom(c).UserID, req)
	switch {
	case err == nil:
		response.Created(c, refund)
	case errors.Is(err, ErrRegistrationNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNotRefundable), errors.Is(err, ErrAmountTooLarge):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrVendor):
		response.BadGateway(c, "refund failed at payment provider")
	default:
		h.logger.Error("refund", zap.Error(err))
		response.Internal(c, "refund failed")
	}
}

// Refunds handles GET /refunds (admin), optionally filtered by ?registration_id=.
func (h *Handler) Refunds(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	f := store.RefundFilter{ListParams: p}
	id, ok := request.QueryID(c, "registration_id")
	if !ok {
		return
	}
	if id != uuid.Nil {
		f.RegistrationID = &id
	}
	items, total, err := h.svc.Refunds(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("list refunds", zap.Error(err))
		response.Internal(c, "failed to list refunds")
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}

// Webhook handles POST /stripe/webhook. It is unauthenticated; the Stripe-Signature header
// is the only proof of origin. Events the platform does not act on are acknowledged.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		response.RequestEntityTooLarge(c, "webhook body too large")
		return
	}
	ev, err := h.svc.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	switch {
	case errors.Is(err, stripe.ErrWebhookSecretMissing):
		h.logger.Error("stripe webhook received but no secret configured")
		response.ServiceUnavailable(c, err.Error())
		return
	case err != nil:
		h.logger.Warn("rejected stripe webhook", zap.Error(err))
		response.BadRequest(c, "invalid webhook")
		return
	}
	changed, err := h.svc.ApplyEvent(c.Request.Context(), ev)
	if err != nil {
		h.logger.Error("apply stripe event", zap.String("event_id", ev.ID), zap.Error(err))
		response.Internal(c, "failed to apply event")
		return
	}
	response.OK(c, gin.H{"received": true, "type": ev.Type, "applied": changed})
}
