package seminars

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/middleware"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/pkg/request"
	"github.com/aura-academy/backend/pkg/response"
)

// CreateRequest is the body for POST /seminars.
type CreateRequest struct {
	Title           string    `json:"title" binding:"required,max=200"`
	Description     string    `json:"description" binding:"max=5000"`
	Department      string    `json:"department" binding:"max=100"`
	Instructor      string    `json:"instructor" binding:"max=200"`
	ZoomType        string    `json:"zoom_type" binding:"omitempty,oneof=meeting webinar"`
	ScheduledAt     time.Time `json:"scheduled_at" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=15,max=720"`
	Capacity        int       `json:"capacity" binding:"min=0"`
	PriceFree       int       `json:"price_free" binding:"min=0"`
	PriceBasic      int       `json:"price_basic" binding:"min=0"`
	PricePremium    int       `json:"price_premium" binding:"min=0"`
	Currency        string    `json:"currency" binding:"omitempty,len=3"`
	ProvisionZoom   bool      `json:"provision_zoom"`
}

// UpdateRequest is the body for PATCH /seminars/:id. Absent fields are left unchanged.
type UpdateRequest struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description     *string    `json:"description" binding:"omitempty,max=5000"`
	Department      *string    `json:"department" binding:"omitempty,max=100"`
	Instructor      *string    `json:"instructor" binding:"omitempty,max=200"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=15,max=720"`
	Capacity        *int       `json:"capacity" binding:"omitempty,min=0"`
	PriceFree       *int       `json:"price_free" binding:"omitempty,min=0"`
	PriceBasic      *int       `json:"price_basic" binding:"omitempty,min=0"`
	PricePremium    *int       `json:"price_premium" binding:"omitempty,min=0"`
	Currency        *string    `json:"currency" binding:"omitempty,len=3"`
}

// StatusRequest is the body for PATCH /seminars/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=scheduled live completed cancelled"`
}

// RegisterRequest is the body for POST /seminars/:id/register.
type RegisterRequest struct {
	Plan string `json:"plan" binding:"omitempty,oneof=free basic premium"`
}

// RegisterResponse carries the registration and, for paid plans, the Stripe checkout.
type RegisterResponse struct {
	Registration *models.SeminarRegistration `json:"registration"`
	Checkout     *Checkout                   `json:"checkout,omitempty"`
}

// AttendanceRequest is the body for PATCH /registrations/:id/attendance.
type AttendanceRequest struct {
	Status string `json:"status" binding:"required,oneof=registered attended no_show"`
}

// PaymentRequest is the body for PATCH /registrations/:id/payment.
type PaymentRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid failed free refunded"`
}

// Handler serves seminar and registration endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a seminar handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSeminarNotFound):
		response.NotFound(c, "seminar not found")
	case errors.Is(err, ErrRegistrationNotFound):
		response.NotFound(c, "registration not found")
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrSeminarClosed),
		errors.Is(err, ErrAlreadyRegistered),
		errors.Is(err, ErrSeminarFull):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidPlan):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrVendor):
		response.BadGateway(c, err.Error())
	default:
		h.logger.Error("seminar request", zap.Error(err))
		response.Internal(c, "seminar request failed")
	}
}

// List handles GET /seminars.
func (h *Handler) List(c *gin.Context) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	from, ok := request.Time(c, "from")
	if !ok {
		return
	}
	to, ok := request.Time(c, "to")
	if !ok {
		return
	}
	f := store.SeminarFilter{
		Status:     c.Query("status"),
		Department: c.Query("department"),
		Instructor: c.Query("instructor"),
		From:       from,
		To:         to,
		ListParams: p,
	}
	items, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	if caller := middleware.IdentityFrom(c); caller == nil || !caller.IsAdmin() {
		for i := range items {
			items[i].ZoomStartURL = ""
		}
	}
	response.OK(c, query.NewPage(items, total, p))
}

// Get handles GET /seminars/:id. The host start URL is only shown to admins.
func (h *Handler) Get(c *gin.Context) {
	id, ok := request.ID(c, "seminar")
	if !ok {
		return
	}
	sem, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if caller := middleware.IdentityFrom(c); caller == nil || !caller.IsAdmin() {
		sem.ZoomStartURL = ""
	}
	response.OK(c, sem)
}

// Create handles POST /seminars.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !request.JSON(c, &req) {
		return
	}
	sem := &models.Seminar{
		Title:           req.Title,
		Description:     req.Description,
		Department:      req.Department,
		Instructor:      req.Instructor,
		ZoomType:        req.ZoomType,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
		PriceFree:       req.PriceFree,
		PriceBasic:      req.PriceBasic,
		PricePremium:    req.PricePremium,
		Currency:        strings.ToLower(req.Currency),
	}
	if err := h.svc.Create(c.Request.Context(), sem, req.ProvisionZoom); err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, sem)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Update handles PATCH /seminars/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := request.ID(c, "seminar")
	if !ok {
		return
	}
	var req UpdateRequest
	if !request.JSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	sem, err := h.svc.Get(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	setIf(&sem.Title, req.Title)
	setIf(&sem.Description, req.Description)
	setIf(&sem.Department, req.Department)
	setIf(&sem.Instructor, req.Instructor)
	setIf(&sem.DurationMinutes, req.DurationMinutes)
	setIf(&sem.Capacity, req.Capacity)
	setIf(&sem.PriceFree, req.PriceFree)
	setIf(&sem.PriceBasic, req.PriceBasic)
	setIf(&sem.PricePremium, req.PricePremium)
	if req.ScheduledAt != nil {
		sem.ScheduledAt = req.ScheduledAt.UTC()
	}
	if req.Currency != nil {
		sem.Currency = strings.ToLower(*req.Currency)
	}
	if err := h.svc.Update(ctx, sem); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, sem)
}

// Delete handles DELETE /seminars/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := request.ID(c, "seminar")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.NoContent(c)
}

// SetStatus handles PATCH /seminars/:id/status.
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := request.ID(c, "seminar")
	if !ok {
		return
	}
	var req StatusRequest
	if !request.JSON(c, &req) {
		return
	}
	sem, _, err := h.svc.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, sem)
}

// Register handles POST /seminars/:id/register. The plan defaults to the caller's own plan.
func (h *Handler) Register(c *gin.Context) {
	id, ok := request.ID(c, "seminar")
	if !ok {
		return
	}
	var req RegisterRequest
	if c.Request.ContentLength > 0 && !request.JSON(c, &req) {
		return
	}
	caller := middleware.IdentityFrom(c)
	if req.Plan == "" {
		req.Plan = caller.Plan
	}
	reg, checkout, err := h.svc.Register(c.Request.Context(), id, caller, req.Plan)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Created(c, RegisterResponse{Registration: reg, Checkout: checkout})
}

func (h *Handler) listRegistrations(c *gin.Context, f store.RegistrationFilter) {
	p, ok := request.List(c)
	if !ok {
		return
	}
	f.PaymentStatus = c.Query("payment_status")
	f.AttendanceStatus = c.Query("attendance_status")
	f.ListParams = p
	items, total, err := h.svc.Registrations(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, query.NewPage(items, total, p))
}

// Registrations handles GET /seminars/:id/registrations (admin).
func (h *Handler) Registrations(c *gin.Context) {
	id, ok := request.ID(c, "seminar")
	if !ok {
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.listRegistrations(c, store.RegistrationFilter{SeminarID: &id})
}

// Mine handles GET /me/registrations.
func (h *Handler) Mine(c *gin.Context) {
	h.listRegistrations(c, store.RegistrationFilter{UserID: middleware.IdentityFrom(c).UserID})
}

// SetAttendance handles PATCH /registrations/:id/attendance (admin).
func (h *Handler) SetAttendance(c *gin.Context) {
	h.patchRegistration(c, func(id uuid.UUID, status string) (*models.SeminarRegistration, error) {
		return h.svc.SetAttendance(c.Request.Context(), id, status)
	}, &AttendanceRequest{})
}

// SetPayment handles PATCH /registrations/:id/payment (admin).
func (h *Handler) SetPayment(c *gin.Context) {
	h.patchRegistration(c, func(id uuid.UUID, status string) (*models.SeminarRegistration, error) {
		return h.svc.SetPaymentStatus(c.Request.Context(), id, status)
	}, &PaymentRequest{})
}

type statusBody interface{ status() string }

func (r *AttendanceRequest) status() string { return r.Status }
func (r *PaymentRequest) status() string    { return r.Status }

func (h *Handler) patchRegistration(c *gin.Context, apply func(uuid.UUID, string) (*models.SeminarRegistration, error), body statusBody) {
	id, ok := request.ID(c, "registration")
	if !ok {
		return
	}
	if !request.JSON(c, body) {
		return
	}
	reg, err := apply(id, body.status())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, reg)
}
