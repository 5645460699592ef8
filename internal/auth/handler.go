package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/pkg/response"
)

// DevTokenRequest is the body for POST /auth/dev-token.
type DevTokenRequest struct {
	UserID string `json:"user_id" binding:"required,max=128"`
	Email  string `json:"email" binding:"omitempty,email"`
	Role   string `json:"role" binding:"omitempty,oneof=admin user"`
	Plan   string `json:"plan" binding:"omitempty,oneof=free basic premium"`
}

// TokenResponse is the dev-token response.
type TokenResponse struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
}

// Handler serves identity endpoints.
type Handler struct {
	dev    *DevVerifier
	logger *zap.Logger
}

// NewHandler creates an auth handler. dev may be nil when Clerk is configured.
func NewHandler(dev *DevVerifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{dev: dev, logger: logger}
}

// DevToken handles POST /auth/dev-token. Only mounted when Clerk is not configured.
func (h *Handler) DevToken(c *gin.Context) {
	if h.dev == nil {
		response.NotFound(c, "dev tokens are disabled")
		return
	}
	var req DevTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	id := *normalise(&Identity{UserID: req.UserID, Email: req.Email, Role: req.Role, Plan: req.Plan})
	token, err := h.dev.Generate(id)
	if err != nil {
		h.logger.Error("sign dev token", zap.Error(err))
		response.Internal(c, "failed to create token")
		return
	}
	response.Created(c, TokenResponse{Token: token, Identity: id})
}

// Me handles GET /me. The identity is set by the auth middleware under ContextIdentity.
func (h *Handler) Me(c *gin.Context) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		response.Unauthorized(c, "missing user context")
		return
	}
	response.OK(c, v)
}

// ContextIdentity is the gin context key holding the *Identity of the caller.
const ContextIdentity = "identity"
