// Package auth verifies the bearer tokens presented to the API. Production tokens are Clerk
// session JWTs; local development uses HS256 tokens minted by DevVerifier.
package auth

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingKey   = errors.New("clerk jwt key not configured")
)

// Roles carried in token claims.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	Plan   string `json:"plan"`
}

// IsAdmin reports whether the caller has the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// HasPaidPlan reports whether the caller is on a basic or premium plan.
func (i Identity) HasPaidPlan() bool {
	return i.Plan == models.PlanBasic || i.Plan == models.PlanPremium
}

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// New returns the Clerk verifier when a PEM key is configured, the dev verifier otherwise.
// The second result reports whether dev tokens are in use.
func New(cfg config.AuthConfig, logger *zap.Logger) (Verifier, bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Configured() {
		logger.Warn("CLERK_JWT_KEY not set, accepting dev tokens")
		return NewDevVerifier(cfg.DevJWTSecret, cfg.DevJWTExpireHours), true, nil
	}
	v, err := NewClerkVerifier(cfg.ClerkJWTKey, cfg.ClerkIssuer)
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

// normalise lowercases role and plan. A missing role is a user; a plan outside the known set is free.
func normalise(id *Identity) *Identity {
	id.Role = strings.ToLower(strings.TrimSpace(id.Role))
	if id.Role == "" {
		id.Role = RoleUser
	}
	id.Plan = strings.ToLower(strings.TrimSpace(id.Plan))
	if !models.ValidPlan(id.Plan) {
		id.Plan = models.PlanFree
	}
	return id
}
