package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/pkg/response"
)

// Auth returns a middleware that verifies the bearer token and stores the caller's
// *auth.Identity under auth.ContextIdentity.
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		id, err := verifier.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(auth.ContextIdentity, id)
		c.Next()
	}
}

// IdentityFrom returns the caller set by Auth, or nil on unauthenticated routes.
func IdentityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(auth.ContextIdentity)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}
