package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DevClaims are the claims of a development token. The user id travels in sub.
type DevClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	Plan  string `json:"plan"`
	jwt.RegisteredClaims
}

// DevVerifier issues and validates HS256 tokens for local development.
type DevVerifier struct {
	secret      []byte
	expireHours int
}

// NewDevVerifier creates a dev verifier.
func NewDevVerifier(secret string, expireHours int) *DevVerifier {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &DevVerifier{secret: []byte(secret), expireHours: expireHours}
}

// Generate creates a token for the identity.
func (s *DevVerifier) Generate(id Identity) (string, error) {
	id = *normalise(&id)
	now := time.Now()
	claims := DevClaims{
		Email: id.Email,
		Role:  id.Role,
		Plan:  id.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a dev token.
func (s *DevVerifier) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DevClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*DevClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return normalise(&Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		Plan:   claims.Plan,
	}), nil
}
