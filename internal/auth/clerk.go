package auth

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClerkVerifier validates RS256 Clerk session tokens against the instance PEM public key.
// Role and plan are read from top-level claims or from metadata / public_metadata.
type ClerkVerifier struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

// NewClerkVerifier parses the PEM key. An empty issuer disables the iss check.
func NewClerkVerifier(pemKey, issuer string) (*ClerkVerifier, error) {
	if pemKey == "" {
		return nil, ErrMissingKey
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse clerk jwt key: %w", err)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &ClerkVerifier{key: key, parser: jwt.NewParser(opts...)}, nil
}

// Verify validates the signature and standard claims and extracts the identity.
func (v *ClerkVerifier) Verify(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}); err != nil {
		return nil, ErrInvalidToken
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, ErrInvalidToken
	}
	id := &Identity{
		UserID: sub,
		Email:  stringClaim(claims, "email"),
		Role:   stringClaim(claims, "role"),
		Plan:   stringClaim(claims, "plan"),
	}
	for _, key := range []string{"metadata", "public_metadata"} {
		meta, ok := claims[key].(map[string]interface{})
		if !ok {
			continue
		}
		if id.Role == "" {
			id.Role = stringClaim(meta, "role")
		}
		if id.Plan == "" {
			id.Plan = stringClaim(meta, "plan")
		}
	}
	return normalise(id), nil
}

func stringClaim(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
