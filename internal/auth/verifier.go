// Package auth verifies externally issued bearer credentials and resolves
// the caller's role. The identity provider itself is not part of this
// system; tokens are validated against its shared HMAC secret only.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gridwatch/toc-portal/internal/domain"
)

// Verification errors.
var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrNotConfigured = errors.New("jwt secret not configured")
)

// tokenClaims mirrors the subset of the identity provider's token we care
// about. The provider puts the application role in user_metadata; its
// top-level role claim is an IdP-internal value (e.g. "authenticated").
type tokenClaims struct {
	Role         string `json:"role"`
	UserMetadata struct {
		Role string `json:"role"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// Verifier validates HS256-signed bearer tokens against a shared secret.
// It holds no per-request state; Verify is a pure function of
// (token, secret, clock).
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier creates a verifier for the given shared secret.
// An empty secret is allowed at construction time and reported as
// ErrNotConfigured on every Verify call.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// NewVerifierWithClock creates a verifier with an injected clock for tests.
func NewVerifierWithClock(secret string, now func() time.Time) *Verifier {
	return &Verifier{secret: []byte(secret), now: now}
}

// Verify checks the token signature and expiry and resolves the caller
// identity. The role claim is resolved exactly once here; anything absent
// or unrecognized degrades to the lowest role.
func (v *Verifier) Verify(token string) (domain.Caller, error) {
	if len(v.secret) == 0 {
		return domain.Caller{}, ErrNotConfigured
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return domain.Caller{
		UserID: claims.Subject,
		Role:   resolveRole(claims),
	}, nil
}

// resolveRole maps raw token claims onto the closed role set.
// user_metadata.role wins over the top-level claim.
func resolveRole(claims tokenClaims) domain.Role {
	for _, raw := range []string{claims.UserMetadata.Role, claims.Role} {
		if role := domain.Role(raw); role.IsValid() {
			return role
		}
	}
	return domain.RoleViewer
}
