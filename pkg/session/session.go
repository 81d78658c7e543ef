// Package session is the single injected token source for every
// authenticated upstream call. The storefront used to read a free-floating
// browser storage slot from multiple modules; here the request middleware
// seeds the context once and clients ask this package instead.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the record persisted under the fixed session key, shape
// `{token, ...}` per the commerce backend contract.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}

// Provider yields the bearer token in scope. An empty token means guest,
// never an error; operations that hard-require authentication decide that
// for themselves.
type Provider interface {
	Token(ctx context.Context) string
}

type ctxKey struct{}

// WithToken seeds a request context with the caller's bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, strings.TrimSpace(token))
}

// FromContext returns the token seeded by the auth middleware, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if token, ok := ctx.Value(ctxKey{}).(string); ok {
		return token
	}
	return ""
}

// ContextProvider reads the token the middleware attached to the request.
type ContextProvider struct{}

func (ContextProvider) Token(ctx context.Context) string {
	return FromContext(ctx)
}

// Static always returns the same token. Used in tests and one-shot tools.
type Static string

func (s Static) Token(context.Context) string {
	return string(s)
}

// IsLive reports whether a token still represents a usable session. JWTs
// are checked for expiry (signature-verified when a secret is configured);
// opaque tokens are assumed live since only the backend can judge them.
func IsLive(token, secret string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}

	if secret != "" {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		return err == nil && parsed.Valid
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Not a JWT at all: opaque token, defer to the backend.
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}
