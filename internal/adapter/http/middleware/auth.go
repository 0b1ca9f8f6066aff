package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/infrastructure/auth"
	"github.com/iho/splitsync/internal/usecase"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// IdentityContextKey is the context key for the authenticated identity
	IdentityContextKey ContextKey = "identity"
)

// AuthFailureRecorder counts rejected requests.
type AuthFailureRecorder interface {
	RecordAuthFailure(status int)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// IdentityFromContext extracts the authenticated identity from context.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(domain.Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware requires a valid bearer token and stores its identity in
// the request context. recorder may be nil.
func AuthMiddleware(jwtManager *auth.JWTManager, recorder AuthFailureRecorder) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, message string) {
		if recorder != nil {
			recorder.RecordAuthFailure(http.StatusUnauthorized)
		}
		http.Error(w, message, http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				reject(w, "missing authorization header")
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				reject(w, "invalid authorization header format")
				return
			}

			claims, err := jwtManager.Verify(token)
			if err != nil {
				reject(w, "invalid or expired token")
				return
			}

			ctx := WithIdentity(r.Context(), claims.Identity(token))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIdentity implements usecase.IdentityProvider: the identity of the
// authenticated request when there is one, otherwise the device identity.
type RequestIdentity struct {
	device usecase.IdentityProvider
}

// NewRequestIdentity creates a RequestIdentity falling back to device.
func NewRequestIdentity(device usecase.IdentityProvider) *RequestIdentity {
	return &RequestIdentity{device: device}
}

func (p *RequestIdentity) Current(ctx context.Context) (domain.Identity, error) {
	if id, ok := IdentityFromContext(ctx); ok {
		return id, nil
	}
	if p.device == nil {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return p.device.Current(ctx)
}
