package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/splitsync/internal/domain"
)

// TokenIdentityProvider implements usecase.IdentityProvider from the access
// token configured on this device.
type TokenIdentityProvider struct {
	token   string
	manager *JWTManager
}

// NewTokenIdentityProvider creates a provider for token. With a nil manager
// the token's signature is not checked; only its claims are read.
func NewTokenIdentityProvider(token string, manager *JWTManager) *TokenIdentityProvider {
	return &TokenIdentityProvider{token: token, manager: manager}
}

// Current returns the identity encoded in the token.
func (p *TokenIdentityProvider) Current(ctx context.Context) (domain.Identity, error) {
	if p.token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}

	if p.manager != nil {
		claims, err := p.manager.Verify(p.token)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
		}
		return claims.Identity(p.token), nil
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(p.token, claims); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, domain.ErrInvalidToken)
	}
	if claims.UserID == "" || claims.Email == "" {
		return domain.Identity{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, domain.ErrInvalidToken)
	}
	return claims.Identity(p.token), nil
}
