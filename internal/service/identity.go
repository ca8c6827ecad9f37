package service

import (
	"context"
	"errors"

	"playlist_service/internal/auth"

	"github.com/gofrs/uuid"
)

// ResolveToken turns a bearer token into an admin principal. Revocation is
// checked before the signature so a logged-out token is reported as revoked
// even while it still verifies.
func (s *service) ResolveToken(ctx context.Context, token string) (auth.Principal, error) {
	const op = "service.ResolveToken"

	if token == "" {
		return auth.Principal{}, unauthorized("missing", "authorization token required")
	}

	revoked, err := s.sessions.IsRevoked(ctx, token)
	if err != nil {
		return auth.Principal{}, internal(op, err)
	}
	if revoked {
		return auth.Principal{}, unauthorized("revoked", "token has been revoked")
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return auth.Principal{}, unauthorized("expired", "token has expired")
		}
		return auth.Principal{}, unauthorized("invalid", "invalid token")
	}

	return auth.AdminPrincipal(claims, token), nil
}

// ResolvePin finds the restricted profile owning pin. With a non-nil adminID
// only that admin's profiles are considered; otherwise the pin must match
// exactly one profile.
func (s *service) ResolvePin(ctx context.Context, pin string, adminID uuid.UUID) (auth.Principal, error) {
	const op = "service.ResolvePin"

	if pin == "" {
		return auth.Principal{}, unauthorized("missing", "PIN required for restricted access")
	}

	profiles, err := s.storage.FindProfilesByPin(ctx, pin, adminID)
	if err != nil {
		return auth.Principal{}, internal(op, err)
	}

	switch len(profiles) {
	case 0:
		return auth.Principal{}, unauthorized("invalid_pin", "invalid PIN")
	case 1:
		return auth.RestrictedPrincipal(profiles[0].ID, profiles[0].AdminID), nil
	default:
		return auth.Principal{}, unauthorized("ambiguous_pin", "PIN does not identify a single profile")
	}
}
