package auth

import (
	"context"

	"github.com/gofrs/uuid"
)

type PrincipalKind int

const (
	KindAnonymous PrincipalKind = iota
	KindAdmin
	KindRestricted
)

func (k PrincipalKind) String() string {
	switch k {
	case KindAdmin:
		return "admin"
	case KindRestricted:
		return "restricted"
	default:
		return "anonymous"
	}
}

// Principal is the identity a request was resolved to. An admin principal
// carries the verified session claims and the raw token it came from; a
// restricted principal carries the profile id and the admin owning it.
type Principal struct {
	Kind      PrincipalKind
	ID        uuid.UUID
	Email     string
	Name      string
	AdminID   uuid.UUID
	Token     string
	ExpiresAt int64
}

func AdminPrincipal(claims *Claims, token string) Principal {
	p := Principal{
		Kind:    KindAdmin,
		ID:      claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
		AdminID: claims.UserID,
		Token:   token,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return p
}

func RestrictedPrincipal(profileID, adminID uuid.UUID) Principal {
	return Principal{
		Kind:    KindRestricted,
		ID:      profileID,
		AdminID: adminID,
	}
}

func (p Principal) IsAdmin() bool {
	return p.Kind == KindAdmin
}

func (p Principal) IsRestricted() bool {
	return p.Kind == KindRestricted
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal attached to ctx, or an anonymous one.
func FromContext(ctx context.Context) Principal {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok {
		return Principal{Kind: KindAnonymous}
	}

	return p
}
