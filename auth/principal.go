package auth

import (
	"context"
	"estate-desk/domain"
	"estate-desk/errors"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal injects the authenticated identity for downstream layers.
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// PrincipalFrom returns the identity injected by the interceptors.
func PrincipalFrom(ctx context.Context) (domain.Principal, error) {
	principal, ok := ctx.Value(principalKey).(domain.Principal)
	if !ok || principal.Email == "" {
		return domain.Principal{}, errors.ErrUnauthenticated
	}
	return principal, nil
}
