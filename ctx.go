package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is the router context store key holding AuthClaims
const DefaultContextKey = "user"

type claimsKey struct{}

// WithClaimsContext returns a copy of ctx carrying claims
func WithClaimsContext(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims returns the claims stored by WithClaimsContext
func GetClaims(ctx context.Context) (AuthClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	claims, ok := ctx.Value(claimsKey{}).(AuthClaims)
	return claims, ok && claims != nil
}

// GetRouterClaims reads claims from the router context store under key and falls
// back to the request context.
func GetRouterClaims(c router.Context, key string) (AuthClaims, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	if claims, ok := c.Get(key, nil).(AuthClaims); ok && claims != nil {
		return claims, true
	}
	return GetClaims(c.Context())
}

// Can reports whether the caller in ctx holds any of required
func Can(ctx context.Context, required RoleType) bool {
	claims, ok := GetClaims(ctx)
	return ok && HasAny(claims.RoleMask(), required)
}

// CanFromRouter is Can for router contexts
func CanFromRouter(c router.Context, required RoleType) bool {
	claims, ok := GetRouterClaims(c, "")
	return ok && HasAny(claims.RoleMask(), required)
}
