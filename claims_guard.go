package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// immutableClaimsSnapshot records every claim a decorator may not touch
type immutableClaimsSnapshot struct {
	subject   string
	issuer    string
	tokenID   string
	email     string
	audience  []string
	roles     []string
	issuedAt  *time.Time
	expiresAt *time.Time
}

func captureImmutableClaims(claims *JWTClaims) immutableClaimsSnapshot {
	return immutableClaimsSnapshot{
		subject:   claims.RegisteredClaims.Subject,
		issuer:    claims.RegisteredClaims.Issuer,
		tokenID:   claims.RegisteredClaims.ID,
		email:     claims.UserEmail,
		audience:  slices.Clone([]string(claims.RegisteredClaims.Audience)),
		roles:     slices.Clone(claims.RoleNames),
		issuedAt:  numericDateTime(claims.RegisteredClaims.IssuedAt),
		expiresAt: numericDateTime(claims.RegisteredClaims.ExpiresAt),
	}
}

func (snap immutableClaimsSnapshot) validate(claims *JWTClaims) error {
	switch {
	case claims.RegisteredClaims.Subject != snap.subject:
		return immutableClaimViolation("sub")
	case claims.RegisteredClaims.Issuer != snap.issuer:
		return immutableClaimViolation("iss")
	case claims.RegisteredClaims.ID != snap.tokenID:
		return immutableClaimViolation("jti")
	case claims.UserEmail != snap.email:
		return immutableClaimViolation("email")
	case !slices.Equal([]string(claims.RegisteredClaims.Audience), snap.audience):
		return immutableClaimViolation("aud")
	case !slices.Equal(claims.RoleNames, snap.roles):
		return immutableClaimViolation("roles")
	}

	if !sameTime(numericDateTime(claims.RegisteredClaims.IssuedAt), snap.issuedAt) {
		return immutableClaimViolation("iat")
	}

	if !sameTime(numericDateTime(claims.RegisteredClaims.ExpiresAt), snap.expiresAt) {
		return immutableClaimViolation("exp")
	}

	return nil
}

func numericDateTime(date *jwt.NumericDate) *time.Time {
	if date == nil {
		return nil
	}
	t := date.Time
	return &t
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func immutableClaimViolation(field string) error {
	clone := ErrImmutableClaimMutation.Clone()
	if clone == nil {
		return ErrImmutableClaimMutation
	}
	clone.Message = fmt.Sprintf("immutable claim mutated: %s", field)
	clone.Source = ErrImmutableClaimMutation
	return clone.WithMetadata(map[string]any{"claim": field})
}
