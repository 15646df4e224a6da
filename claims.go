package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the validated contents of an identity token
type AuthClaims interface {
	Subject() string
	UserID() string
	TokenID() string
	Email() string
	Roles() []string
	RoleMask() RoleType
	HasRole(role string) bool
	HasAnyRole(required RoleType) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UserEmail string         `json:"email,omitempty"`
	RoleNames []string       `json:"roles,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// TokenID returns the jti claim
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Roles returns a copy of the role claim entries
func (c *JWTClaims) Roles() []string {
	out := make([]string, len(c.RoleNames))
	copy(out, c.RoleNames)
	return out
}

// RoleMask folds the role claim entries into a RoleType, unknown names are ignored
func (c *JWTClaims) RoleMask() RoleType {
	return FromNames(c.RoleNames)
}

// HasRole checks if the claims carry the named role
func (c *JWTClaims) HasRole(role string) bool {
	r, ok := ParseRole(role)
	if !ok {
		return false
	}
	return Has(c.RoleMask(), r)
}

// HasAnyRole checks if the claims carry at least one of the required roles
func (c *JWTClaims) HasAnyRole(required RoleType) bool {
	return HasAny(c.RoleMask(), required)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
