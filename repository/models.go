package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PurposePasswordReset scopes reset secrets to password recovery
const PurposePasswordReset = "password_reset"

const (
	// ResetRequestedStatus is an outstanding secret
	ResetRequestedStatus = "requested"
	// ResetExpiredStatus is a secret superseded by a newer one
	ResetExpiredStatus = "expired"
	// ResetChangedStatus is a consumed secret
	ResetChangedStatus = "changed"
)

// RoleRecord is a role known to the store
type RoleRecord struct {
	bun.BaseModel `bun:"table:roles,alias:rl"`
	Name          string     `bun:"name,pk" json:"name"`
	Bit           uint       `bun:"bit,notnull,unique" json:"bit"`
	Description   string     `bun:"description" json:"description,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// PasswordReset is a hashed, purpose scoped recovery secret
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pwdr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Purpose       string     `bun:"purpose,notnull" json:"purpose,omitempty"`
	SecretHash    string     `bun:"secret_hash,notnull" json:"-"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	ResetedAt     *time.Time `bun:"reseted_at,nullzero" json:"reseted_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// MarkPasswordAsReseted flags the reset as consumed at now
func (p *PasswordReset) MarkPasswordAsReseted(now time.Time) *PasswordReset {
	p.Status = ResetChangedStatus
	p.ResetedAt = &now
	p.UpdatedAt = &now
	return p
}
