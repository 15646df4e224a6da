package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the principal model
type User struct {
	bun.BaseModel      `bun:"table:users,alias:usr"`
	ID                 uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email              string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Username           string     `bun:"username,notnull,unique" json:"username,omitempty"`
	FirstName          string     `bun:"first_name" json:"first_name,omitempty"`
	LastName           string     `bun:"last_name" json:"last_name,omitempty"`
	Phone              string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash       string     `bun:"password_hash" json:"-"`
	EmailConfirmed     bool       `bun:"is_email_verified,notnull,default:false" json:"is_email_verified"`
	MustChangePassword bool       `bun:"must_change_password,notnull,default:false" json:"must_change_password"`
	Roles              RoleType   `bun:"roles,notnull,default:0" json:"roles"`
	CreatedBy          *uuid.UUID `bun:"created_by,type:uuid,nullzero" json:"created_by,omitempty"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt          *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// DisplayName is the name used to greet the user
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Recipient addresses notifications for the user
func (u *User) Recipient() Recipient {
	return Recipient{Email: u.Email, Name: u.DisplayName()}
}

// UserInfo is the redacted profile view returned to callers
type UserInfo struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Username           string     `json:"username"`
	FirstName          string     `json:"firstName,omitempty"`
	LastName           string     `json:"lastName,omitempty"`
	Phone              string     `json:"phoneNumber,omitempty"`
	Roles              []string   `json:"roles"`
	EmailConfirmed     bool       `json:"emailConfirmed"`
	MustChangePassword bool       `json:"mustChangePassword"`
	CreatedBy          string     `json:"createdBy,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
}

// NewUserInfo builds the redacted view of u
func NewUserInfo(u *User) UserInfo {
	if u == nil {
		return UserInfo{Roles: []string{}}
	}
	info := UserInfo{
		ID:                 u.ID.String(),
		Email:              u.Email,
		Username:           u.Username,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Phone:              u.Phone,
		Roles:              ToNames(u.Roles),
		EmailConfirmed:     u.EmailConfirmed,
		MustChangePassword: u.MustChangePassword,
		CreatedAt:          u.CreatedAt,
	}
	if u.CreatedBy != nil {
		info.CreatedBy = u.CreatedBy.String()
	}
	return info
}

// NormalizeEmail lower cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
