package auth

import (
	"context"
	"time"
)

// Logger is the logging contract used across the package. Messages are
// followed by alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Roles() RoleType
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetSigningKeyID() string
	GetTokenExpiration() time.Duration
	GetClockSkew() time.Duration
	GetIssuer() string
	GetAudience() []string
	GetFrontendBaseURL() string
	GetResetPasswordPath() string
	GetRequireConfirmedEmail() bool
	GetRoleCheckConcurrency() int
	GetOperationTimeout() time.Duration
	GetNotificationTimeout() time.Duration
	GetPasswordPolicy() PasswordPolicy
	GetPhoneRegion() string
}

// TokenIssuer mints identity tokens
type TokenIssuer interface {
	Issue(identity Identity, roles RoleType) (string, time.Time, error)
}

// StoreError is a single user safe failure reported by a CredentialStore
type StoreError struct {
	Code        string
	Description string
}

// StoreResult is the structured business outcome of a store mutation.
// Infrastructure failures travel on the error return instead.
type StoreResult struct {
	Errors []StoreError
}

// StoreSuccess is the empty, successful StoreResult
func StoreSuccess() StoreResult {
	return StoreResult{}
}

// StoreFailure builds a failed StoreResult with a single error
func StoreFailure(code, description string) StoreResult {
	return StoreResult{Errors: []StoreError{{Code: code, Description: description}}}
}

// Succeeded reports whether no errors were recorded
func (r StoreResult) Succeeded() bool {
	return len(r.Errors) == 0
}

// Descriptions returns the user facing error descriptions
func (r StoreResult) Descriptions() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Description)
	}
	return out
}

// HasCode reports whether any recorded error carries code
func (r StoreResult) HasCode(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Store error codes shared by CredentialStore implementations
const (
	StoreCodeDuplicateEmail    = "DuplicateEmail"
	StoreCodeDuplicateUserName = "DuplicateUserName"
	StoreCodePasswordMismatch  = "PasswordMismatch"
	StoreCodePasswordPolicy    = "PasswordPolicy"
	StoreCodeInvalidToken      = "InvalidToken"
	StoreCodeInvalidRole       = "InvalidRole"
)

// CredentialStore persists principals, credentials, roles and recovery
// secrets. Lookups return ErrUserNotFound when nothing matches.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User, password string) (StoreResult, error)
	VerifyPassword(ctx context.Context, user *User, password string) (bool, error)
	ChangePassword(ctx context.Context, user *User, current, next string) (StoreResult, error)
	AddRole(ctx context.Context, user *User, role RoleType) (StoreResult, error)
	RemoveRole(ctx context.Context, user *User, role RoleType) (StoreResult, error)
	ReplaceRoles(ctx context.Context, user *User, roles RoleType) (StoreResult, error)
	RoleExists(ctx context.Context, name string) (bool, error)
	GeneratePasswordResetSecret(ctx context.Context, user *User) (string, error)
	ConsumePasswordResetSecret(ctx context.Context, user *User, secret, newPassword string) (StoreResult, error)
	VerifyPasswordResetSecret(ctx context.Context, user *User, secret string) (bool, error)
	Update(ctx context.Context, user *User) (StoreResult, error)
	Delete(ctx context.Context, user *User) (StoreResult, error)
}

// Recipient addresses a notification
type Recipient struct {
	Email string
	Name  string
}

// Notifier delivers account notifications. Failures are reported to
// the caller but never change the outcome of an operation.
type Notifier interface {
	SendWelcome(ctx context.Context, to Recipient) error
	SendAccountCreated(ctx context.Context, to Recipient, tempPassword string) error
	SendPasswordChanged(ctx context.Context, to Recipient) error
	SendPasswordReset(ctx context.Context, to Recipient, callbackURL string) error
	SendRoleAssignmentNotice(ctx context.Context, to Recipient, roles []string) error
}
