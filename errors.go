package auth

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidation        = "VALIDATION_FAILED"
	TextCodeUserNotFound      = "USER_NOT_FOUND"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeDuplicateUserName = "DUPLICATE_USERNAME"
	TextCodeInvalidRoles      = "INVALID_ROLES"
	TextCodeInvalidToken      = "INVALID_TOKEN"
	TextCodeForbidden         = "FORBIDDEN"
	TextCodeInvalidLogin      = "INVALID_LOGIN"
	TextCodeEmailUnconfirmed  = "EMAIL_NOT_CONFIRMED"
	TextCodeImmutableClaim    = "IMMUTABLE_CLAIM_MUTATION"
	TextCodeCancelled         = "OPERATION_CANCELLED"
	TextCodeInfraUnavailable  = "INFRA_UNAVAILABLE"
	TextCodeInvalidSigningKey = "INVALID_SIGNING_KEY"
)

// ErrValidation is returned when request input fails validation
var ErrValidation = goerrors.New("validation failed", goerrors.CategoryValidation).
	WithTextCode(TextCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrUserNotFound is returned by a CredentialStore when no principal matches
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrDuplicateEmail is returned when registering an email that is taken
var ErrDuplicateEmail = goerrors.New("user with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrDuplicateUserName is returned when a username is taken
var ErrDuplicateUserName = goerrors.New("user with this username already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateUserName).
	WithCode(goerrors.CodeConflict)

// ErrInvalidRoles is returned when requested role names do not exist
var ErrInvalidRoles = goerrors.New("one or more roles are invalid", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRoles).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidToken covers every identity or recovery token failure.
// Callers never learn which check failed.
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidResetToken is the one outcome for malformed, expired, consumed
// and mismatched recovery tokens. It shares the INVALID_TOKEN text code.
var ErrInvalidResetToken = goerrors.New("invalid reset token", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrForbidden is the single denial returned by the Guard
var ErrForbidden = goerrors.New("forbidden", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidLogin is returned for unknown emails and wrong passwords alike
var ErrInvalidLogin = goerrors.New("invalid login attempt", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidLogin).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotConfirmed is returned by login when confirmation is required
var ErrEmailNotConfirmed = goerrors.New("email address has not been confirmed", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailUnconfirmed).
	WithCode(goerrors.CodeForbidden)

// ErrImmutableClaimMutation is returned when a decorator touches a protected claim
var ErrImmutableClaimMutation = goerrors.New("immutable claim mutated", goerrors.CategoryInternal).
	WithTextCode(TextCodeImmutableClaim).
	WithCode(goerrors.CodeInternal)

// ErrInvalidSigningKey is returned when the configured key cannot be used
var ErrInvalidSigningKey = goerrors.New("invalid signing key", goerrors.CategoryInternal).
	WithTextCode(TextCodeInvalidSigningKey).
	WithCode(goerrors.CodeInternal)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// IsNotFound reports whether err signals a missing principal
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserNotFound) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryNotFound
	}
	return false
}

// IsInvalidToken reports whether err is a token failure
func IsInvalidToken(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInvalidToken) {
		return true
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeInvalidToken
	}
	return false
}

var errUnexpected = goerrors.New("unexpected failure", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal)

// TextCodeOf returns the go-errors text code carried by err, if any
func TextCodeOf(err error) string {
	var richErr *goerrors.Error
	if err != nil && goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}

func cancelledError(err error, op string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled during "+op).
		WithTextCode(TextCodeCancelled)
}

func infraError(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg).
		WithTextCode(TextCodeInfraUnavailable)
}
