package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse phone numbers without a country code
const DefaultPhoneRegion = "US"

// RegisterRequest is the input for Register
type RegisterRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Roles     []string `json:"roles"`
	// DeterministicID derives the user id from the email address
	DeterministicID bool `json:"-"`
}

// Validate checks the request shape
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Username, validation.Length(0, 50)),
		validation.Field(&r.Password, validation.Length(6, 100)),
	)
}

// LoginRequest is the input for Login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the request shape
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ChangePasswordRequest is the input for ChangePassword
type ChangePasswordRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword,omitempty"`
}

// Validate checks the request shape. The confirmation is optional but
// must match when given.
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.ConfirmNewPassword, validation.By(ValidateOptionalEquals(r.NewPassword))),
	)
}

// ForgotPasswordRequest is the input for ForgotPassword
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate checks the request shape
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ResetPasswordRequest is the input for ResetPassword
type ResetPasswordRequest struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// Validate checks the request shape
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.ConfirmPassword, validation.By(ValidateOptionalEquals(r.NewPassword))),
	)
}

// AssignRolesRequest is the input for AssignRoles
type AssignRolesRequest struct {
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

// Validate checks the request shape. An empty role list clears all roles.
func (r AssignRolesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
	)
}

// UpdateProfileRequest is the input for UpdateProfile. Empty fields are
// left unchanged.
type UpdateProfileRequest struct {
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`

	region string
}

// WithRegion sets the default region used to parse PhoneNumber
func (r UpdateProfileRequest) WithRegion(region string) UpdateProfileRequest {
	r.region = region
	return r
}

// Validate checks the request shape
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(1, 50)),
		validation.Field(&r.FirstName, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Length(1, 200)),
		validation.Field(&r.PhoneNumber, validation.By(ValidatePhoneNumber(r.region))),
	)
}

// ValidateOptionalEquals checks that a non empty value matches str
func ValidateOptionalEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber checks that a non empty value is a dialable number
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, err := NormalizePhoneNumber(s, region); err != nil {
			return errors.New("must be a valid phone number")
		}
		return nil
	}
}

// NormalizePhoneNumber parses number and formats it as E.164
func NormalizePhoneNumber(number, region string) (string, error) {
	if region == "" {
		region = DefaultPhoneRegion
	}
	num, err := phonenumbers.Parse(strings.TrimSpace(number), strings.ToUpper(region))
	if err != nil {
		return "", err
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", number)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// ValidationMessages flattens a validation error into sorted "field: message" strings
func ValidationMessages(err error) []string {
	if err == nil {
		return nil
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if verrs[field] == nil {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", field, verrs[field].Error()))
	}
	return out
}
