package auth

import "time"

// ServiceOutcome is the envelope every workflow operation returns.
// A successful outcome carries no errors, a failed one carries no data
// and no token.
type ServiceOutcome[T any] struct {
	Success         bool       `json:"success"`
	Message         string     `json:"message,omitempty"`
	Errors          []string   `json:"errors,omitempty"`
	Data            *T         `json:"data,omitempty"`
	Token           string     `json:"token,omitempty"`
	TokenExpiration *time.Time `json:"tokenExpiration,omitempty"`

	cause error
}

// Succeed builds a successful outcome
func Succeed[T any](data T, message string) ServiceOutcome[T] {
	return ServiceOutcome[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

// SucceedEmpty builds a successful outcome without payload
func SucceedEmpty[T any](message string) ServiceOutcome[T] {
	return ServiceOutcome[T]{
		Success: true,
		Message: message,
	}
}

// Authenticated builds a successful outcome carrying an identity token
func Authenticated[T any](data T, token string, expiresAt time.Time, message string) ServiceOutcome[T] {
	out := Succeed(data, message)
	out.Token = token
	exp := expiresAt
	out.TokenExpiration = &exp
	return out
}

// Fail builds a failed outcome. Empty and repeated error strings are dropped.
func Fail[T any](message string, errs ...string) ServiceOutcome[T] {
	return ServiceOutcome[T]{
		Success: false,
		Message: message,
		Errors:  compactErrors(errs),
	}
}

// FailWith is Fail with a classified cause. The cause never leaves the
// process; it drives OutcomeStatus and audit metadata.
func FailWith[T any](cause error, message string, errs ...string) ServiceOutcome[T] {
	out := Fail[T](message, errs...)
	out.cause = cause
	return out
}

// ValidationFailure builds the failed outcome used for rejected input
func ValidationFailure[T any](errs ...string) ServiceOutcome[T] {
	return FailWith[T](ErrValidation, MsgValidationFailed, errs...)
}

// Err returns the cause of a failed outcome, nil when none was recorded
func (o ServiceOutcome[T]) Err() error {
	return o.cause
}

// HasErrors reports whether any error strings were recorded
func (o ServiceOutcome[T]) HasErrors() bool {
	return len(o.Errors) > 0
}

func compactErrors(errs []string) []string {
	if len(errs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(errs))
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
