package auth

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// User facing outcome messages
const (
	MsgValidationFailed     = "Validation failed."
	MsgUnexpectedError      = "An unexpected error occurred. Please try again later."
	MsgOperationCancelled   = "The operation was cancelled."
	MsgUserRegistered       = "User registered successfully!"
	MsgRegistrationFailed   = "Failed to create user."
	MsgDuplicateEmail       = "User with this email already exists."
	MsgInvalidRoles         = "One or more roles are invalid."
	MsgInvalidLogin         = "Invalid login attempt."
	MsgEmailNotConfirmed    = "Email address has not been confirmed."
	MsgLoginSuccessful      = "Login successful!"
	MsgUserNotFound         = "User not found."
	MsgPasswordChanged      = "Password changed successfully."
	MsgPasswordChangeFailed = "Password change failed."
	MsgForgotPassword       = "If your email is registered, you will receive a password reset link."
	MsgInvalidResetAttempt  = "Invalid password reset attempt."
	MsgInvalidResetToken    = "Invalid reset token."
	MsgPasswordResetFailed  = "Password reset failed."
	MsgPasswordReset        = "Password has been reset successfully."
	MsgResetTokenValid      = "Reset token is valid."
	MsgRolesAssigned        = "Roles assigned successfully."
	MsgRoleAssignmentFailed = "Failed to assign roles."
	MsgUserDeleted          = "User deleted successfully."
	MsgUserDeleteFailed     = "Failed to delete user."
	MsgProfileUpdated       = "Profile updated successfully."
	MsgProfileUpdateFailed  = "Failed to update profile."
	MsgProfileLoaded        = "Profile loaded successfully."
)

const (
	DefaultResetPasswordPath = "/auth/reset-password"
	DefaultOperationTimeout  = 10 * time.Second
	DefaultNotifyTimeout     = 5 * time.Second
	DefaultRoleCheckLimit    = 8

	resetPasswordEmailParam = "email"
	resetPasswordTokenParam = "token"
	operationLogKey         = "operation"
)

// AuthService runs the account workflows. Every public operation returns a
// ServiceOutcome; unexpected failures are logged and reported generically.
type AuthService struct {
	store                 CredentialStore
	tokens                TokenIssuer
	recovery              *RecoveryCodec
	notifier              Notifier
	logger                Logger
	activity              ActivitySink
	policy                PasswordPolicy
	frontendBaseURL       string
	resetPasswordPath     string
	phoneRegion           string
	requireConfirmedEmail bool
	roleCheckLimit        int
	operationTimeout      time.Duration
	notifyTimeout         time.Duration
}

// NewAuthService wires the workflow engine from its ports and config
func NewAuthService(cfg Config, store CredentialStore, tokens TokenIssuer, notifier Notifier) *AuthService {
	s := &AuthService{
		store:             store,
		tokens:            tokens,
		notifier:          notifier,
		logger:            defLogger(),
		activity:          noopActivitySink{},
		policy:            DefaultPasswordPolicy(),
		resetPasswordPath: DefaultResetPasswordPath,
		phoneRegion:       DefaultPhoneRegion,
		roleCheckLimit:    DefaultRoleCheckLimit,
		operationTimeout:  DefaultOperationTimeout,
		notifyTimeout:     DefaultNotifyTimeout,
	}

	if cfg != nil {
		s.frontendBaseURL = cfg.GetFrontendBaseURL()
		s.requireConfirmedEmail = cfg.GetRequireConfirmedEmail()
		if p := cfg.GetResetPasswordPath(); p != "" {
			s.resetPasswordPath = p
		}
		if r := cfg.GetPhoneRegion(); r != "" {
			s.phoneRegion = r
		}
		if n := cfg.GetRoleCheckConcurrency(); n > 0 {
			s.roleCheckLimit = n
		}
		if d := cfg.GetOperationTimeout(); d > 0 {
			s.operationTimeout = d
		}
		if d := cfg.GetNotificationTimeout(); d > 0 {
			s.notifyTimeout = d
		}
		if p := cfg.GetPasswordPolicy(); p != (PasswordPolicy{}) {
			s.policy = p
		}
	}

	s.recovery = NewRecoveryCodec(store, s.logger)
	return s
}

// WithLogger sets the logger
func (s *AuthService) WithLogger(logger Logger) *AuthService {
	s.logger = normalizeLogger(logger)
	s.recovery = NewRecoveryCodec(s.store, s.logger)
	return s
}

// WithActivitySink sets the sink used for audit events and counters
func (s *AuthService) WithActivitySink(sink ActivitySink) *AuthService {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithPasswordPolicy overrides the policy used for generated passwords
func (s *AuthService) WithPasswordPolicy(policy PasswordPolicy) *AuthService {
	s.policy = policy
	return s
}

// begin applies the operation timeout after checking ctx is still alive
func (s *AuthService) begin(ctx context.Context, op string) (context.Context, context.CancelFunc, error) {
	select {
	case <-ctx.Done():
		return ctx, func() {}, cancelledError(ctx.Err(), op)
	default:
	}
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	return ctx, cancel, nil
}

// notify runs send in its own goroutine bounded by the notification
// timeout and waits for it. Failures are logged and counted only.
func (s *AuthService) notify(ctx context.Context, op string, user *User, send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}

	nctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("notifier panic: %v", r)
			}
		}()
		done <- send(nctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-nctx.Done():
		err = nctx.Err()
	}

	if err == nil {
		return
	}

	s.logger.Warn("notification failed", operationLogKey, op, "user_id", user.ID.String(), "error", err)
	s.record(ctx, ActivityEvent{
		EventType: ActivityEventNotificationFailed,
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"operation": op, "error": err.Error()},
	})
}

// record forwards an event to the activity sink. Sink errors are logged.
func (s *AuthService) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink failed", "event", string(event.EventType), "error", err)
	}
}

// failUnexpected logs an infrastructure or unexpected failure with its metadata and
// returns the generic outcome for it.
func failUnexpected[T any](logger Logger, op string, err error) ServiceOutcome[T] {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Category == goerrors.CategoryOperation {
			logger.Warn("operation cancelled", operationLogKey, op, "error", err)
			return FailWith[T](richErr, MsgOperationCancelled)
		}
		logger.Error("operation failed", operationLogKey, op, "error", err,
			"text_code", richErr.TextCode, "metadata", print.MaybePrettyJSON(richErr.Metadata))
		return FailWith[T](richErr, MsgUnexpectedError)
	}

	logger.Error("operation failed", operationLogKey, op, "error", err)
	return FailWith[T](errUnexpected, MsgUnexpectedError)
}

// recoverOutcome turns a panic into the generic failure outcome
func recoverOutcome[T any](logger Logger, op string, out *ServiceOutcome[T]) {
	if r := recover(); r != nil {
		logger.Error("operation panicked", operationLogKey, op, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		*out = FailWith[T](errUnexpected, MsgUnexpectedError)
	}
}

// storeFailure turns a rejected StoreResult into a failed outcome
// classified by its store codes.
func storeFailure[T any](result StoreResult, message string) ServiceOutcome[T] {
	return FailWith[T](storeCause(result), message, result.Descriptions()...)
}

func storeCause(result StoreResult) error {
	switch {
	case result.HasCode(StoreCodeDuplicateEmail):
		return ErrDuplicateEmail
	case result.HasCode(StoreCodeDuplicateUserName):
		return ErrDuplicateUserName
	case result.HasCode(StoreCodeInvalidRole):
		return ErrInvalidRoles
	case result.HasCode(StoreCodeInvalidToken):
		return ErrInvalidResetToken
	default:
		return ErrValidation
	}
}

// storeErr classifies an error returned by the store
func storeErr(ctx context.Context, err error, op string) error {
	if ctx.Err() != nil {
		return cancelledError(ctx.Err(), op)
	}
	return infraError(err, "credential store failure during "+op)
}

// run is the boundary shared by every operation: cancellation check,
// operation timeout, panic recovery and conversion of unexpected errors.
func run[T any](s *AuthService, ctx context.Context, op string, fn func(ctx context.Context) (ServiceOutcome[T], error)) (out ServiceOutcome[T]) {
	defer recoverOutcome(s.logger, op, &out)

	ctx, cancel, err := s.begin(ctx, op)
	defer cancel()
	if err != nil {
		return failUnexpected[T](s.logger, op, err)
	}

	out, err = fn(ctx)
	if err != nil {
		return failUnexpected[T](s.logger, op, err)
	}
	return out
}

// findUser loads a principal by id. A nil user with nil error means not found.
func (s *AuthService) findUser(ctx context.Context, op, id string) (*User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, storeErr(ctx, err, op)
	}
	return user, nil
}

// findUserByEmail loads a principal by email. A nil user with nil error means not found.
func (s *AuthService) findUserByEmail(ctx context.Context, op, email string) (*User, error) {
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, storeErr(ctx, err, op)
	}
	return user, nil
}

// uniqueRoleNames trims, drops blanks and de-duplicates while keeping order
func uniqueRoleNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
