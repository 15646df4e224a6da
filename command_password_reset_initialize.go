package auth

import (
	"context"
	"net/url"
	"strings"
)

// ForgotPassword starts password recovery. The outcome is the same whether
// or not the email belongs to an account, and store failures are not
// surfaced either.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) ServiceOutcome[bool] {
	return run(s, ctx, "forgot_password", func(ctx context.Context) (ServiceOutcome[bool], error) {
		if err := req.Validate(); err != nil {
			return ValidationFailure[bool](ValidationMessages(err)...), nil
		}
		s.initializePasswordReset(ctx, req.Email)
		return SucceedEmpty[bool](MsgForgotPassword), nil
	})
}

func (s *AuthService) initializePasswordReset(ctx context.Context, email string) {
	user, err := s.findUserByEmail(ctx, "forgot_password", email)
	if err != nil {
		s.logger.Error("password reset lookup failed", "error", err)
		return
	}

	if user == nil {
		s.logger.Debug("password reset requested for unknown email")
		return
	}

	if !user.EmailConfirmed {
		s.logger.Debug("password reset requested for unconfirmed account", "user_id", user.ID.String())
		return
	}

	token, err := s.recovery.Generate(ctx, user)
	if err != nil {
		s.logger.Error("password reset token generation failed", "user_id", user.ID.String(), "error", err)
		return
	}

	callbackURL := s.resetCallbackURL(user.Email, token)

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetRequested,
		UserID:    user.ID.String(),
	})

	s.notify(ctx, "forgot_password", user, func(ctx context.Context) error {
		return s.notifier.SendPasswordReset(ctx, user.Recipient(), callbackURL)
	})
}

// resetCallbackURL builds the frontend link carrying email and token
func (s *AuthService) resetCallbackURL(email, token string) string {
	q := url.Values{}
	q.Set(resetPasswordEmailParam, email)
	q.Set(resetPasswordTokenParam, token)

	path := s.resetPasswordPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return strings.TrimRight(s.frontendBaseURL, "/") + path + "?" + q.Encode()
}
