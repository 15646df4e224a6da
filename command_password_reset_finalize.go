package auth

import "context"

// ResetPassword completes password recovery with a token from ForgotPassword.
// Tokens are single use; the store rejects a second consumption.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) ServiceOutcome[bool] {
	return run(s, ctx, "reset_password", func(ctx context.Context) (ServiceOutcome[bool], error) {
		return s.resetPassword(ctx, req)
	})
}

func (s *AuthService) resetPassword(ctx context.Context, req ResetPasswordRequest) (ServiceOutcome[bool], error) {
	if err := req.Validate(); err != nil {
		return ValidationFailure[bool](ValidationMessages(err)...), nil
	}

	user, err := s.findUserByEmail(ctx, "reset_password", req.Email)
	if err != nil {
		return ServiceOutcome[bool]{}, err
	}
	if user == nil {
		return FailWith[bool](ErrInvalidResetToken, MsgInvalidResetAttempt), nil
	}

	secret, err := s.recovery.Decode(req.Token)
	if err != nil {
		if !IsInvalidToken(err) {
			return ServiceOutcome[bool]{}, err
		}
		return s.invalidResetToken(ctx, user, "malformed_token"), nil
	}

	result, err := s.store.ConsumePasswordResetSecret(ctx, user, secret, req.NewPassword)
	if err != nil {
		return ServiceOutcome[bool]{}, storeErr(ctx, err, "reset_password")
	}
	if !result.Succeeded() {
		// expired, consumed and foreign secrets look like a malformed token
		if result.HasCode(StoreCodeInvalidToken) {
			return s.invalidResetToken(ctx, user, "rejected_token"), nil
		}
		out := storeFailure[bool](result, MsgPasswordResetFailed)
		s.recordResetFailure(ctx, user, "store_rejected", out.Err())
		return out, nil
	}

	user.MustChangePassword = false
	user.EmailConfirmed = true

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetSuccess,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
	})

	s.notify(ctx, "reset_password", user, func(ctx context.Context) error {
		return s.notifier.SendPasswordChanged(ctx, user.Recipient())
	})

	return Succeed(true, MsgPasswordReset), nil
}

func (s *AuthService) invalidResetToken(ctx context.Context, user *User, reason string) ServiceOutcome[bool] {
	s.recordResetFailure(ctx, user, reason, ErrInvalidResetToken)
	return FailWith[bool](ErrInvalidResetToken, MsgInvalidResetToken)
}

func (s *AuthService) recordResetFailure(ctx context.Context, user *User, reason string, cause error) {
	s.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetFailure,
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"reason": reason, "code": TextCodeOf(cause)},
	})
}
