package auth

import (
	"context"
	"strings"
)

// ValidateResetToken reports whether token is currently valid for email
// without consuming it.
func (s *AuthService) ValidateResetToken(ctx context.Context, email, token string) ServiceOutcome[bool] {
	return run(s, ctx, "validate_reset_token", func(ctx context.Context) (ServiceOutcome[bool], error) {
		return s.validateResetToken(ctx, email, token)
	})
}

func (s *AuthService) validateResetToken(ctx context.Context, email, token string) (ServiceOutcome[bool], error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(token) == "" {
		return FailWith[bool](ErrInvalidResetToken, MsgInvalidResetToken), nil
	}

	user, err := s.findUserByEmail(ctx, "validate_reset_token", email)
	if err != nil {
		return ServiceOutcome[bool]{}, err
	}
	if user == nil {
		return FailWith[bool](ErrInvalidResetToken, MsgInvalidResetToken), nil
	}

	secret, err := s.recovery.Decode(token)
	if err != nil {
		if !IsInvalidToken(err) {
			return ServiceOutcome[bool]{}, err
		}
		return FailWith[bool](ErrInvalidResetToken, MsgInvalidResetToken), nil
	}

	ok, err := s.recovery.Validate(ctx, user, secret)
	if err != nil {
		return ServiceOutcome[bool]{}, err
	}
	if !ok {
		return FailWith[bool](ErrInvalidResetToken, MsgInvalidResetToken), nil
	}

	return Succeed(true, MsgResetTokenValid), nil
}
