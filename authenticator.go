package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Login verifies credentials and issues an identity token. Unknown emails
// and wrong passwords produce the same outcome.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) ServiceOutcome[UserInfo] {
	return run(s, ctx, "login", func(ctx context.Context) (ServiceOutcome[UserInfo], error) {
		return s.login(ctx, req)
	})
}

func (s *AuthService) login(ctx context.Context, req LoginRequest) (ServiceOutcome[UserInfo], error) {
	if err := req.Validate(); err != nil {
		return ValidationFailure[UserInfo](ValidationMessages(err)...), nil
	}

	user, err := s.findUserByEmail(ctx, "login", req.Email)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, err
	}
	if user == nil {
		return s.loginFailure(ctx, "", "unknown_email", ErrInvalidLogin, MsgInvalidLogin), nil
	}

	ok, err := s.store.VerifyPassword(ctx, user, req.Password)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, storeErr(ctx, err, "login")
	}
	if !ok {
		return s.loginFailure(ctx, user.ID.String(), "invalid_password", ErrInvalidLogin, MsgInvalidLogin), nil
	}

	if s.requireConfirmedEmail && !user.EmailConfirmed {
		return s.loginFailure(ctx, user.ID.String(), "email_not_confirmed", ErrEmailNotConfirmed, MsgEmailNotConfirmed), nil
	}

	token, expiresAt, err := s.tokens.Issue(NewIdentityFromUser(user), user.Roles)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return ServiceOutcome[UserInfo]{}, richErr
		}
		return ServiceOutcome[UserInfo]{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue identity token")
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"roles": ToNames(user.Roles)},
	})

	return Authenticated(NewUserInfo(user), token, expiresAt, MsgLoginSuccessful), nil
}

func (s *AuthService) loginFailure(ctx context.Context, userID, reason string, cause error, message string) ServiceOutcome[UserInfo] {
	s.logger.Debug("login rejected", "reason", reason)
	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		UserID:    userID,
		Metadata:  map[string]any{"reason": reason, "code": TextCodeOf(cause)},
	})
	return FailWith[UserInfo](cause, message)
}
