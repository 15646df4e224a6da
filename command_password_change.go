package auth

import "context"

// ChangePassword swaps the password of userID after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) ServiceOutcome[UserInfo] {
	return run(s, ctx, "change_password", func(ctx context.Context) (ServiceOutcome[UserInfo], error) {
		return s.changePassword(ctx, userID, req)
	})
}

func (s *AuthService) changePassword(ctx context.Context, userID string, req ChangePasswordRequest) (ServiceOutcome[UserInfo], error) {
	if err := req.Validate(); err != nil {
		return ValidationFailure[UserInfo](ValidationMessages(err)...), nil
	}

	user, err := s.findUser(ctx, "change_password", userID)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, err
	}
	if user == nil {
		return FailWith[UserInfo](ErrUserNotFound, MsgUserNotFound), nil
	}

	result, err := s.store.ChangePassword(ctx, user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, storeErr(ctx, err, "change_password")
	}
	if !result.Succeeded() {
		return storeFailure[UserInfo](result, MsgPasswordChangeFailed), nil
	}

	user.MustChangePassword = false

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventPasswordChanged,
		ActorID:   user.ID.String(),
		UserID:    user.ID.String(),
	})

	s.notify(ctx, "change_password", user, func(ctx context.Context) error {
		return s.notifier.SendPasswordChanged(ctx, user.Recipient())
	})

	return Succeed(NewUserInfo(user), MsgPasswordChanged), nil
}
