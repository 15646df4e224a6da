package auth

import (
	"context"
	"strings"
)

// DeleteUser removes userID. Deletion is terminal.
func (s *AuthService) DeleteUser(ctx context.Context, userID, actingAdminID string) ServiceOutcome[UserInfo] {
	return run(s, ctx, "delete_user", func(ctx context.Context) (ServiceOutcome[UserInfo], error) {
		user, err := s.findUser(ctx, "delete_user", userID)
		if err != nil {
			return ServiceOutcome[UserInfo]{}, err
		}
		if user == nil {
			return FailWith[UserInfo](ErrUserNotFound, MsgUserNotFound), nil
		}

		result, err := s.store.Delete(ctx, user)
		if err != nil {
			return ServiceOutcome[UserInfo]{}, storeErr(ctx, err, "delete_user")
		}
		if !result.Succeeded() {
			return storeFailure[UserInfo](result, MsgUserDeleteFailed), nil
		}

		s.record(ctx, ActivityEvent{
			EventType: ActivityEventUserDeleted,
			ActorID:   actingAdminID,
			UserID:    user.ID.String(),
		})

		return Succeed(NewUserInfo(user), MsgUserDeleted), nil
	})
}

// UpdateProfile changes the non empty fields of req on userID
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) ServiceOutcome[UserInfo] {
	return run(s, ctx, "update_profile", func(ctx context.Context) (ServiceOutcome[UserInfo], error) {
		req = req.WithRegion(s.phoneRegion)
		if err := req.Validate(); err != nil {
			return ValidationFailure[UserInfo](ValidationMessages(err)...), nil
		}

		user, err := s.findUser(ctx, "update_profile", userID)
		if err != nil {
			return ServiceOutcome[UserInfo]{}, err
		}
		if user == nil {
			return FailWith[UserInfo](ErrUserNotFound, MsgUserNotFound), nil
		}

		changed := *user
		if v := strings.TrimSpace(req.Username); v != "" {
			changed.Username = v
		}
		if v := strings.TrimSpace(req.FirstName); v != "" {
			changed.FirstName = v
		}
		if v := strings.TrimSpace(req.LastName); v != "" {
			changed.LastName = v
		}
		if strings.TrimSpace(req.PhoneNumber) != "" {
			phone, err := NormalizePhoneNumber(req.PhoneNumber, s.phoneRegion)
			if err != nil {
				return ValidationFailure[UserInfo]("phoneNumber: must be a valid phone number"), nil
			}
			changed.Phone = phone
		}

		result, err := s.store.Update(ctx, &changed)
		if err != nil {
			return ServiceOutcome[UserInfo]{}, storeErr(ctx, err, "update_profile")
		}
		if !result.Succeeded() {
			return storeFailure[UserInfo](result, MsgProfileUpdateFailed), nil
		}

		s.record(ctx, ActivityEvent{
			EventType: ActivityEventProfileUpdated,
			ActorID:   changed.ID.String(),
			UserID:    changed.ID.String(),
		})

		return Succeed(NewUserInfo(&changed), MsgProfileUpdated), nil
	})
}

// LoadProfile returns the redacted profile of userID
func (s *AuthService) LoadProfile(ctx context.Context, userID string) ServiceOutcome[UserInfo] {
	return run(s, ctx, "load_profile", func(ctx context.Context) (ServiceOutcome[UserInfo], error) {
		user, err := s.findUser(ctx, "load_profile", userID)
		if err != nil {
			return ServiceOutcome[UserInfo]{}, err
		}
		if user == nil {
			return FailWith[UserInfo](ErrUserNotFound, MsgUserNotFound), nil
		}
		return Succeed(NewUserInfo(user), MsgProfileLoaded), nil
	})
}
