package auth

import "context"

// AssignRoles replaces every role of req.UserID with req.Roles. Assigning
// the same set twice is a no-op.
func (s *AuthService) AssignRoles(ctx context.Context, req AssignRolesRequest, actingAdminID string) ServiceOutcome[UserInfo] {
	return run(s, ctx, "assign_roles", func(ctx context.Context) (ServiceOutcome[UserInfo], error) {
		return s.assignRoles(ctx, req, actingAdminID)
	})
}

func (s *AuthService) assignRoles(ctx context.Context, req AssignRolesRequest, actingAdminID string) (ServiceOutcome[UserInfo], error) {
	if err := req.Validate(); err != nil {
		return ValidationFailure[UserInfo](ValidationMessages(err)...), nil
	}

	names := uniqueRoleNames(req.Roles)

	var invalid []string
	for _, name := range names {
		ok, err := s.roleExists(ctx, name)
		if err != nil {
			return ServiceOutcome[UserInfo]{}, storeErr(ctx, err, "assign_roles")
		}
		if !ok {
			invalid = append(invalid, name)
		}
	}
	if len(invalid) > 0 {
		return FailWith[UserInfo](ErrInvalidRoles, MsgInvalidRoles, invalid...), nil
	}

	user, err := s.findUser(ctx, "assign_roles", req.UserID)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, err
	}
	if user == nil {
		return FailWith[UserInfo](ErrUserNotFound, MsgUserNotFound), nil
	}

	previous := user.Roles
	roles := FromNames(names)

	result, err := s.store.ReplaceRoles(ctx, user, roles)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, storeErr(ctx, err, "assign_roles")
	}
	if !result.Succeeded() {
		return storeFailure[UserInfo](result, MsgRoleAssignmentFailed), nil
	}

	user.Roles = roles

	s.logger.Info("roles assigned", "user_id", user.ID.String(), "actor_id", actingAdminID,
		"from", previous.String(), "to", roles.String())

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventRolesAssigned,
		ActorID:   actingAdminID,
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"from": ToNames(previous),
			"to":   ToNames(roles),
		},
	})

	s.notify(ctx, "assign_roles", user, func(ctx context.Context) error {
		return s.notifier.SendRoleAssignmentNotice(ctx, user.Recipient(), ToNames(roles))
	})

	return Succeed(NewUserInfo(user), MsgRolesAssigned), nil
}
