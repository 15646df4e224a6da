package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Register creates a principal. registrar is the admin creating the
// account, nil for self registration. When req.Password is empty a
// temporary password is generated and emailed to the user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, registrar *User) ServiceOutcome[UserInfo] {
	return run(s, ctx, "register", func(ctx context.Context) (ServiceOutcome[UserInfo], error) {
		return s.register(ctx, req, registrar)
	})
}

func (s *AuthService) register(ctx context.Context, req RegisterRequest, registrar *User) (ServiceOutcome[UserInfo], error) {
	if err := req.Validate(); err != nil {
		return ValidationFailure[UserInfo](ValidationMessages(err)...), nil
	}

	email := NormalizeEmail(req.Email)

	existing, err := s.findUserByEmail(ctx, "register", email)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, err
	}
	if existing != nil {
		s.recordRegistrationFailure(ctx, registrar, email, "duplicate_email")
		return FailWith[UserInfo](ErrDuplicateEmail, MsgDuplicateEmail), nil
	}

	names := uniqueRoleNames(req.Roles)
	invalid, err := s.findInvalidRolesConcurrently(ctx, names)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, err
	}
	if len(invalid) > 0 {
		s.recordRegistrationFailure(ctx, registrar, email, "invalid_roles")
		return FailWith[UserInfo](ErrInvalidRoles, MsgInvalidRoles, invalid...), nil
	}

	password := req.Password
	generated := password == ""
	if generated {
		if password, err = s.policy.Generate(); err != nil {
			return ServiceOutcome[UserInfo]{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate password")
		}
	}

	user := &User{
		Email:              email,
		Username:           usernameFor(req.Username, email),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Roles:              FromNames(names),
		MustChangePassword: generated,
	}

	if registrar != nil {
		createdBy := registrar.ID
		user.CreatedBy = &createdBy
	}

	if req.DeterministicID {
		if id, err := hashid.NewUUID(email); err == nil {
			user.ID = id
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	result, err := s.store.Create(ctx, user, password)
	if err != nil {
		return ServiceOutcome[UserInfo]{}, storeErr(ctx, err, "register")
	}

	if !result.Succeeded() {
		if result.HasCode(StoreCodeDuplicateEmail) {
			s.recordRegistrationFailure(ctx, registrar, email, "duplicate_email")
			return FailWith[UserInfo](ErrDuplicateEmail, MsgDuplicateEmail), nil
		}
		s.recordRegistrationFailure(ctx, registrar, email, "store_rejected")
		return storeFailure[UserInfo](result, MsgRegistrationFailed), nil
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		ActorID:   actorID(registrar, user),
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"roles":              ToNames(user.Roles),
			"generated_password": generated,
		},
	})

	if generated {
		s.notify(ctx, "register", user, func(ctx context.Context) error {
			return s.notifier.SendAccountCreated(ctx, user.Recipient(), password)
		})
	} else {
		s.notify(ctx, "register", user, func(ctx context.Context) error {
			return s.notifier.SendWelcome(ctx, user.Recipient())
		})
	}

	return Succeed(NewUserInfo(user), MsgUserRegistered), nil
}

// findInvalidRolesConcurrently checks every name against the store in
// parallel and waits for all checks. Invalid names keep request order.
func (s *AuthService) findInvalidRolesConcurrently(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	found := make([]bool, len(names))

	var g errgroup.Group
	if s.roleCheckLimit > 0 {
		g.SetLimit(s.roleCheckLimit)
	}

	for i, name := range names {
		g.Go(func() error {
			ok, err := s.roleExists(ctx, name)
			if err != nil {
				return err
			}
			found[i] = ok
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, storeErr(ctx, err, "role check")
	}

	var invalid []string
	for i, name := range names {
		if !found[i] {
			invalid = append(invalid, name)
		}
	}
	return invalid, nil
}

// roleExists requires the store to know the role and the name to map to a bit
func (s *AuthService) roleExists(ctx context.Context, name string) (bool, error) {
	if _, known := ParseRole(name); !known {
		return false, nil
	}
	return s.store.RoleExists(ctx, name)
}

func (s *AuthService) recordRegistrationFailure(ctx context.Context, registrar *User, email, reason string) {
	event := ActivityEvent{
		EventType: ActivityEventRegistrationFailure,
		Metadata:  map[string]any{"reason": reason},
	}
	if registrar != nil {
		event.ActorID = registrar.ID.String()
	}
	s.logger.Info("registration rejected", "reason", reason, "email_domain", emailDomain(email))
	s.record(ctx, event)
}

func usernameFor(username, email string) string {
	if username != "" {
		return username
	}
	return email
}

func actorID(actor, fallback *User) string {
	if actor != nil {
		return actor.ID.String()
	}
	if fallback != nil {
		return fallback.ID.String()
	}
	return ""
}

func emailDomain(email string) string {
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			return email[i+1:]
		}
	}
	return ""
}
