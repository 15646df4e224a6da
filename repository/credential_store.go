package repository

import (
	"context"
	"errors"
	"time"

	auth "github.com/goliatone/go-event-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	descDuplicateEmail    = "Email is already taken."
	descDuplicateUserName = "Username is already taken."
	descPasswordMismatch  = "Incorrect password."
	descInvalidToken      = "Invalid token."
	descInvalidRole       = "Role is not recognized."
)

// CredentialStore is the bun backed auth.CredentialStore
type CredentialStore struct {
	repo         RepositoryManager
	resetSecrets ResetSecrets
	policy       auth.PasswordPolicy
	hashCost     int
	logger       auth.Logger
}

var _ auth.CredentialStore = (*CredentialStore)(nil)

// StoreOption configures a CredentialStore
type StoreOption func(*CredentialStore)

// WithResetSecrets swaps the reset secret backend, for example for redis
func WithResetSecrets(secrets ResetSecrets) StoreOption {
	return func(s *CredentialStore) {
		if secrets != nil {
			s.resetSecrets = secrets
		}
	}
}

// WithPasswordPolicy sets the policy enforced on new passwords
func WithPasswordPolicy(policy auth.PasswordPolicy) StoreOption {
	return func(s *CredentialStore) {
		s.policy = policy
	}
}

// WithHashCost sets the bcrypt cost
func WithHashCost(cost int) StoreOption {
	return func(s *CredentialStore) {
		s.hashCost = cost
	}
}

// WithLogger sets the logger
func WithLogger(logger auth.Logger) StoreOption {
	return func(s *CredentialStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCredentialStore creates the store. Reset secrets default to the
// password_resets table with a 24h TTL.
func NewCredentialStore(repo RepositoryManager, opts ...StoreOption) *CredentialStore {
	s := &CredentialStore{
		repo:         repo,
		resetSecrets: NewDBResetSecrets(repo, DefaultResetSecretTTL),
		policy:       auth.DefaultPasswordPolicy(),
		logger:       auth.NewSlogLogger(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.repo.Users().FindByEmailTx(ctx, s.repo.DB(), email)
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.ErrUserNotFound
	}
	return s.repo.Users().FindByIDTx(ctx, s.repo.DB(), uid)
}

func (s *CredentialStore) Create(ctx context.Context, user *auth.User, password string) (auth.StoreResult, error) {
	if errs := s.policy.Check(password); len(errs) > 0 {
		return policyFailure(errs), nil
	}

	hash, err := auth.HashPasswordWithCost(password, s.hashCost)
	if err != nil {
		return auth.StoreResult{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	user.PasswordHash = hash

	if !user.Roles.IsValid() {
		return auth.StoreFailure(auth.StoreCodeInvalidRole, descInvalidRole), nil
	}

	if _, err := s.repo.Users().Register(ctx, user); err != nil {
		switch {
		case isUniqueViolation(err, "email"):
			return auth.StoreFailure(auth.StoreCodeDuplicateEmail, descDuplicateEmail), nil
		case isUniqueViolation(err, "username"):
			return auth.StoreFailure(auth.StoreCodeDuplicateUserName, descDuplicateUserName), nil
		}
		return auth.StoreResult{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	return auth.StoreSuccess(), nil
}

func (s *CredentialStore) VerifyPassword(ctx context.Context, user *auth.User, password string) (bool, error) {
	if user == nil || user.PasswordHash == "" || password == "" {
		return false, nil
	}

	if err := auth.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
	}
	return true, nil
}

func (s *CredentialStore) ChangePassword(ctx context.Context, user *auth.User, current, next string) (auth.StoreResult, error) {
	var result auth.StoreResult

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		fresh, err := s.repo.Users().FindByIDTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		if err := auth.ComparePasswordAndHash(current, fresh.PasswordHash); err != nil {
			if errors.Is(err, auth.ErrMismatchedHashAndPassword) {
				result = auth.StoreFailure(auth.StoreCodePasswordMismatch, descPasswordMismatch)
				return nil
			}
			return err
		}

		if errs := s.policy.Check(next); len(errs) > 0 {
			result = policyFailure(errs)
			return nil
		}

		hash, err := auth.HashPasswordWithCost(next, s.hashCost)
		if err != nil {
			return err
		}

		if err := s.repo.Users().UpdatePasswordHashTx(ctx, tx, user.ID, hash, false); err != nil {
			return err
		}

		user.PasswordHash = hash
		user.MustChangePassword = false
		return nil
	})
	if err != nil {
		return auth.StoreResult{}, s.wrap(err, "failed to change password")
	}

	return result, nil
}

func (s *CredentialStore) AddRole(ctx context.Context, user *auth.User, role auth.RoleType) (auth.StoreResult, error) {
	return s.mutateRoles(ctx, user, func(current auth.RoleType) auth.RoleType {
		return current.Add(role)
	})
}

func (s *CredentialStore) RemoveRole(ctx context.Context, user *auth.User, role auth.RoleType) (auth.StoreResult, error) {
	return s.mutateRoles(ctx, user, func(current auth.RoleType) auth.RoleType {
		return current.Remove(role)
	})
}

func (s *CredentialStore) ReplaceRoles(ctx context.Context, user *auth.User, roles auth.RoleType) (auth.StoreResult, error) {
	return s.mutateRoles(ctx, user, func(auth.RoleType) auth.RoleType {
		return roles
	})
}

func (s *CredentialStore) mutateRoles(ctx context.Context, user *auth.User, apply func(auth.RoleType) auth.RoleType) (auth.StoreResult, error) {
	var result auth.StoreResult

	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		fresh, err := s.repo.Users().FindByIDTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		next := apply(fresh.Roles)
		if !next.IsValid() {
			result = auth.StoreFailure(auth.StoreCodeInvalidRole, descInvalidRole)
			return nil
		}

		if err := s.repo.Users().UpdateRolesTx(ctx, tx, user.ID, next); err != nil {
			return err
		}

		user.Roles = next
		return nil
	})
	if err != nil {
		return auth.StoreResult{}, s.wrap(err, "failed to update roles")
	}

	return result, nil
}

func (s *CredentialStore) RoleExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.repo.DB().NewSelect().
		Model((*RoleRecord)(nil)).
		Where("?TableAlias.name = ?", name).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up role")
	}
	return exists, nil
}

func (s *CredentialStore) GeneratePasswordResetSecret(ctx context.Context, user *auth.User) (string, error) {
	return s.resetSecrets.Issue(ctx, user.ID, PurposePasswordReset)
}

func (s *CredentialStore) VerifyPasswordResetSecret(ctx context.Context, user *auth.User, secret string) (bool, error) {
	return s.resetSecrets.Verify(ctx, user.ID, PurposePasswordReset, secret)
}

// ConsumePasswordResetSecret burns secret and stores newPassword in one
// transaction. A successful reset also confirms the email address.
// An unusable secret is reported before any password policy failure, and a
// password rejected by the policy leaves the secret usable.
func (s *CredentialStore) ConsumePasswordResetSecret(ctx context.Context, user *auth.User, secret, newPassword string) (auth.StoreResult, error) {
	valid, err := s.resetSecrets.Verify(ctx, user.ID, PurposePasswordReset, secret)
	if err != nil {
		return auth.StoreResult{}, s.wrap(err, "failed to verify password reset secret")
	}
	if !valid {
		return auth.StoreFailure(auth.StoreCodeInvalidToken, descInvalidToken), nil
	}

	if errs := s.policy.Check(newPassword); len(errs) > 0 {
		return policyFailure(errs), nil
	}

	hash, err := auth.HashPasswordWithCost(newPassword, s.hashCost)
	if err != nil {
		return auth.StoreResult{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	var result auth.StoreResult

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		ok, err := s.resetSecrets.Consume(ctx, tx, user.ID, PurposePasswordReset, secret)
		if err != nil {
			return err
		}
		if !ok {
			result = auth.StoreFailure(auth.StoreCodeInvalidToken, descInvalidToken)
			return nil
		}

		if err := s.repo.Users().UpdatePasswordHashTx(ctx, tx, user.ID, hash, true); err != nil {
			return err
		}

		user.PasswordHash = hash
		user.MustChangePassword = false
		user.EmailConfirmed = true
		return nil
	})
	if err != nil {
		return auth.StoreResult{}, s.wrap(err, "failed to reset password")
	}

	return result, nil
}

func (s *CredentialStore) Update(ctx context.Context, user *auth.User) (auth.StoreResult, error) {
	err := s.repo.Users().UpdateProfileTx(ctx, s.repo.DB(), user)
	if err != nil {
		if isUniqueViolation(err, "username") {
			return auth.StoreFailure(auth.StoreCodeDuplicateUserName, descDuplicateUserName), nil
		}
		return auth.StoreResult{}, s.wrap(err, "failed to update user")
	}
	return auth.StoreSuccess(), nil
}

func (s *CredentialStore) Delete(ctx context.Context, user *auth.User) (auth.StoreResult, error) {
	if err := s.repo.Users().SoftDeleteTx(ctx, s.repo.DB(), user); err != nil {
		return auth.StoreResult{}, s.wrap(err, "failed to delete user")
	}
	now := time.Now().UTC()
	user.DeletedAt = &now
	return auth.StoreSuccess(), nil
}

// wrap keeps not found errors recognizable and wraps everything else
func (s *CredentialStore) wrap(err error, msg string) error {
	s.logger.Debug("credential store error", "error", err, "message", msg)
	if auth.IsNotFound(err) {
		return err
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

func policyFailure(errs []string) auth.StoreResult {
	result := auth.StoreResult{Errors: make([]auth.StoreError, 0, len(errs))}
	for _, e := range errs {
		result.Errors = append(result.Errors, auth.StoreError{
			Code:        auth.StoreCodePasswordPolicy,
			Description: e,
		})
	}
	return result
}
