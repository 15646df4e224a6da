package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	auth "github.com/goliatone/go-event-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultResetSecretTTL bounds how long a reset secret stays valid
const DefaultResetSecretTTL = 24 * time.Hour

const resetSecretBytes = 32

// ResetSecrets issues and checks single use, purpose scoped secrets.
// Consume receives the database transaction that also updates the
// password; implementations outside the database may ignore it.
type ResetSecrets interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose string) (string, error)
	Verify(ctx context.Context, userID uuid.UUID, purpose, secret string) (bool, error)
	Consume(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose, secret string) (bool, error)
}

// DBResetSecrets keeps hashed secrets in the password_resets table
type DBResetSecrets struct {
	repo RepositoryManager
	ttl  time.Duration
	now  func() time.Time
}

var _ ResetSecrets = (*DBResetSecrets)(nil)

// NewDBResetSecrets creates the table backed implementation
func NewDBResetSecrets(repo RepositoryManager, ttl time.Duration) *DBResetSecrets {
	if ttl <= 0 {
		ttl = DefaultResetSecretTTL
	}
	return &DBResetSecrets{repo: repo, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source
func (s *DBResetSecrets) WithClock(now func() time.Time) *DBResetSecrets {
	if now != nil {
		s.now = now
	}
	return s
}

// Issue expires any outstanding secret for userID and purpose and stores a new one
func (s *DBResetSecrets) Issue(ctx context.Context, userID uuid.UUID, purpose string) (string, error) {
	secret, err := newResetSecret()
	if err != nil {
		return "", err
	}

	now := s.now().UTC()

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*PasswordReset)(nil)).
			Set("status = ?", ResetExpiredStatus).
			Set("updated_at = ?", now).
			Where("user_id = ?", userID).
			Where("purpose = ?", purpose).
			Where("status = ?", ResetRequestedStatus).
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to expire previous password resets")
		}

		reset := &PasswordReset{
			ID:         uuid.New(),
			UserID:     userID,
			Purpose:    purpose,
			SecretHash: hashResetSecret(secret),
			Status:     ResetRequestedStatus,
			CreatedAt:  &now,
			UpdatedAt:  &now,
		}

		if _, err := s.repo.PasswordResets().CreateTx(ctx, tx, reset); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return secret, nil
}

// Verify reports whether secret is outstanding and not older than the TTL
func (s *DBResetSecrets) Verify(ctx context.Context, userID uuid.UUID, purpose, secret string) (bool, error) {
	reset, err := s.find(ctx, s.repo.DB(), userID, purpose, secret)
	if err != nil || reset == nil {
		return false, err
	}
	return true, nil
}

// Consume marks secret as used inside tx. Only one caller can win.
func (s *DBResetSecrets) Consume(ctx context.Context, tx bun.IDB, userID uuid.UUID, purpose, secret string) (bool, error) {
	if tx == nil {
		tx = s.repo.DB()
	}

	reset, err := s.find(ctx, tx, userID, purpose, secret)
	if err != nil || reset == nil {
		return false, err
	}

	reset.MarkPasswordAsReseted(s.now().UTC())

	res, err := tx.NewUpdate().
		Model(reset).
		Column("status", "reseted_at", "updated_at").
		WherePK().
		Where("status = ?", ResetRequestedStatus).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume password reset")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *DBResetSecrets) find(ctx context.Context, db bun.IDB, userID uuid.UUID, purpose, secret string) (*PasswordReset, error) {
	if secret == "" {
		return nil, nil
	}

	reset := &PasswordReset{}
	err := db.NewSelect().
		Model(reset).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.purpose = ?", purpose).
		Where("?TableAlias.secret_hash = ?", hashResetSecret(secret)).
		Where("?TableAlias.status = ?", ResetRequestedStatus).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up password reset")
	}

	if reset.CreatedAt == nil || auth.IsOutsideThresholdPeriodAt(*reset.CreatedAt, s.ttl, s.now()) {
		return nil, nil
	}

	return reset, nil
}

func newResetSecret() (string, error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate reset secret")
	}
	return hex.EncodeToString(buf), nil
}

func hashResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
