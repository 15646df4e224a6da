package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager groups the repositories that share one database
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	DB() *bun.DB
	Users() Users
	PasswordResets() repository.Repository[*PasswordReset]
	ActivityLog() *ActivityLog
}

// NewPasswordResetsRepository creates the password reset repository,
// keyed by user id
func NewPasswordResetsRepository(db *bun.DB) repository.Repository[*PasswordReset] {
	return repository.NewRepository(db, repository.ModelHandlers[*PasswordReset]{
		NewRecord: func() *PasswordReset { return &PasswordReset{} },
		GetID: func(record *PasswordReset) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *PasswordReset, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string { return "user_id" },
	})
}

type manager struct {
	db             *bun.DB
	users          Users
	passwordResets repository.Repository[*PasswordReset]
	activity       *ActivityLog
}

// NewRepositoryManager wires every repository over db
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	m := &manager{db: db}
	if db != nil {
		m.users = NewUsersRepository(db)
		m.passwordResets = NewPasswordResetsRepository(db)
		m.activity = NewActivityLog(db)
	}
	return m
}

// Validate reports every missing member at once
func (m *manager) Validate() error {
	var errs []error
	if m.db == nil {
		errs = append(errs, errors.New("db is nil"))
	}
	if m.users == nil {
		errs = append(errs, errors.New("users repository is nil"))
	}
	if m.passwordResets == nil {
		errs = append(errs, errors.New("password resets repository is nil"))
	}
	if m.activity == nil {
		errs = append(errs, errors.New("activity log is nil"))
	}
	if len(errs) == 0 {
		return nil
	}
	return goerrors.Wrap(errors.Join(errs...), goerrors.CategoryInternal, "repository manager is not initialized")
}

func (m *manager) MustValidate() {
	if err := m.Validate(); err != nil {
		panic(fmt.Sprintf("repository: %v", err))
	}
}

// RunInTx refuses to open a transaction for a finished context
func (m *manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "transaction not started")
	}
	return m.db.RunInTx(ctx, opts, f)
}

func (m *manager) DB() *bun.DB                                           { return m.db }
func (m *manager) Users() Users                                          { return m.users }
func (m *manager) PasswordResets() repository.Repository[*PasswordReset] { return m.passwordResets }
func (m *manager) ActivityLog() *ActivityLog                             { return m.activity }
