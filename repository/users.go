package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	auth "github.com/goliatone/go-event-auth"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user repository
type Users interface {
	repository.Repository[*auth.User]

	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*auth.User, error)
	Register(ctx context.Context, user *auth.User) (*auth.User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error)
	UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, confirmEmail bool) error
	UpdateRolesTx(ctx context.Context, tx bun.IDB, id uuid.UUID, roles auth.RoleType) error
	UpdateProfileTx(ctx context.Context, tx bun.IDB, user *auth.User) error
	SoftDeleteTx(ctx context.Context, tx bun.IDB, user *auth.User) error
}

type users struct {
	repository.Repository[*auth.User]
	db  *bun.DB
	now func() time.Time
}

var _ Users = (*users)(nil)

// NewUsersRepository creates the user repository
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*auth.User](db, repository.ModelHandlers[*auth.User]{
		NewRecord: func() *auth.User { return &auth.User{} },
		GetID: func(u *auth.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *auth.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error) {
	record := &auth.User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", auth.NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *users) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*auth.User, error) {
	record := &auth.User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return record, nil
}

func (a *users) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	a.prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) UpdatePasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string, confirmEmail bool) error {
	q := tx.NewUpdate().
		Model((*auth.User)(nil)).
		Set("password_hash = ?", hash).
		Set("must_change_password = ?", false).
		Set("updated_at = ?", a.now().UTC()).
		Where("id = ?", id)

	if confirmEmail {
		q = q.Set("is_email_verified = ?", true)
	}

	return expectAffected(q.Exec(ctx))
}

func (a *users) UpdateRolesTx(ctx context.Context, tx bun.IDB, id uuid.UUID, roles auth.RoleType) error {
	res, err := tx.NewUpdate().
		Model((*auth.User)(nil)).
		Set("roles = ?", roles).
		Set("updated_at = ?", a.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return expectAffected(res, err)
}

func (a *users) UpdateProfileTx(ctx context.Context, tx bun.IDB, user *auth.User) error {
	now := a.now().UTC()
	user.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(user).
		Column("username", "first_name", "last_name", "phone_number", "updated_at").
		WherePK().
		Exec(ctx)
	return expectAffected(res, err)
}

func (a *users) SoftDeleteTx(ctx context.Context, tx bun.IDB, user *auth.User) error {
	res, err := tx.NewDelete().
		Model(user).
		WherePK().
		Exec(ctx)
	return expectAffected(res, err)
}

func (a *users) prepareUserDefaults(record *auth.User) {
	if record == nil {
		return
	}

	record.Email = auth.NormalizeEmail(record.Email)
	record.Username = strings.TrimSpace(record.Username)
	if record.Username == "" {
		record.Username = record.Email
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := a.now().UTC()
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = &now
}

func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

// isUniqueViolation matches sqlite and postgres unique constraint errors on column
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate key") {
		return false
	}
	return strings.Contains(msg, column)
}
