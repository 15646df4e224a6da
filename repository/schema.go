package repository

import (
	"context"

	auth "github.com/goliatone/go-event-auth"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

var roleDescriptions = map[auth.RoleType]string{
	auth.RoleAdmin:            "Manages users and roles",
	auth.RoleEventCreator:     "Creates and manages events",
	auth.RoleEventParticipant: "Participates in events",
}

// CreateSchema creates the tables used by the store when missing and seeds
// the roles table. Production deployments run their own migrations.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*auth.User)(nil),
		(*RoleRecord)(nil),
		(*PasswordReset)(nil),
		(*ActivityRecord)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table")
		}
	}

	return SeedRoles(ctx, db)
}

// SeedRoles inserts every defined role that is not yet stored
func SeedRoles(ctx context.Context, db bun.IDB) error {
	records := make([]RoleRecord, 0, len(auth.AllRoles()))
	for _, role := range auth.AllRoles() {
		records = append(records, RoleRecord{
			Name:        role.String(),
			Bit:         uint(role),
			Description: roleDescriptions[role],
		})
	}

	_, err := db.NewInsert().
		Model(&records).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to seed roles")
	}
	return nil
}
