package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-event-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

type storeFixture struct {
	db      *bun.DB
	repo    RepositoryManager
	store   *CredentialStore
	secrets *DBResetSecrets
	clock   *testClock
}

func setupStore(t *testing.T) *storeFixture {
	t.Helper()

	db := setupDB(t)
	repo := NewRepositoryManager(db)
	repo.MustValidate()

	clock := newTestClock()
	secrets := NewDBResetSecrets(repo, time.Hour).WithClock(clock.Now)

	store := NewCredentialStore(repo,
		WithResetSecrets(secrets),
		WithHashCost(bcrypt.MinCost),
	)

	return &storeFixture{db: db, repo: repo, store: store, secrets: secrets, clock: clock}
}

func (f *storeFixture) createUser(t *testing.T, email, password string, roles auth.RoleType) *auth.User {
	t.Helper()

	user := &auth.User{
		Email:          email,
		FirstName:      "Jane",
		LastName:       "Doe",
		Roles:          roles,
		EmailConfirmed: true,
	}

	result, err := f.store.Create(context.Background(), user, password)
	require.NoError(t, err)
	require.True(t, result.Succeeded(), result.Descriptions())

	return user
}
