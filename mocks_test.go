package auth_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-event-auth"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testConfig implements auth.Config
type testConfig struct {
	signingKey            string
	signingMethod         string
	expiration            time.Duration
	issuer                string
	audience              []string
	frontendBaseURL       string
	resetPasswordPath     string
	requireConfirmedEmail bool
	roleCheckConcurrency  int
	operationTimeout      time.Duration
	notificationTimeout   time.Duration
	policy                auth.PasswordPolicy
	phoneRegion           string
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey:            "service-test-signing-key-0123456789",
		signingMethod:         "HS256",
		expiration:            time.Hour,
		issuer:                "event-auth",
		audience:              []string{"event-api"},
		frontendBaseURL:       "https://events.test/",
		resetPasswordPath:     "/auth/reset-password",
		requireConfirmedEmail: true,
		roleCheckConcurrency:  4,
		operationTimeout:      2 * time.Second,
		notificationTimeout:   200 * time.Millisecond,
		policy:                auth.DefaultPasswordPolicy(),
		phoneRegion:           "US",
	}
}

func (c *testConfig) GetSigningKey() string                  { return c.signingKey }
func (c *testConfig) GetSigningMethod() string               { return c.signingMethod }
func (c *testConfig) GetSigningKeyID() string                { return "" }
func (c *testConfig) GetTokenExpiration() time.Duration      { return c.expiration }
func (c *testConfig) GetClockSkew() time.Duration            { return 0 }
func (c *testConfig) GetIssuer() string                      { return c.issuer }
func (c *testConfig) GetAudience() []string                  { return c.audience }
func (c *testConfig) GetFrontendBaseURL() string             { return c.frontendBaseURL }
func (c *testConfig) GetResetPasswordPath() string           { return c.resetPasswordPath }
func (c *testConfig) GetRequireConfirmedEmail() bool         { return c.requireConfirmedEmail }
func (c *testConfig) GetRoleCheckConcurrency() int           { return c.roleCheckConcurrency }
func (c *testConfig) GetOperationTimeout() time.Duration     { return c.operationTimeout }
func (c *testConfig) GetNotificationTimeout() time.Duration  { return c.notificationTimeout }
func (c *testConfig) GetPasswordPolicy() auth.PasswordPolicy { return c.policy }
func (c *testConfig) GetPhoneRegion() string                 { return c.phoneRegion }

// MockCredentialStore implements auth.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) FindByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) Create(ctx context.Context, user *auth.User, password string) (auth.StoreResult, error) {
	args := m.Called(ctx, user, password)
	return storeResult(args), args.Error(1)
}

func (m *MockCredentialStore) VerifyPassword(ctx context.Context, user *auth.User, password string) (bool, error) {
	args := m.Called(ctx, user, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) ChangePassword(ctx context.Context, user *auth.User, current, next string) (auth.StoreResult, error) {
	args := m.Called(ctx, user, current, next)
	return storeResult(args), args.Error(1)
}

func (m *MockCredentialStore) AddRole(ctx context.Context, user *auth.User, role auth.RoleType) (auth.StoreResult, error) {
	args := m.Called(ctx, user, role)
	return storeResult(args), args.Error(1)
}

func (m *MockCredentialStore) RemoveRole(ctx context.Context, user *auth.User, role auth.RoleType) (auth.StoreResult, error) {
	args := m.Called(ctx, user, role)
	return storeResult(args), args.Error(1)
}

func (m *MockCredentialStore) ReplaceRoles(ctx context.Context, user *auth.User, roles auth.RoleType) (auth.StoreResult, error) {
	args := m.Called(ctx, user, roles)
	return storeResult(args), args.Error(1)
}

func (m *MockCredentialStore) RoleExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) GeneratePasswordResetSecret(ctx context.Context, user *auth.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) ConsumePasswordResetSecret(ctx context.Context, user *auth.User, secret, newPassword string) (auth.StoreResult, error) {
	args := m.Called(ctx, user, secret, newPassword)
	return storeResult(args), args.Error(1)
}

func (m *MockCredentialStore) VerifyPasswordResetSecret(ctx context.Context, user *auth.User, secret string) (bool, error) {
	args := m.Called(ctx, user, secret)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) Update(ctx context.Context, user *auth.User) (auth.StoreResult, error) {
	args := m.Called(ctx, user)
	return storeResult(args), args.Error(1)
}

func (m *MockCredentialStore) Delete(ctx context.Context, user *auth.User) (auth.StoreResult, error) {
	args := m.Called(ctx, user)
	return storeResult(args), args.Error(1)
}

func storeResult(args mock.Arguments) auth.StoreResult {
	result, _ := args.Get(0).(auth.StoreResult)
	return result
}

// sentNotification is one call captured by captureNotifier
type sentNotification struct {
	Kind         string
	To           auth.Recipient
	TempPassword string
	CallbackURL  string
	Roles        []string
}

// captureNotifier implements auth.Notifier and records every call
type captureNotifier struct {
	mu    sync.Mutex
	sent  []sentNotification
	err   error
	block bool
}

func (n *captureNotifier) SendWelcome(ctx context.Context, to auth.Recipient) error {
	return n.capture(ctx, sentNotification{Kind: "welcome", To: to})
}

func (n *captureNotifier) SendAccountCreated(ctx context.Context, to auth.Recipient, tempPassword string) error {
	return n.capture(ctx, sentNotification{Kind: "account_created", To: to, TempPassword: tempPassword})
}

func (n *captureNotifier) SendPasswordChanged(ctx context.Context, to auth.Recipient) error {
	return n.capture(ctx, sentNotification{Kind: "password_changed", To: to})
}

func (n *captureNotifier) SendPasswordReset(ctx context.Context, to auth.Recipient, callbackURL string) error {
	return n.capture(ctx, sentNotification{Kind: "password_reset", To: to, CallbackURL: callbackURL})
}

func (n *captureNotifier) SendRoleAssignmentNotice(ctx context.Context, to auth.Recipient, roles []string) error {
	return n.capture(ctx, sentNotification{Kind: "roles_assigned", To: to, Roles: roles})
}

func (n *captureNotifier) capture(ctx context.Context, s sentNotification) error {
	if n.block {
		<-ctx.Done()
		return ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, s)
	return n.err
}

func (n *captureNotifier) Sent() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

type serviceFixture struct {
	service  *auth.AuthService
	store    *MockCredentialStore
	notifier *captureNotifier
	activity *auth.ActivityCounter
	tokens   *auth.TokenService
	cfg      *testConfig
}

func newServiceFixture(t *testing.T, mutate ...func(*testConfig)) *serviceFixture {
	t.Helper()

	cfg := newTestConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	tokens, err := auth.NewTokenService(cfg, nil)
	require.NoError(t, err)

	store := &MockCredentialStore{}
	notifier := &captureNotifier{}
	activity := auth.NewActivityCounter()

	service := auth.NewAuthService(cfg, store, tokens, notifier).
		WithActivitySink(activity)

	return &serviceFixture{
		service:  service,
		store:    store,
		notifier: notifier,
		activity: activity,
		tokens:   tokens,
		cfg:      cfg,
	}
}

// fakeContext implements the parts of router.Context the controller touches
type fakeContext struct {
	router.Context

	body    []byte
	queries map[string]string
	store   map[string]any
	ctx     context.Context

	status  int
	payload any
}

func newFakeContext(body any) *fakeContext {
	f := &fakeContext{
		queries: map[string]string{},
		store:   map[string]any{},
		ctx:     context.Background(),
	}
	switch b := body.(type) {
	case nil:
	case string:
		f.body = []byte(b)
	default:
		f.body, _ = json.Marshal(b)
	}
	return f
}

func (f *fakeContext) Bind(v any) error { return json.Unmarshal(f.body, v) }

func (f *fakeContext) Query(key string, defaultValue string) string {
	if v, ok := f.queries[key]; ok {
		return v
	}
	return defaultValue
}

func (f *fakeContext) Set(key string, value any) { f.store[key] = value }

func (f *fakeContext) Get(key string, def any) any {
	if v, ok := f.store[key]; ok {
		return v
	}
	return def
}

func (f *fakeContext) Context() context.Context       { return f.ctx }
func (f *fakeContext) SetContext(ctx context.Context) { f.ctx = ctx }

func (f *fakeContext) JSON(code int, v any) error {
	f.status = code
	f.payload = v
	return nil
}
