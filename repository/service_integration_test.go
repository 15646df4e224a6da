package repository

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-event-auth"
	"github.com/goliatone/go-event-auth/activitymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID = "5f3c4a8e-2b7d-4c1e-9a6f-0d8b7e6c5a41"

type recordingNotifier struct {
	mu     sync.Mutex
	resets []string
	kinds  []string
}

func (n *recordingNotifier) add(kind string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *recordingNotifier) SendWelcome(context.Context, auth.Recipient) error {
	n.add("welcome")
	return nil
}

func (n *recordingNotifier) SendAccountCreated(context.Context, auth.Recipient, string) error {
	n.add("account_created")
	return nil
}

func (n *recordingNotifier) SendPasswordChanged(context.Context, auth.Recipient) error {
	n.add("password_changed")
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, _ auth.Recipient, callbackURL string) error {
	n.mu.Lock()
	n.resets = append(n.resets, callbackURL)
	n.mu.Unlock()
	n.add("password_reset")
	return nil
}

func (n *recordingNotifier) SendRoleAssignmentNotice(context.Context, auth.Recipient, []string) error {
	n.add("roles_assigned")
	return nil
}

func (n *recordingNotifier) lastReset(t *testing.T) *url.URL {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.resets)
	u, err := url.Parse(n.resets[len(n.resets)-1])
	require.NoError(t, err)
	return u
}

func newIntegrationService(t *testing.T, f *storeFixture) (*auth.AuthService, *auth.TokenService, *recordingNotifier) {
	t.Helper()

	key, err := auth.ParseSigningKey("HS256", "integration-secret", "")
	require.NoError(t, err)
	tokens := auth.NewTokenServiceWithKey(key, time.Hour, "event-auth", []string{"event-platform"}, nil)

	notifier := &recordingNotifier{}
	service := auth.NewAuthService(nil, f.store, tokens, notifier).
		WithActivitySink(activitymap.Sink(f.repo.ActivityLog().Append))

	return service, tokens, notifier
}

func confirmEmail(t *testing.T, f *storeFixture, userID string) {
	t.Helper()
	_, err := f.db.NewUpdate().
		Model((*auth.User)(nil)).
		Set("is_email_verified = ?", true).
		Where("id = ?", userID).
		Exec(context.Background())
	require.NoError(t, err)
}

func loginRoles(t *testing.T, service *auth.AuthService, tokens *auth.TokenService, email, password string) []string {
	t.Helper()
	login := service.Login(context.Background(), auth.LoginRequest{Email: email, Password: password})
	require.True(t, login.Success, login.Message)
	claims, err := tokens.Validate(login.Token)
	require.NoError(t, err)
	return claims.Roles()
}

func TestAuthService_AccountLifecycle(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()

	service, tokens, notifier := newIntegrationService(t, f)
	activity := f.repo.ActivityLog()

	registered := service.Register(ctx, auth.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "Jane@Example.com",
		Password:  "Secret#123",
		Roles:     []string{"EventCreator", "EventParticipant"},
	}, nil)
	require.True(t, registered.Success, registered.Errors)
	require.NotNil(t, registered.Data)
	assert.Equal(t, "jane@example.com", registered.Data.Email)
	assert.Equal(t, []string{"EventCreator", "EventParticipant"}, registered.Data.Roles)
	assert.Equal(t, []string{"welcome"}, notifier.kinds)

	duplicate := service.Register(ctx, auth.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Again",
		Email:     "jane@example.com",
		Password:  "Secret#123",
	}, nil)
	assert.False(t, duplicate.Success)
	assert.Equal(t, auth.MsgDuplicateEmail, duplicate.Message)

	login := service.Login(ctx, auth.LoginRequest{Email: "jane@example.com", Password: "Secret#123"})
	require.True(t, login.Success, login.Message)
	claims, err := tokens.Validate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.Data.ID, claims.Subject())
	assert.ElementsMatch(t, []string{"EventCreator", "EventParticipant"}, claims.Roles())

	userID := registered.Data.ID

	// unconfirmed accounts never receive a reset link
	forgot := service.ForgotPassword(ctx, auth.ForgotPasswordRequest{Email: "jane@example.com"})
	assert.True(t, forgot.Success)
	assert.Empty(t, notifier.resets)

	confirmEmail(t, f, userID)

	forgot = service.ForgotPassword(ctx, auth.ForgotPasswordRequest{Email: "jane@example.com"})
	assert.True(t, forgot.Success)
	assert.Equal(t, auth.MsgForgotPassword, forgot.Message)

	link := notifier.lastReset(t)
	assert.Equal(t, auth.DefaultResetPasswordPath, link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)
	assert.Equal(t, "jane@example.com", link.Query().Get("email"))

	valid := service.ValidateResetToken(ctx, "jane@example.com", token)
	assert.True(t, valid.Success)

	reset := service.ResetPassword(ctx, auth.ResetPasswordRequest{
		Email:       "jane@example.com",
		Token:       token,
		NewPassword: "Reset#789",
	})
	require.True(t, reset.Success, reset.Errors)

	reused := service.ResetPassword(ctx, auth.ResetPasswordRequest{
		Email:       "jane@example.com",
		Token:       token,
		NewPassword: "Other#789",
	})
	assert.False(t, reused.Success)

	old := service.Login(ctx, auth.LoginRequest{Email: "jane@example.com", Password: "Secret#123"})
	assert.False(t, old.Success)
	assert.Equal(t, auth.MsgInvalidLogin, old.Message)

	fresh := service.Login(ctx, auth.LoginRequest{Email: "jane@example.com", Password: "Reset#789"})
	assert.True(t, fresh.Success)

	assigned := service.AssignRoles(ctx, auth.AssignRolesRequest{UserID: userID, Roles: []string{"Admin"}}, adminID)
	require.True(t, assigned.Success, assigned.Errors)
	assert.Equal(t, []string{"Admin"}, assigned.Data.Roles)

	profile := service.LoadProfile(ctx, userID)
	require.True(t, profile.Success)
	assert.Equal(t, []string{"Admin"}, profile.Data.Roles)
	assert.True(t, profile.Data.EmailConfirmed)

	deleted := service.DeleteUser(ctx, userID, adminID)
	require.True(t, deleted.Success, deleted.Errors)

	gone := service.LoadProfile(ctx, userID)
	assert.False(t, gone.Success)
	assert.Equal(t, auth.MsgUserNotFound, gone.Message)

	history, err := activity.ListByObject(ctx, userID, 0)
	require.NoError(t, err)

	verbs := make([]string, 0, len(history))
	var failureCodes []any
	for _, record := range history {
		verbs = append(verbs, record.Verb)
		if record.Verb == string(auth.ActivityEventLoginFailure) {
			failureCodes = append(failureCodes, record.Metadata["code"])
		}
	}
	assert.Equal(t, []any{auth.TextCodeInvalidLogin}, failureCodes)
	assert.Contains(t, verbs, string(auth.ActivityEventUserRegistered))
	assert.Contains(t, verbs, string(auth.ActivityEventPasswordResetSuccess))
	assert.Contains(t, verbs, string(auth.ActivityEventRolesAssigned))
	assert.Contains(t, verbs, string(auth.ActivityEventUserDeleted))
}

func TestAuthService_AssignRolesReplacesTokenRoles(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	service, tokens, _ := newIntegrationService(t, f)

	registered := service.Register(ctx, auth.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "Secret#123",
		Roles:     []string{"EventCreator"},
	}, nil)
	require.True(t, registered.Success, registered.Errors)
	userID := registered.Data.ID

	assert.Equal(t, []string{"EventCreator"}, loginRoles(t, service, tokens, "jane@example.com", "Secret#123"))

	req := auth.AssignRolesRequest{UserID: userID, Roles: []string{"EventParticipant"}}
	assigned := service.AssignRoles(ctx, req, adminID)
	require.True(t, assigned.Success, assigned.Errors)

	assert.Equal(t, []string{"EventParticipant"}, loginRoles(t, service, tokens, "jane@example.com", "Secret#123"))

	again := service.AssignRoles(ctx, req, adminID)
	require.True(t, again.Success, again.Errors)
	assert.Equal(t, assigned.Data.Roles, again.Data.Roles)

	stored, err := f.store.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleEventParticipant, stored.Roles)
	assert.Equal(t, []string{"EventParticipant"}, loginRoles(t, service, tokens, "jane@example.com", "Secret#123"))
}

func TestAuthService_ResetTokenFailuresLookAlike(t *testing.T) {
	f := setupStore(t)
	ctx := context.Background()
	service, _, notifier := newIntegrationService(t, f)

	registered := service.Register(ctx, auth.RegisterRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Password:  "Secret#123",
	}, nil)
	require.True(t, registered.Success, registered.Errors)
	confirmEmail(t, f, registered.Data.ID)

	require.True(t, service.ForgotPassword(ctx, auth.ForgotPasswordRequest{Email: "jane@example.com"}).Success)
	token := notifier.lastReset(t).Query().Get("token")
	require.NotEmpty(t, token)

	reset := func(token, password string) auth.ServiceOutcome[bool] {
		return service.ResetPassword(ctx, auth.ResetPasswordRequest{
			Email:       "jane@example.com",
			Token:       token,
			NewPassword: password,
		})
	}

	mismatched := reset(auth.EncodeRecoveryToken("not-the-issued-secret"), "Reset#789")
	mismatchedWeak := reset(auth.EncodeRecoveryToken("not-the-issued-secret"), "weak")
	malformed := reset("%%%not-base64%%%", "Reset#789")

	require.True(t, reset(token, "Reset#789").Success)
	consumed := reset(token, "Other#789")

	assert.False(t, malformed.Success)
	assert.Equal(t, auth.MsgInvalidResetToken, malformed.Message)
	assert.Empty(t, malformed.Errors)

	for name, out := range map[string]auth.ServiceOutcome[bool]{
		"mismatched":      mismatched,
		"mismatched weak": mismatchedWeak,
		"consumed":        consumed,
	} {
		assert.Equal(t, malformed, out, name)
	}
}
