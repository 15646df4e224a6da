package auth_test

import (
	"context"
	"testing"

	auth "github.com/goliatone/go-event-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_Authorize(t *testing.T) {
	tokens, err := auth.NewTokenService(newTestConfig(), nil)
	require.NoError(t, err)

	issue := func(roles auth.RoleType) string {
		token, _, err := tokens.Issue(testIdentity(roles), roles)
		require.NoError(t, err)
		return token
	}

	admin := issue(auth.RoleAdmin)
	creator := issue(auth.RoleEventCreator | auth.RoleEventParticipant)
	noRoles := issue(auth.RoleNone)

	tests := []struct {
		name     string
		token    string
		required auth.RoleType
		allowed  bool
	}{
		{"admin on admin route", admin, auth.RoleAdmin, true},
		{"creator on creator or admin route", creator, auth.RoleAdmin | auth.RoleEventCreator, true},
		{"creator on admin route", creator, auth.RoleAdmin, false},
		{"principal without roles", noRoles, auth.RoleEventParticipant, false},
		{"nothing required", admin, auth.RoleNone, false},
		{"missing token", "", auth.RoleAdmin, false},
		{"invalid token", "a.b.c", auth.RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := auth.NewActivityCounter()
			guard := auth.NewGuard(tokens, nil).WithActivitySink(counter)

			claims, err := guard.Authorize(tt.token, tt.required)
			if tt.allowed {
				require.NoError(t, err)
				assert.NotNil(t, claims)
				assert.Zero(t, counter.Count(auth.ActivityEventAccessDenied))
				return
			}

			assert.Nil(t, claims)
			assert.Same(t, auth.ErrForbidden, err)
			assert.Equal(t, 1, counter.Count(auth.ActivityEventAccessDenied))
		})
	}
}

func TestGuard_AuthorizeNames(t *testing.T) {
	tokens, err := auth.NewTokenService(newTestConfig(), nil)
	require.NoError(t, err)

	token, _, err := tokens.Issue(testIdentity(auth.RoleEventParticipant), auth.RoleEventParticipant)
	require.NoError(t, err)

	guard := auth.NewGuard(tokens, nil)

	_, err = guard.AuthorizeNames(token, "Admin", "EventParticipant")
	assert.NoError(t, err)

	assert.False(t, guard.Allowed(token, auth.RoleAdmin))
	assert.True(t, guard.Allowed(token, auth.RoleEventParticipant))
}

func TestCan(t *testing.T) {
	claims := &auth.JWTClaims{RoleNames: []string{"EventCreator"}}
	ctx := auth.WithClaimsContext(context.Background(), claims)

	assert.True(t, auth.Can(ctx, auth.RoleEventCreator|auth.RoleAdmin))
	assert.False(t, auth.Can(ctx, auth.RoleAdmin))
	assert.False(t, auth.Can(context.Background(), auth.RoleAdmin))
}

func TestCanFromRouter(t *testing.T) {
	ctx := newFakeContext(nil)
	assert.False(t, auth.CanFromRouter(ctx, auth.RoleAdmin))

	ctx.store[auth.DefaultContextKey] = &auth.JWTClaims{RoleNames: []string{"Admin"}}
	assert.True(t, auth.CanFromRouter(ctx, auth.RoleAdmin))
	assert.False(t, auth.CanFromRouter(ctx, auth.RoleEventCreator))

	fallback := newFakeContext(nil)
	fallback.SetContext(auth.WithClaimsContext(context.Background(),
		&auth.JWTClaims{RoleNames: []string{"EventParticipant"}}))
	assert.True(t, auth.CanFromRouter(fallback, auth.RoleEventParticipant))
}
