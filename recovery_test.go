package auth_test

import (
	"context"
	"errors"
	"testing"

	auth "github.com/goliatone/go-event-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRecoveryToken_RoundTrip(t *testing.T) {
	secrets := []string{
		"a",
		"raw-secret",
		"with/slash+plus=equals",
		"CfDJ8Ni4u7k9sUTWT1qKk0qkBZZNB0NNQbq8Kt8r5K7xC2nv",
		"ünïcødé ✓",
	}

	for _, secret := range secrets {
		t.Run(secret, func(t *testing.T) {
			token := auth.EncodeRecoveryToken(secret)
			assert.NotContains(t, token, "=")
			assert.NotContains(t, token, "+")
			assert.NotContains(t, token, "/")

			got, err := auth.DecodeRecoveryToken(token)
			require.NoError(t, err)
			assert.Equal(t, secret, got)
		})
	}
}

func TestRecoveryToken_PaddedInput(t *testing.T) {
	got, err := auth.DecodeRecoveryToken("YQ==")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestRecoveryToken_Malformed(t *testing.T) {
	for _, token := range []string{"", "   ", "===", "not base64!", "a"} {
		t.Run(token, func(t *testing.T) {
			_, err := auth.DecodeRecoveryToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestRecoveryCodec(t *testing.T) {
	store := &MockCredentialStore{}
	codec := auth.NewRecoveryCodec(store, nil)
	user := confirmedUser("jane@example.com", auth.RoleNone)

	store.On("GeneratePasswordResetSecret", mock.Anything, user).Return("secret-1", nil).Once()
	store.On("VerifyPasswordResetSecret", mock.Anything, user, "secret-1").Return(true, nil).Once()

	token, err := codec.Generate(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, auth.EncodeRecoveryToken("secret-1"), token)

	secret, err := codec.Decode(token)
	require.NoError(t, err)

	ok, err := codec.Validate(context.Background(), user, secret)
	require.NoError(t, err)
	assert.True(t, ok)

	store.On("GeneratePasswordResetSecret", mock.Anything, user).Return("", errors.New("db down")).Once()
	_, err = codec.Generate(context.Background(), user)
	assert.Error(t, err)

	store.AssertExpectations(t)
}
