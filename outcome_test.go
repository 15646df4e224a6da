package auth_test

import (
	"encoding/json"
	"testing"
	"time"

	auth "github.com/goliatone/go-event-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceOutcome(t *testing.T) {
	t.Run("succeed carries data and no errors", func(t *testing.T) {
		out := auth.Succeed(42, "done")
		assert.True(t, out.Success)
		assert.False(t, out.HasErrors())
		require.NotNil(t, out.Data)
		assert.Equal(t, 42, *out.Data)
	})

	t.Run("succeed empty has no payload", func(t *testing.T) {
		out := auth.SucceedEmpty[bool]("ok")
		assert.True(t, out.Success)
		assert.Nil(t, out.Data)
	})

	t.Run("fail drops blank and repeated errors", func(t *testing.T) {
		out := auth.Fail[int]("nope", "a", "", "b", "a")
		assert.False(t, out.Success)
		assert.Equal(t, []string{"a", "b"}, out.Errors)
		assert.Nil(t, out.Data)
		assert.Empty(t, out.Token)
	})

	t.Run("fail without errors", func(t *testing.T) {
		out := auth.Fail[int]("nope", "")
		assert.Nil(t, out.Errors)
		assert.False(t, out.HasErrors())
	})

	t.Run("validation failure", func(t *testing.T) {
		out := auth.ValidationFailure[int]("email: cannot be blank")
		assert.Equal(t, auth.MsgValidationFailed, out.Message)
		assert.True(t, out.HasErrors())
	})

	t.Run("authenticated", func(t *testing.T) {
		exp := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		out := auth.Authenticated("user", "tok", exp, "in")
		assert.Equal(t, "tok", out.Token)
		require.NotNil(t, out.TokenExpiration)
		assert.True(t, exp.Equal(*out.TokenExpiration))
	})
}

func TestServiceOutcome_JSON(t *testing.T) {
	raw, err := json.Marshal(auth.Fail[auth.UserInfo](auth.MsgInvalidLogin))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Invalid login attempt."}`, string(raw))
}

func TestServiceOutcome_Cause(t *testing.T) {
	out := auth.FailWith[auth.UserInfo](auth.ErrInvalidLogin, auth.MsgInvalidLogin)
	assert.ErrorIs(t, out.Err(), auth.ErrInvalidLogin)
	assert.Equal(t, auth.TextCodeInvalidLogin, auth.TextCodeOf(out.Err()))

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Invalid login attempt."}`, string(raw))

	assert.ErrorIs(t, auth.ValidationFailure[int]("x").Err(), auth.ErrValidation)
	assert.NoError(t, auth.Fail[int]("nope").Err())
	assert.NoError(t, auth.Succeed(1, "ok").Err())
	assert.Empty(t, auth.TextCodeOf(nil))
}
