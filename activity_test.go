package auth_test

import (
	"context"
	"errors"
	"testing"

	auth "github.com/goliatone/go-event-auth"
	"github.com/stretchr/testify/assert"
)

func TestActivityCounter(t *testing.T) {
	counter := auth.NewActivityCounter()
	ctx := context.Background()

	_ = counter.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventLoginSuccess})
	_ = counter.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventLoginSuccess})
	_ = counter.Record(ctx, auth.ActivityEvent{EventType: auth.ActivityEventLoginFailure})

	assert.Equal(t, 2, counter.Count(auth.ActivityEventLoginSuccess))
	assert.Equal(t, 0, counter.Count(auth.ActivityEventUserDeleted))

	snap := counter.Snapshot()
	snap[auth.ActivityEventLoginFailure] = 99
	assert.Equal(t, 1, counter.Count(auth.ActivityEventLoginFailure))
}

func TestMultiActivitySink(t *testing.T) {
	first := auth.NewActivityCounter()
	second := auth.NewActivityCounter()
	boom := errors.New("boom")

	failing := auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error { return boom })

	sink := auth.MultiActivitySink(first, nil, failing, second)
	err := sink.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventRolesAssigned})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.Count(auth.ActivityEventRolesAssigned))
	assert.Equal(t, 1, second.Count(auth.ActivityEventRolesAssigned))
}

func TestActivitySink_Failures(t *testing.T) {
	f := newServiceFixture(t)
	f.service.WithActivitySink(auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error {
		return errors.New("sink down")
	}))

	out := f.service.ValidateResetToken(context.Background(), "", "")
	assert.False(t, out.Success)

	var nilFunc auth.ActivitySinkFunc
	assert.NoError(t, nilFunc.Record(context.Background(), auth.ActivityEvent{}))
}
