package auth_test

import (
	"testing"
	"time"

	auth "github.com/goliatone/go-event-auth"
	"github.com/stretchr/testify/assert"
)

func TestThresholdPeriod(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, auth.IsWithinThresholdPeriodAt(now.Add(-time.Hour), 2*time.Hour, now))
	assert.False(t, auth.IsWithinThresholdPeriodAt(now.Add(-3*time.Hour), 2*time.Hour, now))
	assert.True(t, auth.IsOutsideThresholdPeriodAt(now.Add(-2*time.Hour), 2*time.Hour, now))

	assert.True(t, auth.IsWithinThresholdPeriod(time.Now(), time.Minute))
	assert.True(t, auth.IsOutsideThresholdPeriod(time.Now().Add(-time.Hour), time.Minute))
}

func TestParseThreshold(t *testing.T) {
	assert.Equal(t, 24*time.Hour, auth.ParseThreshold("24h", time.Hour))
	assert.Equal(t, time.Hour, auth.ParseThreshold("soon", time.Hour))
	assert.Equal(t, time.Hour, auth.ParseThreshold("-5m", time.Hour))
}
