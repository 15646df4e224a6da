package auth

import (
	"context"
	"sync"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventUserRegistered         ActivityEventType = "auth.user.registered"
	ActivityEventRegistrationFailure    ActivityEventType = "auth.user.registration_failed"
	ActivityEventLoginSuccess           ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure           ActivityEventType = "auth.login.failure"
	ActivityEventPasswordChanged        ActivityEventType = "auth.password.changed"
	ActivityEventPasswordResetRequested ActivityEventType = "auth.password.reset_requested"
	ActivityEventPasswordResetSuccess   ActivityEventType = "auth.password.reset"
	ActivityEventPasswordResetFailure   ActivityEventType = "auth.password.reset_failed"
	ActivityEventRolesAssigned          ActivityEventType = "auth.roles.assigned"
	ActivityEventUserDeleted            ActivityEventType = "auth.user.deleted"
	ActivityEventProfileUpdated         ActivityEventType = "auth.profile.updated"
	ActivityEventNotificationFailed     ActivityEventType = "auth.notification.failed"
	ActivityEventAccessDenied           ActivityEventType = "auth.access.denied"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	ActorID    string
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// ActivityCounter is an in memory ActivitySink that counts events per type.
// It can be fanned out alongside a durable sink with MultiActivitySink.
type ActivityCounter struct {
	mu     sync.Mutex
	counts map[ActivityEventType]int
}

// NewActivityCounter creates an empty counter
func NewActivityCounter() *ActivityCounter {
	return &ActivityCounter{counts: make(map[ActivityEventType]int)}
}

// Record implements ActivitySink.
func (c *ActivityCounter) Record(_ context.Context, event ActivityEvent) error {
	c.mu.Lock()
	c.counts[event.EventType]++
	c.mu.Unlock()
	return nil
}

// Count returns how many events of type were recorded
func (c *ActivityCounter) Count(eventType ActivityEventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[eventType]
}

// Snapshot returns a copy of all counters
func (c *ActivityCounter) Snapshot() map[ActivityEventType]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[ActivityEventType]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// MultiActivitySink records each event on every sink and returns the first error
func MultiActivitySink(sinks ...ActivitySink) ActivitySink {
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		var first error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Record(ctx, event); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
