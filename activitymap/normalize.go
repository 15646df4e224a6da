// Package activitymap converts auth activity events into a flat record
// suitable for audit logs and downstream consumers.
package activitymap

import (
	"context"
	"maps"
	"strings"
	"time"

	auth "github.com/goliatone/go-event-auth"
)

// Metadata keys added or preserved by Normalize
const (
	// MetadataKeyOutcome is "success" or "failure", derived from the event type
	MetadataKeyOutcome = "outcome"
	// MetadataKeyReason is the denial or rejection reason when present
	MetadataKeyReason = "reason"
	// MetadataKeyCategory is the event family, e.g. "login" or "password"
	MetadataKeyCategory = "category"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// failures lists the event types that describe a rejected or failed action
var failures = map[auth.ActivityEventType]bool{
	auth.ActivityEventRegistrationFailure:  true,
	auth.ActivityEventLoginFailure:         true,
	auth.ActivityEventPasswordResetFailure: true,
	auth.ActivityEventNotificationFailed:   true,
	auth.ActivityEventAccessDenied:         true,
}

// Normalized is a transport agnostic activity shape
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type mapping struct {
	channel    string
	objectType string
	actor      string
	objectID   func(auth.ActivityEvent) string
}

// Option customizes normalization
type Option func(*mapping)

// WithDefaultChannel sets the channel stamped on every record
func WithDefaultChannel(channel string) Option {
	return func(m *mapping) { m.channel = strings.TrimSpace(channel) }
}

// WithDefaultObjectType sets the object type stamped on every record
func WithDefaultObjectType(objectType string) Option {
	return func(m *mapping) { m.objectType = strings.TrimSpace(objectType) }
}

// WithObjectIDResolver overrides how the object id is read from an event
func WithObjectIDResolver(resolver func(auth.ActivityEvent) string) Option {
	return func(m *mapping) {
		if resolver != nil {
			m.objectID = resolver
		}
	}
}

// WithActorFallback sets the actor id used when the event names no actor or user
func WithActorFallback(actorID string) Option {
	return func(m *mapping) { m.actor = strings.TrimSpace(actorID) }
}

func newMapping(opts []Option) mapping {
	m := mapping{
		channel:    "auth",
		objectType: "user",
		actor:      "system",
		objectID:   func(e auth.ActivityEvent) string { return e.UserID },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Normalize converts an auth.ActivityEvent into a Normalized record.
// The source metadata map is never modified.
func Normalize(event auth.ActivityEvent, opts ...Option) Normalized {
	m := newMapping(opts)

	actor := strings.TrimSpace(event.ActorID)
	if actor == "" {
		actor = strings.TrimSpace(event.UserID)
	}
	if actor == "" {
		actor = m.actor
	}

	at := event.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	metadata := make(map[string]any, len(event.Metadata)+2)
	maps.Copy(metadata, event.Metadata)
	setDefault(metadata, MetadataKeyOutcome, Outcome(event.EventType))
	if category := Category(event.EventType); category != "" {
		setDefault(metadata, MetadataKeyCategory, category)
	}

	return Normalized{
		ActorID:    actor,
		Verb:       string(event.EventType),
		ObjectType: m.objectType,
		ObjectID:   strings.TrimSpace(m.objectID(event)),
		Channel:    m.channel,
		Metadata:   metadata,
		OccurredAt: at,
	}
}

// Outcome classifies an event type as success or failure
func Outcome(eventType auth.ActivityEventType) string {
	if failures[eventType] {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// Category returns the family segment of an "auth.<family>.<action>" event type
func Category(eventType auth.ActivityEventType) string {
	parts := strings.Split(string(eventType), ".")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// Sink adapts a record consumer, such as an audit table writer, into an
// auth.ActivitySink
func Sink(consume func(ctx context.Context, record Normalized) error, opts ...Option) auth.ActivitySink {
	return auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
		if consume == nil {
			return nil
		}
		return consume(ctx, Normalize(event, opts...))
	})
}

func setDefault(metadata map[string]any, key string, value any) {
	if _, ok := metadata[key]; !ok {
		metadata[key] = value
	}
}
