package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-event-auth/activitymap"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ActivityRecord is a persisted, normalized activity event
type ActivityRecord struct {
	bun.BaseModel `bun:"table:auth_activity,alias:act"`

	ID         uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id"`
	ActorID    string         `bun:"actor_id,notnull" json:"actor_id"`
	Verb       string         `bun:"verb,notnull" json:"verb"`
	ObjectType string         `bun:"object_type" json:"object_type,omitempty"`
	ObjectID   string         `bun:"object_id" json:"object_id,omitempty"`
	Channel    string         `bun:"channel" json:"channel,omitempty"`
	Metadata   map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	OccurredAt time.Time      `bun:"occurred_at,notnull" json:"occurred_at"`
}

// ActivityLog appends activity records to the auth_activity table
type ActivityLog struct {
	db bun.IDB
}

// NewActivityLog creates an ActivityLog over db
func NewActivityLog(db bun.IDB) *ActivityLog {
	return &ActivityLog{db: db}
}

// Append stores record. It matches the consumer signature of activitymap.Sink.
func (l *ActivityLog) Append(ctx context.Context, record activitymap.Normalized) error {
	model := &ActivityRecord{
		ID:         uuid.New(),
		ActorID:    record.ActorID,
		Verb:       record.Verb,
		ObjectType: record.ObjectType,
		ObjectID:   record.ObjectID,
		Channel:    record.Channel,
		Metadata:   record.Metadata,
		OccurredAt: record.OccurredAt.UTC(),
	}

	if _, err := l.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to append activity").
			WithMetadata(map[string]any{"verb": record.Verb})
	}
	return nil
}

// ListByObject returns the activity about objectID, oldest first
func (l *ActivityLog) ListByObject(ctx context.Context, objectID string, limit int) ([]ActivityRecord, error) {
	var records []ActivityRecord

	q := l.db.NewSelect().
		Model(&records).
		Where("?TableAlias.object_id = ?", objectID).
		OrderExpr("?TableAlias.occurred_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil && !isNotFound(err) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list activity")
	}
	return records, nil
}
