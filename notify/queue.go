package notify

import (
	"context"
	"encoding/json"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue email tasks go to unless configured otherwise
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for transactional emails
	TaskTypeSendEmail = "email:send"
	// DefaultMaxRetry bounds delivery attempts for a queued email
	DefaultMaxRetry = 3
)

// Enqueuer is the subset of *asynq.Client used by QueueTransport
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueTransport defers delivery to an asynq worker
type QueueTransport struct {
	client   Enqueuer
	queue    string
	maxRetry int
}

var _ Transport = (*QueueTransport)(nil)

// NewQueueTransport creates a QueueTransport on queue
func NewQueueTransport(client Enqueuer, queue string) *QueueTransport {
	if queue == "" {
		queue = QueueDefault
	}
	return &QueueTransport{client: client, queue: queue, maxRetry: DefaultMaxRetry}
}

// WithMaxRetry overrides the retry budget for enqueued tasks
func (q *QueueTransport) WithMaxRetry(n int) *QueueTransport {
	if n >= 0 {
		q.maxRetry = n
	}
	return q
}

func (q *QueueTransport) Deliver(ctx context.Context, msg Message) error {
	task, err := NewSendEmailTask(msg)
	if err != nil {
		return err
	}

	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(q.queue), asynq.MaxRetry(q.maxRetry)); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to enqueue email").
			WithMetadata(map[string]any{"queue": q.queue, "template": msg.Template})
	}
	return nil
}

// NewSendEmailTask wraps msg in an asynq task
func NewSendEmailTask(msg Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode email task")
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks by delivering
// them through transport. Undecodable payloads are not retried.
func NewSendEmailHandler(transport Transport) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(t.Payload(), &msg); err != nil {
			return fmt.Errorf("decode email task: %v: %w", err, asynq.SkipRetry)
		}
		if msg.To == "" {
			return fmt.Errorf("email task without recipient: %w", asynq.SkipRetry)
		}
		return transport.Deliver(ctx, msg)
	}
}

// NewServeMux registers the email handler on a new asynq mux
func NewServeMux(transport Transport) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeSendEmail, NewSendEmailHandler(transport))
	return mux
}
