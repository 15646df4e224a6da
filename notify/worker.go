package notify

import (
	"context"

	auth "github.com/goliatone/go-event-auth"
	"github.com/hibiken/asynq"
)

// Worker drains the email queue and delivers through a Transport
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger auth.Logger
}

// WorkerConfig collects what the worker needs
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Queue       string
	Concurrency int
	Transport   Transport
	Logger      auth.Logger
}

// NewWorker constructs a Worker
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Queue == "" {
		cfg.Queue = QueueDefault
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = auth.NewSlogLogger(nil)
	}
	if cfg.Transport == nil {
		cfg.Transport = NewLogTransport(cfg.Logger)
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			cfg.Queue: 1,
		},
	})

	return &Worker{server: srv, mux: NewServeMux(cfg.Transport), logger: cfg.Logger}
}

// Run processes tasks until ctx is cancelled or the server fails
func (w *Worker) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("email worker shutting down")
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
