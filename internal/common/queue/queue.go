package queue

import (
	"context"
	"fmt"
	"time"

	"streamnotify/internal/common/config"
	"streamnotify/internal/common/logger"

	"github.com/hibiken/asynq"
)

// AsyncRequest is the unit of work handed to the task queue. ActionKey selects
// the handler on the worker side; Payload is an opaque JSON document owned by
// that handler.
type AsyncRequest struct {
	ActionKey string `json:"action_key"`
	Payload   []byte `json:"payload"`
}

// Dispatcher submits async requests for background execution.
type Dispatcher interface {
	Submit(ctx context.Context, req *AsyncRequest) error
	Close() error
}

type asynqDispatcher struct {
	client *asynq.Client
	cfg    config.QueueConfig
	logger logger.Logger
}

// NewDispatcher creates a Dispatcher backed by asynq on the given Redis
// connection.
func NewDispatcher(cfg config.QueueConfig, redisCfg config.RedisConfig, log logger.Logger) Dispatcher {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return &asynqDispatcher{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}

func (d *asynqDispatcher) Submit(ctx context.Context, req *AsyncRequest) error {
	if req == nil {
		return nil
	}

	task := asynq.NewTask(req.ActionKey, req.Payload)

	info, err := d.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(d.cfg.MaxRetries),
		asynq.Timeout(time.Duration(d.cfg.Timeout)*time.Millisecond),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", req.ActionKey, err)
	}

	d.logger.Debug("Enqueued async request", map[string]interface{}{
		"action_key": req.ActionKey,
		"task_id":    info.ID,
		"queue":      info.Queue,
	})
	return nil
}

func (d *asynqDispatcher) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// NewServer builds the asynq worker server that executes submitted requests.
// Handlers are registered on the returned mux by action key.
func NewServer(cfg config.QueueConfig, redisCfg config.RedisConfig) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisCfg.Address,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
		},
	)
	return srv, asynq.NewServeMux()
}
