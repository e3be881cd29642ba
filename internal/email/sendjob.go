package email

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/hibiken/asynq"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/notification"
)

// SendJobHandler executes the deferred email job the orchestrator enqueues:
// build the message from the notification, then hand it to the transport.
// Build failures are fatal and skip retry; send failures surface to the queue
// runner, which owns retry policy.
type SendJobHandler struct {
	builders *BuilderRegistry
	sender   Sender
	from     string
	logger   logger.Logger
}

func NewSendJobHandler(builders *BuilderRegistry, sender Sender, systemAddress string, log logger.Logger) *SendJobHandler {
	return &SendJobHandler{
		builders: builders,
		sender:   sender,
		from:     systemAddress,
		logger:   log,
	}
}

// Register attaches the handler to the worker mux under the email action key.
func (h *SendJobHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(notification.ActionSendNotificationEmail, h.ProcessTask)
}

func (h *SendJobHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload notification.EmailJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal email job: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Notification == nil {
		return fmt.Errorf("email job has no notification: %w", asynq.SkipRetry)
	}

	builder, err := h.builders.ForNotification(payload.Notification)
	if err != nil {
		return h.fatal(err)
	}

	built, err := builder.Build(ctx, payload.Notification, nil, payload.HighPriority)
	if err != nil {
		return h.fatal(errors.NewEmailBuildFailedError(err))
	}

	if err := h.sender.Send(ctx, FromNotificationEmail(built, h.from)); err != nil {
		h.logger.Error("Email send failed", map[string]interface{}{
			"notificationType": payload.Notification.Type,
			"error":            err.Error(),
		})
		return err
	}
	return nil
}

// fatal logs a build failure and marks the task non-retryable: rebuilding the
// same message will fail the same way.
func (h *SendJobHandler) fatal(err error) error {
	h.logger.Error("Email build failed", map[string]interface{}{
		"error": err.Error(),
	})
	return stderrors.Join(err, asynq.SkipRetry)
}
