package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"streamnotify/internal/common/logger"
)

// ActionCreateNotifications is the queue action key domain event producers
// use to hand an event to the pipeline.
const ActionCreateNotifications = "notification:create"

// EventJobHandler adapts queued domain events to the orchestrator.
type EventJobHandler struct {
	orchestrator *Orchestrator
	logger       logger.Logger
}

func NewEventJobHandler(orchestrator *Orchestrator, log logger.Logger) *EventJobHandler {
	return &EventJobHandler{orchestrator: orchestrator, logger: log}
}

// Register attaches the handler to the worker mux.
func (h *EventJobHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(ActionCreateNotifications, h.ProcessTask)
}

func (h *EventJobHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var req CreateNotificationsRequest
	if err := json.Unmarshal(task.Payload(), &req); err != nil {
		return fmt.Errorf("unmarshal notification event: %v: %w", err, asynq.SkipRetry)
	}

	handled, err := h.orchestrator.Execute(ctx, &req)
	if err != nil {
		return err
	}
	if !handled {
		h.logger.Debug("Event type disabled", map[string]interface{}{
			"requestType": req.Type,
		})
	}
	return nil
}
