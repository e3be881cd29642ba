package notification

import (
	"context"
	"encoding/json"

	"streamnotify/internal/common/logger"
	"streamnotify/internal/common/queue"
	"streamnotify/internal/models"
)

// ActionSendNotificationEmail is the queue action key for the deferred email
// build-and-send job.
const ActionSendNotificationEmail = "notification:email"

// EmailJobPayload is the serialized follow-up job for one email notification.
type EmailJobPayload struct {
	Notification *models.NotificationDTO `json:"notification"`
	HighPriority bool                    `json:"high_priority,omitempty"`
}

// EmailNotifier performs no I/O. It packages the notification as a follow-up
// job so fan-out stays decoupled from the slower build-and-send path.
type EmailNotifier struct {
	logger logger.Logger
}

func NewEmailNotifier(log logger.Logger) *EmailNotifier {
	return &EmailNotifier{logger: log}
}

func (n *EmailNotifier) Key() string {
	return NotifierKeyEmail
}

func (n *EmailNotifier) Notify(ctx context.Context, notif *models.NotificationDTO, props *PropertyMap) (*queue.AsyncRequest, error) {
	highPriority := false
	v, ok, err := props.Get(ctx, "email.highPriority")
	if err != nil {
		// Priority falls back to normal; the mail still goes out.
		n.logger.Warn("Priority property failed to resolve", map[string]interface{}{
			"notificationType": notif.Type,
			"error":            err.Error(),
		})
	} else if ok {
		if b, isBool := v.(bool); isBool {
			highPriority = b
		}
	}

	payload, err := json.Marshal(EmailJobPayload{
		Notification: notif,
		HighPriority: highPriority,
	})
	if err != nil {
		return nil, err
	}

	return &queue.AsyncRequest{
		ActionKey: ActionSendNotificationEmail,
		Payload:   payload,
	}, nil
}
