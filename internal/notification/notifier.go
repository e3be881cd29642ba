package notification

import (
	"context"

	"streamnotify/internal/common/queue"
	"streamnotify/internal/models"
)

// Notifier keys double as preference-matching transport identifiers.
const (
	NotifierKeyAlert = "ALERT"
	NotifierKeyEmail = "EMAIL"
)

// Notifier delivers one notification entry over one transport. The passed
// notification carries the per-entry type and the already-filtered recipient
// set. A non-nil AsyncRequest is follow-up work for the task queue; notifiers
// that deliver synchronously return nil.
type Notifier interface {
	Key() string
	Notify(ctx context.Context, notif *models.NotificationDTO, props *PropertyMap) (*queue.AsyncRequest, error)
}
