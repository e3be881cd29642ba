package notification

import (
	"context"
	"fmt"

	"streamnotify/internal/common/logger"
	"streamnotify/internal/common/queue"
	"streamnotify/internal/models"
)

// AlertWriter is the slice of the alert store the in-app notifier needs.
type AlertWriter interface {
	Insert(ctx context.Context, alert *models.Alert) (int64, error)
	CountUnread(ctx context.Context, personID int64) (int, error)
	MarkAllRead(ctx context.Context, personID int64) error
}

// UnreadCountSyncer pushes a person's authoritative unread count to the cache.
type UnreadCountSyncer interface {
	Set(ctx context.Context, personID int64, count int) error
}

var alertMessages = map[models.NotificationType]string{
	models.NotificationTypeFollowPerson:           "%s is now following you",
	models.NotificationTypeFollowGroup:            "%s is now following the %s group",
	models.NotificationTypePostToPersonStream:     "%s posted to your stream",
	models.NotificationTypePostToGroupStream:      "%s posted to the %s group",
	models.NotificationTypeCommentToPersonalPost:  "%s commented on your post",
	models.NotificationTypeCommentToGroupPost:     "%s commented on a post in the %s group",
	models.NotificationTypeCommentToCommentedPost: "%s commented on a post you commented on",
	models.NotificationTypeLikeActivity:           "%s liked your post",
}

// AlertNotifier persists an in-app alert per recipient and syncs each
// recipient's cached unread count immediately after the write. Fully
// synchronous, never returns follow-up work.
type AlertNotifier struct {
	alerts AlertWriter
	cache  UnreadCountSyncer
	logger logger.Logger
}

func NewAlertNotifier(alerts AlertWriter, cache UnreadCountSyncer, log logger.Logger) *AlertNotifier {
	return &AlertNotifier{alerts: alerts, cache: cache, logger: log}
}

func (n *AlertNotifier) Key() string {
	return NotifierKeyAlert
}

func (n *AlertNotifier) Notify(ctx context.Context, notif *models.NotificationDTO, props *PropertyMap) (*queue.AsyncRequest, error) {
	message := n.renderMessage(notif)
	url := alertURL(notif)

	for _, personID := range notif.RecipientIDs {
		_, err := n.alerts.Insert(ctx, &models.Alert{
			PersonID:  personID,
			Type:      notif.Type,
			ActorName: notif.ActorName,
			Message:   message,
			URL:       url,
		})
		if err != nil {
			return nil, err
		}
		if err := n.syncUnreadCount(ctx, personID); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// MarkAllRead clears a person's unread alerts. Like every alert write path it
// re-syncs the cached count for that person in the same call.
func (n *AlertNotifier) MarkAllRead(ctx context.Context, personID int64) error {
	if err := n.alerts.MarkAllRead(ctx, personID); err != nil {
		return err
	}
	return n.syncUnreadCount(ctx, personID)
}

func (n *AlertNotifier) renderMessage(notif *models.NotificationDTO) string {
	format, ok := alertMessages[notif.Type]
	if !ok {
		return fmt.Sprintf("%s sent you a notification", notif.ActorName)
	}
	switch notif.Type {
	case models.NotificationTypeFollowGroup,
		models.NotificationTypePostToGroupStream,
		models.NotificationTypeCommentToGroupPost:
		return fmt.Sprintf(format, notif.ActorName, notif.DestinationName)
	}
	return fmt.Sprintf(format, notif.ActorName)
}

func (n *AlertNotifier) syncUnreadCount(ctx context.Context, personID int64) error {
	count, err := n.alerts.CountUnread(ctx, personID)
	if err != nil {
		return err
	}
	return n.cache.Set(ctx, personID, count)
}

func alertURL(notif *models.NotificationDTO) string {
	if notif.ActivityID > 0 {
		return fmt.Sprintf("#activity/%d", notif.ActivityID)
	}
	if notif.ActorAccountID != "" {
		return fmt.Sprintf("#people/%s", notif.ActorAccountID)
	}
	return ""
}
