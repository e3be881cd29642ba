package notification

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamnotify/internal/models"
)

type mockAlertWriter struct {
	inserted []*models.Alert
	unread   map[int64]int
}

func (m *mockAlertWriter) Insert(ctx context.Context, alert *models.Alert) (int64, error) {
	m.inserted = append(m.inserted, alert)
	m.unread[alert.PersonID]++
	return int64(len(m.inserted)), nil
}

func (m *mockAlertWriter) CountUnread(ctx context.Context, personID int64) (int, error) {
	return m.unread[personID], nil
}

func (m *mockAlertWriter) MarkAllRead(ctx context.Context, personID int64) error {
	m.unread[personID] = 0
	return nil
}

type mockUnreadSyncer struct {
	synced map[int64]int
}

func (m *mockUnreadSyncer) Set(ctx context.Context, personID int64, count int) error {
	m.synced[personID] = count
	return nil
}

func TestAlertNotifier_PersistsAndSyncsPerRecipient(t *testing.T) {
	alerts := &mockAlertWriter{unread: map[int64]int{2: 4}}
	cache := &mockUnreadSyncer{synced: map[int64]int{}}
	n := NewAlertNotifier(alerts, cache, testLogger(t))

	followUp, err := n.Notify(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeLikeActivity,
		ActorName:    "Alice",
		ActivityID:   300,
		RecipientIDs: []int64{1, 2},
	}, NewPropertyMap())
	require.NoError(t, err)
	assert.Nil(t, followUp)

	require.Len(t, alerts.inserted, 2)
	assert.Equal(t, "Alice liked your post", alerts.inserted[0].Message)
	assert.Equal(t, "#activity/300", alerts.inserted[0].URL)

	// Cache reflects the post-insert count for each recipient.
	assert.Equal(t, 1, cache.synced[1])
	assert.Equal(t, 5, cache.synced[2])
}

func TestAlertNotifier_GroupMessageIncludesGroupName(t *testing.T) {
	alerts := &mockAlertWriter{unread: map[int64]int{}}
	cache := &mockUnreadSyncer{synced: map[int64]int{}}
	n := NewAlertNotifier(alerts, cache, testLogger(t))

	_, err := n.Notify(context.Background(), &models.NotificationDTO{
		Type:            models.NotificationTypePostToGroupStream,
		ActorName:       "Bob",
		DestinationName: "Engineering",
		DestinationType: models.EntityTypeGroup,
		ActivityID:      12,
		RecipientIDs:    []int64{7},
	}, NewPropertyMap())
	require.NoError(t, err)
	require.Len(t, alerts.inserted, 1)
	assert.Equal(t, "Bob posted to the Engineering group", alerts.inserted[0].Message)
}

func TestAlertNotifier_MarkAllReadSyncsCacheToZero(t *testing.T) {
	alerts := &mockAlertWriter{unread: map[int64]int{7: 3}}
	cache := &mockUnreadSyncer{synced: map[int64]int{}}
	n := NewAlertNotifier(alerts, cache, testLogger(t))

	require.NoError(t, n.MarkAllRead(context.Background(), 7))
	assert.Equal(t, 0, cache.synced[7])
}

func TestEmailNotifier_ReturnsFollowUpJob(t *testing.T) {
	n := NewEmailNotifier(testLogger(t))

	followUp, err := n.Notify(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeLikeActivity,
		RecipientIDs: []int64{1, 2, 3},
	}, NewPropertyMap())
	require.NoError(t, err)
	require.NotNil(t, followUp)
	assert.Equal(t, ActionSendNotificationEmail, followUp.ActionKey)
	assert.Contains(t, string(followUp.Payload), "LIKE_ACTIVITY")
}

func TestEmailNotifier_PriorityLoaderFailureLogsAndDefaults(t *testing.T) {
	log := &captureLogger{}
	n := NewEmailNotifier(log)

	props := NewPropertyMap()
	props.PutLazy("email.highPriority", func(ctx context.Context) (interface{}, error) {
		return nil, fmt.Errorf("settings store unavailable")
	})

	followUp, err := n.Notify(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeLikeActivity,
		RecipientIDs: []int64{1},
	}, props)
	require.NoError(t, err)
	require.NotNil(t, followUp)
	assert.NotContains(t, string(followUp.Payload), "high_priority")
	require.Len(t, log.warns, 1)
}
