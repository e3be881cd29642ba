package notification

import (
	"context"
	"fmt"
	"sync"

	"streamnotify/internal/common/logger"
	"streamnotify/internal/common/queue"
	"streamnotify/internal/models"
)

type mockPersonReader struct {
	people map[int64]*models.Person
	calls  int
}

func (m *mockPersonReader) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	m.calls++
	p, ok := m.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d not found", id)
	}
	return p, nil
}

func (m *mockPersonReader) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Person, error) {
	out := make(map[int64]*models.Person)
	for _, id := range ids {
		if p, ok := m.people[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockActivityReader struct {
	activities map[int64]*models.Activity
	comments   map[int64]*models.Comment
	commenters map[int64][]int64
}

func (m *mockActivityReader) GetActivityByID(ctx context.Context, id int64) (*models.Activity, error) {
	a, ok := m.activities[id]
	if !ok {
		return nil, fmt.Errorf("activity %d not found", id)
	}
	return a, nil
}

func (m *mockActivityReader) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %d not found", id)
	}
	return c, nil
}

func (m *mockActivityReader) GetCommentAuthorIDs(ctx context.Context, activityID int64) ([]int64, error) {
	return m.commenters[activityID], nil
}

type mockPreferenceReader struct {
	prefs []models.FilterPreference
	err   error
}

func (m *mockPreferenceReader) GetByPersonIDs(ctx context.Context, personIDs []int64) ([]models.FilterPreference, error) {
	return m.prefs, m.err
}

type mockNotifier struct {
	key      string
	notifyFn func(ctx context.Context, notif *models.NotificationDTO, props *PropertyMap) (*queue.AsyncRequest, error)

	mu       sync.Mutex
	received []*models.NotificationDTO
}

func (m *mockNotifier) Key() string {
	return m.key
}

func (m *mockNotifier) Notify(ctx context.Context, notif *models.NotificationDTO, props *PropertyMap) (*queue.AsyncRequest, error) {
	m.mu.Lock()
	m.received = append(m.received, notif)
	m.mu.Unlock()
	if m.notifyFn != nil {
		return m.notifyFn(ctx, notif, props)
	}
	return nil, nil
}

type mockDispatcher struct {
	submitted []*queue.AsyncRequest
	err       error
}

func (m *mockDispatcher) Submit(ctx context.Context, req *queue.AsyncRequest) error {
	if m.err != nil {
		return m.err
	}
	m.submitted = append(m.submitted, req)
	return nil
}

func (m *mockDispatcher) Close() error {
	return nil
}

// captureLogger records warn/error messages so tests can assert on them.
type captureLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *captureLogger) Debug(msg string, fields map[string]interface{}) {}
func (l *captureLogger) Info(msg string, fields map[string]interface{})  {}

func (l *captureLogger) Warn(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) Error(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *captureLogger) WithFields(fields map[string]interface{}) logger.Logger { return l }
func (l *captureLogger) WithError(err error) logger.Logger                      { return l }
