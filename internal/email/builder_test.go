package email

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"streamnotify/internal/common/config"
	"streamnotify/internal/common/errors"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/email/token"
	"streamnotify/internal/models"
)

type mockPersonSource struct {
	people map[int64]*models.Person
}

func (m *mockPersonSource) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	p, ok := m.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d not found", id)
	}
	return p, nil
}

func (m *mockPersonSource) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Person, error) {
	out := make(map[int64]*models.Person)
	for _, id := range ids {
		if p, ok := m.people[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type mockActivitySource struct {
	activities map[int64]*models.Activity
	comments   map[int64]*models.Comment
}

func (m *mockActivitySource) GetActivityByID(ctx context.Context, id int64) (*models.Activity, error) {
	a, ok := m.activities[id]
	if !ok {
		return nil, errors.NewActivityNotFoundError(id)
	}
	return a, nil
}

func (m *mockActivitySource) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, errors.NewCommentNotFoundError(id)
	}
	return c, nil
}

type mockKeySource struct {
	keys map[int64][]byte
}

func (m *mockKeySource) GetKeyForPerson(ctx context.Context, personID int64) ([]byte, error) {
	key, ok := m.keys[personID]
	if !ok {
		return nil, fmt.Errorf("no key for person %d", personID)
	}
	return key, nil
}

func testLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestBuilder(t *testing.T, people *mockPersonSource, keys *mockKeySource) *TemplateBuilder {
	cfg := config.EmailConfig{
		SystemAddress: "stream@example.com",
		SubjectPrefix: "[Intranet] ",
	}
	notifCfg := config.NotificationConfig{
		BaseURL:         "https://intranet.example.com/",
		ExtraProperties: map[string]string{"site.name": "Intranet"},
	}
	var keySource KeySource
	if keys != nil {
		keySource = keys
	}
	return NewTemplateBuilder(DefaultRegistry(), people, keySource, cfg, notifCfg, testLogger(t))
}

func TestSubstitutor_RawVsHTMLEscaping(t *testing.T) {
	vars := map[string]string{"content": "<script>alert(1)</script>"}

	raw := RawSubstitutor{}.Substitute("body: $(content)", vars)
	assert.Equal(t, "body: <script>alert(1)</script>", raw)

	escaped := HTMLEscapingSubstitutor{}.Substitute("body: $(content)", vars)
	assert.Equal(t, "body: &lt;script&gt;alert(1)&lt;/script&gt;", escaped)
}

func TestSubstitutor_UnresolvedLeftLiteral(t *testing.T) {
	out := RawSubstitutor{}.Substitute("hello $(missing)", map[string]string{})
	assert.Equal(t, "hello $(missing)", out)

	out = HTMLEscapingSubstitutor{}.Substitute("hello $(missing)", nil)
	assert.Equal(t, "hello $(missing)", out)
}

func TestBuilder_SingleRecipientGetsTo(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{
		1: {ID: 1, Email: "one@example.com"},
	}}
	b := newTestBuilder(t, people, nil)

	msg, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeFollowPerson,
		ActorID:      9,
		ActorName:    "Alice",
		RecipientIDs: []int64{1},
	}, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "one@example.com", msg.To)
	assert.Empty(t, msg.Bcc)
	assert.Equal(t, "[Intranet] Alice is now following you", msg.Subject)
}

func TestBuilder_MultiRecipientGetsBcc(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{
		1: {ID: 1, Email: "one@example.com"},
		2: {ID: 2, Email: "two@example.com"},
		3: {ID: 3, Email: "three@example.com"},
	}}
	b := newTestBuilder(t, people, nil)

	msg, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeFollowPerson,
		ActorID:      9,
		ActorName:    "Alice",
		RecipientIDs: []int64{1, 2, 3},
	}, nil, false)
	require.NoError(t, err)

	assert.Empty(t, msg.To)
	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com", "three@example.com"}, msg.Bcc)
}

func TestBuilder_HTMLEscapingDivergence(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{
		1: {ID: 1, Email: "one@example.com"},
	}}
	b := newTestBuilder(t, people, nil)

	msg, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeFollowPerson,
		ActorID:      9,
		ActorName:    "<script>Eve</script>",
		RecipientIDs: []int64{1},
	}, nil, false)
	require.NoError(t, err)

	assert.Contains(t, msg.TextBody, "<script>Eve</script>")
	assert.Contains(t, msg.HTMLBody, "&lt;script&gt;Eve&lt;/script&gt;")
	assert.NotContains(t, msg.HTMLBody, "<script>Eve")
}

func TestBuilder_ComputedPropertiesWinOverInvocation(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{
		1: {ID: 1, Email: "one@example.com"},
	}}
	b := newTestBuilder(t, people, nil)

	msg, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeFollowPerson,
		ActorID:      9,
		ActorName:    "Alice",
		RecipientIDs: []int64{1},
	}, map[string]string{"actor.name": "Imposter"}, false)
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "Alice")
	assert.NotContains(t, msg.Subject, "Imposter")
}

func TestBuilder_SingleRecipientActivityGetsReplyTo(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{
		1: {ID: 1, Email: "one@example.com"},
	}}
	key := []byte("0123456789abcdef")
	keys := &mockKeySource{keys: map[int64][]byte{1: key}}
	b := newTestBuilder(t, people, keys)

	msg, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypeLikeActivity,
		ActorID:      9,
		ActorName:    "Alice",
		ActivityID:   300,
		ActivityType: models.ActivityTypeStatus,
		RecipientIDs: []int64{1},
	}, nil, false)
	require.NoError(t, err)
	require.NotEmpty(t, msg.ReplyTo)

	tok, ok := token.ExtractToken(msg.ReplyTo, "stream@example.com")
	require.True(t, ok)
	assert.Equal(t, token.Content{'a': 300, 'p': 1}, token.Decode(tok, key))
}

func TestBuilder_MissingTemplateIsHardFailure(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{}}
	b := newTestBuilder(t, people, nil)

	_, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationType("UNKNOWN_TYPE"),
		RecipientIDs: []int64{1},
	}, nil, false)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeTemplateNotFound, stdErr.Code)
}

func TestActivityTypeDisplayName(t *testing.T) {
	assert.Equal(t, "link", ActivityTypeDisplayName(models.ActivityTypeBookmark))
	assert.Equal(t, "message", ActivityTypeDisplayName(models.ActivityTypeNote))
	assert.Equal(t, "status", ActivityTypeDisplayName(models.ActivityTypeStatus))
	assert.Equal(t, "photo", ActivityTypeDisplayName(models.ActivityTypePhoto))
}

func TestActivityBuilder_InjectsContentWithActorName(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{
		1: {ID: 1, Email: "one@example.com"},
	}}
	activities := &mockActivitySource{activities: map[int64]*models.Activity{
		300: {ID: 300, ActorName: "Alice", Content: "%ACTORNAME% shared a thought"},
	}}
	b := NewActivityBuilder(newTestBuilder(t, people, nil), activities)

	msg, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:         models.NotificationTypePostToPersonStream,
		ActorID:      9,
		ActorName:    "Alice",
		ActivityID:   300,
		ActivityType: models.ActivityTypeStatus,
		RecipientIDs: []int64{1},
	}, nil, false)
	require.NoError(t, err)
	assert.Contains(t, msg.TextBody, "Alice shared a thought")
}

func TestActivityBuilder_MissingActivityIsHardFailure(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{}}
	activities := &mockActivitySource{}
	b := NewActivityBuilder(newTestBuilder(t, people, nil), activities)

	_, err := b.Build(context.Background(), &models.NotificationDTO{
		Type:       models.NotificationTypePostToPersonStream,
		ActivityID: 404,
	}, nil, false)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeActivityNotFound, stdErr.Code)
}

func TestBuilderRegistry_Selection(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{}}
	activities := &mockActivitySource{}
	registry := NewDefaultBuilderRegistry(newTestBuilder(t, people, nil), activities)

	builder, err := registry.ForNotification(&models.NotificationDTO{
		Type:         models.NotificationTypeCommentToPersonalPost,
		ActivityID:   300,
		ActivityType: models.ActivityTypeStatus,
		AuxiliaryID:  40,
	})
	require.NoError(t, err)
	assert.IsType(t, &CommentBuilder{}, builder)

	builder, err = registry.ForNotification(&models.NotificationDTO{
		Type:         models.NotificationTypeLikeActivity,
		ActivityID:   300,
		ActivityType: models.ActivityTypeStatus,
	})
	require.NoError(t, err)
	assert.IsType(t, &ActivityBuilder{}, builder)

	builder, err = registry.ForNotification(&models.NotificationDTO{
		Type: models.NotificationTypeFollowPerson,
	})
	require.NoError(t, err)
	assert.IsType(t, &TemplateBuilder{}, builder)
}

func TestBuilderRegistry_UnknownActivityType(t *testing.T) {
	people := &mockPersonSource{people: map[int64]*models.Person{}}
	registry := NewDefaultBuilderRegistry(newTestBuilder(t, people, nil), &mockActivitySource{})

	_, err := registry.ForNotification(&models.NotificationDTO{
		Type:         models.NotificationTypeLikeActivity,
		ActivityID:   300,
		ActivityType: models.ActivityType("HOLOGRAM"),
	})
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeBuilderNotFound, stdErr.Code)
	assert.Contains(t, stdErr.Details, "300")
}
