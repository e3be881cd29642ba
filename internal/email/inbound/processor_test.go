package inbound

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/email/token"
	"streamnotify/internal/models"
)

const testSystemAddress = "stream@example.com"

var testKey = []byte("0123456789abcdef")

type mockSenderResolver struct {
	person *models.Person
	key    []byte
	err    error
}

func (m *mockSenderResolver) ResolveSender(ctx context.Context, email string) (*models.Person, []byte, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.person, m.key, nil
}

type mockExecutor struct {
	err      error
	executed []string
}

func (m *mockExecutor) Execute(ctx context.Context, actionKey string, params map[string]interface{}, sender *models.Person) error {
	m.executed = append(m.executed, actionKey)
	return m.err
}

type mockReplier struct {
	replies int
	lastKey string
}

func (m *mockReplier) Reply(ctx context.Context, sender *models.Person, actionKey string, params map[string]interface{}, cause error, original []byte) {
	m.replies++
	m.lastKey = actionKey
}

func testInboundLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func newTestProcessor(t *testing.T, resolver *mockSenderResolver, executor *mockExecutor, replier *mockReplier) *Processor {
	extractor, err := NewContentExtractor([]string{"\r\nFrom: ", "\nFrom: "}, nil)
	require.NoError(t, err)
	return NewProcessor(testSystemAddress, resolver, extractor, DefaultActionSelector{}, executor, replier, testInboundLogger(t))
}

func buildInboundMessage(from string, to []string, body string) []byte {
	raw := fmt.Sprintf("From: %s\r\n", from)
	raw += fmt.Sprintf("To: %s\r\n", strings.Join(to, ", "))
	raw += "Content-Type: text/plain; charset=UTF-8\r\n\r\n" + body
	return []byte(raw)
}

func encodeTestToken(t *testing.T, content token.Content) string {
	tok, err := token.Encode(content, testKey)
	require.NoError(t, err)
	return tok
}

func TestProcessor_HappyPath(t *testing.T) {
	sender := &models.Person{ID: 9, DisplayName: "Jane", Email: "jane@example.com"}
	resolver := &mockSenderResolver{person: sender, key: testKey}
	executor := &mockExecutor{}
	replier := &mockReplier{}
	p := newTestProcessor(t, resolver, executor, replier)

	tok := encodeTestToken(t, token.ForActivity(300, 9))
	raw := buildInboundMessage("jane@example.com",
		[]string{token.BuildAddress(testSystemAddress, tok)},
		"my emailed comment\r\nFrom: quoted stuff\r\n")

	handled, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"post-comment"}, executor.executed)
	assert.Zero(t, replier.replies)
}

func TestProcessor_InvalidThenValidTokenCandidate(t *testing.T) {
	sender := &models.Person{ID: 9, DisplayName: "Jane", Email: "jane@example.com"}
	resolver := &mockSenderResolver{person: sender, key: testKey}
	executor := &mockExecutor{}
	p := newTestProcessor(t, resolver, executor, &mockReplier{})

	valid := encodeTestToken(t, token.ForActivity(300, 9))
	raw := buildInboundMessage("jane@example.com",
		[]string{
			token.BuildAddress(testSystemAddress, "ABC"),
			token.BuildAddress(testSystemAddress, valid),
		},
		"reply body")

	handled, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Len(t, executor.executed, 1)
}

func TestProcessor_NoTokenAddressIsDiscarded(t *testing.T) {
	p := newTestProcessor(t, &mockSenderResolver{}, &mockExecutor{}, &mockReplier{})

	raw := buildInboundMessage("jane@example.com",
		[]string{"someoneelse@example.com"},
		"not for us")

	handled, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestProcessor_ImplausibleTokenIsError(t *testing.T) {
	p := newTestProcessor(t, &mockSenderResolver{}, &mockExecutor{}, &mockReplier{})

	raw := buildInboundMessage("jane@example.com",
		[]string{token.BuildAddress(testSystemAddress, "ABC")},
		"body")

	handled, err := p.Process(context.Background(), raw)
	assert.True(t, handled)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeMessageInvalid, stdErr.Code)
}

func TestProcessor_MissingFromIsError(t *testing.T) {
	p := newTestProcessor(t, &mockSenderResolver{}, &mockExecutor{}, &mockReplier{})

	raw := []byte("To: stream+abc@example.com\r\nContent-Type: text/plain\r\n\r\nbody")

	_, err := p.Process(context.Background(), raw)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeMessageInvalid, stdErr.Code)
}

func TestProcessor_WrongKeyDecodesToError(t *testing.T) {
	sender := &models.Person{ID: 9, Email: "jane@example.com"}
	resolver := &mockSenderResolver{person: sender, key: []byte("fedcba9876543210")}
	replier := &mockReplier{}
	p := newTestProcessor(t, resolver, &mockExecutor{}, replier)

	tok := encodeTestToken(t, token.ForActivity(300, 9))
	raw := buildInboundMessage("jane@example.com",
		[]string{token.BuildAddress(testSystemAddress, tok)},
		"body")

	handled, err := p.Process(context.Background(), raw)
	assert.True(t, handled)
	require.Error(t, err)
	// Validation failures never trigger a reply.
	assert.Zero(t, replier.replies)
}

func TestProcessor_TokenIssuedToOtherSenderIsError(t *testing.T) {
	sender := &models.Person{ID: 8, Email: "other@example.com"}
	resolver := &mockSenderResolver{person: sender, key: testKey}
	replier := &mockReplier{}
	p := newTestProcessor(t, resolver, &mockExecutor{}, replier)

	tok := encodeTestToken(t, token.ForActivity(300, 9))
	raw := buildInboundMessage("other@example.com",
		[]string{token.BuildAddress(testSystemAddress, tok)},
		"body")

	_, err := p.Process(context.Background(), raw)
	require.Error(t, err)
	assert.Zero(t, replier.replies)
}

func TestProcessor_ExecutionFailureRepliesAndReraises(t *testing.T) {
	sender := &models.Person{ID: 9, DisplayName: "Jane", Email: "jane@example.com"}
	resolver := &mockSenderResolver{person: sender, key: testKey}
	executor := &mockExecutor{err: fmt.Errorf("activity is closed")}
	replier := &mockReplier{}
	p := newTestProcessor(t, resolver, executor, replier)

	tok := encodeTestToken(t, token.ForActivity(300, 9))
	raw := buildInboundMessage("jane@example.com",
		[]string{token.BuildAddress(testSystemAddress, tok)},
		"body")

	handled, err := p.Process(context.Background(), raw)
	assert.True(t, handled)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeActionExecutionFailed, stdErr.Code)

	assert.Equal(t, 1, replier.replies)
	assert.Equal(t, "post-comment", replier.lastKey)
}
