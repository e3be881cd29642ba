package inbound

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamnotify/internal/common/config"
)

type fakeMessage struct {
	seqNum uint32
	raw    []byte
}

func (m *fakeMessage) SeqNum() uint32 { return m.seqNum }
func (m *fakeMessage) Raw() []byte    { return m.raw }

type fakeFolder struct {
	messages []Message
	copies   map[uint32]string
	deleted  []uint32
	copyErr  error
}

func (f *fakeFolder) Messages(ctx context.Context) ([]Message, error) {
	return f.messages, nil
}

func (f *fakeFolder) Copy(ctx context.Context, seqNum uint32, folder string) error {
	if f.copyErr != nil {
		return f.copyErr
	}
	if f.copies == nil {
		f.copies = make(map[uint32]string)
	}
	f.copies[seqNum] = folder
	return nil
}

func (f *fakeFolder) MarkDeleted(ctx context.Context, seqNum uint32) error {
	f.deleted = append(f.deleted, seqNum)
	return nil
}

type fakeStore struct {
	folders      map[string]bool
	folder       *fakeFolder
	connectErr   error
	closed       bool
	folderClosed bool
}

func (s *fakeStore) Connect(ctx context.Context) error {
	return s.connectErr
}

func (s *fakeStore) FolderExists(ctx context.Context, name string) (bool, error) {
	return s.folders[name], nil
}

func (s *fakeStore) OpenFolder(ctx context.Context, name string) (Folder, error) {
	return s.folder, nil
}

func (s *fakeStore) CloseFolder(ctx context.Context) error {
	s.folderClosed = true
	return nil
}

func (s *fakeStore) Close(ctx context.Context) error {
	s.closed = true
	return nil
}

type fakeHandler struct {
	results map[uint32]struct {
		handled bool
		err     error
	}
}

func (h *fakeHandler) Process(ctx context.Context, raw []byte) (bool, error) {
	r := h.results[uint32(raw[0])]
	return r.handled, r.err
}

func testIMAPConfig() config.IMAPConfig {
	return config.IMAPConfig{
		InputFolder:   "INBOX",
		SuccessFolder: "Processed",
		ErrorFolder:   "Errors",
		DiscardFolder: "Discarded",
	}
}

func TestIngester_RoutesByOutcome(t *testing.T) {
	folder := &fakeFolder{messages: []Message{
		&fakeMessage{seqNum: 1, raw: []byte{1}},
		&fakeMessage{seqNum: 2, raw: []byte{2}},
		&fakeMessage{seqNum: 3, raw: []byte{3}},
	}}
	store := &fakeStore{
		folders: map[string]bool{"INBOX": true, "Processed": true, "Errors": true, "Discarded": true},
		folder:  folder,
	}
	handler := &fakeHandler{results: map[uint32]struct {
		handled bool
		err     error
	}{
		1: {handled: true},
		2: {handled: false},
		3: {handled: true, err: fmt.Errorf("boom")},
	}}

	ing := NewIngester(store, testIMAPConfig(), handler, testInboundLogger(t))
	require.NoError(t, ing.Run(context.Background()))

	assert.Equal(t, "Processed", folder.copies[1])
	assert.Equal(t, "Discarded", folder.copies[2])
	assert.Equal(t, "Errors", folder.copies[3])
	assert.ElementsMatch(t, []uint32{1, 2, 3}, folder.deleted)
	assert.True(t, store.folderClosed)
	assert.True(t, store.closed)
}

func TestIngester_BlankFolderSkipsCopy(t *testing.T) {
	folder := &fakeFolder{messages: []Message{
		&fakeMessage{seqNum: 1, raw: []byte{1}},
	}}
	store := &fakeStore{
		folders: map[string]bool{"INBOX": true},
		folder:  folder,
	}
	handler := &fakeHandler{results: map[uint32]struct {
		handled bool
		err     error
	}{
		1: {handled: true},
	}}

	cfg := config.IMAPConfig{InputFolder: "INBOX"}
	ing := NewIngester(store, cfg, handler, testInboundLogger(t))
	require.NoError(t, ing.Run(context.Background()))

	assert.Empty(t, folder.copies)
	assert.Equal(t, []uint32{1}, folder.deleted)
}

func TestIngester_MissingFolderAbortsButClosesStore(t *testing.T) {
	store := &fakeStore{
		folders: map[string]bool{"INBOX": true, "Processed": true},
		folder:  &fakeFolder{},
	}

	ing := NewIngester(store, testIMAPConfig(), &fakeHandler{}, testInboundLogger(t))
	require.NoError(t, ing.Run(context.Background()))

	assert.False(t, store.folderClosed)
	assert.True(t, store.closed)
}

func TestIngester_CopyFailureAbortsRunButClosesStore(t *testing.T) {
	folder := &fakeFolder{
		messages: []Message{
			&fakeMessage{seqNum: 1, raw: []byte{1}},
			&fakeMessage{seqNum: 2, raw: []byte{2}},
		},
		copyErr: fmt.Errorf("connection dropped"),
	}
	store := &fakeStore{
		folders: map[string]bool{"INBOX": true, "Processed": true, "Errors": true, "Discarded": true},
		folder:  folder,
	}
	handler := &fakeHandler{results: map[uint32]struct {
		handled bool
		err     error
	}{
		1: {handled: true},
		2: {handled: true},
	}}

	ing := NewIngester(store, testIMAPConfig(), handler, testInboundLogger(t))
	require.Error(t, ing.Run(context.Background()))

	assert.Empty(t, folder.deleted)
	assert.True(t, store.closed)
}

func TestIngester_ConnectFailure(t *testing.T) {
	store := &fakeStore{connectErr: fmt.Errorf("no route to host")}
	ing := NewIngester(store, testIMAPConfig(), &fakeHandler{}, testInboundLogger(t))
	require.Error(t, ing.Run(context.Background()))
}
