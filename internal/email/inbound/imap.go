package inbound

import (
	"context"
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"streamnotify/internal/common/config"
	"streamnotify/internal/common/logger"
)

// IMAPStore adapts an IMAP connection to the Store interface.
type IMAPStore struct {
	cfg    config.IMAPConfig
	client *client.Client
	logger logger.Logger
}

func NewIMAPStore(cfg config.IMAPConfig, log logger.Logger) *IMAPStore {
	return &IMAPStore{cfg: cfg, logger: log}
}

func (s *IMAPStore) Connect(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var c *client.Client
	var err error
	if s.cfg.UseTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return fmt.Errorf("connecting to IMAP server: %w", err)
	}

	if err := c.Login(s.cfg.Username, s.cfg.Password); err != nil {
		c.Logout()
		return fmt.Errorf("IMAP login failed: %w", err)
	}
	s.client = c
	return nil
}

func (s *IMAPStore) FolderExists(ctx context.Context, name string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("IMAP store not connected")
	}

	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.client.List("", name, mailboxes)
	}()

	found := false
	for mbox := range mailboxes {
		if mbox.Name == name {
			found = true
		}
	}
	if err := <-done; err != nil {
		return false, fmt.Errorf("listing mailboxes: %w", err)
	}
	return found, nil
}

func (s *IMAPStore) OpenFolder(ctx context.Context, name string) (Folder, error) {
	if s.client == nil {
		return nil, fmt.Errorf("IMAP store not connected")
	}
	mbox, err := s.client.Select(name, false)
	if err != nil {
		return nil, fmt.Errorf("selecting folder %s: %w", name, err)
	}
	return &imapFolder{client: s.client, count: mbox.Messages}, nil
}

// CloseFolder issues an IMAP CLOSE, which expunges flagged messages.
func (s *IMAPStore) CloseFolder(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *IMAPStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	err := s.client.Logout()
	s.client = nil
	return err
}

type imapFolder struct {
	client *client.Client
	count  uint32
}

func (f *imapFolder) Messages(ctx context.Context) ([]Message, error) {
	if f.count == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(1, f.count)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	ch := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- f.client.Fetch(seqset, items, ch)
	}()

	var messages []Message
	for msg := range ch {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			continue
		}
		messages = append(messages, &imapMessage{seqNum: msg.SeqNum, raw: raw})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	return messages, nil
}

func (f *imapFolder) Copy(ctx context.Context, seqNum uint32, folder string) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNum)
	if err := f.client.Copy(seqset, folder); err != nil {
		return fmt.Errorf("copying message %d to %s: %w", seqNum, folder, err)
	}
	return nil
}

func (f *imapFolder) MarkDeleted(ctx context.Context, seqNum uint32) error {
	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNum)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.DeletedFlag}
	if err := f.client.Store(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("flagging message %d deleted: %w", seqNum, err)
	}
	return nil
}

type imapMessage struct {
	seqNum uint32
	raw    []byte
}

func (m *imapMessage) SeqNum() uint32 {
	return m.seqNum
}

func (m *imapMessage) Raw() []byte {
	return m.raw
}
