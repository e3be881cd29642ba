package inbound

import (
	"context"
	"time"

	"streamnotify/internal/common/config"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/common/metrics"
)

// Message is one fetched mailbox message.
type Message interface {
	SeqNum() uint32
	Raw() []byte
}

// Folder is an open mailbox folder.
type Folder interface {
	Messages(ctx context.Context) ([]Message, error)
	Copy(ctx context.Context, seqNum uint32, folder string) error
	MarkDeleted(ctx context.Context, seqNum uint32) error
}

// Store is a connection to a mail store. Close must be safe to call on every
// exit path, connected or not.
type Store interface {
	Connect(ctx context.Context) error
	FolderExists(ctx context.Context, name string) (bool, error)
	OpenFolder(ctx context.Context, name string) (Folder, error)
	// CloseFolder closes the open folder, expunging deleted messages.
	CloseFolder(ctx context.Context) error
	Close(ctx context.Context) error
}

// MessageHandler processes one raw message. The boolean reports whether the
// message was addressed to the system at all; false routes it to the discard
// folder instead of success or error.
type MessageHandler interface {
	Process(ctx context.Context, raw []byte) (bool, error)
}

// Ingester drains the input folder once per run. Each message is processed,
// copied to the folder matching its outcome (success, discard or error;
// a blank folder name skips the copy) and flagged deleted; the close expunges.
// Any store-level failure aborts the rest of the run, but the store is always
// closed. Concurrent runs against the same mailbox are not supported; the
// scheduler guarantees one run at a time.
type Ingester struct {
	store   Store
	cfg     config.IMAPConfig
	handler MessageHandler
	logger  logger.Logger
}

func NewIngester(store Store, cfg config.IMAPConfig, handler MessageHandler, log logger.Logger) *Ingester {
	return &Ingester{store: store, cfg: cfg, handler: handler, logger: log}
}

func (i *Ingester) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.IngestRunDuration.Observe(time.Since(start).Seconds())
	}()

	if err := i.store.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := i.store.Close(ctx); err != nil {
			i.logger.Warn("Failed to close mail store", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	required := []string{i.cfg.InputFolder}
	for _, name := range []string{i.cfg.SuccessFolder, i.cfg.ErrorFolder, i.cfg.DiscardFolder} {
		if name != "" {
			required = append(required, name)
		}
	}
	for _, name := range required {
		exists, err := i.store.FolderExists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			i.logger.Error("Mail folder missing, aborting run", map[string]interface{}{
				"folder": name,
			})
			return nil
		}
	}

	folder, err := i.store.OpenFolder(ctx, i.cfg.InputFolder)
	if err != nil {
		return err
	}

	messages, err := folder.Messages(ctx)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		handled, procErr := i.handler.Process(ctx, msg.Raw())

		outcome := "success"
		dest := i.cfg.SuccessFolder
		switch {
		case procErr != nil:
			outcome = "error"
			dest = i.cfg.ErrorFolder
			i.logger.Error("Inbound message failed", map[string]interface{}{
				"seqNum": msg.SeqNum(),
				"error":  procErr.Error(),
			})
		case !handled:
			outcome = "discard"
			dest = i.cfg.DiscardFolder
		}
		metrics.InboundMessages.WithLabelValues(outcome).Inc()

		if dest != "" {
			if err := folder.Copy(ctx, msg.SeqNum(), dest); err != nil {
				return err
			}
		}
		if err := folder.MarkDeleted(ctx, msg.SeqNum()); err != nil {
			return err
		}
	}

	return i.store.CloseFolder(ctx)
}
