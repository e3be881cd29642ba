package inbound

import (
	"bytes"
	"context"
	"fmt"

	"github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/email/token"
	"streamnotify/internal/models"
)

// SenderResolver resolves a sender address to a person and their token key.
type SenderResolver interface {
	ResolveSender(ctx context.Context, email string) (*models.Person, []byte, error)
}

// ActionSelector picks the action an inbound message requests from the
// decoded token, the extracted content and the sender.
type ActionSelector interface {
	Select(tokenData token.Content, content string, sender *models.Person) (actionKey string, params map[string]interface{}, err error)
}

// ActionExecutor runs a selected action on behalf of the sender.
type ActionExecutor interface {
	Execute(ctx context.Context, actionKey string, params map[string]interface{}, sender *models.Person) error
}

// FailureReplier sends a best-effort explanation back to the sender when
// action execution fails.
type FailureReplier interface {
	Reply(ctx context.Context, sender *models.Person, actionKey string, params map[string]interface{}, cause error, original []byte)
}

// Processor turns one raw inbound message into an authenticated action
// execution.
type Processor struct {
	systemAddress string
	senders       SenderResolver
	extractor     *ContentExtractor
	selector      ActionSelector
	executor      ActionExecutor
	replier       FailureReplier
	logger        logger.Logger
}

func NewProcessor(systemAddress string, senders SenderResolver, extractor *ContentExtractor, selector ActionSelector, executor ActionExecutor, replier FailureReplier, log logger.Logger) *Processor {
	return &Processor{
		systemAddress: systemAddress,
		senders:       senders,
		extractor:     extractor,
		selector:      selector,
		executor:      executor,
		replier:       replier,
		logger:        log,
	}
}

// Process handles one message. It returns false with no error when the
// message carries no token address for this system at all, so the ingester
// can discard it. Failures after that point are errors: the sender addressed
// the system but the message could not be honored.
//
// A bounce reply goes out only when the selected action itself fails, never
// for validation failures, so a forged or replayed message cannot be used to
// probe the system through its replies.
func (p *Processor) Process(ctx context.Context, raw []byte) (bool, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil {
		return true, errors.NewMessageInvalidError(fmt.Sprintf("unparseable message: %v", err))
	}

	sender, err := p.singleFrom(entity)
	if err != nil {
		return true, err
	}

	tok, found := p.findToken(entity)
	if !found {
		return false, nil
	}
	if tok == "" {
		return true, errors.NewMessageInvalidError("no plausible token among recipient addresses")
	}

	person, key, err := p.senders.ResolveSender(ctx, sender)
	if err != nil {
		return true, err
	}

	tokenData := token.Decode(tok, key)
	if tokenData == nil {
		return true, errors.NewMessageInvalidError("token did not decode for sender")
	}

	content, ok := p.extractor.Extract(entity)
	if !ok {
		return true, errors.NewMessageInvalidError("no usable content found in message")
	}

	actionKey, params, err := p.selector.Select(tokenData, content, person)
	if err != nil {
		return true, errors.NewMessageInvalidError(fmt.Sprintf("no action for message: %v", err))
	}

	if err := p.executor.Execute(ctx, actionKey, params, person); err != nil {
		execErr := errors.NewActionExecutionError(actionKey, err)
		if p.replier != nil {
			p.replier.Reply(ctx, person, actionKey, params, execErr, raw)
		}
		return true, execErr
	}

	p.logger.Info("Inbound action executed", map[string]interface{}{
		"action":   actionKey,
		"personId": person.ID,
	})
	return true, nil
}

// singleFrom requires exactly one From address.
func (p *Processor) singleFrom(entity *message.Entity) (string, error) {
	header := gomail.Header{Header: entity.Header}
	froms, err := header.AddressList("From")
	if err != nil {
		return "", errors.NewMessageInvalidError(fmt.Sprintf("unparseable From header: %v", err))
	}
	if len(froms) != 1 {
		return "", errors.NewMessageInvalidError(fmt.Sprintf("expected exactly one From address, got %d", len(froms)))
	}
	return froms[0].Address, nil
}

// findToken scans the To recipients for the system's token-address form. The
// outer boolean reports whether any recipient was a plus-address of the
// system at all; the token string is the first extraction passing the cheap
// plausibility check, or empty when every extraction failed it.
func (p *Processor) findToken(entity *message.Entity) (string, bool) {
	header := gomail.Header{Header: entity.Header}
	recipients, err := header.AddressList("To")
	if err != nil {
		return "", false
	}

	anyExtracted := false
	for _, addr := range recipients {
		tok, ok := token.ExtractToken(addr.Address, p.systemAddress)
		if !ok {
			continue
		}
		anyExtracted = true
		if token.CouldBeToken(tok) {
			return tok, true
		}
	}
	return "", anyExtracted
}
