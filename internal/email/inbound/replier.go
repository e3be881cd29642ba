package inbound

import (
	"context"
	"fmt"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/email"
	"streamnotify/internal/models"
)

// Replier sends the bounce-style explanation for a failed inbound action.
// The reply carries a sanitized error only, with the original message
// attached, and every failure in building or sending the reply is swallowed:
// the error path must never double-fault.
type Replier struct {
	templates *email.Registry
	sender    email.Sender
	from      string
	rawSub    email.Substitutor
	htmlSub   email.Substitutor
	logger    logger.Logger
}

func NewReplier(templates *email.Registry, sender email.Sender, systemAddress string, log logger.Logger) *Replier {
	return &Replier{
		templates: templates,
		sender:    sender,
		from:      systemAddress,
		rawSub:    email.RawSubstitutor{},
		htmlSub:   email.HTMLEscapingSubstitutor{},
		logger:    log,
	}
}

func (r *Replier) Reply(ctx context.Context, sender *models.Person, actionKey string, params map[string]interface{}, cause error, original []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic while building failure reply", map[string]interface{}{
				"panic": fmt.Sprint(rec),
			})
		}
	}()

	if sender == nil {
		r.logger.Warn("No resolved sender to reply to, dropping failure reply", map[string]interface{}{
			"action": actionKey,
		})
		return
	}

	tmpl := r.templates.ForErrorReply(actionKey)

	vars := map[string]string{
		"action.name":   actionKey,
		"action.params": fmt.Sprint(params),
		"error.message": errors.Sanitize(cause).Error(),
		"user.name":     sender.DisplayName,
	}

	msg := &email.OutboundMessage{
		From:           r.from,
		To:             sender.Email,
		Subject:        r.rawSub.Substitute(tmpl.Subject, vars),
		TextBody:       r.rawSub.Substitute(tmpl.TextBody, vars),
		HTMLBody:       r.htmlSub.Substitute(tmpl.HTMLBody, vars),
		AttachedRFC822: original,
	}

	if err := r.sender.Send(ctx, msg); err != nil {
		r.logger.Error("Failed to send failure reply", map[string]interface{}{
			"action":   actionKey,
			"personId": sender.ID,
			"error":    err.Error(),
		})
	}
}
