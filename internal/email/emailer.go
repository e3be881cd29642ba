package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"

	"streamnotify/internal/common/config"
	"streamnotify/internal/common/errors"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/common/metrics"
	"streamnotify/internal/models"
)

// OutboundMessage is a fully addressed message ready for a transport.
type OutboundMessage struct {
	From         string
	To           string
	Bcc          []string
	ReplyTo      string
	Subject      string
	TextBody     string
	HTMLBody     string
	HighPriority bool

	// AttachedRFC822 carries an original inbound message attached to a
	// bounce reply.
	AttachedRFC822 []byte
}

// FromNotificationEmail addresses a built notification email for sending.
func FromNotificationEmail(built *models.NotificationEmail, from string) *OutboundMessage {
	return &OutboundMessage{
		From:         from,
		To:           built.To,
		Bcc:          built.Bcc,
		ReplyTo:      built.ReplyTo,
		Subject:      built.Subject,
		TextBody:     built.TextBody,
		HTMLBody:     built.HTMLBody,
		HighPriority: built.HighPriority,
	}
}

// Recipients returns every envelope recipient.
func (m *OutboundMessage) Recipients() []string {
	var all []string
	if m.To != "" {
		all = append(all, m.To)
	}
	all = append(all, m.Bcc...)
	return all
}

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, msg *OutboundMessage) error
}

// NewSender picks the configured transport: SES when enabled, SMTP otherwise.
func NewSender(cfg config.EmailConfig, log logger.Logger) (Sender, error) {
	if cfg.SES.Enabled {
		return NewSESSender(cfg.SES, log)
	}
	return NewSMTPSender(cfg.SMTP, log), nil
}

// BuildMIME renders the message as a MIME document: multipart/alternative
// for text+HTML, wrapped in multipart/mixed when an original message is
// attached.
func BuildMIME(msg *OutboundMessage) ([]byte, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	if msg.To != "" {
		b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	}
	if msg.ReplyTo != "" {
		b.WriteString(fmt.Sprintf("Reply-To: %s\r\n", msg.ReplyTo))
	}
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Message-ID: <%s@streamnotify>\r\n", uuid.NewString()))
	if msg.HighPriority {
		b.WriteString("X-Priority: 1\r\n")
		b.WriteString("Importance: high\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n")

	var body strings.Builder
	altWriter := multipart.NewWriter(&body)
	if err := writeAlternative(altWriter, msg); err != nil {
		return nil, err
	}

	if len(msg.AttachedRFC822) == 0 {
		b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", altWriter.Boundary()))
		b.WriteString(body.String())
		return []byte(b.String()), nil
	}

	var mixed strings.Builder
	mixedWriter := multipart.NewWriter(&mixed)

	altPart, err := mixedWriter.CreatePart(textproto.MIMEHeader{
		"Content-Type": {fmt.Sprintf("multipart/alternative; boundary=%q", altWriter.Boundary())},
	})
	if err != nil {
		return nil, err
	}
	if _, err := altPart.Write([]byte(body.String())); err != nil {
		return nil, err
	}

	attachment, err := mixedWriter.CreatePart(textproto.MIMEHeader{
		"Content-Type":        {"message/rfc822"},
		"Content-Disposition": {`attachment; filename="original.eml"`},
	})
	if err != nil {
		return nil, err
	}
	if _, err := attachment.Write(msg.AttachedRFC822); err != nil {
		return nil, err
	}
	if err := mixedWriter.Close(); err != nil {
		return nil, err
	}

	b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixedWriter.Boundary()))
	b.WriteString(mixed.String())
	return []byte(b.String()), nil
}

func writeAlternative(w *multipart.Writer, msg *OutboundMessage) error {
	textPart, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return err
	}
	if _, err := textPart.Write([]byte(msg.TextBody)); err != nil {
		return err
	}

	if msg.HTMLBody != "" {
		htmlPart, err := w.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/html; charset=UTF-8"},
		})
		if err != nil {
			return err
		}
		if _, err := htmlPart.Write([]byte(msg.HTMLBody)); err != nil {
			return err
		}
	}
	return w.Close()
}

// SMTPSender delivers over plain SMTP, with STARTTLS when configured.
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger logger.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, log logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: log}
}

func (s *SMTPSender) Send(ctx context.Context, msg *OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := BuildMIME(msg)
	if err != nil {
		return errors.NewEmailBuildFailedError(err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	recipients := msg.Recipients()
	if s.cfg.UseTLS {
		err = s.sendWithTLS(addr, auth, msg.From, recipients, raw)
	} else {
		err = smtp.SendMail(addr, auth, msg.From, recipients, raw)
	}
	if err != nil {
		return errors.NewEmailSendFailedError(err)
	}

	metrics.EmailsSent.WithLabelValues("smtp").Inc()
	s.logger.Info("Email sent", map[string]interface{}{
		"transport":  "smtp",
		"recipients": len(recipients),
	})
	return nil
}

func (s *SMTPSender) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: s.cfg.Host}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(raw); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}

// SESSender delivers through Amazon SES raw email, preserving the full MIME
// document including attachments.
type SESSender struct {
	client *ses.Client
	logger logger.Logger
}

func NewSESSender(cfg config.SESConfig, log logger.Logger) (*SESSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &SESSender{client: ses.NewFromConfig(awsCfg), logger: log}, nil
}

func (s *SESSender) Send(ctx context.Context, msg *OutboundMessage) error {
	raw, err := BuildMIME(msg)
	if err != nil {
		return errors.NewEmailBuildFailedError(err)
	}

	_, err = s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.From),
		Destinations: msg.Recipients(),
		RawMessage:   &sestypes.RawMessage{Data: raw},
	})
	if err != nil {
		return errors.NewEmailSendFailedError(err)
	}

	metrics.EmailsSent.WithLabelValues("ses").Inc()
	s.logger.Info("Email sent", map[string]interface{}{
		"transport":  "ses",
		"recipients": len(msg.Recipients()),
	})
	return nil
}
