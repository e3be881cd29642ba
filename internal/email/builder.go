package email

import (
	"context"
	"strconv"
	"strings"

	"streamnotify/internal/common/config"
	"streamnotify/internal/common/errors"
	"streamnotify/internal/common/logger"
	"streamnotify/internal/email/token"
	"streamnotify/internal/models"
)

// PersonSource loads recipient and actor records for address resolution.
type PersonSource interface {
	GetByID(ctx context.Context, id int64) (*models.Person, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Person, error)
}

// ActivitySource loads the activity or comment a composite builder injects.
type ActivitySource interface {
	GetActivityByID(ctx context.Context, id int64) (*models.Activity, error)
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
}

// KeySource loads per-person token keys for reply-address construction.
type KeySource interface {
	GetKeyForPerson(ctx context.Context, personID int64) ([]byte, error)
}

// activityTypeDisplay overrides the display name for two activity types;
// everything else lower-cases its name.
var activityTypeDisplay = map[models.ActivityType]string{
	models.ActivityTypeBookmark: "link",
	models.ActivityTypeNote:     "message",
}

// entityPageSegment maps an entity type to its web UI URL segment.
var entityPageSegment = map[models.EntityType]string{
	models.EntityTypePerson:       "people",
	models.EntityTypeGroup:        "groups",
	models.EntityTypeOrganization: "organizations",
}

// ActivityTypeDisplayName returns the user-facing name of an activity type.
func ActivityTypeDisplayName(t models.ActivityType) string {
	if name, ok := activityTypeDisplay[t]; ok {
		return name
	}
	return strings.ToLower(string(t))
}

// Builder renders one notification into a sendable email.
type Builder interface {
	Build(ctx context.Context, notif *models.NotificationDTO, invocationProps map[string]string, highPriority bool) (*models.NotificationEmail, error)
}

// TemplateBuilder resolves a notification's attributes into named string
// properties, substitutes them into the registered template triple and
// resolves recipient addresses.
type TemplateBuilder struct {
	templates  *Registry
	people     PersonSource
	keys       KeySource
	cfg        config.EmailConfig
	baseURL    string
	extraProps map[string]string
	rawSub     Substitutor
	htmlSub    Substitutor
	logger     logger.Logger
}

func NewTemplateBuilder(templates *Registry, people PersonSource, keys KeySource, cfg config.EmailConfig, notifCfg config.NotificationConfig, log logger.Logger) *TemplateBuilder {
	return &TemplateBuilder{
		templates:  templates,
		people:     people,
		keys:       keys,
		cfg:        cfg,
		baseURL:    notifCfg.BaseURL,
		extraProps: notifCfg.ExtraProperties,
		rawSub:     RawSubstitutor{},
		htmlSub:    HTMLEscapingSubstitutor{},
		logger:     log,
	}
}

// Build renders the email for one notification. Properties layer in
// increasing precedence: invocation properties, configured extra properties,
// then fields computed from the notification itself.
func (b *TemplateBuilder) Build(ctx context.Context, notif *models.NotificationDTO, invocationProps map[string]string, highPriority bool) (*models.NotificationEmail, error) {
	tmpl, err := b.templates.ForNotification(notif.Type)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]string, len(invocationProps)+len(b.extraProps)+12)
	for k, v := range invocationProps {
		vars[k] = v
	}
	for k, v := range b.extraProps {
		vars[k] = v
	}
	b.putComputed(vars, notif)

	msg := &models.NotificationEmail{
		Subject:      b.cfg.SubjectPrefix + b.rawSub.Substitute(tmpl.Subject, vars),
		TextBody:     b.rawSub.Substitute(tmpl.TextBody, vars),
		HTMLBody:     b.htmlSub.Substitute(tmpl.HTMLBody, vars),
		HighPriority: highPriority,
	}

	if err := b.resolveRecipients(ctx, notif, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (b *TemplateBuilder) putComputed(vars map[string]string, notif *models.NotificationDTO) {
	vars["url.base"] = b.baseURL
	vars["notification.type"] = string(notif.Type)

	if notif.ActorID > 0 {
		vars["actor.id"] = strconv.FormatInt(notif.ActorID, 10)
		vars["actor.name"] = notif.ActorName
		vars["actor.accountid"] = notif.ActorAccountID
	}
	if notif.ActivityID > 0 {
		vars["activity.id"] = strconv.FormatInt(notif.ActivityID, 10)
		vars["activity.type"] = ActivityTypeDisplayName(notif.ActivityType)
	}
	if notif.DestinationID > 0 {
		vars["dest.id"] = strconv.FormatInt(notif.DestinationID, 10)
		vars["dest.name"] = notif.DestinationName
		vars["dest.uniqueid"] = notif.DestinationUniqueID
		if page, ok := entityPageSegment[notif.DestinationType]; ok {
			vars["dest.page"] = page
		}
	}
	if notif.AuxiliaryID > 0 {
		vars["aux.id"] = strconv.FormatInt(notif.AuxiliaryID, 10)
		vars["aux.name"] = notif.AuxiliaryName
		vars["aux.uniqueid"] = notif.AuxiliaryUniqueID
		if page, ok := entityPageSegment[notif.AuxiliaryType]; ok {
			vars["aux.page"] = page
		}
	}
}

// resolveRecipients sets a direct To for a single recipient and Bcc for
// several, never CC, so recipients stay hidden from each other. A lone
// recipient on an activity notification also gets a tokenized Reply-To so
// their mail reply can be posted back as a comment.
func (b *TemplateBuilder) resolveRecipients(ctx context.Context, notif *models.NotificationDTO, msg *models.NotificationEmail) error {
	people, err := b.people.GetByIDs(ctx, notif.RecipientIDs)
	if err != nil {
		return err
	}

	var addresses []string
	for _, id := range notif.RecipientIDs {
		person, ok := people[id]
		if !ok {
			return errors.NewPersonNotFoundError("recipient lookup: " + strconv.FormatInt(id, 10))
		}
		addresses = append(addresses, person.Email)
	}

	switch len(addresses) {
	case 0:
		return errors.NewEmailBuildFailedError(errors.NewMessageInvalidError("notification has no recipients"))
	case 1:
		msg.To = addresses[0]
		b.setReplyTo(ctx, notif, notif.RecipientIDs[0], msg)
	default:
		msg.Bcc = addresses
	}
	return nil
}

func (b *TemplateBuilder) setReplyTo(ctx context.Context, notif *models.NotificationDTO, recipientID int64, msg *models.NotificationEmail) {
	if b.keys == nil || notif.ActivityID <= 0 {
		return
	}
	key, err := b.keys.GetKeyForPerson(ctx, recipientID)
	if err != nil {
		b.logger.Warn("No token key for recipient, skipping reply-to", map[string]interface{}{
			"personId": recipientID,
			"error":    err.Error(),
		})
		return
	}
	tok, err := token.Encode(token.ForActivity(notif.ActivityID, recipientID), key)
	if err != nil {
		b.logger.Warn("Failed to encode reply token", map[string]interface{}{
			"personId": recipientID,
			"error":    err.Error(),
		})
		return
	}
	msg.ReplyTo = token.BuildAddress(b.cfg.SystemAddress, tok)
}
