package email

import (
	"context"
	"strings"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"
)

// actorNamePlaceholder marks where stream content embeds the posting actor's
// display name.
const actorNamePlaceholder = "%ACTORNAME%"

// ActivityBuilder decorates a base builder: it pre-fetches the referenced
// activity, injects its content as an invocation property and delegates. A
// missing activity is a hard failure, the reference means the data is
// corrupt.
type ActivityBuilder struct {
	base       Builder
	activities ActivitySource
}

func NewActivityBuilder(base Builder, activities ActivitySource) *ActivityBuilder {
	return &ActivityBuilder{base: base, activities: activities}
}

func (b *ActivityBuilder) Build(ctx context.Context, notif *models.NotificationDTO, invocationProps map[string]string, highPriority bool) (*models.NotificationEmail, error) {
	activity, err := b.activities.GetActivityByID(ctx, notif.ActivityID)
	if err != nil {
		return nil, err
	}

	props := cloneProps(invocationProps)
	props["activity.content"] = strings.ReplaceAll(activity.Content, actorNamePlaceholder, activity.ActorName)
	return b.base.Build(ctx, notif, props, highPriority)
}

// CommentBuilder decorates a base builder with the referenced comment's
// content. It chains through an ActivityBuilder so templates can use both
// comment and activity content.
type CommentBuilder struct {
	base       Builder
	activities ActivitySource
}

func NewCommentBuilder(base Builder, activities ActivitySource) *CommentBuilder {
	return &CommentBuilder{base: base, activities: activities}
}

func (b *CommentBuilder) Build(ctx context.Context, notif *models.NotificationDTO, invocationProps map[string]string, highPriority bool) (*models.NotificationEmail, error) {
	comment, err := b.activities.GetCommentByID(ctx, notif.AuxiliaryID)
	if err != nil {
		return nil, err
	}

	props := cloneProps(invocationProps)
	props["comment.content"] = comment.Content
	return b.base.Build(ctx, notif, props, highPriority)
}

func cloneProps(props map[string]string) map[string]string {
	out := make(map[string]string, len(props)+1)
	for k, v := range props {
		out[k] = v
	}
	return out
}

// BuilderRegistry selects the builder for a notification. Notifications
// referencing a comment use the comment chain, activity references use the
// per-activity-type registrations, everything else gets the plain template
// builder. A referenced activity type with no registration is a hard
// configuration failure carrying the offending activity id.
type BuilderRegistry struct {
	plain          Builder
	comment        Builder
	byActivityType map[models.ActivityType]Builder
}

func NewBuilderRegistry(plain, comment Builder, byActivityType map[models.ActivityType]Builder) *BuilderRegistry {
	return &BuilderRegistry{plain: plain, comment: comment, byActivityType: byActivityType}
}

// NewDefaultBuilderRegistry wires the standard chains over one template
// builder.
func NewDefaultBuilderRegistry(base Builder, activities ActivitySource) *BuilderRegistry {
	activityChain := NewActivityBuilder(base, activities)
	commentChain := NewCommentBuilder(activityChain, activities)
	byType := make(map[models.ActivityType]Builder)
	for _, t := range []models.ActivityType{
		models.ActivityTypeStatus,
		models.ActivityTypeBookmark,
		models.ActivityTypeNote,
		models.ActivityTypePhoto,
		models.ActivityTypeVideo,
		models.ActivityTypeFile,
	} {
		byType[t] = activityChain
	}
	return NewBuilderRegistry(base, commentChain, byType)
}

func (r *BuilderRegistry) ForNotification(notif *models.NotificationDTO) (Builder, error) {
	if notif.AuxiliaryID > 0 && isCommentType(notif.Type) {
		return r.comment, nil
	}
	if notif.ActivityID > 0 {
		builder, ok := r.byActivityType[notif.ActivityType]
		if !ok {
			return nil, errors.NewBuilderNotFoundError(string(notif.ActivityType), notif.ActivityID)
		}
		return builder, nil
	}
	return r.plain, nil
}

func isCommentType(t models.NotificationType) bool {
	switch t {
	case models.NotificationTypeCommentToPersonalPost,
		models.NotificationTypeCommentToGroupPost,
		models.NotificationTypeCommentToCommentedPost:
		return true
	}
	return false
}
