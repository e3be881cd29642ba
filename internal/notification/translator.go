package notification

import (
	"context"

	"streamnotify/internal/models"
)

// CreateNotificationsRequest carries one domain event into the pipeline.
// Which fields are meaningful depends on the request type; the translator for
// that type knows which ones it needs.
type CreateNotificationsRequest struct {
	Type    models.RequestType `json:"type"`
	ActorID int64              `json:"actor_id"`

	// TargetPersonID is the followed person or personal-stream owner.
	TargetPersonID int64 `json:"target_person_id,omitempty"`

	// Group fields for group-stream events.
	GroupID             int64   `json:"group_id,omitempty"`
	GroupCoordinatorIDs []int64 `json:"group_coordinator_ids,omitempty"`

	ActivityID int64 `json:"activity_id,omitempty"`
	CommentID  int64 `json:"comment_id,omitempty"`
}

// Translator converts a domain event request into a notification batch. A nil
// batch (or one with no recipients) means the event produces nothing.
type Translator interface {
	Translate(ctx context.Context, req *CreateNotificationsRequest) (*Batch, error)
}

// TranslatorRegistry maps request types to translators. A type with no entry
// is treated as disabled, not as an error.
type TranslatorRegistry map[models.RequestType]Translator

// NewDefaultTranslators builds the standard translator set.
func NewDefaultTranslators(activities ActivityReader) TranslatorRegistry {
	return TranslatorRegistry{
		models.RequestTypeFollower:         &followerTranslator{},
		models.RequestTypePostPersonStream: &postPersonStreamTranslator{},
		models.RequestTypePostGroupStream:  &postGroupStreamTranslator{},
		models.RequestTypeComment:          &commentTranslator{activities: activities},
		models.RequestTypeLike:             &likeTranslator{activities: activities},
	}
}

// followerTranslator notifies a person that someone started following them.
type followerTranslator struct{}

func (t *followerTranslator) Translate(ctx context.Context, req *CreateNotificationsRequest) (*Batch, error) {
	if req.TargetPersonID == 0 || req.TargetPersonID == req.ActorID {
		return nil, nil
	}
	batch := NewBatch(&models.NotificationDTO{
		Type:            models.NotificationTypeFollowPerson,
		ActorID:         req.ActorID,
		DestinationID:   req.TargetPersonID,
		DestinationType: models.EntityTypePerson,
	})
	batch.SetRecipients(models.NotificationTypeFollowPerson, req.TargetPersonID)
	return batch, nil
}

// postPersonStreamTranslator notifies a personal-stream owner of a new post.
type postPersonStreamTranslator struct{}

func (t *postPersonStreamTranslator) Translate(ctx context.Context, req *CreateNotificationsRequest) (*Batch, error) {
	if req.TargetPersonID == 0 || req.TargetPersonID == req.ActorID {
		return nil, nil
	}
	batch := NewBatch(&models.NotificationDTO{
		Type:            models.NotificationTypePostToPersonStream,
		ActorID:         req.ActorID,
		ActivityID:      req.ActivityID,
		DestinationID:   req.TargetPersonID,
		DestinationType: models.EntityTypePerson,
	})
	batch.SetRecipients(models.NotificationTypePostToPersonStream, req.TargetPersonID)
	return batch, nil
}

// postGroupStreamTranslator notifies group coordinators of a new post. The
// caller resolves coordinator membership; the translator only excludes the
// actor.
type postGroupStreamTranslator struct{}

func (t *postGroupStreamTranslator) Translate(ctx context.Context, req *CreateNotificationsRequest) (*Batch, error) {
	var recipients []int64
	for _, id := range req.GroupCoordinatorIDs {
		if id != req.ActorID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return nil, nil
	}
	batch := NewBatch(&models.NotificationDTO{
		Type:            models.NotificationTypePostToGroupStream,
		ActorID:         req.ActorID,
		ActivityID:      req.ActivityID,
		DestinationID:   req.GroupID,
		DestinationType: models.EntityTypeGroup,
	})
	batch.SetRecipients(models.NotificationTypePostToGroupStream, recipients...)
	return batch, nil
}

// commentTranslator notifies the post author and everyone else who commented
// on the same activity, with separate notification types for each audience.
type commentTranslator struct {
	activities ActivityReader
}

func (t *commentTranslator) Translate(ctx context.Context, req *CreateNotificationsRequest) (*Batch, error) {
	activity, err := t.activities.GetActivityByID(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}

	authorType := models.NotificationTypeCommentToPersonalPost
	if activity.DestinationType == models.EntityTypeGroup {
		authorType = models.NotificationTypeCommentToGroupPost
	}

	batch := NewBatch(&models.NotificationDTO{
		Type:            authorType,
		ActorID:         req.ActorID,
		ActivityID:      req.ActivityID,
		AuxiliaryID:     req.CommentID,
		DestinationID:   activity.DestinationID,
		DestinationType: activity.DestinationType,
	})

	if activity.ActorID != req.ActorID {
		batch.SetRecipients(authorType, activity.ActorID)
	}

	commenters, err := t.activities.GetCommentAuthorIDs(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	var others []int64
	for _, id := range commenters {
		if id != req.ActorID && id != activity.ActorID {
			others = append(others, id)
		}
	}
	if len(others) > 0 {
		batch.SetRecipients(models.NotificationTypeCommentToCommentedPost, others...)
	}

	batch.Properties().PutLazy("comment.content", func(ctx context.Context) (interface{}, error) {
		c, err := t.activities.GetCommentByID(ctx, req.CommentID)
		if err != nil {
			return nil, err
		}
		return c.Content, nil
	})
	return batch, nil
}

// likeTranslator notifies an activity's author that someone liked it.
type likeTranslator struct {
	activities ActivityReader
}

func (t *likeTranslator) Translate(ctx context.Context, req *CreateNotificationsRequest) (*Batch, error) {
	activity, err := t.activities.GetActivityByID(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity.ActorID == req.ActorID {
		return nil, nil
	}
	batch := NewBatch(&models.NotificationDTO{
		Type:            models.NotificationTypeLikeActivity,
		ActorID:         req.ActorID,
		ActivityID:      req.ActivityID,
		DestinationID:   activity.DestinationID,
		DestinationType: activity.DestinationType,
	})
	batch.SetRecipients(models.NotificationTypeLikeActivity, activity.ActorID)
	return batch, nil
}
