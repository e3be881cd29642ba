package inbound

import (
	"context"
	"fmt"

	"streamnotify/internal/email"
	"streamnotify/internal/email/token"
	"streamnotify/internal/models"
	"streamnotify/internal/store"
)

// DefaultActionSelector maps activity tokens to the comment-posting action.
// Tokens carrying only a stream reference have no reply action wired yet and
// are rejected.
type DefaultActionSelector struct{}

func (DefaultActionSelector) Select(tokenData token.Content, content string, sender *models.Person) (string, map[string]interface{}, error) {
	activityID, ok := tokenData[token.TagActivityID]
	if !ok {
		return "", nil, fmt.Errorf("token carries no activity reference")
	}
	if actorID, ok := tokenData[token.TagActorID]; !ok || actorID != sender.ID {
		return "", nil, fmt.Errorf("token was not issued to this sender")
	}
	return email.ActionPostComment, map[string]interface{}{
		"activity_id": activityID,
		"content":     content,
	}, nil
}

// CommentActionExecutor executes the comment-posting action against the
// activity store.
type CommentActionExecutor struct {
	activities *store.ActivityStore
}

func NewCommentActionExecutor(activities *store.ActivityStore) *CommentActionExecutor {
	return &CommentActionExecutor{activities: activities}
}

func (e *CommentActionExecutor) Execute(ctx context.Context, actionKey string, params map[string]interface{}, sender *models.Person) error {
	if actionKey != email.ActionPostComment {
		return fmt.Errorf("unsupported action %q", actionKey)
	}
	activityID, ok := params["activity_id"].(int64)
	if !ok {
		return fmt.Errorf("missing activity_id parameter")
	}
	content, ok := params["content"].(string)
	if !ok || content == "" {
		return fmt.Errorf("missing content parameter")
	}

	// Reject references to activities that no longer exist before writing.
	if _, err := e.activities.GetActivityByID(ctx, activityID); err != nil {
		return err
	}

	_, err := e.activities.InsertComment(ctx, &models.Comment{
		ActivityID: activityID,
		AuthorID:   sender.ID,
		AuthorName: sender.DisplayName,
		Content:    content,
	})
	return err
}
