package notification

import (
	"context"

	"streamnotify/internal/models"
)

// PersonReader is the slice of the person store the pipeline needs.
type PersonReader interface {
	GetByID(ctx context.Context, id int64) (*models.Person, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Person, error)
}

// ActivityReader loads activities and comments referenced by notifications.
type ActivityReader interface {
	GetActivityByID(ctx context.Context, id int64) (*models.Activity, error)
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
	GetCommentAuthorIDs(ctx context.Context, activityID int64) ([]int64, error)
}

// PreferenceReader loads opt-out rows for a set of people in one call.
type PreferenceReader interface {
	GetByPersonIDs(ctx context.Context, personIDs []int64) ([]models.FilterPreference, error)
}
