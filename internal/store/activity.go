package store

import (
	"context"
	"database/sql"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"
)

// ActivityStore loads stream activities and comments referenced by
// notifications.
type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

// GetActivityByID returns the activity with the given id. A missing row is a
// hard failure: a notification referencing a nonexistent activity means the
// data is corrupt, not that the message should be skipped.
func (s *ActivityStore) GetActivityByID(ctx context.Context, id int64) (*models.Activity, error) {
	var a models.Activity
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, content, actor_id, actor_name, destination_id, destination_type, posted_at
		FROM activities
		WHERE id = $1`, id).Scan(
		&a.ID, &a.Type, &a.Content, &a.ActorID, &a.ActorName,
		&a.DestinationID, &a.DestinationType, &a.PostedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewActivityNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("get activity by id", err)
	}
	return &a, nil
}

// GetCommentByID returns the comment with the given id.
func (s *ActivityStore) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, activity_id, author_id, author_name, content, posted_at
		FROM comments
		WHERE id = $1`, id).Scan(
		&c.ID, &c.ActivityID, &c.AuthorID, &c.AuthorName, &c.Content, &c.PostedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewCommentNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewDatabaseError("get comment by id", err)
	}
	return &c, nil
}

// GetCommentAuthorIDs returns the distinct authors who commented on an
// activity.
func (s *ActivityStore) GetCommentAuthorIDs(ctx context.Context, activityID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT author_id FROM comments WHERE activity_id = $1`,
		activityID)
	if err != nil {
		return nil, errors.NewDatabaseError("get comment author ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewDatabaseError("scan comment author id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("iterate comment author ids", err)
	}
	return ids, nil
}

// InsertComment posts a reply on an activity and returns its id. Used by the
// reply-by-email action.
func (s *ActivityStore) InsertComment(ctx context.Context, comment *models.Comment) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (activity_id, author_id, author_name, content, posted_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id`,
		comment.ActivityID, comment.AuthorID, comment.AuthorName, comment.Content).Scan(&id)
	if err != nil {
		return 0, errors.NewDatabaseError("insert comment", err)
	}
	return id, nil
}
