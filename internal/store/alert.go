package store

import (
	"context"
	"database/sql"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"
)

// AlertStore persists in-app alert rows.
type AlertStore struct {
	db *sql.DB
}

func NewAlertStore(db *sql.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Insert writes a new unread alert and returns its id.
func (s *AlertStore) Insert(ctx context.Context, alert *models.Alert) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO alerts (person_id, type, actor_name, message, url, read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, now())
		RETURNING id`,
		alert.PersonID, alert.Type, alert.ActorName, alert.Message, alert.URL).Scan(&id)
	if err != nil {
		return 0, errors.NewDatabaseError("insert alert", err)
	}
	return id, nil
}

// CountUnread returns the number of unread alerts for a person.
func (s *AlertStore) CountUnread(ctx context.Context, personID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*) FROM alerts WHERE person_id = $1 AND read = false`,
		personID).Scan(&count)
	if err != nil {
		return 0, errors.NewDatabaseError("count unread alerts", err)
	}
	return count, nil
}

// MarkAllRead marks every alert for a person as read.
func (s *AlertStore) MarkAllRead(ctx context.Context, personID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET read = true WHERE person_id = $1 AND read = false`,
		personID)
	if err != nil {
		return errors.NewDatabaseError("mark alerts read", err)
	}
	return nil
}
