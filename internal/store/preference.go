package store

import (
	"context"
	"database/sql"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"

	"github.com/lib/pq"
)

// PreferenceStore loads notification opt-out preferences.
type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// GetByPersonIDs returns all opt-out rows for the given people in one call.
// The orchestrator fetches preferences for a whole batch up front so the
// per-type filtering never touches the database.
func (s *PreferenceStore) GetByPersonIDs(ctx context.Context, personIDs []int64) ([]models.FilterPreference, error) {
	if len(personIDs) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT person_id, notifier_key, category
		FROM notification_filter_preferences
		WHERE person_id = ANY($1)`, pq.Array(personIDs))
	if err != nil {
		return nil, errors.NewDatabaseError("get filter preferences", err)
	}
	defer rows.Close()

	var prefs []models.FilterPreference
	for rows.Next() {
		var p models.FilterPreference
		if err := rows.Scan(&p.PersonID, &p.NotifierKey, &p.Category); err != nil {
			return nil, errors.NewDatabaseError("scan filter preference", err)
		}
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("iterate filter preferences", err)
	}
	return prefs, nil
}

// SetPreference inserts an opt-out row if it does not already exist.
func (s *PreferenceStore) SetPreference(ctx context.Context, pref models.FilterPreference) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_filter_preferences (person_id, notifier_key, category)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		pref.PersonID, pref.NotifierKey, pref.Category)
	if err != nil {
		return errors.NewDatabaseError("set filter preference", err)
	}
	return nil
}
