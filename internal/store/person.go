package store

import (
	"context"
	"database/sql"
	"fmt"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"

	"github.com/lib/pq"
)

// PersonStore loads person records for notification delivery.
type PersonStore struct {
	db *sql.DB
}

func NewPersonStore(db *sql.DB) *PersonStore {
	return &PersonStore{db: db}
}

// GetByID returns the person with the given id.
func (s *PersonStore) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	var p models.Person
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, display_name, email, account_locked
		FROM people
		WHERE id = $1`, id).Scan(
		&p.ID, &p.AccountID, &p.DisplayName, &p.Email, &p.AccountLocked,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewPersonNotFoundError(fmt.Sprintf("personId: %d", id))
	}
	if err != nil {
		return nil, errors.NewDatabaseError("get person by id", err)
	}
	return &p, nil
}

// GetByIDs returns the people with the given ids, keyed by id. Ids with no
// matching row are simply absent from the result.
func (s *PersonStore) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Person, error) {
	people := make(map[int64]*models.Person, len(ids))
	if len(ids) == 0 {
		return people, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, display_name, email, account_locked
		FROM people
		WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, errors.NewDatabaseError("get people by ids", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.AccountID, &p.DisplayName, &p.Email, &p.AccountLocked); err != nil {
			return nil, errors.NewDatabaseError("scan person", err)
		}
		people[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("iterate people", err)
	}
	return people, nil
}

// GetIDByEmail resolves an email address to a person id.
func (s *PersonStore) GetIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM people WHERE lower(email) = lower($1)`, email).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, errors.NewPersonNotFoundError(fmt.Sprintf("email: %s", email))
	}
	if err != nil {
		return 0, errors.NewDatabaseError("get person id by email", err)
	}
	return id, nil
}
