package store

import (
	"context"
	"database/sql"
	"fmt"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"
)

// SenderLookup resolves an inbound sender to a person record and their token
// key inside one short read-only transaction. The transaction covers only
// these lookups; whatever action the caller runs afterwards never executes
// inside it.
type SenderLookup struct {
	db *sql.DB
}

func NewSenderLookup(db *sql.DB) *SenderLookup {
	return &SenderLookup{db: db}
}

func (s *SenderLookup) ResolveSender(ctx context.Context, email string) (*models.Person, []byte, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, nil, errors.NewDatabaseError("begin sender lookup", err)
	}
	defer tx.Rollback()

	var p models.Person
	err = tx.QueryRowContext(ctx, `
		SELECT id, account_id, display_name, email, account_locked
		FROM people
		WHERE lower(email) = lower($1)`, email).Scan(
		&p.ID, &p.AccountID, &p.DisplayName, &p.Email, &p.AccountLocked,
	)
	if err == sql.ErrNoRows {
		return nil, nil, errors.NewPersonNotFoundError(fmt.Sprintf("sender email: %s", email))
	}
	if err != nil {
		return nil, nil, errors.NewDatabaseError("lookup sender", err)
	}

	var key []byte
	err = tx.QueryRowContext(ctx, `
		SELECT key_bytes FROM person_crypto_keys WHERE person_id = $1`,
		p.ID).Scan(&key)
	if err == sql.ErrNoRows {
		return nil, nil, errors.NewPersonNotFoundError(fmt.Sprintf("no crypto key for personId: %d", p.ID))
	}
	if err != nil {
		return nil, nil, errors.NewDatabaseError("lookup sender key", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, errors.NewDatabaseError("commit sender lookup", err)
	}
	return &p, key, nil
}
