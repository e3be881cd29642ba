package store

import (
	"context"
	"database/sql"
	"fmt"

	"streamnotify/internal/common/errors"
)

// KeyStore loads per-person symmetric keys for reply-token encryption.
type KeyStore struct {
	db *sql.DB
}

func NewKeyStore(db *sql.DB) *KeyStore {
	return &KeyStore{db: db}
}

// GetKeyForPerson returns the raw key bytes for a person.
func (s *KeyStore) GetKeyForPerson(ctx context.Context, personID int64) ([]byte, error) {
	var key []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT key_bytes FROM person_crypto_keys WHERE person_id = $1`,
		personID).Scan(&key)
	if err == sql.ErrNoRows {
		return nil, errors.NewPersonNotFoundError(fmt.Sprintf("no crypto key for personId: %d", personID))
	}
	if err != nil {
		return nil, errors.NewDatabaseError("get crypto key", err)
	}
	return key, nil
}
