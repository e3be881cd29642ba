package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamnotify/internal/common/errors"
	"streamnotify/internal/models"
)

func TestPersonStore_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "account_id", "display_name", "email", "account_locked"}).
		AddRow(int64(42), "jdoe", "Jane Doe", "jdoe@example.com", false)
	mock.ExpectQuery(`SELECT id, account_id, display_name, email, account_locked`).
		WithArgs(int64(42)).
		WillReturnRows(rows)

	person, err := NewPersonStore(db).GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", person.DisplayName)
	assert.Equal(t, "jdoe@example.com", person.Email)
	assert.False(t, person.AccountLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonStore_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, account_id, display_name, email, account_locked`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "display_name", "email", "account_locked"}))

	_, err = NewPersonStore(db).GetByID(context.Background(), 99)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodePersonNotFound, stdErr.Code)
}

func TestPersonStore_GetByIDs_Empty(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	people, err := NewPersonStore(db).GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestPersonStore_GetByIDs(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "account_id", "display_name", "email", "account_locked"}).
		AddRow(int64(1), "a", "Alice", "a@example.com", false).
		AddRow(int64(2), "b", "Bob", "b@example.com", true)
	mock.ExpectQuery(`SELECT id, account_id, display_name, email, account_locked`).
		WillReturnRows(rows)

	people, err := NewPersonStore(db).GetByIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Alice", people[1].DisplayName)
	assert.True(t, people[2].AccountLocked)
}

func TestPreferenceStore_GetByPersonIDs(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"person_id", "notifier_key", "category"}).
		AddRow(int64(1), "EMAIL", "COMMENT").
		AddRow(int64(2), "ALERT", "FOLLOW")
	mock.ExpectQuery(`SELECT person_id, notifier_key, category`).
		WillReturnRows(rows)

	prefs, err := NewPreferenceStore(db).GetByPersonIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, models.FilterPreference{PersonID: 1, NotifierKey: "EMAIL", Category: models.CategoryComment}, prefs[0])
}

func TestAlertStore_InsertAndCount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO alerts`).
		WithArgs(int64(7), string(models.NotificationTypeLikeActivity), "Alice", "Alice liked your post", "/activity/5").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(123)))
	mock.ExpectQuery(`SELECT count`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	store := NewAlertStore(db)
	id, err := store.Insert(context.Background(), &models.Alert{
		PersonID:  7,
		Type:      models.NotificationTypeLikeActivity,
		ActorName: "Alice",
		Message:   "Alice liked your post",
		URL:       "/activity/5",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	count, err := store.CountUnread(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertStore_MarkAllRead(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE alerts SET read = true`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, NewAlertStore(db).MarkAllRead(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityStore_GetActivityByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, type, content`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewActivityStore(db).GetActivityByID(context.Background(), 404)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeActivityNotFound, stdErr.Code)
}

func TestKeyStore_GetKeyForPerson(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	key := []byte("0123456789abcdef")
	mock.ExpectQuery(`SELECT key_bytes FROM person_crypto_keys`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"key_bytes"}).AddRow(key))

	got, err := NewKeyStore(db).GetKeyForPerson(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}
