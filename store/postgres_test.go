package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekoyudhi/kamusbot/dialog"
)

func newMockStore(t *testing.T) (*Conversations, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewConversations(sqlx.NewDb(db, "postgres")), mock
}

func TestRecordActionInsertsRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO conversation_log (user_id, action) VALUES ($1, $2)`).
		WithArgs("U1", "start_requested").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.RecordAction(context.Background(), "U1", dialog.ActionStartRequested)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordActionWrapsWriteFailure(t *testing.T) {
	store, mock := newMockStore(t)

	dbErr := errors.New("connection reset")
	mock.ExpectExec(`INSERT INTO conversation_log (user_id, action) VALUES ($1, $2)`).
		WithArgs("U1", "lookup_performed").
		WillReturnError(dbErr)

	err := store.RecordAction(context.Background(), "U1", dialog.ActionLookupPerformed)

	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "record_action", serr.Op)
	assert.ErrorIs(t, err, dbErr)
}

func TestLastActionReturnsNewestRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT action FROM conversation_log WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs("U1").
		WillReturnRows(sqlmock.NewRows([]string{"action"}).AddRow("lookup_performed"))

	action := store.LastAction(context.Background(), "U1")

	assert.Equal(t, dialog.ActionLookupPerformed, action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLastActionWithoutHistoryIsUnknown(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT action FROM conversation_log WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs("U1").
		WillReturnRows(sqlmock.NewRows([]string{"action"}))

	assert.Equal(t, dialog.ActionUnknown, store.LastAction(context.Background(), "U1"))
}

func TestLastActionDegradesOnReadFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT action FROM conversation_log WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs("U1").
		WillReturnError(errors.New("timeout"))

	assert.Equal(t, dialog.ActionUnknown, store.LastAction(context.Background(), "U1"))
}

func TestLastActionMapsUnrecognizedValueToUnknown(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT action FROM conversation_log WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`).
		WithArgs("U1").
		WillReturnRows(sqlmock.NewRows([]string{"action"}).AddRow("legacy_value"))

	assert.Equal(t, dialog.ActionUnknown, store.LastAction(context.Background(), "U1"))
}

func TestClearHistoryDeletesAllRowsForUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM conversation_log WHERE user_id = $1`).
		WithArgs("U1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.NoError(t, store.ClearHistory(context.Background(), "U1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearHistoryOnEmptyUserIsNoError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM conversation_log WHERE user_id = $1`).
		WithArgs("Unever").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.ClearHistory(context.Background(), "Unever"))
}
