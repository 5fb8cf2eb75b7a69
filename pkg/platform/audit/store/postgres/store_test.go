package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "bookerregistry/pkg/platform/audit"
)

func TestStoreAppendAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := New(db)
	ctx := context.Background()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec("INSERT INTO booker_audit").
		WithArgs(sqlmock.AnyArg(), "booker-1", "visitor_linked", "Visitor 42 linked", "req-1", "admin", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Append(ctx, audit.Event{
		BookerReference: "booker-1",
		Action:          audit.ActionVisitorLinked,
		Text:            "Visitor 42 linked",
		RequestID:       "req-1",
		ActorID:         "admin",
		Timestamp:       at,
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT booker_reference, action, text, request_id, actor_id, created_at FROM booker_audit").
		WithArgs("booker-1").
		WillReturnRows(sqlmock.NewRows([]string{"booker_reference", "action", "text", "request_id", "actor_id", "created_at"}).
			AddRow("booker-1", "visitor_linked", "Visitor 42 linked", "req-1", "admin", at))

	events, err := store.ListByBooker(ctx, "booker-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionVisitorLinked, events[0].Action)
	assert.Equal(t, at, events[0].Timestamp)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDeleteByBooker(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM booker_audit WHERE booker_reference").
		WithArgs("booker-1").
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, New(db).DeleteByBooker(context.Background(), "booker-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
