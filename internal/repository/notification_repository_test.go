package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newNotificationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNotificationRepositoryListRecentScopedToOwner(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "message", "type", "read", "metadata", "created_at"}).
		AddRow("n-2", "u-1", "second", "msg", "system", false, []byte(`{"k":"v"}`), time.Now()).
		AddRow("n-1", "u-1", "first", "msg", "system", true, nil, time.Now().Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, title, message, type, read, metadata, created_at")).
		WithArgs("u-1", 20).
		WillReturnRows(rows)

	notifications, err := repo.ListRecent(context.Background(), "u-1", 0)
	require.NoError(t, err)
	require.Len(t, notifications, 2)
	require.Equal(t, "n-2", notifications[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadKeyedByOwner(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE id = $1 AND owner_id = $2")).
		WithArgs("n-1", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.MarkRead(context.Background(), "n-1", "u-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkReadMissesForeignRow(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	// Row exists but belongs to someone else: zero rows touched, same as
	// not existing at all.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE id = $1 AND owner_id = $2")).
		WithArgs("n-1", "u-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.MarkRead(context.Background(), "n-1", "u-2")
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryMarkAllRead(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE owner_id = $1 AND read = FALSE")).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.MarkAllRead(context.Background(), "u-1")
	require.NoError(t, err)
	require.EqualValues(t, 3, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryUnreadCount(t *testing.T) {
	db, mock, cleanup := newNotificationRepoMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE owner_id = $1 AND read = FALSE")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.UnreadCount(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
