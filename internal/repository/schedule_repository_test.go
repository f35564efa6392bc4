package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/models"
	appErrors "github.com/campushub/campus-api/pkg/errors"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryFindByIDScopedToOwner(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "owner_id", "course", "time", "location", "instructor", "type", "day_of_week", "created_at", "updated_at"}).
		AddRow("s-1", "u-1", "Algorithms", "08:00", "B201", "Dr. Ade", "Lecture", "MONDAY", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE id = $1 AND owner_id = $2")).
		WithArgs("s-1", "u-1").
		WillReturnRows(rows)

	schedule, err := repo.FindByID(context.Background(), "s-1", "u-1")
	require.NoError(t, err)
	require.Equal(t, "Algorithms", schedule.Course)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindByIDForeignOwnerLooksMissing(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE id = $1 AND owner_id = $2")).
		WithArgs("s-1", "u-2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "s-1", "u-2")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteKeyedByOwner(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1 AND owner_id = $2")).
		WithArgs("s-1", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), "s-1", "u-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListFiltersByDay(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "owner_id", "course", "time", "location", "instructor", "type", "day_of_week", "created_at", "updated_at"}).
		AddRow("s-1", "u-1", "Algorithms", "08:00", "B201", "Dr. Ade", "Lecture", "MONDAY", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE owner_id = $1 AND day_of_week = $2")).
		WithArgs("u-1", "MONDAY").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE owner_id = $1 AND day_of_week = $2")).
		WithArgs("u-1", "MONDAY").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schedules, total, err := repo.List(context.Background(), models.ScheduleFilter{OwnerID: "u-1", DayOfWeek: "monday"})
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryTransientFailureSurfacesUnavailable(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	driverErr := errors.New("connection reset by peer")
	for i := 0; i < readRetryAttempts; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE id = $1 AND owner_id = $2")).
			WithArgs("s-1", "u-1").
			WillReturnError(driverErr)
	}

	_, err := repo.FindByID(context.Background(), "s-1", "u-1")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnavailable))
	require.NoError(t, mock.ExpectationsWereMet())
}
