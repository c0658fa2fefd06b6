package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/example/meeting-scheduler/internal/persistence"
)

var fixedNow = time.Date(2024, time.October, 1, 6, 0, 0, 0, time.UTC)

func setupMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       db,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, gormConfig(nil))
	require.NoError(t, err)

	return New(gormDB, func() time.Time { return fixedNow }), mock
}

func TestStore_CreateClub(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(`INSERT INTO "clubs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	club, err := store.CreateClub(context.Background(), persistence.Club{
		Name:        "Riverside",
		MeetingDay:  "Tuesday",
		Interval:    "1,3",
		MeetingTime: "19:00",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), club.ID)
	assert.Equal(t, fixedNow, club.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListClubs(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "clubs" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "council_id", "name", "club_day", "meeting_interval", "meeting_time", "created_at", "updated_at",
		}).
			AddRow(1, nil, "Riverside", "Tuesday", "1,3", "19:00", fixedNow, fixedNow).
			AddRow(2, 9, "Hilltop", "Monday", "2", "18:30", fixedNow, fixedNow))

	clubs, err := store.ListClubs(context.Background())
	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, "Riverside", clubs[0].Name)
	assert.Nil(t, clubs[0].CouncilID)
	require.NotNil(t, clubs[1].CouncilID)
	assert.Equal(t, int64(9), *clubs[1].CouncilID)
	assert.Equal(t, "1,3", clubs[0].Interval)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateMeetingDuplicate(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`INSERT INTO "meetings"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_meetings_club_date\""})

	err := store.CreateMeeting(context.Background(), persistence.Meeting{
		ID:     "meeting-1",
		ClubID: 1,
		Name:   "Riverside Meeting 1",
		Date:   time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC),
		Time:   "19:00",
		Place:  "placeholder",
	})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindMeetingByClubAndDate(t *testing.T) {
	store, mock := setupMockStore(t)
	day := time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "meetings" WHERE club_id = $1 AND meeting_date = $2`)).
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FindMeetingByClubAndDate(context.Background(), 1, day)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "meetings" WHERE club_id = $1 AND meeting_date = $2`)).
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "club_id", "name", "meeting_date", "meeting_time", "place",
			"arrival_time", "agenda_link", "entry_instructions", "created_at", "updated_at",
		}).AddRow("meeting-1", 1, "Riverside Meeting 1", day, "19:00", "placeholder", nil, "https://example.com/a", nil, fixedNow, fixedNow))

	meeting, err := store.FindMeetingByClubAndDate(context.Background(), 1, day)
	require.NoError(t, err)
	assert.Equal(t, "meeting-1", meeting.ID)
	assert.True(t, meeting.Date.Equal(day))
	require.NotNil(t, meeting.AgendaLink)
	assert.Nil(t, meeting.ArrivalTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertAttendance(t *testing.T) {
	store, mock := setupMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO "meeting_attendance" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "meeting_attendance" .* ON CONFLICT DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "meeting_attendance"`).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: "insert or update violates foreign key constraint"})

	created, err := store.UpsertAttendance(ctx, persistence.Attendance{UserID: 1, MeetingID: "meeting-1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.UpsertAttendance(ctx, persistence.Attendance{UserID: 1, MeetingID: "meeting-1"})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = store.UpsertAttendance(ctx, persistence.Attendance{UserID: 1, MeetingID: "missing"})
	assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetAttendanceMissing(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(`UPDATE "meeting_attendance" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SetAttendance(context.Background(), persistence.Attendance{UserID: 1, MeetingID: "meeting-1", Attended: true})
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)
}
