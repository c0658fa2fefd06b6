// Package persistencetest holds behaviour checks shared by every persistence.Store backend.
package persistencetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) persistence.Store

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RunStoreContract exercises the repository behaviour the scheduler relies on.
func RunStoreContract(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("one meeting per club and date", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		club, err := store.CreateClub(ctx, persistence.Club{Name: "Riverside", MeetingDay: "Tuesday", Interval: "1,3", MeetingTime: "19:00"})
		require.NoError(t, err)

		first := persistence.Meeting{ID: "m-1", ClubID: club.ID, Name: "Riverside Meeting 1", Date: day(2024, time.October, 1), Time: "19:00", Place: "placeholder"}
		require.NoError(t, store.CreateMeeting(ctx, first))

		second := first
		second.ID = "m-2"
		assert.ErrorIs(t, store.CreateMeeting(ctx, second), persistence.ErrDuplicate)

		found, err := store.FindMeetingByClubAndDate(ctx, club.ID, day(2024, time.October, 1))
		require.NoError(t, err)
		assert.Equal(t, "m-1", found.ID)
		assert.True(t, found.Date.Equal(first.Date))

		_, err = store.FindMeetingByClubAndDate(ctx, club.ID, day(2024, time.October, 2))
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("attendance upsert never clobbers", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		club, err := store.CreateClub(ctx, persistence.Club{Name: "Hilltop", MeetingDay: "Monday", Interval: "2", MeetingTime: "18:30"})
		require.NoError(t, err)
		meeting := persistence.Meeting{ID: "m-1", ClubID: club.ID, Name: "Hilltop Meeting 1", Date: day(2024, time.October, 14), Time: "18:30", Place: "placeholder"}
		require.NoError(t, store.CreateMeeting(ctx, meeting))

		created, err := store.UpsertAttendance(ctx, persistence.Attendance{UserID: 1, MeetingID: meeting.ID})
		require.NoError(t, err)
		assert.True(t, created)

		require.NoError(t, store.SetAttendance(ctx, persistence.Attendance{UserID: 1, MeetingID: meeting.ID, Attended: true, Confirmed: true}))

		created, err = store.UpsertAttendance(ctx, persistence.Attendance{UserID: 1, MeetingID: meeting.ID})
		require.NoError(t, err)
		assert.False(t, created)

		record, err := store.GetAttendance(ctx, 1, meeting.ID)
		require.NoError(t, err)
		assert.True(t, record.Attended)
		assert.True(t, record.Confirmed)

		_, err = store.UpsertAttendance(ctx, persistence.Attendance{UserID: 1, MeetingID: "missing"})
		assert.True(t, errors.Is(err, persistence.ErrForeignKeyViolation), "got %v", err)
	})

	t.Run("rosters and listings are ordered", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		a, err := store.CreateClub(ctx, persistence.Club{Name: "A", MeetingDay: "Tuesday", Interval: "1", MeetingTime: "19:00"})
		require.NoError(t, err)
		b, err := store.CreateClub(ctx, persistence.Club{Name: "B", MeetingDay: "Friday", Interval: "2,4", MeetingTime: "12:00"})
		require.NoError(t, err)

		clubs, err := store.ListClubs(ctx)
		require.NoError(t, err)
		require.Len(t, clubs, 2)
		assert.Equal(t, a.ID, clubs[0].ID)
		assert.Equal(t, b.ID, clubs[1].ID)

		require.NoError(t, store.AddMembership(ctx, persistence.Membership{UserID: 3, ClubID: a.ID, JoinDate: day(2024, time.March, 1)}))
		require.NoError(t, store.AddMembership(ctx, persistence.Membership{UserID: 1, ClubID: a.ID, JoinDate: day(2024, time.March, 1)}))
		require.NoError(t, store.AddMembership(ctx, persistence.Membership{UserID: 2, ClubID: a.ID, JoinDate: day(2024, time.February, 1)}))
		assert.ErrorIs(t, store.AddMembership(ctx, persistence.Membership{UserID: 1, ClubID: a.ID}), persistence.ErrDuplicate)

		roster, err := store.ListMemberships(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, roster, 3)
		assert.Equal(t, []int64{2, 1, 3}, []int64{roster[0].UserID, roster[1].UserID, roster[2].UserID})

		for i, d := range []time.Time{day(2024, time.November, 5), day(2024, time.October, 1), day(2024, time.October, 15)} {
			require.NoError(t, store.CreateMeeting(ctx, persistence.Meeting{
				ID: fmt.Sprintf("m-%d", i), ClubID: a.ID, Name: "A", Date: d, Time: "19:00", Place: "placeholder",
			}))
		}
		upcoming, err := store.ListMeetingsForClub(ctx, a.ID, day(2024, time.October, 10))
		require.NoError(t, err)
		require.Len(t, upcoming, 2)
		assert.True(t, upcoming[0].Date.Equal(day(2024, time.October, 15)))
		assert.True(t, upcoming[1].Date.Equal(day(2024, time.November, 5)))

		none, err := store.ListMeetingsForClub(ctx, b.ID, day(2024, time.January, 1))
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
