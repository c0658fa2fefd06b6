package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceEnroller_FullCartesianProduct(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	enroller := NewAttendanceEnroller(store)

	meetings := []Meeting{{ID: "m-1"}, {ID: "m-2"}, {ID: "m-3"}}
	result, err := enroller.Enroll(context.Background(), []int64{1, 2, 3, 4}, meetings)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Created)
	assert.Zero(t, result.Existing)
	assert.Empty(t, result.Failures)

	again, err := enroller.Enroll(context.Background(), []int64{1, 2, 3, 4}, meetings)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 12, again.Existing)
}

func TestAttendanceEnroller_CollectsFailures(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.upsertErr = func(userID int64, meetingID string) error {
		if meetingID == "m-1" && userID == 2 {
			return errors.New("foreign key")
		}
		return nil
	}

	result, err := NewAttendanceEnroller(store).Enroll(context.Background(), []int64{1, 2, 3}, []Meeting{{ID: "m-1"}, {ID: "m-2"}})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Created)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, int64(2), result.Failures[0].UserID)
	assert.Equal(t, "m-1", result.Failures[0].MeetingID)
}

func TestAttendanceEnroller_StopsWhenContextDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewAttendanceEnroller(newFakeStore()).Enroll(ctx, []int64{1}, []Meeting{{ID: "m-1"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Created)
}

func TestAttendanceEnroller_EmptyRoster(t *testing.T) {
	t.Parallel()

	result, err := NewAttendanceEnroller(newFakeStore()).Enroll(context.Background(), nil, []Meeting{{ID: "m-1"}})
	require.NoError(t, err)
	assert.Zero(t, result.Created)
	assert.Empty(t, result.Failures)
}
