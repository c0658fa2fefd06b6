package application

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meeting-scheduler/internal/recurrence"
)

func TestClub_Recurrence(t *testing.T) {
	t.Parallel()

	weekday, pattern, err := riverside().Recurrence()
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, weekday)
	assert.Equal(t, recurrence.Pattern{1, 3}, pattern)

	_, _, err = Club{ID: 9, MeetingDay: "Tuesday", Pattern: ""}.Recurrence()
	assert.ErrorIs(t, err, ErrInvalidClubDefinition)
	assert.ErrorIs(t, err, recurrence.ErrInvalidPattern)

	_, _, err = Club{ID: 9, MeetingDay: "Funday", Pattern: "1"}.Recurrence()
	assert.ErrorIs(t, err, recurrence.ErrInvalidWeekday)
}

func TestRunReport_Outcome(t *testing.T) {
	t.Parallel()

	ok := RunReport{Clubs: []ClubReport{{ClubID: 1}}}
	assert.Equal(t, RunSucceeded, ok.Outcome())

	partial := RunReport{Clubs: []ClubReport{{ClubID: 1}, {ClubID: 2, Failures: []StageFailure{newStageFailure(2, StageRoster, errors.New("x"))}}}}
	assert.Equal(t, RunPartial, partial.Outcome())

	failed := RunReport{Error: "club directory unavailable"}
	assert.Equal(t, RunFailed, failed.Outcome())
}

func TestRunReport_JSONShape(t *testing.T) {
	t.Parallel()

	date := day(2024, time.October, 14)
	failure := newStageFailure(4, StageProvision, errors.New("disk full"))
	failure.Date = &date

	report := RunReport{
		RunID: "run-1",
		Year:  2024,
		Month: time.October,
		Clubs: []ClubReport{{ClubID: 4, DatesResolved: 1, Dates: []time.Time{date}, Failures: []StageFailure{failure}}},
	}

	raw, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	clubs := decoded["clubs"].([]any)
	club := clubs[0].(map[string]any)
	assert.EqualValues(t, 1, club["dates_resolved"])
	assert.EqualValues(t, 0, club["attendance_created"])

	failures := club["failures"].([]any)
	first := failures[0].(map[string]any)
	assert.Equal(t, "provision", first["stage"])
	assert.Equal(t, "disk full", first["error"])
	assert.NotContains(t, first, "Err")
	assert.NotContains(t, first, "user_id")
}

func TestRunReport_Totals(t *testing.T) {
	t.Parallel()

	report := RunReport{Clubs: []ClubReport{
		{DatesResolved: 2, MeetingsCreated: 2, AttendanceCreated: 10},
		{DatesResolved: 1, MeetingsReused: 1, AttendanceExisting: 3},
	}}
	totals := report.Totals()
	assert.Equal(t, 3, totals.DatesResolved)
	assert.Equal(t, 2, totals.MeetingsCreated)
	assert.Equal(t, 1, totals.MeetingsReused)
	assert.Equal(t, 10, totals.AttendanceCreated)
	assert.Equal(t, 3, totals.AttendanceExisting)
}

func TestLockKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "club:12:2025-03", LockKey(12, 2025, time.March))
}
