package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/meeting-scheduler/internal/recurrence"
)

// Club is the scheduler's read-only view of a club definition. MeetingDay and
// Pattern stay in their stored form until the club is resolved so a malformed
// definition fails that club alone.
type Club struct {
	ID          int64
	Name        string
	MeetingDay  string
	Pattern     string
	DefaultTime string
}

// Recurrence parses the club's weekday and ordinal pattern.
func (c Club) Recurrence() (time.Weekday, recurrence.Pattern, error) {
	weekday, err := recurrence.ParseWeekday(c.MeetingDay)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: club %d: %w", ErrInvalidClubDefinition, c.ID, err)
	}
	pattern, err := recurrence.ParsePattern(c.Pattern)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: club %d: %w", ErrInvalidClubDefinition, c.ID, err)
	}
	return weekday, pattern, nil
}

// Meeting is one dated club meeting.
type Meeting struct {
	ID                string    `json:"id"`
	ClubID            int64     `json:"club_id"`
	Name              string    `json:"name"`
	Date              time.Time `json:"date"`
	Time              string    `json:"time"`
	Place             string    `json:"place"`
	ArrivalTime       *string   `json:"arrival_time,omitempty"`
	AgendaLink        *string   `json:"agenda_link,omitempty"`
	EntryInstructions *string   `json:"entry_instructions,omitempty"`
}

// ClubDirectory exposes the club definitions and rosters. Both are read-only to the scheduler.
type ClubDirectory interface {
	ListClubs(ctx context.Context) ([]Club, error)
	RosterFor(ctx context.Context, clubID int64) ([]int64, error)
}

// MeetingStore persists meetings. FindMeetingByClubAndDate returns ErrNotFound
// when the club has no meeting that day; CreateMeeting returns ErrAlreadyExists
// when one was created concurrently.
type MeetingStore interface {
	FindMeetingByClubAndDate(ctx context.Context, clubID int64, date time.Time) (Meeting, error)
	CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error)
}

// AttendanceStore enrolls members. UpsertAttendance reports whether a new row
// was created and never modifies an existing one.
type AttendanceStore interface {
	UpsertAttendance(ctx context.Context, userID int64, meetingID string) (created bool, err error)
}

// Locker provides per-key advisory locks.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// RunObserver is notified once per completed run, fatal or not.
type RunObserver interface {
	ObserveRun(report RunReport)
}

// LockKey returns the advisory lock key for a club's month.
func LockKey(clubID int64, year int, month time.Month) string {
	return fmt.Sprintf("club:%d:%04d-%02d", clubID, year, int(month))
}

type noopLocker struct{}

func (noopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
