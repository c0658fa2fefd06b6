package persistence

import (
	"context"
	"time"
)

// ClubRepository stores clubs and their member rosters.
type ClubRepository interface {
	CreateClub(ctx context.Context, club Club) (Club, error)
	GetClub(ctx context.Context, id int64) (Club, error)
	ListClubs(ctx context.Context) ([]Club, error)
	AddMembership(ctx context.Context, membership Membership) error
	ListMemberships(ctx context.Context, clubID int64) ([]Membership, error)
}

// MeetingRepository stores dated meetings. At most one meeting exists per
// club and date; CreateMeeting returns ErrDuplicate when that is violated.
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting Meeting) error
	GetMeeting(ctx context.Context, id string) (Meeting, error)
	FindMeetingByClubAndDate(ctx context.Context, clubID int64, date time.Time) (Meeting, error)
	ListMeetingsForClub(ctx context.Context, clubID int64, from time.Time) ([]Meeting, error)
}

// AttendanceRepository stores attendance records keyed by user and meeting.
type AttendanceRepository interface {
	// UpsertAttendance inserts the record unless one already exists for the
	// same user and meeting. Existing records are left untouched and created
	// reports false.
	UpsertAttendance(ctx context.Context, attendance Attendance) (created bool, err error)
	GetAttendance(ctx context.Context, userID int64, meetingID string) (Attendance, error)
	ListAttendanceForMeeting(ctx context.Context, meetingID string) ([]Attendance, error)
	SetAttendance(ctx context.Context, attendance Attendance) error
}

// Store bundles every repository a backend provides.
type Store interface {
	ClubRepository
	MeetingRepository
	AttendanceRepository
	Close() error
}

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
