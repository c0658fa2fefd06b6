package persistence

import "time"

// DateLayout is the calendar-date form meeting dates are stored in.
const DateLayout = "2006-01-02"

// Club is a recurring-meeting organisation. MeetingDay and Interval are kept
// in their stored form so malformed definitions surface when they are resolved.
type Club struct {
	ID          int64
	CouncilID   *int64
	Name        string
	MeetingDay  string
	Interval    string
	MeetingTime string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership links a user to a club.
type Membership struct {
	UserID   int64
	ClubID   int64
	JoinDate time.Time
}

// Meeting is one dated occurrence of a club meeting.
type Meeting struct {
	ID                string
	ClubID            int64
	Name              string
	Date              time.Time
	Time              string
	Place             string
	ArrivalTime       *string
	AgendaLink        *string
	EntryInstructions *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Attendance records one user's expected participation in one meeting.
type Attendance struct {
	UserID    int64
	MeetingID string
	Attended  bool
	Confirmed bool
	CreatedAt time.Time
}
