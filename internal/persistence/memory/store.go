// Package memory provides an in-memory persistence.Store for tests and
// single-process deployments without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/meeting-scheduler/internal/persistence"
)

type attendanceKey struct {
	userID    int64
	meetingID string
}

type meetingKey struct {
	clubID int64
	date   string
}

// Store keeps every record in maps guarded by a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	nextClubID  int64
	clubs       map[int64]persistence.Club
	memberships map[int64][]persistence.Membership
	meetings    map[string]persistence.Meeting
	byClubDate  map[meetingKey]string
	attendance  map[attendanceKey]persistence.Attendance
}

var _ persistence.Store = (*Store)(nil)

// New returns an empty Store. A nil clock uses time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		now:         now,
		clubs:       make(map[int64]persistence.Club),
		memberships: make(map[int64][]persistence.Membership),
		meetings:    make(map[string]persistence.Meeting),
		byClubDate:  make(map[meetingKey]string),
		attendance:  make(map[attendanceKey]persistence.Attendance),
	}
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// --- ClubRepository implementation ---

// CreateClub stores a new club, assigning the next ID when club.ID is zero.
func (s *Store) CreateClub(_ context.Context, club persistence.Club) (persistence.Club, error) {
	if strings.TrimSpace(club.Name) == "" {
		return persistence.Club{}, fmt.Errorf("%w: club name is required", persistence.ErrConstraintViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if club.ID == 0 {
		club.ID = s.nextClubID + 1
	}
	if _, ok := s.clubs[club.ID]; ok {
		return persistence.Club{}, fmt.Errorf("%w: club %d", persistence.ErrDuplicate, club.ID)
	}
	if club.ID > s.nextClubID {
		s.nextClubID = club.ID
	}

	now := s.now().UTC()
	if club.CreatedAt.IsZero() {
		club.CreatedAt = now
	}
	if club.UpdatedAt.IsZero() {
		club.UpdatedAt = club.CreatedAt
	}

	s.clubs[club.ID] = cloneClub(club)
	return cloneClub(club), nil
}

// GetClub retrieves a club by ID.
func (s *Store) GetClub(_ context.Context, id int64) (persistence.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	club, ok := s.clubs[id]
	if !ok {
		return persistence.Club{}, persistence.ErrNotFound
	}
	return cloneClub(club), nil
}

// ListClubs returns all clubs ordered by ID.
func (s *Store) ListClubs(_ context.Context) ([]persistence.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clubs := make([]persistence.Club, 0, len(s.clubs))
	for _, club := range s.clubs {
		clubs = append(clubs, cloneClub(club))
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].ID < clubs[j].ID })
	return clubs, nil
}

// AddMembership adds a user to an existing club.
func (s *Store) AddMembership(_ context.Context, membership persistence.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clubs[membership.ClubID]; !ok {
		return fmt.Errorf("%w: club %d", persistence.ErrForeignKeyViolation, membership.ClubID)
	}
	for _, existing := range s.memberships[membership.ClubID] {
		if existing.UserID == membership.UserID {
			return fmt.Errorf("%w: user %d already in club %d", persistence.ErrDuplicate, membership.UserID, membership.ClubID)
		}
	}
	if membership.JoinDate.IsZero() {
		membership.JoinDate = s.now()
	}
	membership.JoinDate = persistence.CalendarDate(membership.JoinDate)

	s.memberships[membership.ClubID] = append(s.memberships[membership.ClubID], membership)
	return nil
}

// ListMemberships returns the roster ordered by join date then user.
func (s *Store) ListMemberships(_ context.Context, clubID int64) ([]persistence.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roster := append([]persistence.Membership(nil), s.memberships[clubID]...)
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].JoinDate.Equal(roster[j].JoinDate) {
			return roster[i].UserID < roster[j].UserID
		}
		return roster[i].JoinDate.Before(roster[j].JoinDate)
	})
	return roster, nil
}

// --- MeetingRepository implementation ---

// CreateMeeting stores a meeting, enforcing one meeting per club and date.
func (s *Store) CreateMeeting(_ context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.ClubID == 0 || meeting.Date.IsZero() {
		return fmt.Errorf("%w: meeting id, club and date are required", persistence.ErrConstraintViolation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clubs[meeting.ClubID]; !ok {
		return fmt.Errorf("%w: club %d", persistence.ErrForeignKeyViolation, meeting.ClubID)
	}
	if _, ok := s.meetings[meeting.ID]; ok {
		return fmt.Errorf("%w: meeting %s", persistence.ErrDuplicate, meeting.ID)
	}
	key := meetingKey{clubID: meeting.ClubID, date: meeting.Date.Format(persistence.DateLayout)}
	if _, ok := s.byClubDate[key]; ok {
		return fmt.Errorf("%w: club %d already meets on %s", persistence.ErrDuplicate, key.clubID, key.date)
	}

	now := s.now().UTC()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	if meeting.UpdatedAt.IsZero() {
		meeting.UpdatedAt = meeting.CreatedAt
	}
	meeting.Date = persistence.CalendarDate(meeting.Date)

	s.meetings[meeting.ID] = cloneMeeting(meeting)
	s.byClubDate[key] = meeting.ID
	return nil
}

// GetMeeting retrieves a meeting by ID.
func (s *Store) GetMeeting(_ context.Context, id string) (persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return cloneMeeting(meeting), nil
}

// FindMeetingByClubAndDate returns the club's meeting on that calendar date.
func (s *Store) FindMeetingByClubAndDate(_ context.Context, clubID int64, date time.Time) (persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byClubDate[meetingKey{clubID: clubID, date: date.Format(persistence.DateLayout)}]
	if !ok {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	return cloneMeeting(s.meetings[id]), nil
}

// ListMeetingsForClub returns meetings on or after from, earliest first.
func (s *Store) ListMeetingsForClub(_ context.Context, clubID int64, from time.Time) ([]persistence.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := persistence.CalendarDate(from)
	var meetings []persistence.Meeting
	for _, meeting := range s.meetings {
		if meeting.ClubID == clubID && !meeting.Date.Before(cutoff) {
			meetings = append(meetings, cloneMeeting(meeting))
		}
	}
	sort.Slice(meetings, func(i, j int) bool {
		if meetings[i].Date.Equal(meetings[j].Date) {
			return meetings[i].Time < meetings[j].Time
		}
		return meetings[i].Date.Before(meetings[j].Date)
	})
	return meetings, nil
}

// --- AttendanceRepository implementation ---

// UpsertAttendance inserts the record unless the pair already exists.
func (s *Store) UpsertAttendance(_ context.Context, attendance persistence.Attendance) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.meetings[attendance.MeetingID]; !ok {
		return false, fmt.Errorf("%w: meeting %s", persistence.ErrForeignKeyViolation, attendance.MeetingID)
	}

	key := attendanceKey{userID: attendance.UserID, meetingID: attendance.MeetingID}
	if _, ok := s.attendance[key]; ok {
		return false, nil
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = s.now().UTC()
	}
	s.attendance[key] = attendance
	return true, nil
}

// GetAttendance retrieves the record for a user and meeting.
func (s *Store) GetAttendance(_ context.Context, userID int64, meetingID string) (persistence.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.attendance[attendanceKey{userID: userID, meetingID: meetingID}]
	if !ok {
		return persistence.Attendance{}, persistence.ErrNotFound
	}
	return record, nil
}

// ListAttendanceForMeeting returns a meeting's records ordered by user.
func (s *Store) ListAttendanceForMeeting(_ context.Context, meetingID string) ([]persistence.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []persistence.Attendance
	for key, record := range s.attendance {
		if key.meetingID == meetingID {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })
	return records, nil
}

// SetAttendance updates the flags of an existing record.
func (s *Store) SetAttendance(_ context.Context, attendance persistence.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attendanceKey{userID: attendance.UserID, meetingID: attendance.MeetingID}
	record, ok := s.attendance[key]
	if !ok {
		return persistence.ErrNotFound
	}
	record.Attended = attendance.Attended
	record.Confirmed = attendance.Confirmed
	s.attendance[key] = record
	return nil
}

// AttendanceCount returns the total number of attendance records.
func (s *Store) AttendanceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attendance)
}

// MeetingCount returns the total number of meetings.
func (s *Store) MeetingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.meetings)
}

func cloneClub(club persistence.Club) persistence.Club {
	clone := club
	if club.CouncilID != nil {
		id := *club.CouncilID
		clone.CouncilID = &id
	}
	return clone
}

func cloneMeeting(meeting persistence.Meeting) persistence.Meeting {
	clone := meeting
	clone.ArrivalTime = cloneString(meeting.ArrivalTime)
	clone.AgendaLink = cloneString(meeting.AgendaLink)
	clone.EntryInstructions = cloneString(meeting.EntryInstructions)
	return clone
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
