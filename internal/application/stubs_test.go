package application

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type attendanceKey struct {
	userID    int64
	meetingID string
}

type attendanceRow struct {
	attended  bool
	confirmed bool
}

// fakeStore is an in-memory club directory, meeting store and attendance store
// with per-call error injection.
type fakeStore struct {
	mu         sync.Mutex
	clubs      []Club
	rosters    map[int64][]int64
	meetings   map[string]Meeting
	attendance map[attendanceKey]attendanceRow

	listErr         error
	rosterErr       map[int64]error
	findErr         map[int64]error
	createErr       map[int64]error
	createConflicts map[int64]bool
	upsertErr       func(userID int64, meetingID string) error

	rosterCalls  int
	createCalls  int
	listClubsHit int
}

func newFakeStore(clubs ...Club) *fakeStore {
	return &fakeStore{
		clubs:           clubs,
		rosters:         make(map[int64][]int64),
		meetings:        make(map[string]Meeting),
		attendance:      make(map[attendanceKey]attendanceRow),
		rosterErr:       make(map[int64]error),
		findErr:         make(map[int64]error),
		createErr:       make(map[int64]error),
		createConflicts: make(map[int64]bool),
	}
}

func (f *fakeStore) ListClubs(ctx context.Context) ([]Club, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listClubsHit++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Club, len(f.clubs))
	copy(out, f.clubs)
	return out, nil
}

func (f *fakeStore) RosterFor(ctx context.Context, clubID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rosterCalls++
	if err := f.rosterErr[clubID]; err != nil {
		return nil, err
	}
	return append([]int64(nil), f.rosters[clubID]...), nil
}

func (f *fakeStore) FindMeetingByClubAndDate(ctx context.Context, clubID int64, date time.Time) (Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.findErr[clubID]; err != nil {
		return Meeting{}, err
	}
	for _, m := range f.meetings {
		if m.ClubID == clubID && m.Date.Equal(date) {
			return m, nil
		}
	}
	return Meeting{}, ErrNotFound
}

func (f *fakeStore) CreateMeeting(ctx context.Context, meeting Meeting) (Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if err := f.createErr[meeting.ClubID]; err != nil {
		return Meeting{}, err
	}
	if f.createConflicts[meeting.ClubID] {
		// Simulate a concurrent writer winning the race for this date.
		winner := meeting
		winner.ID = "winner-" + meeting.Date.Format("2006-01-02")
		f.meetings[winner.ID] = winner
		return Meeting{}, fmt.Errorf("insert: %w", ErrAlreadyExists)
	}
	for _, m := range f.meetings {
		if m.ClubID == meeting.ClubID && m.Date.Equal(meeting.Date) {
			return Meeting{}, ErrAlreadyExists
		}
	}
	f.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (f *fakeStore) UpsertAttendance(ctx context.Context, userID int64, meetingID string) (bool, error) {
	if f.upsertErr != nil {
		if err := f.upsertErr(userID, meetingID); err != nil {
			return false, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := attendanceKey{userID: userID, meetingID: meetingID}
	if _, ok := f.attendance[key]; ok {
		return false, nil
	}
	f.attendance[key] = attendanceRow{}
	return true, nil
}

func (f *fakeStore) setAttendance(userID int64, meetingID string, row attendanceRow) {
	f.mu.Lock()
	f.attendance[attendanceKey{userID: userID, meetingID: meetingID}] = row
	f.mu.Unlock()
}

func (f *fakeStore) meetingsFor(clubID int64) []Meeting {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Meeting
	for _, m := range f.meetings {
		if m.ClubID == clubID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (f *fakeStore) attendanceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attendance)
}

type sequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (s *sequentialIDs) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("meeting-%d", s.n)
}

type lockerStub struct {
	mu       sync.Mutex
	err      error
	keys     []string
	released int
}

func (l *lockerStub) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

func riverside() Club {
	return Club{ID: 1, Name: "Riverside", MeetingDay: "Tuesday", Pattern: "1,3", DefaultTime: "19:00"}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
