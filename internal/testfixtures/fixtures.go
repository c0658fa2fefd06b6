// Package testfixtures builds deterministic clubs, stores and services for
// integration-style tests.
package testfixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/persistence"
)

var clubCounter int64

// referenceTime is the daily trigger firing on the first day of a pattern month.
var referenceTime = time.Date(2024, time.October, 1, 6, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical run instant used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ClubFixture describes a club together with its roster.
type ClubFixture struct {
	ID          int64
	Name        string
	MeetingDay  string
	Interval    string
	MeetingTime string
	Members     []int64
	JoinedAt    time.Time
}

// ClubOption configures a generated ClubFixture.
type ClubOption func(*ClubFixture)

// NewClubFixture returns a Tuesday club meeting on the first and third
// occurrence with no members. IDs are unique within the test binary.
func NewClubFixture(opts ...ClubOption) ClubFixture {
	idx := atomic.AddInt64(&clubCounter, 1)
	fixture := ClubFixture{
		ID:          1000 + idx,
		Name:        fmt.Sprintf("Club %03d", idx),
		MeetingDay:  "Tuesday",
		Interval:    "1,3",
		MeetingTime: "19:00",
		JoinedAt:    referenceTime.AddDate(-1, 0, 0),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// Riverside is the canonical five member club meeting on the first and third Tuesday at 19:00.
func Riverside(opts ...ClubOption) ClubFixture {
	base := []ClubOption{
		WithClubID(1),
		WithClubName("Riverside"),
		WithMembers(101, 102, 103, 104, 105),
	}
	return NewClubFixture(append(base, opts...)...)
}

// WithClubID overrides the generated club ID.
func WithClubID(id int64) ClubOption {
	return func(f *ClubFixture) { f.ID = id }
}

// WithClubName overrides the generated name.
func WithClubName(name string) ClubOption {
	return func(f *ClubFixture) { f.Name = name }
}

// WithMeetingDay sets the stored weekday name.
func WithMeetingDay(day string) ClubOption {
	return func(f *ClubFixture) { f.MeetingDay = day }
}

// WithInterval sets the stored ordinal pattern, e.g. "2,4".
func WithInterval(interval string) ClubOption {
	return func(f *ClubFixture) { f.Interval = interval }
}

// WithMeetingTime sets the default meeting time.
func WithMeetingTime(at string) ClubOption {
	return func(f *ClubFixture) { f.MeetingTime = at }
}

// WithMembers replaces the roster.
func WithMembers(userIDs ...int64) ClubOption {
	return func(f *ClubFixture) { f.Members = append([]int64(nil), userIDs...) }
}

// Persistence returns the club row.
func (f ClubFixture) Persistence() persistence.Club {
	return persistence.Club{
		ID:          f.ID,
		Name:        f.Name,
		MeetingDay:  f.MeetingDay,
		Interval:    f.Interval,
		MeetingTime: f.MeetingTime,
		CreatedAt:   f.JoinedAt,
		UpdatedAt:   f.JoinedAt,
	}
}

// Application returns the scheduler's view of the club.
func (f ClubFixture) Application() application.Club {
	return application.Club{
		ID:          f.ID,
		Name:        f.Name,
		MeetingDay:  f.MeetingDay,
		Pattern:     f.Interval,
		DefaultTime: f.MeetingTime,
	}
}

// Memberships returns one membership per member, joined a day apart in roster order.
func (f ClubFixture) Memberships() []persistence.Membership {
	memberships := make([]persistence.Membership, 0, len(f.Members))
	for i, userID := range f.Members {
		memberships = append(memberships, persistence.Membership{
			UserID:   userID,
			ClubID:   f.ID,
			JoinDate: f.JoinedAt.AddDate(0, 0, i),
		})
	}
	return memberships
}

// Seed stores each club and its roster, failing the test on error.
func Seed(tb testing.TB, store persistence.ClubRepository, clubs ...ClubFixture) {
	tb.Helper()

	ctx := context.Background()
	for _, club := range clubs {
		if _, err := store.CreateClub(ctx, club.Persistence()); err != nil {
			tb.Fatalf("seed club %d: %v", club.ID, err)
		}
		for _, membership := range club.Memberships() {
			if err := store.AddMembership(ctx, membership); err != nil {
				tb.Fatalf("seed membership %d/%d: %v", membership.ClubID, membership.UserID, err)
			}
		}
	}
}
