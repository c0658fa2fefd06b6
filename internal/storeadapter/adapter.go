// Package storeadapter exposes a persistence.Store through the ports the
// application services depend on.
package storeadapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/meeting-scheduler/internal/application"
	"github.com/example/meeting-scheduler/internal/persistence"
)

// Adapter implements application.ClubDirectory, application.MeetingStore,
// application.AttendanceStore, application.ClubLookup and
// application.MeetingCatalog on top of a single store.
type Adapter struct {
	store persistence.Store
}

var (
	_ application.ClubDirectory   = (*Adapter)(nil)
	_ application.MeetingStore    = (*Adapter)(nil)
	_ application.AttendanceStore = (*Adapter)(nil)
	_ application.ClubLookup      = (*Adapter)(nil)
	_ application.MeetingCatalog  = (*Adapter)(nil)
)

// New wraps store.
func New(store persistence.Store) *Adapter {
	return &Adapter{store: store}
}

// ListClubs returns every club definition.
func (a *Adapter) ListClubs(ctx context.Context) ([]application.Club, error) {
	records, err := a.store.ListClubs(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	clubs := make([]application.Club, 0, len(records))
	for _, record := range records {
		clubs = append(clubs, toApplicationClub(record))
	}
	return clubs, nil
}

// RosterFor returns the user IDs of the club's current members.
func (a *Adapter) RosterFor(ctx context.Context, clubID int64) ([]int64, error) {
	memberships, err := a.store.ListMemberships(ctx, clubID)
	if err != nil {
		return nil, mapError(err)
	}
	roster := make([]int64, 0, len(memberships))
	for _, m := range memberships {
		roster = append(roster, m.UserID)
	}
	return roster, nil
}

// GetClub resolves a single club.
func (a *Adapter) GetClub(ctx context.Context, clubID int64) (application.Club, error) {
	record, err := a.store.GetClub(ctx, clubID)
	if err != nil {
		return application.Club{}, mapError(err)
	}
	return toApplicationClub(record), nil
}

func (a *Adapter) FindMeetingByClubAndDate(ctx context.Context, clubID int64, date time.Time) (application.Meeting, error) {
	record, err := a.store.FindMeetingByClubAndDate(ctx, clubID, date)
	if err != nil {
		return application.Meeting{}, mapError(err)
	}
	return toApplicationMeeting(record), nil
}

// CreateMeeting stores the meeting and reads it back so callers see what was persisted.
func (a *Adapter) CreateMeeting(ctx context.Context, meeting application.Meeting) (application.Meeting, error) {
	record := persistence.Meeting{
		ID:                meeting.ID,
		ClubID:            meeting.ClubID,
		Name:              meeting.Name,
		Date:              persistence.CalendarDate(meeting.Date),
		Time:              meeting.Time,
		Place:             meeting.Place,
		ArrivalTime:       meeting.ArrivalTime,
		AgendaLink:        meeting.AgendaLink,
		EntryInstructions: meeting.EntryInstructions,
	}
	if err := a.store.CreateMeeting(ctx, record); err != nil {
		return application.Meeting{}, mapError(err)
	}

	stored, err := a.store.GetMeeting(ctx, meeting.ID)
	if err != nil {
		return application.Meeting{}, fmt.Errorf("read back meeting %s: %w", meeting.ID, mapError(err))
	}
	return toApplicationMeeting(stored), nil
}

func (a *Adapter) ListMeetingsForClub(ctx context.Context, clubID int64, from time.Time) ([]application.Meeting, error) {
	records, err := a.store.ListMeetingsForClub(ctx, clubID, from)
	if err != nil {
		return nil, mapError(err)
	}
	meetings := make([]application.Meeting, 0, len(records))
	for _, record := range records {
		meetings = append(meetings, toApplicationMeeting(record))
	}
	return meetings, nil
}

// UpsertAttendance enrolls the user with both flags cleared. Existing rows are not touched.
func (a *Adapter) UpsertAttendance(ctx context.Context, userID int64, meetingID string) (bool, error) {
	created, err := a.store.UpsertAttendance(ctx, persistence.Attendance{
		UserID:    userID,
		MeetingID: meetingID,
	})
	if err != nil {
		return false, mapError(err)
	}
	return created, nil
}

// Ping checks the backing store when it supports health checks.
func (a *Adapter) Ping(ctx context.Context) error {
	pinger, ok := a.store.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return pinger.Ping(ctx)
}

func toApplicationClub(record persistence.Club) application.Club {
	return application.Club{
		ID:          record.ID,
		Name:        record.Name,
		MeetingDay:  record.MeetingDay,
		Pattern:     record.Interval,
		DefaultTime: record.MeetingTime,
	}
}

func toApplicationMeeting(record persistence.Meeting) application.Meeting {
	return application.Meeting{
		ID:                record.ID,
		ClubID:            record.ClubID,
		Name:              record.Name,
		Date:              record.Date,
		Time:              record.Time,
		Place:             record.Place,
		ArrivalTime:       record.ArrivalTime,
		AgendaLink:        record.AgendaLink,
		EntryInstructions: record.EntryInstructions,
	}
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %w", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %w", application.ErrAlreadyExists, err)
	default:
		return err
	}
}
