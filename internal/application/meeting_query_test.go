package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

type clubLookupStub struct {
	clubs map[int64]Club
	err   error
}

func (c *clubLookupStub) GetClub(ctx context.Context, clubID int64) (Club, error) {
	if c.err != nil {
		return Club{}, c.err
	}
	club, ok := c.clubs[clubID]
	if !ok {
		return Club{}, ErrNotFound
	}
	return club, nil
}

type meetingCatalogStub struct {
	meetings []Meeting
	err      error
	from     time.Time
}

func (m *meetingCatalogStub) ListMeetingsForClub(ctx context.Context, clubID int64, from time.Time) ([]Meeting, error) {
	m.from = from
	if m.err != nil {
		return nil, m.err
	}
	var out []Meeting
	for _, meeting := range m.meetings {
		if meeting.ClubID == clubID && !meeting.Date.Before(from) {
			out = append(out, meeting)
		}
	}
	return out, nil
}

func TestMeetingQueryService_UpcomingMeetings(t *testing.T) {
	t.Parallel()

	clubs := &clubLookupStub{clubs: map[int64]Club{1: riverside()}}
	catalog := &meetingCatalogStub{meetings: []Meeting{
		{ID: "past", ClubID: 1, Date: day(2024, time.October, 1)},
		{ID: "next", ClubID: 1, Date: day(2024, time.October, 15)},
	}}
	now := func() time.Time { return time.Date(2024, time.October, 10, 15, 4, 0, 0, time.UTC) }
	svc := NewMeetingQueryService(clubs, catalog, now)

	got, err := svc.UpcomingMeetings(context.Background(), 1, time.Time{})
	if err != nil {
		t.Fatalf("UpcomingMeetings returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "next" {
		t.Fatalf("expected only the upcoming meeting, got %+v", got)
	}
	if !catalog.from.Equal(day(2024, time.October, 10)) {
		t.Fatalf("expected query from midnight today, got %v", catalog.from)
	}
}

func TestMeetingQueryService_EmptyListIsNotNil(t *testing.T) {
	t.Parallel()

	svc := NewMeetingQueryService(&clubLookupStub{clubs: map[int64]Club{1: riverside()}}, &meetingCatalogStub{}, nil)
	got, err := svc.UpcomingMeetings(context.Background(), 1, day(2030, time.January, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMeetingQueryService_Errors(t *testing.T) {
	t.Parallel()

	svc := NewMeetingQueryService(&clubLookupStub{clubs: map[int64]Club{}}, &meetingCatalogStub{}, nil)

	if _, err := svc.UpcomingMeetings(context.Background(), 7, time.Time{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown club, got %v", err)
	}

	_, err := svc.UpcomingMeetings(context.Background(), 0, time.Time{})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["club_id"] == "" {
		t.Fatalf("expected club_id validation error, got %v", err)
	}

	failing := NewMeetingQueryService(nil, &meetingCatalogStub{err: errors.New("boom")}, nil)
	if _, err := failing.UpcomingMeetings(context.Background(), 1, time.Time{}); err == nil {
		t.Fatal("expected catalog error")
	}
}
