package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// ClubLookup resolves a single club.
type ClubLookup interface {
	GetClub(ctx context.Context, clubID int64) (Club, error)
}

// MeetingCatalog lists stored meetings.
type MeetingCatalog interface {
	ListMeetingsForClub(ctx context.Context, clubID int64, from time.Time) ([]Meeting, error)
}

// MeetingQueryService serves read-only meeting listings.
type MeetingQueryService struct {
	clubs    ClubLookup
	meetings MeetingCatalog
	now      func() time.Time
	logger   *slog.Logger
}

// NewMeetingQueryService wires dependencies for meeting listings.
func NewMeetingQueryService(clubs ClubLookup, meetings MeetingCatalog, now func() time.Time) *MeetingQueryService {
	return NewMeetingQueryServiceWithLogger(clubs, meetings, now, nil)
}

// NewMeetingQueryServiceWithLogger is NewMeetingQueryService with an explicit base logger.
func NewMeetingQueryServiceWithLogger(clubs ClubLookup, meetings MeetingCatalog, now func() time.Time, logger *slog.Logger) *MeetingQueryService {
	if now == nil {
		now = time.Now
	}
	return &MeetingQueryService{clubs: clubs, meetings: meetings, now: now, logger: defaultLogger(logger)}
}

// UpcomingMeetings lists a club's meetings dated on or after from, ordered by
// date. A zero from means today.
func (s *MeetingQueryService) UpcomingMeetings(ctx context.Context, clubID int64, from time.Time) ([]Meeting, error) {
	if s == nil || s.meetings == nil {
		return nil, fmt.Errorf("MeetingQueryService is not configured")
	}
	if from.IsZero() {
		from = s.now()
	}
	from = persistence.CalendarDate(from)

	logger := serviceLogger(ctx, s.logger, "MeetingQueryService", "UpcomingMeetings",
		"club_id", clubID,
		"from", from.Format(persistence.DateLayout),
	)

	if clubID <= 0 {
		vErr := &ValidationError{}
		vErr.add("club_id", "must be a positive integer")
		logger.Warn("invalid meeting query", "error_kind", ErrorKind(vErr))
		return nil, vErr
	}

	if s.clubs != nil {
		if _, err := s.clubs.GetClub(ctx, clubID); err != nil {
			logger.Warn("club lookup failed", "error_kind", ErrorKind(err), "error", err)
			return nil, err
		}
	}

	meetings, err := s.meetings.ListMeetingsForClub(ctx, clubID, from)
	if err != nil {
		logger.Error("failed to list meetings", "error_kind", ErrorKind(err), "error", err)
		return nil, err
	}
	if meetings == nil {
		meetings = []Meeting{}
	}
	logger.Debug("meetings listed", "count", len(meetings))
	return meetings, nil
}
