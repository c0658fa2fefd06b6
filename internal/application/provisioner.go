package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// DefaultMeetingPlace is the place recorded on generated meetings until an organiser edits them.
const DefaultMeetingPlace = "placeholder"

// ProvisionError reports the date whose meeting could not be provisioned.
type ProvisionError struct {
	Date time.Time
	Err  error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision meeting for %s: %v", e.Date.Format(persistence.DateLayout), e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// MeetingProvisioner materialises a club's resolved dates as meetings, reusing
// meetings that already exist for a date.
type MeetingProvisioner struct {
	meetings    MeetingStore
	idGenerator func() string
	place       string
	logger      *slog.Logger
}

// NewMeetingProvisioner wires the meeting store used for provisioning.
func NewMeetingProvisioner(meetings MeetingStore, idGenerator func() string, place string) *MeetingProvisioner {
	return NewMeetingProvisionerWithLogger(meetings, idGenerator, place, nil)
}

// NewMeetingProvisionerWithLogger is NewMeetingProvisioner with an explicit base logger.
func NewMeetingProvisionerWithLogger(meetings MeetingStore, idGenerator func() string, place string, logger *slog.Logger) *MeetingProvisioner {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if place == "" {
		place = DefaultMeetingPlace
	}
	return &MeetingProvisioner{
		meetings:    meetings,
		idGenerator: idGenerator,
		place:       place,
		logger:      defaultLogger(logger),
	}
}

// Provision walks dates in order. A meeting created for the nth date is named
// "<club> Meeting <n>"; a meeting already stored for a date is returned as is.
// The first store failure stops the walk and the meetings provisioned before
// it are returned together with a *ProvisionError.
func (p *MeetingProvisioner) Provision(ctx context.Context, club Club, dates []time.Time) ([]ProvisionedMeeting, error) {
	if p == nil || p.meetings == nil {
		return nil, fmt.Errorf("MeetingProvisioner is not configured")
	}
	logger := serviceLogger(ctx, p.logger, "MeetingProvisioner", "Provision", "club_id", club.ID)

	provisioned := make([]ProvisionedMeeting, 0, len(dates))
	for i, date := range dates {
		date = persistence.CalendarDate(date)

		meeting, outcome, err := p.provisionDate(ctx, club, i+1, date)
		if err != nil {
			logger.Warn("meeting provisioning failed",
				"date", date.Format(persistence.DateLayout),
				"error_kind", ErrorKind(err),
				"error", err,
			)
			return provisioned, &ProvisionError{Date: date, Err: err}
		}

		logger.Debug("meeting provisioned",
			"date", date.Format(persistence.DateLayout),
			"meeting_id", meeting.ID,
			"outcome", string(outcome),
		)
		provisioned = append(provisioned, ProvisionedMeeting{Meeting: meeting, Outcome: outcome})
	}
	return provisioned, nil
}

func (p *MeetingProvisioner) provisionDate(ctx context.Context, club Club, position int, date time.Time) (Meeting, ProvisionOutcome, error) {
	existing, err := p.meetings.FindMeetingByClubAndDate(ctx, club.ID, date)
	switch {
	case err == nil:
		return existing, OutcomeReused, nil
	case !errors.Is(err, ErrNotFound):
		return Meeting{}, "", fmt.Errorf("find meeting: %w", err)
	}

	candidate := Meeting{
		ID:     p.idGenerator(),
		ClubID: club.ID,
		Name:   fmt.Sprintf("%s Meeting %d", club.Name, position),
		Date:   date,
		Time:   club.DefaultTime,
		Place:  p.place,
	}

	created, err := p.meetings.CreateMeeting(ctx, candidate)
	if err == nil {
		return created, OutcomeCreated, nil
	}
	if !errors.Is(err, ErrAlreadyExists) {
		return Meeting{}, "", fmt.Errorf("create meeting: %w", err)
	}

	// Another run created the meeting between the lookup and the insert.
	existing, err = p.meetings.FindMeetingByClubAndDate(ctx, club.ID, date)
	if err != nil {
		return Meeting{}, "", fmt.Errorf("find meeting after conflict: %w", err)
	}
	return existing, OutcomeReused, nil
}
