package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// MeetingRepository implements persistence.MeetingRepository using SQLite
type MeetingRepository struct {
	repositoryBase
}

const meetingColumns = `id, club_id, name, meeting_date, meeting_time, place,
	arrival_time, agenda_link, entry_instructions, created_at, updated_at`

// CreateMeeting inserts a meeting. A second meeting for the same club and
// date fails with persistence.ErrDuplicate.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.ClubID == 0 || meeting.Date.IsZero() {
		return fmt.Errorf("%w: meeting id, club and date are required", persistence.ErrConstraintViolation)
	}

	now := r.timestamp()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	if meeting.UpdatedAt.IsZero() {
		meeting.UpdatedAt = meeting.CreatedAt
	}

	query := `
		INSERT INTO meetings (` + meetingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.helper.Exec(ctx, query,
			meeting.ID,
			meeting.ClubID,
			meeting.Name,
			formatDate(meeting.Date),
			meeting.Time,
			meeting.Place,
			nullableString(meeting.ArrivalTime),
			nullableString(meeting.AgendaLink),
			nullableString(meeting.EntryInstructions),
			formatTimestamp(meeting.CreatedAt),
			formatTimestamp(meeting.UpdatedAt),
		)
		return err
	})
}

// GetMeeting retrieves a meeting by ID
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	if id == "" {
		return persistence.Meeting{}, persistence.ErrNotFound
	}
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// FindMeetingByClubAndDate returns the club's meeting on the calendar date of
// date, or persistence.ErrNotFound.
func (r *MeetingRepository) FindMeetingByClubAndDate(ctx context.Context, clubID int64, date time.Time) (persistence.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE club_id = ? AND meeting_date = ?`
	return r.getOne(ctx, query, clubID, formatDate(date))
}

// ListMeetingsForClub returns the club's meetings on or after from, earliest first.
func (r *MeetingRepository) ListMeetingsForClub(ctx context.Context, clubID int64, from time.Time) ([]persistence.Meeting, error) {
	query := `
		SELECT ` + meetingColumns + `
		FROM meetings
		WHERE club_id = ? AND meeting_date >= ?
		ORDER BY meeting_date ASC, meeting_time ASC
	`

	rows, err := r.helper.Query(ctx, query, clubID, formatDate(from))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var meetings []persistence.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return meetings, nil
}

func (r *MeetingRepository) getOne(ctx context.Context, query string, args ...any) (persistence.Meeting, error) {
	meeting, err := scanMeeting(r.helper.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Meeting{}, persistence.ErrNotFound
		}
		return persistence.Meeting{}, r.mapper.MapError(err)
	}
	return meeting, nil
}

func scanMeeting(row rowScanner) (persistence.Meeting, error) {
	var (
		meeting                               persistence.Meeting
		date, createdAt, updatedAt            string
		arrivalTime, agendaLink, instructions sql.NullString
	)
	err := row.Scan(
		&meeting.ID,
		&meeting.ClubID,
		&meeting.Name,
		&date,
		&meeting.Time,
		&meeting.Place,
		&arrivalTime,
		&agendaLink,
		&instructions,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Meeting{}, err
	}

	if meeting.Date, err = parseDate(date); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Meeting{}, err
	}
	if meeting.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Meeting{}, err
	}
	meeting.ArrivalTime = stringPointer(arrivalTime)
	meeting.AgendaLink = stringPointer(agendaLink)
	meeting.EntryInstructions = stringPointer(instructions)
	return meeting, nil
}
