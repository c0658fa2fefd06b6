package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// AttendanceRepository implements persistence.AttendanceRepository using SQLite
type AttendanceRepository struct {
	repositoryBase
}

// UpsertAttendance inserts the record unless the (user, meeting) pair already
// exists. Existing rows keep their attended and confirmed flags.
func (r *AttendanceRepository) UpsertAttendance(ctx context.Context, attendance persistence.Attendance) (bool, error) {
	if attendance.MeetingID == "" {
		return false, fmt.Errorf("%w: meeting id is required", persistence.ErrConstraintViolation)
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = r.timestamp()
	}

	query := `
		INSERT INTO meeting_attendance (user_id, meeting_id, attended, confirmed, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, meeting_id) DO NOTHING
	`

	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx, query,
			attendance.UserID,
			attendance.MeetingID,
			attendance.Attended,
			attendance.Confirmed,
			formatTimestamp(attendance.CreatedAt),
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetAttendance retrieves the record for a user and meeting
func (r *AttendanceRepository) GetAttendance(ctx context.Context, userID int64, meetingID string) (persistence.Attendance, error) {
	query := `
		SELECT user_id, meeting_id, attended, confirmed, created_at
		FROM meeting_attendance
		WHERE user_id = ? AND meeting_id = ?
	`

	attendance, err := scanAttendance(r.helper.QueryRow(ctx, query, userID, meetingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Attendance{}, persistence.ErrNotFound
		}
		return persistence.Attendance{}, r.mapper.MapError(err)
	}
	return attendance, nil
}

// ListAttendanceForMeeting returns every record of a meeting ordered by user.
func (r *AttendanceRepository) ListAttendanceForMeeting(ctx context.Context, meetingID string) ([]persistence.Attendance, error) {
	query := `
		SELECT user_id, meeting_id, attended, confirmed, created_at
		FROM meeting_attendance
		WHERE meeting_id = ?
		ORDER BY user_id ASC
	`

	rows, err := r.helper.Query(ctx, query, meetingID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.Attendance
	for rows.Next() {
		attendance, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, attendance)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return records, nil
}

// SetAttendance updates the attended and confirmed flags of an existing record.
func (r *AttendanceRepository) SetAttendance(ctx context.Context, attendance persistence.Attendance) error {
	query := `
		UPDATE meeting_attendance
		SET attended = ?, confirmed = ?
		WHERE user_id = ? AND meeting_id = ?
	`

	var affected int64
	err := r.retry.WithRetry(ctx, func() error {
		result, err := r.helper.Exec(ctx, query,
			attendance.Attended,
			attendance.Confirmed,
			attendance.UserID,
			attendance.MeetingID,
		)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanAttendance(row rowScanner) (persistence.Attendance, error) {
	var (
		attendance persistence.Attendance
		createdAt  string
	)
	if err := row.Scan(
		&attendance.UserID,
		&attendance.MeetingID,
		&attendance.Attended,
		&attendance.Confirmed,
		&createdAt,
	); err != nil {
		return persistence.Attendance{}, err
	}

	var err error
	if attendance.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Attendance{}, err
	}
	return attendance, nil
}
