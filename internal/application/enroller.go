package application

import (
	"context"
	"fmt"
	"log/slog"
)

// EnrollFailure identifies one member/meeting pair that could not be enrolled.
type EnrollFailure struct {
	UserID    int64
	MeetingID string
	Err       error
}

// EnrollResult tallies one enrollment pass.
type EnrollResult struct {
	Created  int
	Existing int
	Failures []EnrollFailure
}

// AttendanceEnroller enrolls every roster member into every provisioned meeting.
type AttendanceEnroller struct {
	attendance AttendanceStore
	logger     *slog.Logger
}

// NewAttendanceEnroller wires the attendance store used for enrollment.
func NewAttendanceEnroller(attendance AttendanceStore) *AttendanceEnroller {
	return NewAttendanceEnrollerWithLogger(attendance, nil)
}

// NewAttendanceEnrollerWithLogger is NewAttendanceEnroller with an explicit base logger.
func NewAttendanceEnrollerWithLogger(attendance AttendanceStore, logger *slog.Logger) *AttendanceEnroller {
	return &AttendanceEnroller{attendance: attendance, logger: defaultLogger(logger)}
}

// Enroll upserts an attendance row for each (member, meeting) pair. Existing
// rows are left as they are. A failed pair is recorded and the remaining pairs
// are still attempted; Enroll stops early only when ctx is done.
func (e *AttendanceEnroller) Enroll(ctx context.Context, roster []int64, meetings []Meeting) (EnrollResult, error) {
	var result EnrollResult
	if e == nil || e.attendance == nil {
		return result, fmt.Errorf("AttendanceEnroller is not configured")
	}
	logger := serviceLogger(ctx, e.logger, "AttendanceEnroller", "Enroll")

	for _, meeting := range meetings {
		for _, userID := range roster {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			created, err := e.attendance.UpsertAttendance(ctx, userID, meeting.ID)
			if err != nil {
				logger.Warn("attendance enrollment failed",
					"meeting_id", meeting.ID,
					"user_id", userID,
					"error_kind", ErrorKind(err),
					"error", err,
				)
				result.Failures = append(result.Failures, EnrollFailure{UserID: userID, MeetingID: meeting.ID, Err: err})
				continue
			}
			if created {
				result.Created++
			} else {
				result.Existing++
			}
		}
	}

	logger.Debug("enrollment finished",
		"meetings", len(meetings),
		"roster", len(roster),
		"created", result.Created,
		"existing", result.Existing,
		"failures", len(result.Failures),
	)
	return result, nil
}
