package application

import (
	"time"
)

// Stage names the step of a club's processing that failed.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StageLock      Stage = "lock"
	StageProvision Stage = "provision"
	StageRoster    Stage = "roster"
	StageEnroll    Stage = "enroll"
	StageDispatch  Stage = "dispatch"
)

// ProvisionOutcome tags whether a meeting was created by this run or already existed.
type ProvisionOutcome string

const (
	OutcomeCreated ProvisionOutcome = "created"
	OutcomeReused  ProvisionOutcome = "reused"
)

// ProvisionedMeeting pairs a meeting with how it was obtained.
type ProvisionedMeeting struct {
	Meeting Meeting          `json:"meeting"`
	Outcome ProvisionOutcome `json:"outcome"`
}

// StageFailure records one failure inside a club's processing.
type StageFailure struct {
	ClubID    int64      `json:"club_id"`
	Stage     Stage      `json:"stage"`
	Error     string     `json:"error"`
	Date      *time.Time `json:"date,omitempty"`
	UserID    *int64     `json:"user_id,omitempty"`
	MeetingID string     `json:"meeting_id,omitempty"`

	Err error `json:"-"`
}

func newStageFailure(clubID int64, stage Stage, err error) StageFailure {
	return StageFailure{
		ClubID: clubID,
		Stage:  stage,
		Error:  err.Error(),
		Err:    err,
	}
}

// ClubReport summarises one club's processing.
type ClubReport struct {
	ClubID             int64                `json:"club_id"`
	ClubName           string               `json:"club_name"`
	Dates              []time.Time          `json:"dates"`
	DatesResolved      int                  `json:"dates_resolved"`
	Meetings           []ProvisionedMeeting `json:"meetings,omitempty"`
	MeetingsCreated    int                  `json:"meetings_created"`
	MeetingsReused     int                  `json:"meetings_reused"`
	AttendanceCreated  int                  `json:"attendance_created"`
	AttendanceExisting int                  `json:"attendance_existing"`
	Failures           []StageFailure       `json:"failures,omitempty"`
}

// Failed reports whether any stage failed for the club.
func (r ClubReport) Failed() bool {
	return len(r.Failures) > 0
}

// RunReport is the structured result of one scheduler run.
type RunReport struct {
	RunID      string       `json:"run_id"`
	Year       int          `json:"year"`
	Month      time.Month   `json:"month"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Clubs      []ClubReport `json:"clubs"`
	Error      string       `json:"error,omitempty"`
}

// Run outcomes reported by Outcome.
const (
	RunSucceeded = "success"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

// Outcome classifies the run: failed when it aborted, partial when any club
// recorded a failure, success otherwise.
func (r RunReport) Outcome() string {
	if r.Error != "" {
		return RunFailed
	}
	for _, club := range r.Clubs {
		if club.Failed() {
			return RunPartial
		}
	}
	return RunSucceeded
}

// Duration returns how long the run took.
func (r RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Totals sums the per-club counters.
func (r RunReport) Totals() ClubReport {
	var total ClubReport
	for _, club := range r.Clubs {
		total.DatesResolved += club.DatesResolved
		total.MeetingsCreated += club.MeetingsCreated
		total.MeetingsReused += club.MeetingsReused
		total.AttendanceCreated += club.AttendanceCreated
		total.AttendanceExisting += club.AttendanceExisting
		total.Failures = append(total.Failures, club.Failures...)
	}
	return total
}

// FailuresByStage counts failures per stage across all clubs.
func (r RunReport) FailuresByStage() map[Stage]int {
	counts := make(map[Stage]int)
	for _, club := range r.Clubs {
		for _, failure := range club.Failures {
			counts[failure.Stage]++
		}
	}
	return counts
}
