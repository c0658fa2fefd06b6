package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/meeting-scheduler/internal/recurrence"
)

// DefaultConcurrency bounds how many clubs are processed at once.
const DefaultConcurrency = 4

// SchedulerDependencies collects the collaborators of SchedulerService.
type SchedulerDependencies struct {
	Clubs      ClubDirectory
	Meetings   MeetingStore
	Attendance AttendanceStore
	Locker     Locker
	Observer   RunObserver

	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger

	// Location decides which calendar month "now" falls in. Defaults to UTC.
	Location     *time.Location
	Concurrency  int
	MeetingPlace string
}

// SchedulerService generates the current month's meetings for every club and
// enrolls each club's roster into them.
type SchedulerService struct {
	clubs       ClubDirectory
	locker      Locker
	observer    RunObserver
	resolver    *recurrence.Resolver
	provisioner *MeetingProvisioner
	enroller    *AttendanceEnroller
	now         func() time.Time
	concurrency int
	logger      *slog.Logger

	running atomic.Bool
}

// NewSchedulerService wires dependencies for scheduler runs.
func NewSchedulerService(deps SchedulerDependencies) *SchedulerService {
	logger := defaultLogger(deps.Logger)
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.IDGenerator == nil {
		deps.IDGenerator = uuid.NewString
	}
	if deps.Locker == nil {
		deps.Locker = noopLocker{}
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = DefaultConcurrency
	}
	return &SchedulerService{
		clubs:       deps.Clubs,
		locker:      deps.Locker,
		observer:    deps.Observer,
		resolver:    recurrence.NewResolver(deps.Location),
		provisioner: NewMeetingProvisionerWithLogger(deps.Meetings, deps.IDGenerator, deps.MeetingPlace, logger),
		enroller:    NewAttendanceEnrollerWithLogger(deps.Attendance, logger),
		now:         deps.Now,
		concurrency: deps.Concurrency,
		logger:      logger,
	}
}

// Run processes every club for the month containing the injected clock's now.
func (s *SchedulerService) Run(ctx context.Context) (RunReport, error) {
	if s == nil {
		return RunReport{}, fmt.Errorf("SchedulerService is nil")
	}
	return s.RunAt(ctx, s.now())
}

// RunAt processes every club for the month containing now.
//
// Only a failure to list clubs is returned as an error; every per-club problem
// is recorded in the report. Once ctx is done no further club is started, but
// clubs already in progress run to completion. ErrRunInProgress is returned
// when another run of this service has not finished.
func (s *SchedulerService) RunAt(ctx context.Context, now time.Time) (RunReport, error) {
	if s == nil {
		return RunReport{}, fmt.Errorf("SchedulerService is nil")
	}
	if s.clubs == nil {
		return RunReport{}, fmt.Errorf("SchedulerService has no club directory")
	}
	if !s.running.CompareAndSwap(false, true) {
		return RunReport{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	year, month := s.resolver.MonthOf(now)
	report := RunReport{
		RunID:     uuid.NewString(),
		Year:      year,
		Month:     month,
		StartedAt: s.now(),
	}
	logger := serviceLogger(ctx, s.logger, "SchedulerService", "Run",
		"run_id", report.RunID,
		"month", fmt.Sprintf("%04d-%02d", year, int(month)),
	)
	logger.Info("scheduler run started")

	clubs, err := s.clubs.ListClubs(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrClubDirectoryUnavailable, err)
		report.Error = err.Error()
		report.FinishedAt = s.now()
		logger.Error("scheduler run aborted", "error_kind", ErrorKind(err), "error", err)
		s.observe(report)
		return report, err
	}

	report.Clubs = make([]ClubReport, len(clubs))

	var group errgroup.Group
	group.SetLimit(s.concurrency)
	for i, club := range clubs {
		if err := ctx.Err(); err != nil {
			report.Clubs[i] = notDispatched(club, err)
			continue
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				report.Clubs[i] = notDispatched(club, err)
				return nil
			}
			report.Clubs[i] = s.processClub(context.WithoutCancel(ctx), logger, club, year, month)
			return nil
		})
	}
	_ = group.Wait()

	report.FinishedAt = s.now()
	totals := report.Totals()
	logger.Info("scheduler run finished",
		"outcome", report.Outcome(),
		"clubs", len(report.Clubs),
		"dates_resolved", totals.DatesResolved,
		"meetings_created", totals.MeetingsCreated,
		"meetings_reused", totals.MeetingsReused,
		"attendance_created", totals.AttendanceCreated,
		"attendance_existing", totals.AttendanceExisting,
		"failures", len(totals.Failures),
		"duration", report.Duration(),
	)
	s.observe(report)
	return report, nil
}

// Running reports whether a run is executing.
func (s *SchedulerService) Running() bool {
	return s != nil && s.running.Load()
}

func (s *SchedulerService) processClub(ctx context.Context, runLogger *slog.Logger, club Club, year int, month time.Month) ClubReport {
	logger := runLogger.With("club_id", club.ID)
	report := ClubReport{ClubID: club.ID, ClubName: club.Name, Dates: []time.Time{}}

	fail := func(stage Stage, err error) {
		logger.Warn("club stage failed", "stage", string(stage), "error_kind", ErrorKind(err), "error", err)
		report.Failures = append(report.Failures, newStageFailure(club.ID, stage, err))
	}

	weekday, pattern, err := club.Recurrence()
	if err != nil {
		fail(StageResolve, err)
		return report
	}
	dates, err := s.resolver.Resolve(year, month, weekday, pattern)
	if err != nil {
		fail(StageResolve, fmt.Errorf("%w: %w", ErrInvalidClubDefinition, err))
		return report
	}
	report.DatesResolved = len(dates)
	if len(dates) == 0 {
		logger.Debug("no meetings scheduled this month", "policy", recurrence.PolicyFor(month).String())
		return report
	}
	report.Dates = dates

	release, err := s.locker.Acquire(ctx, LockKey(club.ID, year, month))
	if err != nil {
		fail(StageLock, err)
		return report
	}
	defer release()

	provisioned, err := s.provisioner.Provision(ctx, club, dates)
	report.Meetings = provisioned
	for _, p := range provisioned {
		switch p.Outcome {
		case OutcomeCreated:
			report.MeetingsCreated++
		case OutcomeReused:
			report.MeetingsReused++
		}
	}
	if err != nil {
		failure := newStageFailure(club.ID, StageProvision, err)
		var pErr *ProvisionError
		if errors.As(err, &pErr) {
			date := pErr.Date
			failure.Date = &date
		}
		logger.Warn("club stage failed", "stage", string(StageProvision), "error_kind", ErrorKind(err), "error", err)
		report.Failures = append(report.Failures, failure)
		return report
	}

	roster, err := s.clubs.RosterFor(ctx, club.ID)
	if err != nil {
		fail(StageRoster, fmt.Errorf("roster for club %d: %w", club.ID, err))
		return report
	}

	meetings := make([]Meeting, len(provisioned))
	for i, p := range provisioned {
		meetings[i] = p.Meeting
	}

	enrolled, err := s.enroller.Enroll(ctx, roster, meetings)
	report.AttendanceCreated = enrolled.Created
	report.AttendanceExisting = enrolled.Existing
	for _, f := range enrolled.Failures {
		userID := f.UserID
		failure := newStageFailure(club.ID, StageEnroll, f.Err)
		failure.UserID = &userID
		failure.MeetingID = f.MeetingID
		report.Failures = append(report.Failures, failure)
	}
	if err != nil {
		fail(StageEnroll, err)
	}

	logger.Info("club processed",
		"dates_resolved", report.DatesResolved,
		"meetings_created", report.MeetingsCreated,
		"meetings_reused", report.MeetingsReused,
		"attendance_created", report.AttendanceCreated,
		"attendance_existing", report.AttendanceExisting,
		"failures", len(report.Failures),
	)
	return report
}

func (s *SchedulerService) observe(report RunReport) {
	if s.observer != nil {
		s.observer.ObserveRun(report)
	}
}

func notDispatched(club Club, err error) ClubReport {
	return ClubReport{
		ClubID:   club.ID,
		ClubName: club.Name,
		Dates:    []time.Time{},
		Failures: []StageFailure{newStageFailure(club.ID, StageDispatch, fmt.Errorf("club not started: %w", err))},
	}
}
