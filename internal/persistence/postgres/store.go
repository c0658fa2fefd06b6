// Package postgres implements the persistence repositories on PostgreSQL with GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/example/meeting-scheduler/internal/persistence"
)

// Store implements persistence.Store on a GORM connection.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ persistence.Store = (*Store)(nil)

// Config holds the connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Logger          *slog.Logger
}

// Open connects to PostgreSQL, applies the schema and returns a Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, errors.New("postgres: dsn is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), gormConfig(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	store := New(db, nil)
	if err := store.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing GORM handle. A nil clock uses time.Now.
func New(db *gorm.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

func gormConfig(log *slog.Logger) *gorm.Config {
	if log == nil {
		log = slog.Default()
	}
	return &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger: logger.New(
			slog.NewLogLogger(log.With("component", "gorm").Handler(), slog.LevelWarn),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				ParameterizedQueries:      true,
			},
		),
	}
}

// Migrate creates or updates the tables.
func (s *Store) Migrate(ctx context.Context) error {
	err := s.db.WithContext(ctx).AutoMigrate(
		&clubRecord{},
		&membershipRecord{},
		&meetingRecord{},
		&attendanceRecord{},
	)
	if err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return persistence.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

// --- ClubRepository implementation ---

// CreateClub inserts a club and returns it with its assigned ID.
func (s *Store) CreateClub(ctx context.Context, club persistence.Club) (persistence.Club, error) {
	if strings.TrimSpace(club.Name) == "" {
		return persistence.Club{}, fmt.Errorf("%w: club name is required", persistence.ErrConstraintViolation)
	}
	if club.CreatedAt.IsZero() {
		club.CreatedAt = s.timestamp()
	}
	if club.UpdatedAt.IsZero() {
		club.UpdatedAt = club.CreatedAt
	}

	record := toClubRecord(club)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return persistence.Club{}, mapError(err)
	}
	return record.toDomain(), nil
}

// GetClub retrieves a club by ID.
func (s *Store) GetClub(ctx context.Context, id int64) (persistence.Club, error) {
	var record clubRecord
	if err := s.db.WithContext(ctx).Take(&record, "id = ?", id).Error; err != nil {
		return persistence.Club{}, mapError(err)
	}
	return record.toDomain(), nil
}

// ListClubs returns every club ordered by ID.
func (s *Store) ListClubs(ctx context.Context) ([]persistence.Club, error) {
	var records []clubRecord
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, mapError(err)
	}
	clubs := make([]persistence.Club, len(records))
	for i, record := range records {
		clubs[i] = record.toDomain()
	}
	return clubs, nil
}

// AddMembership adds a user to a club roster.
func (s *Store) AddMembership(ctx context.Context, membership persistence.Membership) error {
	if membership.JoinDate.IsZero() {
		membership.JoinDate = s.timestamp()
	}
	record := membershipRecord{
		UserID:   membership.UserID,
		ClubID:   membership.ClubID,
		JoinDate: persistence.CalendarDate(membership.JoinDate),
	}
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error)
}

// ListMemberships returns the roster ordered by join date then user.
func (s *Store) ListMemberships(ctx context.Context, clubID int64) ([]persistence.Membership, error) {
	var records []membershipRecord
	err := s.db.WithContext(ctx).
		Where("club_id = ?", clubID).
		Order("join_date ASC, user_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, mapError(err)
	}
	memberships := make([]persistence.Membership, len(records))
	for i, record := range records {
		memberships[i] = persistence.Membership{
			UserID:   record.UserID,
			ClubID:   record.ClubID,
			JoinDate: persistence.CalendarDate(record.JoinDate),
		}
	}
	return memberships, nil
}

// --- MeetingRepository implementation ---

// CreateMeeting inserts a meeting; the unique index on (club_id, meeting_date)
// turns a second meeting for the same date into persistence.ErrDuplicate.
func (s *Store) CreateMeeting(ctx context.Context, meeting persistence.Meeting) error {
	if meeting.ID == "" || meeting.ClubID == 0 || meeting.Date.IsZero() {
		return fmt.Errorf("%w: meeting id, club and date are required", persistence.ErrConstraintViolation)
	}
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = s.timestamp()
	}
	if meeting.UpdatedAt.IsZero() {
		meeting.UpdatedAt = meeting.CreatedAt
	}

	record := toMeetingRecord(meeting)
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(&record).Error)
}

// GetMeeting retrieves a meeting by ID.
func (s *Store) GetMeeting(ctx context.Context, id string) (persistence.Meeting, error) {
	var record meetingRecord
	if err := s.db.WithContext(ctx).Take(&record, "id = ?", id).Error; err != nil {
		return persistence.Meeting{}, mapError(err)
	}
	return record.toDomain(), nil
}

// FindMeetingByClubAndDate returns the club's meeting on that calendar date.
func (s *Store) FindMeetingByClubAndDate(ctx context.Context, clubID int64, date time.Time) (persistence.Meeting, error) {
	var record meetingRecord
	err := s.db.WithContext(ctx).
		Where("club_id = ? AND meeting_date = ?", clubID, persistence.CalendarDate(date)).
		Take(&record).Error
	if err != nil {
		return persistence.Meeting{}, mapError(err)
	}
	return record.toDomain(), nil
}

// ListMeetingsForClub returns meetings on or after from, earliest first.
func (s *Store) ListMeetingsForClub(ctx context.Context, clubID int64, from time.Time) ([]persistence.Meeting, error) {
	var records []meetingRecord
	err := s.db.WithContext(ctx).
		Where("club_id = ? AND meeting_date >= ?", clubID, persistence.CalendarDate(from)).
		Order("meeting_date ASC, meeting_time ASC").
		Find(&records).Error
	if err != nil {
		return nil, mapError(err)
	}
	meetings := make([]persistence.Meeting, len(records))
	for i, record := range records {
		meetings[i] = record.toDomain()
	}
	return meetings, nil
}

// --- AttendanceRepository implementation ---

// UpsertAttendance inserts with ON CONFLICT DO NOTHING so existing rows keep
// their flags. created is false when the row was already present.
func (s *Store) UpsertAttendance(ctx context.Context, attendance persistence.Attendance) (bool, error) {
	if attendance.MeetingID == "" {
		return false, fmt.Errorf("%w: meeting id is required", persistence.ErrConstraintViolation)
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = s.timestamp()
	}

	record := attendanceRecord{
		UserID:    attendance.UserID,
		MeetingID: attendance.MeetingID,
		Attended:  attendance.Attended,
		Confirmed: attendance.Confirmed,
		CreatedAt: attendance.CreatedAt,
	}
	result := s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record)
	if result.Error != nil {
		return false, mapError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// GetAttendance retrieves the record for a user and meeting.
func (s *Store) GetAttendance(ctx context.Context, userID int64, meetingID string) (persistence.Attendance, error) {
	var record attendanceRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND meeting_id = ?", userID, meetingID).
		Take(&record).Error
	if err != nil {
		return persistence.Attendance{}, mapError(err)
	}
	return record.toDomain(), nil
}

// ListAttendanceForMeeting returns a meeting's records ordered by user.
func (s *Store) ListAttendanceForMeeting(ctx context.Context, meetingID string) ([]persistence.Attendance, error) {
	var records []attendanceRecord
	err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("user_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]persistence.Attendance, len(records))
	for i, record := range records {
		out[i] = record.toDomain()
	}
	return out, nil
}

// SetAttendance updates the flags of an existing record.
func (s *Store) SetAttendance(ctx context.Context, attendance persistence.Attendance) error {
	result := s.db.WithContext(ctx).
		Model(&attendanceRecord{}).
		Where("user_id = ? AND meeting_id = ?", attendance.UserID, attendance.MeetingID).
		Updates(map[string]any{
			"attended":  attendance.Attended,
			"confirmed": attendance.Confirmed,
		})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
