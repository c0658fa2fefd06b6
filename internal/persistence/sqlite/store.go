// Package sqlite implements the persistence repositories on top of SQLite
// using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/meeting-scheduler/internal/persistence"
	"github.com/example/meeting-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store implements persistence.Store on a single SQLite database.
type Store struct {
	*ClubRepository
	*MeetingRepository
	*AttendanceRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	logger *slog.Logger
	now    func() time.Time
	retry  RetryConfig
}

// WithLogger sets the logger used while migrating.
func WithLogger(logger *slog.Logger) Option {
	return func(o *storeOptions) { o.logger = logger }
}

// WithClock overrides the clock used to stamp created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// WithRetryConfig overrides the busy retry policy.
func WithRetryConfig(config RetryConfig) Option {
	return func(o *storeOptions) { o.retry = config }
}

// Open connects to the database described by config and applies pending migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, opts ...Option) (*Store, error) {
	options := buildOptions(opts)

	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, pool.DB(), options.logger); err != nil {
		pool.Close()
		return nil, err
	}

	return newStore(pool, options), nil
}

// NewStoreFromDB builds a Store on an existing handle without migrating it.
func NewStoreFromDB(db *sql.DB, opts ...Option) *Store {
	return newStore(NewConnectionPoolFromDB(db), buildOptions(opts))
}

// Migrate applies the embedded schema migrations to db.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	manager := migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(db),
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

func buildOptions(opts []Option) storeOptions {
	options := storeOptions{
		now:   func() time.Time { return time.Now().UTC() },
		retry: DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func newStore(pool *ConnectionPool, options storeOptions) *Store {
	base := repositoryBase{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(options.retry),
		now:    options.now,
	}
	return &Store{
		ClubRepository:       &ClubRepository{repositoryBase: base},
		MeetingRepository:    &MeetingRepository{repositoryBase: base},
		AttendanceRepository: &AttendanceRepository{repositoryBase: base},
		pool:                 pool,
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// repositoryBase carries the helpers shared by every repository.
type repositoryBase struct {
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
	now    func() time.Time
}

func (b repositoryBase) timestamp() time.Time {
	return b.now().UTC()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(persistence.DateLayout)
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(persistence.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse date %q: %w", value, err)
	}
	return t, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPointer(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func nullableInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func int64Pointer(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
