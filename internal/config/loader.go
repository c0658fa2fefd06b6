package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/meeting-scheduler/internal/scheduler"
)

// Storage drivers accepted by SCHEDULER_STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config captures environment driven configuration values for the scheduler service.
type Config struct {
	HTTPPort int

	StorageDriver string
	SQLiteDSN     string
	PostgresDSN   string

	Location     *time.Location
	CronSpec     string
	Concurrency  int
	RunTimeout   time.Duration
	MeetingPlace string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	TriggerTokenHash string

	LogLevel  slog.Level
	LogFormat string
}

// CronEnabled reports whether the cron trigger should be started.
func (c Config) CronEnabled() bool {
	return c.CronSpec != ""
}

// RedisEnabled reports whether advisory locks go through Redis.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// LoadDotEnv loads variables from the given files (".env" when none are named)
// without overriding values already present in the environment. Missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults. Every missing or invalid key is
// collected so a single error names all of them.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:      8080,
		StorageDriver: DriverSQLite,
		SQLiteDSN:     "scheduler.db",
		Location:      time.UTC,
		CronSpec:      scheduler.DefaultSpec,
		Concurrency:   4,
		RunTimeout:    5 * time.Minute,
		MeetingPlace:  "placeholder",
		LockTTL:       2 * time.Minute,
		LogLevel:      slog.LevelInfo,
		LogFormat:     "json",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if port, ok, err := positiveInt("SCHEDULER_HTTP_PORT"); err != nil {
		invalid = append(invalid, "SCHEDULER_HTTP_PORT")
	} else if ok {
		cfg.HTTPPort = port
	}

	if driver := strings.ToLower(env("SCHEDULER_STORAGE_DRIVER")); driver != "" {
		switch driver {
		case DriverSQLite, DriverPostgres, DriverMemory:
			cfg.StorageDriver = driver
		default:
			invalid = append(invalid, "SCHEDULER_STORAGE_DRIVER")
		}
	}

	if dsn := env("SCHEDULER_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	cfg.PostgresDSN = env("SCHEDULER_POSTGRES_DSN")
	if cfg.StorageDriver == DriverPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "SCHEDULER_POSTGRES_DSN")
	}

	if tz := env("SCHEDULER_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	// Present but empty disables the cron trigger.
	if spec, ok := os.LookupEnv("SCHEDULER_CRON"); ok {
		spec = strings.TrimSpace(spec)
		if spec != "" {
			if _, err := scheduler.ParseSpec(spec); err != nil {
				invalid = append(invalid, "SCHEDULER_CRON")
			}
		}
		cfg.CronSpec = spec
	}

	if n, ok, err := positiveInt("SCHEDULER_CONCURRENCY"); err != nil {
		invalid = append(invalid, "SCHEDULER_CONCURRENCY")
	} else if ok {
		cfg.Concurrency = n
	}

	if d, ok, err := positiveDuration("SCHEDULER_RUN_TIMEOUT"); err != nil {
		invalid = append(invalid, "SCHEDULER_RUN_TIMEOUT")
	} else if ok {
		cfg.RunTimeout = d
	}

	if place := env("SCHEDULER_MEETING_PLACE"); place != "" {
		cfg.MeetingPlace = place
	}

	cfg.RedisAddr = env("SCHEDULER_REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("SCHEDULER_REDIS_PASSWORD")
	if raw := env("SCHEDULER_REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			invalid = append(invalid, "SCHEDULER_REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}
	if d, ok, err := positiveDuration("SCHEDULER_LOCK_TTL"); err != nil {
		invalid = append(invalid, "SCHEDULER_LOCK_TTL")
	} else if ok {
		cfg.LockTTL = d
	}

	cfg.TriggerTokenHash = env("SCHEDULER_TRIGGER_TOKEN_HASH")

	if raw := env("SCHEDULER_LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
		}
	}
	if format := strings.ToLower(env("SCHEDULER_LOG_FORMAT")); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, "SCHEDULER_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func positiveInt(key string) (int, bool, error) {
	raw := env(key)
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	if n <= 0 {
		return 0, false, fmt.Errorf("%s must be positive", key)
	}
	return n, true, nil
}

func positiveDuration(key string) (time.Duration, bool, error) {
	raw := env(key)
	if raw == "" {
		return 0, false, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, err
	}
	if d <= 0 {
		return 0, false, fmt.Errorf("%s must be positive", key)
	}
	return d, true, nil
}
