package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/meeting-scheduler/internal/persistence"
	"github.com/example/meeting-scheduler/internal/persistence/memory"
	"github.com/example/meeting-scheduler/internal/persistence/sqlite"
	"github.com/example/meeting-scheduler/internal/persistence/sqlite/migration"
)

// SQLiteHarness owns a migrated SQLite store in a temporary file.
type SQLiteHarness struct {
	Store *sqlite.Store
	Path  string

	cleanup func()
}

// Close releases the database. It is also registered with tb.Cleanup.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a fresh database under tb.TempDir.
// The store is stamped with clock when one is given.
func NewSQLiteHarness(tb testing.TB, clock *Clock) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "meetings.db")

	var opts []sqlite.Option
	if clock != nil {
		opts = append(opts, sqlite.WithClock(clock.NowFunc()))
	}
	store, err := sqlite.Open(context.Background(), migration.TempFileTestSQLiteConfig(path), opts...)
	if err != nil {
		tb.Fatalf("failed to open sqlite store: %v", err)
	}

	harness := &SQLiteHarness{
		Store: store,
		Path:  path,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// NewMemoryStore returns an empty in-memory store using clock for timestamps.
func NewMemoryStore(clock *Clock) *memory.Store {
	return memory.New(clock.NowFunc())
}

// StoreFactory builds an empty store for a test.
type StoreFactory func(tb testing.TB, clock *Clock) persistence.Store

// Backends lists every store implementation that runs without external services.
func Backends() map[string]StoreFactory {
	return map[string]StoreFactory{
		"memory": func(_ testing.TB, clock *Clock) persistence.Store {
			return NewMemoryStore(clock)
		},
		"sqlite": func(tb testing.TB, clock *Clock) persistence.Store {
			return NewSQLiteHarness(tb, clock).Store
		},
	}
}
