package migration

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(context.Background(), TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db")))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		t.Fatalf("failed to inspect sqlite_master: %v", err)
	}
	return count == 1
}

func TestManager_RunMigrations(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	files := fstest.MapFS{
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE clubs (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"002_add_meetings.sql": {Data: []byte(`
			CREATE TABLE meetings (id TEXT PRIMARY KEY, club_id INTEGER NOT NULL REFERENCES clubs(id));
			CREATE INDEX idx_meetings_club ON meetings(club_id);`)},
	}

	manager := NewManager(NewScanner(files, "."), NewSQLiteExecutor(db), nil)
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	if !tableExists(t, db, "clubs") || !tableExists(t, db, "meetings") {
		t.Fatal("expected migrated tables to exist")
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != "002" {
		t.Errorf("expected current version 002, got %q", status.CurrentVersion)
	}
	if len(status.Pending) != 0 || len(status.Applied) != 2 {
		t.Errorf("unexpected status: %+v", status)
	}

	// A second run is a no-op.
	if err := manager.RunMigrations(ctx); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}
}

func TestManager_RunMigrations_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	files := fstest.MapFS{
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE clubs (id INTEGER PRIMARY KEY);")},
		"002_broken.sql":         {Data: []byte("CREATE TABLE partial (id INTEGER); CREATE TABLE clubs (id INTEGER);")},
	}

	manager := NewManager(NewScanner(files, "."), NewSQLiteExecutor(db), nil)
	err := manager.RunMigrations(ctx)
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}

	if !tableExists(t, db, "clubs") {
		t.Error("expected first migration to stay applied")
	}
	if tableExists(t, db, "partial") {
		t.Error("expected failed migration to be rolled back")
	}

	status, err := manager.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.CurrentVersion != "001" || len(status.Pending) != 1 {
		t.Errorf("unexpected status after failure: %+v", status)
	}
}

func TestManager_Status_DetectsEditedMigration(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	original := fstest.MapFS{
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE clubs (id INTEGER PRIMARY KEY);")},
	}
	if err := NewManager(NewScanner(original, "."), NewSQLiteExecutor(db), nil).RunMigrations(ctx); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	edited := fstest.MapFS{
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE clubs (id INTEGER PRIMARY KEY, name TEXT);")},
	}
	_, err := NewManager(NewScanner(edited, "."), NewSQLiteExecutor(db), nil).Status(ctx)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}

	_, err = NewManager(NewScanner(fstest.MapFS{}, "."), NewSQLiteExecutor(db), nil).Status(ctx)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict for missing file, got %v", err)
	}
}
