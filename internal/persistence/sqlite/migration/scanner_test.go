package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestFSScanner_ScanMigrations(t *testing.T) {
	tests := []struct {
		name          string
		files         fstest.MapFS
		expectedOrder []string
		expectedErr   error
	}{
		{
			name: "orders by numeric version",
			files: fstest.MapFS{
				"migrations/010_add_index.sql":      {Data: []byte("CREATE INDEX idx ON clubs(name);")},
				"migrations/001_initial_schema.sql": {Data: []byte("CREATE TABLE clubs (id INTEGER PRIMARY KEY);")},
				"migrations/002_add_meetings.sql":   {Data: []byte("CREATE TABLE meetings (id TEXT PRIMARY KEY);")},
			},
			expectedOrder: []string{"001", "002", "010"},
		},
		{
			name: "ignores non sql files",
			files: fstest.MapFS{
				"migrations/001_initial_schema.sql": {Data: []byte("CREATE TABLE clubs (id INTEGER PRIMARY KEY);")},
				"migrations/README.md":              {Data: []byte("# notes")},
			},
			expectedOrder: []string{"001"},
		},
		{
			name: "rejects bad file names",
			files: fstest.MapFS{
				"migrations/initial.sql": {Data: []byte("CREATE TABLE clubs (id INTEGER PRIMARY KEY);")},
			},
			expectedErr: ErrInvalidMigrationFile,
		},
		{
			name: "rejects comment only files",
			files: fstest.MapFS{
				"migrations/001_empty.sql": {Data: []byte("-- nothing here\n")},
			},
			expectedErr: ErrInvalidMigrationFile,
		},
		{
			name: "rejects duplicate versions",
			files: fstest.MapFS{
				"migrations/001_initial_schema.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
				"migrations/1_other.sql":            {Data: []byte("CREATE TABLE b (id INTEGER);")},
			},
			expectedErr: ErrDuplicateVersion,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			migrations, err := NewScanner(tc.files, "migrations").ScanMigrations()
			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScanMigrations failed: %v", err)
			}
			if len(migrations) != len(tc.expectedOrder) {
				t.Fatalf("expected %d migrations, got %d", len(tc.expectedOrder), len(migrations))
			}
			for i, version := range tc.expectedOrder {
				if migrations[i].Version != version {
					t.Errorf("position %d: expected version %s, got %s", i, version, migrations[i].Version)
				}
				if migrations[i].Checksum == "" {
					t.Errorf("migration %s has no checksum", migrations[i].Version)
				}
			}
		})
	}
}

func TestFSScanner_Description(t *testing.T) {
	files := fstest.MapFS{
		"001_initial_schema.sql": {Data: []byte("-- Description: Club tables\nCREATE TABLE clubs (id INTEGER);")},
		"002_add_meetings.sql":   {Data: []byte("CREATE TABLE meetings (id TEXT);")},
	}

	migrations, err := NewScanner(files, "").ScanMigrations()
	if err != nil {
		t.Fatalf("ScanMigrations failed: %v", err)
	}
	if migrations[0].Description != "Club tables" {
		t.Errorf("expected description from content, got %q", migrations[0].Description)
	}
	if migrations[1].Description != "add meetings" {
		t.Errorf("expected description from file name, got %q", migrations[1].Description)
	}
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- leading comment
CREATE TABLE a (id INTEGER);

-- between
CREATE TABLE b (id INTEGER);
`
	statements := splitStatements(sql)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(statements), statements)
	}
	if statements[0] != "CREATE TABLE a (id INTEGER)" {
		t.Errorf("unexpected first statement %q", statements[0])
	}
}
