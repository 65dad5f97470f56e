package database

import (
	"context"
	"testing"
	"testing/fstest"
	"time"
)

// testMigrations holds two migration pairs plus files the loader skips.
var testMigrations = fstest.MapFS{
	"sql/20260101_090000_create_sessions.up.sql": {Data: []byte(`
		CREATE TABLE test_sessions (id TEXT PRIMARY KEY, device_id TEXT NOT NULL);
		CREATE INDEX idx_test_sessions_device ON test_sessions(device_id);
	`)},
	"sql/20260101_090000_create_sessions.down.sql": {Data: []byte(`
		DROP INDEX IF EXISTS idx_test_sessions_device;
		DROP TABLE IF EXISTS test_sessions;
	`)},
	"sql/20260102_090000_add_remote_addr.up.sql":   {Data: []byte(`ALTER TABLE test_sessions ADD COLUMN remote_addr TEXT;`)},
	"sql/20260102_090000_add_remote_addr.down.sql": {Data: []byte(`ALTER TABLE test_sessions DROP COLUMN remote_addr;`)},
	"sql/README.md":      {Data: []byte("not a migration")},
	"sql/notes.sql":      {Data: []byte("SELECT 1;")},
	"sql/archive/x.sql":  {Data: []byte("SELECT 1;")},
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var got string
	err := db.QueryRowContext(context.Background(),
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?", name,
	).Scan(&got)
	return err == nil
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx, testMigrations, "sql"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_sessions") {
		t.Fatal("table test_sessions not created")
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO test_sessions (id, device_id, remote_addr) VALUES (?, ?, ?)",
		"c1", "robot1", "10.0.0.5:4000",
	); err != nil {
		t.Errorf("second migration not applied: %v", err)
	}

	applied, pending, err := db.MigrationStatus(ctx, testMigrations, "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied = %d, want 2", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
	if applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not recorded")
	}

	if err := db.Migrate(ctx, testMigrations, "sql"); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrations, "sql"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if err := db.MigrateDown(ctx, testMigrations, "sql"); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	_, pending, err := db.MigrationStatus(ctx, testMigrations, "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "add_remote_addr" {
		t.Errorf("pending = %+v, want add_remote_addr", pending)
	}

	if err := db.MigrateDown(ctx, testMigrations, "sql"); err != nil {
		t.Fatalf("second MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "test_sessions") {
		t.Error("test_sessions still exists after rolling back everything")
	}

	// Nothing left to roll back.
	if err := db.MigrateDown(ctx, testMigrations, "sql"); err != nil {
		t.Errorf("MigrateDown() with nothing applied error = %v", err)
	}
}

func TestMigrate_NilSource(t *testing.T) {
	db := openTestDB(t)

	if err := db.Migrate(context.Background(), nil, "."); err != nil {
		t.Errorf("Migrate(nil) error = %v", err)
	}
}

func TestMigrate_MissingUp(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"20260101_090000_orphan.down.sql": {Data: []byte("SELECT 1;")},
	}

	if err := db.Migrate(context.Background(), source, "."); err == nil {
		t.Error("Migrate() with only a down file should fail")
	}
}

func TestMigrate_FailureKeepsEarlier(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	source := fstest.MapFS{
		"20260101_090000_good.up.sql": {Data: []byte("CREATE TABLE good (id INTEGER);")},
		"20260102_090000_bad.up.sql":  {Data: []byte("CREATE TABLE ;")},
	}

	if err := db.Migrate(ctx, source, "."); err == nil {
		t.Fatal("Migrate() expected error for bad SQL")
	}
	if !tableExists(t, db, "good") {
		t.Error("earlier migration rolled back")
	}

	applied, pending, err := db.MigrationStatus(ctx, source, ".")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 1 {
		t.Errorf("applied=%d pending=%d, want 1 and 1", len(applied), len(pending))
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			name:        "up migration",
			filename:    "20260118_120000_create_relay_events.up.sql",
			wantVersion: "20260118_120000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			name:        "down migration",
			filename:    "20260118_120000_create_relay_events.down.sql",
			wantVersion: "20260118_120000",
			wantOk:      true,
		},
		{
			name:        "no description",
			filename:    "20260118_120000.up.sql",
			wantVersion: "20260118_120000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{name: "not sql file", filename: "readme.txt"},
		{name: "missing direction", filename: "20260118_120000_create.sql"},
		{name: "no version", filename: "invalid.up.sql"},
		{name: "empty time part", filename: "20260118_.up.sql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion {
				t.Errorf("version = %v, want %v", version, tt.wantVersion)
			}
			if isUp != tt.wantIsUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260118_120000_create_relay_events.up.sql", "create_relay_events"},
		{"20260118_120000_initial_schema.down.sql", "initial_schema"},
		{"20260118_120000.up.sql", "20260118_120000"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
