package store

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"testing"
)

func testRawDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	u := url.URL{Scheme: "file", Path: path}
	db, err := sql.Open("sqlite", u.String())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func latestVersion() int {
	sorted := sortedMigrations()
	return sorted[len(sorted)-1].Version
}

func TestRunMigrationsFreshDB(t *testing.T) {
	db := testRawDB(t)

	if err := runMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	version, err := currentVersion(db)
	if err != nil {
		t.Fatalf("current version: %v", err)
	}
	if version != latestVersion() {
		t.Fatalf("expected version %d, got %d", latestVersion(), version)
	}

	for _, table := range []string{"users", "files", "sessions", "jobs"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count); err != nil {
			t.Fatalf("check %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("%s table not created", table)
		}
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := testRawDB(t)

	if err := runMigrations(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := runMigrations(db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if rows != len(migrations) {
		t.Fatalf("expected %d recorded migrations, got %d", len(migrations), rows)
	}
}

func TestMigrationPlan(t *testing.T) {
	db := testRawDB(t)

	plan, err := MigrationPlan(db)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", plan.Driver)
	}
	if plan.CurrentVersion != 0 {
		t.Fatalf("expected current 0, got %d", plan.CurrentVersion)
	}
	if plan.AvailableVersion != latestVersion() {
		t.Fatalf("expected available %d, got %d", latestVersion(), plan.AvailableVersion)
	}
	if len(plan.Pending) != len(migrations) {
		t.Fatalf("expected %d pending, got %d", len(migrations), len(plan.Pending))
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	plan, err = MigrationPlan(db)
	if err != nil {
		t.Fatalf("plan after run: %v", err)
	}
	if len(plan.Pending) != 0 {
		t.Fatalf("expected no pending migrations, got %d", len(plan.Pending))
	}
}

func TestInspectMigrationsSQLiteDoesNotApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inspect.db")

	plan, err := InspectMigrations(t.Context(), Options{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if plan.CurrentVersion != 0 || len(plan.Pending) != len(migrations) {
		t.Fatalf("unexpected plan: %#v", plan)
	}
}

func TestPostgresMigrationFilesEmbedded(t *testing.T) {
	entries, err := postgresMigrations.ReadDir(postgresMigrationsDir)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) != len(migrations) {
		t.Fatalf("expected %d postgres migrations, got %d", len(migrations), len(entries))
	}
}
