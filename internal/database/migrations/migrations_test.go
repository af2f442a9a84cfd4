package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tables := []string{"reports", "issues", "devices", "users", "sessions", "backup_operations", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if !errors.Is(err, ErrNoSchema) {
		t.Errorf("CheckDBMigrationStatus() error = %v, want %v", err, ErrNoSchema)
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestReadStatus(t *testing.T) {
	db := openTestDB(t)

	latest, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if latest != 4 {
		t.Errorf("LatestVersion() = %d, want 4", latest)
	}

	st, err := ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if st.Current != 0 || st.Latest != latest {
		t.Errorf("ReadStatus() = %+v, want current 0 latest %d", st, latest)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	st, err = ReadStatus(db)
	if err != nil {
		t.Fatalf("ReadStatus() error = %v", err)
	}
	if st.Current != latest || st.Dirty {
		t.Errorf("ReadStatus() = %+v, want current %d, clean", st, latest)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Issue pointing at a report that does not exist
	_, err := db.Exec(`INSERT INTO issues (report_id, issue_title) VALUES (42, 'Orphan')`)
	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_DeleteReportCascades(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	res, err := db.Exec(`INSERT INTO reports (site_name, report_type, created_at, updated_at)
		VALUES ('Site A', 'Weekly', datetime('now'), datetime('now'))`)
	if err != nil {
		t.Fatalf("Failed to insert report: %v", err)
	}
	id, _ := res.LastInsertId()

	if _, err := db.Exec(`INSERT INTO issues (report_id, issue_title) VALUES (?, 'UPS beeping')`, id); err != nil {
		t.Fatalf("Failed to insert issue: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO devices (report_id, device_name) VALUES (?, 'Core switch')`, id); err != nil {
		t.Fatalf("Failed to insert device: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM reports WHERE id = ?`, id); err != nil {
		t.Fatalf("Failed to delete report: %v", err)
	}

	for _, table := range []string{"issues", "devices"} {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s rows after report delete = %d, want 0", table, n)
		}
	}
}

func TestSchema_UsernameUnique(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	_, err := db.Exec("INSERT INTO users (username, password, created_at) VALUES ('alice', 'x', datetime('now'))")
	if err != nil {
		t.Fatalf("Failed to insert first user: %v", err)
	}

	_, err = db.Exec("INSERT INTO users (username, password, created_at) VALUES ('alice', 'y', datetime('now'))")
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate username, but insert succeeded")
	}
}

// openTestDB opens an in-memory SQLite database with foreign keys on.
// The pool is pinned to one connection so every statement sees the same database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}
