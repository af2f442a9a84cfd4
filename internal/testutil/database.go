package testutil

import (
	"path/filepath"
	"testing"

	"sitereports/internal/database"
)

// NewTestDatabase creates a new in-memory SQLite database with all migrations applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	return openMigrated(t, database.MemoryPath)
}

// NewFileDatabase is NewTestDatabase backed by a file in a temp directory,
// for tests that need VACUUM INTO or a second connection.
func NewFileDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()
	return openMigrated(t, filepath.Join(t.TempDir(), database.FileName))
}

func openMigrated(t *testing.T, path string) *database.SQLiteDatabase {
	t.Helper()

	db, err := database.NewSQLiteDatabase(path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}
	return db
}
