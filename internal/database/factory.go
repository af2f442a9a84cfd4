package database

import (
	"fmt"
	"os"
	"path/filepath"

	"sitereports/internal/config"
)

// FileName is the database file created inside the instance directory.
const FileName = "site_reports.db"

// NewDatabaseFromConfig creates a SQLiteDatabase based on the database config type.
// The instance directory is created when missing.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.InstanceDir == "" {
			return nil, fmt.Errorf("instance_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.InstanceDir, 0755); err != nil {
			return nil, fmt.Errorf("creating instance directory: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.InstanceDir, FileName))
	case "memory":
		return NewSQLiteDatabase(MemoryPath)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
