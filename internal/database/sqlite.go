package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sitereports/internal/database/migrations"
	"sitereports/internal/model"
	"sitereports/internal/sitereports"

	"github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteDatabase implements the sitereports.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{
		db:   db,
		path: path,
	}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens a SQLite database with foreign keys enforced.
// File databases also get a busy timeout and WAL journaling. An in-memory
// database is limited to a single connection since every new connection
// would otherwise see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// The connection options go in the DSN so that every pooled connection gets them.
func dataSourceName(path string) string {
	if path == MemoryPath {
		return "file::memory:?_foreign_keys=on"
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp brings the schema to the latest version.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// SchemaStatus reports the current and latest schema versions.
func (s *SQLiteDatabase) SchemaStatus() (*migrations.Status, error) {
	return migrations.ReadStatus(s.db)
}

// Ping verifies the database answers.
func (s *SQLiteDatabase) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(ctx context.Context, destPath string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return storageErr("backup database", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Backup operation tracking

func (s *SQLiteDatabase) CreateBackupOperation(ctx context.Context, vault string, startedAt time.Time) (*model.BackupOperation, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO backup_operations (started_at, status, vault) VALUES (?, ?, ?)`,
		startedAt.UTC(), sitereports.BackupRunning, vault)
	if err != nil {
		return nil, storageErr("create backup operation", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("create backup operation", err)
	}

	return &model.BackupOperation{
		ID:        id,
		StartedAt: startedAt,
		Status:    sitereports.BackupRunning,
		Vault:     vault,
	}, nil
}

func (s *SQLiteDatabase) FinishBackupOperation(ctx context.Context, op *model.BackupOperation) error {
	var finishedAt sql.NullTime
	if op.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: op.FinishedAt.UTC(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE backup_operations SET finished_at = ?, status = ?, object_key = ?, size = ? WHERE id = ?`,
		finishedAt, op.Status, op.ObjectKey, op.Size, op.ID)
	if err != nil {
		return storageErr("finish backup operation", err)
	}
	return requireAffected(res, "finish backup operation")
}

func (s *SQLiteDatabase) ListBackupOperations(ctx context.Context, limit int) ([]*model.BackupOperation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, vault, object_key, size
		 FROM backup_operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("list backup operations", err)
	}
	defer rows.Close()

	var ops []*model.BackupOperation
	for rows.Next() {
		op := &model.BackupOperation{}
		var finishedAt sql.NullTime
		if err := rows.Scan(&op.ID, &op.StartedAt, &finishedAt, &op.Status, &op.Vault, &op.ObjectKey, &op.Size); err != nil {
			return nil, storageErr("list backup operations", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			op.FinishedAt = &t
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list backup operations", err)
	}
	return ops, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func storageErr(op string, err error) error {
	return &sitereports.StorageError{Op: op, Err: err}
}

// requireAffected turns an UPDATE or DELETE that matched no row into ErrNotFound.
func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return sitereports.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Compile-time check that SQLiteDatabase implements sitereports.Database interface
var _ sitereports.Database = (*SQLiteDatabase)(nil)
