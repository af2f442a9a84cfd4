package sitereports

import (
	"context"
	"time"

	"sitereports/internal/model"
)

// Database provides the persistence operations the service layer depends on.
// Implementations report a missing record with ErrNotFound and wrap driver
// failures in a *StorageError.
type Database interface {
	// Report operations

	// CreateReport inserts the report with its issues and devices and returns the new ID.
	CreateReport(ctx context.Context, report *model.Report) (int64, error)

	// GetReport returns a report with its issues and devices.
	GetReport(ctx context.Context, id int64) (*model.Report, error)

	// ListReports returns every report matching the filter exactly once, newest first.
	ListReports(ctx context.Context, filter model.ListFilter) ([]*model.ReportSummary, error)

	// UpdateReport applies the patch to an existing report in one transaction.
	UpdateReport(ctx context.Context, id int64, patch *model.ReportPatch, updatedAt time.Time) error

	// DeleteReport removes a report together with its issues and devices.
	DeleteReport(ctx context.Context, id int64) error

	// DeviceStats counts devices, and broken devices, across the reports matching filter.
	DeviceStats(ctx context.Context, filter model.ListFilter) (total int, broken int, err error)

	// User operations

	// CreateUser inserts a user. A taken username yields ErrUsernameTaken.
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)

	// FindUserByUsername returns the user or ErrNotFound.
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int, error)

	// Session operations

	// CreateSession stores a new session.
	CreateSession(ctx context.Context, session *model.Session) error

	// GetSession returns the session with its username, or ErrNotFound.
	GetSession(ctx context.Context, token string) (*model.Session, error)

	// DeleteSession removes a session. Deleting an unknown token is not an error.
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions removes sessions that expired before now.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Backup operation tracking

	// CreateBackupOperation records the start of a backup run.
	CreateBackupOperation(ctx context.Context, vault string, startedAt time.Time) (*model.BackupOperation, error)

	// FinishBackupOperation records the outcome of a backup run.
	FinishBackupOperation(ctx context.Context, op *model.BackupOperation) error

	// ListBackupOperations returns the most recent backup runs, newest first.
	ListBackupOperations(ctx context.Context, limit int) ([]*model.BackupOperation, error)

	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(ctx context.Context, destPath string) error

	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
