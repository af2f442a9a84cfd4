package sitereports

import (
	"context"
	"io"
)

// Vault stores encrypted database snapshots away from the instance directory.
// Snapshots are keyed by instance ID; storing a new one replaces the previous.
type Vault interface {
	// Name identifies the vault in logs and backup history.
	Name() string

	// PutSnapshot stores the snapshot for instanceID.
	// size is the number of bytes that will be read from r.
	// version is stored alongside the snapshot for consistency checks.
	PutSnapshot(ctx context.Context, instanceID string, r io.Reader, size int64, version int64) error

	// GetSnapshot retrieves the snapshot for instanceID and writes it to w.
	GetSnapshot(ctx context.Context, instanceID string, w io.Writer) error

	// GetSnapshotVersion returns the stored snapshot version.
	// Returns 0 if no snapshot has been stored for instanceID.
	GetSnapshotVersion(ctx context.Context, instanceID string) (int64, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup(ctx context.Context) error
}
