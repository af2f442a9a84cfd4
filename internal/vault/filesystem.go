package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sitereports/internal/sitereports"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// It stores snapshots as files in a directory structure:
//
//	<root>/
//	  snapshots/
//	    <instanceID>.db       (latest encrypted snapshot)
//	    <instanceID>.version  (version of that snapshot)
type FileSystemVault struct {
	name        string
	root        string
	snapshotDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		snapshotDir: snapshotDir,
	}, nil
}

func (v *FileSystemVault) Name() string {
	return v.name
}

// PutSnapshot stores the snapshot and then its version marker. The snapshot
// file is replaced atomically, so a reader never sees a partial snapshot.
func (v *FileSystemVault) PutSnapshot(ctx context.Context, instanceID string, r io.Reader, size int64, version int64) error {
	base, err := v.basePath(instanceID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeFileAtomic(base+".db", r, size); err != nil {
		return err
	}

	versionData := strconv.FormatInt(version, 10)
	return writeFileAtomic(base+".version", strings.NewReader(versionData), int64(len(versionData)))
}

// GetSnapshot writes the stored snapshot for instanceID to w.
func (v *FileSystemVault) GetSnapshot(ctx context.Context, instanceID string, w io.Writer) error {
	base, err := v.basePath(instanceID)
	if err != nil {
		return err
	}

	f, err := os.Open(base + ".db")
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: instance %s", ErrSnapshotNotFound, instanceID)
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// GetSnapshotVersion returns 0 if no version file exists.
func (v *FileSystemVault) GetSnapshotVersion(ctx context.Context, instanceID string) (int64, error) {
	base, err := v.basePath(instanceID)
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(base + ".version")
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault directories exist.
func (v *FileSystemVault) ValidateSetup(ctx context.Context) error {
	for _, dir := range []string{v.root, v.snapshotDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// basePath returns the snapshot path without extension. Instance IDs that
// would escape the snapshot directory are rejected.
func (v *FileSystemVault) basePath(instanceID string) (string, error) {
	if instanceID == "" || instanceID != filepath.Base(instanceID) || strings.HasPrefix(instanceID, ".") {
		return "", fmt.Errorf("invalid instance id: %q", instanceID)
	}
	return filepath.Join(v.snapshotDir, instanceID), nil
}

// writeFileAtomic writes r to destPath through a temp file and a rename.
func writeFileAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemVault implements sitereports.Vault interface
var _ sitereports.Vault = (*FileSystemVault)(nil)
