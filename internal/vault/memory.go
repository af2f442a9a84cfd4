package vault

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"sitereports/internal/sitereports"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It keeps the latest snapshot per instance, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	name      string
	snapshots map[string][]byte // instanceID -> encrypted snapshot
	versions  map[string]int64  // instanceID -> version
	mu        sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:      name,
		snapshots: make(map[string][]byte),
		versions:  make(map[string]int64),
	}
}

func (m *MemoryVault) Name() string {
	return m.name
}

// PutSnapshot replaces the snapshot stored for instanceID.
func (m *MemoryVault) PutSnapshot(ctx context.Context, instanceID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[instanceID] = data
	m.versions[instanceID] = version
	return nil
}

// GetSnapshot writes the stored snapshot for instanceID to w.
func (m *MemoryVault) GetSnapshot(ctx context.Context, instanceID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.snapshots[instanceID]
	if !ok {
		return fmt.Errorf("%w: instance %s", ErrSnapshotNotFound, instanceID)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// GetSnapshotVersion returns 0 if nothing has been stored for instanceID.
func (m *MemoryVault) GetSnapshotVersion(ctx context.Context, instanceID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[instanceID], nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup(ctx context.Context) error {
	return nil
}

// Compile-time check that MemoryVault implements sitereports.Vault interface
var _ sitereports.Vault = (*MemoryVault)(nil)
