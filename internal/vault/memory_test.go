package vault

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryVault_PutAndGetSnapshot(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{"small snapshot", "encrypted-bytes"},
		{"empty snapshot", ""},
		{"large snapshot", strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vault := NewMemoryVault("test-vault")

			if err := vault.PutSnapshot(ctx, "inst-1", strings.NewReader(tt.content), int64(len(tt.content)), 3); err != nil {
				t.Fatalf("PutSnapshot() error = %v", err)
			}

			var buf bytes.Buffer
			if err := vault.GetSnapshot(ctx, "inst-1", &buf); err != nil {
				t.Fatalf("GetSnapshot() error = %v", err)
			}
			if got := buf.String(); got != tt.content {
				t.Errorf("GetSnapshot() = %d bytes, want %d", len(got), len(tt.content))
			}

			version, err := vault.GetSnapshotVersion(ctx, "inst-1")
			if err != nil {
				t.Fatalf("GetSnapshotVersion() error = %v", err)
			}
			if version != 3 {
				t.Errorf("GetSnapshotVersion() = %d, want 3", version)
			}
		})
	}
}

func TestMemoryVault_PutSnapshotReplaces(t *testing.T) {
	ctx := context.Background()
	vault := NewMemoryVault("test-vault")

	if err := vault.PutSnapshot(ctx, "inst-1", strings.NewReader("first"), 5, 1); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	if err := vault.PutSnapshot(ctx, "inst-1", strings.NewReader("second"), 6, 2); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := vault.GetSnapshot(ctx, "inst-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != "second" {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), "second")
	}

	version, _ := vault.GetSnapshotVersion(ctx, "inst-1")
	if version != 2 {
		t.Errorf("GetSnapshotVersion() = %d, want 2", version)
	}
}

func TestMemoryVault_GetSnapshotNotFound(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	var buf bytes.Buffer
	err := vault.GetSnapshot(context.Background(), "missing", &buf)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("GetSnapshot() error = %v, want ErrSnapshotNotFound", err)
	}

	version, err := vault.GetSnapshotVersion(context.Background(), "missing")
	if err != nil || version != 0 {
		t.Errorf("GetSnapshotVersion() = %d, %v, want 0, nil", version, err)
	}
}

func TestMemoryVault_PutSnapshotSizeMismatch(t *testing.T) {
	vault := NewMemoryVault("test-vault")

	err := vault.PutSnapshot(context.Background(), "inst-1", strings.NewReader("hello"), 100, 1)
	if err == nil {
		t.Error("PutSnapshot() expected error for size mismatch, got nil")
	}
}

func TestMemoryVault_NameAndValidateSetup(t *testing.T) {
	vault := NewMemoryVault("mem")

	if vault.Name() != "mem" {
		t.Errorf("Name() = %q, want %q", vault.Name(), "mem")
	}
	if err := vault.ValidateSetup(context.Background()); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}
