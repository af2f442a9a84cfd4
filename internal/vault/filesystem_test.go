package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemVault(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")

	v, err := NewFileSystemVault("fs", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	if info, err := os.Stat(filepath.Join(root, "snapshots")); err != nil || !info.IsDir() {
		t.Errorf("snapshots directory not created: %v", err)
	}
	if err := v.ValidateSetup(context.Background()); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}

func TestFileSystemVault_PutAndGetSnapshot(t *testing.T) {
	ctx := context.Background()
	v, err := NewFileSystemVault("fs", t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}

	content := "encrypted snapshot"
	if err := v.PutSnapshot(ctx, "inst-1", strings.NewReader(content), int64(len(content)), 7); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot(ctx, "inst-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != content {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), content)
	}

	version, err := v.GetSnapshotVersion(ctx, "inst-1")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 7 {
		t.Errorf("GetSnapshotVersion() = %d, want 7", version)
	}
}

func TestFileSystemVault_PutSnapshot_Overwrites(t *testing.T) {
	ctx := context.Background()
	v, _ := NewFileSystemVault("fs", t.TempDir())

	if err := v.PutSnapshot(ctx, "inst-1", strings.NewReader("v1"), 2, 1); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}
	if err := v.PutSnapshot(ctx, "inst-1", strings.NewReader("v2-data"), 7, 2); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot(ctx, "inst-1", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != "v2-data" {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), "v2-data")
	}
	if version, _ := v.GetSnapshotVersion(ctx, "inst-1"); version != 2 {
		t.Errorf("GetSnapshotVersion() = %d, want 2", version)
	}
}

func TestFileSystemVault_MissingSnapshot(t *testing.T) {
	ctx := context.Background()
	v, _ := NewFileSystemVault("fs", t.TempDir())

	version, err := v.GetSnapshotVersion(ctx, "nobody")
	if err != nil || version != 0 {
		t.Errorf("GetSnapshotVersion() = %d, %v, want 0, nil", version, err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot(ctx, "nobody", &buf); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("GetSnapshot() error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestFileSystemVault_RejectsUnsafeInstanceID(t *testing.T) {
	ctx := context.Background()
	v, _ := NewFileSystemVault("fs", t.TempDir())

	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		t.Run(id, func(t *testing.T) {
			if err := v.PutSnapshot(ctx, id, strings.NewReader("x"), 1, 1); err == nil {
				t.Errorf("PutSnapshot(%q) expected error", id)
			}
		})
	}
}

func TestFileSystemVault_AtomicWrite(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	v, _ := NewFileSystemVault("fs", root)

	// Size mismatch must not leave a snapshot or temp files behind
	err := v.PutSnapshot(ctx, "inst-1", strings.NewReader("short"), 100, 1)
	if err == nil {
		t.Fatal("PutSnapshot() expected error for size mismatch")
	}

	entries, err := os.ReadDir(filepath.Join(root, "snapshots"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("snapshots dir not empty after failed write: %v", names)
	}
}

func TestFileSystemVault_ValidateSetup_RootRemoved(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	v, _ := NewFileSystemVault("fs", root)

	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() expected error after root removal")
	}
}
