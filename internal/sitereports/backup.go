package sitereports

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sitereports/internal/model"
)

// Backup statuses recorded on a BackupOperation.
const (
	BackupRunning = "running"
	BackupSuccess = "success"
	BackupError   = "error"
)

// BackupService snapshots the database, encrypts the snapshot and ships it to a vault.
type BackupService struct {
	database   Database
	vault      Vault
	encryptor  Encryptor
	instanceID string
	logger     Logger
	clock      Clock
}

// NewBackupService creates a BackupService for one instance.
func NewBackupService(database Database, vault Vault, encryptor Encryptor, instanceID string, logger Logger, clock Clock) *BackupService {
	return &BackupService{
		database:   database,
		vault:      vault,
		encryptor:  encryptor,
		instanceID: instanceID,
		logger:     logger,
		clock:      clock,
	}
}

// Run takes one backup. The operation is recorded whether or not it succeeds;
// the snapshot version stored in the vault is the operation ID.
func (b *BackupService) Run(ctx context.Context) (*model.BackupOperation, error) {
	if !b.encryptor.IsConfigured() {
		return nil, fmt.Errorf("encryption keys are not set up")
	}

	op, err := b.database.CreateBackupOperation(ctx, b.vault.Name(), b.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("recording backup operation: %w", err)
	}
	b.logger.Info("backup started", "id", op.ID, "vault", b.vault.Name())

	runErr := b.upload(ctx, op)

	finished := b.clock.Now()
	op.FinishedAt = &finished
	op.Status = BackupSuccess
	if runErr != nil {
		op.Status = BackupError
	}
	if err := b.database.FinishBackupOperation(ctx, op); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("finishing backup operation: %w", err))
	}

	if runErr != nil {
		b.logger.Error("backup failed", "id", op.ID, "error", runErr)
		return op, runErr
	}
	b.logger.Info("backup finished", "id", op.ID, "size", op.Size)
	return op, nil
}

func (b *BackupService) upload(ctx context.Context, op *model.BackupOperation) error {
	tmpDir, err := os.MkdirTemp("", "sitereports-backup-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapPath := filepath.Join(tmpDir, "snapshot.db")
	if err := b.database.BackupTo(ctx, snapPath); err != nil {
		return fmt.Errorf("snapshotting database: %w", err)
	}

	encPath := snapPath + ".age"
	if err := encryptFile(b.encryptor, snapPath, encPath); err != nil {
		return err
	}

	f, err := os.Open(encPath)
	if err != nil {
		return fmt.Errorf("opening encrypted snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat encrypted snapshot: %w", err)
	}

	if err := b.vault.PutSnapshot(ctx, b.instanceID, f, info.Size(), op.ID); err != nil {
		return fmt.Errorf("uploading snapshot to vault: %w", err)
	}

	op.ObjectKey = b.instanceID + "/db"
	op.Size = info.Size()
	return nil
}

// Restore downloads the latest snapshot, decrypts it with passphrase and writes
// it to destPath, which must not exist yet. It returns the restored version.
func (b *BackupService) Restore(ctx context.Context, passphrase string, destPath string) (int64, error) {
	if _, err := os.Stat(destPath); err == nil {
		return 0, fmt.Errorf("refusing to overwrite existing file: %s", destPath)
	}

	version, err := b.vault.GetSnapshotVersion(ctx, b.instanceID)
	if err != nil {
		return 0, fmt.Errorf("checking snapshot version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("no snapshot stored for instance %s", b.instanceID)
	}

	dctx, err := b.encryptor.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("creating destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".restore-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	encrypted, err := os.CreateTemp("", "sitereports-restore-*.age")
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(encrypted.Name())
	defer encrypted.Close()

	if err := b.vault.GetSnapshot(ctx, b.instanceID, encrypted); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := encrypted.Seek(0, 0); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("rewinding snapshot: %w", err)
	}

	if err := dctx.Decrypt(encrypted, tmp); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing restored file: %w", err)
	}

	// Link fails if destPath appeared while the snapshot was downloading.
	if err := os.Link(tmpPath, destPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("refusing to overwrite existing file: %s", destPath)
		}
		return 0, fmt.Errorf("moving restored file into place: %w", err)
	}

	b.logger.Info("snapshot restored", "version", version, "path", destPath)
	return version, nil
}

// History returns the most recent backup operations, newest first.
func (b *BackupService) History(ctx context.Context, limit int) ([]*model.BackupOperation, error) {
	ops, err := b.database.ListBackupOperations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing backup operations: %w", err)
	}
	return ops, nil
}

func encryptFile(enc Encryptor, srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}

	if err := enc.Encrypt(src, dst); err != nil {
		dst.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("closing encrypted snapshot: %w", err)
	}
	return nil
}
