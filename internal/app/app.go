package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sitereports/internal/config"
	"sitereports/internal/database"
	"sitereports/internal/database/migrations"
	"sitereports/internal/encryption"
	"sitereports/internal/model"
	"sitereports/internal/sitereports"
	"sitereports/internal/vault"
	"sitereports/internal/web"
	"sitereports/internal/web/templates"
)

// App is the application layer between the CLI and the services.
// It constructs all dependencies from config, exposes the operations the
// commands run, and manages the database and log file lifecycle on Close.
type App struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	logger  *slog.Logger
	service *sitereports.Service
	logFile *os.File
}

// New creates an App from the given config. command identifies the CLI
// command being run (e.g. "serve", "backup") and prefixes the run id written
// on every log line. The schema is not checked here: Serve and Migrate bring
// it up to date, the other operations require it to be current.
// The caller must call Close when done.
func New(cfg *config.Config, command string) (*App, error) {
	runID := command + "-" + time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, cfg.LogLevel, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	svc := sitereports.NewService(db, &slogAdapter{l: logger}, sitereports.RealClock{}, sitereports.UUIDGenerator{})
	svc.SetSessionTTL(cfg.Auth.SessionTTL)

	return &App{
		cfg:     cfg,
		db:      db,
		logger:  logger,
		service: svc,
		logFile: logFile,
	}, nil
}

// Migrate applies any pending schema migrations.
func (a *App) Migrate() error {
	if err := a.db.MigrateUp(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// SchemaStatus reports the database schema version against the binary's.
func (a *App) SchemaStatus() (*migrations.Status, error) {
	return a.db.SchemaStatus()
}

// Schema returns the CREATE statements of the current database.
func (a *App) Schema(ctx context.Context) (string, error) {
	return a.db.DumpSchema(ctx)
}

// DatabasePath returns where the report database lives.
func (a *App) DatabasePath() string {
	return a.db.Path()
}

func (a *App) requireSchema() error {
	if err := a.db.CheckMigrations(); err != nil {
		return fmt.Errorf("database schema out of date (run `sitereports db migrate`): %w", err)
	}
	return nil
}

// Serve migrates the database and runs the web interface until ctx is
// cancelled.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Migrate(); err != nil {
		return err
	}

	if n, err := a.service.PurgeExpiredSessions(ctx); err != nil {
		a.logger.Warn("purging expired sessions failed", "error", err)
	} else if n > 0 {
		a.logger.Info("purged expired sessions", "count", n)
	}

	renderer, err := templates.New()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	srv := web.NewServer(a.service, renderer, &slogAdapter{l: a.logger.With("component", "web")}, web.Options{
		AuthEnabled:   a.cfg.Auth.Enabled,
		SecureCookies: a.cfg.Auth.SecureCookies,
	})

	if !a.cfg.Auth.Enabled {
		a.logger.Warn("authentication is disabled, anyone who can reach the server can change reports",
			"addr", a.cfg.Server.Addr)
	}
	a.logger.Info("serving site reports",
		"database", a.db.Path(),
		"auth", a.cfg.Auth.Enabled,
		"instance", a.cfg.InstanceID)
	return srv.Run(ctx, a.cfg.Server)
}

// AddUser creates a login account unless the username is already taken.
// It reports whether a new account was created.
func (a *App) AddUser(ctx context.Context, username, password string) (bool, error) {
	if err := a.requireSchema(); err != nil {
		return false, err
	}
	_, created, err := a.service.EnsureUser(ctx, username, password)
	return created, err
}

// encryptor builds the configured backup encryptor.
func (a *App) encryptor() (sitereports.Encryptor, error) {
	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	return enc, nil
}

// backupService wires the configured vault and encryptor to the database.
func (a *App) backupService(ctx context.Context) (*sitereports.BackupService, error) {
	if err := a.requireSchema(); err != nil {
		return nil, err
	}

	v, err := vault.NewVaultFromConfig(ctx, a.cfg.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	enc, err := a.encryptor()
	if err != nil {
		return nil, err
	}

	logger := &slogAdapter{l: a.logger.With("component", "backup")}
	return sitereports.NewBackupService(a.db, v, enc, a.cfg.InstanceID, logger, sitereports.RealClock{}), nil
}

// Backup snapshots the database into the configured vault.
func (a *App) Backup(ctx context.Context) (*model.BackupOperation, error) {
	b, err := a.backupService(ctx)
	if err != nil {
		return nil, err
	}
	return b.Run(ctx)
}

// BackupHistory returns the most recent backup operations.
func (a *App) BackupHistory(ctx context.Context, limit int) ([]*model.BackupOperation, error) {
	b, err := a.backupService(ctx)
	if err != nil {
		return nil, err
	}
	return b.History(ctx, limit)
}

// Restore writes the latest vault snapshot to destPath.
func (a *App) Restore(ctx context.Context, passphrase, destPath string) (int64, error) {
	b, err := a.backupService(ctx)
	if err != nil {
		return 0, err
	}
	return b.Restore(ctx, passphrase, destPath)
}

// SetupKeys generates the backup key pair, protecting the private key with
// passphrase. Existing keys are never replaced (encryption.ErrKeysExist).
// It returns the public key when the encryptor exposes one.
func (a *App) SetupKeys(passphrase string) (string, error) {
	enc, err := a.encryptor()
	if err != nil {
		return "", err
	}
	if err := enc.Setup(passphrase); err != nil {
		return "", fmt.Errorf("generating keys: %w", err)
	}

	if pk, ok := enc.(interface{ PublicKey() (string, error) }); ok {
		return pk.PublicKey()
	}
	return "", nil
}

// Close closes the database and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
