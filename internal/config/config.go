package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment override, e.g. SITEREPORTS_ADDR.
const EnvPrefix = "SITEREPORTS_"

// Config represents the main configuration for sitereports.
type Config struct {
	InstanceID string           `toml:"instance_id" env:"INSTANCE_ID"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir" env:"LOG_DIR"`
	LogLevel   string           `toml:"log_level" env:"LOG_LEVEL"` // "debug", "info", "warn" or "error"
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Auth       AuthConfig       `toml:"auth"`
	Vault      VaultConfig      `toml:"vault"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `toml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `toml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `toml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig represents configuration for the report database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type        string `toml:"type" env:"DATABASE_TYPE"`                // "sqlite" or "memory"
	InstanceDir string `toml:"instance_dir,omitempty" env:"INSTANCE_DIR"` // only used for type=sqlite
}

// AuthConfig controls login for the web interface.
type AuthConfig struct {
	Enabled       bool          `toml:"enabled" env:"AUTH_ENABLED"`
	SessionTTL    time.Duration `toml:"session_ttl" env:"SESSION_TTL"`
	SecureCookies bool          `toml:"secure_cookies" env:"SECURE_COOKIES"`
}

// VaultConfig represents configuration for the backup vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
// An empty Type disables backups.
type VaultConfig struct {
	Type string `toml:"type" env:"VAULT_TYPE"` // "memory", "s3", or "filesystem"
	Name string `toml:"name" env:"VAULT_NAME"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty" env:"S3_BUCKET"`
	S3Prefix          string `toml:"s3_prefix,omitempty" env:"S3_PREFIX"`
	S3Region          string `toml:"s3_region,omitempty" env:"S3_REGION"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty" env:"S3_ENDPOINT"` // S3-compatible services
	S3AccessKeyID     string `toml:"-" env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `toml:"-" env:"S3_SECRET_ACCESS_KEY"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty" env:"FS_VAULT_ROOT"`
}

// EncryptionConfig holds paths to the age key pair used to encrypt backups.
type EncryptionConfig struct {
	Type           string `toml:"type" env:"ENCRYPTION_TYPE"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// Defaults applied by NewConfig and by Load for unset values.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 2 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
	DefaultSessionTTL      = 12 * time.Hour
)

// NewConfig creates a new Config with the provided values and default paths.
// The database lives in baseDir/instance.
func NewConfig(instanceID, baseDir string) *Config {
	cfg := &Config{
		InstanceID: instanceID,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		LogLevel:   "info",
		Database: DatabaseConfig{
			Type:        "sqlite",
			InstanceDir: filepath.Join(baseDir, "instance"),
		},
		Auth: AuthConfig{Enabled: true},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "sitereports.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "sitereports.key"),
		},
	}
	cfg.fillDefaults()
	return cfg
}

// fillDefaults sets the server and auth values left at zero.
func (c *Config) fillDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = DefaultIdleTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = DefaultSessionTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.InstanceID == "" {
		errs = append(errs, errors.New("instance_id is required"))
	}
	switch c.Database.Type {
	case "sqlite":
		if c.Database.InstanceDir == "" {
			errs = append(errs, errors.New("database.instance_dir is required for sqlite"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database type: %q", c.Database.Type))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level: %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// ApplyEnv overrides cfg with any SITEREPORTS_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}
	return nil
}

// Load reads the config file at path, falling back to base when the file does
// not exist, then applies environment overrides and defaults.
func Load(path string, base *Config) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		copied := *base
		cfg = &copied
	} else if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader. Login stays enabled unless
// the file sets auth.enabled = false.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := Config{Auth: AuthConfig{Enabled: true}}
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
