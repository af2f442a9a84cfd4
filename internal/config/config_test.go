package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := NewConfig("test-instance-abc", "/home/user/.local/share/sitereports")
	original.Auth.Enabled = true
	original.Vault = VaultConfig{Type: "filesystem", Name: "local", FSVaultRoot: "/backup/vault"}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.InstanceID != original.InstanceID {
		t.Errorf("InstanceID = %q, want %q", got.InstanceID, original.InstanceID)
	}
	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", got.Server.Addr, DefaultAddr)
	}
	if !got.Auth.Enabled {
		t.Error("Auth.Enabled = false, want true")
	}
	if got.Vault.Type != "filesystem" {
		t.Errorf("Vault.Type = %q, want %q", got.Vault.Type, "filesystem")
	}
	if got.Vault.FSVaultRoot != "/backup/vault" {
		t.Errorf("Vault.FSVaultRoot = %q, want %q", got.Vault.FSVaultRoot, "/backup/vault")
	}
	if got.Encryption.PublicKeyPath != original.Encryption.PublicKeyPath {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", got.Encryption.PublicKeyPath, original.Encryption.PublicKeyPath)
	}
	if got.Database != original.Database {
		t.Errorf("Database = %+v, want %+v", got.Database, original.Database)
	}
}

func TestManager_Read_AuthDefault(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"no auth table", "instance_id = \"abc\"\n", true},
		{"auth table without enabled", "instance_id = \"abc\"\n[auth]\nsession_ttl = \"1h\"\n", true},
		{"explicitly disabled", "instance_id = \"abc\"\n[auth]\nenabled = false\n", false},
	}

	m := &Manager{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Read(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if got.Auth.Enabled != tt.want {
				t.Errorf("Auth.Enabled = %t, want %t", got.Auth.Enabled, tt.want)
			}
		})
	}
}

func TestManager_Read_Durations(t *testing.T) {
	input := `
instance_id = "abc"

[server]
addr = ":9000"
read_timeout = "5s"

[auth]
enabled = true
session_ttl = "2h"
`
	m := &Manager{}
	got, err := m.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", got.Server.Addr, ":9000")
	}
	if got.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 5s", got.Server.ReadTimeout)
	}
	if got.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want 2h", got.Auth.SessionTTL)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("instance-1", "/data/sitereports")

	if cfg.InstanceID != "instance-1" {
		t.Errorf("InstanceID = %q, want %q", cfg.InstanceID, "instance-1")
	}
	if cfg.LogDir != "/data/sitereports/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/sitereports/log")
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "sqlite")
	}
	if cfg.Database.InstanceDir != "/data/sitereports/instance" {
		t.Errorf("Database.InstanceDir = %q, want %q", cfg.Database.InstanceDir, "/data/sitereports/instance")
	}
	if cfg.Encryption.PrivateKeyPath != "/data/sitereports/keys/sitereports.key" {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", cfg.Encryption.PrivateKeyPath, "/data/sitereports/keys/sitereports.key")
	}
	if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("Server.ShutdownTimeout = %v, want %v", cfg.Server.ShutdownTimeout, DefaultShutdownTimeout)
	}
	if cfg.Auth.SessionTTL != DefaultSessionTTL {
		t.Errorf("Auth.SessionTTL = %v, want %v", cfg.Auth.SessionTTL, DefaultSessionTTL)
	}
	if !cfg.Auth.Enabled {
		t.Error("Auth.Enabled = false, want login on by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing instance id", func(c *Config) { c.InstanceID = "" }, "instance_id is required"},
		{"sqlite without dir", func(c *Config) { c.Database.InstanceDir = "" }, "instance_dir is required"},
		{"memory database", func(c *Config) { c.Database = DatabaseConfig{Type: "memory"} }, ""},
		{"unknown database", func(c *Config) { c.Database.Type = "postgres" }, "unknown database type"},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("i", "/data")
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SITEREPORTS_ADDR", ":7000")
	t.Setenv("SITEREPORTS_INSTANCE_DIR", "/srv/instance")
	t.Setenv("SITEREPORTS_AUTH_ENABLED", "false")
	t.Setenv("SITEREPORTS_SESSION_TTL", "30m")
	t.Setenv("SITEREPORTS_S3_BUCKET", "reports-backup")

	cfg := NewConfig("i", "/data")
	if err := ApplyEnv(cfg); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":7000")
	}
	if cfg.Database.InstanceDir != "/srv/instance" {
		t.Errorf("Database.InstanceDir = %q, want %q", cfg.Database.InstanceDir, "/srv/instance")
	}
	if cfg.Auth.Enabled {
		t.Error("Auth.Enabled = true, want false from the environment")
	}
	if cfg.Auth.SessionTTL != 30*time.Minute {
		t.Errorf("Auth.SessionTTL = %v, want 30m", cfg.Auth.SessionTTL)
	}
	if cfg.Vault.S3Bucket != "reports-backup" {
		t.Errorf("Vault.S3Bucket = %q, want %q", cfg.Vault.S3Bucket, "reports-backup")
	}
	// Untouched values survive
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", cfg.Database.Type, "sqlite")
	}
}

func TestLoad(t *testing.T) {
	t.Run("falls back to base when file is missing", func(t *testing.T) {
		dir := t.TempDir()
		base := NewConfig("fallback", dir)

		got, err := Load(filepath.Join(dir, "missing.toml"), base)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.InstanceID != "fallback" {
			t.Errorf("InstanceID = %q, want %q", got.InstanceID, "fallback")
		}
		if got == base {
			t.Error("Load() returned the base config itself, want a copy")
		}
	})

	t.Run("reads file and fills defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "sitereports.toml")
		content := "instance_id = \"from-file\"\n\n[database]\ntype = \"memory\"\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		got, err := Load(path, NewConfig("unused", dir))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.InstanceID != "from-file" {
			t.Errorf("InstanceID = %q, want %q", got.InstanceID, "from-file")
		}
		if got.Server.Addr != DefaultAddr {
			t.Errorf("Server.Addr = %q, want %q", got.Server.Addr, DefaultAddr)
		}
		if got.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want %q", got.LogLevel, "info")
		}
	})

	t.Run("rejects invalid file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "sitereports.toml")
		if err := os.WriteFile(path, []byte("instance_id = \"x\"\n[database]\ntype = \"oracle\"\n"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(path, NewConfig("unused", dir)); err == nil {
			t.Fatal("Load() expected error for unknown database type")
		}
	})
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "sitereports.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "sitereports.toml")
		cfg := NewConfig("h1", dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "sitereports.toml")
		cfg := NewConfig("read-test", dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.InstanceID != "read-test" {
			t.Errorf("InstanceID = %q, want %q", got.InstanceID, "read-test")
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/sitereports.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
