package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitereports/internal/app"
	"sitereports/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file, or the defaults when there is none, and
// applies SITEREPORTS_* environment overrides.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults["config_path"], config.NewConfig("default", defaults["base_dir"]))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp loads the config and creates an App. The caller must defer a.Close().
// command identifies the CLI command being run (e.g. "serve", "backup").
func newApp(command string) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, command)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "sitereports",
	Short:        "Site reports web application",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web interface",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp("serve")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Serve(ctx)
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Instance ID:  %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s (%s)\n", cfg.LogDir, cfg.LogLevel)
		fmt.Printf("Listen:       %s\n", cfg.Server.Addr)
		fmt.Printf("Database:     %s %s\n", cfg.Database.Type, cfg.Database.InstanceDir)
		fmt.Printf("Auth:         %t (sessions %s)\n", cfg.Auth.Enabled, cfg.Auth.SessionTTL)
		vault := cfg.Vault.Type
		if vault == "" {
			vault = "none"
		}
		fmt.Printf("Vault:        %s\n", vault)
		fmt.Printf("Encryption:   %s\n", cfg.Encryption.Type)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the report database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("migrate")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Migrate(); err != nil {
			return err
		}
		st, err := a.SchemaStatus()
		if err != nil {
			return err
		}
		fmt.Printf("Database %s at schema version %d\n", a.DatabasePath(), st.Current)
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("status")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.SchemaStatus()
		if err != nil {
			return err
		}

		state := "up to date"
		switch {
		case st.Dirty:
			state = "dirty (a migration failed)"
		case st.Current < st.Latest:
			state = fmt.Sprintf("%d migration(s) pending", st.Latest-st.Current)
		case st.Current > st.Latest:
			state = "ahead of this binary"
		}
		fmt.Printf("Database: %s\n", a.DatabasePath())
		fmt.Printf("Version:  %d of %d, %s\n", st.Current, st.Latest, state)
		return nil
	},
}

var dbSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("schema")
		if err != nil {
			return err
		}
		defer a.Close()

		schema, err := a.Schema(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(schema)
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage login accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Create a login account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("user")
		if err != nil {
			return err
		}
		defer a.Close()

		password, err := readNewPassword("Password: ")
		if err != nil {
			return err
		}

		created, err := a.AddUser(cmd.Context(), args[0], password)
		if err != nil {
			return fmt.Errorf("adding user: %w", err)
		}
		if !created {
			fmt.Printf("User %s already exists\n", args[0])
			return nil
		}
		fmt.Printf("Created user %s\n", args[0])
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the report database",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload an encrypted snapshot to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("backup")
		if err != nil {
			return err
		}
		defer a.Close()

		op, err := a.Backup(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}
		fmt.Printf("Backup #%d stored at %s (%d bytes)\n", op.ID, op.ObjectKey, op.Size)
		return nil
	},
}

var backupHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.BackupHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No backups recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %s  %-8s  %-12s  %10d  %s\n",
				op.ID,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				op.Vault,
				op.Size,
				duration,
			)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore DEST",
	Short: "Restore the latest snapshot into a new database file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("restore")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassword("Key passphrase: ")
		if err != nil {
			return err
		}

		version, err := a.Restore(cmd.Context(), passphrase, args[0])
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Printf("Restored backup #%d to %s\n", version, args[0])
		return nil
	},
}

var backupKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate the backup encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readNewPassword("New key passphrase: ")
		if err != nil {
			return err
		}

		pub, err := a.SetupKeys(passphrase)
		if err != nil {
			return err
		}
		fmt.Println("Encryption keys created.")
		if pub != "" {
			fmt.Printf("Public key: %s\n", pub)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbSchemaCmd)

	userCmd.AddCommand(userAddCmd)

	// backup subcommands
	backupCmd.AddCommand(backupRunCmd)
	backupCmd.AddCommand(backupHistoryCmd)
	backupHistoryCmd.Flags().IntP("limit", "n", 20, "Maximum number of backups to show")
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupKeysCmd)

	// root commands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(backupCmd)
}
