package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/multidb/internal/config"
	"github.com/zulandar/multidb/internal/db"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Metadata database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the multidb metadata database",
		Long:  "Creates the MySQL metadata database, migrates all tables and seeds the configured users.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config from %s\n", configPath)

	adminDB, err := db.ConnectAdmin(cfg.Store)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.Store.Host, cfg.Store.Port)

	if err := db.CreateDatabase(adminDB, cfg.Store.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.Store.Database)

	return migrateAndSeed(cmd, cfg)
}

// migrateAndSeed migrates the schema and seeds users into cfg.Store.Database.
func migrateAndSeed(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	gormDB, err := db.Connect(cfg.Store)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedUsers(gormDB, cfg.Users); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d users:", len(cfg.Users))
	for _, u := range cfg.Users {
		fmt.Fprintf(out, " %s(%s)", u.UserName, u.Role)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "\nmultidb metadata database initialized successfully.")
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-initialize the multidb metadata database",
		Long: `Drops the metadata database and re-creates it from config.

Tenant databases on the engine masters are not touched; run
"mdb reconcile" afterwards to list what is no longer tracked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to multidb config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	name := cfg.Store.Database

	if !skipConfirm {
		if !interactive(cmd.InOrStdin()) {
			return fmt.Errorf("stdin is not a terminal; pass --yes to reset %s", name)
		}
		if !confirm(cmd, fmt.Sprintf("This will permanently delete all data in database %q.", name)) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	adminDB, err := db.ConnectAdmin(cfg.Store)
	if err != nil {
		return err
	}
	if err := recreate(adminDB, name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s dropped and re-created\n", name)

	return migrateAndSeed(cmd, cfg)
}

func recreate(adminDB *gorm.DB, name string) error {
	if err := db.DropDatabase(adminDB, name); err != nil {
		return err
	}
	return db.CreateDatabase(adminDB, name)
}

// confirm prints warning and reads a literal "yes" from the command input.
func confirm(cmd *cobra.Command, warning string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintf(out, "WARNING: %s\n", warning)
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}

// interactive reports whether in can answer a prompt. Only a file that is not
// a terminal is refused.
func interactive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return !ok || term.IsTerminal(int(f.Fd()))
}
