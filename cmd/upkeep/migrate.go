package main

import (
	"fmt"
	"io"

	"github.com/fairhaven/upkeep/internal/config"
	"github.com/fairhaven/upkeep/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database, migrate tables, and seed SLA policies",
		Long: `Initializes the Upkeep database.

Steps performed:
  1. Create the database if it doesn't exist
  2. Auto-migrate all tables
  3. Upsert SLA policies from config

Safe to run multiple times (idempotent).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "upkeep.yaml", "path to Upkeep config file")
	return cmd
}

func runMigrate(out io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	adminDB, err := db.ConnectAdmin(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}
	fmt.Fprintf(out, "Connected to MySQL at %s:%d\n", cfg.Database.Host, cfg.Database.Port)

	if err := db.CreateDatabase(adminDB, cfg.Database.Database); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Database)

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Database.Database, err)
	}

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if err := db.SeedSlaPolicies(gormDB, cfg.SlaSeeds); err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d SLA policies\n", len(cfg.SlaSeeds))

	fmt.Fprintln(out, "Migration complete.")
	return nil
}
