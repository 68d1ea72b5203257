package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/database/seeders"
	"github.com/eadens/cakeworld/pkg/database"
	"github.com/eadens/cakeworld/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return database.Connect()
}

// cakeworld migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		ran, err := migration.New(database.DB).Run()
		for _, name := range ran {
			fmt.Println("Migrated:", name)
		}
		if err == nil && len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		return err
	},
}

// cakeworld migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		reverted, err := migration.New(database.DB).Rollback()
		for _, name := range reverted {
			fmt.Println("Rolled back:", name)
		}
		if err == nil && len(reverted) == 0 {
			fmt.Println("Nothing to roll back.")
		}
		return err
	},
}

// cakeworld migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		entries, err := migration.New(database.DB).Status()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tBATCH\tRUN AT")
		for _, e := range entries {
			if e.Pending() {
				fmt.Fprintf(w, "%s\tpending\t-\n", e.Name)
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", e.Name, e.Batch, e.RunAt.Format(time.DateTime))
		}
		return w.Flush()
	},
}

// cakeworld seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo users, the starter catalog and sample reviews",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()
		fmt.Println("Running seeders:", seeders.Names())
		return seeders.RunAll(database.DB)
	},
}
