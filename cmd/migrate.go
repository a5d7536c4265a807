package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().Bool("status", false, "List applied migrations instead of applying new ones")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if mustGetBool(cmd, "status") {
		applied, err := pool.MigrationsApplied(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading migration state: %w", err)
		}
		if len(applied) == 0 {
			fmt.Println("No migrations applied yet")
			return nil
		}
		for _, name := range applied {
			fmt.Printf("applied: %s\n", name)
		}
		return nil
	}

	if err := pool.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	fmt.Println("Database is up to date")
	return nil
}
