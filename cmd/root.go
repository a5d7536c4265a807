package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/store/postgres"
)

var rootCmd = &cobra.Command{
	Use:   "examgate",
	Short: "Face-recognition attendance for examination halls",
	Long: `ExamGate verifies student identity at exam-hall entrances using face
recognition, resolves the student's assigned room from index-number
ranges, and records attendance with a full audit trail.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// connect opens the PostgreSQL pool from configuration.
func connect(cfg *config.Config) (*postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	return pool, nil
}
