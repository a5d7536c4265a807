package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/auth"
	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/mailer"
	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/store/postgres"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE:  runAdminCreate,
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)

	adminCreateCmd.Flags().String("username", "", "Login username (required)")
	adminCreateCmd.Flags().String("email", "", "Email address (required)")
	adminCreateCmd.Flags().String("password", "", "Initial password (required)")
	adminCreateCmd.Flags().String("full-name", "", "Display name")
	adminCreateCmd.Flags().String("role", "admin", "Role")
	adminCreateCmd.Flags().Bool("welcome", false, "Send a welcome email with the account details")
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	username := mustGetString(cmd, "username")
	email := mustGetString(cmd, "email")
	password := mustGetString(cmd, "password")
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("--username, --email and --password are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	admins := postgres.NewAdminRepository(pool)
	admin := &store.Admin{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     mustGetString(cmd, "full-name"),
		Role:         mustGetString(cmd, "role"),
		IsActive:     true,
	}
	if err := admins.CreateAdmin(cmd.Context(), admin); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	fmt.Printf("Created admin %s (%s)\n", admin.Username, admin.Email)

	if mustGetBool(cmd, "welcome") {
		if cfg.Mail.ResendAPIKey == "" {
			fmt.Println("RESEND_API_KEY not set, skipping welcome email")
			return nil
		}
		m := mailer.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress)
		if err := m.SendWelcome(admin.Email, admin.FullName, admin.Username); err != nil {
			return fmt.Errorf("sending welcome email: %w", err)
		}
		fmt.Println("Welcome email sent")
	}
	return nil
}
