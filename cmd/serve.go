package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/encoder"
	"github.com/kbediako/examgate/internal/mailer"
	"github.com/kbediako/examgate/internal/recognition"
	"github.com/kbediako/examgate/internal/store/postgres"
	"github.com/kbediako/examgate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the ExamGate web server.
The server exposes the kiosk verification endpoint and the authenticated
admin API for students, exam sessions, room assignments and attendance.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (string, int) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return host, port
}

// buildMailer picks the Resend mailer when an API key is configured, and a
// no-op otherwise so OTP login degrades instead of breaking startup.
func buildMailer(cfg *config.Config) mailer.Mailer {
	if cfg.Mail.ResendAPIKey == "" {
		fmt.Println("RESEND_API_KEY not set, outgoing mail disabled")
		return mailer.NopMailer{}
	}
	fmt.Println("Outgoing mail enabled (Resend)")
	return mailer.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.FromAddress)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	students := postgres.NewStudentRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	attendance := postgres.NewAttendanceRepository(pool)
	admins := postgres.NewAdminRepository(pool)

	matcher := recognition.NewMatcher(cfg.Recognition.Threshold, cfg.Recognition.Dimension)
	resolver := recognition.NewResolver(sessions)
	recorder := recognition.NewRecorder(attendance, cfg.Recognition.Method)
	verifier := recognition.NewVerifier(students, matcher, resolver, recorder)

	host, port := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, host, port, web.Deps{
		Students:    students,
		Sessions:    sessions,
		Attendance:  attendance,
		Admins:      admins,
		Encoder:     encoder.NewClient(cfg.Encoder.URL, cfg.Recognition.Dimension),
		Verifier:    verifier,
		Mailer:      buildMailer(cfg),
		SessionRepo: admins,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting ExamGate on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
