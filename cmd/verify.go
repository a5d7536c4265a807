package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/encoder"
	"github.com/kbediako/examgate/internal/recognition"
	"github.com/kbediako/examgate/internal/store/postgres"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <photo>",
	Short: "Run one verification attempt from a photo file",
	Long: `Verify runs the full pipeline for a single photo: encode the face,
match it against enrolled students, resolve the exam room and record
the attempt. Useful for testing a kiosk setup from the command line.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Int64("session", 0, "Exam session id (defaults to sessions active today)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}
	data, err = encoder.Downscale(data, cfg.Encoder.MaxImageEdge)
	if err != nil {
		return fmt.Errorf("preparing photo: %w", err)
	}

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	students := postgres.NewStudentRepository(pool)
	sessions := postgres.NewSessionRepository(pool)
	attendance := postgres.NewAttendanceRepository(pool)

	matcher := recognition.NewMatcher(cfg.Recognition.Threshold, cfg.Recognition.Dimension)
	resolver := recognition.NewResolver(sessions)
	recorder := recognition.NewRecorder(attendance, cfg.Recognition.Method)
	verifier := recognition.NewVerifier(students, matcher, resolver, recorder)

	opts := recognition.VerifyOptions{
		Client: recognition.ClientContext{UserAgent: "examgate-cli"},
	}
	if id := mustGetInt64(cmd, "session"); id != 0 {
		opts.SessionID = &id
	}

	client := encoder.NewClient(cfg.Encoder.URL, cfg.Recognition.Dimension)
	descriptor, err := client.EncodeFace(cmd.Context(), data)
	if err != nil {
		var reason string
		switch {
		case errors.Is(err, encoder.ErrNoFace):
			reason = "no face detected"
		case errors.Is(err, encoder.ErrMultipleFaces):
			reason = "multiple faces detected"
		case errors.Is(err, encoder.ErrBadImage):
			reason = "image could not be decoded"
		default:
			return fmt.Errorf("encoding face: %w", err)
		}
		if logErr := verifier.RecordDefect(cmd.Context(), reason, opts); logErr != nil {
			return logErr
		}
		fmt.Printf("Status: cannot_evaluate (%s)\n", reason)
		return nil
	}

	result, err := verifier.Verify(cmd.Context(), descriptor, opts)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Printf("Status: %s\n", result.Status)
	if result.Student != nil {
		fmt.Printf("Student: %s (%s)\n", result.Student.FullName(), result.Student.IndexNumber)
		fmt.Printf("Confidence: %.3f (distance %.3f)\n", result.Confidence, result.Distance)
	}
	if result.Assignment != nil {
		fmt.Printf("Room: %s\n", result.Assignment.RoomLabel())
	}
	return nil
}
