package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/encoder"
	"github.com/kbediako/examgate/internal/store/postgres"
)

var studentEnrollCmd = &cobra.Command{
	Use:   "enroll <index-number> <photo>",
	Short: "Register a student's face from a photo file",
	Long: `Enroll sends a photo to the face encoding service and stores the
resulting descriptor. The photo must contain exactly one face.
Re-running replaces the stored descriptor.`,
	Args: cobra.ExactArgs(2),
	RunE: runStudentEnroll,
}

func init() {
	studentCmd.AddCommand(studentEnrollCmd)
}

func runStudentEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	indexNumber, photoPath := args[0], args[1]

	data, err := os.ReadFile(photoPath)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}
	data, err = encoder.Downscale(data, cfg.Encoder.MaxImageEdge)
	if err != nil {
		return fmt.Errorf("preparing photo: %w", err)
	}

	client := encoder.NewClient(cfg.Encoder.URL, cfg.Recognition.Dimension)
	descriptor, err := client.EncodeFace(cmd.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, encoder.ErrNoFace):
			return errors.New("no face detected in the photo")
		case errors.Is(err, encoder.ErrMultipleFaces):
			return errors.New("photo contains more than one face, crop it to the student")
		}
		return fmt.Errorf("encoding face: %w", err)
	}

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)
	student, err := repo.GetStudentByIndexNumber(cmd.Context(), indexNumber)
	if err != nil {
		return fmt.Errorf("looking up student %s: %w", indexNumber, err)
	}
	if err := repo.PutDescriptor(cmd.Context(), student.ID, descriptor); err != nil {
		return fmt.Errorf("storing descriptor: %w", err)
	}

	fmt.Printf("Enrolled %s (%s)\n", student.FullName(), student.IndexNumber)
	return nil
}
