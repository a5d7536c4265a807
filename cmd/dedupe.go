package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/dedupe"
	"github.com/kbediako/examgate/internal/store/postgres"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find students enrolled more than once",
	Long: `Dedupe scans all enrolled face descriptors for pairs that are close
enough to be the same person. Review the reported pairs and soft-delete
the duplicate records.`,
	RunE: runDedupe,
}

func init() {
	rootCmd.AddCommand(dedupeCmd)

	dedupeCmd.Flags().Float64("threshold", 0, "Distance threshold (defaults to the matcher threshold)")
}

func runDedupe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	threshold := mustGetFloat64(cmd, "threshold")
	if threshold <= 0 {
		threshold = cfg.Recognition.Threshold
	}

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	students := postgres.NewStudentRepository(pool)
	descriptors, err := students.ActiveDescriptors(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading descriptors: %w", err)
	}
	if len(descriptors) < 2 {
		fmt.Println("Fewer than two enrolled students, nothing to compare")
		return nil
	}

	bar := progressbar.Default(int64(len(descriptors)), "scanning")
	pairs, err := dedupe.FindDuplicates(descriptors, threshold, func(done, total int) {
		_ = bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("scanning for duplicates: %w", err)
	}
	_ = bar.Finish()

	if len(pairs) == 0 {
		fmt.Printf("No duplicate enrollments found under threshold %.2f\n", threshold)
		return nil
	}

	fmt.Printf("Found %d suspected duplicate pairs:\n", len(pairs))
	for _, p := range pairs {
		a, err := students.GetStudent(cmd.Context(), p.StudentA)
		if err != nil {
			return fmt.Errorf("loading student %s: %w", p.StudentA, err)
		}
		b, err := students.GetStudent(cmd.Context(), p.StudentB)
		if err != nil {
			return fmt.Errorf("loading student %s: %w", p.StudentB, err)
		}
		fmt.Printf("  %.3f  %s (%s)  <->  %s (%s)\n",
			p.Distance, a.FullName(), a.IndexNumber, b.FullName(), b.IndexNumber)
	}
	return nil
}
