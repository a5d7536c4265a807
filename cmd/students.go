package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbediako/examgate/internal/config"
	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/store/postgres"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage enrolled students",
}

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students",
	RunE:  runStudentList,
}

var studentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new student",
	RunE:  runStudentCreate,
}

func init() {
	rootCmd.AddCommand(studentCmd)
	studentCmd.AddCommand(studentListCmd)
	studentCmd.AddCommand(studentCreateCmd)

	studentListCmd.Flags().String("search", "", "Filter by name (diacritics and hyphens ignored)")
	studentListCmd.Flags().Bool("all", false, "Include soft-deleted students")

	studentCreateCmd.Flags().String("student-number", "", "Student number (required)")
	studentCreateCmd.Flags().String("index-number", "", "Exam index number (required)")
	studentCreateCmd.Flags().String("first-name", "", "First name (required)")
	studentCreateCmd.Flags().String("middle-name", "", "Middle name")
	studentCreateCmd.Flags().String("last-name", "", "Last name (required)")
	studentCreateCmd.Flags().String("email", "", "Email address")
	studentCreateCmd.Flags().String("program", "", "Program of study")
	studentCreateCmd.Flags().Int("year", 0, "Year of study")
}

func runStudentList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)

	var students []store.Student
	if search := mustGetString(cmd, "search"); search != "" {
		students, err = repo.SearchStudentsByName(cmd.Context(), search)
	} else {
		students, err = repo.ListStudents(cmd.Context(), mustGetBool(cmd, "all"))
	}
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}

	if len(students) == 0 {
		fmt.Println("No students found")
		return nil
	}
	for i := range students {
		s := &students[i]
		enrolled := " "
		if len(s.Descriptor) > 0 {
			enrolled = "*"
		}
		fmt.Printf("%s %-10s %-30s %s\n", enrolled, s.IndexNumber, s.FullName(), s.Status)
	}
	fmt.Printf("%d students (* = face enrolled)\n", len(students))
	return nil
}

func runStudentCreate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	s := &store.Student{
		StudentNumber: mustGetString(cmd, "student-number"),
		IndexNumber:   mustGetString(cmd, "index-number"),
		FirstName:     mustGetString(cmd, "first-name"),
		MiddleName:    mustGetString(cmd, "middle-name"),
		LastName:      mustGetString(cmd, "last-name"),
		Email:         mustGetString(cmd, "email"),
		Program:       mustGetString(cmd, "program"),
		YearOfStudy:   mustGetInt(cmd, "year"),
	}
	if s.StudentNumber == "" || s.IndexNumber == "" || s.FirstName == "" || s.LastName == "" {
		return fmt.Errorf("--student-number, --index-number, --first-name and --last-name are required")
	}
	if err := store.ValidateKey(s.IndexNumber, cfg.Recognition.IndexKeyWidth); err != nil {
		return fmt.Errorf("invalid index number: %w", err)
	}

	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)
	if err := repo.CreateStudent(cmd.Context(), s); err != nil {
		return fmt.Errorf("creating student: %w", err)
	}

	fmt.Printf("Created student %s (%s)\n", s.FullName(), s.ID)
	fmt.Println("Run 'examgate student enroll' to register their face")
	return nil
}
