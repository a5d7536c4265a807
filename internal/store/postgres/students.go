package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/kbediako/examgate/internal/store"
)

const studentColumns = `id, student_number, index_number, first_name, middle_name, last_name,
	email, program, year_of_study, photo_path, descriptor, status, created_at, updated_at`

// StudentRepository provides PostgreSQL-backed student storage. Descriptors
// live in a pgvector column on the student row; at most one per student.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*store.Student, error) {
	var (
		s   store.Student
		vec sql.Null[pgvector.Vector]
	)
	err := row.Scan(
		&s.ID, &s.StudentNumber, &s.IndexNumber, &s.FirstName, &s.MiddleName, &s.LastName,
		&s.Email, &s.Program, &s.YearOfStudy, &s.PhotoPath, &vec, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if vec.Valid {
		s.Descriptor = vec.V.Slice()
	}
	return &s, nil
}

func descriptorValue(descriptor []float32) any {
	if len(descriptor) == 0 {
		return nil
	}
	return pgvector.NewVector(descriptor)
}

// CreateStudent inserts a new student. A missing id is generated.
func (r *StudentRepository) CreateStudent(ctx context.Context, s *store.Student) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = store.StudentActive
	}

	query := `
		INSERT INTO students (id, student_number, index_number, first_name, middle_name, last_name,
			email, program, year_of_study, photo_path, descriptor, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		s.ID, s.StudentNumber, s.IndexNumber, s.FirstName, s.MiddleName, s.LastName,
		s.Email, s.Program, s.YearOfStudy, s.PhotoPath, descriptorValue(s.Descriptor), s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student by id.
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (*store.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	s, err := scanStudent(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// GetStudentByIndexNumber retrieves a non-deleted student by index number.
func (r *StudentRepository) GetStudentByIndexNumber(ctx context.Context, indexNumber string) (*store.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE index_number = $1 AND status <> 'deleted'"
	s, err := scanStudent(r.pool.QueryRow(ctx, query, indexNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student by index number: %w", err)
	}
	return s, nil
}

// ListStudents returns all students, optionally including soft-deleted rows.
func (r *StudentRepository) ListStudents(ctx context.Context, includeDeleted bool) ([]store.Student, error) {
	query := "SELECT " + studentColumns + " FROM students"
	if !includeDeleted {
		query += " WHERE status <> 'deleted'"
	}
	query += " ORDER BY last_name, first_name"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	return collectStudents(rows)
}

// SearchStudentsByName finds students whose full name contains the query,
// ignoring case, diacritics and dash/space differences. Normalization
// matches store.NormalizeName so "adjoa-owusu" finds "Adjoa Owusu".
func (r *StudentRepository) SearchStudentsByName(ctx context.Context, name string) ([]store.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE status <> 'deleted'
		  AND LOWER(REPLACE(unaccent(first_name || ' ' || middle_name || ' ' || last_name), '-', ' ')) LIKE '%' || $1 || '%'
		ORDER BY last_name, first_name
	`
	rows, err := r.pool.Query(ctx, query, store.NormalizeName(name))
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	defer rows.Close()

	return collectStudents(rows)
}

func collectStudents(rows *sql.Rows) ([]store.Student, error) {
	var out []store.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return out, nil
}

// UpdateStudent updates the mutable profile fields of a student.
func (r *StudentRepository) UpdateStudent(ctx context.Context, s *store.Student) error {
	query := `
		UPDATE students
		SET student_number = $2, index_number = $3, first_name = $4, middle_name = $5,
			last_name = $6, email = $7, program = $8, year_of_study = $9,
			photo_path = $10, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		s.ID, s.StudentNumber, s.IndexNumber, s.FirstName, s.MiddleName,
		s.LastName, s.Email, s.Program, s.YearOfStudy, s.PhotoPath,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return requireRow(result)
}

// SetStudentStatus changes a student's lifecycle status. Deleted students
// keep their rows so verification logs stay resolvable.
func (r *StudentRepository) SetStudentStatus(ctx context.Context, id, status string) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE students SET status = $2, updated_at = NOW() WHERE id = $1", id, status)
	if err != nil {
		return fmt.Errorf("set student status: %w", err)
	}
	return requireRow(result)
}

// PutDescriptor stores a descriptor for the student, replacing any
// previous one.
func (r *StudentRepository) PutDescriptor(ctx context.Context, studentID string, descriptor []float32) error {
	result, err := r.pool.Exec(ctx,
		"UPDATE students SET descriptor = $2, updated_at = NOW() WHERE id = $1",
		studentID, descriptorValue(descriptor))
	if err != nil {
		return fmt.Errorf("put descriptor: %w", err)
	}
	return requireRow(result)
}

// ActiveDescriptors enumerates descriptors of all active students in
// enrollment order. The stable order keeps distance ties deterministic.
func (r *StudentRepository) ActiveDescriptors(ctx context.Context) ([]store.EnrolledDescriptor, error) {
	query := `
		SELECT id, descriptor
		FROM students
		WHERE status = 'active' AND descriptor IS NOT NULL
		ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	var out []store.EnrolledDescriptor
	for rows.Next() {
		var (
			id  string
			vec pgvector.Vector
		)
		if err := rows.Scan(&id, &vec); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		out = append(out, store.EnrolledDescriptor{StudentID: id, Descriptor: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return out, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
