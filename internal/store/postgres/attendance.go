package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kbediako/examgate/internal/store"
)

// AttendanceRepository provides PostgreSQL-backed storage for verification
// logs and attendance rows. Logs are append-only; attendance is one row per
// (student, session) maintained by upsert.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates an attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// AppendVerificationLog inserts one audit row. Log rows are never updated
// or deleted.
func (r *AttendanceRepository) AppendVerificationLog(ctx context.Context, entry store.VerificationLog) error {
	query := `
		INSERT INTO verification_logs (student_id, success, confidence, method, ip_address, user_agent, exam_session_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.StudentID, entry.Success, entry.Confidence, entry.Method,
		entry.IPAddress, entry.UserAgent, entry.SessionID, entry.Notes)
	if err != nil {
		return fmt.Errorf("insert verification log: %w", err)
	}
	return nil
}

// UpsertAttendance inserts the attendance row or replaces the prior one
// for the same (student, session) pair.
func (r *AttendanceRepository) UpsertAttendance(ctx context.Context, rec store.AttendanceRecord) error {
	query := `
		INSERT INTO exam_attendance (student_id, exam_session_id, verified_at, room_label, method, confidence, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, exam_session_id) DO UPDATE
		SET verified_at = EXCLUDED.verified_at,
			room_label = EXCLUDED.room_label,
			method = EXCLUDED.method,
			confidence = EXCLUDED.confidence,
			status = EXCLUDED.status
	`
	_, err := r.pool.Exec(ctx, query,
		rec.StudentID, rec.SessionID, rec.VerifiedAt, rec.RoomLabel, rec.Method, rec.Confidence, rec.Status)
	if err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// ListAttendance returns attendance rows, optionally filtered by session.
func (r *AttendanceRepository) ListAttendance(ctx context.Context, sessionID *int64) ([]store.AttendanceRecord, error) {
	query := `
		SELECT id, student_id, exam_session_id, verified_at, room_label, method, confidence, status, created_at
		FROM exam_attendance
	`
	var args []any
	if sessionID != nil {
		query += " WHERE exam_session_id = $1"
		args = append(args, *sessionID)
	}
	query += " ORDER BY verified_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []store.AttendanceRecord
	for rows.Next() {
		var rec store.AttendanceRecord
		err := rows.Scan(&rec.ID, &rec.StudentID, &rec.SessionID, &rec.VerifiedAt,
			&rec.RoomLabel, &rec.Method, &rec.Confidence, &rec.Status, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return out, nil
}

// RecentLogs returns the newest verification log rows, newest first.
func (r *AttendanceRepository) RecentLogs(ctx context.Context, limit int) ([]store.VerificationLog, error) {
	query := `
		SELECT id, student_id, success, confidence, method, ip_address, user_agent, exam_session_id, notes, created_at
		FROM verification_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent logs: %w", err)
	}
	defer rows.Close()

	var out []store.VerificationLog
	for rows.Next() {
		var l store.VerificationLog
		err := rows.Scan(&l.ID, &l.StudentID, &l.Success, &l.Confidence, &l.Method,
			&l.IPAddress, &l.UserAgent, &l.SessionID, &l.Notes, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return out, nil
}

// CountLogsSince counts verification attempts at or after the given time.
func (r *AttendanceRepository) CountLogsSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM verification_logs WHERE created_at >= $1", since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return count, nil
}

// CountAttendance counts attendance rows across all sessions.
func (r *AttendanceRepository) CountAttendance(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM exam_attendance").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}
