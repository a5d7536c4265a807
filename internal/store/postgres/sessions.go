package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kbediako/examgate/internal/store"
)

// SessionRepository provides PostgreSQL-backed storage for exam sessions,
// rooms and index-range assignments.
type SessionRepository struct {
	pool *Pool
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(pool *Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// CreateSession inserts a new exam session in the scheduled state.
func (r *SessionRepository) CreateSession(ctx context.Context, s *store.ExamSession) error {
	if s.Status == "" {
		s.Status = store.SessionScheduled
	}
	query := `
		INSERT INTO exam_sessions (title, subject, exam_date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		s.Title, s.Subject, s.ExamDate, s.StartTime, s.EndTime, s.Status,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exam session: %w", err)
	}
	return nil
}

// ListSessions returns all exam sessions, newest exam first.
func (r *SessionRepository) ListSessions(ctx context.Context) ([]store.ExamSession, error) {
	query := `
		SELECT id, title, subject, exam_date, start_time, end_time, status, created_at
		FROM exam_sessions
		ORDER BY exam_date DESC, start_time DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list exam sessions: %w", err)
	}
	defer rows.Close()

	var out []store.ExamSession
	for rows.Next() {
		var s store.ExamSession
		if err := rows.Scan(&s.ID, &s.Title, &s.Subject, &s.ExamDate, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exam session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam sessions: %w", err)
	}
	return out, nil
}

// GetSession retrieves an exam session by id.
func (r *SessionRepository) GetSession(ctx context.Context, id int64) (*store.ExamSession, error) {
	query := `
		SELECT id, title, subject, exam_date, start_time, end_time, status, created_at
		FROM exam_sessions
		WHERE id = $1
	`
	var s store.ExamSession
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.Title, &s.Subject, &s.ExamDate, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam session: %w", err)
	}
	return &s, nil
}

// ActivateSession marks the session active and demotes any other active
// session on the same date back to scheduled, in one transaction.
func (r *SessionRepository) ActivateSession(ctx context.Context, id int64) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var examDate time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT exam_date FROM exam_sessions WHERE id = $1 FOR UPDATE", id).Scan(&examDate)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock exam session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE exam_sessions
		SET status = 'scheduled'
		WHERE exam_date = $1 AND status = 'active' AND id <> $2
	`, examDate, id)
	if err != nil {
		return fmt.Errorf("demote active sessions: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE exam_sessions SET status = 'active' WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("activate session: %w", err)
	}

	return tx.Commit()
}

// CreateRoom inserts a new exam room.
func (r *SessionRepository) CreateRoom(ctx context.Context, room *store.ExamRoom) error {
	query := `
		INSERT INTO exam_rooms (room_number, building, capacity)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query, room.RoomNumber, room.Building, room.Capacity).
		Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert exam room: %w", err)
	}
	return nil
}

// ListRooms returns all exam rooms.
func (r *SessionRepository) ListRooms(ctx context.Context) ([]store.ExamRoom, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, room_number, building, capacity, created_at FROM exam_rooms ORDER BY building, room_number")
	if err != nil {
		return nil, fmt.Errorf("list exam rooms: %w", err)
	}
	defer rows.Close()

	var out []store.ExamRoom
	for rows.Next() {
		var room store.ExamRoom
		if err := rows.Scan(&room.ID, &room.RoomNumber, &room.Building, &room.Capacity, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exam room: %w", err)
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam rooms: %w", err)
	}
	return out, nil
}

// CreateRangeAssignment validates the range and inserts it. Validation and
// insert run in one transaction so concurrent creates cannot slip an
// overlapping range past the check.
func (r *SessionRepository) CreateRangeAssignment(ctx context.Context, ra *store.RangeAssignment, keyWidth int) error {
	if err := store.ValidateRange(ra.StartIndex, ra.EndIndex, keyWidth); err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, start_index, end_index
		FROM range_assignments
		WHERE exam_session_id = $1 AND status = 'active'
		FOR UPDATE
	`, ra.SessionID)
	if err != nil {
		return fmt.Errorf("query existing ranges: %w", err)
	}

	type existing struct {
		id         int64
		start, end string
	}
	var current []existing
	for rows.Next() {
		var e existing
		if err := rows.Scan(&e.id, &e.start, &e.end); err != nil {
			rows.Close()
			return fmt.Errorf("scan existing range: %w", err)
		}
		current = append(current, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate existing ranges: %w", err)
	}
	rows.Close()

	for _, e := range current {
		if store.RangesOverlap(ra.StartIndex, ra.EndIndex, e.start, e.end) {
			return fmt.Errorf("range %s-%s against assignment %d (%s-%s): %w",
				ra.StartIndex, ra.EndIndex, e.id, e.start, e.end, store.ErrRangeOverlap)
		}
	}

	if ra.Status == "" {
		ra.Status = store.SessionActive
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO range_assignments (exam_session_id, exam_room_id, start_index, end_index, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, ra.SessionID, ra.RoomID, ra.StartIndex, ra.EndIndex, ra.Status).Scan(&ra.ID, &ra.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert range assignment: %w", err)
	}

	return tx.Commit()
}

const rangeColumns = `
	ra.id, ra.exam_session_id, ra.exam_room_id, ra.start_index, ra.end_index, ra.status, ra.created_at,
	rm.room_number, rm.building,
	es.title, es.subject, es.exam_date, es.start_time, es.end_time
`

const rangeJoins = `
	FROM range_assignments ra
	JOIN exam_rooms rm ON rm.id = ra.exam_room_id
	JOIN exam_sessions es ON es.id = ra.exam_session_id
`

func scanRange(row rowScanner) (store.RangeAssignment, error) {
	var ra store.RangeAssignment
	err := row.Scan(
		&ra.ID, &ra.SessionID, &ra.RoomID, &ra.StartIndex, &ra.EndIndex, &ra.Status, &ra.CreatedAt,
		&ra.RoomNumber, &ra.Building,
		&ra.ExamTitle, &ra.Subject, &ra.ExamDate, &ra.StartTime, &ra.EndTime,
	)
	return ra, err
}

func collectRanges(rows *sql.Rows) ([]store.RangeAssignment, error) {
	var out []store.RangeAssignment
	for rows.Next() {
		ra, err := scanRange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan range assignment: %w", err)
		}
		out = append(out, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate range assignments: %w", err)
	}
	return out, nil
}

// ListRangeAssignments returns all range assignments with room and session
// data joined in.
func (r *SessionRepository) ListRangeAssignments(ctx context.Context) ([]store.RangeAssignment, error) {
	query := "SELECT " + rangeColumns + rangeJoins + "ORDER BY es.exam_date DESC, es.start_time DESC, ra.start_index"
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list range assignments: %w", err)
	}
	defer rows.Close()

	return collectRanges(rows)
}

// RangesForSession returns the active ranges of one session.
func (r *SessionRepository) RangesForSession(ctx context.Context, sessionID int64) ([]store.RangeAssignment, error) {
	query := "SELECT " + rangeColumns + rangeJoins + `
		WHERE ra.exam_session_id = $1 AND ra.status = 'active'
		ORDER BY es.exam_date DESC, es.start_time DESC, ra.start_index
	`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session ranges: %w", err)
	}
	defer rows.Close()

	return collectRanges(rows)
}

// RangesActiveOn returns the active ranges of all sessions that are both
// marked active and scheduled on the given day.
func (r *SessionRepository) RangesActiveOn(ctx context.Context, day time.Time) ([]store.RangeAssignment, error) {
	query := "SELECT " + rangeColumns + rangeJoins + `
		WHERE ra.status = 'active' AND es.status = 'active' AND es.exam_date = $1
		ORDER BY es.exam_date DESC, es.start_time DESC, ra.start_index
	`
	rows, err := r.pool.Query(ctx, query, day.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query active ranges: %w", err)
	}
	defer rows.Close()

	return collectRanges(rows)
}
