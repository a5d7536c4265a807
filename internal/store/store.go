package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when no row exists.
var ErrNotFound = errors.New("not found")

// ErrRangeOverlap is returned when a new range assignment intersects an
// existing active assignment of the same session.
var ErrRangeOverlap = errors.New("range overlaps an existing assignment")

// DescriptorReader provides read access to enrolled face descriptors.
// The descriptor set is read-mostly; matching never requires locking
// beyond the storage layer's own read consistency.
type DescriptorReader interface {
	// ActiveDescriptors enumerates descriptors of all active students.
	ActiveDescriptors(ctx context.Context) ([]EnrolledDescriptor, error)
	// GetStudent retrieves a student by id, ErrNotFound if missing.
	GetStudent(ctx context.Context, id string) (*Student, error)
}

// DescriptorWriter provides write access to descriptors. Put replaces any
// existing descriptor for the student.
type DescriptorWriter interface {
	PutDescriptor(ctx context.Context, studentID string, descriptor []float32) error
}

// RangeReader enumerates index-range assignments for room resolution.
type RangeReader interface {
	// RangesForSession returns active ranges for an explicit session.
	RangesForSession(ctx context.Context, sessionID int64) ([]RangeAssignment, error)
	// RangesActiveOn returns active ranges of sessions that are both
	// marked active and scheduled on the given day.
	RangesActiveOn(ctx context.Context, day time.Time) ([]RangeAssignment, error)
}

// AttendanceWriter records verification outcomes. The log append and the
// attendance upsert are independent writes, never one transaction: the log
// row documenting an attempt is valuable even when the attendance write
// fails.
type AttendanceWriter interface {
	AppendVerificationLog(ctx context.Context, entry VerificationLog) error
	// UpsertAttendance replaces any prior row for (student, session).
	UpsertAttendance(ctx context.Context, rec AttendanceRecord) error
}

// StudentStore is the management surface over students.
type StudentStore interface {
	DescriptorReader
	DescriptorWriter

	CreateStudent(ctx context.Context, s *Student) error
	ListStudents(ctx context.Context, includeDeleted bool) ([]Student, error)
	GetStudentByIndexNumber(ctx context.Context, indexNumber string) (*Student, error)
	UpdateStudent(ctx context.Context, s *Student) error
	SetStudentStatus(ctx context.Context, id, status string) error
	SearchStudentsByName(ctx context.Context, name string) ([]Student, error)
}

// SessionStore is the management surface over exam sessions, rooms and
// range assignments.
type SessionStore interface {
	RangeReader

	CreateSession(ctx context.Context, s *ExamSession) error
	ListSessions(ctx context.Context) ([]ExamSession, error)
	GetSession(ctx context.Context, id int64) (*ExamSession, error)
	// ActivateSession marks the session active and demotes any other
	// active session on the same date back to scheduled.
	ActivateSession(ctx context.Context, id int64) error

	CreateRoom(ctx context.Context, r *ExamRoom) error
	ListRooms(ctx context.Context) ([]ExamRoom, error)

	// CreateRangeAssignment validates key width and overlap against the
	// session's existing active ranges before inserting.
	CreateRangeAssignment(ctx context.Context, ra *RangeAssignment, keyWidth int) error
	ListRangeAssignments(ctx context.Context) ([]RangeAssignment, error)
}

// AdminStore is the management surface over panel users, their one-time
// codes and login sessions.
type AdminStore interface {
	CreateAdmin(ctx context.Context, a *Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)
	GetAdminByEmail(ctx context.Context, email string) (*Admin, error)
	TouchLastLogin(ctx context.Context, adminID string) error

	CreateOTP(ctx context.Context, otp *OTPCode) error
	// ConsumeOTP marks a matching live code as used; each code is
	// single-use.
	ConsumeOTP(ctx context.Context, email, code, purpose string) error
}

// AttendanceStore is the reporting surface over logs and attendance.
type AttendanceStore interface {
	AttendanceWriter

	ListAttendance(ctx context.Context, sessionID *int64) ([]AttendanceRecord, error)
	RecentLogs(ctx context.Context, limit int) ([]VerificationLog, error)
	CountLogsSince(ctx context.Context, since time.Time) (int, error)
	CountAttendance(ctx context.Context) (int, error)
}
