package store

import (
	"strings"
	"time"
)

// Student statuses. Deleted students are soft-deleted and keep their rows
// for audit history.
const (
	StudentActive   = "active"
	StudentInactive = "inactive"
	StudentDeleted  = "deleted"
)

// Exam session statuses.
const (
	SessionScheduled = "scheduled"
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Student represents an enrolled student. At most one descriptor per
// student; re-enrollment replaces it.
type Student struct {
	ID            string
	StudentNumber string
	IndexNumber   string
	FirstName     string
	MiddleName    string
	LastName      string
	Email         string
	Program       string
	YearOfStudy   int
	PhotoPath     string
	Descriptor    []float32
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName joins the name parts, skipping an empty middle name.
func (s *Student) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.FirstName, s.MiddleName, s.LastName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// EnrolledDescriptor is the minimal record the matcher scans: one active
// student and their stored descriptor.
type EnrolledDescriptor struct {
	StudentID  string
	Descriptor []float32
}

// ExamSession represents a scheduled examination sitting.
type ExamSession struct {
	ID        int64
	Title     string
	Subject   string
	ExamDate  time.Time
	StartTime string // "HH:MM"
	EndTime   string
	Status    string
	CreatedAt time.Time
}

// ExamRoom represents a physical examination room.
type ExamRoom struct {
	ID         int64
	RoomNumber string
	Building   string
	Capacity   int
	CreatedAt  time.Time
}

// RangeAssignment maps an inclusive index-number range to a room for one
// exam session. The resolver's room lookup joins session and room data so a
// single row carries everything the caller needs to display.
type RangeAssignment struct {
	ID         int64
	SessionID  int64
	RoomID     int64
	StartIndex string
	EndIndex   string
	Status     string
	CreatedAt  time.Time

	// Joined session and room data (populated by range queries).
	RoomNumber string
	Building   string
	ExamTitle  string
	Subject    string
	ExamDate   time.Time
	StartTime  string
	EndTime    string
}

// RoomLabel is the human-readable room string stored on attendance rows.
func (ra *RangeAssignment) RoomLabel() string {
	if ra.Building == "" {
		return ra.RoomNumber
	}
	return ra.RoomNumber + " - " + ra.Building
}

// VerificationLog is an append-only audit record of one verification
// attempt. StudentID is nil when no identity matched.
type VerificationLog struct {
	ID         int64
	StudentID  *string
	Success    bool
	Confidence float64
	Method     string
	IPAddress  string
	UserAgent  string
	SessionID  *int64
	Notes      string
	CreatedAt  time.Time
}

// AttendanceRecord marks a student present for an exam session. One row per
// (student, session); a repeat verification replaces the prior row.
type AttendanceRecord struct {
	ID         int64
	StudentID  string
	SessionID  int64
	VerifiedAt time.Time
	RoomLabel  string
	Method     string
	Confidence float64
	Status     string
	CreatedAt  time.Time
}

// Attendance row status.
const AttendancePresent = "present"

// Admin is a management-panel user.
type Admin struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// OTPCode is a one-time code sent by email for admin flows.
type OTPCode struct {
	ID        int64
	Email     string
	Code      string
	Purpose   string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}
