package recognition

import (
	"context"
	"errors"
	"time"

	"github.com/kbediako/examgate/internal/store"
)

// Recorder persists verification outcomes. Every attempt appends exactly
// one log row; an attendance row is written only when the attempt both
// matched a student and resolved to a room. The two writes are independent
// commitments, never one transaction: the audit row for an attempt is
// worth keeping even when the attendance write fails.
type Recorder struct {
	store  store.AttendanceWriter
	method string
	now    func() time.Time
}

// NewRecorder creates a recorder. method labels log and attendance rows
// with the recognition backend in use.
func NewRecorder(s store.AttendanceWriter, method string) *Recorder {
	return &Recorder{store: s, method: method, now: time.Now}
}

// Record persists the outcome of one verification attempt. Both writes are
// attempted regardless of the other's result; failures are joined.
func (r *Recorder) Record(ctx context.Context, res MatchResult, assignment *store.RangeAssignment, client ClientContext, sessionID *int64, notes string) error {
	entry := store.VerificationLog{
		Success:    res.Matched,
		Confidence: res.Confidence,
		Method:     r.method,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		SessionID:  sessionID,
		Notes:      notes,
	}
	if res.Matched {
		id := res.StudentID
		entry.StudentID = &id
	}
	if assignment != nil {
		sid := assignment.SessionID
		entry.SessionID = &sid
	}

	logErr := r.store.AppendVerificationLog(ctx, entry)

	var attErr error
	if res.Matched && assignment != nil {
		attErr = r.store.UpsertAttendance(ctx, store.AttendanceRecord{
			StudentID:  res.StudentID,
			SessionID:  assignment.SessionID,
			VerifiedAt: r.now(),
			RoomLabel:  assignment.RoomLabel(),
			Method:     r.method,
			Confidence: res.Confidence,
			Status:     store.AttendancePresent,
		})
	}

	if logErr != nil || attErr != nil {
		return NewError(KindStorage, errors.Join(logErr, attErr))
	}
	return nil
}

// defectMethodSuffix marks log rows whose image never produced a usable
// descriptor, so they are queryable apart from ordinary no-match rows.
const defectMethodSuffix = ":input_defect"

// RecordDefect appends a log row for an attempt that could not be
// evaluated at all (no face found, unreadable image, bad descriptor).
// Defective inputs still count as attempts in the audit trail.
func (r *Recorder) RecordDefect(ctx context.Context, reason string, client ClientContext, sessionID *int64) error {
	err := r.store.AppendVerificationLog(ctx, store.VerificationLog{
		Success:    false,
		Confidence: 0,
		Method:     r.method + defectMethodSuffix,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
		SessionID:  sessionID,
		Notes:      reason,
	})
	if err != nil {
		return NewError(KindStorage, err)
	}
	return nil
}
