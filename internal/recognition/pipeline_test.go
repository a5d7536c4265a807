package recognition

import (
	"context"
	"errors"
	"testing"

	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/store/mock"
)

func newTestVerifier(m *mock.Store) *Verifier {
	matcher := NewMatcher(0.6, 4)
	return NewVerifier(m, matcher, NewResolver(m), NewRecorder(m, "face_recognition"))
}

func enrollStudent(t *testing.T, m *mock.Store, indexNumber string, descriptor []float32) *store.Student {
	t.Helper()
	s := &store.Student{
		StudentNumber: "SN-" + indexNumber,
		IndexNumber:   indexNumber,
		FirstName:     "Ama",
		LastName:      "Serwaa",
		Descriptor:    descriptor,
	}
	if err := m.CreateStudent(context.Background(), s); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return s
}

func TestVerifyCheckedIn(t *testing.T) {
	m := mock.New()
	sessID := seedSessionWithRooms(t, m)
	student := enrollStudent(t, m, "0000075", vec(0))
	v := newTestVerifier(m)

	res, err := v.Verify(context.Background(), vec(0.2), VerifyOptions{SessionID: &sessID})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != StatusCheckedIn {
		t.Fatalf("status = %s, want checked_in", res.Status)
	}
	if res.Student == nil || res.Student.ID != student.ID {
		t.Errorf("student = %+v, want %s", res.Student, student.ID)
	}
	if res.Assignment == nil || res.Assignment.RoomNumber != "Room 2" {
		t.Errorf("assignment = %+v, want Room 2", res.Assignment)
	}
	if res.Confidence < 0.79 || res.Confidence > 0.81 {
		t.Errorf("confidence = %f, want ~0.8", res.Confidence)
	}
	if got := len(m.AttendanceRows()); got != 1 {
		t.Errorf("got %d attendance rows, want 1", got)
	}
}

func TestVerifyUnassigned(t *testing.T) {
	m := mock.New()
	sessID := seedSessionWithRooms(t, m)
	enrollStudent(t, m, "0000150", vec(0)) // outside every range
	v := newTestVerifier(m)

	res, err := v.Verify(context.Background(), vec(0.2), VerifyOptions{SessionID: &sessID})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != StatusUnassigned {
		t.Fatalf("status = %s, want verified_unassigned", res.Status)
	}
	if res.Student == nil {
		t.Error("identified student missing from result")
	}
	if got := len(m.AttendanceRows()); got != 0 {
		t.Errorf("got %d attendance rows, want 0", got)
	}
	if got := len(m.Logs()); got != 1 {
		t.Errorf("got %d log rows, want 1", got)
	}
}

func TestVerifyNoMatch(t *testing.T) {
	m := mock.New()
	sessID := seedSessionWithRooms(t, m)
	enrollStudent(t, m, "0000075", vec(0))
	v := newTestVerifier(m)

	res, err := v.Verify(context.Background(), vec(0.9), VerifyOptions{SessionID: &sessID})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != StatusNoMatch {
		t.Fatalf("status = %s, want no_match", res.Status)
	}
	if res.Student != nil {
		t.Errorf("student = %+v, want nil", res.Student)
	}

	logs := m.Logs()
	if len(logs) != 1 {
		t.Fatalf("got %d log rows, want 1", len(logs))
	}
	if logs[0].Success {
		t.Error("no-match attempt logged as success")
	}
}

func TestVerifyWrongDimensionIsInputDefect(t *testing.T) {
	m := mock.New()
	v := newTestVerifier(m)

	res, err := v.Verify(context.Background(), []float32{0.1, 0.2}, VerifyOptions{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Status != StatusCannotEvaluate {
		t.Fatalf("status = %s, want cannot_evaluate", res.Status)
	}
	if got := len(m.Logs()); got != 1 {
		t.Errorf("got %d log rows, want 1 (defects are logged attempts)", got)
	}
}

func TestVerifyStorageErrorIsReported(t *testing.T) {
	m := mock.New()
	m.ActiveDescriptorsErr = errors.New("connection refused")
	v := newTestVerifier(m)

	_, err := v.Verify(context.Background(), vec(0), VerifyOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindStorage {
		t.Errorf("error kind = %q, want storage", KindOf(err))
	}
	if got := len(m.Logs()); got != 1 {
		t.Errorf("got %d log rows, want 1 (read failure still logged)", got)
	}
}

func TestVerifyEveryAttemptLeavesOneLogRow(t *testing.T) {
	m := mock.New()
	sessID := seedSessionWithRooms(t, m)
	enrollStudent(t, m, "0000075", vec(0))
	v := newTestVerifier(m)
	ctx := context.Background()

	// Two check-ins for the same student, a no-match, a wrong-dimension
	// defect and one more match.
	probes := [][]float32{
		vec(0.2),
		vec(0.2),
		vec(0.9),
		{0.1, 0.2},
		vec(0.55),
	}
	for i, p := range probes {
		if _, err := v.Verify(ctx, p, VerifyOptions{SessionID: &sessID}); err != nil {
			t.Fatalf("Verify #%d: %v", i, err)
		}
	}
	if err := v.RecordDefect(ctx, "no face detected", VerifyOptions{SessionID: &sessID}); err != nil {
		t.Fatalf("RecordDefect: %v", err)
	}

	if got := len(m.Logs()); got != len(probes)+1 {
		t.Errorf("got %d log rows, want %d", got, len(probes)+1)
	}
	if got := len(m.AttendanceRows()); got != 1 {
		t.Errorf("got %d attendance rows, want 1", got)
	}
}
