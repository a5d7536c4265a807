package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/store/mock"
)

func seedAttendance(t *testing.T, m *mock.Store, studentID string, sessionID int64) {
	t.Helper()
	rec := store.AttendanceRecord{
		StudentID:  studentID,
		SessionID:  sessionID,
		VerifiedAt: time.Now(),
		RoomLabel:  "Room 1 - Science Block",
		Method:     "face_recognition",
		Confidence: 0.8,
		Status:     store.AttendancePresent,
	}
	if err := m.UpsertAttendance(context.Background(), rec); err != nil {
		t.Fatalf("UpsertAttendance: %v", err)
	}
}

func TestListAttendanceFiltersBySession(t *testing.T) {
	m := mock.New()
	sessID := seedExam(t, m)
	s := seedStudent(t, m, "0000010", d128(0))
	seedAttendance(t, m, s.ID, sessID)
	seedAttendance(t, m, s.ID, sessID+100)

	h := NewAttendanceHandler(m)

	req := httptest.NewRequest("GET", "/api/v1/attendance?session_id="+strconv.FormatInt(sessID, 10), nil)
	recorder := httptest.NewRecorder()
	h.List(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Count int `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}
}

func TestListAttendanceBadSessionID(t *testing.T) {
	h := NewAttendanceHandler(mock.New())

	req := httptest.NewRequest("GET", "/api/v1/attendance?session_id=abc", nil)
	recorder := httptest.NewRecorder()
	h.List(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestLogsLimit(t *testing.T) {
	m := mock.New()
	for i := 0; i < 5; i++ {
		err := m.AppendVerificationLog(context.Background(), store.VerificationLog{
			Success: false,
			Method:  "face_recognition",
			Notes:   "no match",
		})
		if err != nil {
			t.Fatalf("AppendVerificationLog: %v", err)
		}
	}

	h := NewAttendanceHandler(m)

	req := httptest.NewRequest("GET", "/api/v1/logs?limit=2", nil)
	recorder := httptest.NewRecorder()
	h.Logs(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Count int `json:"count"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
}

func TestLogsRejectsBadLimit(t *testing.T) {
	h := NewAttendanceHandler(mock.New())

	req := httptest.NewRequest("GET", "/api/v1/logs?limit=-1", nil)
	recorder := httptest.NewRecorder()
	h.Logs(recorder, req)
	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestStats(t *testing.T) {
	m := mock.New()
	sessID := seedExam(t, m)
	enrolled := seedStudent(t, m, "0000010", d128(0))
	seedStudent(t, m, "0000011", nil)
	seedAttendance(t, m, enrolled.ID, sessID)

	err := m.AppendVerificationLog(context.Background(), store.VerificationLog{
		StudentID: &enrolled.ID,
		Success:   true,
		Method:    "face_recognition",
	})
	if err != nil {
		t.Fatalf("AppendVerificationLog: %v", err)
	}

	h := NewStatsHandler(m, m, m)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	recorder := httptest.NewRecorder()
	h.Get(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Students         int `json:"students"`
		EnrolledStudents int `json:"enrolled_students"`
		ExamSessions     int `json:"exam_sessions"`
		Attendance       int `json:"attendance"`
		Attempts24h      int `json:"attempts_24h"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Students != 2 {
		t.Errorf("students = %d, want 2", resp.Students)
	}
	if resp.EnrolledStudents != 1 {
		t.Errorf("enrolled_students = %d, want 1", resp.EnrolledStudents)
	}
	if resp.ExamSessions != 1 {
		t.Errorf("exam_sessions = %d, want 1", resp.ExamSessions)
	}
	if resp.Attendance != 1 {
		t.Errorf("attendance = %d, want 1", resp.Attendance)
	}
	if resp.Attempts24h != 1 {
		t.Errorf("attempts_24h = %d, want 1", resp.Attempts24h)
	}
}
