package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/kbediako/examgate/internal/store"
)

// StatsHandler reports aggregate counts for the admin dashboard.
type StatsHandler struct {
	students   store.StudentStore
	sessions   store.SessionStore
	attendance store.AttendanceStore
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(students store.StudentStore, sessions store.SessionStore, attendance store.AttendanceStore) *StatsHandler {
	return &StatsHandler{students: students, sessions: sessions, attendance: attendance}
}

// Get returns dashboard counts: students, enrolled descriptors, sessions,
// attendance rows and verification attempts in the last 24 hours.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	students, err := h.students.ListStudents(ctx, false)
	if err != nil {
		log.Printf("stats students failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not compute stats")
		return
	}
	enrolled := 0
	for i := range students {
		if len(students[i].Descriptor) > 0 {
			enrolled++
		}
	}

	sessions, err := h.sessions.ListSessions(ctx)
	if err != nil {
		log.Printf("stats sessions failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not compute stats")
		return
	}

	attendanceCount, err := h.attendance.CountAttendance(ctx)
	if err != nil {
		log.Printf("stats attendance failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not compute stats")
		return
	}

	attempts, err := h.attendance.CountLogsSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("stats logs failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not compute stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"students":          len(students),
		"enrolled_students": enrolled,
		"exam_sessions":     len(sessions),
		"attendance":        attendanceCount,
		"attempts_24h":      attempts,
	})
}
