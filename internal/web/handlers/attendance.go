package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/kbediako/examgate/internal/store"
)

// AttendanceHandler exposes attendance rows and the verification audit
// trail.
type AttendanceHandler struct {
	attendance store.AttendanceStore
}

// NewAttendanceHandler creates an attendance handler.
func NewAttendanceHandler(attendance store.AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List returns attendance rows, optionally filtered with ?session_id=.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	var sessionID *int64
	if v := r.URL.Query().Get("session_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "session_id must be numeric")
			return
		}
		sessionID = &id
	}

	records, err := h.attendance.ListAttendance(r.Context(), sessionID)
	if err != nil {
		log.Printf("list attendance failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list attendance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"attendance": records, "count": len(records)})
}

// Logs returns the newest verification log rows. ?limit= caps the result,
// default 50, max 500.
func (h *AttendanceHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > 500 {
		limit = 500
	}

	logs, err := h.attendance.RecentLogs(r.Context(), limit)
	if err != nil {
		log.Printf("list logs failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"logs": logs, "count": len(logs)})
}
