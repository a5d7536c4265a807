package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/kbediako/examgate/internal/store"
)

// SessionsHandler handles exam session, room and range assignment
// management.
type SessionsHandler struct {
	sessions store.SessionStore
	keyWidth int
}

// NewSessionsHandler creates a sessions handler. keyWidth is the fixed
// index-number width all range assignments must use.
func NewSessionsHandler(sessions store.SessionStore, keyWidth int) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, keyWidth: keyWidth}
}

type sessionRequest struct {
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	ExamDate  string `json:"exam_date"` // YYYY-MM-DD
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type sessionView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject,omitempty"`
	ExamDate  string `json:"exam_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Status    string `json:"status"`
}

func toSessionView(s *store.ExamSession) sessionView {
	return sessionView{
		ID:        s.ID,
		Title:     s.Title,
		Subject:   s.Subject,
		ExamDate:  s.ExamDate.Format("2006-01-02"),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    s.Status,
	}
}

// validTimeOfDay checks the "HH:MM" time strings used for session bounds.
func validTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ListSessions returns all exam sessions.
func (h *SessionsHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions(r.Context())
	if err != nil {
		log.Printf("list sessions failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list sessions")
		return
	}

	views := make([]sessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, toSessionView(&sessions[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": views, "count": len(views)})
}

// CreateSession registers a new exam session in the scheduled state.
func (h *SessionsHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	examDate, err := time.Parse("2006-01-02", req.ExamDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "exam_date must be YYYY-MM-DD")
		return
	}
	if !validTimeOfDay(req.StartTime) {
		respondError(w, http.StatusBadRequest, "start_time must be HH:MM")
		return
	}
	if req.EndTime != "" && !validTimeOfDay(req.EndTime) {
		respondError(w, http.StatusBadRequest, "end_time must be HH:MM")
		return
	}

	s := &store.ExamSession{
		Title:     req.Title,
		Subject:   req.Subject,
		ExamDate:  examDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Status:    store.SessionScheduled,
	}
	if err := h.sessions.CreateSession(r.Context(), s); err != nil {
		log.Printf("create session failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	respondJSON(w, http.StatusCreated, toSessionView(s))
}

// GetSession returns one exam session.
func (h *SessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	s, err := h.sessions.GetSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		log.Printf("get session failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load session")
		return
	}
	respondJSON(w, http.StatusOK, toSessionView(s))
}

// ActivateSession marks a session active. Any other active session on the
// same date goes back to scheduled.
func (h *SessionsHandler) ActivateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	err := h.sessions.ActivateSession(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		log.Printf("activate session failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not activate session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "session activated"})
}

type roomRequest struct {
	RoomNumber string `json:"room_number"`
	Building   string `json:"building"`
	Capacity   int    `json:"capacity"`
}

// ListRooms returns all exam rooms.
func (h *SessionsHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.sessions.ListRooms(r.Context())
	if err != nil {
		log.Printf("list rooms failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list rooms")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// CreateRoom registers a new exam room.
func (h *SessionsHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.RoomNumber == "" {
		respondError(w, http.StatusBadRequest, "room_number is required")
		return
	}

	room := &store.ExamRoom{
		RoomNumber: req.RoomNumber,
		Building:   req.Building,
		Capacity:   req.Capacity,
	}
	if err := h.sessions.CreateRoom(r.Context(), room); err != nil {
		log.Printf("create room failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not create room")
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

type assignmentRequest struct {
	SessionID  int64  `json:"session_id"`
	RoomID     int64  `json:"room_id"`
	StartIndex string `json:"start_index"`
	EndIndex   string `json:"end_index"`
}

// ListAssignments returns all range assignments with joined room and
// session details.
func (h *SessionsHandler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.sessions.ListRangeAssignments(r.Context())
	if err != nil {
		log.Printf("list assignments failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list assignments")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"assignments": assignments, "count": len(assignments)})
}

// CreateAssignment maps an index range to a room for a session. Malformed
// keys are a 400; a range overlapping an existing assignment of the same
// session is a 409.
func (h *SessionsHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.SessionID == 0 || req.RoomID == 0 {
		respondError(w, http.StatusBadRequest, "session_id and room_id are required")
		return
	}
	if err := store.ValidateRange(req.StartIndex, req.EndIndex, h.keyWidth); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ra := &store.RangeAssignment{
		SessionID:  req.SessionID,
		RoomID:     req.RoomID,
		StartIndex: req.StartIndex,
		EndIndex:   req.EndIndex,
		Status:     store.SessionActive,
	}
	if err := h.sessions.CreateRangeAssignment(r.Context(), ra, h.keyWidth); err != nil {
		if errors.Is(err, store.ErrRangeOverlap) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		log.Printf("create assignment failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not create assignment")
		return
	}
	respondJSON(w, http.StatusCreated, ra)
}
