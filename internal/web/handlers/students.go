package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kbediako/examgate/internal/encoder"
	"github.com/kbediako/examgate/internal/store"
)

// StudentsHandler handles student management endpoints.
type StudentsHandler struct {
	students     store.StudentStore
	encoder      FaceEncoder
	maxImageEdge int
}

// NewStudentsHandler creates a students handler.
func NewStudentsHandler(students store.StudentStore, enc FaceEncoder, maxImageEdge int) *StudentsHandler {
	return &StudentsHandler{students: students, encoder: enc, maxImageEdge: maxImageEdge}
}

type studentRequest struct {
	StudentNumber string `json:"student_number"`
	IndexNumber   string `json:"index_number"`
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Program       string `json:"program"`
	YearOfStudy   int    `json:"year_of_study"`
}

func (req *studentRequest) validate() error {
	if req.StudentNumber == "" || req.IndexNumber == "" {
		return errors.New("student_number and index_number are required")
	}
	if req.FirstName == "" || req.LastName == "" {
		return errors.New("first_name and last_name are required")
	}
	return nil
}

type studentView struct {
	ID            string `json:"id"`
	StudentNumber string `json:"student_number"`
	IndexNumber   string `json:"index_number"`
	FullName      string `json:"full_name"`
	Email         string `json:"email,omitempty"`
	Program       string `json:"program,omitempty"`
	YearOfStudy   int    `json:"year_of_study,omitempty"`
	Status        string `json:"status"`
	Enrolled      bool   `json:"enrolled"` // has a face descriptor
}

func toStudentView(s *store.Student) studentView {
	return studentView{
		ID:            s.ID,
		StudentNumber: s.StudentNumber,
		IndexNumber:   s.IndexNumber,
		FullName:      s.FullName(),
		Email:         s.Email,
		Program:       s.Program,
		YearOfStudy:   s.YearOfStudy,
		Status:        s.Status,
		Enrolled:      len(s.Descriptor) > 0,
	}
}

// List returns all students. With ?q= the list is filtered by name,
// ignoring case and diacritics.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		students []store.Student
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		students, err = h.students.SearchStudentsByName(r.Context(), q)
	} else {
		students, err = h.students.ListStudents(r.Context(), false)
	}
	if err != nil {
		log.Printf("list students failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not list students")
		return
	}

	views := make([]studentView, 0, len(students))
	for i := range students {
		views = append(views, toStudentView(&students[i]))
	}
	respondJSON(w, http.StatusOK, map[string]any{"students": views, "count": len(views)})
}

// Get returns one student by id.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.students.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		log.Printf("get student failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load student")
		return
	}
	respondJSON(w, http.StatusOK, toStudentView(s))
}

// Create registers a new student record without a face descriptor.
// Enrollment of the face photo is a separate step.
func (h *StudentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := &store.Student{
		StudentNumber: req.StudentNumber,
		IndexNumber:   req.IndexNumber,
		FirstName:     req.FirstName,
		MiddleName:    req.MiddleName,
		LastName:      req.LastName,
		Email:         req.Email,
		Program:       req.Program,
		YearOfStudy:   req.YearOfStudy,
		Status:        store.StudentActive,
	}
	if err := h.students.CreateStudent(r.Context(), s); err != nil {
		log.Printf("create student failed: %v", err)
		respondError(w, http.StatusConflict, "could not create student")
		return
	}
	respondJSON(w, http.StatusCreated, toStudentView(s))
}

// Update replaces the profile fields of a student.
func (h *StudentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	s, err := h.students.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		log.Printf("get student failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load student")
		return
	}

	var req studentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.StudentNumber = req.StudentNumber
	s.IndexNumber = req.IndexNumber
	s.FirstName = req.FirstName
	s.MiddleName = req.MiddleName
	s.LastName = req.LastName
	s.Email = req.Email
	s.Program = req.Program
	s.YearOfStudy = req.YearOfStudy

	if err := h.students.UpdateStudent(r.Context(), s); err != nil {
		log.Printf("update student failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not update student")
		return
	}
	respondJSON(w, http.StatusOK, toStudentView(s))
}

// Delete soft-deletes a student. The row stays so audit logs keep
// resolving; the descriptor drops out of the matching set.
func (h *StudentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.students.SetStudentStatus(r.Context(), chi.URLParam(r, "id"), store.StudentDeleted)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	if err != nil {
		log.Printf("delete student failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not delete student")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "student deleted"})
}

// Enroll computes and stores the face descriptor from an uploaded photo.
// Re-enrolling replaces the previous descriptor.
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.students.GetStudent(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "student not found")
		return
	} else if err != nil {
		log.Printf("get student failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not load student")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read photo")
		return
	}

	scaled, err := encoder.Downscale(data, h.maxImageEdge)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "photo could not be decoded")
		return
	}

	descriptor, err := h.encoder.EncodeFace(r.Context(), scaled)
	if err != nil {
		switch {
		case errors.Is(err, encoder.ErrNoFace):
			respondError(w, http.StatusUnprocessableEntity, "no face detected in photo")
		case errors.Is(err, encoder.ErrMultipleFaces):
			respondError(w, http.StatusUnprocessableEntity, "photo must contain exactly one face")
		case errors.Is(err, encoder.ErrBadImage):
			respondError(w, http.StatusUnprocessableEntity, "photo could not be decoded")
		default:
			log.Printf("encoder failed: %v", err)
			respondError(w, http.StatusBadGateway, "face encoding unavailable")
		}
		return
	}

	if err := h.students.PutDescriptor(r.Context(), id, descriptor); err != nil {
		log.Printf("put descriptor failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not store descriptor")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "face enrolled"})
}
