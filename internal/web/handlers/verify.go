package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/kbediako/examgate/internal/encoder"
	"github.com/kbediako/examgate/internal/recognition"
)

// maxUploadBytes bounds kiosk uploads; frames larger than this are rejected
// before decoding.
const maxUploadBytes = 20 << 20

// FaceEncoder turns an image into a face descriptor.
type FaceEncoder interface {
	EncodeFace(ctx context.Context, imageData []byte) ([]float32, error)
}

// VerifyHandler handles the kiosk verification endpoint.
type VerifyHandler struct {
	encoder      FaceEncoder
	verifier     *recognition.Verifier
	maxImageEdge int
}

// NewVerifyHandler creates a verify handler.
func NewVerifyHandler(enc FaceEncoder, verifier *recognition.Verifier, maxImageEdge int) *VerifyHandler {
	return &VerifyHandler{encoder: enc, verifier: verifier, maxImageEdge: maxImageEdge}
}

type verifyJSONRequest struct {
	Image     string `json:"image"` // base64-encoded
	SessionID *int64 `json:"session_id"`
}

type verifyResponse struct {
	Status     string          `json:"status"`
	Reason     string          `json:"reason,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Student    *studentSummary `json:"student,omitempty"`
	Room       *roomInfo       `json:"room,omitempty"`
}

type studentSummary struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	IndexNumber   string `json:"index_number"`
	StudentNumber string `json:"student_number"`
	Program       string `json:"program,omitempty"`
}

type roomInfo struct {
	Label     string `json:"label"`
	ExamTitle string `json:"exam_title"`
	Subject   string `json:"subject,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
}

// Verify runs the full check-in pipeline for one uploaded face image. The
// image arrives either as a multipart "image" part or as base64 JSON.
// Unusable inputs are reported as cannot_evaluate with HTTP 200; the kiosk
// shows the reason and retries.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	imageData, sessionID, err := h.readRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := recognition.VerifyOptions{
		SessionID: sessionID,
		Client: recognition.ClientContext{
			IPAddress: r.RemoteAddr,
			UserAgent: r.UserAgent(),
		},
	}

	scaled, err := encoder.Downscale(imageData, h.maxImageEdge)
	if err != nil {
		h.respondDefect(w, r, opts, "image could not be decoded")
		return
	}

	descriptor, err := h.encoder.EncodeFace(r.Context(), scaled)
	if err != nil {
		switch {
		case errors.Is(err, encoder.ErrNoFace):
			h.respondDefect(w, r, opts, "no face detected")
		case errors.Is(err, encoder.ErrMultipleFaces):
			h.respondDefect(w, r, opts, "multiple faces detected")
		case errors.Is(err, encoder.ErrBadImage):
			h.respondDefect(w, r, opts, "image could not be decoded")
		default:
			log.Printf("encoder failed: %v", err)
			respondError(w, http.StatusBadGateway, "face encoding unavailable")
		}
		return
	}

	result, err := h.verifier.Verify(r.Context(), descriptor, opts)
	if err != nil {
		log.Printf("verification failed: %v", err)
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}

	respondJSON(w, http.StatusOK, buildVerifyResponse(result))
}

func (h *VerifyHandler) respondDefect(w http.ResponseWriter, r *http.Request, opts recognition.VerifyOptions, reason string) {
	if err := h.verifier.RecordDefect(r.Context(), reason, opts); err != nil {
		log.Printf("defect logging failed: %v", err)
	}
	respondJSON(w, http.StatusOK, verifyResponse{
		Status: string(recognition.StatusCannotEvaluate),
		Reason: reason,
	})
}

func (h *VerifyHandler) readRequest(r *http.Request) ([]byte, *int64, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req verifyJSONRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, nil, errors.New(errInvalidRequestBody)
		}
		if req.Image == "" {
			return nil, nil, errors.New("image is required")
		}
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return nil, nil, errors.New("image is not valid base64")
		}
		return data, req.SessionID, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, errors.New("expected multipart form or JSON body")
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, nil, errors.New("image file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, errors.New("could not read image file")
	}

	var sessionID *int64
	if v := r.FormValue("session_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, nil, errors.New("session_id must be numeric")
		}
		sessionID = &id
	}
	return data, sessionID, nil
}

func buildVerifyResponse(result *recognition.VerifyResult) verifyResponse {
	resp := verifyResponse{
		Status:     string(result.Status),
		Confidence: result.Confidence,
	}
	if result.Student != nil {
		resp.Student = &studentSummary{
			ID:            result.Student.ID,
			FullName:      result.Student.FullName(),
			IndexNumber:   result.Student.IndexNumber,
			StudentNumber: result.Student.StudentNumber,
			Program:       result.Student.Program,
		}
	}
	if result.Assignment != nil {
		resp.Room = &roomInfo{
			Label:     result.Assignment.RoomLabel(),
			ExamTitle: result.Assignment.ExamTitle,
			Subject:   result.Assignment.Subject,
			StartTime: result.Assignment.StartTime,
			EndTime:   result.Assignment.EndTime,
		}
	}
	if result.Status == recognition.StatusNoMatch {
		resp.Reason = "no enrolled student matched"
	}
	if result.Status == recognition.StatusUnassigned {
		resp.Reason = "student has no room assignment"
	}
	return resp
}

var _ FaceEncoder = (*encoder.Client)(nil)
