package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kbediako/examgate/internal/recognition"
	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/store/mock"
)

// fakeEncoder implements FaceEncoder with canned output.
type fakeEncoder struct {
	descriptor []float32
	err        error
}

func (f *fakeEncoder) EncodeFace(ctx context.Context, imageData []byte) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.descriptor, nil
}

// d128 builds a 128-dimensional descriptor with the given first component.
func d128(first float32) []float32 {
	d := make([]float32, 128)
	d[0] = first
	return d
}

// newVerifier wires a pipeline over the mock store with production-like
// settings (threshold 0.6, dimension 128).
func newVerifier(m *mock.Store) *recognition.Verifier {
	matcher := recognition.NewMatcher(0.6, 128)
	resolver := recognition.NewResolver(m)
	recorder := recognition.NewRecorder(m, "face_recognition")
	return recognition.NewVerifier(m, matcher, resolver, recorder)
}

// seedExam creates a session with two rooms covering 0000001-0000050 and
// 0000051-0000100, and returns the session id.
func seedExam(t *testing.T, m *mock.Store) int64 {
	t.Helper()
	ctx := context.Background()

	sess := &store.ExamSession{
		Title:     "Operating Systems Final",
		Subject:   "CS305",
		ExamDate:  time.Date(2026, 5, 14, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "12:00",
	}
	if err := m.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	room1 := &store.ExamRoom{RoomNumber: "Room 1", Building: "Science Block"}
	room2 := &store.ExamRoom{RoomNumber: "Room 2", Building: "Science Block"}
	for _, room := range []*store.ExamRoom{room1, room2} {
		if err := m.CreateRoom(ctx, room); err != nil {
			t.Fatalf("create room: %v", err)
		}
	}

	ranges := []*store.RangeAssignment{
		{SessionID: sess.ID, RoomID: room1.ID, StartIndex: "0000001", EndIndex: "0000050"},
		{SessionID: sess.ID, RoomID: room2.ID, StartIndex: "0000051", EndIndex: "0000100"},
	}
	for _, ra := range ranges {
		if err := m.CreateRangeAssignment(ctx, ra, 7); err != nil {
			t.Fatalf("create range: %v", err)
		}
	}
	return sess.ID
}

// seedStudent enrolls a student with a descriptor into the mock store.
func seedStudent(t *testing.T, m *mock.Store, indexNumber string, descriptor []float32) *store.Student {
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

// testJPEG returns a small valid JPEG.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

// multipartImage builds a multipart request body with an image part and
// optional extra form fields.
func multipartImage(t *testing.T, field string, data []byte, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(field, "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}
