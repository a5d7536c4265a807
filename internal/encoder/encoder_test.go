package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
)

func encoderServer(t *testing.T, resp encodeResponse, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/encode" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEncodeFace(t *testing.T) {
	descriptor := make([]float32, 128)
	descriptor[0] = 0.5

	srv := encoderServer(t, encodeResponse{Faces: 1, Descriptor: descriptor, Dim: 128}, http.StatusOK)
	defer srv.Close()

	c := NewClient(srv.URL, 128)
	got, err := c.EncodeFace(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("EncodeFace: %v", err)
	}
	if len(got) != 128 || got[0] != 0.5 {
		t.Errorf("descriptor = %v...", got[:1])
	}
}

func TestEncodeFaceNoFace(t *testing.T) {
	srv := encoderServer(t, encodeResponse{Faces: 0}, http.StatusOK)
	defer srv.Close()

	_, err := NewClient(srv.URL, 128).EncodeFace(context.Background(), []byte("xxxxxxxx"))
	if !errors.Is(err, ErrNoFace) {
		t.Errorf("err = %v, want ErrNoFace", err)
	}
}

func TestEncodeFaceMultipleFaces(t *testing.T) {
	srv := encoderServer(t, encodeResponse{Faces: 3}, http.StatusOK)
	defer srv.Close()

	_, err := NewClient(srv.URL, 128).EncodeFace(context.Background(), []byte("xxxxxxxx"))
	if !errors.Is(err, ErrMultipleFaces) {
		t.Errorf("err = %v, want ErrMultipleFaces", err)
	}
}

func TestEncodeFaceServerReportedDefect(t *testing.T) {
	srv := encoderServer(t, encodeResponse{Error: "no face found"}, http.StatusUnprocessableEntity)
	defer srv.Close()

	_, err := NewClient(srv.URL, 128).EncodeFace(context.Background(), []byte("xxxxxxxx"))
	if !errors.Is(err, ErrNoFace) {
		t.Errorf("err = %v, want ErrNoFace", err)
	}
}

func TestEncodeFaceDimensionMismatch(t *testing.T) {
	srv := encoderServer(t, encodeResponse{Faces: 1, Descriptor: make([]float32, 64), Dim: 64}, http.StatusOK)
	defer srv.Close()

	_, err := NewClient(srv.URL, 128).EncodeFace(context.Background(), []byte("xxxxxxxx"))
	if err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"unknown", []byte("plain text here"), "application/octet-stream"},
		{"short", []byte{0x01}, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMIMEType(tt.data); got != tt.want {
				t.Errorf("detectMIMEType = %q, want %q", got, tt.want)
			}
		})
	}
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestDownscale(t *testing.T) {
	data := testJPEG(t, 2000, 1000)

	out, err := Downscale(data, 1024)
	if err != nil {
		t.Fatalf("Downscale: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got := img.Bounds().Dx(); got != 1024 {
		t.Errorf("width = %d, want 1024", got)
	}
	if got := img.Bounds().Dy(); got != 512 {
		t.Errorf("height = %d, want 512", got)
	}
}

func TestDownscaleSmallImageUntouched(t *testing.T) {
	data := testJPEG(t, 300, 200)

	out, err := Downscale(data, 1024)
	if err != nil {
		t.Fatalf("Downscale: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 300 || img.Bounds().Dy() != 200 {
		t.Errorf("dimensions changed: %v", img.Bounds())
	}
}

func TestDownscaleRejectsGarbage(t *testing.T) {
	if _, err := Downscale([]byte("not an image"), 1024); err == nil {
		t.Error("expected decode error")
	}
}
