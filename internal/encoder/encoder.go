// Package encoder talks to the face embedding service that turns a face
// photo into a fixed-dimension descriptor.
package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// Encoding failures the caller is expected to branch on. All three are
// input defects, not service errors.
var (
	ErrNoFace        = errors.New("no face detected in image")
	ErrMultipleFaces = errors.New("multiple faces detected in image")
	ErrBadImage      = errors.New("image could not be decoded")
)

// Client computes face descriptors using the embedding server.
type Client struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewClient creates an embedding client. dim is the expected descriptor
// dimension; responses of any other dimension are rejected.
func NewClient(baseURL string, dim int) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		dim:     dim,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// encodeResponse represents the response from the embedding server.
type encodeResponse struct {
	Faces      int       `json:"faces"`
	Descriptor []float32 `json:"descriptor"`
	Dim        int       `json:"dim"`
	Error      string    `json:"error"`
}

// EncodeFace extracts the descriptor of the single face in imageData.
// Zero faces, several faces and undecodable images map to the sentinel
// errors above.
func (c *Client) EncodeFace(ctx context.Context, imageData []byte) ([]float32, error) {
	body, status, err := c.postMultipartImage(ctx, "/encode", imageData)
	if err != nil {
		return nil, err
	}

	var resp encodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if status == http.StatusUnprocessableEntity || resp.Error != "" {
		switch {
		case strings.Contains(resp.Error, "no face"):
			return nil, ErrNoFace
		case strings.Contains(resp.Error, "multiple"):
			return nil, ErrMultipleFaces
		default:
			return nil, ErrBadImage
		}
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("encoder error (status %d): %s", status, string(body))
	}

	switch {
	case resp.Faces == 0:
		return nil, ErrNoFace
	case resp.Faces > 1:
		return nil, ErrMultipleFaces
	}
	if len(resp.Descriptor) != c.dim {
		return nil, fmt.Errorf("encoder returned dimension %d, expected %d", len(resp.Descriptor), c.dim)
	}

	return resp.Descriptor, nil
}

// postMultipartImage constructs a multipart form with the image data and
// posts it to the given endpoint. The part carries an explicit Content-Type
// based on magic byte detection.
func (c *Client) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, int, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", detectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, 0, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, 0, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// detectMIMEType detects the MIME type from image data.
func detectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}) {
		return "image/png"
	}
	return "application/octet-stream"
}
