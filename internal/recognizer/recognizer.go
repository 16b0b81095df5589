// Package recognizer is the boundary to the external facial recognition
// service. Embedding extraction and nearest-match search live on the other
// side of this interface; the console only sees similarity scores.
package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Match is the best candidate the recognition service found for a probe
// image. PersonaID and Similarity are nil when no enrolled template was
// comparable (nobody enrolled, or no face detected among templates).
type Match struct {
	PersonaID  *uint64  `json:"persona_id"`
	Similarity *float64 `json:"similarity"`
}

// ErrNoFace is returned when the probe image contains no detectable face.
// Handlers translate it into a validation error rather than an event.
var ErrNoFace = errors.New("no face detected in image")

// Recognizer extracts embeddings and matches probes against the enrolled
// population. Implementations must not write events; that is the
// classifier's job.
type Recognizer interface {
	// Enroll extracts and stores the template for a persona from a
	// reference photo.
	Enroll(ctx context.Context, personaID uint64, image []byte, filename string) error
	// Identify matches a probe image against all enrolled templates and
	// returns the best match.
	Identify(ctx context.Context, image []byte) (Match, error)
	// Forget drops any stored template for a persona (called on hard delete).
	Forget(ctx context.Context, personaID uint64) error
}

// HTTPRecognizer talks JSON-over-HTTP to the recognition service.
type HTTPRecognizer struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTP builds a recognizer client with a bounded request timeout.
func NewHTTP(baseURL string) *HTTPRecognizer {
	return &HTTPRecognizer{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPRecognizer) Enroll(ctx context.Context, personaID uint64, image []byte, filename string) error {
	url := fmt.Sprintf("%s/templates/%d", r.BaseURL, personaID)
	resp, err := r.postImage(ctx, url, image, filename)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusUnprocessableEntity:
		return ErrNoFace
	default:
		return fmt.Errorf("recognizer: enroll returned %d", resp.StatusCode)
	}
}

func (r *HTTPRecognizer) Identify(ctx context.Context, image []byte) (Match, error) {
	resp, err := r.postImage(ctx, r.BaseURL+"/identify", image, "probe.jpg")
	if err != nil {
		return Match{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnprocessableEntity:
		return Match{}, ErrNoFace
	default:
		return Match{}, fmt.Errorf("recognizer: identify returned %d", resp.StatusCode)
	}
	var m Match
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Match{}, fmt.Errorf("recognizer: decode response: %w", err)
	}
	return m, nil
}

func (r *HTTPRecognizer) Forget(ctx context.Context, personaID uint64) error {
	url := fmt.Sprintf("%s/templates/%d", r.BaseURL, personaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("recognizer: forget returned %d", resp.StatusCode)
	}
	return nil
}

// postImage sends the image as a multipart form under the "image" field,
// matching the recognition service's upload contract.
func (r *HTTPRecognizer) postImage(ctx context.Context, url string, image []byte, filename string) (*http.Response, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return r.Client.Do(req)
}
