// Package assets uploads design files to the third-party asset host and
// returns their public URLs.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxUploadBytes matches the asset host's per-file cap.
	DefaultMaxUploadBytes = 25 << 20

	uploadTimeout = 90 * time.Second
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("file type is not accepted; paste a link instead")
)

// allowedExtensions are the design-file types the host accepts.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".pdf":  true,
	".ai":   true,
	".psd":  true,
}

// Uploader sends files to the asset host. One call, one file, no retry; a
// failed upload surfaces to the caller and already-saved state is untouched.
type Uploader struct {
	baseURL    string
	apiKey     string
	maxBytes   int64
	httpClient *http.Client
}

// NewUploader creates an asset-host client. maxBytes <= 0 uses the default cap.
func NewUploader(baseURL, apiKey string, maxBytes int64) *Uploader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Uploader{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		maxBytes: maxBytes,
		httpClient: &http.Client{
			Timeout: uploadTimeout,
		},
	}
}

// Upload pushes one file and returns its public URL. Size and type are
// checked before any network call so constraint violations never reach the
// host.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if int64(len(data)) > u.maxBytes {
		return "", fmt.Errorf("%s: %w", filename, ErrFileTooLarge)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%s: %w", filename, ErrUnsupportedType)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	// Object keys are unique per upload; the original filename is kept as
	// display metadata.
	if err := w.WriteField("key", uuid.New().String()+ext); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+u.apiKey)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("asset upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("asset host returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", errors.New("asset host returned no url")
	}
	return out.URL, nil
}
