// Package media is the media host boundary: one operation, upload bytes under
// a named preset and get back a public URL. Replaced images are never deleted
// at the host; the last upload simply wins.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/joaquin771/rentalia/internal/apperror"
	"github.com/joaquin771/rentalia/internal/infra"
)

// Uploader is consumed by the mutation coordinator and the profile editor.
// Failures are always *apperror.UploadError.
type Uploader interface {
	Upload(ctx context.Context, data []byte, preset string) (string, error)
}

// HostUploader posts unsigned multipart uploads to the configured endpoint
// (Cloudinary-style: fields "file" and "upload_preset", JSON response with
// "secure_url"). A circuit breaker fast-fails while the host is down so the
// save flow never hangs on a dead endpoint.
type HostUploader struct {
	endpoint string
	client   *http.Client
	cb       *infra.CircuitBreaker
}

func NewHostUploader(endpoint string) *HostUploader {
	return &HostUploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		cb:       infra.NewCircuitBreaker(infra.DefaultCBConfig()),
	}
}

func (u *HostUploader) Upload(ctx context.Context, data []byte, preset string) (string, error) {
	var publicURL string
	err := u.cb.Execute(func() error {
		url, err := u.doUpload(ctx, data, preset)
		if err != nil {
			return err
		}
		publicURL = url
		return nil
	})
	if err != nil {
		return "", &apperror.UploadError{Cause: err}
	}
	return publicURL, nil
}

func (u *HostUploader) doUpload(ctx context.Context, data []byte, preset string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "upload")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.WriteField("upload_preset", preset); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("media host respondio %d: %s", resp.StatusCode, raw)
	}

	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("media host no devolvio secure_url")
	}
	return out.SecureURL, nil
}
