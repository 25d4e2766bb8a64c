package fal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/bryanwahyu/renovator/internal/domain/renovation"
	"github.com/bryanwahyu/renovator/internal/log"
)

type initiateUpload struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type initiatedUpload struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// Storage uploads files to fal's CDN so the queue can fetch them.
type Storage struct {
	client *Client
}

func NewStorage(c *Client) *Storage {
	return &Storage{client: c}
}

// Upload implementasi ImageStore
func (s *Storage) Upload(ctx context.Context, params renovation.UploadParams) (string, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("fal storage").With(
		"name", params.Name,
		"content_type", params.ContentType,
		"bytes", len(params.Data),
	)
	logger.Info("uploading to fal storage")

	var up initiatedUpload
	initURL := strings.TrimRight(s.client.storageURL, "/") + "/storage/upload/initiate?storage_type=fal-cdn-v3"
	err := s.client.do(ctx, http.MethodPost, initURL, initiateUpload{
		ContentType: params.ContentType,
		FileName:    path.Base(params.Name),
	}, &up)
	if err != nil {
		return "", fmt.Errorf("failed to initiate upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, up.UploadURL, bytes.NewReader(params.Data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", params.ContentType)
	req.ContentLength = int64(len(params.Data))

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected upload status code: %d, body: %s", resp.StatusCode, string(b))
	}

	return up.FileURL, nil
}

func (s *Storage) Configured() bool { return s.client.Configured() }

func (s *Storage) CredentialName() string { return s.client.CredentialName() }
