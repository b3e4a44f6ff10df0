// Package media uploads chapter page images to the CDN
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"mangareader/pkg/config"
	"mangareader/pkg/logger"
	"mangareader/pkg/metrics"
	"mangareader/pkg/models"
)

const defaultBaseURL = "https://api.cloudinary.com"

// File is one image to upload
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader stores images and returns their public URLs in input order
type Uploader interface {
	Upload(ctx context.Context, files []File) ([]string, error)
}

// CloudinaryClient posts unsigned uploads with an upload preset
type CloudinaryClient struct {
	httpClient   *http.Client
	endpoint     string
	uploadPreset string
	cb           *gobreaker.CircuitBreaker[string]
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewCloudinaryClient creates a CDN client from config
func NewCloudinaryClient(cfg config.CDNConfig) *CloudinaryClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "cdn-upload",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &CloudinaryClient{
		httpClient:   &http.Client{Timeout: timeout},
		endpoint:     fmt.Sprintf("%s/v1_1/%s/image/upload", base, cfg.CloudName),
		uploadPreset: cfg.UploadPreset,
		cb:           cb,
	}
}

// Upload sends the files one by one. The first failure aborts the batch.
func (c *CloudinaryClient) Upload(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, models.Invalidf("no files to upload")
	}

	urls := make([]string, 0, len(files))
	for i, f := range files {
		url, err := c.cb.Execute(func() (string, error) {
			return c.uploadOne(ctx, f)
		})
		if err != nil {
			metrics.CDNUploadsTotal.WithLabelValues(metrics.ResultError).Inc()
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("cdn upload: %w: %w", models.ErrServiceUnavailable, err)
			}
			return nil, fmt.Errorf("upload file %d (%s): %w", i+1, f.Name, err)
		}
		metrics.CDNUploadsTotal.WithLabelValues(metrics.ResultOK).Inc()
		urls = append(urls, url)
	}

	logger.Infof("Uploaded %d images to CDN", len(urls))
	return urls, nil
}

func (c *CloudinaryClient) uploadOne(ctx context.Context, f File) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", f.Name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", err
	}
	if err := w.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cdn returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode cdn response: %w", err)
	}
	if out.Error != nil {
		return "", errors.New(out.Error.Message)
	}
	if out.SecureURL == "" {
		return "", errors.New("cdn response has no secure_url")
	}
	return out.SecureURL, nil
}

// IsImage reports whether the content type is an accepted image type
func IsImage(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	default:
		return false
	}
}
