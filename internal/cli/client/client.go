// Package client is the HTTP client shared by mangactl commands
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultServerURL is used when no server.url is configured
const DefaultServerURL = "http://localhost:8080"

// ErrNotLoggedIn is returned by commands that need a saved token
var ErrNotLoggedIn = errors.New("not logged in, run: mangactl auth login")

// APIError is a non-success envelope from the server
type APIError struct {
	Status   int
	Code     string
	Message  string
	Redirect string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

// Client talks to the /api/v1 REST API
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL with an optional bearer token
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// FromConfig builds a client from the CLI configuration
func FromConfig() *Client {
	return New(viper.GetString("server.url"), viper.GetString("user.token"))
}

// RequireToken fails when no token is saved
func (c *Client) RequireToken() error {
	if c.token == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// Do sends a JSON request to /api/v1+path and decodes data into out. The
// returned message is the envelope's message.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (string, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// Upload posts files as multipart "files" to path
func (c *Client) Upload(ctx context.Context, path string, files []string, out interface{}) (string, error) {
	buf := &bytes.Buffer{}
	w := newMultipart(buf)
	for _, f := range files {
		if err := w.addFile("files", f); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.send(req, out)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) send(req *http.Request, out interface{}) (string, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if !env.Success || resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Message: env.Error}
		if r, ok := env.Details["redirect"].(string); ok {
			apiErr.Redirect = r
		}
		return "", apiErr
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
	}
	return env.Message, nil
}

// ConfigDir is where mangactl keeps its config file
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mangareader"
	}
	return filepath.Join(home, ".mangareader")
}

// ConfigFile is the path of the CLI config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// SaveConfig writes the current viper settings to the config file in use
func SaveConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = ConfigFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
