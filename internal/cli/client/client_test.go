package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_DecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/manga/search", r.URL.Path)
		assert.Equal(t, "blade", r.URL.Query().Get("q"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":true,"message":"ok","data":{"total":3}}`))
	}))
	defer srv.Close()

	var out struct {
		Total int `json:"total"`
	}
	msg, err := New(srv.URL, "tok").Do(context.Background(), http.MethodGet, "/manga/search", url.Values{"q": {"blade"}}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", msg)
	assert.Equal(t, 3, out.Total)
}

func TestDo_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":"sign in to continue","code":"UNAUTHORIZED","details":{"redirect":"/auth"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Do(context.Background(), http.MethodPost, "/chapters/c1/unlock", nil, nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	assert.Equal(t, "/auth", apiErr.Redirect)
}

func TestUpload_SendsFilesWithContentType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "001.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "001.png", files[0].Filename)
		assert.Equal(t, "image/png", files[0].Header.Get("Content-Type"))
		w.Write([]byte(`{"success":true,"data":{"urls":["https://cdn/001.png"]}}`))
	}))
	defer srv.Close()

	var out struct {
		URLs []string `json:"urls"`
	}
	_, err := New(srv.URL, "tok").Upload(context.Background(), "/admin/uploads", []string{path}, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/001.png"}, out.URLs)
}

func TestRequireToken(t *testing.T) {
	assert.ErrorIs(t, New("", "").RequireToken(), ErrNotLoggedIn)
	assert.NoError(t, New("", "t").RequireToken())
}
