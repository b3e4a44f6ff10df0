package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangareader/pkg/config"
	"mangareader/pkg/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *CloudinaryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCloudinaryClient(config.CDNConfig{
		BaseURL:      srv.URL,
		CloudName:    "demo",
		UploadPreset: "manga_reader",
	})
}

func TestUpload_ReturnsURLsInOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "manga_reader", r.FormValue("upload_preset"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "data-"+hdr.Filename, string(data))

		fmt.Fprintf(w, `{"secure_url":"https://cdn.example/%s"}`, hdr.Filename)
	})

	files := []File{
		{Name: "001.png", ContentType: "image/png", Data: []byte("data-001.png")},
		{Name: "002.png", ContentType: "image/png", Data: []byte("data-002.png")},
		{Name: "003.png", ContentType: "image/png", Data: []byte("data-003.png")},
	}
	urls, err := client.Upload(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.example/001.png",
		"https://cdn.example/002.png",
		"https://cdn.example/003.png",
	}, urls)
}

func TestUpload_AnyFailureFailsBatch(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 2 {
			http.Error(w, `{"error":{"message":"Upload preset not found"}}`, http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"secure_url":"https://cdn.example/x"}`)
	})

	urls, err := client.Upload(context.Background(), []File{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	require.Error(t, err)
	assert.Nil(t, urls)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestUpload_MissingSecureURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	_, err := client.Upload(context.Background(), []File{{Name: "a"}})
	assert.ErrorContains(t, err, "secure_url")
}

func TestUpload_OpenBreakerIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.Upload(context.Background(), []File{{Name: "a"}})
		require.Error(t, err)
	}
	_, err := client.Upload(context.Background(), []File{{Name: "a"}})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestUpload_Empty(t *testing.T) {
	client := NewCloudinaryClient(config.CDNConfig{CloudName: "demo"})
	_, err := client.Upload(context.Background(), nil)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/png"))
	assert.True(t, IsImage("IMAGE/JPEG; charset=binary"))
	assert.False(t, IsImage("application/pdf"))
	assert.False(t, IsImage(""))
}
