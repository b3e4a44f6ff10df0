package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangareader/internal/cli/client"
)

const validSeed = `
manga:
  - title: Blade Road
    author: K. Aoi
    status: ongoing
    genres: [action, fantasy]
    chapters:
      - number: 1
        pages: [https://cdn/1-1.png]
      - number: 1.5
        title: Extra
        price: 3
        page_dir: pages
  - title: Quiet Harbor
    genres: [drama]
popular: [Quiet Harbor, Blade Road]
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeed(t, validSeed)

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seed.Manga, 2)
	assert.Equal(t, []string{"action", "fantasy"}, seed.Manga[0].Genres)
	assert.Equal(t, 1.5, seed.Manga[0].Chapters[1].Number)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "pages"), seed.Manga[0].Chapters[1].PageDir)
	assert.Equal(t, []string{"Quiet Harbor", "Blade Road"}, seed.Popular)
}

func TestLoadSeedFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty", "manga: []", "no manga"},
		{"missing title", "manga:\n  - author: x", "title is required"},
		{"duplicate title", "manga:\n  - title: A\n  - title: A", "listed twice"},
		{"bad status", "manga:\n  - title: A\n    status: paused", "invalid status"},
		{"duplicate chapter", "manga:\n  - title: A\n    chapters:\n      - number: 2\n      - number: 2", "chapter 2 listed twice"},
		{"negative price", "manga:\n  - title: A\n    chapters:\n      - number: 1\n        price: -1", "price must not be negative"},
		{"unknown popular", "manga:\n  - title: A\npopular: [B]", "not in the seed file"},
		{"not yaml", "manga: [", "parse seed file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSeedFile(writeSeed(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPageFiles_SortedImagesOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010.png", "002.jpg", "001.webp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "raw"), 0o700))

	files, err := SeedChapter{PageDir: dir}.PageFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "001.webp"),
		filepath.Join(dir, "002.jpg"),
		filepath.Join(dir, "010.png"),
	}, files)
}

func TestSeeder_Run(t *testing.T) {
	path := writeSeed(t, validSeed)
	pageDir := filepath.Join(filepath.Dir(path), "pages")
	require.NoError(t, os.Mkdir(pageDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(pageDir, "01.png"), []byte("png"), 0o600))

	seed, err := LoadSeedFile(path)
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		calls    []string
		chapters []map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, r.Method+" "+r.URL.Path)

		switch {
		case r.URL.Path == "/api/v1/admin/manga":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			id := "m-" + strings.ReplaceAll(strings.ToLower(body["title"].(string)), " ", "-")
			w.Write([]byte(`{"success":true,"data":{"id":"` + id + `","title":"` + body["title"].(string) + `"}}`))
		case strings.HasSuffix(r.URL.Path, "/chapters"):
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			chapters = append(chapters, body)
			w.Write([]byte(`{"success":true,"data":{"id":"c"}}`))
		case r.URL.Path == "/api/v1/admin/uploads":
			w.Write([]byte(`{"success":true,"data":{"urls":["https://cdn/uploaded.png"]}}`))
		default:
			w.Write([]byte(`{"success":true,"data":[]}`))
		}
	}))
	defer srv.Close()

	seeder := NewSeeder(client.New(srv.URL, "admin-token"))
	require.NoError(t, seeder.Run(context.Background(), seed))

	assert.Equal(t, map[string]string{"Blade Road": "m-blade-road", "Quiet Harbor": "m-quiet-harbor"}, seeder.IDs())

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, chapters, 2)
	assert.Equal(t, false, chapters[0]["is_paid"])
	assert.Equal(t, true, chapters[1]["is_paid"])
	assert.Equal(t, float64(3), chapters[1]["price"])
	assert.Equal(t, []interface{}{"https://cdn/uploaded.png"}, chapters[1]["pages"])

	// popular entries follow the file's order after all manga exist
	n := len(calls)
	assert.Equal(t, "POST /api/v1/admin/popular/m-quiet-harbor", calls[n-2])
	assert.Equal(t, "POST /api/v1/admin/popular/m-blade-road", calls[n-1])
}

func TestSeeder_StopsOnFailure(t *testing.T) {
	seed, err := LoadSeedFile(writeSeed(t, "manga:\n  - title: A\n  - title: B"))
	require.NoError(t, err)

	var creates atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creates.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"error":"admin only","code":"FORBIDDEN"}`))
	}))
	defer srv.Close()

	err = NewSeeder(client.New(srv.URL, "reader-token")).Run(context.Background(), seed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create manga "A"`)
	assert.Equal(t, int32(1), creates.Load())
}
