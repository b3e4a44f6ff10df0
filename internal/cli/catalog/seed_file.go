package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"mangareader/pkg/models"
)

// SeedFile is the YAML layout accepted by `catalog seed`
type SeedFile struct {
	Manga   []SeedManga `yaml:"manga"`
	Popular []string    `yaml:"popular"` // titles, in display order
}

// SeedManga is one title with its chapters
type SeedManga struct {
	Title       string        `yaml:"title"`
	Author      string        `yaml:"author"`
	Description string        `yaml:"description"`
	CoverURL    string        `yaml:"cover_url"`
	Status      string        `yaml:"status"`
	Genres      []string      `yaml:"genres"`
	Rating      *float64      `yaml:"rating"`
	Chapters    []SeedChapter `yaml:"chapters"`
}

// SeedChapter is a chapter entry. PageDir images are uploaded through the
// API and appended after Pages.
type SeedChapter struct {
	Number  float64  `yaml:"number"`
	Title   string   `yaml:"title"`
	Price   int      `yaml:"price"`
	Pages   []string `yaml:"pages"`
	PageDir string   `yaml:"page_dir"`
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// LoadSeedFile reads and validates a seed file. Relative page_dir paths are
// resolved against the seed file's directory.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	base := filepath.Dir(path)
	if err := seed.validate(base); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (s *SeedFile) validate(base string) error {
	if len(s.Manga) == 0 {
		return fmt.Errorf("seed file has no manga")
	}

	titles := make(map[string]bool, len(s.Manga))
	for i := range s.Manga {
		m := &s.Manga[i]
		m.Title = strings.TrimSpace(m.Title)
		if m.Title == "" {
			return fmt.Errorf("manga #%d: title is required", i+1)
		}
		if titles[m.Title] {
			return fmt.Errorf("manga %q listed twice", m.Title)
		}
		titles[m.Title] = true

		if m.Status != "" && !models.IsValidMangaStatus(m.Status) {
			return fmt.Errorf("manga %q: invalid status %q", m.Title, m.Status)
		}

		numbers := make(map[float64]bool, len(m.Chapters))
		for j := range m.Chapters {
			ch := &m.Chapters[j]
			if ch.Number < 0 {
				return fmt.Errorf("manga %q chapter #%d: number must not be negative", m.Title, j+1)
			}
			if numbers[ch.Number] {
				return fmt.Errorf("manga %q: chapter %v listed twice", m.Title, ch.Number)
			}
			numbers[ch.Number] = true
			if ch.Price < 0 {
				return fmt.Errorf("manga %q chapter %v: price must not be negative", m.Title, ch.Number)
			}
			if ch.PageDir != "" && !filepath.IsAbs(ch.PageDir) {
				ch.PageDir = filepath.Join(base, ch.PageDir)
			}
		}
	}

	for _, title := range s.Popular {
		if !titles[title] {
			return fmt.Errorf("popular entry %q is not in the seed file", title)
		}
	}
	return nil
}

// PageFiles lists the image files in a chapter's page directory sorted by
// name, which is the reading order
func (c SeedChapter) PageFiles() ([]string, error) {
	if c.PageDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(c.PageDir)
	if err != nil {
		return nil, fmt.Errorf("read page dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(c.PageDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func (m SeedManga) createRequest() models.CreateMangaRequest {
	return models.CreateMangaRequest{
		Title:       m.Title,
		Author:      m.Author,
		Description: m.Description,
		CoverURL:    m.CoverURL,
		Status:      m.Status,
		Genres:      m.Genres,
		Rating:      m.Rating,
	}
}
