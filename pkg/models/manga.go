package models

import (
	"strings"
	"time"
)

// MangaStatus represents valid manga status values
type MangaStatus string

const (
	MangaStatusOngoing   MangaStatus = "ongoing"
	MangaStatusCompleted MangaStatus = "completed"
	MangaStatusHiatus    MangaStatus = "hiatus"
	MangaStatusCancelled MangaStatus = "cancelled"
)

// MaxRating is the upper bound of the rating scale
const MaxRating = 5.0

// Sort keys accepted by catalog listings
const (
	SortNewest = "newest"
	SortViews  = "views"
	SortRating = "rating"
	SortTitle  = "title"
)

// Manga is a catalog item
type Manga struct {
	ID          string      `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Author      string      `json:"author" db:"author"`
	Description string      `json:"description" db:"description"`
	Genres      []string    `json:"genres" db:"genres"`
	Status      MangaStatus `json:"status" db:"status"`
	Rating      float64     `json:"rating" db:"rating"`
	RatingCount int         `json:"rating_count" db:"rating_count"`
	Views       int64       `json:"views" db:"views"`
	Likes       int64       `json:"likes" db:"likes"`
	CoverURL    string      `json:"cover_url" db:"cover_url"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// Category is a genre with the number of manga carrying it
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MangaListRequest represents listing and search parameters
type MangaListRequest struct {
	Query  string `json:"query" form:"q"`
	Genre  string `json:"genre" form:"genre"`
	Status string `json:"status" form:"status"`
	Sort   string `json:"sort" form:"sort"`
	Limit  int    `json:"limit" form:"limit"`
	Offset int    `json:"offset" form:"offset"`
}

// MangaListResponse represents paginated manga results
type MangaListResponse struct {
	Data    []Manga `json:"data"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
	HasMore bool    `json:"has_more"`
}

// CreateMangaRequest represents a request to create new manga
type CreateMangaRequest struct {
	Title       string   `json:"title" binding:"required"`
	Author      string   `json:"author"`
	Description string   `json:"description"`
	CoverURL    string   `json:"cover_url"`
	Status      string   `json:"status"`
	Genres      []string `json:"genres"`
	Rating      *float64 `json:"rating"`
}

// UpdateMangaRequest represents a partial manga update
type UpdateMangaRequest struct {
	Title       *string  `json:"title"`
	Author      *string  `json:"author"`
	Description *string  `json:"description"`
	CoverURL    *string  `json:"cover_url"`
	Status      *string  `json:"status"`
	Genres      []string `json:"genres"`
	Rating      *float64 `json:"rating"`
}

// Normalize applies listing defaults
func (r *MangaListRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = 20
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	r.Query = strings.TrimSpace(r.Query)
	r.Genre = strings.TrimSpace(r.Genre)
	switch r.Sort {
	case SortNewest, SortViews, SortRating, SortTitle:
	default:
		r.Sort = SortNewest
	}
}

// IsValidMangaStatus validates status against schema constraints
func IsValidMangaStatus(status string) bool {
	switch MangaStatus(status) {
	case MangaStatusOngoing, MangaStatusCompleted, MangaStatusHiatus, MangaStatusCancelled:
		return true
	default:
		return false
	}
}

// NormalizeGenres trims tags and drops empty and duplicate entries,
// keeping the first occurrence order
func NormalizeGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		key := strings.ToLower(g)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, g)
	}
	return out
}
