package models

import "time"

// FavoriteItem is a favorited manga with the time it was added
type FavoriteItem struct {
	Manga
	AddedAt time.Time `json:"added_at"`
}

// HistoryItem is a manga from the reading history with the last position
type HistoryItem struct {
	Manga
	LastChapterID     *string   `json:"last_chapter_id,omitempty"`
	LastChapterNumber *float64  `json:"last_chapter_number,omitempty"`
	LastReadAt        time.Time `json:"last_read_at"`
}

// PopularEntry is one slot of the curated popular list
type PopularEntry struct {
	MangaID string `json:"manga_id"`
	Order   int    `json:"order"`
}

// PopularManga is a popular list entry joined with its manga
type PopularManga struct {
	Manga
	Order int `json:"popular_order"`
}

// MovePopularRequest moves an entry between zero-based positions
type MovePopularRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// ReplacePopularRequest replaces the whole popular list
type ReplacePopularRequest struct {
	MangaIDs []string `json:"manga_ids"`
}

// ViewerEvent is pushed to a signed-in viewer's event stream
type ViewerEvent struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Viewer event types
const (
	EventBalanceChanged  = "balance_changed"
	EventChapterUnlocked = "chapter_unlocked"
	EventSessionRevoked  = "session_revoked"
)

// EventDataTokenID names the revoked token in session_revoked event data
const EventDataTokenID = "token_id"
