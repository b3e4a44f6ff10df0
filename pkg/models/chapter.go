package models

import "time"

// Chapter is one readable unit of a manga. Pages are image URLs in
// reading order.
type Chapter struct {
	ID        string    `json:"id" db:"id"`
	MangaID   string    `json:"manga_id" db:"manga_id"`
	Number    float64   `json:"chapter_number" db:"chapter_number"`
	Title     string    `json:"title" db:"title"`
	Pages     []string  `json:"pages" db:"pages"`
	IsPaid    bool      `json:"is_paid" db:"is_paid"`
	Price     int       `json:"price" db:"price"`
	Views     int64     `json:"views" db:"views"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RequiresPayment reports whether the chapter sits behind the paywall
func (c *Chapter) RequiresPayment() bool {
	return c.IsPaid && c.Price > 0
}

// Summary drops the page list
func (c *Chapter) Summary() ChapterSummary {
	return ChapterSummary{
		ID:        c.ID,
		MangaID:   c.MangaID,
		Number:    c.Number,
		Title:     c.Title,
		PageCount: len(c.Pages),
		IsPaid:    c.RequiresPayment(),
		Price:     c.Price,
		Views:     c.Views,
		CreatedAt: c.CreatedAt,
	}
}

// ChapterSummary is the listing shape of a chapter
type ChapterSummary struct {
	ID        string    `json:"id"`
	MangaID   string    `json:"manga_id"`
	Number    float64   `json:"chapter_number"`
	Title     string    `json:"title"`
	PageCount int       `json:"page_count"`
	IsPaid    bool      `json:"is_paid"`
	Price     int       `json:"price"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
}

// ReaderView is what the chapter reader receives. Pages stay empty while
// the paywall is locked.
type ReaderView struct {
	Chapter       ChapterSummary  `json:"chapter"`
	Pages         []string        `json:"pages"`
	PrevChapterID *string         `json:"prev_chapter_id,omitempty"`
	NextChapterID *string         `json:"next_chapter_id,omitempty"`
	Paywall       PaywallDecision `json:"paywall"`
}

// CreateChapterRequest represents a chapter upload
type CreateChapterRequest struct {
	Number *float64 `json:"chapter_number" binding:"required"`
	Title  string   `json:"title"`
	Pages  []string `json:"pages"`
	IsPaid bool     `json:"is_paid"`
	Price  int      `json:"price"`
}

// UpdateChapterRequest represents a partial chapter update. A non-nil
// Pages replaces the whole page list.
type UpdateChapterRequest struct {
	Number *float64 `json:"chapter_number"`
	Title  *string  `json:"title"`
	Pages  []string `json:"pages"`
	IsPaid *bool    `json:"is_paid"`
	Price  *int     `json:"price"`
}
