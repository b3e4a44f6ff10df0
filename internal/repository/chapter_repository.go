package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangareader/pkg/models"
)

// ChapterRepository handles chapter persistence
type ChapterRepository interface {
	Create(ctx context.Context, chapter *models.Chapter) error
	GetByID(ctx context.Context, id string) (*models.Chapter, error)
	// ListByManga returns chapters by ascending number. It may fail with
	// ErrIndexRequired, ListByMangaUnordered then serves the same rows.
	ListByManga(ctx context.Context, mangaID string) ([]models.Chapter, error)
	ListByMangaUnordered(ctx context.Context, mangaID string) ([]models.Chapter, error)
	Update(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

type chapterRepository struct {
	pool *pgxpool.Pool
}

// NewChapterRepository creates a new PostgreSQL chapter repository
func NewChapterRepository(pool *pgxpool.Pool) ChapterRepository {
	return &chapterRepository{pool: pool}
}

const chapterColumns = `c.id, c.manga_id, c.chapter_number, c.title, c.pages, c.is_paid,
	c.price, c.views, c.created_at, c.updated_at`

func scanChapter(row pgx.Row, c *models.Chapter) error {
	err := row.Scan(&c.ID, &c.MangaID, &c.Number, &c.Title, &c.Pages, &c.IsPaid,
		&c.Price, &c.Views, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}
	if c.Pages == nil {
		c.Pages = []string{}
	}
	return nil
}

func collectChapters(rows pgx.Rows) ([]models.Chapter, error) {
	defer rows.Close()
	out := []models.Chapter{}
	for rows.Next() {
		var c models.Chapter
		if err := scanChapter(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a chapter; the manga must exist and the number be unused
func (r *chapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	query := `
		INSERT INTO chapters (id, manga_id, chapter_number, title, pages, is_paid, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING views, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		chapter.ID,
		chapter.MangaID,
		chapter.Number,
		chapter.Title,
		chapter.Pages,
		chapter.IsPaid,
		chapter.Price,
	).Scan(&chapter.Views, &chapter.CreatedAt, &chapter.UpdatedAt)
	return mapDBError(err, "create_chapter", models.ErrMangaNotFound, models.ErrWriteFailure)
}

// GetByID retrieves a chapter with its pages
func (r *chapterRepository) GetByID(ctx context.Context, id string) (*models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters c WHERE c.id = $1`

	chapter := &models.Chapter{}
	if err := scanChapter(r.pool.QueryRow(ctx, query, id), chapter); err != nil {
		return nil, mapDBError(err, "get_chapter_by_id", models.ErrChapterNotFound, models.ErrReadFailure)
	}
	return chapter, nil
}

// ListByManga returns every chapter of a manga by ascending number
func (r *chapterRepository) ListByManga(ctx context.Context, mangaID string) ([]models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters c WHERE c.manga_id = $1 ORDER BY c.chapter_number ASC`
	rows, err := r.pool.Query(ctx, query, mangaID)
	if err != nil {
		return nil, mapOrderedQueryError(err, "list_chapters")
	}
	out, err := collectChapters(rows)
	if err != nil {
		return nil, mapOrderedQueryError(err, "list_chapters")
	}
	return out, nil
}

// ListByMangaUnordered returns every chapter of a manga in storage order
func (r *chapterRepository) ListByMangaUnordered(ctx context.Context, mangaID string) ([]models.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters c WHERE c.manga_id = $1`
	rows, err := r.pool.Query(ctx, query, mangaID)
	if err != nil {
		return nil, mapDBError(err, "list_chapters_unordered", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	out, err := collectChapters(rows)
	if err != nil {
		return nil, mapDBError(err, "list_chapters_unordered", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	return out, nil
}

// Update writes every mutable column of the chapter
func (r *chapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	query := `
		UPDATE chapters
		SET chapter_number = $2, title = $3, pages = $4, is_paid = $5, price = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		chapter.ID,
		chapter.Number,
		chapter.Title,
		chapter.Pages,
		chapter.IsPaid,
		chapter.Price,
	).Scan(&chapter.UpdatedAt)
	return mapDBError(err, "update_chapter", models.ErrChapterNotFound, models.ErrWriteFailure)
}

// Delete removes a chapter; purchases cascade, ledger rows keep a NULL reference
func (r *chapterRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chapters WHERE id = $1`, id)
	if err != nil {
		return mapDBError(err, "delete_chapter", models.ErrChapterNotFound, models.ErrWriteFailure)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete_chapter: %w", models.ErrChapterNotFound)
	}
	return nil
}

// IncrementViews bumps the chapter view counter
func (r *chapterRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE chapters SET views = views + 1 WHERE id = $1`, id)
	return mapDBError(err, "increment_chapter_views", models.ErrChapterNotFound, models.ErrWriteFailure)
}
