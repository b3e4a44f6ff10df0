package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"mangareader/pkg/models"
)

// LibraryRepository handles favorites and reading history
type LibraryRepository interface {
	AddFavorite(ctx context.Context, userID, mangaID string) error
	RemoveFavorite(ctx context.Context, userID, mangaID string) (bool, error)
	IsFavorite(ctx context.Context, userID, mangaID string) (bool, error)
	ListFavorites(ctx context.Context, userID string, limit, offset int) ([]models.FavoriteItem, error)

	RecordHistory(ctx context.Context, userID, mangaID, chapterID string, chapterNumber float64) error
	ListHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryItem, error)
	DeleteHistory(ctx context.Context, userID, mangaID string) (bool, error)
	ClearHistory(ctx context.Context, userID string) (int64, error)
}

type libraryRepository struct {
	pool *pgxpool.Pool
}

// NewLibraryRepository creates a new PostgreSQL library repository
func NewLibraryRepository(pool *pgxpool.Pool) LibraryRepository {
	return &libraryRepository{pool: pool}
}

// AddFavorite is an upsert; adding twice keeps the first timestamp
func (r *libraryRepository) AddFavorite(ctx context.Context, userID, mangaID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO favorites (user_id, manga_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, manga_id) DO NOTHING
	`, userID, mangaID)
	return mapDBError(err, "add_favorite", models.ErrMangaNotFound, models.ErrWriteFailure)
}

// RemoveFavorite reports whether a row was removed
func (r *libraryRepository) RemoveFavorite(ctx context.Context, userID, mangaID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND manga_id = $2`, userID, mangaID)
	if err != nil {
		return false, mapDBError(err, "remove_favorite", models.ErrMangaNotFound, models.ErrWriteFailure)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *libraryRepository) IsFavorite(ctx context.Context, userID, mangaID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND manga_id = $2)`,
		userID, mangaID,
	).Scan(&ok)
	if err != nil {
		return false, mapDBError(err, "is_favorite", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	return ok, nil
}

// ListFavorites joins favorites with manga, newest first
func (r *libraryRepository) ListFavorites(ctx context.Context, userID string, limit, offset int) ([]models.FavoriteItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+mangaColumns+`, f.added_at
		FROM favorites f
		JOIN manga m ON m.id = f.manga_id
		WHERE f.user_id = $1
		ORDER BY f.added_at DESC, m.id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, mapDBError(err, "list_favorites", models.ErrUserNotFound, models.ErrReadFailure)
	}
	defer rows.Close()

	out := []models.FavoriteItem{}
	for rows.Next() {
		var item models.FavoriteItem
		if err := scanManga(rows, &item.Manga, &item.AddedAt); err != nil {
			return nil, mapDBError(err, "list_favorites", models.ErrUserNotFound, models.ErrReadFailure)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "list_favorites", models.ErrUserNotFound, models.ErrReadFailure)
	}
	return out, nil
}

// RecordHistory upserts the last-read position for a manga
func (r *libraryRepository) RecordHistory(ctx context.Context, userID, mangaID, chapterID string, chapterNumber float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reading_history (user_id, manga_id, last_chapter_id, last_chapter_number, last_read_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id, manga_id) DO UPDATE
		SET last_chapter_id = EXCLUDED.last_chapter_id,
		    last_chapter_number = EXCLUDED.last_chapter_number,
		    last_read_at = EXCLUDED.last_read_at
	`, userID, mangaID, chapterID, chapterNumber)
	return mapDBError(err, "record_history", models.ErrMangaNotFound, models.ErrWriteFailure)
}

// ListHistory joins history with manga, most recently read first
func (r *libraryRepository) ListHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+mangaColumns+`, h.last_chapter_id, h.last_chapter_number, h.last_read_at
		FROM reading_history h
		JOIN manga m ON m.id = h.manga_id
		WHERE h.user_id = $1
		ORDER BY h.last_read_at DESC, m.id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, mapDBError(err, "list_history", models.ErrUserNotFound, models.ErrReadFailure)
	}
	defer rows.Close()

	out := []models.HistoryItem{}
	for rows.Next() {
		var item models.HistoryItem
		if err := scanManga(rows, &item.Manga, &item.LastChapterID, &item.LastChapterNumber, &item.LastReadAt); err != nil {
			return nil, mapDBError(err, "list_history", models.ErrUserNotFound, models.ErrReadFailure)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "list_history", models.ErrUserNotFound, models.ErrReadFailure)
	}
	return out, nil
}

func (r *libraryRepository) DeleteHistory(ctx context.Context, userID, mangaID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reading_history WHERE user_id = $1 AND manga_id = $2`, userID, mangaID)
	if err != nil {
		return false, mapDBError(err, "delete_history", models.ErrMangaNotFound, models.ErrWriteFailure)
	}
	return tag.RowsAffected() > 0, nil
}

// ClearHistory removes every history row of the user
func (r *libraryRepository) ClearHistory(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM reading_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapDBError(err, "clear_history", models.ErrUserNotFound, models.ErrWriteFailure)
	}
	return tag.RowsAffected(), nil
}
