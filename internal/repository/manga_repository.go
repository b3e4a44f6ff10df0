package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangareader/pkg/models"
)

// MangaRepository handles catalog persistence
type MangaRepository interface {
	Create(ctx context.Context, manga *models.Manga) error
	GetByID(ctx context.Context, id string) (*models.Manga, error)
	GetMany(ctx context.Context, ids []string) ([]models.Manga, error)
	Update(ctx context.Context, manga *models.Manga) error
	Delete(ctx context.Context, id string) error

	// List returns one sorted page plus the total match count. It may fail
	// with ErrIndexRequired, ListUnordered then serves the same filter.
	List(ctx context.Context, filter models.MangaListRequest) ([]models.Manga, int, error)
	ListUnordered(ctx context.Context, filter models.MangaListRequest) ([]models.Manga, error)
	ListRecent(ctx context.Context, limit int) ([]models.Manga, error)
	ListByAnyGenre(ctx context.Context, genres []string) ([]models.Manga, error)
	Categories(ctx context.Context) ([]models.Category, error)

	IncrementViews(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) (int64, error)
}

type mangaRepository struct {
	pool *pgxpool.Pool
}

// NewMangaRepository creates a new PostgreSQL manga repository
func NewMangaRepository(pool *pgxpool.Pool) MangaRepository {
	return &mangaRepository{pool: pool}
}

const mangaColumns = `m.id, m.title, m.author, m.description, m.genres, m.status,
	m.rating, m.rating_count, m.views, m.likes, m.cover_url, m.created_at, m.updated_at`

// scanManga reads mangaColumns plus any extra destinations appended after them
func scanManga(row pgx.Row, m *models.Manga, extra ...any) error {
	var status string
	dest := []any{
		&m.ID, &m.Title, &m.Author, &m.Description, &m.Genres, &status,
		&m.Rating, &m.RatingCount, &m.Views, &m.Likes, &m.CoverURL, &m.CreatedAt, &m.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	m.Status = models.MangaStatus(status)
	if m.Genres == nil {
		m.Genres = []string{}
	}
	return nil
}

func collectManga(rows pgx.Rows) ([]models.Manga, error) {
	defer rows.Close()
	out := []models.Manga{}
	for rows.Next() {
		var m models.Manga
		if err := scanManga(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserts a manga. Defaults for unset fields come from the schema.
func (r *mangaRepository) Create(ctx context.Context, manga *models.Manga) error {
	query := `
		INSERT INTO manga (id, title, author, description, genres, status, rating, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING rating_count, views, likes, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		manga.ID,
		manga.Title,
		manga.Author,
		manga.Description,
		manga.Genres,
		string(manga.Status),
		manga.Rating,
		manga.CoverURL,
	).Scan(&manga.RatingCount, &manga.Views, &manga.Likes, &manga.CreatedAt, &manga.UpdatedAt)
	return mapDBError(err, "create_manga", models.ErrMangaNotFound, models.ErrWriteFailure)
}

// GetByID retrieves a manga by ID
func (r *mangaRepository) GetByID(ctx context.Context, id string) (*models.Manga, error) {
	query := `SELECT ` + mangaColumns + ` FROM manga m WHERE m.id = $1`

	manga := &models.Manga{}
	if err := scanManga(r.pool.QueryRow(ctx, query, id), manga); err != nil {
		return nil, mapDBError(err, "get_manga_by_id", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	return manga, nil
}

// GetMany fetches the given IDs in no particular order, skipping missing ones
func (r *mangaRepository) GetMany(ctx context.Context, ids []string) ([]models.Manga, error) {
	if len(ids) == 0 {
		return []models.Manga{}, nil
	}
	query := `SELECT ` + mangaColumns + ` FROM manga m WHERE m.id::text = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, mapDBError(err, "get_many_manga", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	out, err := collectManga(rows)
	if err != nil {
		return nil, mapDBError(err, "get_many_manga", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	return out, nil
}

// Update writes every mutable column of the manga
func (r *mangaRepository) Update(ctx context.Context, manga *models.Manga) error {
	query := `
		UPDATE manga
		SET title = $2, author = $3, description = $4, genres = $5, status = $6,
		    rating = $7, cover_url = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		manga.ID,
		manga.Title,
		manga.Author,
		manga.Description,
		manga.Genres,
		string(manga.Status),
		manga.Rating,
		manga.CoverURL,
	).Scan(&manga.UpdatedAt)
	return mapDBError(err, "update_manga", models.ErrMangaNotFound, models.ErrWriteFailure)
}

// Delete removes a manga; chapters, purchases and library rows cascade
func (r *mangaRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM manga WHERE id = $1`, id)
	if err != nil {
		return mapDBError(err, "delete_manga", models.ErrMangaNotFound, models.ErrWriteFailure)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete_manga: %w", models.ErrMangaNotFound)
	}
	return nil
}

// filterClause renders the WHERE part shared by List, ListUnordered and the count
func filterClause(filter models.MangaListRequest) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Query != "" {
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(lower(m.title) LIKE $%d OR lower(m.author) LIKE $%d OR EXISTS (SELECT 1 FROM unnest(m.genres) g WHERE lower(g) LIKE $%d))`,
			n, n, n))
	}
	if filter.Genre != "" {
		args = append(args, strings.ToLower(filter.Genre))
		conds = append(conds, fmt.Sprintf(`EXISTS (SELECT 1 FROM unnest(m.genres) g WHERE lower(g) = $%d)`, len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf(`m.status = $%d`, len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(sort string) string {
	switch sort {
	case models.SortViews:
		return ` ORDER BY m.views DESC, m.id`
	case models.SortRating:
		return ` ORDER BY m.rating DESC, m.id`
	case models.SortTitle:
		return ` ORDER BY lower(m.title) ASC, m.id`
	default:
		return ` ORDER BY m.created_at DESC, m.id`
	}
}

// List returns one sorted page of the filtered catalog
func (r *mangaRepository) List(ctx context.Context, filter models.MangaListRequest) ([]models.Manga, int, error) {
	where, args := filterClause(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM manga m`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapOrderedQueryError(err, "count_manga")
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + mangaColumns + ` FROM manga m` + where + orderClause(filter.Sort) +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapOrderedQueryError(err, "list_manga")
	}
	out, err := collectManga(rows)
	if err != nil {
		return nil, 0, mapOrderedQueryError(err, "list_manga")
	}
	return out, total, nil
}

// ListUnordered returns every match without ORDER BY or paging
func (r *mangaRepository) ListUnordered(ctx context.Context, filter models.MangaListRequest) ([]models.Manga, error) {
	where, args := filterClause(filter)
	rows, err := r.pool.Query(ctx, `SELECT `+mangaColumns+` FROM manga m`+where, args...)
	if err != nil {
		return nil, mapDBError(err, "list_manga_unordered", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	out, err := collectManga(rows)
	if err != nil {
		return nil, mapDBError(err, "list_manga_unordered", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	return out, nil
}

// ListRecent returns the newest manga first
func (r *mangaRepository) ListRecent(ctx context.Context, limit int) ([]models.Manga, error) {
	query := `SELECT ` + mangaColumns + ` FROM manga m ORDER BY m.created_at DESC, m.id LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, mapOrderedQueryError(err, "list_recent_manga")
	}
	out, err := collectManga(rows)
	if err != nil {
		return nil, mapOrderedQueryError(err, "list_recent_manga")
	}
	return out, nil
}

// ListByAnyGenre returns every manga sharing at least one of the genres
func (r *mangaRepository) ListByAnyGenre(ctx context.Context, genres []string) ([]models.Manga, error) {
	if len(genres) == 0 {
		return []models.Manga{}, nil
	}
	query := `SELECT ` + mangaColumns + ` FROM manga m WHERE m.genres && $1::text[]`
	rows, err := r.pool.Query(ctx, query, genres)
	if err != nil {
		return nil, mapDBError(err, "list_manga_by_genre", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	out, err := collectManga(rows)
	if err != nil {
		return nil, mapDBError(err, "list_manga_by_genre", models.ErrMangaNotFound, models.ErrReadFailure)
	}
	return out, nil
}

// Categories lists distinct genres with their manga counts
func (r *mangaRepository) Categories(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT g, count(*)
		FROM manga m, unnest(m.genres) AS g
		GROUP BY g
		ORDER BY count(*) DESC, g
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, mapDBError(err, "list_categories", models.ErrNotFound, models.ErrReadFailure)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, mapDBError(err, "list_categories", models.ErrNotFound, models.ErrReadFailure)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "list_categories", models.ErrNotFound, models.ErrReadFailure)
	}
	return out, nil
}

// IncrementViews bumps the view counter
func (r *mangaRepository) IncrementViews(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE manga SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return mapDBError(err, "increment_manga_views", models.ErrMangaNotFound, models.ErrWriteFailure)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("increment_manga_views: %w", models.ErrMangaNotFound)
	}
	return nil
}

// IncrementLikes bumps the like counter and returns the new value
func (r *mangaRepository) IncrementLikes(ctx context.Context, id string) (int64, error) {
	var likes int64
	err := r.pool.QueryRow(ctx, `UPDATE manga SET likes = likes + 1 WHERE id = $1 RETURNING likes`, id).Scan(&likes)
	if err != nil {
		return 0, mapDBError(err, "increment_manga_likes", models.ErrMangaNotFound, models.ErrWriteFailure)
	}
	return likes, nil
}
