// Package core - Manga Business Logic
// Protocol-agnostic catalog service
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"mangareader/internal/repository"
	"mangareader/pkg/logger"
	"mangareader/pkg/metrics"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

// MangaService defines catalog operations
type MangaService interface {
	Create(ctx context.Context, req models.CreateMangaRequest) (*models.Manga, error)
	GetByID(ctx context.Context, id string) (*models.Manga, error)
	// View is GetByID for the public detail page and counts the visit
	View(ctx context.Context, id string) (*models.Manga, error)
	List(ctx context.Context, req models.MangaListRequest) (*models.MangaListResponse, error)
	Search(ctx context.Context, query string, limit, offset int) (*models.MangaListResponse, error)
	ListByCategory(ctx context.Context, genre string, limit, offset int) (*models.MangaListResponse, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, id string, req models.UpdateMangaRequest) (*models.Manga, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, id string) (int64, error)
}

type mangaService struct {
	mangaRepo repository.MangaRepository
}

// NewMangaService creates a new manga service
func NewMangaService(mangaRepo repository.MangaRepository) MangaService {
	return &mangaService{
		mangaRepo: mangaRepo,
	}
}

// Create creates a new manga
func (s *mangaService) Create(ctx context.Context, req models.CreateMangaRequest) (*models.Manga, error) {
	title := strings.TrimSpace(req.Title)
	if err := utils.ValidateMangaTitle(title); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = string(models.MangaStatusOngoing)
	}
	if !models.IsValidMangaStatus(req.Status) {
		return nil, models.Invalidf("invalid status %q", req.Status)
	}
	var rating float64
	if req.Rating != nil {
		if err := utils.ValidateRating(*req.Rating); err != nil {
			return nil, err
		}
		rating = *req.Rating
	}

	manga := &models.Manga{
		ID:          utils.NewID(),
		Title:       title,
		Author:      strings.TrimSpace(req.Author),
		Description: strings.TrimSpace(req.Description),
		Genres:      models.NormalizeGenres(req.Genres),
		Status:      models.MangaStatus(req.Status),
		Rating:      rating,
		CoverURL:    strings.TrimSpace(req.CoverURL),
	}

	if err := s.mangaRepo.Create(ctx, manga); err != nil {
		return nil, fmt.Errorf("failed to create manga: %w", err)
	}
	return manga, nil
}

// GetByID retrieves a manga by ID
func (s *mangaService) GetByID(ctx context.Context, id string) (*models.Manga, error) {
	return s.mangaRepo.GetByID(ctx, id)
}

// View retrieves a manga and counts the view. A failed counter update
// does not fail the read.
func (s *mangaService) View(ctx context.Context, id string) (*models.Manga, error) {
	manga, err := s.mangaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.mangaRepo.IncrementViews(ctx, id); err != nil {
		logger.Warnf("Failed to count view for manga %s: %v", id, err)
	} else {
		manga.Views++
	}
	return manga, nil
}

// List retrieves manga with pagination, falling back to an in-memory sort
// when the store cannot serve the ordered query
func (s *mangaService) List(ctx context.Context, req models.MangaListRequest) (*models.MangaListResponse, error) {
	req.Normalize()
	if req.Status != "" && !models.IsValidMangaStatus(req.Status) {
		return nil, models.Invalidf("invalid status %q", req.Status)
	}

	list, total, err := s.mangaRepo.List(ctx, req)
	if errors.Is(err, models.ErrIndexRequired) {
		logger.Warnf("Ordered manga listing unavailable, sorting in memory: %v", err)
		metrics.CatalogFallbacksTotal.WithLabelValues("manga").Inc()
		list, total, err = s.listUnordered(ctx, req)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list manga: %w", err)
	}

	return &models.MangaListResponse{
		Data:    list,
		Total:   total,
		Limit:   req.Limit,
		Offset:  req.Offset,
		HasMore: req.Offset+len(list) < total,
	}, nil
}

func (s *mangaService) listUnordered(ctx context.Context, req models.MangaListRequest) ([]models.Manga, int, error) {
	all, err := s.mangaRepo.ListUnordered(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	sortManga(all, req.Sort)
	return paginate(all, req.Offset, req.Limit), len(all), nil
}

// Search performs a case-insensitive substring search on title, author and genres
func (s *mangaService) Search(ctx context.Context, query string, limit, offset int) (*models.MangaListResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.Invalidf("search query cannot be empty")
	}
	return s.List(ctx, models.MangaListRequest{Query: query, Limit: limit, Offset: offset})
}

// ListByCategory lists manga carrying the genre, newest first
func (s *mangaService) ListByCategory(ctx context.Context, genre string, limit, offset int) (*models.MangaListResponse, error) {
	if strings.TrimSpace(genre) == "" {
		return nil, models.Invalidf("genre cannot be empty")
	}
	return s.List(ctx, models.MangaListRequest{Genre: genre, Limit: limit, Offset: offset})
}

func (s *mangaService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.mangaRepo.Categories(ctx)
}

// Update applies the non-nil fields of req
func (s *mangaService) Update(ctx context.Context, id string, req models.UpdateMangaRequest) (*models.Manga, error) {
	manga, err := s.mangaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := utils.ValidateMangaTitle(title); err != nil {
			return nil, err
		}
		manga.Title = title
	}
	if req.Author != nil {
		manga.Author = strings.TrimSpace(*req.Author)
	}
	if req.Description != nil {
		manga.Description = strings.TrimSpace(*req.Description)
	}
	if req.CoverURL != nil {
		manga.CoverURL = strings.TrimSpace(*req.CoverURL)
	}
	if req.Status != nil {
		if !models.IsValidMangaStatus(*req.Status) {
			return nil, models.Invalidf("invalid status %q", *req.Status)
		}
		manga.Status = models.MangaStatus(*req.Status)
	}
	if req.Genres != nil {
		manga.Genres = models.NormalizeGenres(req.Genres)
	}
	if req.Rating != nil {
		if err := utils.ValidateRating(*req.Rating); err != nil {
			return nil, err
		}
		manga.Rating = *req.Rating
	}

	if err := s.mangaRepo.Update(ctx, manga); err != nil {
		return nil, fmt.Errorf("failed to update manga: %w", err)
	}
	return manga, nil
}

// Delete removes a manga
func (s *mangaService) Delete(ctx context.Context, id string) error {
	if err := s.mangaRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete manga: %w", err)
	}
	return nil
}

func (s *mangaService) Like(ctx context.Context, id string) (int64, error) {
	return s.mangaRepo.IncrementLikes(ctx, id)
}

// sortManga orders items the same way the repository ORDER BY clauses do
func sortManga(items []models.Manga, key string) {
	less := func(i, j int) bool {
		a, b := items[i], items[j]
		switch key {
		case models.SortViews:
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		case models.SortRating:
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
		case models.SortTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	}
	sort.SliceStable(items, less)
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
