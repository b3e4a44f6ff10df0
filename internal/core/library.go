// Package core - Library
// Favorites and reading history of a signed-in reader
package core

import (
	"context"

	"mangareader/internal/repository"
	"mangareader/pkg/models"
)

// LibraryService defines favorites and history operations
type LibraryService interface {
	AddFavorite(ctx context.Context, userID, mangaID string) error
	RemoveFavorite(ctx context.Context, userID, mangaID string) error
	IsFavorite(ctx context.Context, userID, mangaID string) (bool, error)
	ListFavorites(ctx context.Context, userID string, limit, offset int) ([]models.FavoriteItem, error)

	RecordHistory(ctx context.Context, userID, mangaID, chapterID string, chapterNumber float64) error
	ListHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryItem, error)
	DeleteHistory(ctx context.Context, userID, mangaID string) error
	ClearHistory(ctx context.Context, userID string) (int64, error)
}

type libraryService struct {
	libraryRepo repository.LibraryRepository
}

// NewLibraryService creates a new library service
func NewLibraryService(libraryRepo repository.LibraryRepository) LibraryService {
	return &libraryService{libraryRepo: libraryRepo}
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// AddFavorite is idempotent; an unknown manga yields ErrMangaNotFound
func (s *libraryService) AddFavorite(ctx context.Context, userID, mangaID string) error {
	return s.libraryRepo.AddFavorite(ctx, userID, mangaID)
}

// RemoveFavorite is idempotent
func (s *libraryService) RemoveFavorite(ctx context.Context, userID, mangaID string) error {
	_, err := s.libraryRepo.RemoveFavorite(ctx, userID, mangaID)
	return err
}

func (s *libraryService) IsFavorite(ctx context.Context, userID, mangaID string) (bool, error) {
	return s.libraryRepo.IsFavorite(ctx, userID, mangaID)
}

func (s *libraryService) ListFavorites(ctx context.Context, userID string, limit, offset int) ([]models.FavoriteItem, error) {
	limit, offset = pageBounds(limit, offset)
	return s.libraryRepo.ListFavorites(ctx, userID, limit, offset)
}

func (s *libraryService) RecordHistory(ctx context.Context, userID, mangaID, chapterID string, chapterNumber float64) error {
	return s.libraryRepo.RecordHistory(ctx, userID, mangaID, chapterID, chapterNumber)
}

func (s *libraryService) ListHistory(ctx context.Context, userID string, limit, offset int) ([]models.HistoryItem, error) {
	limit, offset = pageBounds(limit, offset)
	return s.libraryRepo.ListHistory(ctx, userID, limit, offset)
}

func (s *libraryService) DeleteHistory(ctx context.Context, userID, mangaID string) error {
	_, err := s.libraryRepo.DeleteHistory(ctx, userID, mangaID)
	return err
}

func (s *libraryService) ClearHistory(ctx context.Context, userID string) (int64, error) {
	return s.libraryRepo.ClearHistory(ctx, userID)
}
