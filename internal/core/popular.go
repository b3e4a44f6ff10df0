// Package core - Popular list
// Admin-curated ordering of featured manga
package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"mangareader/internal/repository"
	"mangareader/pkg/logger"
	"mangareader/pkg/metrics"
	"mangareader/pkg/models"
)

const defaultPopularSize = 10

// NormalizePopular sorts entries by order, drops repeated IDs (first one
// wins) and renumbers 1..n
func NormalizePopular(entries []models.PopularEntry) []models.PopularEntry {
	sorted := make([]models.PopularEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	out := make([]models.PopularEntry, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, e := range sorted {
		if e.MangaID == "" {
			continue
		}
		if _, dup := seen[e.MangaID]; dup {
			continue
		}
		seen[e.MangaID] = struct{}{}
		out = append(out, models.PopularEntry{MangaID: e.MangaID, Order: len(out) + 1})
	}
	return out
}

// AddPopular appends the manga unless it is already listed
func AddPopular(entries []models.PopularEntry, mangaID string) []models.PopularEntry {
	entries = NormalizePopular(entries)
	for _, e := range entries {
		if e.MangaID == mangaID {
			return entries
		}
	}
	return append(entries, models.PopularEntry{MangaID: mangaID, Order: len(entries) + 1})
}

// RemovePopular drops the manga and renumbers the rest
func RemovePopular(entries []models.PopularEntry, mangaID string) []models.PopularEntry {
	kept := make([]models.PopularEntry, 0, len(entries))
	for _, e := range NormalizePopular(entries) {
		if e.MangaID != mangaID {
			kept = append(kept, e)
		}
	}
	return NormalizePopular(kept)
}

// MovePopular moves the entry at zero-based index from to index to
func MovePopular(entries []models.PopularEntry, from, to int) ([]models.PopularEntry, error) {
	entries = NormalizePopular(entries)
	if from < 0 || from >= len(entries) || to < 0 || to >= len(entries) {
		return nil, models.Invalidf("move %d -> %d out of range for %d entries", from, to, len(entries))
	}
	if from == to {
		return entries, nil
	}

	moved := entries[from]
	rest := append(append([]models.PopularEntry{}, entries[:from]...), entries[from+1:]...)
	out := make([]models.PopularEntry, 0, len(entries))
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	for i := range out {
		out[i].Order = i + 1
	}
	return out, nil
}

// ReplacePopular builds a list from ids in the given order
func ReplacePopular(ids []string) []models.PopularEntry {
	entries := make([]models.PopularEntry, 0, len(ids))
	for i, id := range ids {
		entries = append(entries, models.PopularEntry{MangaID: id, Order: i + 1})
	}
	return NormalizePopular(entries)
}

// PopularService defines popular list operations
type PopularService interface {
	// Get returns the curated list joined with manga, or the newest manga
	// when nothing is curated yet
	Get(ctx context.Context) ([]models.PopularManga, error)
	Entries(ctx context.Context) ([]models.PopularEntry, error)
	Add(ctx context.Context, mangaID string) ([]models.PopularEntry, error)
	Remove(ctx context.Context, mangaID string) ([]models.PopularEntry, error)
	Move(ctx context.Context, from, to int) ([]models.PopularEntry, error)
	Replace(ctx context.Context, mangaIDs []string) ([]models.PopularEntry, error)
}

type popularService struct {
	popularRepo repository.PopularRepository
	mangaRepo   repository.MangaRepository
	defaultSize int
}

// NewPopularService creates a new popular list service
func NewPopularService(popularRepo repository.PopularRepository, mangaRepo repository.MangaRepository, defaultSize int) PopularService {
	if defaultSize <= 0 {
		defaultSize = defaultPopularSize
	}
	return &popularService{popularRepo: popularRepo, mangaRepo: mangaRepo, defaultSize: defaultSize}
}

func (s *popularService) Get(ctx context.Context) ([]models.PopularManga, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return s.defaults(ctx)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.MangaID)
	}
	found, err := s.mangaRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Manga, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}

	out := make([]models.PopularManga, 0, len(entries))
	for _, e := range entries {
		m, ok := byID[e.MangaID]
		if !ok {
			continue
		}
		out = append(out, models.PopularManga{Manga: m, Order: len(out) + 1})
	}
	return out, nil
}

// defaults is the newest catalog page numbered 1..n; it is not stored
func (s *popularService) defaults(ctx context.Context) ([]models.PopularManga, error) {
	recent, err := s.mangaRepo.ListRecent(ctx, s.defaultSize)
	if errors.Is(err, models.ErrIndexRequired) {
		logger.Warnf("Recent manga query needs an index, sorting in memory: %v", err)
		metrics.CatalogFallbacksTotal.WithLabelValues("popular").Inc()
		recent, err = s.mangaRepo.ListUnordered(ctx, models.MangaListRequest{})
		if err == nil {
			sortManga(recent, models.SortNewest)
			recent = paginate(recent, 0, s.defaultSize)
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.PopularManga, 0, len(recent))
	for i, m := range recent {
		out = append(out, models.PopularManga{Manga: m, Order: i + 1})
	}
	return out, nil
}

func (s *popularService) Entries(ctx context.Context) ([]models.PopularEntry, error) {
	entries, err := s.popularRepo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NormalizePopular(entries), nil
}

func (s *popularService) Add(ctx context.Context, mangaID string) ([]models.PopularEntry, error) {
	if _, err := s.mangaRepo.GetByID(ctx, mangaID); err != nil {
		return nil, err
	}
	return s.popularRepo.Update(ctx, func(cur []models.PopularEntry) ([]models.PopularEntry, error) {
		return AddPopular(cur, mangaID), nil
	})
}

func (s *popularService) Remove(ctx context.Context, mangaID string) ([]models.PopularEntry, error) {
	return s.popularRepo.Update(ctx, func(cur []models.PopularEntry) ([]models.PopularEntry, error) {
		return RemovePopular(cur, mangaID), nil
	})
}

func (s *popularService) Move(ctx context.Context, from, to int) ([]models.PopularEntry, error) {
	return s.popularRepo.Update(ctx, func(cur []models.PopularEntry) ([]models.PopularEntry, error) {
		return MovePopular(cur, from, to)
	})
}

// Replace stores ids as the new list; every ID must exist
func (s *popularService) Replace(ctx context.Context, mangaIDs []string) ([]models.PopularEntry, error) {
	entries := ReplacePopular(mangaIDs)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.MangaID)
	}
	found, err := s.mangaRepo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, fmt.Errorf("popular list references %d unknown manga: %w", len(ids)-len(found), models.ErrMangaNotFound)
	}
	return s.popularRepo.Update(ctx, func([]models.PopularEntry) ([]models.PopularEntry, error) {
		return entries, nil
	})
}
