// Package core - Chapters
// Chapter administration and the reader payload
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

// ChapterService defines chapter operations
type ChapterService interface {
	Create(ctx context.Context, mangaID string, req models.CreateChapterRequest) (*models.Chapter, error)
	Update(ctx context.Context, id string, req models.UpdateChapterRequest) (*models.Chapter, error)
	Delete(ctx context.Context, id string) error
	ListByManga(ctx context.Context, mangaID string) ([]models.ChapterSummary, error)
	Read(ctx context.Context, chapterID string, viewer *models.Viewer) (*models.ReaderView, error)
}

type chapterService struct {
	mangaRepo   repository.MangaRepository
	chapterRepo repository.ChapterRepository
	paywall     PaywallService
	library     LibraryService
}

// NewChapterService creates a new chapter service
func NewChapterService(mangaRepo repository.MangaRepository, chapterRepo repository.ChapterRepository, paywall PaywallService, library LibraryService) ChapterService {
	return &chapterService{
		mangaRepo:   mangaRepo,
		chapterRepo: chapterRepo,
		paywall:     paywall,
		library:     library,
	}
}

func cleanPages(pages []string) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func validateChapterNumber(n float64) error {
	if n < 0 {
		return models.Invalidf("chapter number must not be negative")
	}
	return nil
}

// Create adds a chapter to an existing manga
func (s *chapterService) Create(ctx context.Context, mangaID string, req models.CreateChapterRequest) (*models.Chapter, error) {
	if req.Number == nil {
		return nil, models.Invalidf("chapter number is required")
	}
	if err := validateChapterNumber(*req.Number); err != nil {
		return nil, err
	}
	if err := utils.ValidatePrice(req.Price); err != nil {
		return nil, err
	}
	if _, err := s.mangaRepo.GetByID(ctx, mangaID); err != nil {
		return nil, err
	}

	chapter := &models.Chapter{
		ID:      utils.NewID(),
		MangaID: mangaID,
		Number:  *req.Number,
		Title:   strings.TrimSpace(req.Title),
		Pages:   cleanPages(req.Pages),
		IsPaid:  req.IsPaid,
		Price:   req.Price,
	}
	if err := s.chapterRepo.Create(ctx, chapter); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("chapter %s already exists: %w", utils.FormatChapterNumber(chapter.Number), models.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	return chapter, nil
}

// Update applies the non-nil fields; a non-nil page list replaces the old one
func (s *chapterService) Update(ctx context.Context, id string, req models.UpdateChapterRequest) (*models.Chapter, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Number != nil {
		if err := validateChapterNumber(*req.Number); err != nil {
			return nil, err
		}
		chapter.Number = *req.Number
	}
	if req.Title != nil {
		chapter.Title = strings.TrimSpace(*req.Title)
	}
	if req.Pages != nil {
		chapter.Pages = cleanPages(req.Pages)
	}
	if req.IsPaid != nil {
		chapter.IsPaid = *req.IsPaid
	}
	if req.Price != nil {
		if err := utils.ValidatePrice(*req.Price); err != nil {
			return nil, err
		}
		chapter.Price = *req.Price
	}

	if err := s.chapterRepo.Update(ctx, chapter); err != nil {
		return nil, fmt.Errorf("failed to update chapter: %w", err)
	}
	return chapter, nil
}

func (s *chapterService) Delete(ctx context.Context, id string) error {
	if err := s.chapterRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	return nil
}

// ListByManga lists chapter summaries by ascending number
func (s *chapterService) ListByManga(ctx context.Context, mangaID string) ([]models.ChapterSummary, error) {
	if _, err := s.mangaRepo.GetByID(ctx, mangaID); err != nil {
		return nil, err
	}
	chapters, err := s.sortedChapters(ctx, mangaID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChapterSummary, 0, len(chapters))
	for i := range chapters {
		out = append(out, chapters[i].Summary())
	}
	return out, nil
}

func (s *chapterService) sortedChapters(ctx context.Context, mangaID string) ([]models.Chapter, error) {
	chapters, err := s.chapterRepo.ListByManga(ctx, mangaID)
	if errors.Is(err, models.ErrIndexRequired) {
		logger.Warnf("Ordered chapter listing unavailable, sorting in memory: %v", err)
		metrics.CatalogFallbacksTotal.WithLabelValues("chapters").Inc()
		chapters, err = s.chapterRepo.ListByMangaUnordered(ctx, mangaID)
		if err == nil {
			sort.SliceStable(chapters, func(i, j int) bool {
				return chapters[i].Number < chapters[j].Number
			})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	return chapters, nil
}

// Read builds the reader payload. Pages are only included when the
// paywall is open; an open read counts a view and updates history.
func (s *chapterService) Read(ctx context.Context, chapterID string, viewer *models.Viewer) (*models.ReaderView, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	decision, err := s.paywall.EvaluateChapter(ctx, chapter, viewer)
	if err != nil {
		return nil, err
	}

	siblings, err := s.sortedChapters(ctx, chapter.MangaID)
	if err != nil {
		return nil, err
	}

	view := &models.ReaderView{
		Chapter: chapter.Summary(),
		Pages:   []string{},
		Paywall: decision,
	}
	for i := range siblings {
		if siblings[i].ID != chapter.ID {
			continue
		}
		if i > 0 {
			prev := siblings[i-1].ID
			view.PrevChapterID = &prev
		}
		if i+1 < len(siblings) {
			next := siblings[i+1].ID
			view.NextChapterID = &next
		}
		break
	}

	if decision.Locked {
		return view, nil
	}

	view.Pages = chapter.Pages
	if err := s.chapterRepo.IncrementViews(ctx, chapter.ID); err != nil {
		logger.Warnf("Failed to count view for chapter %s: %v", chapter.ID, err)
	}
	if viewer != nil {
		if err := s.library.RecordHistory(ctx, viewer.UserID, chapter.MangaID, chapter.ID, chapter.Number); err != nil {
			logger.Warnf("Failed to record history for user %s: %v", viewer.UserID, err)
		}
	}
	return view, nil
}
