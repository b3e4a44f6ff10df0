// Package core - Paywall
// Chapter access decisions and coin unlocks
package core

import (
	"context"
	"errors"
	"fmt"

	"mangareader/internal/repository"
	"mangareader/pkg/logger"
	"mangareader/pkg/metrics"
	"mangareader/pkg/models"
)

// PaywallService decides chapter access and performs unlocks
type PaywallService interface {
	Evaluate(ctx context.Context, chapterID string, viewer *models.Viewer) (*models.PaywallDecision, error)
	EvaluateChapter(ctx context.Context, chapter *models.Chapter, viewer *models.Viewer) (models.PaywallDecision, error)
	Unlock(ctx context.Context, viewer *models.Viewer, chapterID string) (*models.UnlockResult, error)
}

type paywallService struct {
	chapterRepo repository.ChapterRepository
	walletRepo  repository.WalletRepository
	events      EventHub
}

// NewPaywallService creates a new paywall service
func NewPaywallService(chapterRepo repository.ChapterRepository, walletRepo repository.WalletRepository, events EventHub) PaywallService {
	return &paywallService{
		chapterRepo: chapterRepo,
		walletRepo:  walletRepo,
		events:      events,
	}
}

// DecideAccess is the paywall decision table. owned is only consulted for
// a signed-in viewer. The balance is filled in by the caller.
func DecideAccess(chapter *models.Chapter, viewerPresent, owned bool) models.PaywallDecision {
	if !chapter.RequiresPayment() {
		return models.PaywallDecision{Locked: false, Price: 0, Reason: models.AccessFree}
	}
	if !viewerPresent {
		return models.PaywallDecision{Locked: true, Price: chapter.Price, Reason: models.AccessAuthRequired}
	}
	if owned {
		return models.PaywallDecision{Locked: false, Price: chapter.Price, Reason: models.AccessPurchased}
	}
	return models.PaywallDecision{Locked: true, Price: chapter.Price, Reason: models.AccessPaymentRequired}
}

// Evaluate loads the chapter and decides access for the viewer
func (s *paywallService) Evaluate(ctx context.Context, chapterID string, viewer *models.Viewer) (*models.PaywallDecision, error) {
	chapter, err := s.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	decision, err := s.EvaluateChapter(ctx, chapter, viewer)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// EvaluateChapter decides access for an already loaded chapter
func (s *paywallService) EvaluateChapter(ctx context.Context, chapter *models.Chapter, viewer *models.Viewer) (models.PaywallDecision, error) {
	if !chapter.RequiresPayment() || viewer == nil {
		return DecideAccess(chapter, viewer != nil, false), nil
	}

	owned, err := s.walletRepo.HasPurchase(ctx, viewer.UserID, chapter.ID)
	if err != nil {
		return models.PaywallDecision{}, err
	}
	decision := DecideAccess(chapter, true, owned)
	if !decision.Locked {
		return decision, nil
	}

	balance, err := s.walletRepo.GetBalance(ctx, viewer.UserID)
	if err != nil {
		return models.PaywallDecision{}, err
	}
	decision.Balance = &balance
	return decision, nil
}

// Unlock buys the chapter for the viewer. Free and already owned chapters
// succeed without touching the balance.
func (s *paywallService) Unlock(ctx context.Context, viewer *models.Viewer, chapterID string) (*models.UnlockResult, error) {
	if viewer == nil {
		return nil, models.ErrNotAuthenticated
	}

	chapter, err := s.chapterRepo.GetByID(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	if !chapter.RequiresPayment() {
		balance, err := s.walletRepo.GetBalance(ctx, viewer.UserID)
		if err != nil {
			return nil, err
		}
		metrics.PaywallUnlocksTotal.WithLabelValues(string(models.UnlockFree)).Inc()
		return &models.UnlockResult{Status: models.UnlockFree, ChapterID: chapter.ID, Balance: balance}, nil
	}

	owned, err := s.walletRepo.HasPurchase(ctx, viewer.UserID, chapter.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return s.alreadyOwned(ctx, viewer, chapter)
	}

	outcome, err := s.walletRepo.Unlock(ctx, viewer.UserID, chapter.ID, chapter.Price)
	if err != nil {
		return nil, s.unlockError(err)
	}
	if !outcome.Purchased {
		metrics.PaywallUnlocksTotal.WithLabelValues(string(models.UnlockAlreadyOwned)).Inc()
		return &models.UnlockResult{Status: models.UnlockAlreadyOwned, ChapterID: chapter.ID, Balance: outcome.Balance}, nil
	}

	metrics.PaywallUnlocksTotal.WithLabelValues(string(models.UnlockGranted)).Inc()
	logger.WithFields(map[string]interface{}{
		"user_id":    viewer.UserID,
		"chapter_id": chapter.ID,
		"price":      chapter.Price,
		"balance":    outcome.Balance,
	}).Info("Chapter unlocked")

	s.events.Publish(viewer.UserID, newEvent(models.EventChapterUnlocked, map[string]interface{}{
		"chapter_id": chapter.ID,
		"manga_id":   chapter.MangaID,
		"price_paid": chapter.Price,
	}))
	s.events.Publish(viewer.UserID, newEvent(models.EventBalanceChanged, map[string]interface{}{
		"balance": outcome.Balance,
		"delta":   -chapter.Price,
	}))

	return &models.UnlockResult{
		Status:    models.UnlockGranted,
		ChapterID: chapter.ID,
		PricePaid: chapter.Price,
		Balance:   outcome.Balance,
	}, nil
}

func (s *paywallService) alreadyOwned(ctx context.Context, viewer *models.Viewer, chapter *models.Chapter) (*models.UnlockResult, error) {
	balance, err := s.walletRepo.GetBalance(ctx, viewer.UserID)
	if err != nil {
		return nil, err
	}
	metrics.PaywallUnlocksTotal.WithLabelValues(string(models.UnlockAlreadyOwned)).Inc()
	return &models.UnlockResult{Status: models.UnlockAlreadyOwned, ChapterID: chapter.ID, Balance: balance}, nil
}

// unlockError keeps domain errors and folds store failures into ErrWriteFailure
func (s *paywallService) unlockError(err error) error {
	switch {
	case errors.Is(err, models.ErrInsufficientFunds):
		metrics.PaywallUnlocksTotal.WithLabelValues("insufficient_funds").Inc()
		return err
	case errors.Is(err, models.ErrChapterNotFound), errors.Is(err, models.ErrUserNotFound):
		return err
	case errors.Is(err, models.ErrWriteFailure):
		metrics.PaywallUnlocksTotal.WithLabelValues(metrics.ResultError).Inc()
		return err
	default:
		metrics.PaywallUnlocksTotal.WithLabelValues(metrics.ResultError).Inc()
		return fmt.Errorf("unlock chapter: %w: %w", models.ErrWriteFailure, err)
	}
}
