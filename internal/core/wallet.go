// Package core - Wallet
// Coin balances and admin grants
package core

import (
	"context"
	"fmt"

	"mangareader/internal/repository"
	"mangareader/pkg/logger"
	"mangareader/pkg/models"
)

// WalletService defines coin operations
type WalletService interface {
	GetBalance(ctx context.Context, userID string) (*models.Wallet, error)
	Grant(ctx context.Context, actor *models.Viewer, userID string, amount int) (*models.Wallet, error)
	Transactions(ctx context.Context, userID string, limit int) ([]models.CoinTransaction, error)
}

type walletService struct {
	walletRepo repository.WalletRepository
	events     EventHub
}

// NewWalletService creates a new wallet service
func NewWalletService(walletRepo repository.WalletRepository, events EventHub) WalletService {
	return &walletService{walletRepo: walletRepo, events: events}
}

func (s *walletService) GetBalance(ctx context.Context, userID string) (*models.Wallet, error) {
	balance, err := s.walletRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Wallet{UserID: userID, Balance: balance}, nil
}

// Grant credits coins to a user. Only admins may grant.
func (s *walletService) Grant(ctx context.Context, actor *models.Viewer, userID string, amount int) (*models.Wallet, error) {
	if actor == nil {
		return nil, models.ErrNotAuthenticated
	}
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}
	if amount <= 0 {
		return nil, models.Invalidf("amount must be positive")
	}

	balance, err := s.walletRepo.Grant(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to grant coins: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"admin_id": actor.UserID,
		"user_id":  userID,
		"amount":   amount,
		"balance":  balance,
	}).Info("Coins granted")

	s.events.Publish(userID, newEvent(models.EventBalanceChanged, map[string]interface{}{
		"balance": balance,
		"delta":   amount,
	}))
	return &models.Wallet{UserID: userID, Balance: balance}, nil
}

func (s *walletService) Transactions(ctx context.Context, userID string, limit int) ([]models.CoinTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.walletRepo.ListTransactions(ctx, userID, limit)
}
