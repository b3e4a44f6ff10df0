package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

// UnlockOutcome reports what an unlock transaction did
type UnlockOutcome struct {
	// Purchased is false when a purchase row already existed; no coins
	// were taken in that case.
	Purchased bool
	Balance   int
}

// WalletRepository handles coin balances, purchases and the ledger
type WalletRepository interface {
	HasPurchase(ctx context.Context, userID, chapterID string) (bool, error)
	GetBalance(ctx context.Context, userID string) (int, error)
	// Unlock records the purchase and debits price in one transaction.
	// ErrInsufficientFunds leaves the store untouched.
	Unlock(ctx context.Context, userID, chapterID string, price int) (UnlockOutcome, error)
	Grant(ctx context.Context, userID string, amount int) (int, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]models.CoinTransaction, error)
}

type walletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new PostgreSQL wallet repository
func NewWalletRepository(pool *pgxpool.Pool) WalletRepository {
	return &walletRepository{pool: pool}
}

// HasPurchase reports whether the user owns the chapter
func (r *walletRepository) HasPurchase(ctx context.Context, userID, chapterID string) (bool, error) {
	var owned bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM purchases WHERE user_id = $1 AND chapter_id = $2)`,
		userID, chapterID,
	).Scan(&owned)
	if err != nil {
		mapped := mapDBError(err, "has_purchase", models.ErrChapterNotFound, models.ErrReadFailure)
		if errors.Is(mapped, models.ErrChapterNotFound) {
			return false, nil
		}
		return false, mapped
	}
	return owned, nil
}

// GetBalance returns the user's coin balance
func (r *walletRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `SELECT coin_balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		return 0, mapDBError(err, "get_balance", models.ErrUserNotFound, models.ErrReadFailure)
	}
	return balance, nil
}

// Unlock inserts the purchase, debits the balance and writes the ledger row
func (r *walletRepository) Unlock(ctx context.Context, userID, chapterID string, price int) (UnlockOutcome, error) {
	var out UnlockOutcome

	err := withTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO purchases (user_id, chapter_id, price_paid)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, chapter_id) DO NOTHING
		`, userID, chapterID, price)
		if err != nil {
			return mapDBError(err, "insert_purchase", models.ErrChapterNotFound, models.ErrWriteFailure)
		}

		if tag.RowsAffected() == 0 {
			// granted by an earlier or concurrent request
			err := tx.QueryRow(ctx, `SELECT coin_balance FROM users WHERE id = $1`, userID).Scan(&out.Balance)
			return mapDBError(err, "get_balance", models.ErrUserNotFound, models.ErrReadFailure)
		}

		err = tx.QueryRow(ctx, `
			UPDATE users SET coin_balance = coin_balance - $2
			WHERE id = $1 AND coin_balance >= $2
			RETURNING coin_balance
		`, userID, price).Scan(&out.Balance)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("debit_coins: %w", models.ErrInsufficientFunds)
		}
		if err != nil {
			return mapDBError(err, "debit_coins", models.ErrUserNotFound, models.ErrWriteFailure)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO coin_transactions (id, user_id, delta, reason, chapter_id)
			VALUES ($1, $2, $3, $4, $5)
		`, utils.NewID(), userID, -price, models.CoinReasonUnlock, chapterID)
		if err != nil {
			return mapDBError(err, "insert_coin_transaction", models.ErrChapterNotFound, models.ErrWriteFailure)
		}

		out.Purchased = true
		return nil
	})
	if err != nil {
		return UnlockOutcome{}, err
	}
	return out, nil
}

// Grant credits coins and writes the ledger row
func (r *walletRepository) Grant(ctx context.Context, userID string, amount int) (int, error) {
	var balance int

	err := withTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE users SET coin_balance = coin_balance + $2 WHERE id = $1 RETURNING coin_balance`,
			userID, amount,
		).Scan(&balance)
		if err != nil {
			return mapDBError(err, "credit_coins", models.ErrUserNotFound, models.ErrWriteFailure)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO coin_transactions (id, user_id, delta, reason)
			VALUES ($1, $2, $3, $4)
		`, utils.NewID(), userID, amount, models.CoinReasonGrant)
		return mapDBError(err, "insert_coin_transaction", models.ErrUserNotFound, models.ErrWriteFailure)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ListTransactions returns the newest ledger rows first
func (r *walletRepository) ListTransactions(ctx context.Context, userID string, limit int) ([]models.CoinTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, delta, reason, chapter_id, created_at
		FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, mapDBError(err, "list_coin_transactions", models.ErrUserNotFound, models.ErrReadFailure)
	}
	defer rows.Close()

	out := []models.CoinTransaction{}
	for rows.Next() {
		var tx models.CoinTransaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Delta, &tx.Reason, &tx.ChapterID, &tx.CreatedAt); err != nil {
			return nil, mapDBError(err, "list_coin_transactions", models.ErrUserNotFound, models.ErrReadFailure)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "list_coin_transactions", models.ErrUserNotFound, models.ErrReadFailure)
	}
	return out, nil
}
