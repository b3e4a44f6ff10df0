package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mangareader/pkg/models"
)

// SessionRepository keeps the denylist of revoked token IDs
type SessionRepository interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a Redis-backed token denylist
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func revokedKey(tokenID string) string {
	return "mangareader:revoked:" + tokenID
}

// Revoke denies the token until it would have expired anyway
func (r *sessionRepository) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w: %w", models.ErrWriteFailure, err)
	}
	return nil
}

func (r *sessionRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, revokedKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w: %w", models.ErrReadFailure, err)
	}
	return true, nil
}
