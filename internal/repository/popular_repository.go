package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"mangareader/pkg/models"
)

const popularMaxRetries = 5

// PopularRepository stores the curated popular list as one document
type PopularRepository interface {
	Load(ctx context.Context) ([]models.PopularEntry, error)
	// Update applies fn to the current list and stores the result
	// atomically; fn may run more than once under contention.
	Update(ctx context.Context, fn func([]models.PopularEntry) ([]models.PopularEntry, error)) ([]models.PopularEntry, error)
}

type popularRepository struct {
	client *redis.Client
	key    string
}

// NewPopularRepository creates a Redis-backed popular list store
func NewPopularRepository(client *redis.Client, key string) PopularRepository {
	return &popularRepository{client: client, key: key}
}

func decodePopular(raw []byte) ([]models.PopularEntry, error) {
	entries := []models.PopularEntry{}
	if len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode popular list: %w: %w", models.ErrReadFailure, err)
	}
	return entries, nil
}

func (r *popularRepository) Load(ctx context.Context) ([]models.PopularEntry, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []models.PopularEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load popular list: %w: %w", models.ErrReadFailure, err)
	}
	return decodePopular(raw)
}

func (r *popularRepository) Update(ctx context.Context, fn func([]models.PopularEntry) ([]models.PopularEntry, error)) ([]models.PopularEntry, error) {
	var (
		result []models.PopularEntry
		fnErr  error
	)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, r.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("load popular list: %w: %w", models.ErrReadFailure, err)
		}
		current, err := decodePopular(raw)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			fnErr = err
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode popular list: %w: %w", models.ErrWriteFailure, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, data, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for i := 0; i < popularMaxRetries; i++ {
		fnErr = nil
		err := r.client.Watch(ctx, txf, r.key)
		switch {
		case err == nil:
			return result, nil
		case fnErr != nil:
			return nil, fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, models.ErrReadFailure), errors.Is(err, models.ErrWriteFailure):
			return nil, err
		}
		return nil, fmt.Errorf("store popular list: %w: %w", models.ErrWriteFailure, err)
	}
	return nil, fmt.Errorf("store popular list: %w", models.ErrConflict)
}
