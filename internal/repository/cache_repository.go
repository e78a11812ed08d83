package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SergeiKhy/shortlink/internal/metrics"
	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type CacheRepository interface {
	Get(ctx context.Context, id string) (*models.Mapping, error)
	Set(ctx context.Context, mapping *models.Mapping) error
}

type cacheRepository struct {
	redis *RedisDB
	ttl   time.Duration
}

func NewCacheRepository(redis *RedisDB, ttl time.Duration) CacheRepository {
	return &cacheRepository{redis: redis, ttl: ttl}
}

func (r *cacheRepository) Get(ctx context.Context, id string) (*models.Mapping, error) {
	data, err := r.redis.Client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss()
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var mapping models.Mapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mapping: %w", err)
	}

	metrics.RecordCacheHit()

	return &mapping, nil
}

func (r *cacheRepository) Set(ctx context.Context, mapping *models.Mapping) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(mapping.ID), data, r.ttl).Err()
}

func (r *cacheRepository) key(id string) string {
	return "mapping:" + id
}

// nopCache используется, когда Redis не настроен или недоступен
type nopCache struct{}

func NewNopCacheRepository() CacheRepository {
	return nopCache{}
}

func (nopCache) Get(context.Context, string) (*models.Mapping, error) {
	return nil, ErrCacheMiss
}

func (nopCache) Set(context.Context, *models.Mapping) error {
	return nil
}
