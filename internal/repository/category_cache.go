package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
)

// CategoryListCacheKey holds the serialized category catalogue.
const CategoryListCacheKey = "helpdesk:categories:all"

// cachedCategoryRepository serves List from Redis. Every committed write drops the key.
type cachedCategoryRepository struct {
	CategoryRepository
	cache  redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCategoryRepository decorates inner with a Redis read-through cache.
// Cache failures are logged and fall back to inner.
func NewCachedCategoryRepository(inner CategoryRepository, cache redis.Cmdable, ttl time.Duration, logger *zap.Logger) CategoryRepository {
	if cache == nil {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedCategoryRepository{CategoryRepository: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	raw, err := r.cache.Get(ctx, CategoryListCacheKey).Result()
	switch {
	case err == nil:
		var cats []domain.Category
		if jsonErr := json.Unmarshal([]byte(raw), &cats); jsonErr == nil {
			return cats, nil
		}
		r.logger.Warn("discarding corrupt category cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("category cache read failed", zap.Error(err))
	}

	cats, err := r.CategoryRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(cats)
	if err != nil {
		return cats, nil
	}
	if err := r.cache.Set(ctx, CategoryListCacheKey, string(payload), r.ttl).Err(); err != nil {
		r.logger.Warn("category cache write failed", zap.Error(err))
	}
	return cats, nil
}

func (r *cachedCategoryRepository) Create(ctx context.Context, cat *domain.Category) error {
	if err := r.CategoryRepository.Create(ctx, cat); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedCategoryRepository) Update(ctx context.Context, cat *domain.Category) error {
	if err := r.CategoryRepository.Update(ctx, cat); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedCategoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.CategoryRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// invalidate drops the key once the surrounding transaction has committed,
// so a concurrent List cannot cache the pre-commit catalogue.
func (r *cachedCategoryRepository) invalidate(ctx context.Context) {
	AfterCommit(ctx, func(ctx context.Context) {
		if err := r.cache.Del(ctx, CategoryListCacheKey).Err(); err != nil {
			r.logger.Warn("category cache invalidation failed", zap.Error(err))
		}
	})
}
