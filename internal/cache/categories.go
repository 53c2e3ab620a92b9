package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CategoriesKey is the Redis key holding the cached category listing.
const CategoriesKey = "categories"

type cachedCategory struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryCache stores the full category listing in Redis.
type CategoryCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCategoryCache returns a cache over client. A nil client yields a
// cache that always misses.
func NewCategoryCache(client redis.Cmdable, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CategoryCache{client: client, ttl: ttl}
}

// Get returns the cached listing; ok is false on a miss.
func (c *CategoryCache) Get(ctx context.Context) (categories []domain.Category, ok bool, err error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, CategoriesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var cached []cachedCategory
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, err
	}
	categories = make([]domain.Category, len(cached))
	for i, cc := range cached {
		categories[i] = domain.Category{ID: cc.ID, Title: cc.Title, CreatedAt: cc.CreatedAt, UpdatedAt: cc.UpdatedAt}
	}
	return categories, true, nil
}

// Set replaces the cached listing.
func (c *CategoryCache) Set(ctx context.Context, categories []domain.Category) error {
	if c == nil || c.client == nil {
		return nil
	}
	cached := make([]cachedCategory, len(categories))
	for i, cat := range categories {
		cached[i] = cachedCategory{ID: cat.ID, Title: cat.Title, CreatedAt: cat.CreatedAt, UpdatedAt: cat.UpdatedAt}
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CategoriesKey, raw, c.ttl).Err()
}

// Invalidate drops the cached listing.
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, CategoriesKey).Err()
}
