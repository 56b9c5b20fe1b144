package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/threadline/catalog-service/internal/domain"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

const productKeyPrefix = "catalog:product:"

// ProductCache implements repository.ProductCache on Redis. Entries expire
// after the configured TTL; writes through the product service invalidate
// them explicitly as well.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a Redis-backed product cache.
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{client: client, ttl: ttl}
}

func productKey(id string) string {
	return productKeyPrefix + id
}

// Get returns the cached product, or ErrNotFound on a cache miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("get cached product: %w", err)
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal cached product: %w", err)
	}

	return &p, nil
}

// Set stores the product with the cache TTL.
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product for cache: %w", err)
	}

	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache product: %w", err)
	}

	return nil
}

// Invalidate drops the cached entry for the product.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		return fmt.Errorf("invalidate cached product: %w", err)
	}
	return nil
}
