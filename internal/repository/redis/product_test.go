package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadline/catalog-service/internal/domain"
	apperrors "github.com/threadline/catalog-service/pkg/errors"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewProductCache(client, ttl), mr
}

func TestProductCache_SetGet(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	p := &domain.Product{
		ID:      "p1",
		Name:    "Hoodie",
		BrandID: "b1",
		Variants: []domain.Variant{
			{VariantID: "V1", SizeID: "s1", Stock: 2},
		},
		Revision: 7,
	}

	require.NoError(t, cache.Set(ctx, p))

	got, err := cache.Get(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, int64(7), got.Revision)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "V1", got.Variants[0].VariantID)
}

func TestProductCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	_, err := cache.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Product{ID: "p1"}))
	require.NoError(t, cache.Invalidate(ctx, "p1"))

	_, err := cache.Get(ctx, "p1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t, 5*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &domain.Product{ID: "p1"}))

	mr.FastForward(6 * time.Second)

	_, err := cache.Get(ctx, "p1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
