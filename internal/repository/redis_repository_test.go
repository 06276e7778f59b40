package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	repo := NewRedisRepository(client)
	t.Cleanup(func() { repo.Close() })

	return repo, mr
}

func TestRedisRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) OrderRepository {
		repo, _ := setupTestRedis(t)
		return repo
	})
}

func TestRedisRepository_KeyLayout(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	order := newTestOrder("ORD-10-KKKK")
	require.NoError(t, repo.CreateOrder(ctx, order))

	assert.True(t, mr.Exists(orderKey(order.ID)))
	id, err := mr.Get(numberKey("ORD-10-KKKK"))
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)
}

func TestRedisRepository_CorruptPayload(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(orderKey("broken"), "{not json"))

	_, err := repo.GetOrderByID(ctx, "broken")
	require.ErrorContains(t, err, "unmarshal order failed")
}

func TestRedisRepository_ServerDown(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.GetOrderByID(context.Background(), "any")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestKeyFormat(t *testing.T) {
	assert.Equal(t, "order:abc", orderKey("abc"))
	assert.Equal(t, "order-number:ORD-1-AAAA", numberKey("ORD-1-AAAA"))
}
