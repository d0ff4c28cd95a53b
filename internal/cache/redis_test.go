package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	args := m.Called(ctx)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockRedis) Close() error {
	return m.Called().Error(0)
}

func TestRedisCache_Get(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	client.On("Get", ctx, "hit").Return(redis.NewStringResult("payload", nil))
	client.On("Get", ctx, "miss").Return(redis.NewStringResult("", redis.Nil))
	client.On("Get", ctx, "down").Return(redis.NewStringResult("", errors.New("connection refused")))

	c := &RedisCache{client: client}

	got, ok := c.Get(ctx, "hit")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got)

	_, ok = c.Get(ctx, "miss")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "down")
	assert.False(t, ok)
	client.AssertExpectations(t)
}

func TestRedisCache_Set(t *testing.T) {
	ctx := context.Background()
	client := new(mockRedis)
	client.On("Set", ctx, "k", []byte("v"), time.Minute).Return(redis.NewStatusResult("OK", nil))
	client.On("Set", ctx, "neg", []byte("v"), time.Duration(0)).Return(redis.NewStatusResult("", errors.New("READONLY")))

	c := &RedisCache{client: client}
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	err := c.Set(ctx, "neg", []byte("v"), -time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache: redis set")
	client.AssertExpectations(t)
}

func TestRedisCache_Close(t *testing.T) {
	client := new(mockRedis)
	client.On("Close").Return(nil)
	c := &RedisCache{client: client}
	assert.NoError(t, c.Close())
	client.AssertExpectations(t)
}
