package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/cache"
)

func setupTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.Use(client)
	t.Cleanup(func() {
		cache.Use(nil)
		client.Close()
	})
	return mr
}

type item struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

func TestSetGetNamespaced(t *testing.T) {
	mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "products:all", []item{{Name: "Vanilla Dream", Price: "32.99"}}, time.Minute))
	assert.True(t, mr.Exists("cakeworld:products:all"))

	var got []item
	require.True(t, cache.Get(ctx, "products:all", &got))
	assert.Equal(t, "Vanilla Dream", got[0].Name)
}

func TestTTLExpires(t *testing.T) {
	mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	var v string
	assert.False(t, cache.Get(ctx, "k", &v))
}

func TestUndecodableValueIsMiss(t *testing.T) {
	mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cakeworld:k", "{broken"))

	var v []item
	assert.False(t, cache.Get(context.Background(), "k", &v))
}

func TestForgetPrefix(t *testing.T) {
	setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "products:all", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, "products:category:fruit", 2, time.Minute))
	require.NoError(t, cache.Set(ctx, "other", 3, time.Minute))

	require.NoError(t, cache.ForgetPrefix(ctx, "products:"))

	var n int
	assert.False(t, cache.Get(ctx, "products:all", &n))
	assert.False(t, cache.Get(ctx, "products:category:fruit", &n))
	assert.True(t, cache.Get(ctx, "other", &n))
}

func TestRemember(t *testing.T) {
	setupTestRedis(t)

	calls := 0
	load := func() ([]item, error) {
		calls++
		return []item{{Name: "Red Velvet"}}, nil
	}
	for i := 0; i < 3; i++ {
		got, err := cache.Remember(context.Background(), "products:all", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, "Red Velvet", got[0].Name)
	}
	assert.Equal(t, 1, calls)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	setupTestRedis(t)
	ctx := context.Background()

	_, err := cache.Remember(ctx, "k", time.Minute, func() (int, error) { return 0, errors.New("db down") })
	assert.Error(t, err)

	var n int
	assert.False(t, cache.Get(ctx, "k", &n))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	cache.Use(nil)
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, "k", 1, time.Minute))
	var n int
	assert.False(t, cache.Get(ctx, "k", &n))
	assert.NoError(t, cache.ForgetPrefix(ctx, "k"))
}

func TestConnectFailsWithoutRedis(t *testing.T) {
	config.Set("REDIS_ADDR", "127.0.0.1:1")
	t.Cleanup(func() { config.Set("REDIS_ADDR", "localhost:6379") })
	assert.Error(t, cache.Connect(context.Background()))
	var n int
	assert.False(t, cache.Get(context.Background(), "k", &n))
}
