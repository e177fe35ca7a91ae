package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/bref-insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/bref-insight/pkg/errors"
)

func TestNewClient_Success(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := &RedisConfig{Addr: mr.Addr()}
	client, err := NewClient(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	assert.NoError(t, client.GetUnderlyingClient().Ping(context.Background()).Err())
	assert.Positive(t, cfg.PoolSize)
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	cfg := &RedisConfig{Addr: "localhost:1"}

	client, err := NewClient(cfg, logging.NewNopLogger())
	assert.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheError))
}

func TestClient_Operations(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "foo", "bar", 0).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)

	deleted, err := client.Del(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.False(t, mr.Exists("foo"))
}

func TestClient_Close(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(&RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)

	assert.NoError(t, client.Close())
	assert.NoError(t, client.Close())

	assert.Equal(t, ErrClientClosed, client.Get(context.Background(), "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Set(context.Background(), "foo", "x", 0).Err())
	assert.Equal(t, ErrClientClosed, client.Del(context.Background(), "foo").Err())
	assert.Equal(t, ErrClientClosed, client.Ping(context.Background()))
}

//Personal.AI order the ending
