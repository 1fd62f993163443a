package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/redis"
)

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://" + mr.Addr() + "/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, redis.Healthcheck(client)(context.Background()))

	mr.Close()
	err = redis.Healthcheck(client)(context.Background())
	assert.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "mysql://nope"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)

	_, err = redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://127.0.0.1:1/0",
		RetryAttempts:  2,
		RetryInterval:  time.Millisecond,
		ConnectTimeout: 500 * time.Millisecond,
	})
	assert.ErrorIs(t, err, redis.ErrRedisNotReady)
}
