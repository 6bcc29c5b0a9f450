package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	redisModule "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis transport test in short mode")
	}
	ctx := context.Background()

	container, err := redisModule.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithOccurrence(1),
		),
	)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestRedisTransport(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	t.Run("Routes each response to its sender", func(t *testing.T) {
		opts := RedisOptions{Prefix: "routing", PollTimeout: 100 * time.Millisecond}
		worker, err := NewRedisWorkerConn(ctx, rdb, opts)
		require.NoError(t, err)
		defer worker.Close()

		first, err := NewRedisClientConn(ctx, rdb, opts)
		require.NoError(t, err)
		defer first.Close()
		second, err := NewRedisClientConn(ctx, rdb, opts)
		require.NoError(t, err)
		defer second.Close()

		require.NoError(t, first.Send(ctx, &analytics.Request{Type: analytics.OpAnalyzeTrends, RequestID: "first-1", Payload: json.RawMessage(`{}`)}))
		require.NoError(t, second.Send(ctx, &analytics.Request{Type: analytics.OpAnalyzeTrends, RequestID: "second-1", Payload: json.RawMessage(`{}`)}))

		for i := 0; i < 2; i++ {
			req := recvRequest(t, worker)
			require.NoError(t, worker.Reply(ctx, analytics.NewResultResponse(req.RequestID, json.RawMessage(`{"ok":true}`), false)))
		}

		assert.Equal(t, "first-1", recvResponse(t, first).RequestID)
		assert.Equal(t, "second-1", recvResponse(t, second).RequestID)
	})

	t.Run("Reply without a route fails", func(t *testing.T) {
		worker, err := NewRedisWorkerConn(ctx, rdb, RedisOptions{Prefix: "noroute", PollTimeout: 100 * time.Millisecond})
		require.NoError(t, err)
		defer worker.Close()

		err = worker.Reply(ctx, analytics.NewResultResponse("ghost", nil, false))
		assert.Error(t, err)
	})

	t.Run("Worker failure reaches clients with outstanding requests", func(t *testing.T) {
		opts := RedisOptions{Prefix: "fatal", PollTimeout: 100 * time.Millisecond}
		worker, err := NewRedisWorkerConn(ctx, rdb, opts)
		require.NoError(t, err)
		client, err := NewRedisClientConn(ctx, rdb, opts)
		require.NoError(t, err)
		defer client.Close()

		require.NoError(t, client.Send(ctx, &analytics.Request{Type: analytics.OpCalculateKPIs, RequestID: "doomed"}))
		recvRequest(t, worker)
		worker.Fail(errors.New("out of memory"))

		select {
		case err := <-client.Failures():
			assert.ErrorIs(t, err, ErrWorkerFailed)
			assert.Contains(t, err.Error(), "out of memory")
		case <-time.After(3 * time.Second):
			t.Fatal("failure not delivered")
		}
	})

	t.Run("Close removes the reply list", func(t *testing.T) {
		client, err := NewRedisClientConn(ctx, rdb, RedisOptions{Prefix: "cleanup", PollTimeout: 100 * time.Millisecond})
		require.NoError(t, err)
		key := RedisOptions{Prefix: "cleanup"}.replyKey(client.ID())
		require.NoError(t, rdb.RPush(ctx, key, "stale").Err())

		require.NoError(t, client.Close())
		n, err := rdb.Exists(ctx, key).Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
