package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	redisModule "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/victoralfred/retail_analytics/internal/client"
	"github.com/victoralfred/retail_analytics/internal/config"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/metrics"
)

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			Transport:      config.TransportPipe,
			RequestTimeout: 5 * time.Second,
			CacheTTL:       time.Minute,
			CacheSize:      100,
		},
	}
}

var billing = []analytics.BillingRecord{
	{Shopping: "Park", Tenant: "A", BilledAmount: 100, PaidAmount: 60},
	{Shopping: "Park", Tenant: "B", BilledAmount: 100, PaidAmount: 100},
}

func TestNewEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("Pipe transport computes in process", func(t *testing.T) {
		e, err := NewEngine(ctx, testConfig(), zap.NewNop(), metrics.New())
		require.NoError(t, err)
		defer func() { _ = e.Close() }()

		result, err := e.Client.CalculateKPIs(ctx, analytics.KPIPayload{Billing: billing})
		require.NoError(t, err)
		assert.Equal(t, 80.0, result.CollectionRate)
		assert.Equal(t, 0, e.Correlator.Pending())
	})

	t.Run("Algorithm parameters come from configuration", func(t *testing.T) {
		cfg := testConfig()
		cfg.Algorithms.BudgetTolerance = 50

		e, err := NewEngine(ctx, cfg, nil, nil)
		require.NoError(t, err)
		defer func() { _ = e.Close() }()

		result, err := e.Client.ProcessBudget(ctx, analytics.BudgetPayload{
			Lines: []analytics.BudgetRecord{{Category: "Energia", Planned: 100, Actual: 130}},
		})
		require.NoError(t, err)
		require.Len(t, result.Categories, 1)
		assert.Equal(t, analytics.BudgetOn, result.Categories[0].Status)
	})

	t.Run("Unsupported transport", func(t *testing.T) {
		cfg := testConfig()
		cfg.Engine.Transport = "carrier-pigeon"
		_, err := NewEngine(ctx, cfg, nil, nil)
		assert.ErrorContains(t, err, "unsupported engine transport")
	})

	t.Run("Unreachable redis", func(t *testing.T) {
		cfg := testConfig()
		cfg.Engine.Transport = config.TransportRedis
		cfg.Redis.Addr = "127.0.0.1:1"

		dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_, err := NewEngine(dialCtx, cfg, nil, nil)
		assert.ErrorContains(t, err, "failed to connect to redis")
	})
}

func TestNewEngine_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis engine test in short mode")
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

	cfg := testConfig()
	cfg.Engine.Transport = config.TransportRedis
	cfg.Engine.EmbeddedWorker = true
	cfg.Redis = config.RedisConfig{
		Addr:        fmt.Sprintf("%s:%s", host, port.Port()),
		Prefix:      "engine-test",
		PollTimeout: 100 * time.Millisecond,
		ReplyTTL:    time.Minute,
	}

	e, err := NewEngine(ctx, cfg, zap.NewNop(), metrics.New())
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	result, err := e.Client.CalculateKPIs(ctx, analytics.KPIPayload{Billing: billing})
	require.NoError(t, err)
	assert.Equal(t, 80.0, result.CollectionRate)

	// Same payload and key: answered by the worker cache
	res, err := e.Client.Run(ctx, analytics.OpCalculateKPIs, []byte(`{"billing":[]}`), client.WithCacheKey("kpis"))
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	res, err = e.Client.Run(ctx, analytics.OpCalculateKPIs, []byte(`{"billing":[]}`), client.WithCacheKey("kpis"))
	require.NoError(t, err)
	assert.True(t, res.FromCache)
}
