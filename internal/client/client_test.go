package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoralfred/retail_analytics/internal/cache"
	"github.com/victoralfred/retail_analytics/internal/correlator"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
	"github.com/victoralfred/retail_analytics/internal/worker"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	engine := correlator.New(worker.PipeFactory(worker.NewDispatcher(nil), 0), correlator.WithTimeout(5*time.Second))
	c := New(engine)
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func TestClient(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	billing := []analytics.BillingRecord{
		{Shopping: "Park", Tenant: "A", Period: "2025-01", BilledAmount: 100, PaidAmount: 100},
		{Shopping: "Park", Tenant: "B", Period: "2025-01", BilledAmount: 100, PaidAmount: 60},
	}

	t.Run("Typed KPI call", func(t *testing.T) {
		r, err := c.CalculateKPIs(ctx, analytics.KPIPayload{Billing: billing})
		require.NoError(t, err)
		assert.Equal(t, 200.0, r.TotalBilled)
		assert.Equal(t, 160.0, r.TotalPaid)
		assert.Equal(t, 80.0, r.CollectionRate)
	})

	t.Run("Typed budget call", func(t *testing.T) {
		r, err := c.ProcessBudget(ctx, analytics.BudgetPayload{Lines: []analytics.BudgetRecord{
			{Category: "Maintenance", Planned: 1000, Actual: 1000},
		}})
		require.NoError(t, err)
		assert.Equal(t, analytics.BudgetOn, r.Status)
		require.Len(t, r.Categories, 1)
		assert.Equal(t, "Maintenance", r.Categories[0].Category)
	})

	t.Run("Typed insights call", func(t *testing.T) {
		r, err := c.GenerateInsights(ctx, analytics.InsightsPayload{Delinquency: []analytics.DelinquencyRecord{
			{Tenant: "A", DefaultAmount: 90000},
			{Tenant: "B", DefaultAmount: 10000},
		}})
		require.NoError(t, err)
		require.NotEmpty(t, r.Insights)
		assert.Equal(t, len(r.Insights), r.Summary.Total)
		assert.Equal(t, analytics.InsightDelinquency, r.Insights[0].Type)
	})

	t.Run("Derived cache keys let later calls hit the cache", func(t *testing.T) {
		payload := analytics.BillingAnalyticsPayload{Billing: billing, TopN: 1}
		_, err := c.ProcessBillingAnalytics(ctx, payload, WithDerivedCacheKey())
		require.NoError(t, err)

		key, err := cache.Key(analytics.OpProcessBillingAnalytics, payload)
		require.NoError(t, err)
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		res, err := c.Run(ctx, analytics.OpProcessBillingAnalytics, raw, WithCacheKey(key))
		require.NoError(t, err)
		assert.True(t, res.FromCache)
	})

	t.Run("Explicit cache key wins over derivation", func(t *testing.T) {
		key, err := resolveKey(analytics.OpAnalyzeTrends, analytics.TrendPayload{}, []CallOption{
			WithDerivedCacheKey(), WithCacheKey("trends:park"),
		})
		require.NoError(t, err)
		assert.Equal(t, "trends:park", key)

		key, err = resolveKey(analytics.OpAnalyzeTrends, analytics.TrendPayload{}, nil)
		require.NoError(t, err)
		assert.Empty(t, key)
	})

	t.Run("Run surfaces unknown operations", func(t *testing.T) {
		_, err := c.Run(ctx, "UNSUPPORTED", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, analytics.ErrUnknownOperation)
	})

	t.Run("Run rejects malformed payloads before sending", func(t *testing.T) {
		_, err := c.Run(ctx, analytics.OpAnalyzeTrends, json.RawMessage(`{not json`))
		var ee *analytics.EngineError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, analytics.CodeInvalidPayload, ee.Code)
	})
}

func TestClientClose(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Close())

	_, err := c.FormatMetrics(context.Background(), analytics.FormatPayload{})
	assert.ErrorIs(t, err, analytics.ErrClosed)
	assert.Zero(t, c.CancelAll())
}
