// Package client is the typed surface of the analytics engine. Each method
// sends one operation to the worker context and decodes its result.
package client

import (
	"context"
	"encoding/json"

	"github.com/victoralfred/retail_analytics/internal/cache"
	"github.com/victoralfred/retail_analytics/internal/correlator"
	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

type callOptions struct {
	cacheKey string
	autoKey  bool
}

// CallOption configures a single call
type CallOption func(*callOptions)

// WithCacheKey asks the worker to cache the result under key
func WithCacheKey(key string) CallOption {
	return func(o *callOptions) {
		o.cacheKey = key
	}
}

// WithDerivedCacheKey caches the result under a key derived from the payload
func WithDerivedCacheKey() CallOption {
	return func(o *callOptions) {
		o.autoKey = true
	}
}

// Client wraps a correlator with one method per operation kind
type Client struct {
	engine *correlator.Correlator
}

// New creates a client over engine
func New(engine *correlator.Correlator) *Client {
	return &Client{engine: engine}
}

// Close terminates the engine
func (c *Client) Close() error {
	return c.engine.Close()
}

// CancelAll rejects every pending call
func (c *Client) CancelAll() int {
	return c.engine.CancelAll()
}

// Run sends an already encoded payload for kind
func (c *Client) Run(ctx context.Context, kind analytics.OperationKind, payload json.RawMessage, opts ...CallOption) (*correlator.Result, error) {
	key, err := resolveKey(kind, payload, opts)
	if err != nil {
		return nil, err
	}
	return c.engine.Do(ctx, kind, payload, key)
}

func resolveKey(kind analytics.OperationKind, payload any, opts []CallOption) (string, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.cacheKey != "" || !o.autoKey {
		return o.cacheKey, nil
	}
	key, err := cache.Key(kind, payload)
	if err != nil {
		e := analytics.NewEngineError(analytics.KindComputation, kind, "failed to derive cache key").WithCause(err)
		e.Code = analytics.CodeInvalidPayload
		return "", e
	}
	return key, nil
}

func call[R, P any](ctx context.Context, c *Client, kind analytics.OperationKind, payload P, opts []CallOption) (R, error) {
	key, err := resolveKey(kind, payload, opts)
	if err != nil {
		var zero R
		return zero, err
	}
	return correlator.Call[R](ctx, c.engine, kind, payload, key)
}

// CalculateKPIs aggregates billing, delinquency and movement records into portfolio KPIs
func (c *Client) CalculateKPIs(ctx context.Context, p analytics.KPIPayload, opts ...CallOption) (analytics.KPIResult, error) {
	return call[analytics.KPIResult](ctx, c, analytics.OpCalculateKPIs, p, opts)
}

// ProcessFinancialData consolidates the raw financial arrays into totals and a per-shopping summary
func (c *Client) ProcessFinancialData(ctx context.Context, p analytics.FinancialDataPayload, opts ...CallOption) (analytics.FinancialDataResult, error) {
	return call[analytics.FinancialDataResult](ctx, c, analytics.OpProcessFinancialData, p, opts)
}

// CalculateRiskMetrics computes volatility, Sharpe ratio, VaR and concentration
func (c *Client) CalculateRiskMetrics(ctx context.Context, p analytics.RiskPayload, opts ...CallOption) (analytics.RiskResult, error) {
	return call[analytics.RiskResult](ctx, c, analytics.OpCalculateRiskMetrics, p, opts)
}

// GeneratePredictions forecasts the next periods from a linear trend
func (c *Client) GeneratePredictions(ctx context.Context, p analytics.PredictionPayload, opts ...CallOption) (analytics.PredictionResult, error) {
	return call[analytics.PredictionResult](ctx, c, analytics.OpGeneratePredictions, p, opts)
}

// SimulateMonteCarlo runs the NOI, occupancy and value simulation
func (c *Client) SimulateMonteCarlo(ctx context.Context, p analytics.MonteCarloPayload, opts ...CallOption) (analytics.MonteCarloResult, error) {
	return call[analytics.MonteCarloResult](ctx, c, analytics.OpSimulateMonteCarlo, p, opts)
}

// ProcessDrilldown builds the hierarchical group-by tree
func (c *Client) ProcessDrilldown(ctx context.Context, p analytics.DrilldownPayload, opts ...CallOption) (analytics.DrilldownResult, error) {
	return call[analytics.DrilldownResult](ctx, c, analytics.OpProcessDrilldown, p, opts)
}

// GenerateHeatmap aggregates records into a normalized two-dimensional grid
func (c *Client) GenerateHeatmap(ctx context.Context, p analytics.HeatmapPayload, opts ...CallOption) (analytics.HeatmapResult, error) {
	return call[analytics.HeatmapResult](ctx, c, analytics.OpGenerateHeatmap, p, opts)
}

// CalculateNetworkMetrics computes degree, density and centrality of a relationship graph
func (c *Client) CalculateNetworkMetrics(ctx context.Context, p analytics.NetworkPayload, opts ...CallOption) (analytics.NetworkResult, error) {
	return call[analytics.NetworkResult](ctx, c, analytics.OpCalculateNetworkMetrics, p, opts)
}

// OptimizeChartData removes outliers, downsamples and rounds chart points
func (c *Client) OptimizeChartData(ctx context.Context, p analytics.OptimizePayload, opts ...CallOption) (analytics.OptimizeResult, error) {
	return call[analytics.OptimizeResult](ctx, c, analytics.OpOptimizeChartData, p, opts)
}

// ProcessBillingAnalytics breaks billing down per period, shopping and category
func (c *Client) ProcessBillingAnalytics(ctx context.Context, p analytics.BillingAnalyticsPayload, opts ...CallOption) (analytics.BillingAnalyticsResult, error) {
	return call[analytics.BillingAnalyticsResult](ctx, c, analytics.OpProcessBillingAnalytics, p, opts)
}

// ProcessCashFlow consolidates movements per period with alerts, seasonality and a projection
func (c *Client) ProcessCashFlow(ctx context.Context, p analytics.CashFlowPayload, opts ...CallOption) (analytics.CashFlowResult, error) {
	return call[analytics.CashFlowResult](ctx, c, analytics.OpProcessCashFlow, p, opts)
}

// ProcessVendorAnalytics ranks vendors and measures their concentration
func (c *Client) ProcessVendorAnalytics(ctx context.Context, p analytics.VendorPayload, opts ...CallOption) (analytics.VendorResult, error) {
	return call[analytics.VendorResult](ctx, c, analytics.OpProcessVendorAnalytics, p, opts)
}

// ProcessBudget compares planned and actual spending per category
func (c *Client) ProcessBudget(ctx context.Context, p analytics.BudgetPayload, opts ...CallOption) (analytics.BudgetResult, error) {
	return call[analytics.BudgetResult](ctx, c, analytics.OpProcessBudget, p, opts)
}

// FormatMetrics renders metrics for display in a locale
func (c *Client) FormatMetrics(ctx context.Context, p analytics.FormatPayload, opts ...CallOption) (analytics.FormatResult, error) {
	return call[analytics.FormatResult](ctx, c, analytics.OpFormatMetrics, p, opts)
}

// AnalyzeDelinquency ranks debtors and estimates recovery
func (c *Client) AnalyzeDelinquency(ctx context.Context, p analytics.DelinquencyPayload, opts ...CallOption) (analytics.DelinquencyResult, error) {
	return call[analytics.DelinquencyResult](ctx, c, analytics.OpAnalyzeDelinquency, p, opts)
}

// AnalyzeTrends classifies a series and finds its turning points
func (c *Client) AnalyzeTrends(ctx context.Context, p analytics.TrendPayload, opts ...CallOption) (analytics.TrendResult, error) {
	return call[analytics.TrendResult](ctx, c, analytics.OpAnalyzeTrends, p, opts)
}

// ClassifyKPIs grades KPIs against thresholds and scores financial health
func (c *Client) ClassifyKPIs(ctx context.Context, p analytics.ClassifyKPIsPayload, opts ...CallOption) (analytics.ClassifyKPIsResult, error) {
	return call[analytics.ClassifyKPIsResult](ctx, c, analytics.OpClassifyKPIs, p, opts)
}

// GenerateInsights produces prioritized insights and recommendations across the KPI,
// cash flow and delinquency analyses
func (c *Client) GenerateInsights(ctx context.Context, p analytics.InsightsPayload, opts ...CallOption) (analytics.InsightsResult, error) {
	return call[analytics.InsightsResult](ctx, c, analytics.OpGenerateInsights, p, opts)
}
