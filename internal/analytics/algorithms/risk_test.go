package algorithms

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

func TestValueAtRisk(t *testing.T) {
	t.Run("reads index floor((1-c)*n) of the sorted amounts", func(t *testing.T) {
		amounts := make([]float64, 100)
		for i := range amounts {
			amounts[i] = float64(i + 1)
		}
		rand.Shuffle(len(amounts), func(i, j int) { amounts[i], amounts[j] = amounts[j], amounts[i] })

		// sorted ascending the value at index 5 is 6
		assert.Equal(t, 6.0, ValueAtRisk(amounts, 0.95))
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		amounts := []float64{3, 1, 2}
		ValueAtRisk(amounts, 0.95)
		assert.Equal(t, []float64{3, 1, 2}, amounts)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, 0.0, ValueAtRisk(nil, 0.95))
	})
}

func TestCalculateRiskMetrics(t *testing.T) {
	lib := NewDefault()

	t.Run("computes statistics and buckets groups", func(t *testing.T) {
		r := lib.CalculateRiskMetrics(analytics.RiskPayload{
			Billing: []analytics.BillingRecord{
				{Shopping: "Park", Tenant: "A", Period: "2025-01", BilledAmount: 100},
				{Shopping: "Park", Tenant: "B", Period: "2025-01", BilledAmount: 100},
				{Shopping: "Park", Tenant: "A", Period: "2025-02", BilledAmount: 150},
				{Shopping: "Park", Tenant: "B", Period: "2025-02", BilledAmount: 70},
			},
			Delinquency: []analytics.DelinquencyRecord{
				{Shopping: "Park", ReceivableAmount: 1000, DefaultAmount: 10},
				{Shopping: "Centro", ReceivableAmount: 1000, DefaultAmount: 40},
				{Shopping: "Norte", ReceivableAmount: 1000, DefaultAmount: 90},
			},
		})

		assert.Greater(t, r.Volatility, 0.0)
		// period totals 200 -> 220 is a 10% return
		assert.InDelta(t, 10.0, r.MeanReturn, 1e-9)
		assert.InDelta(t, (10.0-2.0)/r.Volatility, r.SharpeRatio, 1e-9)
		assert.Equal(t, 0.95, r.Confidence)
		assert.Equal(t, 70.0, r.ValueAtRisk)

		// tenant A 250, tenant B 170 of 420
		a, b := 250.0/420, 170.0/420
		assert.InDelta(t, (a*a+b*b)*10000, r.ConcentrationRisk, 1e-6)

		require.Len(t, r.Groups, 3)
		levels := map[string]analytics.RiskLevel{}
		for _, g := range r.Groups {
			levels[g.Group] = g.Level
		}
		assert.Equal(t, analytics.RiskLow, levels["Park"])
		assert.Equal(t, analytics.RiskMedium, levels["Centro"])
		assert.Equal(t, analytics.RiskHigh, levels["Norte"])
		assert.Equal(t, "Norte", r.Groups[0].Group)
	})

	t.Run("risk buckets are inclusive at the thresholds", func(t *testing.T) {
		assert.Equal(t, analytics.RiskLow, lib.RiskLevelForRate(2.0))
		assert.Equal(t, analytics.RiskMedium, lib.RiskLevelForRate(2.01))
		assert.Equal(t, analytics.RiskMedium, lib.RiskLevelForRate(5.0))
		assert.Equal(t, analytics.RiskHigh, lib.RiskLevelForRate(5.01))
	})

	t.Run("thresholds are overridable", func(t *testing.T) {
		custom := New(Params{LowRiskThreshold: 1, MediumRiskThreshold: 3})
		assert.Equal(t, analytics.RiskHigh, custom.RiskLevelForRate(4))
		assert.Equal(t, 0.95, custom.Params().VaRConfidence)
	})

	t.Run("groups by category", func(t *testing.T) {
		r := lib.CalculateRiskMetrics(analytics.RiskPayload{
			GroupBy: "category",
			Delinquency: []analytics.DelinquencyRecord{
				{Category: "Food", ReceivableAmount: 100, DefaultAmount: 1},
				{Category: "", ReceivableAmount: 100, DefaultAmount: 1},
			},
		})
		require.Len(t, r.Groups, 2)
		assert.ElementsMatch(t, []string{"Food", "N/A"}, []string{r.Groups[0].Group, r.Groups[1].Group})
	})

	t.Run("empty input gives a zeroed result", func(t *testing.T) {
		r := lib.CalculateRiskMetrics(analytics.RiskPayload{})
		assert.Zero(t, r.Volatility)
		assert.Zero(t, r.SharpeRatio)
		assert.Zero(t, r.ValueAtRisk)
		assert.Empty(t, r.Groups)
	})
}
