package algorithms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

func series(n int) []analytics.Record {
	points := make([]analytics.Record, n)
	for i := range points {
		points[i] = analytics.Record{"x": float64(i), "value": float64(i%10) + 0.123456, "label": "p"}
	}
	return points
}

func TestOptimizeChartData(t *testing.T) {
	lib := NewDefault()

	t.Run("downsamples by fixed stride", func(t *testing.T) {
		r := lib.OptimizeChartData(analytics.OptimizePayload{Points: series(2500), MaxPoints: 1000})

		assert.True(t, r.Downsampled)
		assert.Equal(t, 3, r.Stride)
		assert.Equal(t, 2500, r.OriginalCount)
		assert.Equal(t, 834, r.ReturnedCount)
		assert.LessOrEqual(t, r.ReturnedCount, 1000)
		assert.Equal(t, 3.0, r.Points[1]["x"])
	})

	t.Run("leaves small payloads intact apart from rounding", func(t *testing.T) {
		r := lib.OptimizeChartData(analytics.OptimizePayload{Points: series(5)})

		assert.False(t, r.Downsampled)
		assert.Equal(t, 5, r.ReturnedCount)
		assert.Equal(t, 1.12, r.Points[1]["value"])
		assert.Equal(t, "p", r.Points[1]["label"])
	})

	t.Run("precision is configurable including zero", func(t *testing.T) {
		zero, three := 0, 3
		r0 := lib.OptimizeChartData(analytics.OptimizePayload{Points: series(3), Precision: &zero})
		r3 := lib.OptimizeChartData(analytics.OptimizePayload{Points: series(3), Precision: &three})

		assert.Equal(t, 2.0, r0.Points[2]["value"])
		assert.Equal(t, 2.123, r3.Points[2]["value"])
	})

	t.Run("precision is capped at MaxPrecision", func(t *testing.T) {
		huge := 1_000_000_000
		points := []analytics.Record{{"value": 1.2345}}

		start := time.Now()
		r := lib.OptimizeChartData(analytics.OptimizePayload{Points: points, Precision: &huge})

		assert.Less(t, time.Since(start), time.Second)
		require.Len(t, r.Points, 1)
		assert.Equal(t, 1.2345, r.Points[0]["value"])
	})

	t.Run("removes IQR outliers before sampling", func(t *testing.T) {
		points := []analytics.Record{}
		for i := 0; i < 20; i++ {
			points = append(points, analytics.Record{"value": float64(10 + i%3)})
		}
		points = append(points, analytics.Record{"value": 1000.0}, analytics.Record{"value": -500.0}, analytics.Record{"note": "no value"})

		r := lib.OptimizeChartData(analytics.OptimizePayload{Points: points, RemoveOutliers: true})

		assert.Equal(t, 2, r.OutliersRemoved)
		assert.Equal(t, 21, r.ReturnedCount)
		for _, p := range r.Points {
			if v, ok := p["value"].(float64); ok {
				assert.Less(t, v, 1000.0)
				assert.Greater(t, v, -500.0)
			}
		}
	})

	t.Run("does not mutate the input", func(t *testing.T) {
		points := series(3)
		lib.OptimizeChartData(analytics.OptimizePayload{Points: points})
		assert.Equal(t, 1.123456, points[1]["value"])
	})

	t.Run("empty payload", func(t *testing.T) {
		r := lib.OptimizeChartData(analytics.OptimizePayload{})
		require.NotNil(t, r.Points)
		assert.Empty(t, r.Points)
		assert.Zero(t, r.ReturnedCount)
	})
}
