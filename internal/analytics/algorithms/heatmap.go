package algorithms

import (
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// GenerateHeatmap buckets records into an (x, y) matrix, aggregates each cell and
// annotates every cell with its min-max normalized value and percentile rank.
func (l *Library) GenerateHeatmap(p analytics.HeatmapPayload) analytics.HeatmapResult {
	mode := analytics.AggregationMode(strings.ToLower(string(p.Aggregation)))
	switch mode {
	case analytics.AggregateSum, analytics.AggregateAverage, analytics.AggregateCount:
	default:
		mode = analytics.AggregateSum
	}

	result := analytics.HeatmapResult{
		XLabels:     []string{},
		YLabels:     []string{},
		Cells:       []analytics.HeatmapCell{},
		Aggregation: mode,
	}

	type cellKey struct{ x, y string }
	type acc struct {
		sum   float64
		count int
	}
	cells := make(map[cellKey]*acc)
	xs := make(map[string]struct{})
	ys := make(map[string]struct{})
	for _, rec := range p.Records {
		k := cellKey{x: label(rec[p.XKey]), y: label(rec[p.YKey])}
		a, ok := cells[k]
		if !ok {
			a = &acc{}
			cells[k] = a
		}
		a.count++
		if v, ok := numeric(rec[p.ValueKey]); ok {
			a.sum += v
		}
		xs[k.x] = struct{}{}
		ys[k.y] = struct{}{}
	}
	if len(cells) == 0 {
		return result
	}

	result.XLabels = sortedKeys(xs)
	result.YLabels = sortedKeys(ys)
	for _, y := range result.YLabels {
		for _, x := range result.XLabels {
			a, ok := cells[cellKey{x: x, y: y}]
			if !ok {
				continue
			}
			var value float64
			switch mode {
			case analytics.AggregateAverage:
				value = a.sum / float64(a.count)
			case analytics.AggregateCount:
				value = float64(a.count)
			default:
				value = a.sum
			}
			result.Cells = append(result.Cells, analytics.HeatmapCell{X: x, Y: y, Value: value, Count: a.count})
		}
	}

	values := make([]float64, len(result.Cells))
	for i, c := range result.Cells {
		values[i] = c.Value
	}
	sorted := sortedCopy(values)
	result.Min = sorted[0]
	result.Max = sorted[len(sorted)-1]
	spread := result.Max - result.Min
	for i := range result.Cells {
		c := &result.Cells[i]
		if spread != 0 {
			c.Normalized = (c.Value - result.Min) / spread
		}
		c.Percentile = float64(sort.SearchFloat64s(sorted, c.Value)) / float64(len(sorted)) * 100
	}
	return result
}
