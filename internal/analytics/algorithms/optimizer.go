package algorithms

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// OptimizeChartData trims a chart payload: optional IQR outlier removal on the value
// key, fixed-stride downsampling to MaxPoints, then decimal rounding of numeric fields.
func (l *Library) OptimizeChartData(p analytics.OptimizePayload) analytics.OptimizeResult {
	maxPoints := p.MaxPoints
	if maxPoints <= 0 {
		maxPoints = l.params.DefaultMaxPoints
	}
	precision := l.params.DefaultPrecision
	if p.Precision != nil && *p.Precision >= 0 {
		precision = *p.Precision
	}
	precision = min(precision, l.params.MaxPrecision)
	valueKey := p.ValueKey
	if valueKey == "" {
		valueKey = "value"
	}

	result := analytics.OptimizeResult{
		Points:        []analytics.Record{},
		OriginalCount: len(p.Points),
		Stride:        1,
	}
	if len(p.Points) == 0 {
		return result
	}

	points := p.Points
	if p.RemoveOutliers {
		points = l.removeOutliers(points, valueKey)
		result.OutliersRemoved = len(p.Points) - len(points)
	}

	if len(points) > maxPoints {
		result.Stride = int(math.Ceil(float64(len(points)) / float64(maxPoints)))
		result.Downsampled = true
	}

	for i := 0; i < len(points); i += result.Stride {
		result.Points = append(result.Points, roundRecord(points[i], precision))
	}
	result.ReturnedCount = len(result.Points)
	return result
}

// removeOutliers drops points whose value lies outside [Q1-k*IQR, Q3+k*IQR].
// Points without a numeric value are kept.
func (l *Library) removeOutliers(points []analytics.Record, valueKey string) []analytics.Record {
	values := make([]float64, 0, len(points))
	for _, pt := range points {
		if v, ok := numeric(pt[valueKey]); ok {
			values = append(values, v)
		}
	}
	if len(values) < 4 {
		return points
	}

	sorted := sortedCopy(values)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - l.params.IQRMultiplier*iqr
	upper := q3 + l.params.IQRMultiplier*iqr

	kept := make([]analytics.Record, 0, len(points))
	for _, pt := range points {
		if v, ok := numeric(pt[valueKey]); ok && (v < lower || v > upper) {
			continue
		}
		kept = append(kept, pt)
	}
	return kept
}

// roundRecord copies rec with every float field rounded half away from zero
func roundRecord(rec analytics.Record, precision int) analytics.Record {
	out := make(analytics.Record, len(rec))
	for k, v := range rec {
		if f, ok := v.(float64); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
			out[k] = roundTo(f, precision)
			continue
		}
		out[k] = v
	}
	return out
}

func roundTo(v float64, precision int) float64 {
	return decimal.NewFromFloat(v).Round(int32(precision)).InexactFloat64()
}
