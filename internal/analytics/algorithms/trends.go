package algorithms

import (
	"math"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// regression is an ordinary least squares fit of values against 0..n-1
type regression struct {
	slope     float64
	intercept float64
	rSquared  float64
}

func fitLine(values []float64) regression {
	n := float64(len(values))
	if len(values) < 2 {
		return regression{intercept: mean(values)}
	}
	xMean := (n - 1) / 2
	yMean := mean(values)
	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	r := regression{intercept: yMean}
	if den != 0 {
		r.slope = num / den
		r.intercept = yMean - r.slope*xMean
	}

	var ssRes, ssTot float64
	for i, y := range values {
		pred := r.slope*float64(i) + r.intercept
		ssRes += (y - pred) * (y - pred)
		ssTot += (y - yMean) * (y - yMean)
	}
	if ssTot != 0 {
		r.rSquared = 1 - ssRes/ssTot
	}
	return r
}

// classifyTrend labels a series. A noisy series without a clear linear fit is
// VOLATILE; otherwise the slope relative to the mean decides between GROWTH,
// DECLINE and STABLE. intensity is the relative slope in percent, capped at 100.
func (l *Library) classifyTrend(values []float64) (analytics.TrendDirection, float64, regression) {
	fit := fitLine(values)
	if len(values) < 2 {
		return analytics.TrendStable, 0, fit
	}

	relSlope := 0.0
	if m := mean(values); m != 0 {
		relSlope = finite(fit.slope / math.Abs(m) * 100)
	}
	intensity := math.Min(100, math.Abs(relSlope))

	switch {
	case coefficientOfVariation(values) > l.params.VolatileTrendCV && fit.rSquared < 0.5:
		return analytics.TrendVolatile, intensity, fit
	case math.Abs(relSlope) <= l.params.StableTrendBand:
		return analytics.TrendStable, intensity, fit
	case relSlope > 0:
		return analytics.TrendGrowth, intensity, fit
	default:
		return analytics.TrendDecline, intensity, fit
	}
}

// AnalyzeTrends classifies a series and reports its turning points,
// lag-1 autocorrelation and the regression estimate of the next value.
func (l *Library) AnalyzeTrends(p analytics.TrendPayload) analytics.TrendResult {
	result := analytics.TrendResult{
		Direction: analytics.TrendStable,
		Peaks:     []analytics.PeriodValue{},
		Troughs:   []analytics.PeriodValue{},
	}
	if len(p.Series) == 0 {
		return result
	}

	values := seriesValues(p.Series)
	direction, intensity, fit := l.classifyTrend(values)
	result.Direction = direction
	result.Intensity = intensity
	result.Slope = fit.slope
	result.RSquared = fit.rSquared
	result.CoefficientOfVariation = coefficientOfVariation(values)
	result.Autocorrelation = autocorrelation(values)
	result.NextValue = finite(fit.slope*float64(len(values)) + fit.intercept)
	if first := values[0]; first != 0 {
		result.Growth = finite((values[len(values)-1] - first) / math.Abs(first) * 100)
	}

	for i := 1; i < len(values)-1; i++ {
		switch {
		case values[i] > values[i-1] && values[i] > values[i+1]:
			result.Peaks = append(result.Peaks, p.Series[i])
		case values[i] < values[i-1] && values[i] < values[i+1]:
			result.Troughs = append(result.Troughs, p.Series[i])
		}
	}
	return result
}

// autocorrelation is the lag-1 autocorrelation coefficient
func autocorrelation(values []float64) float64 {
	if len(values) < 3 {
		return 0
	}
	m := mean(values)
	var num, den float64
	for i, v := range values {
		d := v - m
		den += d * d
		if i > 0 {
			num += d * (values[i-1] - m)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}
