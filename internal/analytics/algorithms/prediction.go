package algorithms

import (
	"math"
	"math/rand/v2"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// GeneratePredictions extrapolates a period series by its last relative change
func (l *Library) GeneratePredictions(p analytics.PredictionPayload) analytics.PredictionResult {
	series := p.Series
	if len(series) == 0 {
		series = billingSeries(p.Billing, p.Metric)
	}
	periods := p.PeriodsAhead
	if periods <= 0 {
		periods = l.params.ForecastPeriods
	}

	result := analytics.PredictionResult{
		History:  series,
		Forecast: []analytics.ForecastPoint{},
	}
	if len(series) == 0 {
		return result
	}

	result.CurrentValue = series[len(series)-1].Value
	result.Trend = linearTrend(seriesValues(series))
	for k := 1; k <= periods; k++ {
		result.Forecast = append(result.Forecast, analytics.ForecastPoint{
			PeriodsAhead: k,
			Value:        finite(result.CurrentValue * math.Pow(1+result.Trend, float64(k))),
			Confidence:   math.Max(l.params.ForecastConfidenceFloor, 1-l.params.ForecastConfidenceStep*float64(k)),
		})
	}
	return result
}

// linearTrend is the relative change between the last two values, 0 when undefined
func linearTrend(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	prev := values[len(values)-2]
	if prev == 0 {
		return 0
	}
	return finite((values[len(values)-1] - prev) / prev)
}

const maxMonteCarloIterations = 1_000_000

// SimulateMonteCarlo perturbs NOI, occupancy and portfolio value with bounded
// uniform relative noise and summarizes the simulated populations.
func (l *Library) SimulateMonteCarlo(p analytics.MonteCarloPayload) analytics.MonteCarloResult {
	n := p.Iterations
	if n <= 0 {
		n = l.params.MonteCarloIterations
	}
	if n > maxMonteCarloIterations {
		n = maxMonteCarloIterations
	}

	noi := make([]float64, n)
	occupancy := make([]float64, n)
	value := make([]float64, n)
	for i := 0; i < n; i++ {
		noi[i] = perturb(p.NOI, l.params.NOIVariation)
		occupancy[i] = math.Min(100, math.Max(0, perturb(p.Occupancy, l.params.OccupancyVariation)))
		value[i] = perturb(p.PortfolioValue, l.params.ValueVariation)
	}

	return analytics.MonteCarloResult{
		Iterations:     n,
		NOI:            summarize(noi),
		Occupancy:      summarize(occupancy),
		PortfolioValue: summarize(value),
	}
}

// perturb applies uniform noise in [-variation, +variation) relative to base
func perturb(base, variation float64) float64 {
	return base * (1 + (rand.Float64()*2-1)*variation)
}

// summarize sorts the sample and reads percentiles at floor(n*p)
func summarize(sample []float64) analytics.Distribution {
	if len(sample) == 0 {
		return analytics.Distribution{}
	}
	sorted := sortedCopy(sample)
	return analytics.Distribution{
		Mean: mean(sorted),
		P5:   percentile(sorted, 0.05),
		P50:  percentile(sorted, 0.50),
		P95:  percentile(sorted, 0.95),
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
	}
}
