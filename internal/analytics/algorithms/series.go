package algorithms

import (
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// billingSeries sums one billing metric per period, ordered by period label.
// metric is billed (default), paid or open.
func billingSeries(records []analytics.BillingRecord, metric string) []analytics.PeriodValue {
	totals := make(map[string]float64)
	for _, r := range records {
		var v float64
		switch strings.ToLower(metric) {
		case "paid":
			v = r.PaidAmount
		case "open":
			v = r.OpenAmount
		default:
			v = r.BilledAmount
		}
		totals[periodKey(r.Period)] += v
	}
	return toSeries(totals)
}

func toSeries(totals map[string]float64) []analytics.PeriodValue {
	series := make([]analytics.PeriodValue, 0, len(totals))
	for _, k := range sortedKeys(totals) {
		series = append(series, analytics.PeriodValue{Period: k, Value: totals[k]})
	}
	return series
}

func seriesValues(series []analytics.PeriodValue) []float64 {
	values := make([]float64, len(series))
	for i, pv := range series {
		values[i] = pv.Value
	}
	return values
}

// periodReturns returns the period-over-period relative changes as percentages.
// Steps starting from a zero value are skipped.
func periodReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, (values[i]-values[i-1])/values[i-1]*100)
	}
	return out
}
