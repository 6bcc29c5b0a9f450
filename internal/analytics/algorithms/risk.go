package algorithms

import (
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// CalculateRiskMetrics derives volatility, Sharpe ratio, historical VaR, tenant
// concentration and per-group default risk from billing and delinquency records.
func (l *Library) CalculateRiskMetrics(p analytics.RiskPayload) analytics.RiskResult {
	confidence := p.Confidence
	if confidence <= 0 || confidence >= 1 {
		confidence = l.params.VaRConfidence
	}

	amounts := make([]float64, 0, len(p.Billing))
	tenantRevenue := make(map[string]float64)
	for _, b := range p.Billing {
		amounts = append(amounts, b.BilledAmount)
		if key := tenantKey(b.Shopping, b.Tenant); key != "" {
			tenantRevenue[key] += b.BilledAmount
		}
	}

	result := analytics.RiskResult{
		Volatility:        volatility(amounts),
		Confidence:        confidence,
		ValueAtRisk:       ValueAtRisk(amounts, confidence),
		ConcentrationRisk: herfindahl(tenantRevenue),
		Groups:            l.groupRisk(p.Delinquency, p.GroupBy),
	}
	result.MeanReturn = mean(periodReturns(seriesValues(billingSeries(p.Billing, "billed"))))
	if result.Volatility != 0 {
		result.SharpeRatio = finite((result.MeanReturn - l.params.RiskFreeRate) / result.Volatility)
	}
	return result
}

// ValueAtRisk returns the value at index floor((1-confidence)*n) of the ascending sorted amounts
func ValueAtRisk(amounts []float64, confidence float64) float64 {
	if len(amounts) == 0 {
		return 0
	}
	return percentile(sortedCopy(amounts), 1-confidence)
}

// RiskLevelForRate buckets a default-rate percentage
func (l *Library) RiskLevelForRate(rate float64) analytics.RiskLevel {
	switch {
	case rate <= l.params.LowRiskThreshold:
		return analytics.RiskLow
	case rate <= l.params.MediumRiskThreshold:
		return analytics.RiskMedium
	default:
		return analytics.RiskHigh
	}
}

func (l *Library) groupRisk(records []analytics.DelinquencyRecord, groupBy string) []analytics.GroupRisk {
	type acc struct{ receivable, def float64 }
	groups := make(map[string]*acc)
	for _, d := range records {
		var key string
		switch strings.ToLower(groupBy) {
		case "tenant":
			key = d.Tenant
		case "category":
			key = d.Category
		default:
			key = d.Shopping
		}
		key = label(strings.TrimSpace(key))
		a, ok := groups[key]
		if !ok {
			a = &acc{}
			groups[key] = a
		}
		a.receivable += d.ReceivableAmount
		a.def += d.DefaultAmount
	}

	out := make([]analytics.GroupRisk, 0, len(groups))
	for _, name := range sortedKeys(groups) {
		a := groups[name]
		rate := ratio(a.def, a.receivable)
		out = append(out, analytics.GroupRisk{
			Group:       name,
			Receivable:  a.receivable,
			Default:     a.def,
			DefaultRate: rate,
			Level:       l.RiskLevelForRate(rate),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DefaultRate > out[j].DefaultRate
	})
	return out
}
