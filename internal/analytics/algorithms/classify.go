package algorithms

import (
	"fmt"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// DefaultKPIThresholds are used for KPIs the payload does not configure
var DefaultKPIThresholds = map[string]analytics.KPIThreshold{
	"total_revenue":     {Critical: 10_000_000, Attention: 15_000_000, Good: 20_000_000},
	"default_rate":      {Critical: 50, Attention: 20, Good: 10, Inverted: true},
	"operating_balance": {Critical: 0, Attention: 1_000_000, Good: 2_000_000},
	"projected_balance": {Critical: 0, Attention: 2_000_000, Good: 4_000_000},
	"total_expenses":    {Critical: 20_000_000, Attention: 15_000_000, Good: 10_000_000, Inverted: true},
	"late_receipts":     {Critical: 200, Attention: 100, Good: 50, Inverted: true},
}

var statusWeights = map[analytics.KPIStatus]float64{
	analytics.KPICritical:  0,
	analytics.KPIAttention: 25,
	analytics.KPIGood:      70,
	analytics.KPIExcellent: 100,
}

// ClassifyKPIs grades each KPI against its thresholds and derives a 0-100 health
// score from the mean status weight.
func (l *Library) ClassifyKPIs(p analytics.ClassifyKPIsPayload) analytics.ClassifyKPIsResult {
	result := analytics.ClassifyKPIsResult{
		KPIs: []analytics.KPIStatusEntry{},
		Summary: map[analytics.KPIStatus]int{
			analytics.KPICritical:  0,
			analytics.KPIAttention: 0,
			analytics.KPIGood:      0,
			analytics.KPIExcellent: 0,
		},
		Recommendations: []string{},
	}
	if len(p.Values) == 0 {
		return result
	}

	thresholds := make(map[string]analytics.KPIThreshold, len(DefaultKPIThresholds)+len(p.Thresholds))
	for k, t := range DefaultKPIThresholds {
		thresholds[k] = t
	}
	for k, t := range p.Thresholds {
		thresholds[normalizeKPIName(k)] = t
	}

	points := 0.0
	for _, name := range sortedKeys(p.Values) {
		value := p.Values[name]
		t, ok := thresholds[normalizeKPIName(name)]
		entry := analytics.KPIStatusEntry{Name: name, Value: value}
		if ok {
			entry.Status, entry.Note = classifyKPI(value, t)
		} else {
			entry.Status, entry.Note = analytics.KPIGood, "no thresholds configured"
		}
		result.KPIs = append(result.KPIs, entry)
		result.Summary[entry.Status]++
		points += statusWeights[entry.Status]
	}
	result.HealthScore = roundTo(points/float64(len(result.KPIs)), 1)
	result.Recommendations = kpiRecommendations(result.KPIs, NewFormatter(p.Locale))
	return result
}

// kpiRecommendations advises on critical revenue, default rate and balance KPIs
// and on every KPI that needs attention.
func kpiRecommendations(kpis []analytics.KPIStatusEntry, f *Formatter) []string {
	out := []string{}
	for _, k := range kpis {
		name := normalizeKPIName(k.Name)
		switch k.Status {
		case analytics.KPICritical:
			switch {
			case strings.Contains(name, "default"):
				out = append(out, fmt.Sprintf("%s: start an urgent credit recovery strategy, the current rate of %s is critical",
					k.Name, f.Percent(k.Value, 1)))
			case strings.Contains(name, "revenue"):
				out = append(out, fmt.Sprintf("%s: review the commercial strategy and marketing campaigns, %s is below expectations",
					k.Name, f.CompactCurrency(k.Value)))
			case strings.Contains(name, "balance"):
				out = append(out, fmt.Sprintf("%s: review the cash flow urgently, a balance of %s needs immediate attention",
					k.Name, f.CompactCurrency(k.Value)))
			}
		case analytics.KPIAttention:
			out = append(out, fmt.Sprintf("%s: monitor closely and take preventive action, current value %s",
				k.Name, f.Number(k.Value, 2)))
		}
	}
	return out
}

func classifyKPI(v float64, t analytics.KPIThreshold) (analytics.KPIStatus, string) {
	if t.Inverted {
		switch {
		case v >= t.Critical:
			return analytics.KPICritical, "value too high, act immediately"
		case v >= t.Attention:
			return analytics.KPIAttention, "value above target, monitor"
		case v >= t.Good:
			return analytics.KPIGood, "value acceptable"
		default:
			return analytics.KPIExcellent, "value excellent"
		}
	}
	switch {
	case v <= t.Critical:
		return analytics.KPICritical, "value too low, act immediately"
	case v <= t.Attention:
		return analytics.KPIAttention, "value below target, monitor"
	case v <= t.Good:
		return analytics.KPIGood, "value within expectations"
	default:
		return analytics.KPIExcellent, "value above expectations"
	}
}

func normalizeKPIName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
