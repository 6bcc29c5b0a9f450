package algorithms

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// Trigger levels for generated insights
const (
	insightLowHealthScore         = 30.0
	insightWeakHealthScore        = 40.0
	insightDeclineIntensity       = 40.0
	insightHighVolatility         = 500_000.0
	insightTop3Concentration      = 60.0
	insightDominantDebtorShare    = 30.0
	insightLowRecoveryRate        = 50.0
	insightCrossDebtThreshold     = 100_000.0
	insightWeakConsolidatedNet    = 1_000_000.0
	insightHealthyConsolidatedNet = 2_000_000.0
	maxPriorityRecommendations    = 10
)

var insightPriorityRank = map[analytics.InsightPriority]int{
	analytics.InsightPriorityCritical: 4,
	analytics.InsightPriorityHigh:     3,
	analytics.InsightPriorityMedium:   2,
	analytics.InsightPriorityLow:      1,
}

// GenerateInsights runs the KPI, cash flow and delinquency analyses present in
// the payload, derives insights from each and from their combination, then
// orders them by priority and impact and scores their confidence.
func (l *Library) GenerateInsights(p analytics.InsightsPayload) analytics.InsightsResult {
	f := NewFormatter(p.Locale)
	g := insightGenerator{f: f, insights: []analytics.Insight{}}

	var (
		kpis        *analytics.ClassifyKPIsResult
		cashFlow    *analytics.CashFlowResult
		delinquency *analytics.DelinquencyResult
	)
	if len(p.KPIValues) > 0 {
		r := l.ClassifyKPIs(analytics.ClassifyKPIsPayload{Values: p.KPIValues, Thresholds: p.Thresholds, Locale: p.Locale})
		kpis = &r
		g.kpiInsights(r)
	}
	if len(p.Movements) > 0 {
		r := l.ProcessCashFlow(analytics.CashFlowPayload{Movements: p.Movements, Locale: p.Locale})
		cashFlow = &r
		g.cashFlowInsights(r)
	}
	if len(p.Delinquency) > 0 {
		r := l.AnalyzeDelinquency(analytics.DelinquencyPayload{Records: p.Delinquency, TotalRevenue: p.TotalRevenue, Locale: p.Locale})
		delinquency = &r
		g.delinquencyInsights(r)
	}
	g.crossInsights(kpis, cashFlow, delinquency)

	insights := g.insights
	sort.SliceStable(insights, func(i, j int) bool {
		ri, rj := insightPriorityRank[insights[i].Priority], insightPriorityRank[insights[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return insights[i].Impact > insights[j].Impact
	})
	for i := range insights {
		insights[i].Confidence = insightConfidence(insights[i], cashFlow, delinquency)
	}

	return analytics.InsightsResult{
		Insights: insights,
		Summary:  summarizeInsights(insights),
	}
}

type insightGenerator struct {
	f        *Formatter
	insights []analytics.Insight
}

func (g *insightGenerator) add(in analytics.Insight) {
	in.Impact = roundTo(finite(in.Impact), 2)
	g.insights = append(g.insights, in)
}

func (g *insightGenerator) kpiInsights(r analytics.ClassifyKPIsResult) {
	critical := 0
	for _, k := range r.KPIs {
		if k.Status == analytics.KPICritical {
			critical++
		}
	}

	if r.HealthScore < insightLowHealthScore {
		g.add(analytics.Insight{
			Type:        analytics.InsightKPI,
			Title:       "Critical financial situation",
			Description: fmt.Sprintf("Financial health score is %.1f/100 with %d critical KPIs; immediate action required.", r.HealthScore, critical),
			Priority:    analytics.InsightPriorityCritical,
			Impact:      r.HealthScore * 1000,
			Recommendations: []string{
				"Start a financial contingency plan",
				"Review every operating expense",
				"Accelerate revenue growth initiatives",
				"Consider temporary restructuring measures",
			},
			Metrics: map[string]float64{
				"health_score":  r.HealthScore,
				"critical_kpis": float64(critical),
				"total_kpis":    float64(len(r.KPIs)),
			},
		})
	}

	for _, k := range r.KPIs {
		if k.Status != analytics.KPICritical {
			continue
		}
		name := normalizeKPIName(k.Name)
		switch {
		case strings.Contains(name, "default"):
			g.add(analytics.Insight{
				Type:        analytics.InsightKPI,
				Title:       "Critical default rate: " + g.f.Percent(k.Value, 1),
				Description: fmt.Sprintf("A default rate of %s is far above the acceptable level and severely compromises cash flow.", g.f.Percent(k.Value, 1)),
				Priority:    analytics.InsightPriorityCritical,
				Impact:      k.Value * 100_000,
				Recommendations: []string{
					"Start an urgent credit recovery process",
					"Review the credit granting policy",
					"Reach agreements with the largest debtors",
					"Consider outsourcing collection of complex cases",
				},
				Metrics: map[string]float64{k.Name: k.Value},
			})
		case strings.Contains(name, "revenue"):
			g.add(analytics.Insight{
				Type:        analytics.InsightKPI,
				Title:       "Revenue below expectations: " + g.f.CompactCurrency(k.Value),
				Description: fmt.Sprintf("Revenue of %s is %s; the commercial strategy needs review.", g.f.CompactCurrency(k.Value), k.Note),
				Priority:    analytics.InsightPriorityHigh,
				Impact:      k.Value,
				Recommendations: []string{
					"Step up marketing campaigns and promotions",
					"Review the tenant mix and occupancy",
					"Run customer loyalty initiatives",
					"Analyze performance per store category",
				},
				Metrics: map[string]float64{k.Name: k.Value},
			})
		}
	}
}

func (g *insightGenerator) cashFlowInsights(r analytics.CashFlowResult) {
	if len(r.CriticalPeriods) > 0 {
		worst := r.CriticalPeriods[0]
		priority := analytics.InsightPriorityHigh
		if worst.RiskScore >= 70 {
			priority = analytics.InsightPriorityCritical
		}
		g.add(analytics.Insight{
			Type:  analytics.InsightCashFlow,
			Title: "Critical period identified: " + worst.Period,
			Description: fmt.Sprintf("%s closed with a net of %s (%s).",
				worst.Period, g.f.CompactCurrency(worst.Net), strings.Join(worst.Issues, "; ")),
			Priority: priority,
			Impact:   math.Abs(worst.Net),
			Recommendations: []string{
				"Investigate the specific causes of the problems in " + worst.Period,
				"Add preventive controls to avoid recurrence",
				"Adjust planning for similar periods",
				"Review seasonality and expense patterns",
			},
			Metrics: map[string]float64{
				"net":        worst.Net,
				"risk_score": float64(worst.RiskScore),
			},
		})
	}

	if r.Direction == analytics.TrendDecline && r.Intensity > insightDeclineIntensity {
		g.add(analytics.Insight{
			Type:        analytics.InsightTrend,
			Title:       "Declining net cash flow",
			Description: fmt.Sprintf("Net cash flow shows a declining trend of %s over the analyzed periods.", g.f.Percent(r.Intensity, 1)),
			Priority:    analytics.InsightPriorityHigh,
			Impact:      r.Intensity * 10_000,
			Recommendations: []string{
				"Take corrective action immediately",
				"Review the cost and revenue structure",
				"Set targets to reverse the trend",
				"Monitor the indicators weekly",
			},
			Metrics: map[string]float64{"intensity": r.Intensity},
		})
	}

	if r.Volatility > insightHighVolatility {
		g.add(analytics.Insight{
			Type:        analytics.InsightCashFlow,
			Title:       "High cash flow volatility",
			Description: fmt.Sprintf("Volatility of %s signals operational instability that hinders planning.", g.f.CompactCurrency(r.Volatility)),
			Priority:    analytics.InsightPriorityMedium,
			Impact:      r.Volatility,
			Recommendations: []string{
				"Add controls to reduce fluctuations",
				"Diversify revenue sources",
				"Build reserves for weak periods",
				"Review contracts and payment policies",
			},
			Metrics: map[string]float64{
				"volatility":  r.Volatility,
				"average_net": r.AverageNet,
			},
		})
	}
}

func (g *insightGenerator) delinquencyInsights(r analytics.DelinquencyResult) {
	if len(r.Ranking) == 0 {
		return
	}
	if r.Top3Share > insightTop3Concentration {
		top := r.Ranking[:min(3, len(r.Ranking))]
		names := make([]string, 0, len(top))
		value := 0.0
		for _, d := range top {
			names = append(names, d.Tenant)
			value += d.Amount
		}
		g.add(analytics.Insight{
			Type:  analytics.InsightDelinquency,
			Title: "High default concentration: top 3 = " + g.f.Percent(r.Top3Share, 1),
			Description: fmt.Sprintf("%s hold %s of the total debt; the risk is concentrated.",
				strings.Join(names, ", "), g.f.Percent(r.Top3Share, 1)),
			Priority: analytics.InsightPriorityCritical,
			Impact:   value,
			Recommendations: []string{
				"Prioritize negotiation with the three largest debtors",
				"Tailor a strategy to each critical case",
				"Assess legal enforcement where needed",
				"Diversify the tenant base to reduce future concentration",
			},
			Metrics: map[string]float64{
				"top3_share": r.Top3Share,
				"top3_value": value,
			},
		})
	}

	if r.Recovery.ConservativeRate < insightLowRecoveryRate {
		g.add(analytics.Insight{
			Type:        analytics.InsightDelinquency,
			Title:       "Low recovery potential: " + g.f.Percent(r.Recovery.ConservativeRate, 1),
			Description: fmt.Sprintf("A conservative recovery rate of %s calls for an urgent review of the collection strategy.", g.f.Percent(r.Recovery.ConservativeRate, 1)),
			Priority:    analytics.InsightPriorityHigh,
			Impact:      r.Recovery.Unrecoverable,
			Recommendations: []string{
				"Review and streamline the collection process",
				"Offer more attractive agreements to debtors",
				"Consider a discount for upfront payment",
				"Evaluate outsourcing collection of complex cases",
			},
			Metrics: map[string]float64{
				"conservative_rate": r.Recovery.ConservativeRate,
				"unrecoverable":     r.Recovery.Unrecoverable,
			},
		})
	}

	if r.Ranking[0].Share > insightDominantDebtorShare {
		d := r.Ranking[0]
		g.add(analytics.Insight{
			Type:        analytics.InsightDelinquency,
			Title:       fmt.Sprintf("Dominant debtor: %s (%s)", d.Tenant, g.f.Percent(d.Share, 1)),
			Description: fmt.Sprintf("%s accounts for %s of all defaulted debt.", d.Tenant, g.f.Percent(d.Share, 1)),
			Priority:    analytics.InsightPriorityCritical,
			Impact:      d.Amount,
			Recommendations: []string{
				"Negotiate with " + d.Tenant + " first, with a tailored proposal",
				"Analyze the debtor's financial situation in detail",
				"Propose a structured agreement with guarantees",
				"Assess legal protection of the receivable",
			},
			Metrics: map[string]float64{
				"amount": d.Amount,
				"share":  d.Share,
			},
		})
	}
}

// crossInsights correlates analyses that were run together
func (g *insightGenerator) crossInsights(kpis *analytics.ClassifyKPIsResult, cashFlow *analytics.CashFlowResult, delinquency *analytics.DelinquencyResult) {
	if delinquency != nil && cashFlow != nil &&
		delinquency.TotalDebt > insightCrossDebtThreshold && cashFlow.NegativePeriods > 1 {
		g.add(analytics.Insight{
			Type:  analytics.InsightOperational,
			Title: "Defaults are draining cash flow",
			Description: fmt.Sprintf("Defaulted debt of %s coincides with %d periods of negative net cash flow.",
				g.f.CompactCurrency(delinquency.TotalDebt), cashFlow.NegativePeriods),
			Priority: analytics.InsightPriorityCritical,
			Impact:   delinquency.TotalDebt,
			Recommendations: []string{
				"Prioritize credit recovery to relieve cash flow",
				"Tighten the credit policy",
				"Build a contingency reserve for critical periods",
				"Track the correlation monthly",
			},
			Metrics: map[string]float64{
				"total_debt":       delinquency.TotalDebt,
				"negative_periods": float64(cashFlow.NegativePeriods),
			},
		})
	}

	if kpis != nil && cashFlow != nil &&
		kpis.HealthScore < insightWeakHealthScore && cashFlow.NetTotal < insightWeakConsolidatedNet {
		g.add(analytics.Insight{
			Type:  analytics.InsightOperational,
			Title: "Operations under strain",
			Description: fmt.Sprintf("A health score of %.1f/100 with a consolidated net of %s calls for structural intervention.",
				kpis.HealthScore, g.f.CompactCurrency(cashFlow.NetTotal)),
			Priority: analytics.InsightPriorityCritical,
			Impact:   math.Abs(cashFlow.NetTotal - insightHealthyConsolidatedNet),
			Recommendations: []string{
				"Start an operational recovery plan",
				"Review every revenue and expense process",
				"Set staged improvement targets",
				"Consider specialized consulting",
			},
			Metrics: map[string]float64{
				"health_score": kpis.HealthScore,
				"net_total":    cashFlow.NetTotal,
			},
		})
	}
}

// insightConfidence starts at 70 and rises with the directness and volume of
// the data behind the insight.
func insightConfidence(in analytics.Insight, cashFlow *analytics.CashFlowResult, delinquency *analytics.DelinquencyResult) float64 {
	score := 70.0
	switch in.Type {
	case analytics.InsightKPI:
		score += 20
	case analytics.InsightCashFlow:
		if cashFlow != nil {
			switch n := len(cashFlow.Periods); {
			case n >= 6:
				score += 15
			case n >= 3:
				score += 10
			}
		}
	case analytics.InsightDelinquency:
		if delinquency != nil && len(delinquency.Ranking) >= 5 {
			score += 10
		}
	}
	if in.Priority == analytics.InsightPriorityCritical {
		score += 5
	}
	return math.Min(100, score)
}

func summarizeInsights(insights []analytics.Insight) analytics.InsightSummary {
	s := analytics.InsightSummary{
		Total: len(insights),
		ByPriority: map[analytics.InsightPriority]int{
			analytics.InsightPriorityCritical: 0,
			analytics.InsightPriorityHigh:     0,
			analytics.InsightPriorityMedium:   0,
			analytics.InsightPriorityLow:      0,
		},
		ByType:                  map[analytics.InsightType]int{},
		PriorityRecommendations: []string{},
	}
	if len(insights) == 0 {
		return s
	}

	confidence := 0.0
	for _, in := range insights {
		s.ByPriority[in.Priority]++
		s.ByType[in.Type]++
		s.TotalImpact += in.Impact
		confidence += in.Confidence
		if in.Priority == analytics.InsightPriorityCritical {
			s.PriorityRecommendations = append(s.PriorityRecommendations, in.Recommendations[:min(2, len(in.Recommendations))]...)
		}
	}
	s.TotalImpact = roundTo(s.TotalImpact, 2)
	s.AverageConfidence = roundTo(confidence/float64(len(insights)), 1)
	if len(s.PriorityRecommendations) > maxPriorityRecommendations {
		s.PriorityRecommendations = s.PriorityRecommendations[:maxPriorityRecommendations]
	}
	return s
}
