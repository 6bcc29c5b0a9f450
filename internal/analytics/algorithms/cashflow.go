package algorithms

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// ProcessCashFlow consolidates movements per period and projects the next periods
// from the recent average credit and debit adjusted by the net trend.
func (l *Library) ProcessCashFlow(p analytics.CashFlowPayload) analytics.CashFlowResult {
	horizon := p.ProjectionPeriods
	if horizon <= 0 {
		horizon = l.params.ForecastPeriods
	}

	result := analytics.CashFlowResult{
		Periods:         []analytics.CashFlowPeriod{},
		Direction:       analytics.TrendStable,
		CreditDirection: analytics.TrendStable,
		CriticalPeriods: []analytics.CriticalPeriod{},
		Projection:      []analytics.PeriodValue{},
		Alerts:          []analytics.Alert{},
		Recommendations: []string{},
	}

	byPeriod := make(map[string]*analytics.CashFlowPeriod)
	for _, m := range p.Movements {
		key := periodKey(m.Period)
		cp, ok := byPeriod[key]
		if !ok {
			cp = &analytics.CashFlowPeriod{Period: key}
			byPeriod[key] = cp
		}
		amount := m.Amount
		if amount < 0 {
			amount = -amount
		}
		switch analytics.MovementType(strings.ToLower(string(m.Type))) {
		case analytics.MovementCredit:
			cp.Credit += amount
		case analytics.MovementDebit:
			cp.Debit += amount
		}
	}
	if len(byPeriod) == 0 {
		return result
	}

	nets := make([]float64, 0, len(byPeriod))
	credits := make([]float64, 0, len(byPeriod))
	cumulative := 0.0
	best, worst := -1, -1
	for i, key := range sortedKeys(byPeriod) {
		cp := byPeriod[key]
		cp.Net = cp.Credit - cp.Debit
		cumulative += cp.Net
		cp.Cumulative = cumulative
		result.Periods = append(result.Periods, *cp)
		nets = append(nets, cp.Net)
		credits = append(credits, cp.Credit)

		result.TotalCredit += cp.Credit
		result.TotalDebit += cp.Debit
		switch {
		case cp.Net > 0:
			result.PositivePeriods++
		case cp.Net < 0:
			result.NegativePeriods++
		}
		if best < 0 || cp.Net > result.Periods[best].Net {
			best = i
		}
		if worst < 0 || cp.Net < result.Periods[worst].Net {
			worst = i
		}
	}

	result.NetTotal = result.TotalCredit - result.TotalDebit
	result.AverageNet = mean(nets)
	result.BestPeriod = result.Periods[best].Period
	result.WorstPeriod = result.Periods[worst].Period
	result.CoefficientOfVariation = coefficientOfVariation(nets)

	result.Volatility = roundTo(stdDev(nets), 2)

	direction, intensity, _ := l.classifyTrend(nets)
	result.Direction = direction
	result.Intensity = roundTo(intensity, 1)
	creditDirection, creditIntensity, _ := l.classifyTrend(credits)
	result.CreditDirection = creditDirection
	result.CreditIntensity = roundTo(creditIntensity, 1)

	result.CriticalPeriods = criticalPeriods(result.Periods, result.TotalCredit/float64(len(result.Periods)))
	result.Projection = projectCashFlow(result.Periods, direction, intensity, horizon)
	result.Seasonality = seasonality(result.Periods, nets)
	result.Alerts = cashFlowAlerts(result.Periods, result.Volatility, result.AverageNet, NewFormatter(p.Locale))
	result.Recommendations = cashFlowRecommendations(result)
	return result
}

// seasonality needs at least six periods to say anything about the spread
func seasonality(periods []analytics.CashFlowPeriod, nets []float64) *analytics.Seasonality {
	if len(periods) < 6 {
		return nil
	}
	best, worst := periods[0], periods[0]
	for _, cp := range periods[1:] {
		if cp.Net > best.Net {
			best = cp
		}
		if cp.Net < worst.Net {
			worst = cp
		}
	}
	moving := make([]float64, 0, len(nets)-2)
	for i := 0; i+3 <= len(nets); i++ {
		moving = append(moving, roundTo(mean(nets[i:i+3]), 2))
	}
	return &analytics.Seasonality{
		BestPeriod:    best.Period,
		BestValue:     best.Net,
		WorstPeriod:   worst.Period,
		WorstValue:    worst.Net,
		Amplitude:     best.Net - worst.Net,
		MovingAverage: moving,
		Variation:     roundTo(coefficientOfVariation(nets), 1),
	}
}

// cashFlowAlerts raises a critical alert on two consecutive negative periods and
// an attention alert when the net swings by more than half its average.
func cashFlowAlerts(periods []analytics.CashFlowPeriod, volatility, averageNet float64, f *Formatter) []analytics.Alert {
	alerts := []analytics.Alert{}

	run, longest := 0, 0
	for _, cp := range periods {
		if cp.Net < 0 {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	if longest >= 2 {
		alerts = append(alerts, analytics.Alert{
			Level:       analytics.AlertCritical,
			Title:       "Consecutive periods with negative net cash flow",
			Description: fmt.Sprintf("%d consecutive periods closed with a negative operating balance", longest),
			Impact:      "high: cash flow compromised",
			Action:      "review the cost structure and revenue strategy urgently",
		})
	}

	if volatility > math.Abs(averageNet)*0.5 {
		alerts = append(alerts, analytics.Alert{
			Level:       analytics.AlertAttention,
			Title:       "High cash flow volatility",
			Description: fmt.Sprintf("volatility of %s signals unstable operations", f.CompactCurrency(volatility)),
			Impact:      "medium: harder financial planning",
			Action:      "add controls to reduce fluctuations",
		})
	}
	return alerts
}

func cashFlowRecommendations(r analytics.CashFlowResult) []string {
	out := []string{}
	if r.CreditDirection == analytics.TrendDecline && r.CreditIntensity > 30 {
		out = append(out, fmt.Sprintf("Credits are declining (intensity %.1f%%): act to reverse the drop in receipts", r.CreditIntensity))
	}
	if r.Direction == analytics.TrendDecline && r.Intensity > 30 {
		out = append(out, "Net cash flow is declining: review expenses to stabilize the operating balance")
	}
	if len(r.CriticalPeriods) > 0 {
		out = append(out, fmt.Sprintf("%d critical periods identified, focus first on %s",
			len(r.CriticalPeriods), r.CriticalPeriods[0].Period))
	}
	return out
}

// actionDeadline maps a period risk score to a response window
func actionDeadline(score int) string {
	switch {
	case score >= 70:
		return "immediate (0-7 days)"
	case score >= 40:
		return "priority (7-15 days)"
	default:
		return "monitor (15-30 days)"
	}
}

// criticalPeriods scores periods with a negative net, debits far above credits or
// credits far below the average credit. Highest score first.
func criticalPeriods(periods []analytics.CashFlowPeriod, avgCredit float64) []analytics.CriticalPeriod {
	out := []analytics.CriticalPeriod{}
	for _, cp := range periods {
		var issues []string
		score := 0
		if cp.Net < 0 {
			issues = append(issues, "negative net cash flow")
			score += 50
		}
		if cp.Debit > cp.Credit*1.5 {
			issues = append(issues, "debits above 150% of credits")
			score += 30
		}
		if cp.Credit < avgCredit*0.5 {
			issues = append(issues, "credits below half of the average")
			score += 20
		}
		if len(issues) == 0 {
			continue
		}
		out = append(out, analytics.CriticalPeriod{
			Period:    cp.Period,
			Net:       cp.Net,
			Issues:    issues,
			RiskScore: min(score, 100),
			Deadline:  actionDeadline(score),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out
}

// projectCashFlow averages the last three periods and nudges credits by a tenth
// of the trend intensity in the trend direction.
func projectCashFlow(periods []analytics.CashFlowPeriod, direction analytics.TrendDirection, intensity float64, horizon int) []analytics.PeriodValue {
	out := []analytics.PeriodValue{}
	if len(periods) < 2 {
		return out
	}
	recent := periods[max(0, len(periods)-3):]
	var credit, debit float64
	for _, cp := range recent {
		credit += cp.Credit
		debit += cp.Debit
	}
	credit /= float64(len(recent))
	debit /= float64(len(recent))

	factor := 1.0
	switch direction {
	case analytics.TrendGrowth:
		factor += intensity / 100 * 0.1
	case analytics.TrendDecline:
		factor -= intensity / 100 * 0.1
	}

	projected := credit
	for k := 1; k <= horizon; k++ {
		projected *= factor
		out = append(out, analytics.PeriodValue{
			Period: fmt.Sprintf("+%d", k),
			Value:  roundTo(projected-debit, 2),
		})
	}
	return out
}
