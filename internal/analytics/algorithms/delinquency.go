package algorithms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// Debt amount bands used by the debtor classifiers
const (
	debtVeryHigh = 50000.0
	debtHigh     = 20000.0
	debtMedium   = 5000.0
	debtLow      = 1000.0
)

// Collection priorities
const (
	PriorityCritical = "CRITICAL"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
	PriorityLow      = "LOW"
)

var recoveryRates = map[analytics.DebtStatus]float64{
	analytics.DebtConfession:  0.70,
	analytics.DebtOverdue:     0.60,
	analytics.DebtNegotiation: 0.80,
	analytics.DebtAgreement:   0.90,
	analytics.DebtLegal:       0.40,
}

// DebtorRisk classifies a debtor by amount and days overdue, whichever is worse
func DebtorRisk(amount float64, daysOverdue int) analytics.RiskLevel {
	switch {
	case amount >= debtVeryHigh || daysOverdue >= 90:
		return analytics.RiskVeryHigh
	case amount >= debtHigh || daysOverdue >= 60:
		return analytics.RiskHigh
	case amount >= debtMedium || daysOverdue >= 30:
		return analytics.RiskMedium
	case amount >= debtLow || daysOverdue >= 15:
		return analytics.RiskLow
	default:
		return analytics.RiskVeryLow
	}
}

// AnalyzeDelinquency ranks debtors by defaulted amount and measures how concentrated
// and how recoverable the portfolio debt is.
func (l *Library) AnalyzeDelinquency(p analytics.DelinquencyPayload) analytics.DelinquencyResult {
	result := analytics.DelinquencyResult{
		Ranking:            []analytics.DebtorRanking{},
		RiskDistribution:   map[analytics.RiskLevel]int{},
		StatusDistribution: map[analytics.DebtStatus]int{},
		Recommendations:    []string{},
	}

	debtors := make([]analytics.DelinquencyRecord, 0, len(p.Records))
	for _, r := range p.Records {
		if r.DefaultAmount > 0 {
			debtors = append(debtors, r)
		}
	}
	if len(debtors) == 0 {
		return result
	}
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].DefaultAmount > debtors[j].DefaultAmount
	})

	for _, d := range debtors {
		result.TotalDebt += d.DefaultAmount
	}
	n := len(debtors)
	result.AverageDebt = result.TotalDebt / float64(n)
	result.LargestDebt = debtors[0].DefaultAmount
	result.SmallestDebt = debtors[n-1].DefaultAmount

	highRisk := 0
	var optimistic float64
	for i, d := range debtors {
		status := analytics.DebtStatus(strings.ToLower(string(d.Status)))
		if status == "" {
			status = analytics.DebtOverdue
		}
		risk := DebtorRisk(d.DefaultAmount, d.DaysOverdue)
		result.RiskDistribution[risk]++
		result.StatusDistribution[status]++
		if risk == analytics.RiskHigh || risk == analytics.RiskVeryHigh {
			highRisk++
		}

		rate, ok := recoveryRates[status]
		if !ok {
			rate = 0.5
		}
		optimistic += d.DefaultAmount * rate

		result.Ranking = append(result.Ranking, analytics.DebtorRanking{
			Position:    i + 1,
			Tenant:      d.Tenant,
			Shopping:    d.Shopping,
			Amount:      d.DefaultAmount,
			Share:       ratio(d.DefaultAmount, result.TotalDebt),
			DaysOverdue: d.DaysOverdue,
			Status:      status,
			Risk:        risk,
			Priority:    collectionPriority(d.DefaultAmount, i+1, n, status, risk),
			Action:      debtorAction(d.DefaultAmount, status),
		})
	}

	top20 := max(1, int(float64(n)*0.2))
	result.ParetoShare = ratio(sumDebt(debtors[:top20]), result.TotalDebt)
	result.Top3Share = ratio(sumDebt(debtors[:min(3, n)]), result.TotalDebt)
	result.GiniIndex = gini(debtors, result.TotalDebt)
	result.HighRiskShare = ratio(float64(highRisk), float64(n))
	if p.TotalRevenue > 0 {
		result.RevenueImpact = ratio(result.TotalDebt, p.TotalRevenue)
	}

	conservative := optimistic * 0.7
	result.Recovery = analytics.RecoveryEstimate{
		Optimistic:       roundTo(optimistic, 2),
		Conservative:     roundTo(conservative, 2),
		OptimisticRate:   ratio(optimistic, result.TotalDebt),
		ConservativeRate: ratio(conservative, result.TotalDebt),
		Unrecoverable:    roundTo(result.TotalDebt-conservative, 2),
	}
	result.Recommendations = delinquencyRecommendations(result, NewFormatter(p.Locale))
	return result
}

// debtorAction suggests how to pursue a single debtor
func debtorAction(amount float64, status analytics.DebtStatus) string {
	switch {
	case amount >= debtVeryHigh && status == analytics.DebtConfession:
		return "start judicial enforcement immediately"
	case amount >= debtVeryHigh:
		return "negotiate with a discount of at most 20%"
	case amount >= debtHigh:
		return "offer an installment agreement with a 30% down payment"
	default:
		return "negotiate directly with flexible terms"
	}
}

func delinquencyRecommendations(r analytics.DelinquencyResult, f *Formatter) []string {
	out := []string{}
	if r.HighRiskShare > 50 {
		out = append(out, fmt.Sprintf("High risk concentration: %s of debtors are high or very high risk, start an urgent recovery plan",
			f.Percent(r.HighRiskShare, 1)))
	}
	for _, d := range r.Ranking[:min(3, len(r.Ranking))] {
		out = append(out, fmt.Sprintf("Top %d %s: %s (%s), %s",
			d.Position, d.Tenant, f.CompactCurrency(d.Amount), d.Status, d.Action))
	}
	if len(r.Ranking) > 10 {
		out = append(out, "Automate the collection flow with approaches per amount band and risk level")
	}
	return out
}

// collectionPriority weighs amount (40), ranking position (30), status (20) and risk (10)
func collectionPriority(amount float64, position, total int, status analytics.DebtStatus, risk analytics.RiskLevel) string {
	score := 10
	switch {
	case amount >= debtVeryHigh:
		score = 40
	case amount >= debtHigh:
		score = 25
	}

	switch {
	case float64(position) <= float64(total)*0.2:
		score += 30
	case float64(position) <= float64(total)*0.5:
		score += 20
	default:
		score += 10
	}

	switch status {
	case analytics.DebtConfession:
		score += 20
	case analytics.DebtOverdue, analytics.DebtLegal:
		score += 15
	case analytics.DebtAgreement:
		score += 5
	default:
		score += 10
	}

	switch risk {
	case analytics.RiskVeryHigh:
		score += 10
	case analytics.RiskHigh:
		score += 8
	case analytics.RiskMedium:
		score += 5
	case analytics.RiskLow:
		score += 3
	default:
		score++
	}

	switch {
	case score >= 80:
		return PriorityCritical
	case score >= 60:
		return PriorityHigh
	case score >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func sumDebt(records []analytics.DelinquencyRecord) float64 {
	total := 0.0
	for _, r := range records {
		total += r.DefaultAmount
	}
	return total
}

// gini computes the Gini coefficient over debts sorted in descending order
func gini(sortedDesc []analytics.DelinquencyRecord, total float64) float64 {
	n := len(sortedDesc)
	if n == 0 || total == 0 {
		return 0
	}
	acc := 0.0
	// ascending rank weighting
	for i := 0; i < n; i++ {
		acc += float64(i+1) * sortedDesc[n-1-i].DefaultAmount
	}
	return roundTo(2*acc/(float64(n)*total)-float64(n+1)/float64(n), 3)
}
