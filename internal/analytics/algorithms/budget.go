package algorithms

import (
	"math"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// ProcessBudget compares planned and actual amounts per category. A variance within
// the budget tolerance counts as on budget.
func (l *Library) ProcessBudget(p analytics.BudgetPayload) analytics.BudgetResult {
	result := analytics.BudgetResult{
		Status:     analytics.BudgetOn,
		Categories: []analytics.BudgetCategory{},
	}

	type acc struct{ planned, actual float64 }
	categories := make(map[string]*acc)
	for _, line := range p.Lines {
		name := label(strings.TrimSpace(line.Category))
		a, ok := categories[name]
		if !ok {
			a = &acc{}
			categories[name] = a
		}
		a.planned += line.Planned
		a.actual += line.Actual
	}

	for _, name := range sortedKeys(categories) {
		a := categories[name]
		c := analytics.BudgetCategory{
			Category:      name,
			Planned:       a.planned,
			Actual:        a.actual,
			Variance:      a.actual - a.planned,
			ExecutionRate: ratio(a.actual, a.planned),
		}
		c.VariancePercent = ratio(c.Variance, math.Abs(a.planned))
		c.Status = l.budgetStatus(c.Planned, c.Actual, c.VariancePercent)
		result.Categories = append(result.Categories, c)

		result.TotalPlanned += a.planned
		result.TotalActual += a.actual
	}

	result.Variance = result.TotalActual - result.TotalPlanned
	result.VariancePercent = ratio(result.Variance, math.Abs(result.TotalPlanned))
	result.ExecutionRate = ratio(result.TotalActual, result.TotalPlanned)
	result.Status = l.budgetStatus(result.TotalPlanned, result.TotalActual, result.VariancePercent)
	return result
}

func (l *Library) budgetStatus(planned, actual, variancePercent float64) analytics.BudgetStatus {
	if planned == 0 {
		if actual > 0 {
			return analytics.BudgetOver
		}
		return analytics.BudgetOn
	}
	switch {
	case variancePercent > l.params.BudgetTolerance:
		return analytics.BudgetOver
	case variancePercent < -l.params.BudgetTolerance:
		return analytics.BudgetUnder
	default:
		return analytics.BudgetOn
	}
}
