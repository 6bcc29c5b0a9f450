package algorithms

import (
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// ProcessBillingAnalytics breaks billing down by period, shopping and category and
// lists the tenants with the largest open balances.
func (l *Library) ProcessBillingAnalytics(p analytics.BillingAnalyticsPayload) analytics.BillingAnalyticsResult {
	topN := p.TopN
	if topN <= 0 {
		topN = l.params.TopN
	}

	byPeriod := make(map[string]*analytics.BillingBreakdown)
	byShopping := make(map[string]*analytics.BillingBreakdown)
	byCategory := make(map[string]*analytics.BillingBreakdown)
	balances := make(map[string]*analytics.TenantBalance)

	var result analytics.BillingAnalyticsResult
	for _, b := range p.Billing {
		result.TotalBilled += b.BilledAmount
		result.TotalPaid += b.PaidAmount
		result.TotalOpen += b.OpenAmount

		addBreakdown(byPeriod, periodKey(b.Period), b)
		addBreakdown(byShopping, label(strings.TrimSpace(b.Shopping)), b)
		addBreakdown(byCategory, label(strings.TrimSpace(b.Category)), b)

		if key := tenantKey(b.Shopping, b.Tenant); key != "" {
			tb, ok := balances[key]
			if !ok {
				tb = &analytics.TenantBalance{Tenant: b.Tenant, Shopping: b.Shopping}
				balances[key] = tb
			}
			tb.Billed += b.BilledAmount
			tb.Open += b.OpenAmount
		}
	}
	result.CollectionRate = ratio(result.TotalPaid, result.TotalBilled)

	result.ByPeriod = flattenBreakdown(byPeriod)
	result.ByShopping = flattenBreakdown(byShopping)
	sort.SliceStable(result.ByShopping, func(i, j int) bool {
		return result.ByShopping[i].Billed > result.ByShopping[j].Billed
	})
	result.ByCategory = flattenBreakdown(byCategory)
	sort.SliceStable(result.ByCategory, func(i, j int) bool {
		return result.ByCategory[i].Billed > result.ByCategory[j].Billed
	})

	result.TopOpenBalances = make([]analytics.TenantBalance, 0, len(balances))
	for _, key := range sortedKeys(balances) {
		if tb := balances[key]; tb.Open > 0 {
			result.TopOpenBalances = append(result.TopOpenBalances, *tb)
		}
	}
	sort.SliceStable(result.TopOpenBalances, func(i, j int) bool {
		return result.TopOpenBalances[i].Open > result.TopOpenBalances[j].Open
	})
	if len(result.TopOpenBalances) > topN {
		result.TopOpenBalances = result.TopOpenBalances[:topN]
	}
	return result
}

func addBreakdown(m map[string]*analytics.BillingBreakdown, key string, b analytics.BillingRecord) {
	bd, ok := m[key]
	if !ok {
		bd = &analytics.BillingBreakdown{Key: key}
		m[key] = bd
	}
	bd.Billed += b.BilledAmount
	bd.Paid += b.PaidAmount
	bd.Open += b.OpenAmount
	bd.Records++
}

// flattenBreakdown returns the breakdowns ordered by key with collection rates filled in
func flattenBreakdown(m map[string]*analytics.BillingBreakdown) []analytics.BillingBreakdown {
	out := make([]analytics.BillingBreakdown, 0, len(m))
	for _, k := range sortedKeys(m) {
		bd := *m[k]
		bd.CollectionRate = ratio(bd.Paid, bd.Billed)
		out = append(out, bd)
	}
	return out
}
