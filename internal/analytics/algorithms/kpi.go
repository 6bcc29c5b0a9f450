package algorithms

import (
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// CalculateKPIs aggregates billing, delinquency and movement records into portfolio KPIs.
// The result does not depend on record order.
func (l *Library) CalculateKPIs(p analytics.KPIPayload) analytics.KPIResult {
	var r analytics.KPIResult

	billed := make([]float64, 0, len(p.Billing))
	tenants := make(map[string]bool)
	for _, b := range p.Billing {
		r.TotalBilled += b.BilledAmount
		r.TotalPaid += b.PaidAmount
		r.TotalOpen += b.OpenAmount
		billed = append(billed, b.BilledAmount)

		key := tenantKey(b.Shopping, b.Tenant)
		if key == "" {
			continue
		}
		// a tenant counts as active if any of its records is active
		tenants[key] = tenants[key] || b.IsActive()
	}

	for _, d := range p.Delinquency {
		r.TotalReceivable += d.ReceivableAmount
		r.TotalDefault += d.DefaultAmount
	}

	for _, m := range p.Movements {
		switch analytics.MovementType(strings.ToLower(string(m.Type))) {
		case analytics.MovementCredit:
			r.TotalCredit += m.Amount
		case analytics.MovementDebit:
			r.TotalDebit += m.Amount
		}
	}

	r.TotalTenants = len(tenants)
	for _, active := range tenants {
		if active {
			r.ActiveTenants++
		}
	}

	r.CollectionRate = ratio(r.TotalPaid, r.TotalBilled)
	r.DefaultRate = ratio(r.TotalDefault, r.TotalReceivable)
	r.Occupancy = ratio(float64(r.ActiveTenants), float64(r.TotalTenants))
	r.NOI = r.TotalCredit - r.TotalDebit
	r.NOIMargin = ratio(r.NOI, r.TotalCredit)
	r.Volatility = volatility(billed)
	if r.Volatility == 0 {
		r.RiskAdjustedReturn = r.NOIMargin
	} else {
		r.RiskAdjustedReturn = finite(r.NOIMargin / r.Volatility)
	}
	return r
}

func tenantKey(shopping, tenant string) string {
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return ""
	}
	return strings.TrimSpace(shopping) + "|" + tenant
}

// volatility is stddev/mean of the amounts as a percentage
func volatility(amounts []float64) float64 {
	m := mean(amounts)
	if m == 0 {
		return 0
	}
	return finite(stdDev(amounts) / m * 100)
}
