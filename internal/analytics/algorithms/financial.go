package algorithms

import (
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// ProcessFinancialData consolidates every record family into totals and a per-shopping summary
func (l *Library) ProcessFinancialData(p analytics.FinancialDataPayload) analytics.FinancialDataResult {
	shoppings := make(map[string]*analytics.FinancialTotals)
	at := func(name string) *analytics.FinancialTotals {
		key := label(strings.TrimSpace(name))
		t, ok := shoppings[key]
		if !ok {
			t = &analytics.FinancialTotals{}
			shoppings[key] = t
		}
		return t
	}

	for _, b := range p.Billing {
		t := at(b.Shopping)
		t.Billed += b.BilledAmount
		t.Paid += b.PaidAmount
		t.Open += b.OpenAmount
	}
	for _, d := range p.Delinquency {
		t := at(d.Shopping)
		t.Receivable += d.ReceivableAmount
		t.Default += d.DefaultAmount
	}
	for _, m := range p.Movements {
		t := at(m.Shopping)
		switch analytics.MovementType(strings.ToLower(string(m.Type))) {
		case analytics.MovementCredit:
			t.Credit += m.Amount
		case analytics.MovementDebit:
			t.Debit += m.Amount
		}
	}
	for _, pay := range p.Payments {
		at(pay.Shopping).VendorPayments += pay.Amount
	}

	result := analytics.FinancialDataResult{
		Shoppings: make([]analytics.ShoppingSummary, 0, len(shoppings)),
		RecordCounts: map[string]int{
			"billing":     len(p.Billing),
			"delinquency": len(p.Delinquency),
			"movements":   len(p.Movements),
			"payments":    len(p.Payments),
		},
	}
	for _, name := range sortedKeys(shoppings) {
		t := shoppings[name]
		t.Net = t.Credit - t.Debit
		result.Shoppings = append(result.Shoppings, analytics.ShoppingSummary{Shopping: name, FinancialTotals: *t})

		result.Totals.Billed += t.Billed
		result.Totals.Paid += t.Paid
		result.Totals.Open += t.Open
		result.Totals.Receivable += t.Receivable
		result.Totals.Default += t.Default
		result.Totals.Credit += t.Credit
		result.Totals.Debit += t.Debit
		result.Totals.VendorPayments += t.VendorPayments
	}
	result.Totals.Net = result.Totals.Credit - result.Totals.Debit
	return result
}
