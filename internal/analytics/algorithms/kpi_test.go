package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

func kpiFixture() analytics.KPIPayload {
	return analytics.KPIPayload{
		Billing: []analytics.BillingRecord{
			{Shopping: "Park", Tenant: "Loja A", Period: "2025-05", BilledAmount: 400, PaidAmount: 300, OpenAmount: 100, Status: analytics.TenantActive},
			{Shopping: "Park", Tenant: "Loja B", Period: "2025-05", BilledAmount: 350, PaidAmount: 250, OpenAmount: 100},
			{Shopping: "Park", Tenant: "Loja C", Period: "2025-06", BilledAmount: 250, PaidAmount: 150, OpenAmount: 100, Status: analytics.TenantVacant},
			{Shopping: "Park", Tenant: "Loja D", Period: "2025-06", BilledAmount: 0, PaidAmount: 0, OpenAmount: 0, Status: analytics.TenantInactive},
		},
		Delinquency: []analytics.DelinquencyRecord{
			{Shopping: "Park", Tenant: "Loja A", ReceivableAmount: 600, DefaultAmount: 30},
			{Shopping: "Park", Tenant: "Loja C", ReceivableAmount: 400, DefaultAmount: 20},
		},
		Movements: []analytics.MovementRecord{
			{Shopping: "Park", Period: "2025-05", Type: analytics.MovementCredit, Amount: 1000},
			{Shopping: "Park", Period: "2025-05", Type: analytics.MovementDebit, Amount: 600},
			{Shopping: "Park", Period: "2025-06", Type: "CREDIT", Amount: 1000},
		},
	}
}

func TestCalculateKPIs(t *testing.T) {
	lib := NewDefault()

	t.Run("aggregates totals and derived rates", func(t *testing.T) {
		r := lib.CalculateKPIs(kpiFixture())

		assert.Equal(t, 1000.0, r.TotalBilled)
		assert.Equal(t, 700.0, r.TotalPaid)
		assert.Equal(t, 300.0, r.TotalOpen)
		assert.Equal(t, 1000.0, r.TotalReceivable)
		assert.Equal(t, 50.0, r.TotalDefault)
		assert.InDelta(t, 5.0, r.DefaultRate, 1e-9)
		assert.InDelta(t, 70.0, r.CollectionRate, 1e-9)
		assert.Equal(t, 4, r.TotalTenants)
		assert.Equal(t, 2, r.ActiveTenants)
		assert.InDelta(t, 50.0, r.Occupancy, 1e-9)
		assert.Equal(t, 2000.0, r.TotalCredit)
		assert.Equal(t, 600.0, r.TotalDebit)
		assert.Equal(t, 1400.0, r.NOI)
		assert.InDelta(t, 70.0, r.NOIMargin, 1e-9)
		assert.Greater(t, r.Volatility, 0.0)
		assert.InDelta(t, r.NOIMargin/r.Volatility, r.RiskAdjustedReturn, 1e-9)
	})

	t.Run("default rate does not depend on record order", func(t *testing.T) {
		p := kpiFixture()
		forward := lib.CalculateKPIs(p)

		reversed := kpiFixture()
		for i, j := 0, len(reversed.Billing)-1; i < j; i, j = i+1, j-1 {
			reversed.Billing[i], reversed.Billing[j] = reversed.Billing[j], reversed.Billing[i]
		}
		reversed.Delinquency[0], reversed.Delinquency[1] = reversed.Delinquency[1], reversed.Delinquency[0]
		backward := lib.CalculateKPIs(reversed)

		assert.InDelta(t, 5.0, backward.DefaultRate, 1e-9)
		assert.Equal(t, forward.DefaultRate, backward.DefaultRate)
		assert.Equal(t, forward.ActiveTenants, backward.ActiveTenants)
		assert.InDelta(t, forward.Volatility, backward.Volatility, 1e-9)
	})

	t.Run("zero denominators give zero rates", func(t *testing.T) {
		r := lib.CalculateKPIs(analytics.KPIPayload{})

		assert.Equal(t, analytics.KPIResult{}, r)
	})

	t.Run("risk adjusted return falls back to margin without volatility", func(t *testing.T) {
		r := lib.CalculateKPIs(analytics.KPIPayload{
			Billing: []analytics.BillingRecord{
				{Tenant: "A", BilledAmount: 100},
				{Tenant: "B", BilledAmount: 100},
			},
			Movements: []analytics.MovementRecord{
				{Type: analytics.MovementCredit, Amount: 200},
				{Type: analytics.MovementDebit, Amount: 50},
			},
		})

		assert.Equal(t, 0.0, r.Volatility)
		assert.InDelta(t, 75.0, r.NOIMargin, 1e-9)
		assert.Equal(t, r.NOIMargin, r.RiskAdjustedReturn)
	})
}

func TestProcessFinancialData(t *testing.T) {
	lib := NewDefault()
	fixture := kpiFixture()

	r := lib.ProcessFinancialData(analytics.FinancialDataPayload{
		Billing:     fixture.Billing,
		Delinquency: fixture.Delinquency,
		Movements:   append(fixture.Movements, analytics.MovementRecord{Shopping: "Centro", Type: analytics.MovementDebit, Amount: 100}),
		Payments:    []analytics.PaymentRecord{{Shopping: "Centro", Vendor: "Limpeza SA", Amount: 80}},
	})

	assert.Len(t, r.Shoppings, 2)
	assert.Equal(t, "Centro", r.Shoppings[0].Shopping)
	assert.Equal(t, -100.0, r.Shoppings[0].Net)
	assert.Equal(t, 80.0, r.Shoppings[0].VendorPayments)
	assert.Equal(t, "Park", r.Shoppings[1].Shopping)
	assert.Equal(t, 1400.0, r.Shoppings[1].Net)
	assert.Equal(t, 1000.0, r.Totals.Billed)
	assert.Equal(t, 1300.0, r.Totals.Net)
	assert.Equal(t, 4, r.RecordCounts["billing"])
	assert.Equal(t, 1, r.RecordCounts["payments"])
}
