package algorithms

import (
	"sort"
	"strings"

	"github.com/victoralfred/retail_analytics/internal/domain/analytics"
)

// ProcessVendorAnalytics ranks vendors by amount paid and measures vendor concentration
func (l *Library) ProcessVendorAnalytics(p analytics.VendorPayload) analytics.VendorResult {
	topN := p.TopN
	if topN <= 0 {
		topN = l.params.TopN
	}
	result := analytics.VendorResult{
		Vendors:    []analytics.VendorSummary{},
		ByCategory: []analytics.CategoryTotal{},
	}

	vendors := make(map[string]*analytics.VendorSummary)
	categories := make(map[string]float64)
	late := 0
	for _, pay := range p.Payments {
		name := label(strings.TrimSpace(pay.Vendor))
		v, ok := vendors[name]
		if !ok {
			v = &analytics.VendorSummary{Vendor: name}
			vendors[name] = v
		}
		v.Total += pay.Amount
		v.Payments++
		if pay.DaysLate > 0 {
			v.LatePayments++
			late++
		}
		categories[label(strings.TrimSpace(pay.Category))] += pay.Amount
		result.TotalPaid += pay.Amount
	}
	if len(vendors) == 0 {
		return result
	}

	totals := make(map[string]float64, len(vendors))
	for _, name := range sortedKeys(vendors) {
		v := vendors[name]
		v.Average = v.Total / float64(v.Payments)
		v.Share = ratio(v.Total, result.TotalPaid)
		totals[name] = v.Total
		result.Vendors = append(result.Vendors, *v)
	}
	sort.SliceStable(result.Vendors, func(i, j int) bool {
		return result.Vendors[i].Total > result.Vendors[j].Total
	})
	if len(result.Vendors) > topN {
		result.Vendors = result.Vendors[:topN]
	}

	for _, c := range sortedKeys(categories) {
		result.ByCategory = append(result.ByCategory, analytics.CategoryTotal{
			Category: c,
			Total:    categories[c],
			Share:    ratio(categories[c], result.TotalPaid),
		})
	}
	sort.SliceStable(result.ByCategory, func(i, j int) bool {
		return result.ByCategory[i].Total > result.ByCategory[j].Total
	})

	result.ConcentrationIndex = herfindahl(totals)
	result.LatePaymentRate = ratio(float64(late), float64(len(p.Payments)))
	return result
}
