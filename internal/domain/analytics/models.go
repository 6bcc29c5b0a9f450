package analytics

import "strings"

// TenantStatus represents the occupancy state of a tenant
type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantInactive TenantStatus = "inactive"
	TenantVacant   TenantStatus = "vacant"
)

// MovementType represents the direction of a cash movement
type MovementType string

const (
	MovementCredit MovementType = "credit"
	MovementDebit  MovementType = "debit"
)

// DebtStatus represents the collection state of a delinquent tenant
type DebtStatus string

const (
	DebtConfession  DebtStatus = "debt_confession"
	DebtOverdue     DebtStatus = "overdue"
	DebtNegotiation DebtStatus = "negotiation"
	DebtAgreement   DebtStatus = "agreement"
	DebtSettled     DebtStatus = "settled"
	DebtLegal       DebtStatus = "legal"
)

// RiskLevel classifies risk for groups and debtors
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "VERY_LOW"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// BillingRecord is one charge billed to a tenant for a period
type BillingRecord struct {
	Shopping     string       `json:"shopping"`
	Tenant       string       `json:"tenant"`
	Category     string       `json:"category,omitempty"`
	Period       string       `json:"period"` // YYYY-MM
	BilledAmount float64      `json:"billed_amount"`
	PaidAmount   float64      `json:"paid_amount"`
	OpenAmount   float64      `json:"open_amount"`
	Status       TenantStatus `json:"status,omitempty"`
}

// IsActive reports whether the tenant occupies its space. An empty status counts as active.
func (r BillingRecord) IsActive() bool {
	switch TenantStatus(strings.ToLower(string(r.Status))) {
	case TenantInactive, TenantVacant:
		return false
	default:
		return true
	}
}

// DelinquencyRecord is the receivable and defaulted balance of a tenant
type DelinquencyRecord struct {
	Shopping         string     `json:"shopping"`
	Tenant           string     `json:"tenant"`
	Category         string     `json:"category,omitempty"`
	ReceivableAmount float64    `json:"receivable_amount"`
	DefaultAmount    float64    `json:"default_amount"`
	DaysOverdue      int        `json:"days_overdue"`
	Status           DebtStatus `json:"status,omitempty"`
}

// MovementRecord is a credit or debit cash movement
type MovementRecord struct {
	Shopping string       `json:"shopping"`
	Period   string       `json:"period"`
	Type     MovementType `json:"type"`
	Amount   float64      `json:"amount"`
	Category string       `json:"category,omitempty"`
}

// PaymentRecord is a payment made to a vendor
type PaymentRecord struct {
	Shopping string  `json:"shopping"`
	Vendor   string  `json:"vendor"`
	Category string  `json:"category,omitempty"`
	Period   string  `json:"period"`
	Amount   float64 `json:"amount"`
	DaysLate int     `json:"days_late,omitempty"`
}

// BudgetRecord is a planned versus actual budget line
type BudgetRecord struct {
	Shopping string  `json:"shopping,omitempty"`
	Category string  `json:"category"`
	Period   string  `json:"period,omitempty"`
	Planned  float64 `json:"planned"`
	Actual   float64 `json:"actual"`
}

// PeriodValue is a single point of a period-indexed series
type PeriodValue struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Record is a loosely typed chart row used by drilldown, heatmap and optimizer payloads
type Record map[string]any
