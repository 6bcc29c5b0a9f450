package analytics

// KPIPayload is the input of OpCalculateKPIs
type KPIPayload struct {
	Billing     []BillingRecord     `json:"billing"`
	Delinquency []DelinquencyRecord `json:"delinquency"`
	Movements   []MovementRecord    `json:"movements"`
}

// KPIResult holds portfolio level KPIs. Rates and margins are percentages.
type KPIResult struct {
	TotalBilled        float64 `json:"total_billed"`
	TotalPaid          float64 `json:"total_paid"`
	TotalOpen          float64 `json:"total_open"`
	CollectionRate     float64 `json:"collection_rate"`
	TotalReceivable    float64 `json:"total_receivable"`
	TotalDefault       float64 `json:"total_default"`
	DefaultRate        float64 `json:"default_rate"`
	ActiveTenants      int     `json:"active_tenants"`
	TotalTenants       int     `json:"total_tenants"`
	Occupancy          float64 `json:"occupancy"`
	TotalCredit        float64 `json:"total_credit"`
	TotalDebit         float64 `json:"total_debit"`
	NOI                float64 `json:"noi"`
	NOIMargin          float64 `json:"noi_margin"`
	Volatility         float64 `json:"volatility"`
	RiskAdjustedReturn float64 `json:"risk_adjusted_return"`
}

// FinancialDataPayload is the input of OpProcessFinancialData
type FinancialDataPayload struct {
	Billing     []BillingRecord     `json:"billing"`
	Delinquency []DelinquencyRecord `json:"delinquency"`
	Movements   []MovementRecord    `json:"movements"`
	Payments    []PaymentRecord     `json:"payments"`
}

// FinancialTotals consolidates every record family
type FinancialTotals struct {
	Billed         float64 `json:"billed"`
	Paid           float64 `json:"paid"`
	Open           float64 `json:"open"`
	Receivable     float64 `json:"receivable"`
	Default        float64 `json:"default"`
	Credit         float64 `json:"credit"`
	Debit          float64 `json:"debit"`
	Net            float64 `json:"net"`
	VendorPayments float64 `json:"vendor_payments"`
}

// ShoppingSummary is FinancialTotals scoped to one property
type ShoppingSummary struct {
	Shopping string `json:"shopping"`
	FinancialTotals
}

// FinancialDataResult is the output of OpProcessFinancialData
type FinancialDataResult struct {
	Totals       FinancialTotals   `json:"totals"`
	Shoppings    []ShoppingSummary `json:"shoppings"`
	RecordCounts map[string]int    `json:"record_counts"`
}

// RiskPayload is the input of OpCalculateRiskMetrics
type RiskPayload struct {
	Billing     []BillingRecord     `json:"billing"`
	Delinquency []DelinquencyRecord `json:"delinquency"`
	// Confidence in (0,1). Zero selects the configured default.
	Confidence float64 `json:"confidence,omitempty"`
	// GroupBy is shopping, tenant or category. Empty means shopping.
	GroupBy string `json:"group_by,omitempty"`
}

// GroupRisk is the default-rate bucket of one group
type GroupRisk struct {
	Group       string    `json:"group"`
	Receivable  float64   `json:"receivable"`
	Default     float64   `json:"default"`
	DefaultRate float64   `json:"default_rate"`
	Level       RiskLevel `json:"level"`
}

// RiskResult is the output of OpCalculateRiskMetrics
type RiskResult struct {
	Volatility        float64     `json:"volatility"`
	MeanReturn        float64     `json:"mean_return"`
	SharpeRatio       float64     `json:"sharpe_ratio"`
	Confidence        float64     `json:"confidence"`
	ValueAtRisk       float64     `json:"value_at_risk"`
	ConcentrationRisk float64     `json:"concentration_risk"`
	Groups            []GroupRisk `json:"groups"`
}

// PredictionPayload is the input of OpGeneratePredictions. Series wins over Billing when set.
type PredictionPayload struct {
	Series       []PeriodValue   `json:"series,omitempty"`
	Billing      []BillingRecord `json:"billing,omitempty"`
	Metric       string          `json:"metric,omitempty"` // billed, paid or open
	PeriodsAhead int             `json:"periods_ahead,omitempty"`
}

// ForecastPoint is one extrapolated period
type ForecastPoint struct {
	PeriodsAhead int     `json:"periods_ahead"`
	Value        float64 `json:"value"`
	Confidence   float64 `json:"confidence"`
}

// PredictionResult is the output of OpGeneratePredictions
type PredictionResult struct {
	History      []PeriodValue   `json:"history"`
	CurrentValue float64         `json:"current_value"`
	Trend        float64         `json:"trend"`
	Forecast     []ForecastPoint `json:"forecast"`
}

// MonteCarloPayload is the input of OpSimulateMonteCarlo
type MonteCarloPayload struct {
	NOI            float64 `json:"noi"`
	Occupancy      float64 `json:"occupancy"`
	PortfolioValue float64 `json:"portfolio_value"`
	Iterations     int     `json:"iterations,omitempty"`
}

// Distribution summarizes a simulated population
type Distribution struct {
	Mean float64 `json:"mean"`
	P5   float64 `json:"p5"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// MonteCarloResult is the output of OpSimulateMonteCarlo
type MonteCarloResult struct {
	Iterations     int          `json:"iterations"`
	NOI            Distribution `json:"noi"`
	Occupancy      Distribution `json:"occupancy"`
	PortfolioValue Distribution `json:"portfolio_value"`
}

// DrilldownPayload is the input of OpProcessDrilldown
type DrilldownPayload struct {
	Records   []Record `json:"records"`
	Hierarchy []string `json:"hierarchy"`
	ValueKey  string   `json:"value_key"`
}

// DrilldownNode is one group at one hierarchy level
type DrilldownNode struct {
	ID       string  `json:"id"`
	ParentID string  `json:"parent_id,omitempty"`
	Level    string  `json:"level"`
	Key      string  `json:"key"`
	Value    float64 `json:"value"`
	Count    int     `json:"count"`
}

// DrilldownLevel holds the nodes of one hierarchy key, sorted by value descending
type DrilldownLevel struct {
	Key   string          `json:"key"`
	Depth int             `json:"depth"`
	Nodes []DrilldownNode `json:"nodes"`
}

// DrilldownResult is the output of OpProcessDrilldown
type DrilldownResult struct {
	Levels []DrilldownLevel `json:"levels"`
	Total  float64          `json:"total"`
}

// AggregationMode selects how heatmap cells combine values
type AggregationMode string

const (
	AggregateSum     AggregationMode = "sum"
	AggregateAverage AggregationMode = "average"
	AggregateCount   AggregationMode = "count"
)

// HeatmapPayload is the input of OpGenerateHeatmap
type HeatmapPayload struct {
	Records     []Record        `json:"records"`
	XKey        string          `json:"x_key"`
	YKey        string          `json:"y_key"`
	ValueKey    string          `json:"value_key"`
	Aggregation AggregationMode `json:"aggregation,omitempty"`
}

// HeatmapCell is one aggregated (x, y) bucket
type HeatmapCell struct {
	X          string  `json:"x"`
	Y          string  `json:"y"`
	Value      float64 `json:"value"`
	Count      int     `json:"count"`
	Normalized float64 `json:"normalized"`
	Percentile float64 `json:"percentile"`
}

// HeatmapResult is the output of OpGenerateHeatmap
type HeatmapResult struct {
	XLabels     []string        `json:"x_labels"`
	YLabels     []string        `json:"y_labels"`
	Cells       []HeatmapCell   `json:"cells"`
	Min         float64         `json:"min"`
	Max         float64         `json:"max"`
	Aggregation AggregationMode `json:"aggregation"`
}

// NetworkNode is a vertex of the relationship graph
type NetworkNode struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Group string `json:"group,omitempty"`
}

// NetworkEdge is a weighted undirected relationship
type NetworkEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight,omitempty"`
}

// NetworkPayload is the input of OpCalculateNetworkMetrics
type NetworkPayload struct {
	Nodes []NetworkNode `json:"nodes"`
	Edges []NetworkEdge `json:"edges"`
}

// NodeMetrics holds the centrality measures of one node
type NodeMetrics struct {
	ID             string  `json:"id"`
	Degree         int     `json:"degree"`
	Betweenness    int     `json:"betweenness"`
	WeightedDegree float64 `json:"weighted_degree"`
	Importance     float64 `json:"importance"`
	Component      int     `json:"component"`
}

// NetworkResult is the output of OpCalculateNetworkMetrics
type NetworkResult struct {
	Nodes      []NodeMetrics `json:"nodes"`
	NodeCount  int           `json:"node_count"`
	EdgeCount  int           `json:"edge_count"`
	Density    float64       `json:"density"`
	Components [][]string    `json:"components"`
}

// OptimizePayload is the input of OpOptimizeChartData
type OptimizePayload struct {
	Points         []Record `json:"points"`
	MaxPoints      int      `json:"max_points,omitempty"`
	ValueKey       string   `json:"value_key,omitempty"`
	RemoveOutliers bool     `json:"remove_outliers,omitempty"`
	// Precision is the number of decimals kept. Nil selects the configured default.
	Precision *int `json:"precision,omitempty"`
}

// OptimizeResult is the output of OpOptimizeChartData
type OptimizeResult struct {
	Points          []Record `json:"points"`
	OriginalCount   int      `json:"original_count"`
	ReturnedCount   int      `json:"returned_count"`
	OutliersRemoved int      `json:"outliers_removed"`
	Stride          int      `json:"stride"`
	Downsampled     bool     `json:"downsampled"`
}

// BillingAnalyticsPayload is the input of OpProcessBillingAnalytics
type BillingAnalyticsPayload struct {
	Billing []BillingRecord `json:"billing"`
	TopN    int             `json:"top_n,omitempty"`
}

// BillingBreakdown aggregates billing for one key
type BillingBreakdown struct {
	Key            string  `json:"key"`
	Billed         float64 `json:"billed"`
	Paid           float64 `json:"paid"`
	Open           float64 `json:"open"`
	CollectionRate float64 `json:"collection_rate"`
	Records        int     `json:"records"`
}

// TenantBalance is the open balance of one tenant
type TenantBalance struct {
	Tenant   string  `json:"tenant"`
	Shopping string  `json:"shopping"`
	Billed   float64 `json:"billed"`
	Open     float64 `json:"open"`
}

// BillingAnalyticsResult is the output of OpProcessBillingAnalytics
type BillingAnalyticsResult struct {
	TotalBilled     float64            `json:"total_billed"`
	TotalPaid       float64            `json:"total_paid"`
	TotalOpen       float64            `json:"total_open"`
	CollectionRate  float64            `json:"collection_rate"`
	ByPeriod        []BillingBreakdown `json:"by_period"`
	ByShopping      []BillingBreakdown `json:"by_shopping"`
	ByCategory      []BillingBreakdown `json:"by_category"`
	TopOpenBalances []TenantBalance    `json:"top_open_balances"`
}

// TrendDirection classifies the shape of a series
type TrendDirection string

const (
	TrendGrowth   TrendDirection = "GROWTH"
	TrendDecline  TrendDirection = "DECLINE"
	TrendStable   TrendDirection = "STABLE"
	TrendVolatile TrendDirection = "VOLATILE"
)

// CashFlowPayload is the input of OpProcessCashFlow
type CashFlowPayload struct {
	Movements         []MovementRecord `json:"movements"`
	ProjectionPeriods int              `json:"projection_periods,omitempty"`
	Locale            string           `json:"locale,omitempty"`
}

// CashFlowPeriod is the consolidated cash flow of one period
type CashFlowPeriod struct {
	Period     string  `json:"period"`
	Credit     float64 `json:"credit"`
	Debit      float64 `json:"debit"`
	Net        float64 `json:"net"`
	Cumulative float64 `json:"cumulative"`
}

// CashFlowResult is the output of OpProcessCashFlow
type CashFlowResult struct {
	Periods                []CashFlowPeriod `json:"periods"`
	TotalCredit            float64          `json:"total_credit"`
	TotalDebit             float64          `json:"total_debit"`
	NetTotal               float64          `json:"net_total"`
	AverageNet             float64          `json:"average_net"`
	BestPeriod             string           `json:"best_period,omitempty"`
	WorstPeriod            string           `json:"worst_period,omitempty"`
	PositivePeriods        int              `json:"positive_periods"`
	NegativePeriods        int              `json:"negative_periods"`
	CoefficientOfVariation float64          `json:"coefficient_of_variation"`
	Direction              TrendDirection   `json:"direction"`
	Intensity              float64          `json:"intensity"`
	CreditDirection        TrendDirection   `json:"credit_direction"`
	CreditIntensity        float64          `json:"credit_intensity"`
	Volatility             float64          `json:"volatility"`
	CriticalPeriods        []CriticalPeriod `json:"critical_periods"`
	Projection             []PeriodValue    `json:"projection"`
	Seasonality            *Seasonality     `json:"seasonality,omitempty"`
	Alerts                 []Alert          `json:"alerts"`
	Recommendations        []string         `json:"recommendations"`
}

// Seasonality summarizes the spread of net cash flow across periods.
// Only computed when at least six periods are present.
type Seasonality struct {
	BestPeriod    string    `json:"best_period"`
	BestValue     float64   `json:"best_value"`
	WorstPeriod   string    `json:"worst_period"`
	WorstValue    float64   `json:"worst_value"`
	Amplitude     float64   `json:"amplitude"`
	MovingAverage []float64 `json:"moving_average"` // three-period window
	Variation     float64   `json:"variation"`      // coefficient of variation, %
}

// AlertLevel grades an Alert
type AlertLevel string

const (
	AlertCritical  AlertLevel = "CRITICAL"
	AlertAttention AlertLevel = "ATTENTION"
)

// Alert is a condition that needs an operator's attention
type Alert struct {
	Level       AlertLevel `json:"level"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Impact      string     `json:"impact"`
	Action      string     `json:"action"`
}

// CriticalPeriod flags a cash flow period with structural problems
type CriticalPeriod struct {
	Period    string   `json:"period"`
	Net       float64  `json:"net"`
	Issues    []string `json:"issues"`
	RiskScore int      `json:"risk_score"`
	Deadline  string   `json:"deadline"`
}

// VendorPayload is the input of OpProcessVendorAnalytics
type VendorPayload struct {
	Payments []PaymentRecord `json:"payments"`
	TopN     int             `json:"top_n,omitempty"`
}

// VendorSummary aggregates payments made to one vendor
type VendorSummary struct {
	Vendor       string  `json:"vendor"`
	Total        float64 `json:"total"`
	Share        float64 `json:"share"`
	Payments     int     `json:"payments"`
	Average      float64 `json:"average"`
	LatePayments int     `json:"late_payments"`
}

// CategoryTotal is a total and its share of the grand total
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"`
}

// VendorResult is the output of OpProcessVendorAnalytics
type VendorResult struct {
	TotalPaid          float64         `json:"total_paid"`
	Vendors            []VendorSummary `json:"vendors"`
	ByCategory         []CategoryTotal `json:"by_category"`
	ConcentrationIndex float64         `json:"concentration_index"`
	LatePaymentRate    float64         `json:"late_payment_rate"`
}

// BudgetStatus classifies budget execution
type BudgetStatus string

const (
	BudgetUnder BudgetStatus = "UNDER_BUDGET"
	BudgetOn    BudgetStatus = "ON_BUDGET"
	BudgetOver  BudgetStatus = "OVER_BUDGET"
)

// BudgetPayload is the input of OpProcessBudget
type BudgetPayload struct {
	Lines []BudgetRecord `json:"lines"`
}

// BudgetCategory is planned versus actual for one category
type BudgetCategory struct {
	Category        string       `json:"category"`
	Planned         float64      `json:"planned"`
	Actual          float64      `json:"actual"`
	Variance        float64      `json:"variance"`
	VariancePercent float64      `json:"variance_percent"`
	ExecutionRate   float64      `json:"execution_rate"`
	Status          BudgetStatus `json:"status"`
}

// BudgetResult is the output of OpProcessBudget
type BudgetResult struct {
	TotalPlanned    float64          `json:"total_planned"`
	TotalActual     float64          `json:"total_actual"`
	Variance        float64          `json:"variance"`
	VariancePercent float64          `json:"variance_percent"`
	ExecutionRate   float64          `json:"execution_rate"`
	Status          BudgetStatus     `json:"status"`
	Categories      []BudgetCategory `json:"categories"`
}

// MetricUnit selects how a metric is rendered
type MetricUnit string

const (
	UnitCurrency  MetricUnit = "currency"
	UnitPercent   MetricUnit = "percent"
	UnitNumber    MetricUnit = "number"
	UnitVariation MetricUnit = "variation"
)

// MetricValue is a raw metric to be formatted
type MetricValue struct {
	Name     string     `json:"name"`
	Value    float64    `json:"value"`
	Unit     MetricUnit `json:"unit"`
	Compact  bool       `json:"compact,omitempty"`
	Decimals *int       `json:"decimals,omitempty"`
}

// FormatPayload is the input of OpFormatMetrics
type FormatPayload struct {
	Locale  string        `json:"locale,omitempty"`
	Metrics []MetricValue `json:"metrics"`
}

// FormattedMetric is a metric rendered for display
type FormattedMetric struct {
	Name  string     `json:"name"`
	Value float64    `json:"value"`
	Unit  MetricUnit `json:"unit"`
	Text  string     `json:"text"`
	Tone  string     `json:"tone,omitempty"` // positive, negative or neutral
}

// FormatResult is the output of OpFormatMetrics
type FormatResult struct {
	Locale  string            `json:"locale"`
	Metrics []FormattedMetric `json:"metrics"`
}

// DelinquencyPayload is the input of OpAnalyzeDelinquency
type DelinquencyPayload struct {
	Records      []DelinquencyRecord `json:"records"`
	TotalRevenue float64             `json:"total_revenue,omitempty"`
	Locale       string              `json:"locale,omitempty"`
}

// DebtorRanking is one debtor ordered by defaulted amount
type DebtorRanking struct {
	Position    int        `json:"position"`
	Tenant      string     `json:"tenant"`
	Shopping    string     `json:"shopping,omitempty"`
	Amount      float64    `json:"amount"`
	Share       float64    `json:"share"`
	DaysOverdue int        `json:"days_overdue"`
	Status      DebtStatus `json:"status"`
	Risk        RiskLevel  `json:"risk"`
	Priority    string     `json:"priority"`
	Action      string     `json:"action"`
}

// DelinquencyResult is the output of OpAnalyzeDelinquency
type DelinquencyResult struct {
	TotalDebt          float64            `json:"total_debt"`
	AverageDebt        float64            `json:"average_debt"`
	LargestDebt        float64            `json:"largest_debt"`
	SmallestDebt       float64            `json:"smallest_debt"`
	Ranking            []DebtorRanking    `json:"ranking"`
	RiskDistribution   map[RiskLevel]int  `json:"risk_distribution"`
	StatusDistribution map[DebtStatus]int `json:"status_distribution"`
	ParetoShare        float64            `json:"pareto_share"`
	Top3Share          float64            `json:"top3_share"`
	GiniIndex          float64            `json:"gini_index"`
	HighRiskShare      float64            `json:"high_risk_share"`
	RevenueImpact      float64            `json:"revenue_impact"`
	Recovery           RecoveryEstimate   `json:"recovery"`
	Recommendations    []string           `json:"recommendations"`
}

// RecoveryEstimate projects how much of the debt can be collected
type RecoveryEstimate struct {
	Optimistic       float64 `json:"optimistic"`
	Conservative     float64 `json:"conservative"`
	OptimisticRate   float64 `json:"optimistic_rate"`
	ConservativeRate float64 `json:"conservative_rate"`
	Unrecoverable    float64 `json:"unrecoverable"`
}

// TrendPayload is the input of OpAnalyzeTrends
type TrendPayload struct {
	Series []PeriodValue `json:"series"`
}

// TrendResult is the output of OpAnalyzeTrends
type TrendResult struct {
	Direction              TrendDirection `json:"direction"`
	Intensity              float64        `json:"intensity"`
	Slope                  float64        `json:"slope"`
	RSquared               float64        `json:"r_squared"`
	Growth                 float64        `json:"growth"`
	CoefficientOfVariation float64        `json:"coefficient_of_variation"`
	Peaks                  []PeriodValue  `json:"peaks"`
	Troughs                []PeriodValue  `json:"troughs"`
	Autocorrelation        float64        `json:"autocorrelation"`
	NextValue              float64        `json:"next_value"`
}

// KPIStatus classifies a KPI against its thresholds
type KPIStatus string

const (
	KPICritical  KPIStatus = "CRITICAL"
	KPIAttention KPIStatus = "ATTENTION"
	KPIGood      KPIStatus = "GOOD"
	KPIExcellent KPIStatus = "EXCELLENT"
)

// KPIThreshold holds the upper bounds of each status. Inverted KPIs are better when lower.
type KPIThreshold struct {
	Critical  float64 `json:"critical"`
	Attention float64 `json:"attention"`
	Good      float64 `json:"good"`
	Inverted  bool    `json:"inverted,omitempty"`
}

// ClassifyKPIsPayload is the input of OpClassifyKPIs
type ClassifyKPIsPayload struct {
	Values     map[string]float64      `json:"values"`
	Thresholds map[string]KPIThreshold `json:"thresholds,omitempty"`
	Locale     string                  `json:"locale,omitempty"`
}

// KPIStatusEntry is the classification of one KPI
type KPIStatusEntry struct {
	Name   string    `json:"name"`
	Value  float64   `json:"value"`
	Status KPIStatus `json:"status"`
	Note   string    `json:"note"`
}

// ClassifyKPIsResult is the output of OpClassifyKPIs
type ClassifyKPIsResult struct {
	KPIs        []KPIStatusEntry  `json:"kpis"`
	Summary     map[KPIStatus]int `json:"summary"`
	HealthScore     float64           `json:"health_score"`
	Recommendations []string          `json:"recommendations"`
}

// InsightType groups insights by the analysis that produced them
type InsightType string

const (
	InsightKPI         InsightType = "KPI"
	InsightCashFlow    InsightType = "CASHFLOW"
	InsightDelinquency InsightType = "DELINQUENCY"
	InsightTrend       InsightType = "TREND"
	InsightOperational InsightType = "OPERATIONAL"
)

// InsightPriority orders insights by urgency
type InsightPriority string

const (
	InsightPriorityCritical InsightPriority = "CRITICAL"
	InsightPriorityHigh     InsightPriority = "HIGH"
	InsightPriorityMedium   InsightPriority = "MEDIUM"
	InsightPriorityLow      InsightPriority = "LOW"
)

// InsightsPayload is the input of OpGenerateInsights. Each section is optional;
// an empty section skips its analysis.
type InsightsPayload struct {
	Locale       string                  `json:"locale,omitempty"`
	KPIValues    map[string]float64      `json:"kpi_values,omitempty"`
	Thresholds   map[string]KPIThreshold `json:"thresholds,omitempty"`
	Movements    []MovementRecord        `json:"movements,omitempty"`
	Delinquency  []DelinquencyRecord     `json:"delinquency,omitempty"`
	TotalRevenue float64                 `json:"total_revenue,omitempty"`
}

// Insight is one finding with its estimated impact and suggested actions
type Insight struct {
	Type            InsightType        `json:"type"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Priority        InsightPriority    `json:"priority"`
	Impact          float64            `json:"impact"`
	Confidence      float64            `json:"confidence"` // 0-100
	Recommendations []string           `json:"recommendations"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
}

// InsightSummary aggregates a set of insights
type InsightSummary struct {
	Total                   int                     `json:"total"`
	ByPriority              map[InsightPriority]int `json:"by_priority"`
	ByType                  map[InsightType]int     `json:"by_type"`
	TotalImpact             float64                 `json:"total_impact"`
	AverageConfidence       float64                 `json:"average_confidence"`
	PriorityRecommendations []string                `json:"priority_recommendations"`
}

// InsightsResult is the output of OpGenerateInsights. Insights are ordered by
// priority, then by impact.
type InsightsResult struct {
	Insights []Insight      `json:"insights"`
	Summary  InsightSummary `json:"summary"`
}
