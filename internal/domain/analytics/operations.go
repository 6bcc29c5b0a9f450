package analytics

// OperationKind identifies a computation the analytics engine can run
type OperationKind string

const (
	OpCalculateKPIs           OperationKind = "CALCULATE_KPIS"
	OpProcessFinancialData    OperationKind = "PROCESS_FINANCIAL_DATA"
	OpCalculateRiskMetrics    OperationKind = "CALCULATE_RISK_METRICS"
	OpGeneratePredictions     OperationKind = "GENERATE_PREDICTIONS"
	OpSimulateMonteCarlo      OperationKind = "SIMULATE_MONTE_CARLO"
	OpProcessDrilldown        OperationKind = "PROCESS_DRILLDOWN"
	OpGenerateHeatmap         OperationKind = "GENERATE_HEATMAP"
	OpCalculateNetworkMetrics OperationKind = "CALCULATE_NETWORK_METRICS"
	OpOptimizeChartData       OperationKind = "OPTIMIZE_CHART_DATA"
	OpProcessBillingAnalytics OperationKind = "PROCESS_BILLING_ANALYTICS"
	OpProcessCashFlow         OperationKind = "PROCESS_CASHFLOW"
	OpProcessVendorAnalytics  OperationKind = "PROCESS_VENDOR_ANALYTICS"
	OpProcessBudget           OperationKind = "PROCESS_BUDGET"
	OpFormatMetrics           OperationKind = "FORMAT_METRICS"
	OpAnalyzeDelinquency      OperationKind = "ANALYZE_DELINQUENCY"
	OpAnalyzeTrends           OperationKind = "ANALYZE_TRENDS"
	OpClassifyKPIs            OperationKind = "CLASSIFY_KPIS"
	OpGenerateInsights        OperationKind = "GENERATE_INSIGHTS"
)

var allOperations = []OperationKind{
	OpCalculateKPIs,
	OpProcessFinancialData,
	OpCalculateRiskMetrics,
	OpGeneratePredictions,
	OpSimulateMonteCarlo,
	OpProcessDrilldown,
	OpGenerateHeatmap,
	OpCalculateNetworkMetrics,
	OpOptimizeChartData,
	OpProcessBillingAnalytics,
	OpProcessCashFlow,
	OpProcessVendorAnalytics,
	OpProcessBudget,
	OpFormatMetrics,
	OpAnalyzeDelinquency,
	OpAnalyzeTrends,
	OpClassifyKPIs,
	OpGenerateInsights,
}

// AllOperations returns every operation kind the engine supports
func AllOperations() []OperationKind {
	out := make([]OperationKind, len(allOperations))
	copy(out, allOperations)
	return out
}

// Valid reports whether k is a known operation kind
func (k OperationKind) Valid() bool {
	for _, op := range allOperations {
		if op == k {
			return true
		}
	}
	return false
}

func (k OperationKind) String() string {
	return string(k)
}
