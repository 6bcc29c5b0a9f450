// Package algorithms implements the analytics computations run by the worker.
// Every function is pure: records in, derived structures out. Empty or malformed
// input produces a zeroed result instead of an error.
package algorithms

// Params holds the heuristic constants used by the algorithms.
// Percentages are expressed on a 0-100 scale.
type Params struct {
	RiskFreeRate        float64 `mapstructure:"risk_free_rate"`        // % per period, Sharpe ratio baseline
	VaRConfidence       float64 `mapstructure:"var_confidence"`        // (0,1)
	LowRiskThreshold    float64 `mapstructure:"low_risk_threshold"`    // default rate % at or below which a group is LOW
	MediumRiskThreshold float64 `mapstructure:"medium_risk_threshold"` // default rate % at or below which a group is MEDIUM

	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations"`
	NOIVariation         float64 `mapstructure:"noi_variation"` // relative, 0.15 means +-15%
	OccupancyVariation   float64 `mapstructure:"occupancy_variation"`
	ValueVariation       float64 `mapstructure:"value_variation"`

	ForecastConfidenceStep  float64 `mapstructure:"forecast_confidence_step"`
	ForecastConfidenceFloor float64 `mapstructure:"forecast_confidence_floor"`
	ForecastPeriods         int     `mapstructure:"forecast_periods"`

	IQRMultiplier    float64 `mapstructure:"iqr_multiplier"`
	DefaultMaxPoints int     `mapstructure:"default_max_points"`
	DefaultPrecision int     `mapstructure:"default_precision"`
	MaxPrecision     int     `mapstructure:"max_precision"` // upper bound for caller-supplied decimals

	BudgetTolerance float64 `mapstructure:"budget_tolerance"`  // %
	VolatileTrendCV float64 `mapstructure:"volatile_trend_cv"` // %
	StableTrendBand float64 `mapstructure:"stable_trend_band"` // %
	TopN            int     `mapstructure:"top_n"`
}

// DefaultParams returns the stock parameter set
func DefaultParams() Params {
	return Params{
		RiskFreeRate:            2.0,
		VaRConfidence:           0.95,
		LowRiskThreshold:        2.0,
		MediumRiskThreshold:     5.0,
		MonteCarloIterations:    10000,
		NOIVariation:            0.15,
		OccupancyVariation:      0.05,
		ValueVariation:          0.10,
		ForecastConfidenceStep:  0.1,
		ForecastConfidenceFloor: 0.5,
		ForecastPeriods:         3,
		IQRMultiplier:           1.5,
		DefaultMaxPoints:        1000,
		DefaultPrecision:        2,
		MaxPrecision:            10,
		BudgetTolerance:         5.0,
		VolatileTrendCV:         25.0,
		StableTrendBand:         2.0,
		TopN:                    10,
	}
}

// withDefaults fills zero fields from DefaultParams so a partially populated
// Params (for example from configuration) stays usable.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.VaRConfidence <= 0 || p.VaRConfidence >= 1 {
		p.VaRConfidence = d.VaRConfidence
	}
	if p.LowRiskThreshold <= 0 {
		p.LowRiskThreshold = d.LowRiskThreshold
	}
	if p.MediumRiskThreshold <= 0 {
		p.MediumRiskThreshold = d.MediumRiskThreshold
	}
	if p.MonteCarloIterations <= 0 {
		p.MonteCarloIterations = d.MonteCarloIterations
	}
	if p.NOIVariation <= 0 {
		p.NOIVariation = d.NOIVariation
	}
	if p.OccupancyVariation <= 0 {
		p.OccupancyVariation = d.OccupancyVariation
	}
	if p.ValueVariation <= 0 {
		p.ValueVariation = d.ValueVariation
	}
	if p.ForecastConfidenceStep <= 0 {
		p.ForecastConfidenceStep = d.ForecastConfidenceStep
	}
	if p.ForecastConfidenceFloor <= 0 {
		p.ForecastConfidenceFloor = d.ForecastConfidenceFloor
	}
	if p.ForecastPeriods <= 0 {
		p.ForecastPeriods = d.ForecastPeriods
	}
	if p.IQRMultiplier <= 0 {
		p.IQRMultiplier = d.IQRMultiplier
	}
	if p.DefaultMaxPoints <= 0 {
		p.DefaultMaxPoints = d.DefaultMaxPoints
	}
	if p.DefaultPrecision < 0 {
		p.DefaultPrecision = d.DefaultPrecision
	}
	if p.MaxPrecision <= 0 {
		p.MaxPrecision = d.MaxPrecision
	}
	if p.DefaultPrecision > p.MaxPrecision {
		p.DefaultPrecision = p.MaxPrecision
	}
	if p.BudgetTolerance <= 0 {
		p.BudgetTolerance = d.BudgetTolerance
	}
	if p.VolatileTrendCV <= 0 {
		p.VolatileTrendCV = d.VolatileTrendCV
	}
	if p.StableTrendBand <= 0 {
		p.StableTrendBand = d.StableTrendBand
	}
	if p.TopN <= 0 {
		p.TopN = d.TopN
	}
	return p
}

// Library binds the algorithms to a parameter set
type Library struct {
	params Params
}

// New creates a Library. Zero fields of params fall back to DefaultParams.
func New(params Params) *Library {
	return &Library{params: params.withDefaults()}
}

// NewDefault creates a Library with DefaultParams
func NewDefault() *Library {
	return &Library{params: DefaultParams()}
}

// Params returns the effective parameters
func (l *Library) Params() Params {
	return l.params
}
