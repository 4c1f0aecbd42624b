package trends

import (
	"time"

	"github.com/finpulse/finpulse/internal/modules/periods"
)

// Thresholds for direction classification. These are business rules
// with output parity requirements, so they live here by name.
const (
	// VolatileThresholdPct: a coefficient of variation above this makes
	// the series volatile regardless of trend.
	VolatileThresholdPct = 30.0
	// DirectionThresholdPct: the half-mean change beyond which a series
	// counts as increasing or decreasing.
	DirectionThresholdPct = 5.0
	// DefaultMovingAverageWindow is the trailing SMA window.
	DefaultMovingAverageWindow = 3
	// MaxTrendMonths caps the working set of a single request.
	MaxTrendMonths = 36
)

// MetricType names a trend metric
type MetricType string

const (
	MetricExpense     MetricType = "expense"
	MetricRevenue     MetricType = "revenue"
	MetricBurnRate    MetricType = "burn_rate"
	MetricHeadcount   MetricType = "headcount"
	MetricCashBalance MetricType = "cash_balance"
	MetricNetIncome   MetricType = "net_income"
	MetricGrossMargin MetricType = "gross_margin"
)

// Direction classifies the overall movement of a series
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
	DirectionVolatile   Direction = "volatile"
)

// DataPoint is one bucket of a trend series
type DataPoint struct {
	Period        time.Time `json:"period"`
	Value         float64   `json:"value"`
	PreviousValue *float64  `json:"previous_value,omitempty"`
	ChangePercent float64   `json:"change_percent"`
	MovingAverage *float64  `json:"moving_average,omitempty"`
}

// Analysis is a fully annotated trend series with summary statistics
type Analysis struct {
	Type               MetricType          `json:"type"`
	PeriodType         periods.Granularity `json:"period_type"`
	StartDate          time.Time           `json:"start_date"`
	EndDate            time.Time           `json:"end_date"`
	DataPoints         []DataPoint         `json:"data_points"`
	Direction          Direction           `json:"direction"`
	AverageValue       float64             `json:"average_value"`
	MinValue           float64             `json:"min_value"`
	MaxValue           float64             `json:"max_value"`
	TotalChange        float64             `json:"total_change"`
	TotalChangePercent float64             `json:"total_change_percent"`
	Volatility         float64             `json:"volatility"`
	GrowthRate         float64             `json:"growth_rate"`
}

// CorrelationStrength is the qualitative label for a Pearson coefficient
type CorrelationStrength string

const (
	StrongPositive   CorrelationStrength = "strong_positive"
	ModeratePositive CorrelationStrength = "moderate_positive"
	WeakOrNone       CorrelationStrength = "weak_or_none"
	ModerateNegative CorrelationStrength = "moderate_negative"
	StrongNegative   CorrelationStrength = "strong_negative"
)

// Correlation is the pairwise relationship between two trend series
type Correlation struct {
	MetricA     MetricType          `json:"metric_a"`
	MetricB     MetricType          `json:"metric_b"`
	Coefficient float64             `json:"coefficient"`
	Strength    CorrelationStrength `json:"strength"`
}

// PeriodComparison contrasts the most recent N periods with the N
// periods immediately before them
type PeriodComparison struct {
	Type            MetricType          `json:"type"`
	PeriodType      periods.Granularity `json:"period_type"`
	Periods         int                 `json:"periods"`
	CurrentAverage  float64             `json:"current_average"`
	PreviousAverage float64             `json:"previous_average"`
	Delta           float64             `json:"delta"`
	DeltaPercent    float64             `json:"delta_percent"`
	Current         *Analysis           `json:"current,omitempty"`
	Previous        *Analysis           `json:"previous,omitempty"`
}
