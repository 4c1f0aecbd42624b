package uniteconomics

import (
	"time"

	"github.com/finpulse/finpulse/internal/modules/periods"
)

// Benchmarks the metrics are judged against. Fixed business rules.
const (
	BenchmarkLTVCACRatio     = 3.0
	BenchmarkPaybackMonths   = 12.0
	BenchmarkChurnRatePct    = 5.0
	BenchmarkGrossMarginPct  = 70.0
	// PaybackInfiniteMonths is the sentinel for "never pays back":
	// monthly gross profit per customer is zero or negative.
	PaybackInfiniteMonths = 999.0
	// DefaultCACWindowMonths is the trailing window for CAC.
	DefaultCACWindowMonths = 6
	// MaxCohortMonths caps the cohort analysis working set.
	MaxCohortMonths = 24
	// cacTrendThresholdPct separates stable from moving CAC.
	cacTrendThresholdPct = 10.0
)

// BenchmarkComparison relates a metric to its benchmark
type BenchmarkComparison string

const (
	ComparisonAbove BenchmarkComparison = "above"
	ComparisonBelow BenchmarkComparison = "below"
	ComparisonAt    BenchmarkComparison = "at"
)

// TrendLabel classifies how a metric moved against its previous window
type TrendLabel string

const (
	TrendIncreasing TrendLabel = "increasing"
	TrendDecreasing TrendLabel = "decreasing"
	TrendStable     TrendLabel = "stable"
)

// Metric is one unit-economics measurement with its benchmark context
type Metric struct {
	Name       string              `json:"name"`
	Value      float64             `json:"value"`
	Unit       string              `json:"unit,omitempty"`
	Benchmark  float64             `json:"benchmark,omitempty"`
	Comparison BenchmarkComparison `json:"comparison,omitempty"`
	Trend      TrendLabel          `json:"trend,omitempty"`
}

// Overview bundles every unit-economics metric for an organization
type Overview struct {
	CAC                   float64    `json:"cac"`
	CACTrend              TrendLabel `json:"cac_trend"`
	LTV                   float64    `json:"ltv"`
	LTVCACRatio           float64    `json:"ltv_cac_ratio"`
	ChurnRatePct          float64    `json:"churn_rate_pct"`
	MRR                   float64    `json:"mrr"`
	ARR                   float64    `json:"arr"`
	ARPU                  float64    `json:"arpu"`
	ActiveCustomers       int        `json:"active_customers"`
	GrossMarginPct        float64    `json:"gross_margin_pct"`
	PaybackMonths         float64    `json:"payback_months"`
	AverageLifespanMonths float64    `json:"average_lifespan_months"`
	Metrics               []Metric   `json:"metrics"`
}

// CohortRetention is one retention period of a cohort. Period 0 is the
// acquisition period itself.
type CohortRetention struct {
	PeriodNumber              int     `json:"period_number"`
	ActiveCustomers           int     `json:"active_customers"`
	RetentionRatePct          float64 `json:"retention_rate_pct"`
	Revenue                   float64 `json:"revenue"`
	AverageRevenuePerCustomer float64 `json:"average_revenue_per_customer"`
}

// Cohort tracks the customers first acquired in one period
type Cohort struct {
	CohortID          string              `json:"cohort_id"`
	CohortPeriod      time.Time           `json:"cohort_period"`
	PeriodType        periods.Granularity `json:"period_type"`
	CustomerCount     int                 `json:"customer_count"`
	InitialRevenue    float64             `json:"initial_revenue"`
	Retention         []CohortRetention   `json:"retention"`
	CumulativeRevenue float64             `json:"cumulative_revenue"`
	AverageLTV        float64             `json:"average_ltv"`
}

// CohortAnalysis is the full retention matrix plus the best and worst
// cohorts by average LTV (zero-LTV cohorts excluded from the ranking)
type CohortAnalysis struct {
	PeriodType  periods.Granularity `json:"period_type"`
	Cohorts     []Cohort            `json:"cohorts"`
	BestCohort  *Cohort             `json:"best_cohort,omitempty"`
	WorstCohort *Cohort             `json:"worst_cohort,omitempty"`
}
