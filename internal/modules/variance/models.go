package variance

import (
	"time"

	"github.com/finpulse/finpulse/internal/stores"
)

// OnTargetThresholdPct is the absolute variance percentage under which
// a line is considered on target regardless of direction. Load-bearing
// business rule, not a tuning knob.
const OnTargetThresholdPct = 5.0

// Status classifies a variance relative to plan
type Status string

const (
	StatusFavorable   Status = "favorable"
	StatusUnfavorable Status = "unfavorable"
	StatusOnTarget    Status = "on_target"
)

// Item is the planned-vs-actual comparison for a single line item
type Item struct {
	Category        string  `json:"category"`
	Subcategory     string  `json:"subcategory,omitempty"`
	AccountRef      string  `json:"account_ref,omitempty"`
	Name            string  `json:"name"`
	Planned         float64 `json:"planned"`
	Actual          float64 `json:"actual"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
	Status          Status  `json:"status"`
}

// CategoryVariance aggregates items sharing a category. Its variance
// percentage is recomputed from the summed amounts, never averaged
// from item percentages.
type CategoryVariance struct {
	Category        string  `json:"category"`
	Planned         float64 `json:"planned"`
	Actual          float64 `json:"actual"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
	Status          Status  `json:"status"`
	ItemCount       int     `json:"item_count"`
}

// Report is the full variance report for one plan over one window
type Report struct {
	Type                 stores.PlanKind    `json:"type"`
	Period               string             `json:"period"`
	StartDate            time.Time          `json:"start_date"`
	EndDate              time.Time          `json:"end_date"`
	FiscalYear           int                `json:"fiscal_year"`
	TotalPlanned         float64            `json:"total_planned"`
	TotalActual          float64            `json:"total_actual"`
	TotalVariance        float64            `json:"total_variance"`
	TotalVariancePercent float64            `json:"total_variance_percent"`
	OverallStatus        Status             `json:"overall_status"`
	Items                []Item             `json:"items"`
	ByCategory           []CategoryVariance `json:"by_category"`
}

// MonthlyVariance is one row of the fiscal-year monthly breakdown,
// carrying a year-to-date accumulator that resets at month 1
type MonthlyVariance struct {
	Month              int     `json:"month"`
	Planned            float64 `json:"planned"`
	Actual             float64 `json:"actual"`
	Variance           float64 `json:"variance"`
	VariancePercent    float64 `json:"variance_percent"`
	Status             Status  `json:"status"`
	CumulativePlanned  float64 `json:"cumulative_planned"`
	CumulativeActual   float64 `json:"cumulative_actual"`
	CumulativeVariance float64 `json:"cumulative_variance"`
}

// HeadcountGroup is planned vs actual headcount and cost for one
// department or level
type HeadcountGroup struct {
	Name              string  `json:"name"`
	PlannedHeadcount  int     `json:"planned_headcount"`
	ActualHeadcount   int     `json:"actual_headcount"`
	HeadcountVariance int     `json:"headcount_variance"`
	PlannedCost       float64 `json:"planned_cost"`
	ActualCost        float64 `json:"actual_cost"`
	CostVariance      float64 `json:"cost_variance"`
	CostStatus        Status  `json:"cost_status"`
}

// HeadcountReport compares the headcount plan against employee actuals
type HeadcountReport struct {
	FiscalYear        int              `json:"fiscal_year"`
	StartDate         time.Time        `json:"start_date"`
	EndDate           time.Time        `json:"end_date"`
	PlannedHeadcount  int              `json:"planned_headcount"`
	ActualHeadcount   int              `json:"actual_headcount"`
	HeadcountVariance int              `json:"headcount_variance"`
	PlannedCost       float64          `json:"planned_cost"`
	ActualCost        float64          `json:"actual_cost"`
	CostVariance      float64          `json:"cost_variance"`
	CostStatus        Status           `json:"cost_status"`
	ByDepartment      []HeadcountGroup `json:"by_department"`
	ByLevel           []HeadcountGroup `json:"by_level"`
}
