package variance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// PlanStore provides the planned side of a variance comparison
type PlanStore interface {
	GetActivePlan(orgID string, fiscalYear int, kind stores.PlanKind) ([]stores.PlannedLineItem, error)
	GetHeadcountPlan(orgID string, fiscalYear int) ([]stores.PlannedRole, error)
}

// LedgerStore provides the actual side
type LedgerStore interface {
	SumByCategory(orgID string, start, end time.Time, kind stores.RecordKind) ([]stores.ActualAggregate, error)
}

// EmployeeStore provides headcount actuals
type EmployeeStore interface {
	ActiveOn(orgID string, date time.Time) ([]stores.Employee, error)
}

// Analyzer compares planned line items against actual aggregates
type Analyzer struct {
	plans     PlanStore
	ledger    LedgerStore
	employees EmployeeStore
	log       zerolog.Logger
}

// NewAnalyzer creates a new variance analyzer
func NewAnalyzer(plans PlanStore, ledger LedgerStore, employees EmployeeStore, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		plans:     plans,
		ledger:    ledger,
		employees: employees,
		log:       log.With().Str("component", "variance").Logger(),
	}
}

// GetStatus classifies a variance percentage. expenseLike carries the
// direction of "good": for expense plans spending under plan is
// favorable, for revenue plans the sense inverts. The flag is a
// parameter of the analysis, never inferred from category names.
func GetStatus(variancePercent float64, expenseLike bool) Status {
	abs := variancePercent
	if abs < 0 {
		abs = -abs
	}
	if abs <= OnTargetThresholdPct {
		return StatusOnTarget
	}

	actualUnderPlan := variancePercent < 0
	if expenseLike == actualUnderPlan {
		return StatusFavorable
	}
	return StatusUnfavorable
}

// Analyze builds the variance report for the active plan of the given
// kind over the window. A missing plan surfaces stores.ErrPlanNotFound.
func (a *Analyzer) Analyze(orgID string, fiscalYear int, kind stores.PlanKind, window periods.Range) (*Report, error) {
	items, err := a.plans.GetActivePlan(orgID, fiscalYear, kind)
	if err != nil {
		return nil, err
	}

	recordKind := stores.RecordKindExpense
	expenseLike := true
	if kind == stores.PlanKindRevenue {
		recordKind = stores.RecordKindRevenue
		expenseLike = false
	}

	actuals, err := a.ledger.SumByCategory(orgID, window.Start, window.End, recordKind)
	if err != nil {
		return nil, fmt.Errorf("failed to load actuals: %w", err)
	}

	months := periods.MonthsIn(window, fiscalYear)

	report := &Report{
		Type:       kind,
		Period:     fmt.Sprintf("%s to %s", window.Start.Format("2006-01-02"), window.End.Format("2006-01-02")),
		StartDate:  window.Start,
		EndDate:    window.End,
		FiscalYear: fiscalYear,
	}

	for _, line := range items {
		planned := plannedInMonths(line, months)
		actual := matchActuals(line, actuals)
		report.Items = append(report.Items, buildItem(line, planned, actual, expenseLike))
	}

	report.ByCategory = rollUpCategories(report.Items, expenseLike)

	for _, item := range report.Items {
		report.TotalPlanned += item.Planned
		report.TotalActual += item.Actual
	}
	report.TotalVariance = report.TotalActual - report.TotalPlanned
	report.TotalVariancePercent = formulas.PercentChange(report.TotalPlanned, report.TotalActual)
	report.OverallStatus = GetStatus(report.TotalVariancePercent, expenseLike)

	a.log.Debug().
		Str("org", orgID).
		Str("kind", string(kind)).
		Int("items", len(report.Items)).
		Float64("total_variance", report.TotalVariance).
		Msg("Variance report built")

	return report, nil
}

// plannedInMonths sums the line's monthly planned amounts over the
// requested months
func plannedInMonths(line stores.PlannedLineItem, months []int) float64 {
	var planned float64
	for _, m := range months {
		planned += line.MonthlyAmounts[m]
	}
	return planned
}

// matchActuals sums the aggregates belonging to the line: account
// reference match first, category-name equality as the fallback. The
// name fallback is deliberately exact (case-insensitive only); two
// differently named categories never match.
func matchActuals(line stores.PlannedLineItem, actuals []stores.ActualAggregate) float64 {
	var total float64
	matched := false
	if line.AccountRef != "" {
		for _, agg := range actuals {
			if agg.AccountRef != "" && agg.AccountRef == line.AccountRef {
				total += agg.Amount
				matched = true
			}
		}
	}
	if matched {
		return total
	}
	for _, agg := range actuals {
		if strings.EqualFold(agg.Category, line.Category) {
			total += agg.Amount
		}
	}
	return total
}

func buildItem(line stores.PlannedLineItem, planned, actual float64, expenseLike bool) Item {
	variance := actual - planned
	pct := formulas.PercentChange(planned, actual)
	return Item{
		Category:        line.Category,
		Subcategory:     line.Subcategory,
		AccountRef:      line.AccountRef,
		Name:            line.Name,
		Planned:         planned,
		Actual:          actual,
		Variance:        variance,
		VariancePercent: formulas.Round2(pct),
		Status:          GetStatus(pct, expenseLike),
	}
}

// rollUpCategories groups items by category, recomputing variance and
// status from the summed planned/actual totals. Averaging the item
// percentages instead would be wrong: percent-of-sum != average-of-
// percents.
func rollUpCategories(items []Item, expenseLike bool) []CategoryVariance {
	byName := make(map[string]*CategoryVariance)
	var order []string
	for _, item := range items {
		cv, ok := byName[item.Category]
		if !ok {
			cv = &CategoryVariance{Category: item.Category}
			byName[item.Category] = cv
			order = append(order, item.Category)
		}
		cv.Planned += item.Planned
		cv.Actual += item.Actual
		cv.ItemCount++
	}

	sort.Strings(order)
	out := make([]CategoryVariance, 0, len(order))
	for _, name := range order {
		cv := byName[name]
		cv.Variance = cv.Actual - cv.Planned
		pct := formulas.PercentChange(cv.Planned, cv.Actual)
		cv.VariancePercent = formulas.Round2(pct)
		cv.Status = GetStatus(pct, expenseLike)
		out = append(out, *cv)
	}
	return out
}
