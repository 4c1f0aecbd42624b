package variance

import (
	"fmt"
	"time"

	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// MonthlyBreakdown produces one variance row per calendar month of the
// fiscal year with running cumulative planned/actual/variance. The
// accumulator resets at month 1.
func (a *Analyzer) MonthlyBreakdown(orgID string, fiscalYear int, kind stores.PlanKind) ([]MonthlyVariance, error) {
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

	rows := make([]MonthlyVariance, 0, 12)
	var cumPlanned, cumActual float64

	for month := 1; month <= 12; month++ {
		var planned float64
		for _, line := range items {
			planned += line.MonthlyAmounts[month]
		}

		monthStart := time.Date(fiscalYear, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0).AddDate(0, 0, -1)
		actuals, err := a.ledger.SumByCategory(orgID, monthStart, monthEnd, recordKind)
		if err != nil {
			return nil, fmt.Errorf("failed to load actuals for month %d: %w", month, err)
		}
		var actual float64
		for _, agg := range actuals {
			actual += agg.Amount
		}

		cumPlanned += planned
		cumActual += actual
		pct := formulas.PercentChange(planned, actual)

		rows = append(rows, MonthlyVariance{
			Month:              month,
			Planned:            planned,
			Actual:             actual,
			Variance:           actual - planned,
			VariancePercent:    formulas.Round2(pct),
			Status:             GetStatus(pct, expenseLike),
			CumulativePlanned:  cumPlanned,
			CumulativeActual:   cumActual,
			CumulativeVariance: cumActual - cumPlanned,
		})
	}

	return rows, nil
}
