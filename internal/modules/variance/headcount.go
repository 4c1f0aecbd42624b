package variance

import (
	"fmt"
	"sort"
	"time"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// roleMonthlyCost resolves the cost of one seat of a role for a given
// month: the explicit monthly cost schedule when present, otherwise
// salary/12 plus the benefits percentage.
func roleMonthlyCost(role stores.PlannedRole, month int) float64 {
	if cost, ok := role.MonthlyCosts[month]; ok {
		return cost
	}
	return role.AnnualSalary / 12 * (1 + role.BenefitsPercent/100)
}

func employeeMonthlyCost(e stores.Employee) float64 {
	return e.AnnualSalary / 12 * (1 + e.BenefitsPercent/100)
}

// HeadcountVariance compares the headcount plan against employee
// actuals over the window, broken down by department and by job level.
// Headcount is measured at the window end; cost accumulates per month.
func (a *Analyzer) HeadcountVariance(orgID string, fiscalYear int, window periods.Range) (*HeadcountReport, error) {
	roles, err := a.plans.GetHeadcountPlan(orgID, fiscalYear)
	if err != nil {
		return nil, err
	}

	months := periods.MonthsIn(window, fiscalYear)
	report := &HeadcountReport{
		FiscalYear: fiscalYear,
		StartDate:  window.Start,
		EndDate:    window.End,
	}

	lastMonth := 0
	if len(months) > 0 {
		lastMonth = months[len(months)-1]
	}

	plannedByDept := make(map[string]*HeadcountGroup)
	plannedByLevel := make(map[string]*HeadcountGroup)

	for _, role := range roles {
		for _, m := range months {
			if m < role.StartMonth || m > role.EndMonth {
				continue
			}
			cost := roleMonthlyCost(role, m) * float64(role.Headcount)
			report.PlannedCost += cost
			groupFor(plannedByDept, role.Department).PlannedCost += cost
			groupFor(plannedByLevel, role.Level).PlannedCost += cost
		}
		if lastMonth >= role.StartMonth && lastMonth <= role.EndMonth {
			report.PlannedHeadcount += role.Headcount
			groupFor(plannedByDept, role.Department).PlannedHeadcount += role.Headcount
			groupFor(plannedByLevel, role.Level).PlannedHeadcount += role.Headcount
		}
	}

	// Actual cost accrues month by month so mid-year joiners and
	// leavers are only charged for the months they were on payroll.
	for _, m := range months {
		monthStart := time.Date(fiscalYear, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		employees, err := a.employees.ActiveOn(orgID, monthStart)
		if err != nil {
			return nil, fmt.Errorf("failed to load employees for month %d: %w", m, err)
		}
		for _, e := range employees {
			cost := employeeMonthlyCost(e)
			report.ActualCost += cost
			groupFor(plannedByDept, e.Department).ActualCost += cost
			groupFor(plannedByLevel, e.Level).ActualCost += cost
		}
	}

	roster, err := a.employees.ActiveOn(orgID, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	report.ActualHeadcount = len(roster)
	for _, e := range roster {
		groupFor(plannedByDept, e.Department).ActualHeadcount++
		groupFor(plannedByLevel, e.Level).ActualHeadcount++
	}

	report.HeadcountVariance = report.ActualHeadcount - report.PlannedHeadcount
	report.CostVariance = report.ActualCost - report.PlannedCost
	report.CostStatus = GetStatus(formulas.PercentChange(report.PlannedCost, report.ActualCost), true)
	report.ByDepartment = finishGroups(plannedByDept)
	report.ByLevel = finishGroups(plannedByLevel)

	return report, nil
}

func groupFor(m map[string]*HeadcountGroup, name string) *HeadcountGroup {
	g, ok := m[name]
	if !ok {
		g = &HeadcountGroup{Name: name}
		m[name] = g
	}
	return g
}

func finishGroups(m map[string]*HeadcountGroup) []HeadcountGroup {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HeadcountGroup, 0, len(names))
	for _, name := range names {
		g := m[name]
		g.HeadcountVariance = g.ActualHeadcount - g.PlannedHeadcount
		g.CostVariance = g.ActualCost - g.PlannedCost
		g.CostStatus = GetStatus(formulas.PercentChange(g.PlannedCost, g.ActualCost), true)
		out = append(out, *g)
	}
	return out
}
