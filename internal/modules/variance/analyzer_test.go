package variance

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/logger"
)

type fakePlanStore struct {
	items []stores.PlannedLineItem
	roles []stores.PlannedRole
	err   error
}

func (f *fakePlanStore) GetActivePlan(orgID string, fiscalYear int, kind stores.PlanKind) ([]stores.PlannedLineItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakePlanStore) GetHeadcountPlan(orgID string, fiscalYear int) ([]stores.PlannedRole, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roles, nil
}

type fakeLedger struct {
	aggregates []stores.ActualAggregate
}

func (f *fakeLedger) SumByCategory(orgID string, start, end time.Time, kind stores.RecordKind) ([]stores.ActualAggregate, error) {
	return f.aggregates, nil
}

type fakeEmployees struct {
	active []stores.Employee
}

func (f *fakeEmployees) ActiveOn(orgID string, date time.Time) ([]stores.Employee, error) {
	return f.active, nil
}

func newTestLogger() zerolog.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name        string
		pct         float64
		expenseLike bool
		want        Status
	}{
		{"overspend on expenses is unfavorable", 20, true, StatusUnfavorable},
		{"overshoot on revenue is favorable", 20, false, StatusFavorable},
		{"underspend on expenses is favorable", -20, true, StatusFavorable},
		{"shortfall on revenue is unfavorable", -20, false, StatusUnfavorable},
		{"within threshold is on target", 3, true, StatusOnTarget},
		{"negative within threshold is on target", -3, false, StatusOnTarget},
		{"exactly at threshold is on target", 5, true, StatusOnTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetStatus(tt.pct, tt.expenseLike); got != tt.want {
				t.Errorf("GetStatus(%v, %v) = %v, want %v", tt.pct, tt.expenseLike, got, tt.want)
			}
		})
	}
}

func TestAnalyzeMarketingScenario(t *testing.T) {
	// $10,000/month planned for months 1-3, $12,000 actually spent:
	// 60% under plan, favorable for an expense budget.
	plans := &fakePlanStore{items: []stores.PlannedLineItem{
		{
			Name:     "Marketing",
			Category: "marketing",
			MonthlyAmounts: map[int]float64{
				1: 10000, 2: 10000, 3: 10000,
			},
		},
	}}
	ledger := &fakeLedger{aggregates: []stores.ActualAggregate{
		{Category: "marketing", Amount: 12000},
	}}

	a := NewAnalyzer(plans, ledger, &fakeEmployees{}, newTestLogger())
	window := periods.Range{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	report, err := a.Analyze("org-1", 2025, stores.PlanKindBudget, window)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(report.Items))
	}

	item := report.Items[0]
	if item.Planned != 30000 {
		t.Errorf("planned = %v, want 30000", item.Planned)
	}
	if item.Actual != 12000 {
		t.Errorf("actual = %v, want 12000", item.Actual)
	}
	if item.Variance != -18000 {
		t.Errorf("variance = %v, want -18000", item.Variance)
	}
	if item.VariancePercent != -60 {
		t.Errorf("variance percent = %v, want -60", item.VariancePercent)
	}
	if item.Status != StatusFavorable {
		t.Errorf("status = %v, want favorable", item.Status)
	}
}

func TestAnalyzeSumConsistency(t *testing.T) {
	plans := &fakePlanStore{items: []stores.PlannedLineItem{
		{Name: "Ads", Category: "marketing", AccountRef: "6100", MonthlyAmounts: map[int]float64{1: 5000}},
		{Name: "Events", Category: "marketing", MonthlyAmounts: map[int]float64{1: 2000}},
		{Name: "Cloud", Category: "infrastructure", MonthlyAmounts: map[int]float64{1: 3000}},
	}}
	ledger := &fakeLedger{aggregates: []stores.ActualAggregate{
		{Category: "marketing", AccountRef: "6100", Amount: 5500},
		{Category: "marketing", Amount: 1500},
		{Category: "infrastructure", Amount: 2800},
	}}

	a := NewAnalyzer(plans, ledger, &fakeEmployees{}, newTestLogger())
	window := periods.Range{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	report, err := a.Analyze("org-1", 2025, stores.PlanKindBudget, window)
	if err != nil {
		t.Fatal(err)
	}

	var itemSum, categorySum float64
	for _, item := range report.Items {
		itemSum += item.Variance
	}
	for _, cv := range report.ByCategory {
		categorySum += cv.Variance
	}

	if report.TotalVariance != itemSum {
		t.Errorf("total variance %v != item sum %v", report.TotalVariance, itemSum)
	}
	if report.TotalVariance != categorySum {
		t.Errorf("total variance %v != category sum %v", report.TotalVariance, categorySum)
	}
}

func TestAnalyzeAccountRefTakesPriority(t *testing.T) {
	// The "Ads" line carries account 6100; only the 6100 aggregate may
	// match it even though the category name also matches others.
	plans := &fakePlanStore{items: []stores.PlannedLineItem{
		{Name: "Ads", Category: "marketing", AccountRef: "6100", MonthlyAmounts: map[int]float64{1: 1000}},
	}}
	ledger := &fakeLedger{aggregates: []stores.ActualAggregate{
		{Category: "marketing", AccountRef: "6100", Amount: 700},
		{Category: "marketing", AccountRef: "6200", Amount: 9999},
	}}

	a := NewAnalyzer(plans, ledger, &fakeEmployees{}, newTestLogger())
	window := periods.Range{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	report, err := a.Analyze("org-1", 2025, stores.PlanKindBudget, window)
	if err != nil {
		t.Fatal(err)
	}
	if report.Items[0].Actual != 700 {
		t.Errorf("actual = %v, want 700 (account-ref match only)", report.Items[0].Actual)
	}
}

func TestAnalyzeMissingPlan(t *testing.T) {
	plans := &fakePlanStore{err: stores.ErrPlanNotFound}
	a := NewAnalyzer(plans, &fakeLedger{}, &fakeEmployees{}, newTestLogger())

	_, err := a.Analyze("org-1", 2025, stores.PlanKindBudget, periods.Range{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, stores.ErrPlanNotFound) {
		t.Errorf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestHeadcountCostFallback(t *testing.T) {
	role := stores.PlannedRole{
		AnnualSalary:    120000,
		BenefitsPercent: 20,
	}
	// 120000/12 * 1.2 = 12000
	if got := roleMonthlyCost(role, 4); got != 12000 {
		t.Errorf("fallback cost = %v, want 12000", got)
	}

	role.MonthlyCosts = map[int]float64{4: 9500}
	if got := roleMonthlyCost(role, 4); got != 9500 {
		t.Errorf("explicit schedule cost = %v, want 9500", got)
	}
	if got := roleMonthlyCost(role, 5); got != 12000 {
		t.Errorf("month without schedule = %v, want fallback 12000", got)
	}
}
