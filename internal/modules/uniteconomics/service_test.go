package uniteconomics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/logger"
)

type fakeCustomers struct {
	customers []stores.Customer
}

func (f *fakeCustomers) Find(orgID string, filter stores.CustomerFilter) ([]stores.Customer, error) {
	var out []stores.Customer
	for _, c := range f.customers {
		if filter.CreatedAfter != nil && c.CreatedAt.Before(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && !c.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type fakeLedger struct {
	expenses []stores.ActualAggregate
	revenue  []stores.ActualAggregate
}

func (f *fakeLedger) SumByCategory(orgID string, start, end time.Time, kind stores.RecordKind) ([]stores.ActualAggregate, error) {
	source := f.expenses
	if kind == stores.RecordKindRevenue {
		source = f.revenue
	}
	var out []stores.ActualAggregate
	for _, agg := range source {
		if agg.PeriodStart.Before(start) || agg.PeriodStart.After(end) {
			continue
		}
		out = append(out, agg)
	}
	return out, nil
}

func newTestLogger() zerolog.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func ts(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tsp(y int, m time.Month, d int) *time.Time {
	t := ts(y, m, d)
	return &t
}

func TestCACZeroNewCustomers(t *testing.T) {
	ledger := &fakeLedger{expenses: []stores.ActualAggregate{
		{Category: "marketing", PeriodStart: ts(2025, 5, 1), Amount: 10000},
	}}
	svc := NewService(&fakeCustomers{}, ledger, newTestLogger())

	cac, err := svc.CAC("org-1", 6, ts(2025, 8, 1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cac, "no new customers must yield 0, not a division error")
}

func TestCACOnlyAcquisitionSpendCounts(t *testing.T) {
	ledger := &fakeLedger{expenses: []stores.ActualAggregate{
		{Category: "marketing", PeriodStart: ts(2025, 5, 1), Amount: 6000},
		{Category: "growth", PeriodStart: ts(2025, 6, 1), Amount: 4000},
		{Category: "rent", PeriodStart: ts(2025, 6, 1), Amount: 50000},
	}}
	customers := &fakeCustomers{customers: []stores.Customer{
		{ID: "c1", CreatedAt: ts(2025, 5, 10)},
		{ID: "c2", CreatedAt: ts(2025, 6, 20)},
	}}
	svc := NewService(customers, ledger, newTestLogger())

	cac, err := svc.CAC("org-1", 6, ts(2025, 8, 1))
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cac)
}

func TestCACTrendBoundaryDayCountedOnce(t *testing.T) {
	// Current window [2025-02-01, 2025-08-01], previous window ends the
	// day before. Spend dated exactly 2025-02-01 belongs to the current
	// window only; were it counted in both, the previous CAC would be
	// inflated to 7000 and the trend would flip to decreasing.
	ledger := &fakeLedger{expenses: []stores.ActualAggregate{
		{Category: "marketing", PeriodStart: ts(2025, 2, 1), Amount: 6000},
		{Category: "marketing", PeriodStart: ts(2024, 10, 1), Amount: 1000},
	}}
	customers := &fakeCustomers{customers: []stores.Customer{
		{ID: "c1", CreatedAt: ts(2025, 3, 1)},
		{ID: "c2", CreatedAt: ts(2024, 10, 15)},
	}}
	svc := NewService(customers, ledger, newTestLogger())

	cac, trend, err := svc.CACWithTrend("org-1", 6, ts(2025, 8, 1))
	require.NoError(t, err)
	assert.Equal(t, 6000.0, cac)
	assert.Equal(t, TrendIncreasing, trend)
}

func TestChurnRate(t *testing.T) {
	customers := &fakeCustomers{customers: []stores.Customer{
		// Active through the window.
		{ID: "c1", CreatedAt: ts(2024, 1, 1), SubscriptionStart: tsp(2024, 1, 1)},
		{ID: "c2", CreatedAt: ts(2024, 2, 1), SubscriptionStart: tsp(2024, 2, 1)},
		{ID: "c3", CreatedAt: ts(2024, 3, 1), SubscriptionStart: tsp(2024, 3, 1)},
		{ID: "c4", CreatedAt: ts(2024, 4, 1), SubscriptionStart: tsp(2024, 4, 1)},
		// Churned inside the window.
		{ID: "c5", CreatedAt: ts(2024, 5, 1), SubscriptionStart: tsp(2024, 5, 1), SubscriptionEnd: tsp(2025, 7, 15)},
		// Churned before the window: not counted either way.
		{ID: "c6", CreatedAt: ts(2024, 6, 1), SubscriptionStart: tsp(2024, 6, 1), SubscriptionEnd: tsp(2025, 1, 10)},
	}}
	svc := NewService(customers, &fakeLedger{}, newTestLogger())

	churn, err := svc.ChurnRatePct("org-1", ts(2025, 7, 1), ts(2025, 7, 31))
	require.NoError(t, err)
	// 5 active at start (c1-c5), 1 churned in July.
	assert.InDelta(t, 20, churn, 1e-9)
}

func TestPaybackSentinel(t *testing.T) {
	if got := paybackMonths(5000, 0, 70); got != PaybackInfiniteMonths {
		t.Errorf("payback with zero revenue per customer = %v, want sentinel", got)
	}
	if got := paybackMonths(5000, 100, 0); got != PaybackInfiniteMonths {
		t.Errorf("payback with zero margin = %v, want sentinel", got)
	}
	// 5000 / (100 * 0.5) = 100 months.
	if got := paybackMonths(5000, 100, 50); got != 100 {
		t.Errorf("payback = %v, want 100", got)
	}
}

func TestOverviewMRRARRARPU(t *testing.T) {
	customers := &fakeCustomers{customers: []stores.Customer{
		{ID: "c1", CreatedAt: ts(2024, 1, 1), SubscriptionStatus: stores.SubscriptionActive, MonthlyValue: 300,
			LifetimeRevenue: 3600, FirstPurchaseAt: tsp(2024, 1, 1), LastActivityAt: tsp(2025, 1, 1)},
		{ID: "c2", CreatedAt: ts(2024, 6, 1), SubscriptionStatus: stores.SubscriptionActive, MonthlyValue: 100,
			LifetimeRevenue: 800, FirstPurchaseAt: tsp(2024, 6, 1), LastActivityAt: tsp(2025, 2, 1)},
		{ID: "c3", CreatedAt: ts(2024, 7, 1), SubscriptionStatus: stores.SubscriptionChurned, MonthlyValue: 500},
	}}
	svc := NewService(customers, &fakeLedger{}, newTestLogger())

	overview, err := svc.Overview("org-1", ts(2025, 8, 1))
	require.NoError(t, err)

	assert.Equal(t, 400.0, overview.MRR, "churned customers do not contribute to MRR")
	assert.Equal(t, 4800.0, overview.ARR)
	assert.Equal(t, 200.0, overview.ARPU)
	assert.Equal(t, 2, overview.ActiveCustomers)
}

func TestCohortRetentionMonotonic(t *testing.T) {
	// Ten customers acquired in January 2025, churning one per month:
	// customer i ends their subscription after i months. With no
	// win-back, retention can never rise as the period number grows.
	var members []stores.Customer
	cohortStart := ts(2025, 1, 5)
	for i := 1; i <= 10; i++ {
		end := cohortStart.AddDate(0, i, 0)
		members = append(members, stores.Customer{
			ID:                 string(rune('a' + i)),
			CreatedAt:          cohortStart,
			SubscriptionStatus: stores.SubscriptionChurned,
			SubscriptionStart:  &cohortStart,
			SubscriptionEnd:    &end,
			MonthlyValue:       100,
			LastActivityAt:     &end,
		})
	}
	svc := NewService(&fakeCustomers{customers: members}, &fakeLedger{}, newTestLogger())

	analysis, err := svc.AnalyzeCohorts("org-1", periods.Monthly, 12, 12, ts(2025, 12, 1))
	require.NoError(t, err)
	require.Len(t, analysis.Cohorts, 1)

	retention := analysis.Cohorts[0].Retention
	require.NotEmpty(t, retention)
	for i := 1; i < len(retention); i++ {
		assert.LessOrEqual(t, retention[i].RetentionRatePct, retention[i-1].RetentionRatePct,
			"retention rose from period %d to %d", i-1, i)
	}
}

func TestCohortZeroCustomerPeriodsSkipped(t *testing.T) {
	customers := &fakeCustomers{customers: []stores.Customer{
		{ID: "c1", CreatedAt: ts(2025, 2, 10), SubscriptionStatus: stores.SubscriptionActive, MonthlyValue: 50},
		{ID: "c2", CreatedAt: ts(2025, 5, 20), SubscriptionStatus: stores.SubscriptionActive, MonthlyValue: 80},
	}}
	svc := NewService(customers, &fakeLedger{}, newTestLogger())

	analysis, err := svc.AnalyzeCohorts("org-1", periods.Monthly, 6, 6, ts(2025, 6, 30))
	require.NoError(t, err)

	// Only February and May acquired anyone; the empty months produce
	// no cohort rows at all.
	require.Len(t, analysis.Cohorts, 2)
	assert.True(t, analysis.Cohorts[0].CohortPeriod.Equal(ts(2025, 2, 1)))
	assert.True(t, analysis.Cohorts[1].CohortPeriod.Equal(ts(2025, 5, 1)))
}

func TestCohortBestWorstExcludeZeroLTV(t *testing.T) {
	customers := &fakeCustomers{customers: []stores.Customer{
		{ID: "c1", CreatedAt: ts(2025, 1, 10), SubscriptionStatus: stores.SubscriptionActive, MonthlyValue: 200},
		// A cohort whose only member never produced revenue.
		{ID: "c2", CreatedAt: ts(2025, 3, 10), SubscriptionStatus: stores.SubscriptionChurned, MonthlyValue: 0},
		{ID: "c3", CreatedAt: ts(2025, 4, 10), SubscriptionStatus: stores.SubscriptionActive, MonthlyValue: 40},
	}}
	svc := NewService(customers, &fakeLedger{}, newTestLogger())

	analysis, err := svc.AnalyzeCohorts("org-1", periods.Monthly, 6, 6, ts(2025, 6, 30))
	require.NoError(t, err)
	require.NotNil(t, analysis.BestCohort)
	require.NotNil(t, analysis.WorstCohort)

	assert.True(t, analysis.BestCohort.CohortPeriod.Equal(ts(2025, 1, 1)))
	assert.True(t, analysis.WorstCohort.CohortPeriod.Equal(ts(2025, 4, 1)))
}
