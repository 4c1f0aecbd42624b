package trends

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/logger"
)

// fakeLedger returns a fixed amount per bucket keyed by the bucket
// start month, so tests can shape a series month by month.
type fakeLedger struct {
	expenseByMonth map[string]float64
	revenueByMonth map[string]float64
}

func (f *fakeLedger) SumByCategory(orgID string, start, end time.Time, kind stores.RecordKind) ([]stores.ActualAggregate, error) {
	byMonth := f.expenseByMonth
	category := "operations"
	if kind == stores.RecordKindRevenue {
		byMonth = f.revenueByMonth
		category = "subscriptions"
	}
	amount, ok := byMonth[start.Format("2006-01")]
	if !ok {
		return nil, nil
	}
	return []stores.ActualAggregate{
		{Category: category, PeriodStart: start, PeriodEnd: end, Amount: amount},
	}, nil
}

type fakeBank struct {
	balance     float64
	flowByMonth map[string]float64
}

func (f *fakeBank) CurrentBalance(orgID string) (float64, error) {
	return f.balance, nil
}

func (f *fakeBank) NetFlow(orgID string, start, end time.Time) (float64, error) {
	return f.flowByMonth[start.Format("2006-01")], nil
}

type fakeEmployees struct {
	count int
}

func (f *fakeEmployees) CountActiveOn(orgID string, date time.Time) (int, error) {
	return f.count, nil
}

func newTestService(ledger *fakeLedger, bank *fakeBank) *Service {
	log := newTestLogger()
	if ledger == nil {
		ledger = &fakeLedger{}
	}
	if bank == nil {
		bank = &fakeBank{}
	}
	return NewService(ledger, bank, &fakeEmployees{}, log)
}

func newTestLogger() zerolog.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func monthlyWindow(startYM string, months int) periods.Range {
	start, _ := time.Parse("2006-01", startYM)
	return periods.Range{Start: start, End: start.AddDate(0, months-1, 0)}
}

func TestAnalyzeGapFreeSeries(t *testing.T) {
	// Only two of six months have ledger rows; the series still gets
	// one point per generated bucket.
	ledger := &fakeLedger{expenseByMonth: map[string]float64{
		"2025-02": 4000,
		"2025-05": 6000,
	}}
	svc := newTestService(ledger, nil)
	window := monthlyWindow("2025-01", 6)

	analysis, err := svc.Analyze("org-1", MetricExpense, periods.Monthly, window)
	require.NoError(t, err)

	buckets := periods.GeneratePeriods(window.Start, window.End, periods.Monthly)
	require.Len(t, analysis.DataPoints, len(buckets))
	for i, p := range analysis.DataPoints {
		assert.True(t, p.Period.Equal(buckets[i]), "point %d period mismatch", i)
	}
	assert.Equal(t, 0.0, analysis.DataPoints[0].Value)
	assert.Equal(t, 4000.0, analysis.DataPoints[1].Value)
	assert.Equal(t, 6000.0, analysis.DataPoints[4].Value)
}

func TestAnalyzeDirectionIncreasing(t *testing.T) {
	// First-half mean 110, second-half mean 180: +63.6%, and the
	// coefficient of variation stays at the volatile boundary without
	// crossing it.
	ledger := &fakeLedger{revenueByMonth: map[string]float64{
		"2025-01": 100, "2025-02": 110, "2025-03": 120,
		"2025-04": 130, "2025-05": 200, "2025-06": 210,
	}}
	svc := newTestService(ledger, nil)

	analysis, err := svc.Analyze("org-1", MetricRevenue, periods.Monthly, monthlyWindow("2025-01", 6))
	require.NoError(t, err)
	assert.Equal(t, DirectionIncreasing, analysis.Direction)
	assert.LessOrEqual(t, analysis.Volatility, VolatileThresholdPct)
}

func TestAnalyzeDirectionVolatile(t *testing.T) {
	ledger := &fakeLedger{revenueByMonth: map[string]float64{
		"2025-01": 100, "2025-02": 900, "2025-03": 50,
		"2025-04": 800, "2025-05": 120, "2025-06": 700,
	}}
	svc := newTestService(ledger, nil)

	analysis, err := svc.Analyze("org-1", MetricRevenue, periods.Monthly, monthlyWindow("2025-01", 6))
	require.NoError(t, err)
	assert.Equal(t, DirectionVolatile, analysis.Direction)
}

func TestAnalyzeDirectionStable(t *testing.T) {
	ledger := &fakeLedger{revenueByMonth: map[string]float64{
		"2025-01": 100, "2025-02": 101, "2025-03": 99,
		"2025-04": 100, "2025-05": 102, "2025-06": 100,
	}}
	svc := newTestService(ledger, nil)

	analysis, err := svc.Analyze("org-1", MetricRevenue, periods.Monthly, monthlyWindow("2025-01", 6))
	require.NoError(t, err)
	assert.Equal(t, DirectionStable, analysis.Direction)
}

func TestAnalyzeMovingAverageEmission(t *testing.T) {
	ledger := &fakeLedger{revenueByMonth: map[string]float64{
		"2025-01": 10, "2025-02": 20, "2025-03": 30, "2025-04": 40,
	}}
	svc := newTestService(ledger, nil)

	analysis, err := svc.Analyze("org-1", MetricRevenue, periods.Monthly, monthlyWindow("2025-01", 4))
	require.NoError(t, err)

	require.Len(t, analysis.DataPoints, 4)
	assert.Nil(t, analysis.DataPoints[0].MovingAverage)
	assert.Nil(t, analysis.DataPoints[1].MovingAverage)
	require.NotNil(t, analysis.DataPoints[2].MovingAverage)
	assert.InDelta(t, 20, *analysis.DataPoints[2].MovingAverage, 1e-9)
	require.NotNil(t, analysis.DataPoints[3].MovingAverage)
	assert.InDelta(t, 30, *analysis.DataPoints[3].MovingAverage, 1e-9)
}

func TestAnalyzeChangePercent(t *testing.T) {
	ledger := &fakeLedger{revenueByMonth: map[string]float64{
		"2025-01": 200, "2025-02": 100, "2025-03": 150,
	}}
	svc := newTestService(ledger, nil)

	analysis, err := svc.Analyze("org-1", MetricRevenue, periods.Monthly, monthlyWindow("2025-01", 3))
	require.NoError(t, err)

	assert.Equal(t, 0.0, analysis.DataPoints[0].ChangePercent)
	assert.Nil(t, analysis.DataPoints[0].PreviousValue)
	assert.InDelta(t, -50, analysis.DataPoints[1].ChangePercent, 1e-9)
	assert.InDelta(t, 50, analysis.DataPoints[2].ChangePercent, 1e-9)
}

func TestBurnRateComposite(t *testing.T) {
	ledger := &fakeLedger{
		expenseByMonth: map[string]float64{"2025-01": 5000, "2025-02": 5000, "2025-03": 5000},
		// February has no revenue row: the missing key joins as 0.
		revenueByMonth: map[string]float64{"2025-01": 2000, "2025-03": 4000},
	}
	svc := newTestService(ledger, nil)

	analysis, err := svc.Analyze("org-1", MetricBurnRate, periods.Monthly, monthlyWindow("2025-01", 3))
	require.NoError(t, err)

	require.Len(t, analysis.DataPoints, 3)
	assert.Equal(t, 3000.0, analysis.DataPoints[0].Value)
	assert.Equal(t, 5000.0, analysis.DataPoints[1].Value)
	assert.Equal(t, 1000.0, analysis.DataPoints[2].Value)
}

func TestGrossMarginZeroRevenue(t *testing.T) {
	ledger := &fakeLedger{
		expenseByMonth: map[string]float64{"2025-01": 100, "2025-02": 100},
		revenueByMonth: map[string]float64{},
	}
	svc := newTestService(ledger, nil)

	analysis, err := svc.Analyze("org-1", MetricGrossMargin, periods.Monthly, monthlyWindow("2025-01", 2))
	require.NoError(t, err)

	for _, p := range analysis.DataPoints {
		assert.Equal(t, 0.0, p.Value, "zero revenue must yield 0, not NaN")
		assert.False(t, math.IsNaN(p.Value))
	}
}

func TestCashBalanceBackwardWalk(t *testing.T) {
	bank := &fakeBank{
		balance: 50000,
		flowByMonth: map[string]float64{
			"2025-02": -10000, // net outflow in Feb
			"2025-03": 5000,   // net inflow in Mar
		},
	}
	svc := newTestService(nil, bank)

	analysis, err := svc.Analyze("org-1", MetricCashBalance, periods.Monthly, monthlyWindow("2025-01", 3))
	require.NoError(t, err)
	require.Len(t, analysis.DataPoints, 3)

	// Latest point is the live balance; earlier points roll the flows
	// back: Feb = 50000 - 5000, Jan = 45000 - (-10000).
	assert.Equal(t, 50000.0, analysis.DataPoints[2].Value)
	assert.Equal(t, 45000.0, analysis.DataPoints[1].Value)
	assert.Equal(t, 55000.0, analysis.DataPoints[0].Value)
}

func TestCorrelate(t *testing.T) {
	mk := func(metric MetricType, values []float64) *Analysis {
		points := make([]DataPoint, len(values))
		for i, v := range values {
			points[i] = DataPoint{Value: v}
		}
		return &Analysis{Type: metric, DataPoints: points}
	}

	revenue := mk(MetricRevenue, []float64{100, 120, 140, 160})
	expense := mk(MetricExpense, []float64{50, 60, 70, 80})
	inverse := mk(MetricBurnRate, []float64{80, 70, 60, 50})

	out := Correlate([]*Analysis{revenue, expense, inverse})
	require.Len(t, out, 3)

	assert.InDelta(t, 1.0, out[0].Coefficient, 1e-9)
	assert.Equal(t, StrongPositive, out[0].Strength)

	assert.InDelta(t, -1.0, out[1].Coefficient, 1e-9)
	assert.Equal(t, StrongNegative, out[1].Strength)
}

func TestCorrelateTruncatesToShorter(t *testing.T) {
	mk := func(metric MetricType, values []float64) *Analysis {
		points := make([]DataPoint, len(values))
		for i, v := range values {
			points[i] = DataPoint{Value: v}
		}
		return &Analysis{Type: metric, DataPoints: points}
	}

	long := mk(MetricRevenue, []float64{1, 2, 3, 4, 5, 6})
	short := mk(MetricExpense, []float64{2, 4, 6})

	out := Correlate([]*Analysis{long, short})
	require.Len(t, out, 1)
	assert.InDelta(t, 1.0, out[0].Coefficient, 1e-9)
}
