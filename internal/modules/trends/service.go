package trends

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// cogsCategories are the expense categories that count as cost of
// goods sold for the gross margin series
var cogsCategories = map[string]bool{
	"cogs":               true,
	"cost of goods sold": true,
}

// LedgerStore provides expense and revenue aggregates
type LedgerStore interface {
	SumByCategory(orgID string, start, end time.Time, kind stores.RecordKind) ([]stores.ActualAggregate, error)
}

// BankStore provides the live balance and transaction flows
type BankStore interface {
	CurrentBalance(orgID string) (float64, error)
	NetFlow(orgID string, start, end time.Time) (float64, error)
}

// EmployeeStore provides headcount actuals
type EmployeeStore interface {
	CountActiveOn(orgID string, date time.Time) (int, error)
}

// Service builds annotated per-period series for named metrics
type Service struct {
	ledger    LedgerStore
	bank      BankStore
	employees EmployeeStore
	log       zerolog.Logger
}

// NewService creates a new trend service
func NewService(ledger LedgerStore, bank BankStore, employees EmployeeStore, log zerolog.Logger) *Service {
	return &Service{
		ledger:    ledger,
		bank:      bank,
		employees: employees,
		log:       log.With().Str("component", "trends").Logger(),
	}
}

// Analyze builds the full trend analysis for a metric over the window.
// There is exactly one data point per generated period boundary,
// including zero-valued buckets.
func (s *Service) Analyze(orgID string, metric MetricType, g periods.Granularity, window periods.Range) (*Analysis, error) {
	buckets := periods.GeneratePeriods(window.Start, window.End, g)
	if len(buckets) == 0 {
		return &Analysis{
			Type:       metric,
			PeriodType: g,
			StartDate:  window.Start,
			EndDate:    window.End,
			Direction:  DirectionStable,
		}, nil
	}

	values, err := s.buildSeries(orgID, metric, buckets, g)
	if err != nil {
		return nil, err
	}

	return buildAnalysis(metric, g, window, buckets, values, DefaultMovingAverageWindow), nil
}

// buildSeries produces the raw per-bucket values for a metric.
// Composite metrics are derived from two base series joined pointwise;
// the base series are fetched concurrently.
func (s *Service) buildSeries(orgID string, metric MetricType, buckets []time.Time, g periods.Granularity) ([]float64, error) {
	switch metric {
	case MetricExpense, MetricRevenue, MetricHeadcount:
		return s.baseSeries(orgID, metric, buckets, g)

	case MetricBurnRate:
		expense, revenue, err := s.fetchPair(orgID, MetricExpense, MetricRevenue, buckets, g)
		if err != nil {
			return nil, err
		}
		return combine(expense, revenue, func(e, r float64) float64 { return e - r }), nil

	case MetricNetIncome:
		expense, revenue, err := s.fetchPair(orgID, MetricExpense, MetricRevenue, buckets, g)
		if err != nil {
			return nil, err
		}
		return combine(revenue, expense, func(r, e float64) float64 { return r - e }), nil

	case MetricGrossMargin:
		revenue, cogs, err := s.fetchPair(orgID, MetricRevenue, metricCOGS, buckets, g)
		if err != nil {
			return nil, err
		}
		return combine(revenue, cogs, func(r, c float64) float64 {
			if r == 0 {
				return 0
			}
			return (r - c) / r * 100
		}), nil

	case MetricCashBalance:
		return s.cashBalanceSeries(orgID, buckets, g)

	default:
		return nil, fmt.Errorf("unknown trend metric %q", metric)
	}
}

// metricCOGS is internal to the gross margin composite; it is not an
// addressable metric on its own
const metricCOGS MetricType = "cogs"

func (s *Service) baseSeries(orgID string, metric MetricType, buckets []time.Time, g periods.Granularity) ([]float64, error) {
	values := make([]float64, len(buckets))
	for i, start := range buckets {
		end := periods.PeriodEnd(start, g)
		switch metric {
		case MetricHeadcount:
			count, err := s.employees.CountActiveOn(orgID, start)
			if err != nil {
				return nil, fmt.Errorf("failed to count headcount for %s: %w", start.Format("2006-01-02"), err)
			}
			values[i] = float64(count)

		case metricCOGS:
			aggregates, err := s.ledger.SumByCategory(orgID, start, end, stores.RecordKindExpense)
			if err != nil {
				return nil, fmt.Errorf("failed to load cogs for %s: %w", start.Format("2006-01-02"), err)
			}
			for _, agg := range aggregates {
				if cogsCategories[strings.ToLower(agg.Category)] {
					values[i] += agg.Amount
				}
			}

		default:
			kind := stores.RecordKindExpense
			if metric == MetricRevenue {
				kind = stores.RecordKindRevenue
			}
			aggregates, err := s.ledger.SumByCategory(orgID, start, end, kind)
			if err != nil {
				return nil, fmt.Errorf("failed to load %s for %s: %w", metric, start.Format("2006-01-02"), err)
			}
			for _, agg := range aggregates {
				values[i] += agg.Amount
			}
		}
	}
	return values, nil
}

type seriesResult struct {
	values []float64
	err    error
}

// fetchPair loads two base series concurrently
func (s *Service) fetchPair(orgID string, a, b MetricType, buckets []time.Time, g periods.Granularity) ([]float64, []float64, error) {
	chA := make(chan seriesResult, 1)
	chB := make(chan seriesResult, 1)

	go func() {
		values, err := s.baseSeries(orgID, a, buckets, g)
		chA <- seriesResult{values, err}
	}()
	go func() {
		values, err := s.baseSeries(orgID, b, buckets, g)
		chB <- seriesResult{values, err}
	}()

	resA, resB := <-chA, <-chB
	if resA.err != nil {
		return nil, nil, resA.err
	}
	if resB.err != nil {
		return nil, nil, resB.err
	}
	return resA.values, resB.values, nil
}

// combine joins two aligned series pointwise. A bucket missing from
// either side (shorter series) contributes 0, never a skipped period.
func combine(a, b []float64, fn func(x, y float64) float64) []float64 {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var x, y float64
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = fn(x, y)
	}
	return out
}

// cashBalanceSeries reconstructs historical balances by walking
// backward from the live balance, subtracting each period's net
// transaction flow from most recent to earliest. The latest point
// always equals the live balance; historical points shift whenever the
// live balance or intervening transactions change. That is the
// documented recompute-on-every-call behavior, not a defect.
func (s *Service) cashBalanceSeries(orgID string, buckets []time.Time, g periods.Granularity) ([]float64, error) {
	balance, err := s.bank.CurrentBalance(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current balance: %w", err)
	}

	values := make([]float64, len(buckets))
	values[len(values)-1] = balance
	for i := len(buckets) - 1; i > 0; i-- {
		start := buckets[i]
		end := periods.PeriodEnd(start, g)
		flow, err := s.bank.NetFlow(orgID, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to load net flow for %s: %w", start.Format("2006-01-02"), err)
		}
		values[i-1] = values[i] - flow
	}
	return values, nil
}

// buildAnalysis annotates the raw series and computes the summary
// statistics and direction classification
func buildAnalysis(metric MetricType, g periods.Granularity, window periods.Range, buckets []time.Time, values []float64, maWindow int) *Analysis {
	ma := formulas.MovingAverage(values, maWindow)

	points := make([]DataPoint, len(values))
	for i, v := range values {
		points[i] = DataPoint{
			Period:        buckets[i],
			Value:         v,
			MovingAverage: ma[i],
		}
		if i > 0 {
			prev := values[i-1]
			points[i].PreviousValue = &prev
			points[i].ChangePercent = formulas.Round2(formulas.PercentChange(prev, v))
		}
	}

	analysis := &Analysis{
		Type:         metric,
		PeriodType:   g,
		StartDate:    window.Start,
		EndDate:      window.End,
		DataPoints:   points,
		AverageValue: formulas.Round2(formulas.Mean(values)),
		MinValue:     formulas.Min(values),
		MaxValue:     formulas.Max(values),
		Volatility:   formulas.Round2(formulas.CoefficientOfVariation(values)),
	}

	if len(values) > 0 {
		first, last := values[0], values[len(values)-1]
		analysis.TotalChange = last - first
		analysis.TotalChangePercent = formulas.Round2(formulas.PercentChange(first, last))
		analysis.GrowthRate = formulas.Round2(formulas.CompoundGrowthRate(first, last, len(values)-1))
	}

	analysis.Direction = classifyDirection(values)
	return analysis
}

// classifyDirection is a three-way decision, not a readout of the
// growth rate: erratic series are volatile regardless of trend, and
// the trend itself is judged by comparing first-half and second-half
// means (the first half takes the extra element on odd lengths).
func classifyDirection(values []float64) Direction {
	if len(values) < 2 {
		return DirectionStable
	}

	if formulas.CoefficientOfVariation(values) > VolatileThresholdPct {
		return DirectionVolatile
	}

	mid := (len(values) + 1) / 2
	firstMean := formulas.Mean(values[:mid])
	secondMean := formulas.Mean(values[mid:])
	change := formulas.PercentChange(firstMean, secondMean)

	switch {
	case change > DirectionThresholdPct:
		return DirectionIncreasing
	case change < -DirectionThresholdPct:
		return DirectionDecreasing
	default:
		return DirectionStable
	}
}
