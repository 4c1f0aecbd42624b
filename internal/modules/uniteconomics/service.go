package uniteconomics

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// acquisitionCategories are the expense categories that count as
// customer acquisition spend for CAC
var acquisitionCategories = map[string]bool{
	"marketing":            true,
	"sales":                true,
	"customer acquisition": true,
	"growth":               true,
}

var cogsCategories = map[string]bool{
	"cogs":               true,
	"cost of goods sold": true,
}

// CustomerStore provides customer records
type CustomerStore interface {
	Find(orgID string, filter stores.CustomerFilter) ([]stores.Customer, error)
}

// LedgerStore provides expense and revenue aggregates
type LedgerStore interface {
	SumByCategory(orgID string, start, end time.Time, kind stores.RecordKind) ([]stores.ActualAggregate, error)
}

// Service computes CAC, LTV, churn, MRR/ARR/ARPU, payback and cohort
// retention from current data on every call
type Service struct {
	customers CustomerStore
	ledger    LedgerStore
	log       zerolog.Logger
}

// NewService creates a new unit economics service
func NewService(customers CustomerStore, ledger LedgerStore, log zerolog.Logger) *Service {
	return &Service{
		customers: customers,
		ledger:    ledger,
		log:       log.With().Str("component", "uniteconomics").Logger(),
	}
}

// CAC returns acquisition spend per new customer over the trailing
// window of months ending at ref, 0 when no customers were acquired
func (s *Service) CAC(orgID string, months int, ref time.Time) (float64, error) {
	end := ref
	start := ref.AddDate(0, -months, 0)
	return s.cacForWindow(orgID, start, end)
}

// CACWithTrend also classifies the movement against the immediately
// preceding equal-length window
func (s *Service) CACWithTrend(orgID string, months int, ref time.Time) (float64, TrendLabel, error) {
	current, err := s.CAC(orgID, months, ref)
	if err != nil {
		return 0, "", err
	}

	// The ledger window is inclusive on both ends, so the previous
	// window stops the day before the current one starts.
	prevEnd := ref.AddDate(0, -months, 0).AddDate(0, 0, -1)
	prevStart := ref.AddDate(0, -2*months, 0)
	previous, err := s.cacForWindow(orgID, prevStart, prevEnd)
	if err != nil {
		return 0, "", err
	}

	change := formulas.PercentChange(previous, current)
	trend := TrendStable
	switch {
	case change > cacTrendThresholdPct:
		trend = TrendIncreasing
	case change < -cacTrendThresholdPct:
		trend = TrendDecreasing
	}
	return current, trend, nil
}

func (s *Service) cacForWindow(orgID string, start, end time.Time) (float64, error) {
	aggregates, err := s.ledger.SumByCategory(orgID, start, end, stores.RecordKindExpense)
	if err != nil {
		return 0, fmt.Errorf("failed to load acquisition spend: %w", err)
	}
	var spend float64
	for _, agg := range aggregates {
		if acquisitionCategories[strings.ToLower(agg.Category)] {
			spend += agg.Amount
		}
	}

	newCustomers, err := s.customers.Find(orgID, stores.CustomerFilter{
		CreatedAfter:  &start,
		CreatedBefore: &end,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count new customers: %w", err)
	}
	if len(newCustomers) == 0 {
		return 0, nil
	}
	return spend / float64(len(newCustomers)), nil
}

// GrossMarginPct computes (revenue - cogs) / revenue over the trailing
// window, 0 when there is no revenue
func (s *Service) GrossMarginPct(orgID string, months int, ref time.Time) (float64, error) {
	start := ref.AddDate(0, -months, 0)

	revenueAggs, err := s.ledger.SumByCategory(orgID, start, ref, stores.RecordKindRevenue)
	if err != nil {
		return 0, fmt.Errorf("failed to load revenue: %w", err)
	}
	expenseAggs, err := s.ledger.SumByCategory(orgID, start, ref, stores.RecordKindExpense)
	if err != nil {
		return 0, fmt.Errorf("failed to load expenses: %w", err)
	}

	var revenue, cogs float64
	for _, agg := range revenueAggs {
		revenue += agg.Amount
	}
	for _, agg := range expenseAggs {
		if cogsCategories[strings.ToLower(agg.Category)] {
			cogs += agg.Amount
		}
	}
	if revenue == 0 {
		return 0, nil
	}
	return (revenue - cogs) / revenue * 100, nil
}

// ChurnRatePct returns churned-in-window customers over customers
// active at the window start
func (s *Service) ChurnRatePct(orgID string, start, end time.Time) (float64, error) {
	customers, err := s.customers.Find(orgID, stores.CustomerFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to load customers: %w", err)
	}

	activeAtStart := 0
	churnedInWindow := 0
	for _, c := range customers {
		if c.SubscriptionStart != nil && c.SubscriptionStart.Before(start) &&
			(c.SubscriptionEnd == nil || !c.SubscriptionEnd.Before(start)) {
			activeAtStart++
		}
		if c.SubscriptionEnd != nil && !c.SubscriptionEnd.Before(start) && !c.SubscriptionEnd.After(end) {
			churnedInWindow++
		}
	}

	if activeAtStart == 0 {
		return 0, nil
	}
	return float64(churnedInWindow) / float64(activeAtStart) * 100, nil
}

// Overview computes the full set of unit economics metrics
func (s *Service) Overview(orgID string, ref time.Time) (*Overview, error) {
	cac, cacTrend, err := s.CACWithTrend(orgID, DefaultCACWindowMonths, ref)
	if err != nil {
		return nil, err
	}

	grossMargin, err := s.GrossMarginPct(orgID, DefaultCACWindowMonths, ref)
	if err != nil {
		return nil, err
	}

	churn, err := s.ChurnRatePct(orgID, ref.AddDate(0, -1, 0), ref)
	if err != nil {
		return nil, err
	}

	customers, err := s.customers.Find(orgID, stores.CustomerFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	var mrr float64
	activeCount := 0
	var totalRevenue, totalMonths float64
	for _, c := range customers {
		if c.SubscriptionStatus != stores.SubscriptionActive {
			continue
		}
		activeCount++
		mrr += c.MonthlyValue
		totalRevenue += c.LifetimeRevenue
		totalMonths += lifespanMonths(c)
	}

	overview := &Overview{
		CAC:            formulas.Round2(cac),
		CACTrend:       cacTrend,
		ChurnRatePct:   formulas.Round2(churn),
		MRR:            formulas.Round2(mrr),
		ARR:            formulas.Round2(mrr * 12),
		GrossMarginPct: formulas.Round2(grossMargin),
	}

	if activeCount > 0 {
		overview.ActiveCustomers = activeCount
		overview.ARPU = formulas.Round2(mrr / float64(activeCount))
		overview.AverageLifespanMonths = formulas.Round2(totalMonths / float64(activeCount))
	}

	if totalMonths > 0 {
		averageMonthlyRevenue := totalRevenue / totalMonths
		overview.LTV = formulas.Round2(averageMonthlyRevenue * overview.AverageLifespanMonths * grossMargin / 100)
	}

	if cac > 0 {
		overview.LTVCACRatio = formulas.Round2(overview.LTV / cac)
	}

	overview.PaybackMonths = paybackMonths(cac, overview.ARPU, grossMargin)
	overview.Metrics = benchmarkMetrics(overview)

	return overview, nil
}

// lifespanMonths estimates a customer's lifetime in months from first
// purchase to last activity, floored at one month
func lifespanMonths(c stores.Customer) float64 {
	if c.FirstPurchaseAt == nil || c.LastActivityAt == nil {
		return 1
	}
	days := c.LastActivityAt.Sub(*c.FirstPurchaseAt).Hours() / 24
	months := days / 30
	if months < 1 {
		return 1
	}
	return months
}

// paybackMonths is CAC over monthly gross profit per customer, with
// the 999 sentinel when that profit is zero or negative
func paybackMonths(cac, monthlyRevenuePerCustomer, grossMarginPct float64) float64 {
	monthlyGrossProfit := monthlyRevenuePerCustomer * grossMarginPct / 100
	if monthlyGrossProfit <= 0 {
		return PaybackInfiniteMonths
	}
	return formulas.Round2(cac / monthlyGrossProfit)
}

// benchmarkMetrics attaches above/below/at comparisons used both for
// display and by the health scorer
func benchmarkMetrics(o *Overview) []Metric {
	return []Metric{
		{
			Name:       "ltv_cac_ratio",
			Value:      o.LTVCACRatio,
			Benchmark:  BenchmarkLTVCACRatio,
			Comparison: compare(o.LTVCACRatio, BenchmarkLTVCACRatio),
		},
		{
			Name:       "payback_months",
			Value:      o.PaybackMonths,
			Unit:       "months",
			Benchmark:  BenchmarkPaybackMonths,
			// Shorter payback is better, so the comparison inverts.
			Comparison: compare(BenchmarkPaybackMonths, o.PaybackMonths),
		},
		{
			Name:       "churn_rate",
			Value:      o.ChurnRatePct,
			Unit:       "%",
			Benchmark:  BenchmarkChurnRatePct,
			// Lower churn is better.
			Comparison: compare(BenchmarkChurnRatePct, o.ChurnRatePct),
		},
		{
			Name:       "gross_margin",
			Value:      o.GrossMarginPct,
			Unit:       "%",
			Benchmark:  BenchmarkGrossMarginPct,
			Comparison: compare(o.GrossMarginPct, BenchmarkGrossMarginPct),
		},
	}
}

func compare(value, benchmark float64) BenchmarkComparison {
	switch {
	case value > benchmark:
		return ComparisonAbove
	case value < benchmark:
		return ComparisonBelow
	default:
		return ComparisonAt
	}
}
