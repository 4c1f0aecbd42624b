package health

import (
	"time"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/modules/trends"
	"github.com/finpulse/finpulse/internal/modules/uniteconomics"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// trailingMonths is the lookback used by the trend-based scorers.
const trailingMonths = 6

// burnLookbackMonths is the averaging window for the runway estimate.
const burnLookbackMonths = 3

// scoreRunway bands the months of runway left at the current net burn.
// With no cash and no ledger activity there is nothing to judge, so the
// category stays at a neutral 50.
func (c *Composer) scoreRunway(orgID string, ref time.Time) (CategoryScore, error) {
	balance, err := c.bank.CurrentBalance(orgID)
	if err != nil {
		return CategoryScore{}, err
	}

	end := firstOfMonth(ref)
	start := end.AddDate(0, -burnLookbackMonths, 0)
	expenses, err := c.ledger.SumTotal(orgID, start, end, stores.RecordKindExpense)
	if err != nil {
		return CategoryScore{}, err
	}
	revenue, err := c.ledger.SumTotal(orgID, start, end, stores.RecordKindRevenue)
	if err != nil {
		return CategoryScore{}, err
	}

	if balance == 0 && expenses == 0 && revenue == 0 {
		return c.neutral(CategoryRunway), nil
	}

	monthlyBurn := (expenses - revenue) / burnLookbackMonths
	score := CategoryScore{
		Category: CategoryRunway,
		Metrics: []MetricValue{
			{Name: "cash_balance", Value: formulas.Round2(balance)},
			{Name: "monthly_burn", Value: formulas.Round2(monthlyBurn)},
		},
	}

	if monthlyBurn <= 0 {
		// Profitable or break-even: runway is not the constraint.
		score.Score = 100
		return c.finish(score), nil
	}

	months := balance / monthlyBurn
	score.Metrics = append(score.Metrics, MetricValue{Name: "runway_months", Value: formulas.Round2(months), Unit: "months"})
	score.Score = bandDescending(months, []band{
		{24, 100}, {18, 90}, {12, 75}, {6, 50}, {3, 25},
	}, 10)

	switch {
	case months < 6:
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryRunway,
			Priority: PriorityHigh,
			Message:  "Runway is under 6 months. Cut burn or start a raise now.",
		})
	case months < 12:
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryRunway,
			Priority: PriorityMedium,
			Message:  "Runway is under 12 months. Plan the next funding round.",
		})
	}
	return c.finish(score), nil
}

// scoreBurnRate scores the direction of the burn trend, not its size.
func (c *Composer) scoreBurnRate(orgID string, ref time.Time) (CategoryScore, error) {
	analysis, err := c.trends.Analyze(orgID, trends.MetricBurnRate, periods.Monthly, trailingWindow(ref))
	if err != nil {
		return CategoryScore{}, err
	}

	score := CategoryScore{
		Category: CategoryBurnRate,
		Metrics: []MetricValue{
			{Name: "average_burn", Value: formulas.Round2(analysis.AverageValue)},
			{Name: "burn_volatility", Value: formulas.Round2(analysis.Volatility), Unit: "%"},
		},
	}

	switch analysis.Direction {
	case trends.DirectionDecreasing:
		score.Score = 85
	case trends.DirectionStable:
		score.Score = 70
	case trends.DirectionIncreasing:
		score.Score = 40
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryBurnRate,
			Priority: PriorityHigh,
			Message:  "Burn is trending up. Review the largest expense categories.",
		})
	default:
		score.Score = 30
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryBurnRate,
			Priority: PriorityMedium,
			Message:  "Burn is volatile month to month. Smooth out one-off spend.",
		})
	}
	return c.finish(score), nil
}

// scoreRevenueGrowth bands the compound growth rate of revenue over the
// trailing six months.
func (c *Composer) scoreRevenueGrowth(orgID string, ref time.Time) (CategoryScore, error) {
	analysis, err := c.trends.Analyze(orgID, trends.MetricRevenue, periods.Monthly, trailingWindow(ref))
	if err != nil {
		return CategoryScore{}, err
	}

	growth := analysis.GrowthRate
	score := CategoryScore{
		Category: CategoryRevenueGrowth,
		Metrics: []MetricValue{
			{Name: "growth_rate", Value: formulas.Round2(growth), Unit: "%"},
			{Name: "average_revenue", Value: formulas.Round2(analysis.AverageValue)},
		},
		Score: bandDescending(growth, []band{
			{20, 100}, {10, 85}, {5, 70}, {0, 50}, {-5, 30},
		}, 10),
	}

	switch {
	case growth < 0:
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryRevenueGrowth,
			Priority: PriorityHigh,
			Message:  "Revenue is shrinking. Investigate churn and pipeline health.",
		})
	case growth < 5:
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryRevenueGrowth,
			Priority: PriorityMedium,
			Message:  "Revenue growth is flat. Revisit pricing and expansion motion.",
		})
	}
	return c.finish(score), nil
}

// scoreGrossMargin bands the average gross margin over the trailing six
// months.
func (c *Composer) scoreGrossMargin(orgID string, ref time.Time) (CategoryScore, error) {
	analysis, err := c.trends.Analyze(orgID, trends.MetricGrossMargin, periods.Monthly, trailingWindow(ref))
	if err != nil {
		return CategoryScore{}, err
	}

	margin := analysis.AverageValue
	score := CategoryScore{
		Category: CategoryGrossMargin,
		Metrics: []MetricValue{
			{Name: "average_gross_margin", Value: formulas.Round2(margin), Unit: "%"},
		},
		Score: bandDescending(margin, []band{
			{80, 100}, {70, 85}, {60, 70}, {50, 50}, {40, 30},
		}, 10),
	}

	if margin < 50 {
		priority := PriorityMedium
		if margin < 40 {
			priority = PriorityHigh
		}
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryGrossMargin,
			Priority: priority,
			Message:  "Gross margin is below the healthy range. Review COGS and pricing.",
		})
	}
	return c.finish(score), nil
}

// scoreLiquidity bands cash on hand against the last full month's
// expenses.
func (c *Composer) scoreLiquidity(orgID string, ref time.Time) (CategoryScore, error) {
	balance, err := c.bank.CurrentBalance(orgID)
	if err != nil {
		return CategoryScore{}, err
	}

	monthEnd := firstOfMonth(ref)
	monthStart := monthEnd.AddDate(0, -1, 0)
	expenses, err := c.ledger.SumTotal(orgID, monthStart, monthEnd, stores.RecordKindExpense)
	if err != nil {
		return CategoryScore{}, err
	}

	score := CategoryScore{
		Category: CategoryLiquidity,
		Metrics: []MetricValue{
			{Name: "cash_balance", Value: formulas.Round2(balance)},
			{Name: "last_month_expenses", Value: formulas.Round2(expenses)},
		},
	}

	if expenses == 0 {
		if balance > 0 {
			score.Score = 100
			return c.finish(score), nil
		}
		return c.neutral(CategoryLiquidity), nil
	}

	cashRatio := balance / expenses
	score.Metrics = append(score.Metrics, MetricValue{Name: "cash_ratio", Value: formulas.Round2(cashRatio)})
	score.Score = bandDescending(cashRatio, []band{
		{12, 100}, {6, 80}, {3, 60}, {1, 30},
	}, 10)

	if cashRatio < 3 {
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryLiquidity,
			Priority: PriorityHigh,
			Message:  "Less than three months of expenses in cash. Shore up liquidity.",
		})
	}
	return c.finish(score), nil
}

// scoreEfficiency bands last month's revenue against last month's
// expenses.
func (c *Composer) scoreEfficiency(orgID string, ref time.Time) (CategoryScore, error) {
	monthEnd := firstOfMonth(ref)
	monthStart := monthEnd.AddDate(0, -1, 0)

	revenue, err := c.ledger.SumTotal(orgID, monthStart, monthEnd, stores.RecordKindRevenue)
	if err != nil {
		return CategoryScore{}, err
	}
	expenses, err := c.ledger.SumTotal(orgID, monthStart, monthEnd, stores.RecordKindExpense)
	if err != nil {
		return CategoryScore{}, err
	}

	score := CategoryScore{
		Category: CategoryEfficiency,
		Metrics: []MetricValue{
			{Name: "last_month_revenue", Value: formulas.Round2(revenue)},
			{Name: "last_month_expenses", Value: formulas.Round2(expenses)},
		},
	}

	if expenses == 0 {
		if revenue > 0 {
			score.Score = 100
			return c.finish(score), nil
		}
		return c.neutral(CategoryEfficiency), nil
	}

	ratio := revenue / expenses
	score.Metrics = append(score.Metrics, MetricValue{Name: "efficiency_ratio", Value: formulas.Round2(ratio)})
	score.Score = bandDescending(ratio, []band{
		{1.5, 100}, {1.0, 80}, {0.75, 60}, {0.5, 40},
	}, 20)

	if ratio < 0.75 {
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryEfficiency,
			Priority: PriorityMedium,
			Message:  "Spending well ahead of revenue. Tie new spend to revenue milestones.",
		})
	}
	return c.finish(score), nil
}

// scoreUnitEconomics starts at 50 and moves 10 points per benchmark
// comparison. A failure in the underlying computation degrades to the
// neutral score instead of failing the whole composition.
func (c *Composer) scoreUnitEconomics(orgID string, ref time.Time) (CategoryScore, error) {
	overview, err := c.economics.Overview(orgID, ref)
	if err != nil {
		c.log.Warn().Err(err).Str("org", orgID).Msg("Unit economics unavailable, scoring neutral")
		return c.neutral(CategoryUnitEconomics), nil
	}

	value := 50.0
	score := CategoryScore{Category: CategoryUnitEconomics}
	for _, m := range overview.Metrics {
		switch m.Comparison {
		case uniteconomics.ComparisonAbove:
			value += 10
		case uniteconomics.ComparisonBelow:
			value -= 10
		}
		score.Metrics = append(score.Metrics, MetricValue{Name: m.Name, Value: m.Value, Unit: m.Unit})
	}
	score.Score = formulas.Clamp(value, 0, 100)

	if score.Score < 50 {
		score.Recommendations = append(score.Recommendations, Recommendation{
			Category: CategoryUnitEconomics,
			Priority: PriorityMedium,
			Message:  "Unit economics lag benchmarks. Focus on CAC payback and churn.",
		})
	}
	return c.finish(score), nil
}

// band is one step of a descending score table: value >= Above scores
// Score.
type band struct {
	Above float64
	Score float64
}

func bandDescending(value float64, bands []band, floor float64) float64 {
	for _, b := range bands {
		if value >= b.Above {
			return b.Score
		}
	}
	return floor
}

// neutral is the 50-point score used when a category has no data to
// judge or its inputs failed.
func (c *Composer) neutral(category Category) CategoryScore {
	return c.finish(CategoryScore{Category: category, Score: 50})
}

// finish fills the weight, weighted score and status from the raw score.
func (c *Composer) finish(score CategoryScore) CategoryScore {
	score.Weight = categoryWeights[score.Category]
	score.WeightedScore = formulas.Round2(score.Score * score.Weight / 100)
	score.Status = StatusFor(score.Score)
	return score
}

func trailingWindow(ref time.Time) periods.Range {
	return periods.Range{
		Start: firstOfMonth(ref).AddDate(0, -(trailingMonths - 1), 0),
		End:   ref,
	}
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
