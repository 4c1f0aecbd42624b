package uniteconomics

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/internal/stores"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// AnalyzeCohorts builds the retention matrix for the trailing
// cohortCount periods ending at ref. Customers are grouped by the
// period of their creation date; cohorts that acquired nobody are
// skipped entirely rather than emitted as zero rows.
func (s *Service) AnalyzeCohorts(orgID string, g periods.Granularity, cohortCount, retentionPeriods int, ref time.Time) (*CohortAnalysis, error) {
	if cohortCount < 1 {
		cohortCount = 1
	}
	if cohortCount > MaxCohortMonths {
		cohortCount = MaxCohortMonths
	}
	if retentionPeriods < 0 {
		retentionPeriods = 0
	}
	if retentionPeriods > MaxCohortMonths {
		retentionPeriods = MaxCohortMonths
	}

	windowStart := stepBack(alignPeriod(ref, g), g, cohortCount-1)
	customers, err := s.customers.Find(orgID, stores.CustomerFilter{CreatedAfter: &windowStart})
	if err != nil {
		return nil, fmt.Errorf("failed to load cohort customers: %w", err)
	}

	byPeriod := make(map[time.Time][]stores.Customer)
	for _, c := range customers {
		key := alignPeriod(c.CreatedAt, g)
		byPeriod[key] = append(byPeriod[key], c)
	}

	analysis := &CohortAnalysis{PeriodType: g}
	cohortStarts := periods.GeneratePeriods(windowStart, alignPeriod(ref, g), g)

	for _, start := range cohortStarts {
		members := byPeriod[start]
		if len(members) == 0 {
			continue
		}
		cohort := buildCohort(members, start, g, retentionPeriods, ref)
		analysis.Cohorts = append(analysis.Cohorts, cohort)
	}

	analysis.BestCohort, analysis.WorstCohort = rankCohorts(analysis.Cohorts)
	return analysis, nil
}

func buildCohort(members []stores.Customer, start time.Time, g periods.Granularity, retentionPeriods int, ref time.Time) Cohort {
	cohort := Cohort{
		CohortID:      uuid.NewString(),
		CohortPeriod:  start,
		PeriodType:    g,
		CustomerCount: len(members),
	}

	elapsed := periodsElapsed(start, ref, g)
	maxPeriod := retentionPeriods
	if elapsed < maxPeriod {
		maxPeriod = elapsed
	}

	for p := 0; p <= maxPeriod; p++ {
		periodStart := stepForward(start, g, p)
		periodEnd := periods.PeriodEnd(periodStart, g)

		active := 0
		var revenue float64
		for _, c := range members {
			if isRetained(c, periodStart, periodEnd) {
				active++
				revenue += c.MonthlyValue
			}
		}

		row := CohortRetention{
			PeriodNumber:     p,
			ActiveCustomers:  active,
			RetentionRatePct: formulas.Round2(float64(active) / float64(len(members)) * 100),
			Revenue:          formulas.Round2(revenue),
		}
		if active > 0 {
			row.AverageRevenuePerCustomer = formulas.Round2(revenue / float64(active))
		}
		cohort.Retention = append(cohort.Retention, row)
		cohort.CumulativeRevenue += revenue
	}

	cohort.CumulativeRevenue = formulas.Round2(cohort.CumulativeRevenue)
	if len(cohort.Retention) > 0 {
		cohort.InitialRevenue = cohort.Retention[0].Revenue
	}
	cohort.AverageLTV = formulas.Round2(cohort.CumulativeRevenue / float64(len(members)))

	return cohort
}

// isRetained reports whether the customer still counts as active for a
// retention period: an active subscription or a purchase on or after
// the period start, and no churn before the period end
func isRetained(c stores.Customer, periodStart, periodEnd time.Time) bool {
	if c.SubscriptionEnd != nil && c.SubscriptionEnd.Before(periodEnd) {
		return false
	}
	if c.SubscriptionStatus == stores.SubscriptionActive {
		return true
	}
	return c.LastActivityAt != nil && !c.LastActivityAt.Before(periodStart)
}

// rankCohorts picks the best and worst cohorts by average LTV,
// ignoring cohorts that produced no revenue at all
func rankCohorts(cohorts []Cohort) (best, worst *Cohort) {
	for i := range cohorts {
		c := &cohorts[i]
		if c.AverageLTV == 0 {
			continue
		}
		if best == nil || c.AverageLTV > best.AverageLTV {
			best = c
		}
		if worst == nil || c.AverageLTV < worst.AverageLTV {
			worst = c
		}
	}
	return best, worst
}

// alignPeriod truncates t to the start of its period
func alignPeriod(t time.Time, g periods.Granularity) time.Time {
	switch g {
	case periods.Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case periods.Weekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		// Weeks start on Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case periods.Quarterly:
		quarterStartMonth := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), quarterStartMonth, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
}

func stepForward(t time.Time, g periods.Granularity, n int) time.Time {
	switch g {
	case periods.Daily:
		return t.AddDate(0, 0, n)
	case periods.Weekly:
		return t.AddDate(0, 0, 7*n)
	case periods.Quarterly:
		return t.AddDate(0, 3*n, 0)
	default:
		return t.AddDate(0, n, 0)
	}
}

func stepBack(t time.Time, g periods.Granularity, n int) time.Time {
	return stepForward(t, g, -n)
}

// periodsElapsed counts whole periods between the cohort start and ref
func periodsElapsed(start, ref time.Time, g periods.Granularity) int {
	count := 0
	cursor := stepForward(start, g, 1)
	for !cursor.After(ref) {
		count++
		cursor = stepForward(cursor, g, 1)
	}
	return count
}
