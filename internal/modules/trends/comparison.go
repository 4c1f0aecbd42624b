package trends

import (
	"time"

	"github.com/finpulse/finpulse/internal/modules/periods"
	"github.com/finpulse/finpulse/pkg/formulas"
)

// ComparePeriods computes the trend for the most recent n periods and
// for the n periods immediately before them, and reports the shift in
// their average values. ref supplies "now".
func (s *Service) ComparePeriods(orgID string, metric MetricType, g periods.Granularity, n int, ref time.Time) (*PeriodComparison, error) {
	if n < 1 {
		n = 1
	}

	currentEnd := ref
	currentStart := stepBack(ref, g, n-1)
	previousEnd := stepBack(currentStart, g, 1)
	previousStart := stepBack(currentStart, g, n)

	current, err := s.Analyze(orgID, metric, g, periods.Range{Start: currentStart, End: currentEnd})
	if err != nil {
		return nil, err
	}
	previous, err := s.Analyze(orgID, metric, g, periods.Range{Start: previousStart, End: previousEnd})
	if err != nil {
		return nil, err
	}

	delta := current.AverageValue - previous.AverageValue
	return &PeriodComparison{
		Type:            metric,
		PeriodType:      g,
		Periods:         n,
		CurrentAverage:  current.AverageValue,
		PreviousAverage: previous.AverageValue,
		Delta:           formulas.Round2(delta),
		DeltaPercent:    formulas.Round2(formulas.PercentChange(previous.AverageValue, current.AverageValue)),
		Current:         current,
		Previous:        previous,
	}, nil
}

func stepBack(t time.Time, g periods.Granularity, n int) time.Time {
	switch g {
	case periods.Daily:
		return t.AddDate(0, 0, -n)
	case periods.Weekly:
		return t.AddDate(0, 0, -7*n)
	case periods.Quarterly:
		return t.AddDate(0, -3*n, 0)
	default:
		return t.AddDate(0, -n, 0)
	}
}
