// Package periods turns date ranges and granularities into aligned
// period buckets. Every other analytics module builds its series on
// top of these boundaries, so the functions here are pure: no clock
// access, no stores, no side effects.
package periods

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned for a custom date range whose start falls
// after its end
var ErrInvalidRange = errors.New("invalid date range: start is after end")

// Granularity is the step between period boundaries
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
)

// PeriodType names a reporting window
type PeriodType string

const (
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
	PeriodYearly    PeriodType = "yearly"
	PeriodYTD       PeriodType = "ytd"
	PeriodCustom    PeriodType = "custom"
)

// Range is an inclusive date window
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// GeneratePeriods returns the ordered period-start dates covering
// [start, end]. The cursor advances by one day, seven days, one
// calendar month or three calendar months and stops once it passes
// end; a cursor landing exactly on end is included.
func GeneratePeriods(start, end time.Time, g Granularity) []time.Time {
	start = truncateToDay(start)
	end = truncateToDay(end)

	var starts []time.Time
	cursor := start
	for !cursor.After(end) {
		starts = append(starts, cursor)
		switch g {
		case Daily:
			cursor = cursor.AddDate(0, 0, 1)
		case Weekly:
			cursor = cursor.AddDate(0, 0, 7)
		case Quarterly:
			cursor = cursor.AddDate(0, 3, 0)
		default: // monthly
			cursor = cursor.AddDate(0, 1, 0)
		}
	}
	return starts
}

// PeriodEnd returns the last day covered by the period starting at
// periodStart
func PeriodEnd(periodStart time.Time, g Granularity) time.Time {
	switch g {
	case Daily:
		return periodStart
	case Weekly:
		return periodStart.AddDate(0, 0, 6)
	case Quarterly:
		return periodStart.AddDate(0, 3, 0).AddDate(0, 0, -1)
	default:
		return periodStart.AddDate(0, 1, 0).AddDate(0, 0, -1)
	}
}

// DateRangeFor resolves a named period type into a concrete window.
// ref supplies "now" so callers control the clock. For PeriodCustom
// both bounds are required together; if only one is given the yearly
// default is used instead of erroring, while a complete but inverted
// custom range is rejected.
func DateRangeFor(ref time.Time, fiscalYear int, pt PeriodType, customStart, customEnd *time.Time) (Range, error) {
	switch pt {
	case PeriodMonthly:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 1, 0).AddDate(0, 0, -1)}, nil

	case PeriodQuarterly:
		quarterStartMonth := time.Month((int(ref.Month())-1)/3*3 + 1)
		start := time.Date(ref.Year(), quarterStartMonth, 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 3, 0).AddDate(0, 0, -1)}, nil

	case PeriodYTD:
		return Range{
			Start: time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   truncateToDay(ref),
		}, nil

	case PeriodCustom:
		if customStart != nil && customEnd != nil {
			start, end := truncateToDay(*customStart), truncateToDay(*customEnd)
			if start.After(end) {
				return Range{}, ErrInvalidRange
			}
			return Range{Start: start, End: end}, nil
		}
		// Partial custom bounds fall back to the fiscal year default.
		return yearRange(fiscalYear), nil

	default: // yearly
		return yearRange(fiscalYear), nil
	}
}

// MonthsIn returns the 1-based calendar months of fiscalYear that
// overlap the window
func MonthsIn(r Range, fiscalYear int) []int {
	var months []int
	for m := 1; m <= 12; m++ {
		monthStart := time.Date(fiscalYear, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		monthEnd := monthStart.AddDate(0, 1, 0).AddDate(0, 0, -1)
		if !monthEnd.Before(r.Start) && !monthStart.After(r.End) {
			months = append(months, m)
		}
	}
	return months
}

func yearRange(fiscalYear int) Range {
	return Range{
		Start: time.Date(fiscalYear, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(fiscalYear, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
