package formulas

import "math"

// PercentChange returns the percentage change from old to new.
// Defined as 0 when old is 0 so callers never see NaN or Inf.
func PercentChange(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return (new - old) / old * 100
}

// CompoundGrowthRate solves the per-period compound growth rate (as a
// percentage) from the first value, the last value, and the number of
// periods between them:
//
//	rate = (last/first)^(1/periods) - 1
//
// Returns 0 unless both endpoints are strictly positive and at least
// one period has elapsed. With monthly periods this is the CMGR.
func CompoundGrowthRate(first, last float64, periods int) float64 {
	if first <= 0 || last <= 0 || periods < 1 {
		return 0
	}
	return (math.Pow(last/first, 1/float64(periods)) - 1) * 100
}
