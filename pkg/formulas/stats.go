package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divides by N,
// not N-1). Trend volatility is defined over the full observed series,
// not a sample of it.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := stat.Mean(data, nil)
	var sumSq float64
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)))
}

// CoefficientOfVariation returns population std dev / mean as a
// percentage. Returns 0 when the mean is 0.
func CoefficientOfVariation(data []float64) float64 {
	mean := Mean(data)
	if mean == 0 {
		return 0
	}
	return PopStdDev(data) / mean * 100
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Min returns the smallest value in the slice, 0 for an empty slice
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	min := data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest value in the slice, 0 for an empty slice
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	max := data[0]
	for _, v := range data[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Clamp constrains v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round2 rounds to 2 decimal places
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
