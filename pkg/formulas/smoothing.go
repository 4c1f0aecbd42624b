package formulas

import (
	"github.com/markcheno/go-talib"
)

// MovingAverage computes a trailing simple moving average over values.
// The result has one entry per input point; entries before the window
// has filled (index < window-1) are nil. The average is always taken
// over the raw values, never over previously smoothed ones.
func MovingAverage(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if window < 1 || len(values) < window {
		return out
	}

	sma := talib.Sma(values, window)
	for i := window - 1; i < len(sma); i++ {
		if isNaN(sma[i]) {
			continue
		}
		v := sma[i]
		out[i] = &v
	}
	return out
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
