package trends

import (
	"github.com/finpulse/finpulse/pkg/formulas"
)

// Correlation strength boundaries (Pearson coefficient)
const (
	strongBound   = 0.7
	moderateBound = 0.3
)

// Correlate computes the pairwise Pearson correlation between every
// pair of the given analyses. Series of different lengths are aligned
// by truncating the longer one.
func Correlate(analyses []*Analysis) []Correlation {
	var out []Correlation
	for i := 0; i < len(analyses); i++ {
		for j := i + 1; j < len(analyses); j++ {
			coeff := correlatePair(analyses[i], analyses[j])
			out = append(out, Correlation{
				MetricA:     analyses[i].Type,
				MetricB:     analyses[j].Type,
				Coefficient: formulas.Round2(coeff),
				Strength:    classifyStrength(coeff),
			})
		}
	}
	return out
}

func correlatePair(a, b *Analysis) float64 {
	n := len(a.DataPoints)
	if len(b.DataPoints) < n {
		n = len(b.DataPoints)
	}
	if n == 0 {
		return 0
	}

	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = a.DataPoints[i].Value
		y[i] = b.DataPoints[i].Value
	}
	return formulas.Correlation(x, y)
}

func classifyStrength(coeff float64) CorrelationStrength {
	switch {
	case coeff >= strongBound:
		return StrongPositive
	case coeff >= moderateBound:
		return ModeratePositive
	case coeff >= -moderateBound:
		return WeakOrNone
	case coeff >= -strongBound:
		return ModerateNegative
	default:
		return StrongNegative
	}
}
