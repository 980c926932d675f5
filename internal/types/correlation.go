package types

import "math"

// CorrelationKey identifies one row of a correlation matrix.
type CorrelationKey struct {
	Symbol    string
	Timeframe Timeframe
}

// CorrelationMatrix holds pairwise Pearson correlation coefficients of
// closing prices, keyed by (symbol, timeframe). Each row maps the other
// symbols of the request (plus the symbol itself) to a coefficient in
// [-1, 1]. Undefined coefficients (zero variance or fewer than two
// overlapping observations) are stored as NaN and excluded from
// aggregate statistics.
type CorrelationMatrix map[CorrelationKey]map[string]float64

// Correlation returns the coefficient between two symbols on a timeframe.
// The second return value is false if the pair is absent or undefined.
func (m CorrelationMatrix) Correlation(timeframe Timeframe, a, b string) (float64, bool) {
	row, ok := m[CorrelationKey{Symbol: a, Timeframe: timeframe}]
	if !ok {
		return 0, false
	}

	coeff, ok := row[b]
	if !ok || math.IsNaN(coeff) {
		return 0, false
	}

	return coeff, true
}

// AverageCorrelation returns the mean correlation of symbol against all
// other symbols in its rows, averaged across the given timeframes.
// Self-correlation is excluded, not merely counted as 1. Undefined (NaN)
// coefficients are skipped. The second return value is false when no
// defined coefficient exists at all.
func (m CorrelationMatrix) AverageCorrelation(symbol string, timeframes []Timeframe) (float64, bool) {
	sum := 0.0
	n := 0

	for _, tf := range timeframes {
		row, ok := m[CorrelationKey{Symbol: symbol, Timeframe: tf}]
		if !ok {
			continue
		}

		for other, coeff := range row {
			if other == symbol || math.IsNaN(coeff) {
				continue
			}

			sum += coeff
			n++
		}
	}

	if n == 0 {
		return 0, false
	}

	return sum / float64(n), true
}
