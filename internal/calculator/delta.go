package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits shown to users for rates and deltas.
const Places = 1

// Diff returns cur - prev computed on the shortest decimal representation of
// both floats, so 91.2 - 90.0 is exactly 1.2.
func Diff(prev, cur float64) decimal.Decimal {
	return decimal.NewFromFloat(cur).Sub(decimal.NewFromFloat(prev))
}

// FormatRate renders v with one fractional digit, rounding half away from zero.
func FormatRate(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(Places)
}

// FormatAbs renders |d| with one fractional digit, rounding half away from zero.
func FormatAbs(d decimal.Decimal) string {
	return d.Abs().StringFixed(Places)
}
