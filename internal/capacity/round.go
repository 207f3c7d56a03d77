package capacity

import "github.com/shopspring/decimal"

// Round2 rounds hours to two decimals, half away from zero. Going through the
// shortest decimal representation keeps sums such as 1.005 from rounding down.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// sumHours adds hour figures exactly and rounds the result.
func sumHours(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

func clampZero(x float64) float64 {
	if x < 0 {
		return 0
	}
	return x
}
