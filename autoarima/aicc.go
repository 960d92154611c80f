package autoarima

import "math"

// AICc applies the small-sample correction of Burnham and Anderson (2004) to
// a raw AIC for an ARIMA(p, d, q) model estimated on n observations. The
// effective parameter count is p + q, plus one for the constant when present,
// plus one for the innovation variance. Returns +Inf when the correction
// denominator n - m - 1 is not positive; callers must treat that as an
// unusable candidate, not an error.
func AICc(aic float64, p, q int, hasConstant bool, n int) float64 {
	k := 0
	if hasConstant {
		k = 1
	}
	m := float64(p + q + k + 1)
	den := float64(n) - m - 1
	if den <= 0 {
		return math.Inf(1)
	}
	return aic + 2*m*(m+1)/den
}
