// Package stats provides statistical tests and analysis functions for time series.
package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/hnnhvwht/hyndman-khandakar/timeseries"
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64 // Critical values at 1%, 5%, 10%
	IsStationary bool
}

// ADF performs the Augmented Dickey-Fuller test for a unit root.
// The null hypothesis is that the series has a unit root (is non-stationary).
// If p-value < 0.05, we reject the null and conclude the series is stationary.
// Returns nil when the series is too short or the regression is degenerate.
func ADF(series *timeseries.Series, maxLag int) *ADFResult {
	n := series.Len()
	if n < 10 {
		return nil
	}

	// Default lag selection: floor((n-1)^(1/3))
	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := series.Diff()

	// Regression: delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i}) + eps.
	// A unit root corresponds to beta = 0; stationarity to beta < 0.
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil
	}

	k := 2 + maxLag
	x := mat.NewDense(nObs, k, nil)
	y := mat.NewVecDense(nObs, nil)

	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y.SetVec(i, diff.Values[t])
		x.Set(i, 0, 1)                // constant
		x.Set(i, 1, series.Values[t]) // lagged level
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff.Values[t-j]) // lagged differences
		}
	}

	coeffs, se, err := olsRegression(x, y)
	if err != nil || len(coeffs) < 2 || len(se) < 2 || se[1] == 0 {
		return nil
	}

	// Test statistic is the t-stat for the lagged level coefficient.
	tStat := coeffs[1] / se[1]

	criticalVals := map[string]float64{
		"1%":  -3.43,
		"5%":  -2.86,
		"10%": -2.57,
	}

	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         maxLag,
		NObs:         nObs,
		CriticalVals: criticalVals,
		IsStationary: pValue < 0.05,
	}
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is stationary.
// If p-value < 0.05, we reject the null and conclude the series is non-stationary.
// regression selects the null: "c" for level stationarity, "ct" for trend
// stationarity. Returns nil when the series is too short.
func KPSS(series *timeseries.Series, regression string, nlags int) *KPSSResult {
	n := series.Len()
	if n < 10 {
		return nil
	}

	// Default lag selection
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}

	residuals := make([]float64, n)

	if regression == "ct" {
		// Remove a linear trend: y = a + b*t + residual.
		ts := make([]float64, n)
		for i := range ts {
			ts[i] = float64(i)
		}
		a, b := stat.LinearRegression(ts, series.Values, nil, false)
		for i, v := range series.Values {
			residuals[i] = v - a - b*float64(i)
		}
	} else {
		mean := stat.Mean(series.Values, nil)
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	// Partial sums of the residuals
	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	// Long-run variance estimator (Newey-West with Bartlett weights)
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)

	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}

	if s2 <= 0 {
		s2 = 1e-10
	}

	etaSq := 0.0
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	kpssStat := etaSq / (float64(n) * float64(n) * s2)

	var criticalVals map[string]float64
	if regression == "ct" {
		criticalVals = map[string]float64{
			"10%": 0.119,
			"5%":  0.146,
			"1%":  0.216,
		}
	} else {
		criticalVals = map[string]float64{
			"10%": 0.347,
			"5%":  0.463,
			"1%":  0.739,
		}
	}

	pValue := kpssPValue(kpssStat, regression)

	// Null is stationarity, so the series passes when we fail to reject.
	return &KPSSResult{
		Statistic:    kpssStat,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: criticalVals,
		IsStationary: pValue >= 0.05,
	}
}

// PhillipsPerronResult represents the result of a Phillips-Perron test.
type PhillipsPerronResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// PhillipsPerron performs the Phillips-Perron test for a unit root.
// Similar to ADF but corrects the statistic for serial correlation
// non-parametrically instead of adding lagged difference terms.
func PhillipsPerron(series *timeseries.Series, nlags int) *PhillipsPerronResult {
	n := series.Len()
	if n < 10 {
		return nil
	}

	if nlags <= 0 {
		nlags = int(math.Floor(4 * math.Pow(float64(n)/100, 0.25)))
	}

	diff := series.Diff()

	// OLS: delta_y_t = alpha + beta * y_{t-1} + eps
	nObs := n - 1
	x := mat.NewDense(nObs, 2, nil)
	y := mat.NewVecDense(nObs, nil)
	for i := 0; i < nObs; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, series.Values[i])
		y.SetVec(i, diff.Values[i])
	}

	coeffs, se, err := olsRegression(x, y)
	if err != nil || len(coeffs) < 2 || len(se) < 2 || se[1] == 0 {
		return nil
	}

	residuals := make([]float64, nObs)
	for i := 0; i < nObs; i++ {
		residuals[i] = y.AtVec(i) - coeffs[0] - coeffs[1]*x.At(i, 1)
	}

	// Short- and long-run variance estimates (Newey-West)
	gamma0 := 0.0
	for _, r := range residuals {
		gamma0 += r * r
	}
	gamma0 /= float64(nObs)

	lambda2 := gamma0
	for l := 1; l <= nlags; l++ {
		gammaL := 0.0
		for i := l; i < nObs; i++ {
			gammaL += residuals[i] * residuals[i-l]
		}
		gammaL /= float64(nObs)
		weight := 1.0 - float64(l)/float64(nlags+1)
		lambda2 += 2 * weight * gammaL
	}
	if lambda2 <= 0 {
		return nil
	}

	tStat := coeffs[1] / se[1]

	xMean := stat.Mean(series.Values[:nObs], nil)
	sumXDev2 := 0.0
	for i := 0; i < nObs; i++ {
		d := x.At(i, 1) - xMean
		sumXDev2 += d * d
	}
	if sumXDev2 == 0 {
		return nil
	}

	correction := (lambda2 - gamma0) * math.Sqrt(float64(nObs)) /
		(2 * math.Sqrt(lambda2) * math.Sqrt(sumXDev2))
	ppStat := math.Sqrt(gamma0/lambda2)*tStat - correction

	pValue := mackinnonPValue(ppStat)

	return &PhillipsPerronResult{
		Statistic: ppStat,
		PValue:    pValue,
		Lags:      nlags,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		IsStationary: pValue < 0.05,
	}
}

// olsRegression performs ordinary least squares via QR decomposition.
// Returns the coefficients and their standard errors.
func olsRegression(x *mat.Dense, y *mat.VecDense) (coeffs, stdErrors []float64, err error) {
	n, k := x.Dims()

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return nil, nil, err
	}

	coeffs = make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	sse := 0.0
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		sse += r * r
	}

	if n <= k {
		return coeffs, nil, nil
	}
	s2 := sse / float64(n-k)

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, nil, err
	}

	stdErrors = make([]float64, k)
	for i := 0; i < k; i++ {
		stdErrors[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}

	return coeffs, stdErrors, nil
}

// interpolatePValue maps a test statistic to a p-value by linear
// interpolation over tabulated (statistic, p-value) pairs. The statistics
// must be sorted ascending; values beyond either end are clamped.
func interpolatePValue(stat float64, stats, pvals []float64) float64 {
	if stat <= stats[0] {
		return pvals[0]
	}
	last := len(stats) - 1
	if stat >= stats[last] {
		return pvals[last]
	}
	for i := 1; i <= last; i++ {
		if stat < stats[i] {
			frac := (stat - stats[i-1]) / (stats[i] - stats[i-1])
			return pvals[i-1] + frac*(pvals[i]-pvals[i-1])
		}
	}
	return pvals[last]
}

// MacKinnon (1994) critical values for the constant-only Dickey-Fuller
// regression, asymptotic case.
var (
	adfStats = []float64{-3.96, -3.43, -3.12, -2.86, -2.57, -1.94, -1.62, -0.5, 0.6}
	adfPVals = []float64{0.001, 0.01, 0.025, 0.05, 0.10, 0.25, 0.50, 0.75, 0.95}
)

// mackinnonPValue approximates the p-value for the ADF statistic with a
// constant-only regression by interpolating MacKinnon (1994) critical values.
func mackinnonPValue(stat float64) float64 {
	return interpolatePValue(stat, adfStats, adfPVals)
}

// Critical values tabulated in Kwiatkowski et al. (1992), Table 1. Larger
// statistics mean stronger evidence against stationarity.
var (
	kpssStatsC  = []float64{0.347, 0.463, 0.574, 0.739}
	kpssStatsCT = []float64{0.119, 0.146, 0.176, 0.216}
	kpssPVals   = []float64{0.10, 0.05, 0.025, 0.01}
)

// kpssPValue approximates the p-value for the KPSS statistic by interpolating
// the critical values tabulated in Kwiatkowski et al. (1992).
func kpssPValue(stat float64, regression string) float64 {
	crit := kpssStatsC
	if regression == "ct" {
		crit = kpssStatsCT
	}
	if stat <= crit[0] {
		// Below the 10% critical value: extrapolate toward failing to reject.
		return math.Min(0.10+(crit[0]-stat)/crit[0]*0.80, 0.99)
	}
	return interpolatePValue(stat, crit, kpssPVals)
}
