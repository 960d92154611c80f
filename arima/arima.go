// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/hnnhvwht/hyndman-khandakar/stats"
	"github.com/hnnhvwht/hyndman-khandakar/timeseries"
)

// Trend selects the deterministic component of the model.
type Trend string

const (
	// TrendConstant includes an estimated constant (mean) term.
	TrendConstant Trend = "constant"
	// TrendNone fixes the mean of the differenced series to zero.
	TrendNone Trend = "none"
)

// Order represents the ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

// Model represents an ARIMA model.
type Model struct {
	Order     Order
	Trend     Trend
	ARCoeffs  []float64 // AR coefficients (phi)
	MACoeffs  []float64 // MA coefficients (theta)
	Intercept float64
	Variance  float64 // Residual variance
	AIC       float64
	LogLik    float64

	fitted     bool
	data       *timeseries.Series
	diffData   *timeseries.Series
	residuals  []float64
	fittedVals []float64
}

// New creates an ARIMA model of the given order with a constant trend term.
func New(p, d, q int) *Model {
	return NewWithTrend(p, d, q, TrendConstant)
}

// NewWithTrend creates an ARIMA model of the given order and trend.
func NewWithTrend(p, d, q int, trend Trend) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		Trend:    trend,
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// Fit estimates the model on the given series by conditional sum of squares.
// A returned error is the failure signal for an order that cannot be
// estimated: too little data, a degenerate series, or non-convergence.
func (m *Model) Fit(series *timeseries.Series) error {
	if series.Len() < m.Order.P+m.Order.Q+m.Order.D+10 {
		return errors.New("insufficient data points for the specified order")
	}

	m.data = series

	diffSeries := series
	for i := 0; i < m.Order.D; i++ {
		diffSeries = diffSeries.Diff()
		if diffSeries.Len() == 0 {
			return errors.New("differencing resulted in empty series")
		}
	}
	m.diffData = diffSeries

	if err := m.fitCSS(); err != nil {
		return err
	}

	m.calculateIC()

	if m.Variance <= 0 || math.IsNaN(m.Variance) || math.IsInf(m.AIC, 0) || math.IsNaN(m.AIC) {
		return errors.New("estimation degenerate: residual variance is not positive")
	}

	m.fitted = true
	return nil
}

// hasConstant reports whether the model estimates a constant term.
func (m *Model) hasConstant() bool {
	return m.Trend == TrendConstant
}

// fitCSS fits the model by minimizing the conditional sum of squares,
// starting from Hannan-Rissanen coefficient estimates.
func (m *Model) fitCSS() error {
	y := m.diffData.Values
	n := len(y)
	p := m.Order.P
	q := m.Order.Q

	if m.hasConstant() {
		m.Intercept = m.diffData.Mean()
	} else {
		m.Intercept = 0
	}

	if p == 0 && q == 0 {
		m.Variance = 0
		for _, v := range y {
			d := v - m.Intercept
			m.Variance += d * d
		}
		if n > 1 {
			m.Variance /= float64(n - 1)
		}
		m.residuals = make([]float64, n)
		m.fittedVals = make([]float64, n)
		for i, v := range y {
			m.residuals[i] = v - m.Intercept
			m.fittedVals[i] = m.Intercept
		}
		return nil
	}

	phi, theta := m.hannanRissanen()
	shrinkToStable(phi, arPoly)
	shrinkToStable(theta, maPoly)
	copy(m.ARCoeffs, phi)
	copy(m.MACoeffs, theta)

	params := make([]float64, p+q)
	copy(params, m.ARCoeffs)
	copy(params[p:], m.MACoeffs)

	problem := optimize.Problem{Func: func(x []float64) float64 {
		return m.css(y, x[:p], x[p:])
	}}
	result, err := optimize.Minimize(problem, params, nil, &optimize.NelderMead{})
	if err == nil && result != nil && !math.IsNaN(result.F) && !math.IsInf(result.F, 0) {
		copy(m.ARCoeffs, result.X[:p])
		copy(m.MACoeffs, result.X[p:])
	}

	// Final residuals, fitted values, and variance at the optimum.
	startIdx := max(p, q)
	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < startIdx {
			m.fittedVals[t] = m.Intercept
			m.residuals[t] = y[t] - m.fittedVals[t]
			continue
		}
		m.fittedVals[t] = m.predictOne(y, m.residuals, t)
		m.residuals[t] = y[t] - m.fittedVals[t]
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	nparams := p + q + m.constCount()
	if count > nparams+1 {
		m.Variance = sse / float64(count-nparams-1)
	} else if count > 0 {
		m.Variance = sse / float64(count)
	}

	return nil
}

// css returns the conditional sum of squared one-step errors under the given
// coefficients, or a large penalty when the coefficients leave the
// stationary and invertible region. Pre-sample residuals are taken as zero.
func (m *Model) css(y, phi, theta []float64) float64 {
	if !rootsOutsideUnit(arPoly(phi)) || !rootsOutsideUnit(maPoly(theta)) {
		return 1e100
	}

	n := len(y)
	start := max(len(phi), len(theta))
	resid := make([]float64, n)

	sse := 0.0
	for t := start; t < n; t++ {
		pred := m.Intercept
		for i := 0; i < len(phi) && t-i-1 >= 0; i++ {
			pred += phi[i] * (y[t-i-1] - m.Intercept)
		}
		for i := 0; i < len(theta) && t-i-1 >= 0; i++ {
			pred += theta[i] * resid[t-i-1]
		}
		resid[t] = y[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse
}

// hannanRissanen computes starting coefficients: a long autoregression
// supplies innovation estimates, then the AR and MA coefficients come from a
// least-squares regression of the series on its own lags and the lagged
// innovations. Falls back to Yule-Walker AR estimates and small MA values
// when the regression is infeasible.
func (m *Model) hannanRissanen() (phi, theta []float64) {
	p := m.Order.P
	q := m.Order.Q
	phi = make([]float64, p)
	theta = make([]float64, q)

	y := m.diffData.Values
	n := len(y)
	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - m.Intercept
	}

	fallback := func() ([]float64, []float64) {
		if p > 0 {
			if acf := stats.ACF(m.diffData, p); acf != nil {
				if yw := yuleWalker(acf, p); yw != nil {
					copy(phi, yw)
				}
			}
		}
		for i := range theta {
			theta[i] = 0.1
		}
		return phi, theta
	}

	if q == 0 {
		if acf := stats.ACF(m.diffData, p); acf != nil {
			if yw := yuleWalker(acf, p); yw != nil {
				copy(phi, yw)
			}
		}
		return phi, theta
	}

	long := p + q + 3
	if long > n/4 {
		long = n / 4
	}
	if long < 1 {
		long = 1
	}

	acf := stats.ACF(m.diffData, long)
	if acf == nil {
		return fallback()
	}
	a := yuleWalker(acf, long)
	if a == nil {
		return fallback()
	}

	eps := make([]float64, n)
	for t := long; t < n; t++ {
		v := yc[t]
		for i := 0; i < long; i++ {
			v -= a[i] * yc[t-i-1]
		}
		eps[t] = v
	}

	start := long + q
	if start < p {
		start = p
	}
	rows := n - start
	cols := p + q
	if rows <= cols+2 {
		return fallback()
	}

	x := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := start + r
		b.SetVec(r, yc[t])
		for i := 0; i < p; i++ {
			x.Set(r, i, yc[t-i-1])
		}
		for i := 0; i < q; i++ {
			x.Set(r, p+i, eps[t-i-1])
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, b); err != nil {
		return fallback()
	}
	for i := 0; i < p; i++ {
		phi[i] = beta.AtVec(i)
	}
	for i := 0; i < q; i++ {
		theta[i] = beta.AtVec(p + i)
	}
	return phi, theta
}

// shrinkToStable scales coefficients toward zero until the polynomial's
// roots lie outside the unit circle, so optimization starts inside the
// admissible region.
func shrinkToStable(coeffs []float64, poly func([]float64) []float64) {
	for i := 0; i < 30 && !rootsOutsideUnit(poly(coeffs)); i++ {
		for j := range coeffs {
			coeffs[j] *= 0.9
		}
	}
}

// rootsOutsideUnit reports whether every root of the polynomial lies
// strictly outside the unit circle.
func rootsOutsideUnit(coeffs []float64) bool {
	for _, r := range polyRoots(coeffs) {
		if cmplx.Abs(r) <= 1 {
			return false
		}
	}
	return true
}

// arPoly builds the AR characteristic polynomial 1 - phi_1 z - ... - phi_p z^p.
func arPoly(phi []float64) []float64 {
	coeffs := make([]float64, len(phi)+1)
	coeffs[0] = 1
	for i, v := range phi {
		coeffs[i+1] = -v
	}
	return coeffs
}

// maPoly builds the MA characteristic polynomial 1 + theta_1 z + ... + theta_q z^q.
func maPoly(theta []float64) []float64 {
	coeffs := make([]float64, len(theta)+1)
	coeffs[0] = 1
	for i, v := range theta {
		coeffs[i+1] = v
	}
	return coeffs
}

// predictOne computes the one-step prediction at index t from the supplied
// history and residuals.
func (m *Model) predictOne(y, residuals []float64, t int) float64 {
	pred := m.Intercept
	for i := 0; i < m.Order.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < m.Order.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}
	return pred
}

func (m *Model) constCount() int {
	if m.hasConstant() {
		return 1
	}
	return 0
}

// calculateIC calculates the log-likelihood and AIC.
func (m *Model) calculateIC() {
	n := len(m.residuals)
	// AR + MA + constant + innovation variance
	k := m.Order.P + m.Order.Q + m.constCount() + 1

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	m.AIC = -2*m.LogLik + 2*float64(k)
}

// ARRoots returns the roots of the AR characteristic polynomial
// 1 - phi_1 z - ... - phi_p z^p. All moduli greater than one means the
// process is stationary.
func (m *Model) ARRoots() []complex128 {
	return polyRoots(arPoly(m.ARCoeffs))
}

// MARoots returns the roots of the MA characteristic polynomial
// 1 + theta_1 z + ... + theta_q z^q. All moduli greater than one means the
// process is invertible.
func (m *Model) MARoots() []complex128 {
	return polyRoots(maPoly(m.MACoeffs))
}

// polyRoots returns the complex roots of the polynomial with the given
// coefficients in ascending order of degree, computed as the eigenvalues of
// the companion matrix.
func polyRoots(coeffs []float64) []complex128 {
	// Trim vanishing leading-degree coefficients.
	deg := len(coeffs) - 1
	for deg > 0 && math.Abs(coeffs[deg]) < 1e-12 {
		deg--
	}
	if deg < 1 {
		return []complex128{}
	}

	companion := mat.NewDense(deg, deg, nil)
	for i := 0; i < deg; i++ {
		companion.Set(i, deg-1, -coeffs[i]/coeffs[deg])
		if i > 0 {
			companion.Set(i, i-1, 1)
		}
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil
	}
	return eig.Values(nil)
}

// Predict generates forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before prediction")
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	p := m.Order.P
	q := m.Order.Q

	y := m.diffData.Values
	n := len(y)

	extY := make([]float64, n+steps)
	copy(extY, y)

	extResiduals := make([]float64, n+steps)
	copy(extResiduals, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}
		// Future residuals have expectation zero.
		for i := 0; i < q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * extResiduals[t-i-1]
		}
		extY[t] = pred
		extResiduals[t] = 0
	}

	forecasts := extY[n:]
	if m.Order.D > 0 {
		forecasts = m.integrate(forecasts)
	}
	return forecasts, nil
}

// integrate undoes differencing to return forecasts on the original scale.
func (m *Model) integrate(forecasts []float64) []float64 {
	original := m.data.Values

	result := make([]float64, len(forecasts))
	copy(result, forecasts)

	for i := 0; i < m.Order.D; i++ {
		lastVal := original[len(original)-1-i]
		for j := range result {
			if j == 0 {
				result[j] += lastVal
			} else {
				result[j] += result[j-1]
			}
		}
	}

	return result
}

// Residuals returns a copy of the model residuals.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// FittedValues returns a copy of the fitted values.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	result := make([]float64, len(m.fittedVals))
	copy(result, m.fittedVals)
	return result
}

// Summary holds a summary of a fitted model.
type Summary struct {
	Order     Order
	Trend     Trend
	ARCoeffs  []float64
	MACoeffs  []float64
	Intercept float64
	Variance  float64
	AIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult
}

// Summary returns a summary of the fitted model with Ljung-Box residual
// diagnostics, or nil for an unfitted model.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	residSeries := timeseries.New(m.residuals)
	lb := stats.LjungBox(residSeries, 10, m.Order.P+m.Order.Q)

	return &Summary{
		Order:     m.Order,
		Trend:     m.Trend,
		ARCoeffs:  m.ARCoeffs,
		MACoeffs:  m.MACoeffs,
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		LogLik:    m.LogLik,
		NObs:      len(m.data.Values),
		LjungBox:  lb,
	}
}

// yuleWalker estimates AR coefficients from the ACF by Levinson-Durbin
// recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]

	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		newPhi := make([]float64, i+1)
		for j := 0; j < i; j++ {
			newPhi[j] = phi[j] - lambda*phi[i-1-j]
		}
		newPhi[i] = lambda
		copy(phi, newPhi)

		v *= 1 - lambda*lambda
		if v <= 0 {
			break
		}
	}

	return phi
}
