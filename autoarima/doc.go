// Package autoarima implements automatic ARIMA order selection with the
// Hyndman-Khandakar algorithm.
//
// The selector first estimates the differencing degree d by repeatedly
// applying the ADF and KPSS unit-root tests, then searches orders (p, q) and
// trends for the model minimizing the corrected Akaike information criterion
// (AICc). A candidate is accepted only when every AR and MA characteristic
// root has modulus strictly above the configured floor, so the selected model
// is always stationary and invertible.
//
// # Basic Usage
//
//	series := timeseries.New(values)
//	result, err := autoarima.Find(series, autoarima.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Best model: ARIMA(%d,%d,%d) trend=%s\n",
//	    result.Order.P, result.Order.D, result.Order.Q, result.Trend)
//	fmt.Printf("AICc: %.2f, models evaluated: %d\n",
//	    result.AICc, result.ModelsEvaluated)
//
//	forecasts, _ := result.Predict(10)
//
// # Search Methods
//
// Two search methods are available:
//   - Stepwise (default): a fixed seed set of low-order models followed by a
//     single expansion of the +/-1 neighborhood around the best seed.
//   - Exhaustive: every (p, q, trend) combination up to MaxOrder
//     (set Config.FullSearch).
//
// The stepwise search evaluates far fewer candidates; the exhaustive search
// is guaranteed to find the AICc-minimal model within the bounds.
//
// # Collaborators
//
// Estimation and unit-root testing are pluggable through the Fitter and
// UnitRootTests interfaces. The defaults delegate to the arima and stats
// packages in this module.
package autoarima
