// Package hyndmankhandakar provides automatic ARIMA order selection for
// univariate time series using the Hyndman-Khandakar algorithm.
//
// The module selects the order (p, d, q) and trend of an ARIMA model by
// estimating the differencing degree with complementary unit-root tests
// (ADF and KPSS) and then searching candidate orders for the model that
// minimizes the small-sample-corrected Akaike information criterion (AICc),
// subject to stationarity and invertibility constraints on the AR and MA
// characteristic roots.
//
// # Quick Start
//
//	series := timeseries.New(values)
//	result, err := autoarima.Find(series, autoarima.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("ARIMA(%d,%d,%d) trend=%s AICc=%.2f\n",
//	    result.Order.P, result.Order.D, result.Order.Q, result.Trend, result.AICc)
//
// # Packages
//
//   - autoarima: differencing-degree estimation and AICc-driven order search
//   - arima: conditional-sum-of-squares ARIMA estimation and forecasting
//   - stats: unit-root tests (ADF, KPSS), autocorrelation, residual diagnostics
//   - timeseries: time series data structures and CSV utilities
//
// # References
//
//   - R. J. Hyndman and Y. Khandakar, "Automatic Time Series Forecasting:
//     The forecast Package for R," J. Stat. Software, vol. 27, no. 3, 2008.
//   - K. P. Burnham and D. R. Anderson, "Multimodel Inference: Understanding
//     AIC and BIC in Model Selection," Sociol. Methods Res., vol. 33, 2004.
package hyndmankhandakar
