package autoarima

import (
	"errors"

	"github.com/hnnhvwht/hyndman-khandakar/arima"
	"github.com/hnnhvwht/hyndman-khandakar/stats"
	"github.com/hnnhvwht/hyndman-khandakar/timeseries"
)

// FitOutcome is what the search consumes from one successful estimation
// attempt: the raw AIC and the characteristic roots of the fitted model.
type FitOutcome struct {
	AIC     float64
	ARRoots []complex128
	MARoots []complex128

	// Model is the underlying fitted model. A custom Fitter may leave it nil;
	// the search never inspects it.
	Model *arima.Model
}

// Fitter estimates one ARIMA specification. A returned error is the failure
// signal for that candidate (non-convergence or an ill-posed order) and is
// never fatal to the search.
type Fitter interface {
	Fit(series *timeseries.Series, p, d, q int, trend arima.Trend) (*FitOutcome, error)
}

// UnitRootTests supplies the p-values the differencing estimator consumes.
// Errors from either test abort the run.
type UnitRootTests interface {
	// ADF returns the p-value of the augmented Dickey-Fuller test
	// (null hypothesis: a unit root is present).
	ADF(series *timeseries.Series) (float64, error)
	// KPSS returns the p-value of the KPSS test
	// (null hypothesis: the series is stationary).
	KPSS(series *timeseries.Series) (float64, error)
}

// cssFitter is the default Fitter, backed by the arima package's
// conditional-sum-of-squares estimation.
type cssFitter struct{}

func (cssFitter) Fit(series *timeseries.Series, p, d, q int, trend arima.Trend) (*FitOutcome, error) {
	model := arima.NewWithTrend(p, d, q, trend)
	if err := model.Fit(series); err != nil {
		return nil, err
	}
	return &FitOutcome{
		AIC:     model.AIC,
		ARRoots: model.ARRoots(),
		MARoots: model.MARoots(),
		Model:   model,
	}, nil
}

// statsTests is the default UnitRootTests, backed by the stats package.
type statsTests struct{}

func (statsTests) ADF(series *timeseries.Series) (float64, error) {
	result := stats.ADF(series, 0)
	if result == nil {
		return 0, errors.New("adf test inapplicable: series too short or regression degenerate")
	}
	return result.PValue, nil
}

func (statsTests) KPSS(series *timeseries.Series) (float64, error) {
	result := stats.KPSS(series, "c", 0)
	if result == nil {
		return 0, errors.New("kpss test inapplicable: series too short")
	}
	return result.PValue, nil
}

// Option customizes a Selector.
type Option func(*Selector)

// WithFitter replaces the default CSS-backed estimation collaborator.
func WithFitter(f Fitter) Option {
	return func(s *Selector) { s.fitter = f }
}

// WithUnitRootTests replaces the default ADF/KPSS collaborator.
func WithUnitRootTests(t UnitRootTests) Option {
	return func(s *Selector) { s.tests = t }
}
