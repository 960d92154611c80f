package autoarima

import (
	"errors"
	"log/slog"
	"math"
	"math/cmplx"

	"github.com/hnnhvwht/hyndman-khandakar/arima"
	"github.com/hnnhvwht/hyndman-khandakar/timeseries"
)

// Order is one ARIMA specification (p, d, q).
type Order struct {
	P int
	D int
	Q int
}

// candidate identifies one (order, trend) pair in the visited set.
type candidate struct {
	order Order
	trend arima.Trend
}

var trends = []arima.Trend{arima.TrendConstant, arima.TrendNone}

// Result is the outcome of an order-selection run.
type Result struct {
	// Order and Trend of the best accepted model. When no candidate was ever
	// accepted this is the trivial (0, d, 0) with trend none and AICc +Inf.
	Order Order
	Trend arima.Trend
	// AICc of the best accepted model.
	AICc float64
	// Model is the fitted model behind the incumbent; nil when no candidate
	// was accepted or when a custom Fitter does not supply one.
	Model *arima.Model
	// Diagnostics holds the unit-root p-values per differencing degree.
	Diagnostics Diagnostics
	// ModelsEvaluated counts candidates whose fit converged.
	ModelsEvaluated int
}

// Predict generates forecasts from the selected model.
func (r *Result) Predict(steps int) ([]float64, error) {
	if r.Model == nil {
		return nil, errors.New("autoarima: no model was accepted during the search")
	}
	return r.Model.Predict(steps)
}

// Residuals returns the selected model's residuals, or nil.
func (r *Result) Residuals() []float64 {
	if r.Model == nil {
		return nil
	}
	return r.Model.Residuals()
}

// Selector runs Hyndman-Khandakar order selection over one series. The series
// and configuration are fixed at construction; each Find call owns its own
// search state, so a Selector may be reused.
type Selector struct {
	series *timeseries.Series
	cfg    Config
	fitter Fitter
	tests  UnitRootTests
	log    *slog.Logger
}

// NewSelector validates the inputs and builds a selector. A nil cfg means
// DefaultConfig. Input violations (empty series, inconsistent configuration)
// are fatal here; no partial run is attempted.
func NewSelector(series *timeseries.Series, cfg *Config, opts ...Option) (*Selector, error) {
	if series == nil || series.Len() == 0 {
		return nil, ErrEmptySeries
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Selector{
		series: series,
		cfg:    *cfg,
		fitter: cssFitter{},
		tests:  statsTests{},
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Find is a convenience wrapper: construct a selector and run one search.
func Find(series *timeseries.Series, cfg *Config) (*Result, error) {
	sel, err := NewSelector(series, cfg)
	if err != nil {
		return nil, err
	}
	return sel.Find()
}

// searchState is the incumbent plus the visited set for one run.
type searchState struct {
	order     Order
	trend     arima.Trend
	aicc      float64
	outcome   *FitOutcome
	evaluated int
	visited   map[candidate]struct{}
}

// Find estimates the differencing degree and searches for the AICc-minimal
// order. The returned result always carries a best-effort incumbent: the
// trivial (0, d, 0) with AICc +Inf when nothing better was accepted.
func (s *Selector) Find() (*Result, error) {
	d, diag, err := s.differencingDegree()
	if err != nil {
		return nil, err
	}

	st := &searchState{
		order:   Order{D: d},
		trend:   arima.TrendNone,
		aicc:    math.Inf(1),
		visited: make(map[candidate]struct{}),
	}

	if s.cfg.FullSearch {
		s.gridSearch(d, st)
	} else {
		s.stepwiseSearch(d, st)
	}

	var model *arima.Model
	if st.outcome != nil {
		model = st.outcome.Model
	}

	return &Result{
		Order:           st.order,
		Trend:           st.trend,
		AICc:            st.aicc,
		Model:           model,
		Diagnostics:     diag,
		ModelsEvaluated: st.evaluated,
	}, nil
}

// gridSearch evaluates the full Cartesian product of orders and trends up to
// MaxOrder, with d fixed.
func (s *Selector) gridSearch(d int, st *searchState) {
	for p := 0; p <= s.cfg.MaxOrder; p++ {
		for q := 0; q <= s.cfg.MaxOrder; q++ {
			for _, trend := range trends {
				s.evaluate(candidate{Order{p, d, q}, trend}, st)
			}
		}
	}
}

// stepwiseSearch evaluates the fixed seed set, then expands the +/-1
// neighborhood around the best seed once. It deliberately does not re-center
// on a newly improved incumbent.
func (s *Selector) stepwiseSearch(d int, st *searchState) {
	for _, c := range seedCandidates(d, s.cfg.MaxOrder) {
		s.evaluate(c, st)
	}

	for _, p := range neighborhood(st.order.P, s.cfg.MaxOrder) {
		for _, q := range neighborhood(st.order.Q, s.cfg.MaxOrder) {
			for _, trend := range trends {
				s.evaluate(candidate{Order{p, d, q}, trend}, st)
			}
		}
	}
}

// evaluate fits one candidate and replaces the incumbent when the candidate
// strictly improves the AICc and every characteristic root clears the
// modulus floor. Already-visited candidates are no-ops; fit failures are
// recorded as visited and skipped.
func (s *Selector) evaluate(c candidate, st *searchState) {
	if _, seen := st.visited[c]; seen {
		return
	}
	st.visited[c] = struct{}{}

	out, err := s.fitter.Fit(s.series, c.order.P, c.order.D, c.order.Q, c.trend)
	if err != nil {
		s.log.Debug("skipping candidate",
			"p", c.order.P, "d", c.order.D, "q", c.order.Q, "trend", c.trend, "err", err)
		return
	}
	st.evaluated++

	aicc := AICc(out.AIC, c.order.P, c.order.Q, c.trend == arima.TrendConstant, s.series.Len())
	if !(aicc < st.aicc) {
		return
	}
	if !rootsOutside(out.ARRoots, s.cfg.MinRootModulus) ||
		!rootsOutside(out.MARoots, s.cfg.MinRootModulus) {
		return
	}

	// The incumbent advances as a unit.
	st.order = c.order
	st.trend = c.trend
	st.aicc = aicc
	st.outcome = out
}

// rootsOutside reports whether every root's modulus strictly exceeds floor.
func rootsOutside(roots []complex128, floor float64) bool {
	for _, r := range roots {
		if cmplx.Abs(r) <= floor {
			return false
		}
	}
	return true
}

// seedCandidates returns the low-order models the stepwise search starts
// from. After two differences the mean is already removed, so constant-trend
// variants are omitted.
func seedCandidates(d, maxOrder int) []candidate {
	var seeds []candidate
	if d <= 1 {
		seeds = []candidate{
			{Order{0, d, 0}, arima.TrendConstant},
			{Order{0, d, 0}, arima.TrendNone},
			{Order{1, d, 0}, arima.TrendConstant},
			{Order{0, d, 1}, arima.TrendConstant},
			{Order{2, d, 2}, arima.TrendConstant},
		}
	} else {
		seeds = []candidate{
			{Order{0, d, 0}, arima.TrendNone},
			{Order{1, d, 0}, arima.TrendNone},
			{Order{0, d, 1}, arima.TrendNone},
			{Order{2, d, 2}, arima.TrendNone},
		}
	}

	bounded := seeds[:0]
	for _, c := range seeds {
		if c.order.P <= maxOrder && c.order.Q <= maxOrder {
			bounded = append(bounded, c)
		}
	}
	return bounded
}

// neighborhood returns the orders within one of best that lie in
// [0, maxOrder]. Out-of-range values are excluded, not clamped.
func neighborhood(best, maxOrder int) []int {
	var out []int
	for v := best - 1; v <= best+1; v++ {
		if v >= 0 && v <= maxOrder {
			out = append(out, v)
		}
	}
	return out
}
