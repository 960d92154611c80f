package autoarima

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnnhvwht/hyndman-khandakar/arima"
	"github.com/hnnhvwht/hyndman-khandakar/timeseries"
)

// fakeFitter scripts the estimation collaborator: AIC per candidate, plus
// candidates that fail to converge or violate the root-modulus floor.
type fakeFitter struct {
	aic      func(c candidate) float64
	fail     map[candidate]bool
	badRoots map[candidate]bool
	calls    []candidate
}

func (f *fakeFitter) Fit(_ *timeseries.Series, p, d, q int, trend arima.Trend) (*FitOutcome, error) {
	c := candidate{Order{P: p, D: d, Q: q}, trend}
	f.calls = append(f.calls, c)
	if f.fail[c] {
		return nil, errors.New("did not converge")
	}
	arRoots := []complex128{complex(2, 0)}
	if f.badRoots[c] {
		arRoots = []complex128{complex(1.0005, 0)}
	}
	return &FitOutcome{
		AIC:     f.aic(c),
		ARRoots: arRoots,
		MARoots: []complex128{complex(3, 0)},
	}, nil
}

func stationaryAtZero() *scriptedTests {
	return &scriptedTests{script: []TestPValues{{ADF: 0.01, KPSS: 0.5}}}
}

func cand(p, d, q int, trend arima.Trend) candidate {
	return candidate{Order{P: p, D: d, Q: q}, trend}
}

func TestStepwiseSeedAndSingleNeighborhoodPass(t *testing.T) {
	fitter := &fakeFitter{aic: func(c candidate) float64 {
		switch c {
		case cand(1, 0, 0, arima.TrendConstant):
			return 10 // best seed
		case cand(2, 0, 1, arima.TrendConstant):
			return 5 // best overall, found in the neighborhood
		default:
			return 100 + float64(c.order.P+c.order.Q)
		}
	}}
	sel := newTestSelector(t, quietConfig(),
		WithUnitRootTests(stationaryAtZero()), WithFitter(fitter))

	result, err := sel.Find()
	require.NoError(t, err)

	assert.Equal(t, Order{P: 2, D: 0, Q: 1}, result.Order)
	assert.Equal(t, arima.TrendConstant, result.Trend)

	// 5 seeds, then the {0,1,2}x{0,1}x{c,nc} neighborhood of the best seed
	// (1, 0) minus the 4 already-visited pairs.
	assert.Len(t, fitter.calls, 13)
	assert.Equal(t, 13, result.ModelsEvaluated)

	// The expansion runs exactly once: no re-centering around (2, 1).
	for _, c := range fitter.calls {
		assert.LessOrEqual(t, c.order.P, 2)
	}
}

func TestStepwiseSkipsSeedFailures(t *testing.T) {
	fitter := &fakeFitter{
		aic:  func(c candidate) float64 { return 100 + float64(c.order.P+c.order.Q) },
		fail: map[candidate]bool{cand(2, 0, 2, arima.TrendConstant): true},
	}
	sel := newTestSelector(t, quietConfig(),
		WithUnitRootTests(stationaryAtZero()), WithFitter(fitter))

	result, err := sel.Find()
	require.NoError(t, err)

	assert.Equal(t, Order{P: 0, D: 0, Q: 0}, result.Order)
	assert.Equal(t, len(fitter.calls)-1, result.ModelsEvaluated)
}

func TestRootModulusRejection(t *testing.T) {
	bad := cand(1, 0, 0, arima.TrendConstant)
	fitter := &fakeFitter{
		aic: func(c candidate) float64 {
			switch c {
			case bad:
				return 10 // lowest AIC, but unstable
			case cand(0, 0, 0, arima.TrendConstant):
				return 20
			default:
				return 100 + float64(c.order.P+c.order.Q)
			}
		},
		badRoots: map[candidate]bool{bad: true},
	}

	cfg := quietConfig()
	cfg.MaxOrder = 1
	cfg.FullSearch = true
	sel := newTestSelector(t, cfg,
		WithUnitRootTests(stationaryAtZero()), WithFitter(fitter))

	result, err := sel.Find()
	require.NoError(t, err)

	// The unstable candidate is silently rejected, never retried.
	assert.Equal(t, Order{P: 0, D: 0, Q: 0}, result.Order)
	assert.Equal(t, arima.TrendConstant, result.Trend)
	assert.InDelta(t, AICc(20, 0, 0, true, 100), result.AICc, 1e-12)

	seen := 0
	for _, c := range fitter.calls {
		if c == bad {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestTieBreakFirstEvaluatedWins(t *testing.T) {
	// Craft raw AICs so both trends of (0,0,0) land on the same AICc; the
	// strict < comparison keeps the first one evaluated.
	const target = 50.0
	fitter := &fakeFitter{aic: func(c candidate) float64 {
		switch c {
		case cand(0, 0, 0, arima.TrendConstant):
			return target - (AICc(0, 0, 0, true, 100) - 0)
		case cand(0, 0, 0, arima.TrendNone):
			return target - (AICc(0, 0, 0, false, 100) - 0)
		default:
			return 1000
		}
	}}

	cfg := quietConfig()
	cfg.MaxOrder = 1
	cfg.FullSearch = true
	sel := newTestSelector(t, cfg,
		WithUnitRootTests(stationaryAtZero()), WithFitter(fitter))

	result, err := sel.Find()
	require.NoError(t, err)

	assert.InDelta(t, target, result.AICc, 1e-12)
	assert.Equal(t, arima.TrendConstant, result.Trend)
}

func TestExhaustiveFindsGridMinimum(t *testing.T) {
	aic := func(c candidate) float64 {
		v := 100 - 5*float64(c.order.P) + 3*float64(c.order.Q)
		if c.trend == arima.TrendConstant {
			v += 2
		}
		return v
	}
	fitter := &fakeFitter{aic: aic}

	cfg := quietConfig()
	cfg.MaxOrder = 2
	cfg.FullSearch = true
	sel := newTestSelector(t, cfg,
		WithUnitRootTests(stationaryAtZero()), WithFitter(fitter))

	result, err := sel.Find()
	require.NoError(t, err)

	assert.Len(t, fitter.calls, 18)
	assert.Equal(t, 18, result.ModelsEvaluated)

	// Replay the grid to find the expected minimum.
	want := math.Inf(1)
	for p := 0; p <= 2; p++ {
		for q := 0; q <= 2; q++ {
			for _, trend := range trends {
				c := cand(p, 0, q, trend)
				aicc := AICc(aic(c), p, q, trend == arima.TrendConstant, 100)
				if aicc < want {
					want = aicc
				}
			}
		}
	}
	assert.InDelta(t, want, result.AICc, 1e-12)
}

func TestExhaustiveAtLeastAsGoodAsStepwise(t *testing.T) {
	aic := func(c candidate) float64 {
		// An awkward surface whose minimum sits away from the seeds.
		p, q := float64(c.order.P), float64(c.order.Q)
		return 100 + (p-4)*(p-4) + (q-3)*(q-3)
	}

	stepCfg := quietConfig()
	stepSel := newTestSelector(t, stepCfg,
		WithUnitRootTests(stationaryAtZero()), WithFitter(&fakeFitter{aic: aic}))
	stepResult, err := stepSel.Find()
	require.NoError(t, err)

	fullCfg := quietConfig()
	fullCfg.FullSearch = true
	fullSel := newTestSelector(t, fullCfg,
		WithUnitRootTests(stationaryAtZero()), WithFitter(&fakeFitter{aic: aic}))
	fullResult, err := fullSel.Find()
	require.NoError(t, err)

	assert.LessOrEqual(t, fullResult.AICc, stepResult.AICc)
}

func TestNoCandidateFittedTwice(t *testing.T) {
	fitter := &fakeFitter{aic: func(c candidate) float64 {
		if c == cand(0, 0, 0, arima.TrendNone) {
			return 10
		}
		return 100 + float64(c.order.P+c.order.Q)
	}}
	sel := newTestSelector(t, quietConfig(),
		WithUnitRootTests(stationaryAtZero()), WithFitter(fitter))

	_, err := sel.Find()
	require.NoError(t, err)

	seen := make(map[candidate]int)
	for _, c := range fitter.calls {
		seen[c]++
	}
	for c, n := range seen {
		assert.Equal(t, 1, n, "candidate %+v fitted %d times", c, n)
	}

	// Best seed (0, 0): neighborhood {0,1}x{0,1}x{c,nc} overlaps 4 seeds.
	assert.Len(t, fitter.calls, 9)
}

func TestIncumbentMonotonicallyImproves(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	fitter := &fakeFitter{aic: func(candidate) float64 {
		return 50 + 100*rng.Float64()
	}}

	cfg := quietConfig()
	cfg.MaxOrder = 3
	cfg.FullSearch = true
	sel := newTestSelector(t, cfg,
		WithUnitRootTests(stationaryAtZero()), WithFitter(fitter))

	st := &searchState{
		order:   Order{},
		trend:   arima.TrendNone,
		aicc:    math.Inf(1),
		visited: make(map[candidate]struct{}),
	}

	prev := st.aicc
	for p := 0; p <= 3; p++ {
		for q := 0; q <= 3; q++ {
			for _, trend := range trends {
				sel.evaluate(cand(p, 0, q, trend), st)
				assert.LessOrEqual(t, st.aicc, prev)
				prev = st.aicc
			}
		}
	}
}

func TestNoAcceptedModelYieldsSentinel(t *testing.T) {
	// Every candidate fails to converge: the run terminates with the
	// trivial (0, d, 0) sentinel and no model.
	sel := newTestSelector(t, quietConfig(),
		WithUnitRootTests(&scriptedTests{script: []TestPValues{
			{ADF: 0.9, KPSS: 0.01},
			{ADF: 0.01, KPSS: 0.5},
		}}),
		WithFitter(fitterFailingAlways{}))

	result, err := sel.Find()
	require.NoError(t, err)

	assert.Equal(t, Order{P: 0, D: 1, Q: 0}, result.Order)
	assert.Equal(t, arima.TrendNone, result.Trend)
	assert.True(t, math.IsInf(result.AICc, 1))
	assert.Nil(t, result.Model)
	assert.Equal(t, 0, result.ModelsEvaluated)

	_, err = result.Predict(3)
	assert.Error(t, err)
	assert.Nil(t, result.Residuals())
}

type fitterFailingAlways struct{}

func (fitterFailingAlways) Fit(*timeseries.Series, int, int, int, arima.Trend) (*FitOutcome, error) {
	return nil, errors.New("did not converge")
}

func TestConstructionErrors(t *testing.T) {
	_, err := NewSelector(nil, nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = NewSelector(timeseries.New(nil), nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	cfg := quietConfig()
	cfg.MaxOrder = -1
	_, err = NewSelector(flatSeries(100), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = quietConfig()
	cfg.Alpha = 0
	_, err = NewSelector(flatSeries(100), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = quietConfig()
	cfg.Alpha = 1.5
	_, err = Find(flatSeries(100), cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSeedCandidates(t *testing.T) {
	seeds := seedCandidates(0, 5)
	require.Len(t, seeds, 5)
	assert.Contains(t, seeds, cand(2, 0, 2, arima.TrendConstant))

	// After two differences the constant variants are dropped.
	seeds = seedCandidates(2, 5)
	require.Len(t, seeds, 4)
	for _, c := range seeds {
		assert.Equal(t, arima.TrendNone, c.trend)
		assert.Equal(t, 2, c.order.D)
	}

	// Seeds beyond MaxOrder are excluded.
	seeds = seedCandidates(0, 1)
	require.Len(t, seeds, 4)
	assert.NotContains(t, seeds, cand(2, 0, 2, arima.TrendConstant))
}

func TestNeighborhood(t *testing.T) {
	assert.Equal(t, []int{0, 1}, neighborhood(0, 5))
	assert.Equal(t, []int{2, 3, 4}, neighborhood(3, 5))
	assert.Equal(t, []int{4, 5}, neighborhood(5, 5))
	assert.Equal(t, []int{0}, neighborhood(0, 0))
}

func armaSeries(n int, seed int64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	eps := make([]float64, n)
	values[0], values[1] = 10, 10
	for i := 2; i < n; i++ {
		eps[i] = rng.NormFloat64()
		values[i] = 10 + 0.5*(values[i-1]-10) - 0.3*(values[i-2]-10) + eps[i] + 0.4*eps[i-1]
	}
	return timeseries.New(values)
}

func TestFindStationaryARMA(t *testing.T) {
	series := armaSeries(200, 11)

	result, err := Find(series, quietConfig())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Order.D, "stationary series should not be differenced")
	assert.LessOrEqual(t, result.Order.P, 5)
	assert.LessOrEqual(t, result.Order.Q, 5)
	assert.False(t, math.IsInf(result.AICc, 1))
	require.NotNil(t, result.Model)

	// The accepted model satisfies the root-modulus floor.
	for _, r := range result.Model.ARRoots() {
		assert.Greater(t, cmplx.Abs(r), 1.001)
	}
	for _, r := range result.Model.MARoots() {
		assert.Greater(t, cmplx.Abs(r), 1.001)
	}

	forecasts, err := result.Predict(5)
	require.NoError(t, err)
	assert.Len(t, forecasts, 5)
}

// arma21Series is a fixed realization of length 100 of
// y_t = 10 + 0.5(y_{t-1} - 10) - 0.3(y_{t-2} - 10) + e_t + 0.4 e_{t-1}
// with standard normal innovations.
var arma21Series = []float64{
	10.49967559, 8.66036417, 7.68913885, 9.00942592, 11.70175615,
	11.74204897, 8.70279787, 8.47883065, 8.55563785, 10.48127412,
	10.90877465, 11.98890812, 11.30359795, 8.97726639, 7.21711031,
	7.96644668, 10.11907865, 12.03720301, 11.72535784, 9.61923463,
	9.49706208, 8.62631289, 9.39424925, 9.56100680, 11.15841483,
	12.30082966, 11.56576094, 9.21730970, 9.28115510, 10.46406648,
	10.04603102, 9.04215696, 10.52947912, 10.65961074, 10.45404741,
	11.59724535, 9.73342840, 10.58012356, 12.09794938, 10.63283839,
	8.47645419, 7.44769467, 9.62817232, 8.38169716, 9.20549746,
	10.62925527, 9.93660070, 8.99778302, 8.94734807, 9.39709168,
	10.81243332, 10.10802890, 10.57092638, 11.67857672, 10.81096979,
	10.41206954, 9.66478204, 9.54741488, 10.39609209, 12.47359868,
	11.84320880, 10.00879942, 9.42379891, 9.53964384, 8.79109398,
	10.98179122, 10.98313873, 9.36184635, 8.43885006, 9.81722538,
	13.62143460, 16.08986170, 14.16251310, 10.99782987, 9.36598118,
	8.36749941, 9.71614218, 10.55630732, 12.42054177, 11.60623150,
	8.95853074, 6.75319817, 6.16916103, 8.95967616, 11.21930672,
	9.90385685, 7.58587853, 8.49067099, 9.72663116, 10.40272711,
	10.35786332, 9.26528806, 7.46538624, 8.39046387, 10.10868898,
	10.76238235, 11.37520767, 11.77436442, 10.35397825, 10.03663098,
}

func TestFindRecoversARMA21(t *testing.T) {
	series := timeseries.New(arma21Series)

	result, err := Find(series, quietConfig())
	require.NoError(t, err)

	assert.Equal(t, Order{P: 2, D: 0, Q: 1}, result.Order)
	assert.Equal(t, arima.TrendConstant, result.Trend)
	assert.False(t, math.IsInf(result.AICc, 1))

	require.NotNil(t, result.Model)
	assert.InDelta(t, 10, result.Model.Intercept, 0.5)
	for _, r := range append(result.Model.ARRoots(), result.Model.MARoots()...) {
		assert.Greater(t, cmplx.Abs(r), 1.001)
	}
}

func TestFindRandomWalk(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	values := make([]float64, 300)
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + rng.NormFloat64()
	}
	series := timeseries.New(values)

	result, err := Find(series, quietConfig())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Order.D, 1)
	assert.LessOrEqual(t, result.Order.D, 2)
}

func TestFindConstantSeriesTerminates(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = 7
	}
	series := timeseries.New(values)

	// The real fitter signals failure for every order on a zero-variance
	// series; the run must still terminate with the sentinel state.
	sel, err := NewSelector(series, quietConfig(), WithUnitRootTests(stationaryAtZero()))
	require.NoError(t, err)

	result, err := sel.Find()
	require.NoError(t, err)

	assert.True(t, math.IsInf(result.AICc, 1))
	assert.Nil(t, result.Model)
	assert.Equal(t, Order{P: 0, D: 0, Q: 0}, result.Order)
}
