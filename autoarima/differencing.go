package autoarima

import "fmt"

// maxDifferences caps the differencing degree.
const maxDifferences = 2

// TestPValues holds the unit-root p-values observed at one differencing degree.
type TestPValues struct {
	ADF  float64
	KPSS float64
}

// Diagnostics records, per differencing degree, the p-values observed before
// the series was differenced further. Degrees at which the series was judged
// stationary carry no entry.
type Diagnostics map[int]TestPValues

// differencingDegree estimates the differencing degree d by testing the
// series, differencing once when the verdict is non-stationary, and repeating
// up to maxDifferences times.
func (s *Selector) differencingDegree() (int, Diagnostics, error) {
	diag := make(Diagnostics)
	current := s.series

	for d := 0; ; d++ {
		pADF, err := s.tests.ADF(current)
		if err != nil {
			return 0, nil, fmt.Errorf("adf test at d=%d: %w", d, err)
		}
		pKPSS, err := s.tests.KPSS(current)
		if err != nil {
			return 0, nil, fmt.Errorf("kpss test at d=%d: %w", d, err)
		}

		// Difference further when KPSS rejects stationarity or ADF fails to
		// reject a unit root. Requiring the tests, whose null hypotheses are
		// complementary, to agree reduces false stationary verdicts on short
		// series; Hyndman-Khandakar uses KPSS alone.
		if pKPSS >= s.cfg.Alpha && pADF < s.cfg.Alpha {
			return d, diag, nil
		}

		diag[d] = TestPValues{ADF: pADF, KPSS: pKPSS}

		if d == maxDifferences {
			s.log.Warn("failed to stationarize mean by differencing, continuing",
				"d", d, "adf_p", pADF, "kpss_p", pKPSS)
			return d, diag, nil
		}

		current = current.Diff()
	}
}
