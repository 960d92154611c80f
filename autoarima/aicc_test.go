package autoarima

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAICcValue(t *testing.T) {
	// p=2, q=1, constant: m = 2+1+1+1 = 5, correction = 2*5*6/(100-5-1).
	got := AICc(250, 2, 1, true, 100)
	assert.InDelta(t, 250+60.0/94.0, got, 1e-12)

	// Without the constant: m = 4, correction = 2*4*5/(100-4-1).
	got = AICc(250, 2, 1, false, 100)
	assert.InDelta(t, 250+40.0/95.0, got, 1e-12)
}

func TestAICcNeverBelowAIC(t *testing.T) {
	for p := 0; p <= 5; p++ {
		for q := 0; q <= 5; q++ {
			for _, hasConstant := range []bool{true, false} {
				got := AICc(100, p, q, hasConstant, 50)
				assert.GreaterOrEqual(t, got, 100.0, "p=%d q=%d const=%v", p, q, hasConstant)
			}
		}
	}
}

func TestAICcDegenerateDenominator(t *testing.T) {
	// m = 2+2+1+1 = 6; n - m - 1 <= 0 for n <= 7.
	assert.True(t, math.IsInf(AICc(10, 2, 2, true, 7), 1))
	assert.True(t, math.IsInf(AICc(10, 2, 2, true, 6), 1))
	assert.False(t, math.IsInf(AICc(10, 2, 2, true, 8), 1))
}
