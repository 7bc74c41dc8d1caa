package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormPDFPeak(t *testing.T) {
	// Density at zero is 1/sqrt(2π).
	assert.InDelta(t, 0.3989422804014327, NormPDF(0), 1e-12)
	// Symmetric.
	assert.InDelta(t, NormPDF(1.3), NormPDF(-1.3), 1e-15)
}

func TestNormCDFAtZero(t *testing.T) {
	assert.InDelta(t, 0.5, NormCDF(0), 1e-6)
}

func TestNormCDFSymmetry(t *testing.T) {
	for _, x := range []float64{0.1, 0.5, 1.0, 1.96, 2.5, 4.0, 7.0} {
		assert.InDelta(t, 1-NormCDF(x), NormCDF(-x), 1e-9, "x=%f", x)
	}
}

func TestNormCDFKnownValues(t *testing.T) {
	// Reference values from standard normal tables. The approximation
	// is good to ~7.5e-8 absolute.
	cases := map[float64]float64{
		1.0:   0.8413447460685429,
		1.96:  0.9750021048517795,
		-1.65: 0.0494714680336481,
		3.0:   0.9986501019683699,
	}
	for x, want := range cases {
		assert.InDelta(t, want, NormCDF(x), 1e-6, "x=%f", x)
	}
}

func TestNormCDFMonotone(t *testing.T) {
	prev := NormCDF(-8)
	for x := -7.5; x <= 8; x += 0.5 {
		cur := NormCDF(x)
		require.GreaterOrEqual(t, cur, prev, "cdf not monotone at x=%f", x)
		prev = cur
	}
}

func TestNormInvRoundTrip(t *testing.T) {
	for _, p := range []float64{0.001, 0.025, 0.3, 0.5, 0.7, 0.975, 0.999} {
		x := NormInv(p)
		assert.InDelta(t, p, NormCDF(x), 1e-4, "p=%f", p)
	}
	assert.InDelta(t, 1.959964, NormInv(0.975), 1e-4)
}

func TestNormInvPanicsOutOfRange(t *testing.T) {
	assert.Panics(t, func() { NormInv(0) })
	assert.Panics(t, func() { NormInv(1) })
	assert.False(t, math.IsNaN(NormInv(0.5)))
}
