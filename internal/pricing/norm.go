// Package pricing implements the closed-form option math used by the
// screener: standard-normal density/CDF approximations, European put
// Greeks, Black-Scholes pricing and a Newton-Raphson implied-vol solver.
//
// Everything in this package is a pure function. Inputs are never
// mutated and there is no hidden state, so results are reproducible
// bit-for-bit across calls.
package pricing

import "math"

const sqrt2Pi = 2.5066282746310002

// NormPDF returns the standard normal density at x:
//
//	exp(-x²/2) / √(2π)
//
// Defined for all real x; no failure mode.
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// Zelen & Severo (Abramowitz & Stegun 26.2.17) coefficients for the
// five-term rational approximation of the standard normal CDF.
// Absolute error is below 7.5e-8, which is plenty for a screening
// heuristic (this is not audited pricing code).
const (
	cdfP  = 0.2316419
	cdfB1 = 0.319381530
	cdfB2 = -0.356563782
	cdfB3 = 1.781477937
	cdfB4 = -1.821255978
	cdfB5 = 1.330274429
)

// NormCDF returns P(Z <= x) for a standard normal Z using the
// Abramowitz & Stegun 26.2.17 polynomial approximation. Negative x is
// handled via the symmetry Φ(-x) = 1 - Φ(x). Total over all real x.
func NormCDF(x float64) float64 {
	if x < 0 {
		return 1 - NormCDF(-x)
	}
	t := 1 / (1 + cdfP*x)
	poly := t * (cdfB1 + t*(cdfB2+t*(cdfB3+t*(cdfB4+t*cdfB5))))
	return 1 - NormPDF(x)*poly
}

// NormInv computes the inverse of the standard normal CDF (quantile
// function) using Acklam's rational approximation. Used by the
// synthetic provider to place strike ladders at target percentiles.
//
// Panics if p is not strictly between 0 and 1.
func NormInv(p float64) float64 {
	if p <= 0 || p >= 1 {
		panic("pricing: NormInv p must be in (0,1)")
	}

	a := []float64{
		-3.969683028665376e+01,
		2.209460984245205e+02,
		-2.759285104469687e+02,
		1.383577518672690e+02,
		-3.066479806614716e+01,
		2.506628277459239e+00,
	}
	b := []float64{
		-5.447609879822406e+01,
		1.615858368580409e+02,
		-1.556989798598866e+02,
		6.680131188771972e+01,
		-1.328068155288572e+01,
	}
	c := []float64{
		-7.784894002430293e-03,
		-3.223964580411365e-01,
		-2.400758277161838e+00,
		-2.549732539343734e+00,
		4.374664141464968e+00,
		2.938163982698783e+00,
	}
	d := []float64{
		7.784695709041462e-03,
		3.224671290700398e-01,
		2.445134137142996e+00,
		3.754408661907416e+00,
	}

	const plow = 0.02425
	phigh := 1 - plow

	var q, r float64

	if p < plow {
		q = math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}

	if p > phigh {
		q = math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}

	q = p - 0.5
	r = q * q
	return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
		(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
}
