package pricing

import (
	"errors"
	"math"
)

// ErrNoConvergence is returned by PutImpliedVol when the
// Newton-Raphson iteration fails to converge on a volatility.
var ErrNoConvergence = errors.New("implied vol did not converge")

// BlackScholesPrice calculates the price of a European option using
// the Black-Scholes model.
//
// Parameters:
//   - isCall: true for call option, false for put option
//   - S: spot price of the underlying asset
//   - K: strike price of the option
//   - T: time to expiry in years
//   - r: risk-free interest rate (annual)
//   - sigma: volatility of the underlying asset (annual, as a decimal)
//
// If time to expiry or volatility is zero or negative, returns the
// intrinsic value of the option.
func BlackScholesPrice(isCall bool, S, K, T, r, sigma float64) float64 {
	if T <= 0 || sigma <= 0 {
		if isCall {
			return math.Max(0, S-K)
		}
		return math.Max(0, K-S)
	}

	d1, d2 := d1d2(S, K, T, r, sigma)

	if isCall {
		return S*NormCDF(d1) - K*math.Exp(-r*T)*NormCDF(d2)
	}
	return K*math.Exp(-r*T)*NormCDF(-d2) - S*NormCDF(-d1)
}

// BlackScholesVega returns the sensitivity of the option price to a
// 1.00 change in volatility (same for puts and calls). Returns 0 if
// T or sigma is non-positive.
func BlackScholesVega(S, K, T, r, sigma float64) float64 {
	if T <= 0 || sigma <= 0 {
		return 0
	}
	d1, _ := d1d2(S, K, T, r, sigma)
	return S * NormPDF(d1) * math.Sqrt(T)
}

// PutImpliedVol solves for the volatility that reprices a European put
// to the observed market price using Newton-Raphson iteration.
//
// The screener uses this when a chain row carries a tradable mid but
// the feed omitted (or zeroed) its implied volatility, so the Greeks
// can still be driven by market information instead of the static
// fallback vol.
//
// Returns ErrNoConvergence if the iteration stalls, or an error for an
// invalid expiry.
func PutImpliedVol(marketPrice, S, K, T, r float64) (float64, error) {
	if T <= 0 {
		return 0, errors.New("invalid expiry")
	}

	// Initial guess: 20%
	sigma := 0.20

	const (
		maxIter = 100
		tol     = 1e-6
	)

	for i := 0; i < maxIter; i++ {
		price := BlackScholesPrice(false, S, K, T, r, sigma)
		diff := price - marketPrice

		if math.Abs(diff) < tol {
			return sigma, nil
		}

		vega := BlackScholesVega(S, K, T, r, sigma)
		if vega < 1e-8 {
			break
		}

		sigma -= diff / vega

		// Guardrails
		if sigma <= 0 {
			sigma = 1e-4
		}
		if sigma > 5 {
			sigma = 5
		}
	}

	return 0, ErrNoConvergence
}
