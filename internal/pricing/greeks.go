package pricing

import "math"

// Greeks holds the full sensitivity set for a European put.
//
// Units follow broker-statement conventions rather than textbook ones:
//   - Theta is dollars per day per contract (100 shares)
//   - Vega is dollars per 1-percentage-point IV move, per share
//   - Rho is dollars per 1-percentage-point rate move, per share
//
// A Greeks value is always fully populated: either every field is
// computed, or every field is zero (see PutGreeks).
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// IsZero reports whether g is the "not computable" sentinel.
func (g Greeks) IsZero() bool {
	return g.Delta == 0 && g.Gamma == 0 && g.Theta == 0 && g.Vega == 0 && g.Rho == 0
}

// d1d2 returns the Black-Scholes d1 and d2 terms. Callers must ensure
// T > 0 and sigma > 0.
func d1d2(S, K, T, r, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

// PutGreeks computes all Black-Scholes Greeks for a European put.
//
// Parameters:
//   - S: spot price of the underlying (must be > 0)
//   - K: strike price (must be > 0)
//   - T: time to expiry in years
//   - r: risk-free rate (annual, as a decimal)
//   - sigma: volatility (annual, as a decimal)
//
// If T <= 0 or sigma <= 0 the result is the all-zero sentinel: the
// contract is "not computable", not an error. Downstream the zero
// delta falls outside any sane delta band and the contract is
// filtered out naturally.
func PutGreeks(S, K, T, r, sigma float64) Greeks {
	if T <= 0 || sigma <= 0 {
		return Greeks{}
	}

	sqrtT := math.Sqrt(T)
	d1, d2 := d1d2(S, K, T, r, sigma)

	nd1 := NormPDF(d1)
	cdfNegD2 := NormCDF(-d2)

	// Put delta: N(d1) - 1 = -N(-d1), always in [-1, 0].
	delta := -NormCDF(-d1)

	// Gamma is identical for puts and calls.
	gamma := nd1 / (S * sigma * sqrtT)

	// Annualized theta, converted to $/day and scaled to a 100-share
	// contract.
	thetaAnnual := -(S*nd1*sigma)/(2*sqrtT) + r*K*math.Exp(-r*T)*cdfNegD2
	theta := thetaAnnual / 365.0 * 100.0

	// Vega per 1% IV move (textbook vega is per 1.00 move).
	vega := S * nd1 * sqrtT / 100.0

	// Put rho per 1% rate move.
	rho := -K * T * math.Exp(-r*T) * cdfNegD2 / 100.0

	return Greeks{Delta: delta, Gamma: gamma, Theta: theta, Vega: vega, Rho: rho}
}
