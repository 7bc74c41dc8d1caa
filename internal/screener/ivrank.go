package screener

import (
	"math"

	"github.com/contactkeval/csp-screener/internal/data"
)

const ivRankWindow = 30 // trading days per realized-vol sample

// EstimateIVRank places today's volatility inside its one-year range
// using realized vol as a proxy: 30-day rolling stdev of log returns,
// annualized, ranked against the year's min/max. Returns ok=false
// when the history is too short to say anything.
func EstimateIVRank(bars []data.Bar) (rank float64, ok bool) {
	if len(bars) < ivRankWindow+1 {
		return 0, false
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < ivRankWindow {
		return 0, false
	}

	vols := make([]float64, 0, len(returns)-ivRankWindow+1)
	for i := ivRankWindow; i <= len(returns); i++ {
		vols = append(vols, annualizedStdev(returns[i-ivRankWindow:i]))
	}

	min, max := vols[0], vols[0]
	for _, v := range vols[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	cur := vols[len(vols)-1]
	if max-min < 1e-12 {
		return 50, true // flat vol history: call it mid-range
	}
	return (cur - min) / (max - min) * 100, true
}

func annualizedStdev(returns []float64) float64 {
	n := float64(len(returns))
	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= n

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss/(n-1)) * math.Sqrt(252)
}
