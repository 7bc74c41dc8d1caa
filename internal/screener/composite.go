package screener

import "math"

// Score blends a candidate's return, volatility richness, cushion,
// decay income and underlying quality into one comparable number,
// less a penalty for gamma (pin risk near the strike).
func (w Weights) Score(c Candidate) float64 {
	ivSignal := 0.5 // neutral when the vol history is too thin
	if c.IVRankKnown {
		ivSignal = c.IVRank / 100
	}

	score := w.MonthlyReturn * c.MonthlyReturn
	score += w.IVRank * ivSignal
	score += w.OTMCushion * c.OTMPct
	score += w.Theta * math.Min(math.Abs(c.Greeks.Theta)/10, 5)
	score += w.Quality * (float64(c.Quality) / 100 * 10)
	score -= w.GammaPenalty * math.Min(c.Greeks.Gamma*10000, 5)
	return score
}
