package screener

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contactkeval/csp-screener/internal/pricing"
)

func baseCandidate() Candidate {
	return Candidate{
		MonthlyReturn: 1.5,
		OTMPct:        8,
		IVRank:        60,
		IVRankKnown:   true,
		Quality:       78,
		Greeks:        pricing.Greeks{Delta: -0.25, Gamma: 0.0002, Theta: -4.2},
	}
}

func TestScoreBlend(t *testing.T) {
	w := DefaultWeights()
	c := baseCandidate()

	want := 0.40*1.5 + 15*0.60 + 0.25*8 + 1.5*(4.2/10) + 0.8*7.8 - 0.5*2.0
	assert.InDelta(t, want, w.Score(c), 1e-9)
}

func TestScoreUnknownIVRankIsNeutral(t *testing.T) {
	w := DefaultWeights()
	c := baseCandidate()
	c.IVRankKnown = false
	c.IVRank = 0

	known := baseCandidate()
	known.IVRank = 50
	assert.InDelta(t, w.Score(known), w.Score(c), 1e-9)
}

func TestScoreMonotonicInReturn(t *testing.T) {
	w := DefaultWeights()
	lo, hi := baseCandidate(), baseCandidate()
	hi.MonthlyReturn = lo.MonthlyReturn + 1
	assert.Greater(t, w.Score(hi), w.Score(lo))
}

func TestScoreCapsThetaAndGamma(t *testing.T) {
	w := DefaultWeights()

	big := baseCandidate()
	big.Greeks.Theta = -500
	capped := baseCandidate()
	capped.Greeks.Theta = -50 // already at the cap
	assert.InDelta(t, w.Score(capped), w.Score(big), 1e-9)

	pinned := baseCandidate()
	pinned.Greeks.Gamma = 1 // extreme
	alsoPinned := baseCandidate()
	alsoPinned.Greeks.Gamma = 0.0005 // hits the cap too
	assert.InDelta(t, w.Score(alsoPinned), w.Score(pinned), 1e-9)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierTop, TierFor(21))
	assert.Equal(t, TierTop, TierFor(20))
	assert.Equal(t, TierStrong, TierFor(17))
	assert.Equal(t, TierGood, TierFor(12.5))
	assert.Equal(t, "", TierFor(11.9))
}
