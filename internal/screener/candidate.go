package screener

import (
	"time"

	"github.com/contactkeval/csp-screener/internal/pricing"
)

// Candidate is a put contract that survived the screen, with every
// number the report needs already computed.
type Candidate struct {
	Ticker     string    `json:"ticker"`
	StockPrice float64   `json:"stock_price"`
	Strike     float64   `json:"strike"`
	Expiry     time.Time `json:"expiry"`
	DTE        int       `json:"dte"`

	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Mid        float64 `json:"mid"`
	ImpliedVol float64 `json:"implied_vol"`
	Volume     int64   `json:"volume"`
	OpenInt    int64   `json:"open_interest"`

	Greeks pricing.Greeks `json:"greeks"`

	MonthlyReturn float64 `json:"monthly_return"` // percent, 30d-normalized
	OTMPct        float64 `json:"otm_pct"`        // percent below spot
	IVRank        float64 `json:"iv_rank"`
	IVRankKnown   bool    `json:"iv_rank_known"`
	Quality       int     `json:"quality"`

	// EarningsBefore flags an earnings date inside the holding
	// period.
	EarningsBefore bool `json:"earnings_before_expiry"`

	Score float64 `json:"score"`
	Tier  string  `json:"tier,omitempty"`
}

// Collateral is the cash securing one short contract.
func (c Candidate) Collateral() float64 { return c.Strike * 100 }

// Premium is the credit received at the mid for one contract.
func (c Candidate) Premium() float64 { return c.Mid * 100 }

// Score tiers used by the report legend.
const (
	TierTop    = "★★★"
	TierStrong = "★★"
	TierGood   = "★"
)

// TierFor buckets a composite score for display.
func TierFor(score float64) string {
	switch {
	case score >= 20:
		return TierTop
	case score >= 16:
		return TierStrong
	case score >= 12:
		return TierGood
	default:
		return ""
	}
}
