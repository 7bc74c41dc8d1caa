// Package data defines the market-data types consumed by the screener
// and the Provider implementations that populate them.
//
// The screener core depends only on the typed snapshots below; wire
// formats, pagination and endpoint quirks stay inside the individual
// providers.
package data

import "time"

// Quote is a point-in-time snapshot of an underlying: last price plus
// the fundamentals used for quality scoring. Fetched once per run per
// ticker and never mutated afterwards.
//
// Margin, yield and growth fields are percentages (55.0 = 55%), not
// fractions. A missing metric is reported as 0, which the quality
// scorer treats as "no information": neither bonus nor penalty.
type Quote struct {
	Ticker          string  `json:"ticker"`
	Price           float64 `json:"price"`
	MarketCap       float64 `json:"market_cap"`
	PERatio         float64 `json:"pe_ratio"`
	GrossMargin     float64 `json:"gross_margin"`
	OperatingMargin float64 `json:"operating_margin"`
	ProfitMargin    float64 `json:"profit_margin"`
	FCFYield        float64 `json:"fcf_yield"`
	RevenueGrowth   float64 `json:"revenue_growth"`

	// NextEarnings is the next scheduled earnings date, when the feed
	// knows it. Used only to flag binary-event risk on candidates.
	NextEarnings *time.Time `json:"next_earnings,omitempty"`

	// Valid is false when the provider could not produce a usable
	// price for the ticker. Invalid quotes contribute zero candidates.
	Valid bool `json:"valid"`
}

// PutOption is one row of a put chain: raw market fields only, no
// derived metrics. Immutable snapshot.
type PutOption struct {
	Strike       float64   `json:"strike"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Last         float64   `json:"last"`
	ImpliedVol   float64   `json:"implied_vol"` // fraction, 0.35 = 35%
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
	Expiry       time.Time `json:"expiry"`
}

// Mid returns the arithmetic mean of bid and ask.
func (o PutOption) Mid() float64 {
	return (o.Bid + o.Ask) / 2
}

// SpreadRatio returns (ask-bid)/mid, the liquidity proxy used by the
// spread filter. Returns 0 when mid is non-positive; the filter skips
// the check in that case.
func (o PutOption) SpreadRatio() float64 {
	mid := o.Mid()
	if mid <= 0 {
		return 0
	}
	return (o.Ask - o.Bid) / mid
}

// Bar is a simplified daily OHLCV bar, used for the realized-vol
// history behind the IV-rank estimate.
type Bar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
	Vol   float64   `json:"volume"`
}
