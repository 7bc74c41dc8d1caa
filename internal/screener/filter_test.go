package screener

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/csp-screener/internal/data"
)

var filterNow = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

// goodPut passes every default check against a $190 underlying.
func goodPut() data.PutOption {
	return data.PutOption{
		Strike:     175,
		Bid:        2.40,
		Ask:        2.55,
		ImpliedVol: 0.38,
		Expiry:     filterNow.AddDate(0, 0, 32),
	}
}

func goodQuote() data.Quote {
	return data.Quote{Ticker: "NVDA", Price: 190, GrossMargin: 72, Valid: true}
}

func mustFilter(t *testing.T, cfg Config) *Filter {
	t.Helper()
	cfg.ApplyDefaults()
	f, err := NewFilter(cfg)
	require.NoError(t, err)
	return f
}

func TestFilterAcceptsGoodContract(t *testing.T) {
	f := mustFilter(t, Config{})
	c, reason, err := f.Evaluate(goodQuote(), goodPut(), filterNow, 78, 60, true)
	require.NoError(t, err)
	require.Equal(t, ReasonAccepted, reason)

	assert.Equal(t, 32, c.DTE)
	assert.InDelta(t, 2.475, c.Mid, 1e-9)
	assert.InDelta(t, (190.0-175.0)/190.0*100, c.OTMPct, 1e-9)
	assert.Equal(t, 78, c.Quality)
	assert.True(t, c.IVRankKnown)
	assert.Negative(t, c.Greeks.Delta)
}

func TestFilterRejectsInTheMoney(t *testing.T) {
	f := mustFilter(t, Config{})
	put := goodPut()
	put.Strike = 195
	_, reason, _ := f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonITM, reason)

	// At-the-money counts as ITM for this screen.
	put.Strike = 190
	_, reason, _ = f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonITM, reason)
}

func TestFilterRejectsNoBid(t *testing.T) {
	f := mustFilter(t, Config{})
	put := goodPut()
	put.Bid = 0
	_, reason, _ := f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonNoBid, reason)
}

func TestFilterRejectsWideSpread(t *testing.T) {
	f := mustFilter(t, Config{})
	put := goodPut()
	put.Bid, put.Ask = 1.00, 1.40 // 33% of mid
	_, reason, _ := f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonWideSpread, reason)
}

func TestFilterRejectsDTEOutsideWindow(t *testing.T) {
	f := mustFilter(t, Config{})

	put := goodPut()
	put.Expiry = filterNow.AddDate(0, 0, 7)
	_, reason, _ := f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonDTE, reason)

	put.Expiry = filterNow.AddDate(0, 0, 90)
	_, reason, _ = f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonDTE, reason)
}

func TestFilterRejectsSameDayExpiryEvenWithOpenBands(t *testing.T) {
	// With the bands wide open, a same-day expiry must still be
	// rejected: zero-sentinel Greeks would pass a zero delta floor
	// and the 30/dte normalization would divide by zero.
	cfg := DefaultConfig()
	cfg.MinDTE = 0
	cfg.MinDelta = 0
	require.NoError(t, cfg.Validate())

	f, err := NewFilter(cfg)
	require.NoError(t, err)

	put := goodPut()
	put.Expiry = filterNow.Add(2 * time.Hour)
	c, reason, _ := f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonDTE, reason)
	assert.False(t, math.IsInf(c.MonthlyReturn, 1))
}

func TestFilterRejectsDeltaOutsideBand(t *testing.T) {
	f := mustFilter(t, Config{})

	// Far OTM: tiny delta.
	put := goodPut()
	put.Strike = 100
	put.Bid, put.Ask = 0.40, 0.45
	_, reason, _ := f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonDelta, reason)

	// Just under spot: delta too large.
	put = goodPut()
	put.Strike = 188
	put.Bid, put.Ask = 6.80, 7.00
	_, reason, _ = f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	assert.Equal(t, ReasonDelta, reason)
}

func TestFilterRejectsLowReturn(t *testing.T) {
	cfg := Config{MinReturn: 2.0}
	f := mustFilter(t, cfg)
	_, reason, _ := f.Evaluate(goodQuote(), goodPut(), filterNow, 50, 0, false)
	assert.Equal(t, ReasonLowReturn, reason)
}

func TestFilterMonthlyReturnNormalization(t *testing.T) {
	// mid 2.25 on a 180 strike over 25 days is exactly 1.5%/month.
	f := mustFilter(t, Config{})
	q := data.Quote{Ticker: "X", Price: 190, Valid: true}
	put := data.PutOption{
		Strike: 180, Bid: 2.20, Ask: 2.30, ImpliedVol: 0.35,
		Expiry: filterNow.AddDate(0, 0, 25),
	}
	c, reason, err := f.Evaluate(q, put, filterNow, 50, 0, false)
	require.NoError(t, err)
	require.Equal(t, ReasonAccepted, reason)
	assert.InDelta(t, 1.5, c.MonthlyReturn, 1e-9)

	// A 30-day contract needs no normalization: 1.50 on a 100 strike
	// is 1.5% as-is.
	q = data.Quote{Ticker: "Y", Price: 110, Valid: true}
	put = data.PutOption{
		Strike: 100, Bid: 1.45, Ask: 1.55, ImpliedVol: 0.45,
		Expiry: filterNow.AddDate(0, 0, 30),
	}
	c, reason, err = f.Evaluate(q, put, filterNow, 50, 0, false)
	require.NoError(t, err)
	require.Equal(t, ReasonAccepted, reason)
	assert.InDelta(t, 1.5, c.MonthlyReturn, 1e-9)
}

func TestFilterFallbackVolWhenIVMissing(t *testing.T) {
	f := mustFilter(t, Config{})
	put := goodPut()
	put.Strike = 178 // keeps delta in band at the lower fallback vol
	put.ImpliedVol = 0
	c, reason, err := f.Evaluate(goodQuote(), put, filterNow, 50, 0, false)
	require.NoError(t, err)
	require.Equal(t, ReasonAccepted, reason)
	assert.InDelta(t, 0.30, c.ImpliedVol, 1e-9)
}

func TestFilterUnderlyingFloors(t *testing.T) {
	floor := 50.0
	f := mustFilter(t, Config{MinGrossMargin: &floor})

	q := goodQuote()
	assert.Equal(t, ReasonAccepted, f.CheckUnderlying(q))

	q.GrossMargin = 30
	assert.Equal(t, ReasonLowGrossMargin, f.CheckUnderlying(q))

	// Missing data fails a positive floor.
	q.GrossMargin = 0
	assert.Equal(t, ReasonLowGrossMargin, f.CheckUnderlying(q))
}

func TestFilterExpressionGate(t *testing.T) {
	f := mustFilter(t, Config{FilterExpr: "quality >= 60 && monthly_return > 1.0"})

	_, reason, err := f.Evaluate(goodQuote(), goodPut(), filterNow, 78, 0, false)
	require.NoError(t, err)
	assert.Equal(t, ReasonAccepted, reason)

	_, reason, err = f.Evaluate(goodQuote(), goodPut(), filterNow, 40, 0, false)
	require.NoError(t, err)
	assert.Equal(t, ReasonExpression, reason)
}

func TestFilterExpressionNonBoolean(t *testing.T) {
	f := mustFilter(t, Config{FilterExpr: "quality + 1"})
	_, reason, err := f.Evaluate(goodQuote(), goodPut(), filterNow, 78, 0, false)
	assert.Error(t, err)
	assert.Equal(t, ReasonExpression, reason)
}

func TestFilterEarningsBeforeExpiry(t *testing.T) {
	f := mustFilter(t, Config{})
	q := goodQuote()
	earnings := filterNow.AddDate(0, 0, 10)
	q.NextEarnings = &earnings

	c, reason, err := f.Evaluate(q, goodPut(), filterNow, 50, 0, false)
	require.NoError(t, err)
	require.Equal(t, ReasonAccepted, reason)
	assert.True(t, c.EarningsBefore)

	past := filterNow.AddDate(0, 0, -10)
	q.NextEarnings = &past
	c, _, _ = f.Evaluate(q, goodPut(), filterNow, 50, 0, false)
	assert.False(t, c.EarningsBefore)
}

func TestFilterFullExampleWithQuality(t *testing.T) {
	// A solid-but-not-stellar underlying lands at quality 78, and its
	// 180 strike a month out survives every check.
	q := data.Quote{
		Ticker: "NVDA", Price: 190, Valid: true,
		GrossMargin:     45, // +6
		OperatingMargin: 28, // +10
		FCFYield:        4,  // +5
		RevenueGrowth:   12, // +5
		PERatio:         30, // +2
	}
	quality := QualityScore(q)
	require.Equal(t, 78, quality)

	put := data.PutOption{
		Strike: 180, Bid: 2.00, Ask: 2.20, ImpliedVol: 0.35,
		Expiry: filterNow.AddDate(0, 0, 30),
	}

	f := mustFilter(t, Config{})
	c, reason, err := f.Evaluate(q, put, filterNow, quality, 0, false)
	require.NoError(t, err)
	require.Equal(t, ReasonAccepted, reason)

	assert.Equal(t, 78, c.Quality)
	assert.InDelta(t, 2.10, c.Mid, 1e-9)
	assert.InDelta(t, 2.10/180*100, c.MonthlyReturn, 1e-9)
	absDelta := math.Abs(c.Greeks.Delta)
	assert.GreaterOrEqual(t, absDelta, 0.15)
	assert.LessOrEqual(t, absDelta, 0.35)
}

func TestCompileFilterExprRejectsBadSyntax(t *testing.T) {
	_, err := CompileFilterExpr("quality >=")
	assert.Error(t, err)
}
