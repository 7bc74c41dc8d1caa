package screener

import (
	"fmt"
	"math"
	"time"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/csp-screener/internal/data"
	"github.com/contactkeval/csp-screener/internal/pricing"
)

// Reason names why a contract or underlying was rejected. Reasons are
// tallied per run so a screen that returns nothing can explain
// itself.
type Reason string

const (
	ReasonAccepted   Reason = ""
	ReasonITM        Reason = "strike_at_or_above_spot"
	ReasonNoBid      Reason = "no_bid"
	ReasonWideSpread Reason = "spread_too_wide"
	ReasonDTE        Reason = "dte_outside_window"
	ReasonDelta      Reason = "delta_outside_band"
	ReasonLowReturn  Reason = "return_below_minimum"
	ReasonExpression Reason = "filter_expression"

	ReasonLowGrossMargin Reason = "gross_margin_below_floor"
	ReasonLowFCFYield    Reason = "fcf_yield_below_floor"
	ReasonLowRevGrowth   Reason = "revenue_growth_below_floor"
)

// CompileFilterExpr parses a user filter expression. Parameters
// available to it: ticker, strike, mid, dte, delta (absolute), gamma,
// theta, vega, iv, iv_rank, spread_ratio, monthly_return, otm_pct,
// quality, volume, open_interest, earnings_before.
func CompileFilterExpr(src string) (*govaluate.EvaluableExpression, error) {
	expr, err := govaluate.NewEvaluableExpression(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", src, err)
	}
	return expr, nil
}

// Filter applies the contract checks in a fixed cheap-to-expensive
// order and builds the Candidate as a side effect of passing them.
type Filter struct {
	cfg  Config
	expr *govaluate.EvaluableExpression
}

// NewFilter compiles cfg.FilterExpr if present.
func NewFilter(cfg Config) (*Filter, error) {
	f := &Filter{cfg: cfg}
	if cfg.FilterExpr != "" {
		expr, err := CompileFilterExpr(cfg.FilterExpr)
		if err != nil {
			return nil, err
		}
		f.expr = expr
	}
	return f, nil
}

// CheckUnderlying applies the optional fundamental floors. A floor
// compares against the raw metric, so missing data (zero) fails a
// positive floor rather than sneaking through.
func (f *Filter) CheckUnderlying(q data.Quote) Reason {
	if m := f.cfg.MinGrossMargin; m != nil && q.GrossMargin < *m {
		return ReasonLowGrossMargin
	}
	if m := f.cfg.MinFCFYield; m != nil && q.FCFYield < *m {
		return ReasonLowFCFYield
	}
	if m := f.cfg.MinRevGrowth; m != nil && q.RevenueGrowth < *m {
		return ReasonLowRevGrowth
	}
	return ReasonAccepted
}

// Evaluate runs one put through the screen. On acceptance it returns
// the fully populated candidate (score not yet assigned) and
// ReasonAccepted. The error is non-nil only when a user filter
// expression fails to evaluate.
func (f *Filter) Evaluate(q data.Quote, put data.PutOption, now time.Time, quality int, ivRank float64, ivKnown bool) (Candidate, Reason, error) {
	if put.Strike >= q.Price {
		return Candidate{}, ReasonITM, nil
	}
	if put.Bid <= 0 {
		return Candidate{}, ReasonNoBid, nil
	}

	mid := put.Mid()
	if mid > 0 && put.SpreadRatio() > f.cfg.MaxSpreadRatio {
		return Candidate{}, ReasonWideSpread, nil
	}

	// Same-day expiries are never sellable here, whatever MinDTE
	// says; dte also divides the return normalization below.
	dte := int(put.Expiry.Sub(now).Hours() / 24)
	if dte < 1 || dte < f.cfg.MinDTE || dte > f.cfg.MaxDTE {
		return Candidate{}, ReasonDTE, nil
	}

	sigma := put.ImpliedVol
	if sigma <= 0 {
		sigma = f.cfg.FallbackVol
	}
	greeks := pricing.PutGreeks(q.Price, put.Strike, float64(dte)/365, f.cfg.RiskFreeRate, sigma)

	absDelta := math.Abs(greeks.Delta)
	if absDelta < f.cfg.MinDelta || absDelta > f.cfg.MaxDelta {
		return Candidate{}, ReasonDelta, nil
	}

	monthly := mid / put.Strike * (30 / float64(dte)) * 100
	if monthly < f.cfg.MinReturn {
		return Candidate{}, ReasonLowReturn, nil
	}

	c := Candidate{
		Ticker:         q.Ticker,
		StockPrice:     q.Price,
		Strike:         put.Strike,
		Expiry:         put.Expiry,
		DTE:            dte,
		Bid:            put.Bid,
		Ask:            put.Ask,
		Mid:            mid,
		ImpliedVol:     sigma,
		Volume:         put.Volume,
		OpenInt:        put.OpenInterest,
		Greeks:         greeks,
		MonthlyReturn:  monthly,
		OTMPct:         (q.Price - put.Strike) / q.Price * 100,
		IVRank:         ivRank,
		IVRankKnown:    ivKnown,
		Quality:        quality,
		EarningsBefore: earningsBefore(q, now, put.Expiry),
	}

	if f.expr != nil {
		ok, err := f.evalExpr(c, put)
		if err != nil {
			return Candidate{}, ReasonExpression, err
		}
		if !ok {
			return Candidate{}, ReasonExpression, nil
		}
	}
	return c, ReasonAccepted, nil
}

func (f *Filter) evalExpr(c Candidate, put data.PutOption) (bool, error) {
	params := map[string]interface{}{
		"ticker":          c.Ticker,
		"strike":          c.Strike,
		"mid":             c.Mid,
		"dte":             float64(c.DTE),
		"delta":           math.Abs(c.Greeks.Delta),
		"gamma":           c.Greeks.Gamma,
		"theta":           c.Greeks.Theta,
		"vega":            c.Greeks.Vega,
		"iv":              c.ImpliedVol,
		"iv_rank":         c.IVRank,
		"spread_ratio":    put.SpreadRatio(),
		"monthly_return":  c.MonthlyReturn,
		"otm_pct":         c.OTMPct,
		"quality":         float64(c.Quality),
		"volume":          float64(c.Volume),
		"open_interest":   float64(c.OpenInt),
		"earnings_before": c.EarningsBefore,
	}
	res, err := f.expr.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("evaluating filter for %s %v: %w", c.Ticker, c.Strike, err)
	}
	ok, isBool := res.(bool)
	if !isBool {
		return false, fmt.Errorf("filter for %s %v returned %T, want bool", c.Ticker, c.Strike, res)
	}
	return ok, nil
}

func earningsBefore(q data.Quote, now, expiry time.Time) bool {
	return q.NextEarnings != nil &&
		q.NextEarnings.After(now) &&
		q.NextEarnings.Before(expiry)
}
