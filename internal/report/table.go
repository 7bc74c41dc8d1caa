// Package report renders screen results for humans (aligned tables)
// and machines (JSON/CSV files).
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/contactkeval/csp-screener/internal/data"
	"github.com/contactkeval/csp-screener/internal/screener"
)

// WriteTable prints the ranked candidates. Verbose adds the Greeks
// and liquidity columns.
func WriteTable(w io.Writer, cands []screener.Candidate, verbose bool) {
	if len(cands) == 0 {
		fmt.Fprintln(w, "no candidates matched the screen")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if verbose {
		fmt.Fprintln(tw, "#\tTICKER\tSTRIKE\tEXP\tDTE\tBID\tMID\tDELTA\tTHETA\tGAMMA\tIV\tIVR\tOTM%\tMO%\tQUAL\tVOL\tOI\tERN\tSCORE\t")
	} else {
		fmt.Fprintln(tw, "#\tTICKER\tSTRIKE\tEXP\tDTE\tMID\tDELTA\tOTM%\tMO%\tQUAL\tERN\tSCORE\t")
	}

	for i, c := range cands {
		ern := ""
		if c.EarningsBefore {
			ern = "!"
		}
		ivr := "-"
		if c.IVRankKnown {
			ivr = fmt.Sprintf("%.0f", c.IVRank)
		}
		score := fmt.Sprintf("%.1f %s", c.Score, c.Tier)

		if verbose {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.4f\t%.0f%%\t%s\t%.1f\t%.2f\t%d\t%s\t%s\t%s\t%s\t\n",
				i+1, c.Ticker, c.Strike, c.Expiry.Format("Jan02"), c.DTE,
				c.Bid, c.Mid, c.Greeks.Delta, c.Greeks.Theta, c.Greeks.Gamma,
				c.ImpliedVol*100, ivr, c.OTMPct, c.MonthlyReturn, c.Quality,
				humanize.Comma(c.Volume), humanize.Comma(c.OpenInt), ern, score)
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%d\t%.2f\t%.2f\t%.1f\t%.2f\t%d\t%s\t%s\t\n",
				i+1, c.Ticker, c.Strike, c.Expiry.Format("Jan02"), c.DTE,
				c.Mid, c.Greeks.Delta, c.OTMPct, c.MonthlyReturn, c.Quality, ern, score)
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%s >= 20   %s >= 16   %s >= 12   ! = earnings before expiry\n",
		screener.TierTop, screener.TierStrong, screener.TierGood)
}

// WriteStats prints the rejection tally so an empty screen explains
// itself.
func WriteStats(w io.Writer, stats screener.RunStats) {
	fmt.Fprintf(w, "screened %d tickers (%d skipped), %d contracts examined\n",
		stats.Tickers, stats.Skipped, stats.Contracts)

	reasons := make([]string, 0, len(stats.Rejected))
	for r := range stats.Rejected {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  rejected %-28s %d\n", r, stats.Rejected[screener.Reason(r)])
	}
}

// fundamentalsRow pairs a quote with its computed quality for
// sorting.
type fundamentalsRow struct {
	quote   data.Quote
	quality int
}

// WriteFundamentals prints the underlying fundamentals sorted by
// quality score, best first.
func WriteFundamentals(w io.Writer, quotes []data.Quote) {
	rows := make([]fundamentalsRow, 0, len(quotes))
	for _, q := range quotes {
		if !q.Valid {
			continue
		}
		rows = append(rows, fundamentalsRow{q, screener.QualityScore(q)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].quality != rows[j].quality {
			return rows[i].quality > rows[j].quality
		}
		return rows[i].quote.Ticker < rows[j].quote.Ticker
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tPRICE\tMKT CAP\tP/E\tGROSS%\tOP%\tFCF%\tGROWTH%\tQUALITY\t")
	for _, r := range rows {
		q := r.quote
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\t%d\t\n",
			q.Ticker, q.Price, humanize.SIWithDigits(q.MarketCap, 1, ""),
			q.PERatio, q.GrossMargin, q.OperatingMargin, q.FCFYield,
			q.RevenueGrowth, r.quality)
	}
	tw.Flush()
}

// WriteIncome projects premium income from allocating capital across
// the ranked candidates, one position per underlying, top score
// first.
func WriteIncome(w io.Writer, cands []screener.Candidate, capital float64) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tSTRIKE\tEXP\tCONTRACTS\tCOLLATERAL\tPREMIUM\tMO%\t")

	remaining := capital
	var totalPremium, totalCollateral float64
	taken := map[string]bool{}

	for _, c := range cands {
		if taken[c.Ticker] || c.Collateral() > remaining {
			continue
		}
		n := math.Floor(remaining / c.Collateral())
		if n > 3 {
			n = 3 // cap position concentration
		}
		collateral := n * c.Collateral()
		premium := n * c.Premium()

		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%.0f\t$%s\t$%s\t%.2f\t\n",
			c.Ticker, c.Strike, c.Expiry.Format("Jan02"), n,
			humanize.CommafWithDigits(collateral, 0),
			humanize.CommafWithDigits(premium, 0),
			c.MonthlyReturn)

		remaining -= collateral
		totalPremium += premium
		totalCollateral += collateral
		taken[c.Ticker] = true
	}
	tw.Flush()

	if totalCollateral > 0 {
		fmt.Fprintf(w, "\ntotal: $%s premium on $%s collateral (%.2f%%), $%s uncommitted\n",
			humanize.CommafWithDigits(totalPremium, 0),
			humanize.CommafWithDigits(totalCollateral, 0),
			totalPremium/totalCollateral*100,
			humanize.CommafWithDigits(remaining, 0))
	} else {
		fmt.Fprintln(w, "no position fits the available capital")
	}
}
