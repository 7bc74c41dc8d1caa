package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/contactkeval/csp-screener/internal/screener"
)

// runOutput is the JSON envelope written next to the table output.
type runOutput struct {
	Candidates []screener.Candidate `json:"candidates"`
	Stats      screener.RunStats    `json:"stats"`
}

func WriteJSON(cands []screener.Candidate, stats screener.RunStats, path string) error {
	b, err := json.MarshalIndent(runOutput{Candidates: cands, Stats: stats}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func WriteCSV(cands []screener.Candidate, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	headers := []string{"ticker", "stock_price", "strike", "expiry", "dte", "bid", "ask", "mid", "delta", "gamma", "theta", "vega", "iv", "iv_rank", "otm_pct", "monthly_return", "quality", "earnings_before_expiry", "score", "tier"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, c := range cands {
		ivRank := ""
		if c.IVRankKnown {
			ivRank = fmt.Sprintf("%.1f", c.IVRank)
		}
		row := []string{
			c.Ticker,
			fmt.Sprintf("%.2f", c.StockPrice),
			fmt.Sprintf("%.2f", c.Strike),
			c.Expiry.Format("2006-01-02"),
			fmt.Sprintf("%d", c.DTE),
			fmt.Sprintf("%.2f", c.Bid),
			fmt.Sprintf("%.2f", c.Ask),
			fmt.Sprintf("%.2f", c.Mid),
			fmt.Sprintf("%.4f", c.Greeks.Delta),
			fmt.Sprintf("%.6f", c.Greeks.Gamma),
			fmt.Sprintf("%.2f", c.Greeks.Theta),
			fmt.Sprintf("%.2f", c.Greeks.Vega),
			fmt.Sprintf("%.4f", c.ImpliedVol),
			ivRank,
			fmt.Sprintf("%.2f", c.OTMPct),
			fmt.Sprintf("%.2f", c.MonthlyReturn),
			fmt.Sprintf("%d", c.Quality),
			fmt.Sprintf("%t", c.EarningsBefore),
			fmt.Sprintf("%.2f", c.Score),
			c.Tier,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// ReadJSON loads a previously written run, for feeding into the
// order planner.
func ReadJSON(path string) ([]screener.Candidate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading results %s: %w", path, err)
	}
	var out runOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing results %s: %w", path, err)
	}
	return out.Candidates, nil
}
