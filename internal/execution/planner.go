// Package execution turns ranked screen results into a concrete
// order plan: which puts to sell, how many contracts, and at what
// limit, inside a collateral budget.
package execution

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/contactkeval/csp-screener/internal/screener"
)

var (
	ErrNoCandidates = errors.New("no candidates to plan from")
	ErrNoBudget     = errors.New("collateral budget too small for any candidate")
)

// Order is one sell-to-open limit order.
type Order struct {
	Ticker     string    `json:"ticker"`
	Strike     float64   `json:"strike"`
	Expiry     time.Time `json:"expiry"`
	Contracts  int       `json:"contracts"`
	LimitPrice float64   `json:"limit_price"`
	Collateral float64   `json:"collateral"`
	Premium    float64   `json:"premium"`
	Score      float64   `json:"score"`
}

// Plan is the full allocation produced for one run.
type Plan struct {
	Orders          []Order `json:"orders"`
	TotalCollateral float64 `json:"total_collateral"`
	TotalPremium    float64 `json:"total_premium"`
	Uncommitted     float64 `json:"uncommitted"`
}

// PlanOrders walks the candidates in rank order and allocates one
// position per underlying until maxPositions or the collateral budget
// runs out. A candidate whose collateral no longer fits is skipped,
// not shrunk, so the plan keeps the screen's ranking honest.
func PlanOrders(cands []screener.Candidate, maxPositions int, maxCollateral float64) (Plan, error) {
	if len(cands) == 0 {
		return Plan{}, ErrNoCandidates
	}

	plan := Plan{Uncommitted: maxCollateral}
	taken := make(map[string]bool)

	for _, c := range cands {
		if len(plan.Orders) >= maxPositions {
			break
		}
		if taken[c.Ticker] {
			continue
		}
		collateral := c.Collateral()
		if collateral > plan.Uncommitted {
			log.Debug().
				Str("ticker", c.Ticker).
				Float64("collateral", collateral).
				Float64("remaining", plan.Uncommitted).
				Msg("candidate over remaining budget, skipping")
			continue
		}

		order := Order{
			Ticker:     c.Ticker,
			Strike:     c.Strike,
			Expiry:     c.Expiry,
			Contracts:  1,
			LimitPrice: roundToTick(c.Mid),
			Collateral: collateral,
			Premium:    c.Premium(),
			Score:      c.Score,
		}
		plan.Orders = append(plan.Orders, order)
		plan.TotalCollateral += collateral
		plan.TotalPremium += order.Premium
		plan.Uncommitted -= collateral
		taken[c.Ticker] = true
	}

	if len(plan.Orders) == 0 {
		return Plan{}, ErrNoBudget
	}
	return plan, nil
}

// roundToTick rounds a limit to the nickel, the coarsest tick still
// common on equity options.
func roundToTick(px float64) float64 {
	return math.Round(px*20) / 20
}

// WritePlan prints the plan as an aligned table.
func WritePlan(w io.Writer, plan Plan) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tSTRIKE\tEXP\tQTY\tLIMIT\tCOLLATERAL\tPREMIUM\tSCORE\t")
	for _, o := range plan.Orders {
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%d\t%.2f\t$%s\t$%s\t%.1f\t\n",
			o.Ticker, o.Strike, o.Expiry.Format("2006-01-02"), o.Contracts,
			o.LimitPrice,
			humanize.CommafWithDigits(o.Collateral, 0),
			humanize.CommafWithDigits(o.Premium, 0),
			o.Score)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d orders, $%s collateral, $%s premium, $%s uncommitted\n",
		len(plan.Orders),
		humanize.CommafWithDigits(plan.TotalCollateral, 0),
		humanize.CommafWithDigits(plan.TotalPremium, 0),
		humanize.CommafWithDigits(plan.Uncommitted, 0))
}

// SavePlan writes the plan as JSON.
func SavePlan(plan Plan, path string) error {
	b, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
