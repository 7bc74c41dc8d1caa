package execution

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/csp-screener/internal/screener"
	"github.com/contactkeval/csp-screener/internal/testutil"
)

func cand(ticker string, strike, mid, score float64) screener.Candidate {
	return screener.Candidate{
		Ticker: ticker, Strike: strike, Mid: mid, Score: score,
		Expiry: time.Date(2026, 9, 25, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlanOrdersAllocatesInRankOrder(t *testing.T) {
	cands := []screener.Candidate{
		cand("NVDA", 175, 2.47, 21),
		cand("AMD", 148, 2.17, 14),
		cand("MSFT", 500, 6.10, 13),
	}

	plan, err := PlanOrders(cands, 5, 35000)
	require.NoError(t, err)
	require.Len(t, plan.Orders, 2, "MSFT's $50k collateral never fits")

	assert.Equal(t, "NVDA", plan.Orders[0].Ticker)
	assert.Equal(t, "AMD", plan.Orders[1].Ticker)
	assert.Equal(t, 17500.0, plan.Orders[0].Collateral)
	assert.InDelta(t, 247.0, plan.Orders[0].Premium, 1e-9)
	assert.InDelta(t, 35000-17500-14800, plan.Uncommitted, 1e-9)
}

func TestPlanOrdersSkipsOverBudgetButKeepsGoing(t *testing.T) {
	cands := []screener.Candidate{
		cand("MSFT", 500, 6.10, 21), // $50k, over budget
		cand("AMD", 148, 2.17, 14),
	}
	plan, err := PlanOrders(cands, 5, 20000)
	require.NoError(t, err)
	require.Len(t, plan.Orders, 1)
	assert.Equal(t, "AMD", plan.Orders[0].Ticker)
}

func TestPlanOrdersOnePositionPerTicker(t *testing.T) {
	cands := []screener.Candidate{
		cand("NVDA", 175, 2.47, 21),
		cand("NVDA", 170, 2.05, 19),
		cand("AMD", 148, 2.17, 14),
	}
	plan, err := PlanOrders(cands, 5, 100000)
	require.NoError(t, err)
	require.Len(t, plan.Orders, 2)
	assert.Equal(t, 175.0, plan.Orders[0].Strike, "best-ranked NVDA strike wins")
}

func TestPlanOrdersMaxPositions(t *testing.T) {
	cands := []screener.Candidate{
		cand("A", 100, 1.5, 20),
		cand("B", 100, 1.4, 19),
		cand("C", 100, 1.3, 18),
	}
	plan, err := PlanOrders(cands, 2, 100000)
	require.NoError(t, err)
	assert.Len(t, plan.Orders, 2)
}

func TestPlanOrdersLimitRoundedToNickel(t *testing.T) {
	plan, err := PlanOrders([]screener.Candidate{cand("NVDA", 175, 2.47, 21)}, 1, 20000)
	require.NoError(t, err)
	assert.InDelta(t, 2.45, plan.Orders[0].LimitPrice, 1e-9)
}

func TestPlanOrdersErrors(t *testing.T) {
	_, err := PlanOrders(nil, 5, 100000)
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = PlanOrders([]screener.Candidate{cand("NVDA", 175, 2.47, 21)}, 5, 1000)
	assert.ErrorIs(t, err, ErrNoBudget)
}

func TestPlanGolden(t *testing.T) {
	plan, err := PlanOrders([]screener.Candidate{cand("NVDA", 175, 2.50, 21.5)}, 1, 20000)
	require.NoError(t, err)
	testutil.CompareWithGolden(t, "plan_basic", plan)
}

func TestWriteAndSavePlan(t *testing.T) {
	plan, err := PlanOrders([]screener.Candidate{cand("NVDA", 175, 2.47, 21)}, 1, 20000)
	require.NoError(t, err)

	var buf bytes.Buffer
	WritePlan(&buf, plan)
	assert.Contains(t, buf.String(), "NVDA")
	assert.Contains(t, buf.String(), "1 orders")

	path := filepath.Join(t.TempDir(), "plan.json")
	require.NoError(t, SavePlan(plan, path))
	assert.FileExists(t, path)
}
