package screener

import "github.com/contactkeval/csp-screener/internal/data"

// QualityScore grades an underlying's fundamentals on a 0-100 scale,
// starting from a neutral 50 and nudging per metric. A zero metric
// means "no data" and contributes nothing, so a quote with no
// fundamentals at all comes out exactly neutral.
func QualityScore(q data.Quote) int {
	score := 50

	switch {
	case q.GrossMargin >= 60:
		score += 12
	case q.GrossMargin >= 40:
		score += 6
	case q.GrossMargin > 0 && q.GrossMargin < 20:
		score -= 8
	}

	switch {
	case q.OperatingMargin >= 25:
		score += 10
	case q.OperatingMargin >= 15:
		score += 5
	case q.OperatingMargin < 0:
		score -= 10
	}

	switch {
	case q.FCFYield >= 5:
		score += 10
	case q.FCFYield >= 2:
		score += 5
	case q.FCFYield < 0:
		score -= 8
	}

	switch {
	case q.RevenueGrowth >= 20:
		score += 10
	case q.RevenueGrowth >= 10:
		score += 5
	case q.RevenueGrowth < 0:
		score -= 8
	}

	// Negative P/E means negative earnings; extreme P/E means the
	// market is pricing a story, not cash flows. Both add assignment
	// risk.
	switch {
	case q.PERatio > 0 && q.PERatio <= 25:
		score += 8
	case q.PERatio > 25 && q.PERatio <= 50:
		score += 2
	case q.PERatio > 100 || q.PERatio < 0:
		score -= 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
