package screener

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/contactkeval/csp-screener/internal/data"
)

// RunStats summarizes a screen so an empty result can explain itself.
type RunStats struct {
	Tickers   int            `json:"tickers"`
	Skipped   int            `json:"skipped"` // tickers dropped for data errors
	Contracts int            `json:"contracts_examined"`
	Rejected  map[Reason]int `json:"rejected"`
}

// Screener runs the full pipeline against a data provider. Clock is
// injectable for tests; it is read once per Screen call so every
// contract in a run sees the same "now".
type Screener struct {
	prov   data.Provider
	cfg    Config
	filter *Filter
	Clock  func() time.Time
}

// New builds a Screener. cfg must already be validated.
func New(prov data.Provider, cfg Config) (*Screener, error) {
	f, err := NewFilter(cfg)
	if err != nil {
		return nil, err
	}
	return &Screener{prov: prov, cfg: cfg, filter: f, Clock: time.Now}, nil
}

// Screen evaluates every ticker concurrently and returns the top
// candidates by composite score. A ticker whose data cannot be
// fetched is logged and skipped; only ctx cancellation aborts the
// run.
func (s *Screener) Screen(ctx context.Context, tickers []string) ([]Candidate, RunStats, error) {
	now := s.Clock().UTC()

	stats := RunStats{Tickers: len(tickers), Rejected: make(map[Reason]int)}
	var (
		mu         sync.Mutex
		candidates []Candidate
	)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range jobs {
				cands, local, err := s.screenTicker(ctx, ticker, now)
				mu.Lock()
				if err != nil {
					stats.Skipped++
					log.Warn().Err(err).Str("ticker", ticker).Msg("skipping ticker")
				}
				stats.Contracts += local.Contracts
				for r, n := range local.Rejected {
					stats.Rejected[r] += n
				}
				candidates = append(candidates, cands...)
				mu.Unlock()
			}
		}()
	}

	for _, t := range tickers {
		select {
		case jobs <- t:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, stats, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	for i := range candidates {
		candidates[i].Score = s.cfg.Weights.Score(candidates[i])
		candidates[i].Tier = TierFor(candidates[i].Score)
	}
	sortCandidates(candidates)

	if len(candidates) > s.cfg.Top {
		candidates = candidates[:s.cfg.Top]
	}

	log.Info().
		Int("tickers", stats.Tickers).
		Int("skipped", stats.Skipped).
		Int("contracts", stats.Contracts).
		Int("candidates", len(candidates)).
		Msg("screen complete")

	return candidates, stats, nil
}

// screenTicker handles one underlying under its own timeout.
func (s *Screener) screenTicker(parent context.Context, ticker string, now time.Time) ([]Candidate, RunStats, error) {
	ctx, cancel := context.WithTimeout(parent, s.cfg.FetchTimeout)
	defer cancel()

	local := RunStats{Rejected: make(map[Reason]int)}

	quote, err := s.prov.FetchQuote(ctx, ticker)
	if err != nil {
		return nil, local, err
	}
	if !quote.Valid || quote.Price <= 0 {
		return nil, local, data.ErrInvalidQuote
	}

	if r := s.filter.CheckUnderlying(quote); r != ReasonAccepted {
		local.Rejected[r]++
		log.Debug().Str("ticker", ticker).Str("reason", string(r)).Msg("underlying rejected")
		return nil, local, nil
	}

	quality := QualityScore(quote)

	ivRank, ivKnown := 0.0, false
	if bars, err := s.prov.FetchDailyBars(ctx, ticker, now.AddDate(-1, 0, 0), now); err != nil {
		log.Debug().Err(err).Str("ticker", ticker).Msg("no bar history, iv rank unknown")
	} else {
		ivRank, ivKnown = EstimateIVRank(bars)
	}

	expirations, err := s.prov.FetchExpirations(ctx, ticker)
	if err != nil {
		return nil, local, err
	}

	var out []Candidate
	for _, expiry := range expirations {
		dte := int(expiry.Sub(now).Hours() / 24)
		if dte < s.cfg.MinDTE || dte > s.cfg.MaxDTE {
			continue // skip the chain fetch entirely
		}

		chain, err := s.prov.FetchPutChain(ctx, ticker, expiry)
		if err != nil {
			log.Debug().Err(err).Str("ticker", ticker).Time("expiry", expiry).Msg("chain unavailable")
			continue
		}

		for _, put := range chain {
			local.Contracts++
			cand, reason, err := s.filter.Evaluate(quote, put, now, quality, ivRank, ivKnown)
			if err != nil {
				log.Warn().Err(err).Str("ticker", ticker).Msg("filter expression error")
			}
			if reason != ReasonAccepted {
				local.Rejected[reason]++
				continue
			}
			out = append(out, cand)
		}
	}
	return out, local, nil
}

// sortCandidates orders by score descending; ties break on ticker,
// then expiry, then strike so identical inputs always rank
// identically.
func sortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if !a.Expiry.Equal(b.Expiry) {
			return a.Expiry.Before(b.Expiry)
		}
		return a.Strike < b.Strike
	})
}
