package data

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/contactkeval/csp-screener/internal/pricing"
)

// syntheticProvider generates deterministic market data for offline
// runs and tests. All output is derived from a per-ticker seed, so the
// same ticker always yields the same quote, chain and bars. Put quotes
// are priced with the Black-Scholes model around a skewed vol curve so
// the chains behave like real ones under the screen filters.
type syntheticProvider struct {
	now       time.Time
	secondary Provider
}

// NewSyntheticProvider builds an offline provider anchored at now.
// Expirations and bar histories are generated relative to that anchor.
func NewSyntheticProvider(now time.Time) Provider {
	return &syntheticProvider{now: now.UTC()}
}

func (sp *syntheticProvider) Secondary() Provider { return sp.secondary }

// tickerRand returns a rand source seeded from the ticker name, plus
// an optional salt so chains and bars draw independent streams.
func tickerRand(ticker, salt string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(ticker))
	h.Write([]byte(salt))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// baseVol is the annualized vol of the synthetic underlying, in the
// 0.25-0.55 range depending on ticker.
func (sp *syntheticProvider) baseVol(ticker string) float64 {
	rng := tickerRand(ticker, "vol")
	return 0.25 + rng.Float64()*0.30
}

func (sp *syntheticProvider) spot(ticker string) float64 {
	rng := tickerRand(ticker, "spot")
	return math.Round((40+rng.Float64()*360)*100) / 100
}

func (sp *syntheticProvider) FetchQuote(_ context.Context, ticker string) (Quote, error) {
	rng := tickerRand(ticker, "quote")
	earnings := sp.now.AddDate(0, 0, 14+rng.Intn(70))
	return Quote{
		Ticker:          ticker,
		Price:           sp.spot(ticker),
		MarketCap:       (10 + rng.Float64()*990) * 1e9,
		PERatio:         8 + rng.Float64()*70,
		GrossMargin:     20 + rng.Float64()*60,
		OperatingMargin: 5 + rng.Float64()*30,
		ProfitMargin:    2 + rng.Float64()*25,
		FCFYield:        rng.Float64() * 8,
		RevenueGrowth:   -5 + rng.Float64()*35,
		NextEarnings:    &earnings,
		Valid:           true,
	}, nil
}

// FetchExpirations yields the next ten weekly Fridays after the
// anchor date.
func (sp *syntheticProvider) FetchExpirations(_ context.Context, _ string) ([]time.Time, error) {
	d := sp.now
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, 1)
	}
	out := make([]time.Time, 0, 10)
	for i := 0; i < 10; i++ {
		out = append(out, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
		d = d.AddDate(0, 0, 7)
	}
	return out, nil
}

// strikeIncrement mirrors exchange listing conventions: $1 strikes
// under $50, $2.50 under $100, $5 above.
func strikeIncrement(spot float64) float64 {
	switch {
	case spot < 50:
		return 1
	case spot < 100:
		return 2.5
	default:
		return 5
	}
}

func (sp *syntheticProvider) FetchPutChain(_ context.Context, ticker string, expiry time.Time) ([]PutOption, error) {
	spot := sp.spot(ticker)
	vol := sp.baseVol(ticker)
	rng := tickerRand(ticker, "chain"+expiry.Format("20060102"))

	T := expiry.Sub(sp.now).Hours() / 24 / 365
	if T <= 0 {
		return nil, ErrEmptyChain
	}

	// Ladder reaches down to roughly the 0.05th percentile of the
	// terminal distribution, so deep-OTM strikes exist for volatile
	// names without listing useless ones on calm ones.
	inc := strikeIncrement(spot)
	lo := spot * math.Exp(vol*math.Sqrt(T)*pricing.NormInv(0.0005))
	lo = math.Floor(lo/inc) * inc
	hi := math.Ceil(spot*1.05/inc) * inc

	var out []PutOption
	for k := lo; k <= hi+1e-9; k += inc {
		// Downside skew: OTM puts trade at richer vols.
		iv := vol * (1 + 0.4*math.Max(0, (spot-k)/spot))
		price := pricing.BlackScholesPrice(false, spot, k, T, 0.045, iv)
		spread := math.Max(0.02, price*0.06)
		bid := math.Max(0, math.Round((price-spread/2)*100)/100)
		ask := math.Round((price+spread/2)*100) / 100
		out = append(out, PutOption{
			Strike:       k,
			Bid:          bid,
			Ask:          ask,
			Last:         math.Round(price*100) / 100,
			ImpliedVol:   iv,
			Volume:       int64(rng.Intn(2000)),
			OpenInterest: int64(50 + rng.Intn(9000)),
			Expiry:       expiry,
		})
	}
	if len(out) == 0 {
		return nil, ErrEmptyChain
	}
	return out, nil
}

// FetchDailyBars walks a seeded geometric random path across weekdays
// in [from, to], so IV rank estimates have a full history to work on.
func (sp *syntheticProvider) FetchDailyBars(_ context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	rng := tickerRand(ticker, "bars")
	vol := sp.baseVol(ticker)
	dailyVol := vol / math.Sqrt(252)

	price := sp.spot(ticker)
	var out []Bar
	for cur := from.UTC(); !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			continue
		}
		open := price
		close := price * math.Exp(rng.NormFloat64()*dailyVol)
		high := math.Max(open, close) * (1 + math.Abs(rng.NormFloat64())*dailyVol/2)
		low := math.Min(open, close) * (1 - math.Abs(rng.NormFloat64())*dailyVol/2)
		out = append(out, Bar{
			Date: cur, Open: open, High: high, Low: low, Close: close,
			Vol: float64(100000 + rng.Intn(900000)),
		})
		price = close
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}
