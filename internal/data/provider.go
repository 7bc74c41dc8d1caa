package data

import (
	"context"
	"errors"
	"time"
)

// Typed errors let the pipeline distinguish "this ticker has no data"
// (skip and continue) from transport failures without string matching.
var (
	ErrNoData       = errors.New("no data for ticker")
	ErrEmptyChain   = errors.New("empty option chain")
	ErrInvalidQuote = errors.New("invalid quote")
)

// Provider supplies market data. All fetches take a context so the
// pipeline can bound each ticker's round-trips with a deadline.
//
// Providers may be chained: Secondary returns an optional fallback
// consulted by the caller when this provider fails.
type Provider interface {
	Secondary() Provider

	// FetchQuote returns the price + fundamentals snapshot for one
	// underlying. A quote with Valid=false means the ticker exists but
	// carries no usable price.
	FetchQuote(ctx context.Context, ticker string) (Quote, error)

	// FetchExpirations returns the available option expiration dates
	// in ascending calendar order.
	FetchExpirations(ctx context.Context, ticker string) ([]time.Time, error)

	// FetchPutChain returns the put side of the chain for one
	// expiration.
	FetchPutChain(ctx context.Context, ticker string, expiry time.Time) ([]PutOption, error)

	// FetchDailyBars returns daily bars covering [from, to], used for
	// the realized-volatility history behind IV rank. Providers that
	// cannot serve history return ErrNoData; IV rank is then unknown
	// and the scorer falls back to its neutral term.
	FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error)
}

// WithFallback wraps primary so that any failed call is retried once
// against the secondary provider. A nil secondary returns primary
// unchanged.
func WithFallback(primary, secondary Provider) Provider {
	if secondary == nil {
		return primary
	}
	return &fallbackProvider{primary: primary, secondary: secondary}
}

type fallbackProvider struct {
	primary   Provider
	secondary Provider
}

func (f *fallbackProvider) Secondary() Provider { return f.secondary }

func (f *fallbackProvider) FetchQuote(ctx context.Context, ticker string) (Quote, error) {
	q, err := f.primary.FetchQuote(ctx, ticker)
	if err == nil && q.Valid {
		return q, nil
	}
	return f.secondary.FetchQuote(ctx, ticker)
}

func (f *fallbackProvider) FetchExpirations(ctx context.Context, ticker string) ([]time.Time, error) {
	exps, err := f.primary.FetchExpirations(ctx, ticker)
	if err == nil && len(exps) > 0 {
		return exps, nil
	}
	return f.secondary.FetchExpirations(ctx, ticker)
}

func (f *fallbackProvider) FetchPutChain(ctx context.Context, ticker string, expiry time.Time) ([]PutOption, error) {
	chain, err := f.primary.FetchPutChain(ctx, ticker, expiry)
	if err == nil && len(chain) > 0 {
		return chain, nil
	}
	return f.secondary.FetchPutChain(ctx, ticker, expiry)
}

func (f *fallbackProvider) FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	bars, err := f.primary.FetchDailyBars(ctx, ticker, from, to)
	if err == nil && len(bars) > 0 {
		return bars, nil
	}
	return f.secondary.FetchDailyBars(ctx, ticker, from, to)
}
