// Yahoo-backed Provider implementation.
//
// Talks to the public Yahoo Finance JSON endpoints directly (no SDK):
// quoteSummary for price + fundamentals, the options endpoint for
// expirations and put chains, and the chart endpoint for the daily
// bars behind IV rank. Requests are rate limited and circuit-broken;
// a failing upstream degrades a ticker to zero candidates instead of
// aborting the batch.
package data

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/contactkeval/csp-screener/internal/pricing"
)

// YahooConfig holds the transport settings for the Yahoo provider,
// loaded from the environment.
type YahooConfig struct {
	BaseURL   string        `envconfig:"YAHOO_BASE_URL" default:"https://query2.finance.yahoo.com"`
	Timeout   time.Duration `envconfig:"YAHOO_TIMEOUT" default:"30s"`
	RPS       float64       `envconfig:"YAHOO_RPS" default:"2"`
	Burst     int           `envconfig:"YAHOO_BURST" default:"4"`
	UserAgent string        `envconfig:"YAHOO_USER_AGENT" default:"Mozilla/5.0 (compatible; csp-screener)"`
}

// LoadYahooConfig reads YahooConfig from the environment.
func LoadYahooConfig() (YahooConfig, error) {
	var cfg YahooConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("processing provider env config: %w", err)
	}
	return cfg, nil
}

type yahooProvider struct {
	cfg       YahooConfig
	http      *httpClient
	secondary Provider
}

// NewYahooProvider constructs a Yahoo-backed data provider. secondary
// may be nil.
func NewYahooProvider(cfg YahooConfig, secondary Provider) Provider {
	log.Info().Str("base_url", cfg.BaseURL).Msg("initializing yahoo data provider")
	return &yahooProvider{
		cfg: cfg,
		http: newHTTPClient("yahoo", cfg.Timeout, cfg.RPS, cfg.Burst, map[string]string{
			"User-Agent": cfg.UserAgent,
			"Accept":     "application/json",
		}),
		secondary: secondary,
	}
}

func (yp *yahooProvider) Secondary() Provider { return yp.secondary }

// rawValue models Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper. Only
// the raw number matters here.
type rawValue struct {
	Raw float64 `json:"raw"`
}

type quoteSummaryResp struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				RegularMarketPrice rawValue `json:"regularMarketPrice"`
				MarketCap          rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE rawValue `json:"trailingPE"`
				ForwardPE  rawValue `json:"forwardPE"`
			} `json:"summaryDetail"`
			FinancialData struct {
				GrossMargins     rawValue `json:"grossMargins"`
				OperatingMargins rawValue `json:"operatingMargins"`
				ProfitMargins    rawValue `json:"profitMargins"`
				FreeCashflow     rawValue `json:"freeCashflow"`
				RevenueGrowth    rawValue `json:"revenueGrowth"`
			} `json:"financialData"`
			CalendarEvents struct {
				Earnings struct {
					EarningsDate []rawValue `json:"earningsDate"`
				} `json:"earnings"`
			} `json:"calendarEvents"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// FetchQuote retrieves price and fundamentals in a single
// quoteSummary call. Margins arrive as fractions and are converted to
// percentages; FCF yield is derived from free cash flow over market
// cap, matching how the quality bands are calibrated.
func (yp *yahooProvider) FetchQuote(ctx context.Context, ticker string) (Quote, error) {
	u := fmt.Sprintf(
		"%s/v10/finance/quoteSummary/%s?modules=%s",
		yp.cfg.BaseURL,
		url.PathEscape(ticker),
		url.QueryEscape("price,summaryDetail,financialData,calendarEvents"),
	)

	var resp quoteSummaryResp
	if err := yp.http.getJSON(ctx, u, &resp); err != nil {
		return Quote{}, fmt.Errorf("quote summary for %s: %w", ticker, err)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return Quote{}, fmt.Errorf("quote summary for %s: %w", ticker, ErrNoData)
	}
	r := resp.QuoteSummary.Result[0]

	q := Quote{
		Ticker:          ticker,
		Price:           r.Price.RegularMarketPrice.Raw,
		MarketCap:       r.Price.MarketCap.Raw,
		PERatio:         r.SummaryDetail.TrailingPE.Raw,
		GrossMargin:     r.FinancialData.GrossMargins.Raw * 100,
		OperatingMargin: r.FinancialData.OperatingMargins.Raw * 100,
		ProfitMargin:    r.FinancialData.ProfitMargins.Raw * 100,
		RevenueGrowth:   r.FinancialData.RevenueGrowth.Raw * 100,
	}
	if q.PERatio == 0 {
		q.PERatio = r.SummaryDetail.ForwardPE.Raw
	}
	if fcf := r.FinancialData.FreeCashflow.Raw; fcf != 0 && q.MarketCap > 0 {
		q.FCFYield = fcf / q.MarketCap * 100
	}
	if dates := r.CalendarEvents.Earnings.EarningsDate; len(dates) > 0 && dates[0].Raw > 0 {
		t := time.Unix(int64(dates[0].Raw), 0).UTC()
		q.NextEarnings = &t
	}
	q.Valid = q.Price > 0

	log.Debug().
		Str("ticker", ticker).
		Float64("price", q.Price).
		Bool("valid", q.Valid).
		Msg("fetched quote")

	return q, nil
}

type optionChainResp struct {
	OptionChain struct {
		Result []struct {
			ExpirationDates []int64 `json:"expirationDates"`
			Quote           struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64       `json:"expirationDate"`
				Puts           []yahooPut  `json:"puts"`
				Calls          []yahooCall `json:"calls"`
			} `json:"options"`
		} `json:"result"`
	} `json:"optionChain"`
}

// Chain rows come back as plain numbers, not raw/fmt wrappers.
type yahooPut struct {
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	LastPrice    float64 `json:"lastPrice"`
	ImpliedVol   float64 `json:"impliedVolatility"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"openInterest"`
	Expiration   int64   `json:"expiration"`
}

type yahooCall struct {
	Strike float64 `json:"strike"`
}

// FetchExpirations lists the chain's expiration dates in ascending
// order, as published by the options endpoint.
func (yp *yahooProvider) FetchExpirations(ctx context.Context, ticker string) ([]time.Time, error) {
	u := fmt.Sprintf("%s/v7/finance/options/%s", yp.cfg.BaseURL, url.PathEscape(ticker))

	var resp optionChainResp
	if err := yp.http.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("expirations for %s: %w", ticker, err)
	}
	if len(resp.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("expirations for %s: %w", ticker, ErrNoData)
	}

	epochs := resp.OptionChain.Result[0].ExpirationDates
	out := make([]time.Time, 0, len(epochs))
	for _, e := range epochs {
		out = append(out, time.Unix(e, 0).UTC())
	}

	log.Debug().Str("ticker", ticker).Int("expirations", len(out)).Msg("fetched expirations")
	return out, nil
}

// FetchPutChain retrieves the put side of the chain for a single
// expiration date.
func (yp *yahooProvider) FetchPutChain(ctx context.Context, ticker string, expiry time.Time) ([]PutOption, error) {
	u := fmt.Sprintf(
		"%s/v7/finance/options/%s?date=%d",
		yp.cfg.BaseURL,
		url.PathEscape(ticker),
		expiry.Unix(),
	)

	var resp optionChainResp
	if err := yp.http.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("put chain for %s %s: %w", ticker, expiry.Format("2006-01-02"), err)
	}
	if len(resp.OptionChain.Result) == 0 || len(resp.OptionChain.Result[0].Options) == 0 {
		return nil, fmt.Errorf("put chain for %s %s: %w", ticker, expiry.Format("2006-01-02"), ErrEmptyChain)
	}

	spot := resp.OptionChain.Result[0].Quote.RegularMarketPrice
	T := time.Until(expiry).Hours() / 24 / 365

	rows := resp.OptionChain.Result[0].Options[0].Puts
	out := make([]PutOption, 0, len(rows))
	for _, p := range rows {
		put := PutOption{
			Strike:       p.Strike,
			Bid:          p.Bid,
			Ask:          p.Ask,
			Last:         p.LastPrice,
			ImpliedVol:   p.ImpliedVol,
			Volume:       p.Volume,
			OpenInterest: p.OpenInterest,
			Expiry:       expiry,
		}
		// Yahoo omits IV on thin contracts; back it out of the mid.
		if put.ImpliedVol <= 0 && put.Mid() > 0 && spot > 0 && T > 0 {
			if iv, err := pricing.PutImpliedVol(put.Mid(), spot, put.Strike, T, 0.045); err == nil {
				put.ImpliedVol = iv
			}
		}
		out = append(out, put)
	}

	log.Debug().
		Str("ticker", ticker).
		Str("expiry", expiry.Format("2006-01-02")).
		Int("puts", len(out)).
		Msg("fetched put chain")

	return out, nil
}

type chartResp struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// FetchDailyBars retrieves daily bars from the chart endpoint.
// Yahoo's period parameters are epoch seconds.
func (yp *yahooProvider) FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	u := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		yp.cfg.BaseURL,
		url.PathEscape(ticker),
		from.Unix(),
		to.Unix(),
	)

	var resp chartResp
	if err := yp.http.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("daily bars for %s: %w", ticker, err)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("daily bars for %s: %w", ticker, ErrNoData)
	}

	r := resp.Chart.Result[0]
	qr := r.Indicators.Quote[0]

	out := make([]Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(qr.Close) || qr.Close[i] <= 0 {
			continue // halted days arrive as nulls/zeros
		}
		bar := Bar{Date: time.Unix(ts, 0).UTC(), Close: qr.Close[i]}
		if i < len(qr.Open) {
			bar.Open = qr.Open[i]
		}
		if i < len(qr.High) {
			bar.High = qr.High[i]
		}
		if i < len(qr.Low) {
			bar.Low = qr.Low[i]
		}
		if i < len(qr.Volume) {
			bar.Vol = qr.Volume[i]
		}
		out = append(out, bar)
	}

	log.Debug().Str("ticker", ticker).Int("bars", len(out)).Msg("fetched daily bars")
	return out, nil
}
