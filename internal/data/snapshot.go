package data

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// snapshotProvider serves a directory of previously captured market
// data. Layout, one subdirectory per ticker:
//
//	<dir>/AAPL/quote.json
//	<dir>/AAPL/chain-2026-09-18.json   one file per expiry, []PutOption
//	<dir>/AAPL/bars.csv                date,open,high,low,close,volume
//
// Missing files delegate to the secondary provider when one is set,
// so a snapshot can partially override a live source.
type snapshotProvider struct {
	dir       string
	secondary Provider
}

// NewSnapshotProvider reads captured data from dir. secondary may be
// nil.
func NewSnapshotProvider(dir string, secondary Provider) Provider {
	return &snapshotProvider{dir: dir, secondary: secondary}
}

func (lp *snapshotProvider) Secondary() Provider { return lp.secondary }

const chainDateLayout = "2006-01-02"

func (lp *snapshotProvider) tickerDir(ticker string) string {
	return filepath.Join(lp.dir, strings.ToUpper(ticker))
}

func (lp *snapshotProvider) FetchQuote(ctx context.Context, ticker string) (Quote, error) {
	raw, err := os.ReadFile(filepath.Join(lp.tickerDir(ticker), "quote.json"))
	if errors.Is(err, fs.ErrNotExist) {
		if lp.secondary != nil {
			return lp.secondary.FetchQuote(ctx, ticker)
		}
		return Quote{}, fmt.Errorf("snapshot quote for %s: %w", ticker, ErrNoData)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("snapshot quote for %s: %w", ticker, err)
	}

	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, fmt.Errorf("decoding snapshot quote for %s: %w", ticker, err)
	}
	q.Ticker = strings.ToUpper(ticker)
	return q, nil
}

// FetchExpirations discovers expiries from the chain files present on
// disk.
func (lp *snapshotProvider) FetchExpirations(ctx context.Context, ticker string) ([]time.Time, error) {
	matches, err := filepath.Glob(filepath.Join(lp.tickerDir(ticker), "chain-*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing snapshot chains for %s: %w", ticker, err)
	}
	if len(matches) == 0 {
		if lp.secondary != nil {
			return lp.secondary.FetchExpirations(ctx, ticker)
		}
		return nil, fmt.Errorf("snapshot expirations for %s: %w", ticker, ErrNoData)
	}

	out := make([]time.Time, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "chain-"), ".json")
		t, err := time.Parse(chainDateLayout, name)
		if err != nil {
			continue // not a chain file
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (lp *snapshotProvider) FetchPutChain(ctx context.Context, ticker string, expiry time.Time) ([]PutOption, error) {
	path := filepath.Join(lp.tickerDir(ticker), "chain-"+expiry.Format(chainDateLayout)+".json")
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if lp.secondary != nil {
			return lp.secondary.FetchPutChain(ctx, ticker, expiry)
		}
		return nil, fmt.Errorf("snapshot chain for %s %s: %w", ticker, expiry.Format(chainDateLayout), ErrEmptyChain)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot chain for %s: %w", ticker, err)
	}

	var puts []PutOption
	if err := json.Unmarshal(raw, &puts); err != nil {
		return nil, fmt.Errorf("decoding snapshot chain for %s: %w", ticker, err)
	}
	for i := range puts {
		puts[i].Expiry = expiry
	}
	return puts, nil
}

// FetchDailyBars reads bars.csv and keeps only rows inside [from, to].
func (lp *snapshotProvider) FetchDailyBars(ctx context.Context, ticker string, from, to time.Time) ([]Bar, error) {
	f, err := os.Open(filepath.Join(lp.tickerDir(ticker), "bars.csv"))
	if errors.Is(err, fs.ErrNotExist) {
		if lp.secondary != nil {
			return lp.secondary.FetchDailyBars(ctx, ticker, from, to)
		}
		return nil, fmt.Errorf("snapshot bars for %s: %w", ticker, ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot bars for %s: %w", ticker, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot bars for %s: %w", ticker, err)
	}

	var out []Bar
	for i, row := range records {
		if i == 0 && strings.EqualFold(strings.TrimSpace(row[0]), "date") {
			continue // header
		}
		if len(row) < 6 {
			continue
		}
		date, err := time.Parse(chainDateLayout, strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		bar := Bar{Date: date}
		fields := []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Vol}
		ok := true
		for j, dst := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64)
			if err != nil {
				ok = false
				break
			}
			*dst = v
		}
		if ok && bar.Close > 0 {
			out = append(out, bar)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("snapshot bars for %s: %w", ticker, ErrNoData)
	}
	return out, nil
}
