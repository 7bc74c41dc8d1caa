package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/contactkeval/csp-screener/internal/data"
	"github.com/contactkeval/csp-screener/internal/report"
	"github.com/contactkeval/csp-screener/internal/screener"
)

type scanOptions struct {
	tickers       []string
	watchlist     string
	watchlistFile string

	configPath string
	minDelta   float64
	maxDelta   float64
	minDTE     int
	maxDTE     int
	minReturn  float64
	maxSpread  float64
	top        int
	filterExpr string

	minGrossMargin float64
	minFCFYield    float64
	minRevGrowth   float64

	offline     bool
	snapshotDir string

	fundamentals bool
	income       bool
	capital      float64
	verbose      bool
	jsonPath     string
	csvPath      string
}

func scanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the screen against a watchlist or explicit tickers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringSliceVarP(&opts.tickers, "tickers", "t", nil, "explicit tickers, overrides the watchlist")
	f.StringVarP(&opts.watchlist, "watchlist", "w", "default", "named watchlist to screen")
	f.StringVar(&opts.watchlistFile, "watchlist-file", "", "YAML file with additional watchlists")

	f.StringVarP(&opts.configPath, "config", "c", "", "YAML screen config")
	f.Float64Var(&opts.minDelta, "min-delta", 0, "lower bound on |delta|")
	f.Float64Var(&opts.maxDelta, "max-delta", 0, "upper bound on |delta|")
	f.IntVar(&opts.minDTE, "min-dte", 0, "minimum days to expiry")
	f.IntVar(&opts.maxDTE, "max-dte", 0, "maximum days to expiry")
	f.Float64Var(&opts.minReturn, "min-return", 0, "minimum monthly return, percent")
	f.Float64Var(&opts.maxSpread, "max-spread", 0, "maximum bid-ask spread over mid")
	f.IntVarP(&opts.top, "top", "n", 0, "number of candidates to keep")
	f.StringVar(&opts.filterExpr, "filter", "", `extra gate, e.g. "quality >= 60 && iv_rank > 40"`)

	f.Float64Var(&opts.minGrossMargin, "min-gross-margin", 0, "skip underlyings below this gross margin")
	f.Float64Var(&opts.minFCFYield, "min-fcf-yield", 0, "skip underlyings below this FCF yield")
	f.Float64Var(&opts.minRevGrowth, "min-rev-growth", 0, "skip underlyings below this revenue growth")

	f.BoolVar(&opts.offline, "offline", false, "use generated data instead of live quotes")
	f.StringVar(&opts.snapshotDir, "snapshot", "", "serve data from a snapshot directory")

	f.BoolVar(&opts.fundamentals, "fundamentals", false, "print the fundamentals table")
	f.BoolVar(&opts.income, "income", false, "print an income projection")
	f.Float64Var(&opts.capital, "capital", 100000, "capital for the income projection")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "show greeks and liquidity columns")
	f.StringVar(&opts.jsonPath, "json", "", "also write results to this JSON file")
	f.StringVar(&opts.csvPath, "csv", "", "also write results to this CSV file")

	return cmd
}

func runScan(cmd *cobra.Command, opts scanOptions) error {
	cfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}

	tickers := opts.tickers
	if len(tickers) == 0 {
		var extra map[string][]string
		if opts.watchlistFile != "" {
			if extra, err = screener.LoadWatchlists(opts.watchlistFile); err != nil {
				return err
			}
		}
		if tickers, err = screener.Watchlist(opts.watchlist, extra); err != nil {
			return err
		}
	}

	prov, err := buildProvider(opts)
	if err != nil {
		return err
	}

	s, err := screener.New(prov, cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	cands, stats, err := s.Screen(cmd.Context(), tickers)
	if err != nil {
		return err
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("scan finished")

	report.WriteTable(os.Stdout, cands, opts.verbose)
	fmt.Println()
	report.WriteStats(os.Stdout, stats)

	if opts.fundamentals {
		fmt.Println()
		report.WriteFundamentals(os.Stdout, fetchQuotes(cmd.Context(), prov, tickers))
	}
	if opts.income {
		fmt.Println()
		report.WriteIncome(os.Stdout, cands, opts.capital)
	}

	if opts.jsonPath != "" {
		if err := report.WriteJSON(cands, stats, opts.jsonPath); err != nil {
			return fmt.Errorf("writing json: %w", err)
		}
	}
	if opts.csvPath != "" {
		if err := report.WriteCSV(cands, opts.csvPath); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}
	return nil
}

// buildConfig layers flag overrides on top of the config file (or the
// defaults). Only flags the user actually set override the file.
func buildConfig(cmd *cobra.Command, opts scanOptions) (screener.Config, error) {
	cfg := screener.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = screener.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}

	set := cmd.Flags().Changed
	if set("min-delta") {
		cfg.MinDelta = opts.minDelta
	}
	if set("max-delta") {
		cfg.MaxDelta = opts.maxDelta
	}
	if set("min-dte") {
		cfg.MinDTE = opts.minDTE
	}
	if set("max-dte") {
		cfg.MaxDTE = opts.maxDTE
	}
	if set("min-return") {
		cfg.MinReturn = opts.minReturn
	}
	if set("max-spread") {
		cfg.MaxSpreadRatio = opts.maxSpread
	}
	if set("top") {
		cfg.Top = opts.top
	}
	if set("filter") {
		cfg.FilterExpr = opts.filterExpr
	}
	if set("min-gross-margin") {
		cfg.MinGrossMargin = &opts.minGrossMargin
	}
	if set("min-fcf-yield") {
		cfg.MinFCFYield = &opts.minFCFYield
	}
	if set("min-rev-growth") {
		cfg.MinRevGrowth = &opts.minRevGrowth
	}

	return cfg, cfg.Validate()
}

func buildProvider(opts scanOptions) (data.Provider, error) {
	if opts.offline {
		log.Info().Msg("offline mode, using generated data")
		return data.NewSyntheticProvider(time.Now()), nil
	}

	ycfg, err := data.LoadYahooConfig()
	if err != nil {
		return nil, err
	}
	prov := data.NewYahooProvider(ycfg, nil)

	if opts.snapshotDir != "" {
		log.Info().Str("dir", opts.snapshotDir).Msg("layering snapshot data over live quotes")
		return data.NewSnapshotProvider(opts.snapshotDir, prov), nil
	}
	return prov, nil
}

// fetchQuotes re-reads quotes for the fundamentals table. Providers
// either cache or are cheap, and failures only drop a row.
func fetchQuotes(ctx context.Context, prov data.Provider, tickers []string) []data.Quote {
	out := make([]data.Quote, 0, len(tickers))
	for _, t := range tickers {
		q, err := prov.FetchQuote(ctx, t)
		if err != nil {
			log.Debug().Err(err).Str("ticker", t).Msg("fundamentals row unavailable")
			continue
		}
		out = append(out, q)
	}
	return out
}
