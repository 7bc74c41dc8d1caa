// Package screener holds the screen itself: per-underlying quality
// scoring, contract filtering, composite scoring and the concurrent
// pipeline that ties them to a data.Provider.
package screener

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Weights are the composite score coefficients. They are exposed in
// the config file so the blend can be tuned without a rebuild.
type Weights struct {
	MonthlyReturn float64 `yaml:"monthly_return"`
	IVRank        float64 `yaml:"iv_rank"`
	OTMCushion    float64 `yaml:"otm_cushion"`
	Theta         float64 `yaml:"theta"`
	Quality       float64 `yaml:"quality"`
	GammaPenalty  float64 `yaml:"gamma_penalty"`
}

// DefaultWeights returns the standard composite blend.
func DefaultWeights() Weights {
	return Weights{
		MonthlyReturn: 0.40,
		IVRank:        15,
		OTMCushion:    0.25,
		Theta:         1.5,
		Quality:       0.8,
		GammaPenalty:  0.5,
	}
}

// Config controls a screen run. Zero values are filled in by
// ApplyDefaults; Validate rejects combinations that would silently
// filter everything out.
type Config struct {
	MinDelta       float64 `yaml:"min_delta"`
	MaxDelta       float64 `yaml:"max_delta"`
	MinDTE         int     `yaml:"min_dte"`
	MaxDTE         int     `yaml:"max_dte"`
	MinReturn      float64 `yaml:"min_return"`       // monthly, percent
	MaxSpreadRatio float64 `yaml:"max_spread_ratio"` // spread over mid
	Top            int     `yaml:"top"`
	FallbackVol    float64 `yaml:"fallback_vol"`
	RiskFreeRate   float64 `yaml:"risk_free_rate"`

	// Optional underlying floors. Nil means the floor is not applied.
	MinGrossMargin *float64 `yaml:"min_gross_margin"`
	MinFCFYield    *float64 `yaml:"min_fcf_yield"`
	MinRevGrowth   *float64 `yaml:"min_rev_growth"`

	// FilterExpr is an extra per-contract gate, e.g.
	// "monthly_return > 0.8 && quality >= 60".
	FilterExpr string `yaml:"filter"`

	Weights Weights `yaml:"weights"`

	Concurrency  int           `yaml:"concurrency"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// DefaultConfig returns the screen defaults: 20-50 DTE, 0.15-0.35
// delta, 0.5% minimum monthly return.
func DefaultConfig() Config {
	return Config{
		MinDelta:       0.15,
		MaxDelta:       0.35,
		MinDTE:         20,
		MaxDTE:         50,
		MinReturn:      0.5,
		MaxSpreadRatio: 0.15,
		Top:            25,
		FallbackVol:    0.30,
		RiskFreeRate:   0.045,
		Weights:        DefaultWeights(),
		Concurrency:    4,
		FetchTimeout:   30 * time.Second,
	}
}

// ApplyDefaults fills unset fields so a sparse YAML file only needs
// to name what it overrides.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.MinDelta == 0 {
		c.MinDelta = def.MinDelta
	}
	if c.MaxDelta == 0 {
		c.MaxDelta = def.MaxDelta
	}
	if c.MinDTE == 0 {
		c.MinDTE = def.MinDTE
	}
	if c.MaxDTE == 0 {
		c.MaxDTE = def.MaxDTE
	}
	if c.MinReturn == 0 {
		c.MinReturn = def.MinReturn
	}
	if c.MaxSpreadRatio == 0 {
		c.MaxSpreadRatio = def.MaxSpreadRatio
	}
	if c.Top == 0 {
		c.Top = def.Top
	}
	if c.FallbackVol == 0 {
		c.FallbackVol = def.FallbackVol
	}
	if c.RiskFreeRate == 0 {
		c.RiskFreeRate = def.RiskFreeRate
	}
	if c.Weights == (Weights{}) {
		c.Weights = def.Weights
	}
	if c.Concurrency == 0 {
		c.Concurrency = def.Concurrency
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = def.FetchTimeout
	}
}

// Validate fails fast on configurations that can never match a
// contract.
func (c Config) Validate() error {
	if c.MinDelta < 0 || c.MaxDelta > 1 || c.MinDelta >= c.MaxDelta {
		return fmt.Errorf("delta band [%v, %v] is invalid", c.MinDelta, c.MaxDelta)
	}
	if c.MinDTE < 0 || c.MinDTE >= c.MaxDTE {
		return fmt.Errorf("dte window [%d, %d] is invalid", c.MinDTE, c.MaxDTE)
	}
	if c.MinReturn < 0 {
		return fmt.Errorf("min_return %v must not be negative", c.MinReturn)
	}
	if c.MaxSpreadRatio <= 0 {
		return fmt.Errorf("max_spread_ratio %v must be positive", c.MaxSpreadRatio)
	}
	if c.Top <= 0 {
		return fmt.Errorf("top %d must be positive", c.Top)
	}
	if c.FallbackVol <= 0 {
		return fmt.Errorf("fallback_vol %v must be positive", c.FallbackVol)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency %d must be positive", c.Concurrency)
	}
	if c.FilterExpr != "" {
		if _, err := CompileFilterExpr(c.FilterExpr); err != nil {
			return fmt.Errorf("filter expression: %w", err)
		}
	}
	return nil
}

// LoadConfig reads a YAML config file, applies defaults and
// validates.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}
