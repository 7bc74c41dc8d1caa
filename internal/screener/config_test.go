package screener

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestApplyDefaultsFillsZeroFields(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	assert.Equal(t, DefaultConfig(), c)

	// Overrides survive.
	c = Config{Top: 5, MinReturn: 1.2}
	c.ApplyDefaults()
	assert.Equal(t, 5, c.Top)
	assert.Equal(t, 1.2, c.MinReturn)
	assert.Equal(t, 0.15, c.MinDelta)
}

func TestApplyDefaultsKeepsLoneBandBound(t *testing.T) {
	// Setting one side of a band must not reset the other side's
	// user value, and must not reset the side that was set.
	c := Config{MinDelta: 0.05}
	c.ApplyDefaults()
	assert.Equal(t, 0.05, c.MinDelta)
	assert.Equal(t, 0.35, c.MaxDelta)

	c = Config{MinDTE: 7}
	c.ApplyDefaults()
	assert.Equal(t, 7, c.MinDTE)
	assert.Equal(t, 50, c.MaxDTE)

	c = Config{MaxDelta: 0.25, MaxDTE: 40}
	c.ApplyDefaults()
	assert.Equal(t, 0.15, c.MinDelta)
	assert.Equal(t, 0.25, c.MaxDelta)
	assert.Equal(t, 20, c.MinDTE)
	assert.Equal(t, 40, c.MaxDTE)
}

func TestLoadConfigLoneBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_delta: 0.05\nmin_dte: 7\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.05, c.MinDelta)
	assert.Equal(t, 7, c.MinDTE)
}

func TestValidateRejectsBadBands(t *testing.T) {
	cases := map[string]func(*Config){
		"inverted delta":   func(c *Config) { c.MinDelta, c.MaxDelta = 0.4, 0.2 },
		"inverted dte":     func(c *Config) { c.MinDTE, c.MaxDTE = 50, 20 },
		"negative return":  func(c *Config) { c.MinReturn = -1 },
		"zero spread":      func(c *Config) { c.MaxSpreadRatio = -0.1 },
		"zero top":         func(c *Config) { c.Top = -3 },
		"bad filter":       func(c *Config) { c.FilterExpr = "quality >=" },
		"zero concurrency": func(c *Config) { c.Concurrency = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfigSparseYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"min_return: 0.8\ntop: 10\nweights:\n  monthly_return: 0.5\n  iv_rank: 12\n"), 0o644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, c.MinReturn)
	assert.Equal(t, 10, c.Top)
	assert.Equal(t, 0.15, c.MinDelta)
	assert.Equal(t, 30*time.Second, c.FetchTimeout)

	// A partially specified weights block is taken as-is, not merged.
	assert.Equal(t, 0.5, c.Weights.MonthlyReturn)
	assert.Equal(t, 12.0, c.Weights.IVRank)
	assert.Zero(t, c.Weights.Quality)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_delta: 0.5\nmax_delta: 0.2\n"), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
