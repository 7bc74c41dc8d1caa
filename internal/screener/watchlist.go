package screener

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in watchlists. A YAML file passed via --watchlist-file can
// add to or override these.
var builtinWatchlists = map[string][]string{
	"default": {
		"NVDA", "AMD", "GOOGL", "MSFT", "AMZN", "META", "AAPL",
		"AVGO", "TSM", "CRM", "ORCL", "PLTR",
	},
	"ai-tech": {
		"NVDA", "AMD", "AVGO", "TSM", "MRVL", "SMCI", "ARM",
		"MSFT", "GOOGL", "META", "PLTR", "SNOW",
	},
	"income": {
		"AAPL", "MSFT", "JNJ", "PG", "KO", "PEP", "HD",
		"V", "MA", "COST",
	},
}

// Watchlist resolves a named ticker list, checking file-provided
// lists before the built-ins.
func Watchlist(name string, extra map[string][]string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if list, ok := extra[key]; ok {
		return normalizeTickers(list), nil
	}
	if list, ok := builtinWatchlists[key]; ok {
		return normalizeTickers(list), nil
	}
	return nil, fmt.Errorf("unknown watchlist %q (have: %s)", name, strings.Join(WatchlistNames(extra), ", "))
}

// WatchlistNames lists every available watchlist, sorted.
func WatchlistNames(extra map[string][]string) []string {
	seen := make(map[string]bool, len(builtinWatchlists)+len(extra))
	for name := range builtinWatchlists {
		seen[name] = true
	}
	for name := range extra {
		seen[strings.ToLower(name)] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadWatchlists reads a YAML file mapping watchlist names to ticker
// lists.
func LoadWatchlists(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading watchlists %s: %w", path, err)
	}
	var lists map[string][]string
	if err := yaml.Unmarshal(raw, &lists); err != nil {
		return nil, fmt.Errorf("parsing watchlists %s: %w", path, err)
	}
	out := make(map[string][]string, len(lists))
	for name, tickers := range lists {
		out[strings.ToLower(name)] = normalizeTickers(tickers)
	}
	return out, nil
}

// normalizeTickers upper-cases, trims and de-duplicates while
// preserving order.
func normalizeTickers(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
