package microcap

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultBenchmark is the index the report compares against when no
// benchmark file is configured.
const DefaultBenchmark = "^GSPC"

// DefaultBenchmarks is the comparison set used without a benchmark file:
// the small-cap growth and biotech indices the journal's universe lives in,
// plus the S&P 500 and the Russell 2000.
var DefaultBenchmarks = []string{"IWO", "XBI", DefaultBenchmark, "IWM"}

// benchmarkFile is the JSON shape of the benchmark configuration file.
type benchmarkFile struct {
	Benchmarks []string `json:"benchmarks"`
}

// NormalizeBenchmarks uppercases and deduplicates tickers, preserving the
// first-seen order.
func NormalizeBenchmarks(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// DecodeBenchmarks reads the benchmark configuration from a JSON stream.
// An empty list after normalization falls back to the defaults.
func DecodeBenchmarks(r io.Reader) ([]string, error) {
	var f benchmarkFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid benchmark file: %w", err)
	}
	out := NormalizeBenchmarks(f.Benchmarks)
	if len(out) == 0 {
		return NormalizeBenchmarks(DefaultBenchmarks), nil
	}
	return out, nil
}

// LoadBenchmarks reads the benchmark file at path. A missing file is not an
// error; the defaults apply.
func LoadBenchmarks(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NormalizeBenchmarks(DefaultBenchmarks), nil
		}
		return nil, fmt.Errorf("cannot open benchmark file %q: %w", path, err)
	}
	defer f.Close()
	benchmarks, err := DecodeBenchmarks(f)
	if err != nil {
		return nil, fmt.Errorf("benchmark file %q: %w", path, err)
	}
	return benchmarks, nil
}
