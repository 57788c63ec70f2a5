// Package stooq fetches daily bars from the stooq.com CSV download
// endpoint. It is the fallback source: no key, generous limits, but US
// tickers need remapping and some indices are simply absent.
package stooq

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/petard/microcap"
	"github.com/petard/microcap/date"
)

const downloadURL = "https://stooq.com/q/d/l/"

// ErrUnsupported marks tickers stooq does not carry at all. The resolver
// treats it like any other miss and moves on.
var ErrUnsupported = fmt.Errorf("ticker not carried by stooq")

// unsupported lists index symbols stooq has no series for.
var unsupported = map[string]bool{
	"^RUT": true,
}

// indexSymbols remaps index tickers to stooq's own naming.
var indexSymbols = map[string]string{
	"^GSPC": "^spx",
	"^DJI":  "^dji",
	"^IXIC": "^ndq",
}

// Source fetches prices from the CSV endpoint. Use New.
type Source struct {
	client *http.Client
}

// New returns a Source with a daily-expiring disk cache.
func New() *Source {
	return &Source{client: newDailyCachingClient()}
}

// check that Source satisfies the resolver's source interface.
var _ microcap.Source = (*Source)(nil)

// Name implements the source interface.
func (s *Source) Name() string { return "stooq" }

// Symbol converts a conventional US ticker to stooq's form: indices get
// their stooq alias, equities are lowercased with a ".us" suffix.
func Symbol(ticker string) (string, error) {
	upper := strings.ToUpper(ticker)
	if unsupported[upper] {
		return "", fmt.Errorf("%q: %w", ticker, ErrUnsupported)
	}
	if sym, ok := indexSymbols[upper]; ok {
		return sym, nil
	}
	if strings.HasPrefix(upper, "^") {
		return strings.ToLower(upper), nil
	}
	lower := strings.ToLower(ticker)
	if strings.HasSuffix(lower, ".us") {
		return lower, nil
	}
	return lower + ".us", nil
}

// Daily implements the source interface.
func (s *Source) Daily(ctx context.Context, ticker string, on date.Date) (microcap.Bar, error) {
	bars, err := s.fetch(ctx, ticker, date.NewRange(on, on))
	if err != nil {
		return microcap.Bar{}, err
	}
	b, ok := bars[on]
	if !ok {
		return microcap.Bar{}, fmt.Errorf("no bar for %s on %s", ticker, on)
	}
	return b, nil
}

// Closes implements the source interface.
func (s *Source) Closes(ctx context.Context, ticker string, r date.Range) (*date.History[float64], error) {
	bars, err := s.fetch(ctx, ticker, r)
	if err != nil {
		return nil, err
	}
	h := &date.History[float64]{}
	for on, b := range bars {
		h.Append(on, b.Close)
	}
	return h, nil
}

func (s *Source) fetch(ctx context.Context, ticker string, r date.Range) (map[date.Date]microcap.Bar, error) {
	sym, err := Symbol(ticker)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("s", sym)
	q.Set("d1", r.From.Format("20060102"))
	q.Set("d2", r.To.Format("20060102"))
	q.Set("i", "d")
	addr := downloadURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	body, err := wget(s.client, req)
	if err != nil {
		return nil, err
	}
	return decodeCSV(ticker, body)
}

// decodeCSV parses the download payload. An unknown symbol answers with a
// one-line "No data" body instead of an HTTP error.
func decodeCSV(ticker string, body []byte) (map[date.Date]microcap.Bar, error) {
	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "No data") {
		return nil, fmt.Errorf("no data for %s", ticker)
	}
	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bad csv for %s: %w", ticker, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no rows for %s", ticker)
	}

	header := records[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("csv for %s is missing column %q", ticker, name)
		}
	}

	bars := make(map[date.Date]microcap.Bar, len(records)-1)
	for _, rec := range records[1:] {
		on, err := date.Parse(rec[col["date"]])
		if err != nil {
			return nil, fmt.Errorf("bad date in csv for %s: %w", ticker, err)
		}
		b := microcap.Bar{}
		if b.Open, err = strconv.ParseFloat(rec[col["open"]], 64); err != nil {
			continue
		}
		if b.High, err = strconv.ParseFloat(rec[col["high"]], 64); err != nil {
			continue
		}
		if b.Low, err = strconv.ParseFloat(rec[col["low"]], 64); err != nil {
			continue
		}
		if b.Close, err = strconv.ParseFloat(rec[col["close"]], 64); err != nil {
			continue
		}
		if i, ok := col["volume"]; ok {
			b.Volume, _ = strconv.ParseFloat(rec[i], 64)
		}
		bars[on] = b
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable rows for %s", ticker)
	}
	return bars, nil
}
