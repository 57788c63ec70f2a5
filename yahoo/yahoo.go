// Package yahoo fetches daily bars from the Yahoo Finance chart endpoint.
// It is the primary price source: broad coverage including indices, no API
// key, but known to throttle bursts, which is why a fallback exists.
package yahoo

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"github.com/petard/microcap"
	"github.com/petard/microcap/date"
)

const chartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// Source fetches prices from the chart endpoint. The zero value is not
// usable; use New.
type Source struct {
	client *http.Client
}

// New returns a Source with a daily-expiring disk cache, so repeated runs
// for the same day never hit the endpoint twice.
func New() *Source {
	return &Source{client: newDailyCachingClient()}
}

// check that Source satisfies the resolver's source interface.
var _ microcap.Source = (*Source)(nil)

// Name implements the source interface.
func (s *Source) Name() string { return "yahoo" }

// Daily implements the source interface. It asks the chart endpoint for the
// single day and returns its bar.
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

// fetch queries the chart endpoint over the range and decodes the column
// arrays into per-day bars.
func (s *Source) fetch(ctx context.Context, ticker string, r date.Range) (map[date.Date]microcap.Bar, error) {
	period1 := time.Date(r.From.Year(), r.From.Month(), r.From.Day(), 0, 0, 0, 0, time.UTC).Unix()
	period2 := time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1).Unix()
	addr := fmt.Sprintf("%s%s?period1=%d&period2=%d&interval=1d&events=history",
		chartURL, url.PathEscape(ticker), period1, period2)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := jwget(s.client, req, &doc); err != nil {
		return nil, err
	}
	return decodeChart(ticker, doc)
}

// decodeChart extracts bars from a chart response document. The payload is
// columnar: one timestamp array plus one array per price field, all the
// same length.
func decodeChart(ticker string, doc interface{}) (map[date.Date]microcap.Bar, error) {
	if e, err := jsonpath.Get("$.chart.error.description", doc); err == nil {
		return nil, fmt.Errorf("chart error for %s: %v", ticker, e)
	}

	timestamps, err := floatColumn(doc, "$.chart.result[0].timestamp")
	if err != nil {
		return nil, fmt.Errorf("no timestamps for %s: %w", ticker, err)
	}
	columns := map[string][]float64{}
	for _, field := range []string{"open", "high", "low", "close", "volume"} {
		col, err := floatColumn(doc, "$.chart.result[0].indicators.quote[0]."+field)
		if err != nil {
			return nil, fmt.Errorf("no %s column for %s: %w", field, ticker, err)
		}
		if len(col) != len(timestamps) {
			return nil, fmt.Errorf("ragged %s column for %s: %d values for %d timestamps", field, ticker, len(col), len(timestamps))
		}
		columns[field] = col
	}

	bars := make(map[date.Date]microcap.Bar, len(timestamps))
	for i, ts := range timestamps {
		b := microcap.Bar{
			Open:   columns["open"][i],
			High:   columns["high"][i],
			Low:    columns["low"][i],
			Close:  columns["close"][i],
			Volume: columns["volume"][i],
		}
		// Null entries appear for halted sessions. Skip the row rather
		// than invent a price.
		if math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) || math.IsNaN(b.Close) {
			continue
		}
		if math.IsNaN(b.Volume) {
			b.Volume = 0
		}
		on := date.New(time.Unix(int64(ts), 0).UTC().Date())
		bars[on] = b
	}
	return bars, nil
}

// floatColumn extracts a numeric array at the given path, mapping null
// entries to NaN.
func floatColumn(doc interface{}, path string) ([]float64, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, err
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("value at %s is not an array", path)
	}
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		f, ok := e.(float64)
		if !ok {
			f = math.NaN()
		}
		out = append(out, f)
	}
	return out, nil
}
