package microcap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/petard/microcap/date"
)

// Source fetches daily bars from one market-data provider. Implementations
// live in their own subpackages (yahoo, stooq) and are stateless beyond
// their HTTP client.
type Source interface {
	// Name identifies the provider in logs and in PriceQuote.Source.
	Name() string
	// Daily returns the bar for ticker on the given day. It returns an
	// error when the provider has no data for that ticker and day; the
	// resolver then moves on to the next source.
	Daily(ctx context.Context, ticker string, on date.Date) (Bar, error)
	// Closes returns the closing prices of ticker over the range, one
	// entry per trading day the provider knows about.
	Closes(ctx context.Context, ticker string, r date.Range) (*date.History[float64], error)
}

// Bar is the raw provider-agnostic daily bar a Source returns, in float
// form as providers deliver it. The resolver converts it to an exact
// PriceQuote.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DataUnavailableError reports that every configured source failed for a
// ticker on a day. Causes keeps the per-source errors in tried order.
type DataUnavailableError struct {
	Ticker string
	On     date.Date
	Causes []error
}

func (e DataUnavailableError) Error() string {
	msgs := make([]string, 0, len(e.Causes))
	for _, c := range e.Causes {
		msgs = append(msgs, c.Error())
	}
	return fmt.Sprintf("no source could price %s on %s: %s", e.Ticker, e.On, strings.Join(msgs, "; "))
}

func (e DataUnavailableError) Unwrap() []error { return e.Causes }

// Resolver turns tickers into daily quotes by walking an ordered list of
// sources and remembering which one answered last for each ticker.
type Resolver struct {
	sources []Source

	// affinity maps a ticker to the index of the source that priced it
	// last, so thinly covered tickers skip providers known to miss them.
	affinity map[string]int

	// cache holds quotes already resolved in this run, keyed by ticker
	// and day. One process run prices each ticker at most once per day.
	cache map[quoteKey]PriceQuote

	// Logf reports fallbacks and failures. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

type quoteKey struct {
	ticker string
	on     date.Date
}

// NewResolver creates a resolver over the given sources, tried in order.
func NewResolver(sources ...Source) *Resolver {
	return &Resolver{
		sources:  sources,
		affinity: make(map[string]int),
		cache:    make(map[quoteKey]PriceQuote),
		Logf:     log.Printf,
	}
}

// Pin seeds the source affinity for a ticker, so it is priced from that
// source first instead of waiting for a learned last-success. Useful for
// tickers only one provider carries. An unknown source name is ignored; a
// later success on another source still retrains the affinity.
func (r *Resolver) Pin(ticker, source string) {
	for i, s := range r.sources {
		if s.Name() == source {
			r.affinity[ticker] = i
			return
		}
	}
}

// Resolve prices one ticker for one day. The first source to answer wins;
// its answer is cached and the source is remembered as the ticker's
// preferred one. When all sources fail the error is a DataUnavailableError
// wrapping every cause.
func (r *Resolver) Resolve(ctx context.Context, ticker string, on date.Date) (PriceQuote, error) {
	if q, ok := r.cache[quoteKey{ticker, on}]; ok {
		return q, nil
	}
	if len(r.sources) == 0 {
		return PriceQuote{}, DataUnavailableError{Ticker: ticker, On: on,
			Causes: []error{fmt.Errorf("no sources configured")}}
	}

	order := r.tryOrder(ticker)
	var causes []error
	for _, i := range order {
		src := r.sources[i]
		bar, err := src.Daily(ctx, ticker, on)
		if err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", src.Name(), err))
			r.Logf("price %s on %s: %s failed: %v", ticker, on, src.Name(), err)
			continue
		}
		if err := validBar(bar); err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", src.Name(), err))
			r.Logf("price %s on %s: %s returned a bad bar: %v", ticker, on, src.Name(), err)
			continue
		}
		q := PriceQuote{
			Ticker: ticker,
			Date:   on,
			Open:   M(bar.Open),
			High:   M(bar.High),
			Low:    M(bar.Low),
			Close:  M(bar.Close),
			Volume: Q(bar.Volume),
			Source: src.Name(),
		}
		r.affinity[ticker] = i
		r.cache[quoteKey{ticker, on}] = q
		return q, nil
	}
	return PriceQuote{}, DataUnavailableError{Ticker: ticker, On: on, Causes: causes}
}

// ResolveAll prices every ticker for the day, or none: a single unpriceable
// ticker fails the whole set so downstream consumers never see a partial
// market view.
func (r *Resolver) ResolveAll(ctx context.Context, tickers []string, on date.Date) (QuoteSet, error) {
	quotes := make([]PriceQuote, 0, len(tickers))
	for _, t := range tickers {
		q, err := r.Resolve(ctx, t, on)
		if err != nil {
			return QuoteSet{}, err
		}
		quotes = append(quotes, q)
	}
	return NewQuoteSet(on, quotes...), nil
}

// Closes fetches a closing-price history over a range, walking the sources
// the same way Resolve does. Range fetches are not cached; they serve the
// benchmark statistics, which run once per day.
func (r *Resolver) Closes(ctx context.Context, ticker string, rng date.Range) (*date.History[float64], error) {
	if len(r.sources) == 0 {
		return nil, DataUnavailableError{Ticker: ticker, On: rng.To,
			Causes: []error{fmt.Errorf("no sources configured")}}
	}
	var causes []error
	for _, i := range r.tryOrder(ticker) {
		src := r.sources[i]
		h, err := src.Closes(ctx, ticker, rng)
		if err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", src.Name(), err))
			r.Logf("closes %s over %s: %s failed: %v", ticker, rng, src.Name(), err)
			continue
		}
		if h == nil || h.Len() == 0 {
			causes = append(causes, fmt.Errorf("%s: empty history", src.Name()))
			continue
		}
		r.affinity[ticker] = i
		return h, nil
	}
	return nil, DataUnavailableError{Ticker: ticker, On: rng.To, Causes: causes}
}

// tryOrder returns source indices with the ticker's preferred source first.
func (r *Resolver) tryOrder(ticker string) []int {
	order := make([]int, 0, len(r.sources))
	pref, has := r.affinity[ticker]
	if has {
		order = append(order, pref)
	}
	for i := range r.sources {
		if has && i == pref {
			continue
		}
		order = append(order, i)
	}
	return order
}

// validBar rejects bars a provider sometimes emits for halted or delisted
// tickers: zero or negative prices, or a high below the low.
func validBar(b Bar) error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("bar has non-positive prices (o=%g h=%g l=%g c=%g)", b.Open, b.High, b.Low, b.Close)
	}
	if b.High < b.Low {
		return fmt.Errorf("bar high %g below low %g", b.High, b.Low)
	}
	return nil
}
