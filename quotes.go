package microcap

import (
	"fmt"

	"github.com/petard/microcap/date"
)

// PriceQuote is one day of OHLCV data for a ticker, normalized to a single
// schema whichever source produced it. Quotes are ephemeral: they are
// consumed by the trade processor and the valuation engine and never
// persisted.
type PriceQuote struct {
	Ticker string
	Date   date.Date
	Open   Money
	High   Money
	Low    Money
	Close  Money
	Volume Quantity
	Source string // name of the source that produced the quote
}

// MissingQuoteError reports a held or traded ticker with no quote for the
// day. It is fatal for the day's run: fabricating a zero or stale price
// would corrupt the ledger.
type MissingQuoteError struct {
	Ticker string
	On     date.Date
}

func (e MissingQuoteError) Error() string {
	return fmt.Sprintf("no quote for %s on %s", e.Ticker, e.On)
}

// QuoteSet holds the quotes of a single trading day, keyed by ticker.
type QuoteSet struct {
	on     date.Date
	quotes map[string]PriceQuote
}

// NewQuoteSet builds a quote set for a day.
func NewQuoteSet(on date.Date, quotes ...PriceQuote) QuoteSet {
	s := QuoteSet{on: on, quotes: make(map[string]PriceQuote, len(quotes))}
	for _, q := range quotes {
		s.quotes[q.Ticker] = q
	}
	return s
}

// On returns the trading day the set covers.
func (s QuoteSet) On() date.Date { return s.on }

// Get returns the quote for ticker, if present.
func (s QuoteSet) Get(ticker string) (PriceQuote, bool) {
	q, ok := s.quotes[ticker]
	return q, ok
}

// Require returns the quote for ticker or a MissingQuoteError.
func (s QuoteSet) Require(ticker string) (PriceQuote, error) {
	q, ok := s.quotes[ticker]
	if !ok {
		return PriceQuote{}, MissingQuoteError{Ticker: ticker, On: s.on}
	}
	return q, nil
}

// Len returns the number of quotes in the set.
func (s QuoteSet) Len() int { return len(s.quotes) }
