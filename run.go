package microcap

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/petard/microcap/date"
)

// RunOptions configures one daily processing cycle.
type RunOptions struct {
	// AsOf is the trading day to process.
	AsOf date.Date
	// Instructions are the day's manual orders, already validated by the
	// interactive layer.
	Instructions []Instruction
	// Benchmarks are the indices the report compares against. The first
	// one is used for the CAPM regression.
	Benchmarks []string
	// Analyzer tunes the performance statistics.
	Analyzer AnalyzerConfig
}

// BenchmarkPerformance is one benchmark's return over the same span as the
// journal's equity curve.
type BenchmarkPerformance struct {
	Ticker string
	Return Ratio
}

// PriceRow is one line of the report's price and volume table.
type PriceRow struct {
	Ticker string
	Close  Money
	// Change is the day-over-day return, undefined when no prior close
	// could be found.
	Change Ratio
	Volume Quantity
}

// DailyReport is the outcome of one processing cycle: what traded, what
// was rejected, where the portfolio closed, and the statistics over the
// whole journal.
type DailyReport struct {
	Date       date.Date
	Trades     []TradeRecord
	Rejections []Rejection
	Snapshot   EquitySnapshot
	Metrics    Metrics
	Prices     []PriceRow
	Benchmarks []BenchmarkPerformance
}

// RunDay executes one full daily cycle: price everything the day touches,
// sweep stops and apply the manual orders, mark the book at the close, and
// recompute the journal statistics. It returns the report together with the
// post-trade ledger; nothing is persisted here, the caller owns the files
// and writes them only once the whole cycle has succeeded.
func RunDay(ctx context.Context, resolver *Resolver, ledger *Ledger, history *EquityHistory, opts RunOptions) (*DailyReport, *Ledger, error) {
	on := opts.AsOf
	if on.IsZero() {
		return nil, nil, fmt.Errorf("run has no trading day")
	}

	tickers := ledger.Tickers()
	for _, ins := range opts.Instructions {
		if !slices.Contains(tickers, ins.Ticker) {
			tickers = append(tickers, ins.Ticker)
		}
	}
	slices.Sort(tickers)

	quotes, err := resolver.ResolveAll(ctx, tickers, on)
	if err != nil {
		return nil, nil, fmt.Errorf("pricing %s: %w", on, err)
	}

	next, trades, rejections, err := ApplyDay(ledger, opts.Instructions, quotes, on)
	if err != nil {
		return nil, nil, fmt.Errorf("processing %s: %w", on, err)
	}

	snapshot, err := Value(next, quotes, on)
	if err != nil {
		return nil, nil, fmt.Errorf("valuing %s: %w", on, err)
	}
	history.Append(snapshot)

	report := &DailyReport{
		Date:       on,
		Trades:     trades,
		Rejections: rejections,
		Snapshot:   snapshot,
	}

	report.Prices = priceTable(ctx, resolver, tickers, quotes, on)

	start, _ := firstDay(history)
	span := date.NewRange(start, on)
	benchmarks := opts.Benchmarks
	if len(benchmarks) == 0 {
		benchmarks = NormalizeBenchmarks(DefaultBenchmarks)
	}

	var capmPrices *date.History[float64]
	capmBenchmark := ""
	for i, b := range benchmarks {
		closes, err := resolver.Closes(ctx, b, span)
		if err != nil {
			log.Printf("benchmark %s skipped: %v", b, err)
			report.Benchmarks = append(report.Benchmarks, BenchmarkPerformance{
				Ticker: b,
				Return: undefinedRatio("no price history"),
			})
			continue
		}
		report.Benchmarks = append(report.Benchmarks, BenchmarkPerformance{
			Ticker: b,
			Return: spanReturn(closes),
		})
		if i == 0 || capmBenchmark == "" {
			capmBenchmark = b
			capmPrices = closes
		}
	}

	report.Metrics = Analyze(opts.Analyzer, history.Equity(), capmBenchmark, capmPrices)
	return report, next, nil
}

// priceTable builds the close, day-over-day change and volume rows for the
// day's tickers. The change needs the prior session's close, fetched over a
// short trailing window; a ticker without one still gets its row.
func priceTable(ctx context.Context, resolver *Resolver, tickers []string, quotes QuoteSet, on date.Date) []PriceRow {
	window := date.NewRange(on.Add(-7), on)
	var rows []PriceRow
	for _, t := range tickers {
		q, ok := quotes.Get(t)
		if !ok {
			continue
		}
		row := PriceRow{
			Ticker: t,
			Close:  q.Close,
			Volume: q.Volume,
			Change: undefinedRatio("no prior close"),
		}
		if closes, err := resolver.Closes(ctx, t, window); err == nil {
			row.Change = dayChange(closes, on)
		}
		rows = append(rows, row)
	}
	return rows
}

// dayChange is the return between the last close at or before on and the
// close preceding it.
func dayChange(h *date.History[float64], on date.Date) Ratio {
	var prev, last float64
	n := 0
	for day, v := range h.Values() {
		if day.After(on) {
			break
		}
		prev, last = last, v
		n++
	}
	if n < 2 || prev == 0 {
		return undefinedRatio("no prior close")
	}
	return definedRatio(last/prev - 1)
}

func firstDay(h *EquityHistory) (date.Date, bool) {
	for s := range h.Snapshots() {
		return s.Date, true
	}
	return date.Date{}, false
}

// spanReturn is the simple return between the first and last close of a
// history.
func spanReturn(h *date.History[float64]) Ratio {
	if h == nil || h.Len() < 2 {
		return undefinedRatio("not enough prices")
	}
	_, first := h.First()
	_, last := h.Latest()
	if first == 0 {
		return undefinedRatio("starting price is zero")
	}
	return definedRatio(last/first - 1)
}
