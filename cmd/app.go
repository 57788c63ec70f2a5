// Package cmd implements the CLI application that drives the daily journal.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"slices"

	"github.com/google/subcommands"

	"github.com/petard/microcap"
	"github.com/petard/microcap/date"
	"github.com/petard/microcap/stooq"
	"github.com/petard/microcap/yahoo"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&dailyCmd{}, "journal")
	c.Register(&historyCmd{}, "journal")
	c.Register(&logCmd{}, "journal")
	c.Register(&importCmd{}, "journal")
	c.Register(&assistCmd{}, "assistant")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var historyFile = flag.String("history-file", "history.jsonl", "Path to the equity history file (JSONL format)")
var tradesFile = flag.String("trades-file", "trades.jsonl", "Path to the trade log file (JSONL format)")
var benchmarksFile = flag.String("benchmarks-file", "tickers.json", "Path to the benchmark tickers file")

// DecodeHistory loads the equity history from the app history file. A
// missing file yields an empty history so the first run bootstraps itself.
func DecodeHistory() (*microcap.EquityHistory, error) {
	f, err := os.Open(*historyFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, history file does not exist, starting an empty journal instead")
		return &microcap.EquityHistory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open history file %q: %w", *historyFile, err)
	}
	defer f.Close()
	return microcap.DecodeEquityHistory(f)
}

// EncodeHistory persists the full equity history to the app history file.
// The write goes through a temporary file so a crash cannot truncate the
// journal.
func EncodeHistory(h *microcap.EquityHistory) error {
	tmp := *historyFile + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", tmp, err)
	}
	if err := microcap.EncodeEquityHistory(f, h); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, *historyFile)
}

// DecodeTrades loads the trade log. A missing file is an empty log.
func DecodeTrades() ([]microcap.TradeRecord, error) {
	f, err := os.Open(*tradesFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open trade log %q: %w", *tradesFile, err)
	}
	defer f.Close()
	return microcap.DecodeTradeLog(f)
}

// AppendTrades appends the day's executed trades to the app trade log.
func AppendTrades(trades []microcap.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}
	f, err := os.OpenFile(*tradesFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot open trade log %q: %w", *tradesFile, err)
	}
	defer f.Close()
	return microcap.EncodeTradeLog(f, trades)
}

// ReplaceTrades records the day's executed trades in the trade log,
// dropping any lines previously recorded for that day first. A re-run of a
// day replaces its trades instead of duplicating them. The rewrite goes
// through a temporary file, like EncodeHistory.
func ReplaceTrades(on date.Date, trades []microcap.TradeRecord) error {
	existing, err := DecodeTrades()
	if err != nil {
		return err
	}
	var kept []microcap.TradeRecord
	for _, t := range existing {
		if t.Date != on {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(existing) && len(trades) == 0 {
		return nil
	}
	kept = append(kept, trades...)
	// A back-dated run lands in chronological position. The stable sort
	// keeps the execution order within each day.
	slices.SortStableFunc(kept, func(a, b microcap.TradeRecord) int {
		return a.Date.Compare(b.Date)
	})

	tmp := *tradesFile + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", tmp, err)
	}
	if err := microcap.EncodeTradeLog(f, kept); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, *tradesFile)
}

// NewResolver builds the production price resolver: the chart endpoint
// first, the CSV endpoint as fallback.
func NewResolver() *microcap.Resolver {
	return microcap.NewResolver(yahoo.New(), stooq.New())
}

// Benchmarks loads the configured comparison indices.
func Benchmarks() ([]string, error) {
	return microcap.LoadBenchmarks(*benchmarksFile)
}
