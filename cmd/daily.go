package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/petard/microcap"
	"github.com/petard/microcap/date"
	"github.com/petard/microcap/renderer"
)

// dailyCmd holds the flags for the 'daily' subcommand.
type dailyCmd struct {
	date       string
	ordersFile string
	cash       string
	dryRun     bool
}

func (*dailyCmd) Name() string     { return "daily" }
func (*dailyCmd) Synopsis() string { return "process one trading day and print the daily report" }
func (*dailyCmd) Usage() string {
	return `mcj daily [-d <date>] [-orders <file>] [-cash <amount>] [-n]

  Prices the book, sweeps stop losses, applies the day's orders, records
  the end-of-day snapshot and the executed trades, and prints the report.
  Re-running the same day replaces that day's snapshot; it never duplicates
  it. -n computes everything but persists nothing.
`
}

func (c *dailyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Trading day to process (defaults to the last trading day)")
	f.StringVar(&c.ordersFile, "orders", "", "File with the day's orders, one JSON instruction per line")
	f.StringVar(&c.cash, "cash", "", "Starting cash for the very first session, e.g. 100.00")
	f.BoolVar(&c.dryRun, "n", false, "Dry run: compute and print the report, do not persist")
}

func (c *dailyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	on, err := c.tradingDay()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	history, err := DecodeHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	ledger, err := c.openingLedger(history, on)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var instructions []microcap.Instruction
	if c.ordersFile != "" {
		r, err := os.Open(c.ordersFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot open orders file: %v\n", err)
			return subcommands.ExitFailure
		}
		instructions, err = microcap.DecodeInstructions(r)
		r.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	benchmarks, err := Benchmarks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	report, _, err := microcap.RunDay(ctx, NewResolver(), ledger, history, microcap.RunOptions{
		AsOf:         on,
		Instructions: instructions,
		Benchmarks:   benchmarks,
		Analyzer:     microcap.DefaultAnalyzerConfig(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	// Persist only after the whole cycle succeeded, so a failed run leaves
	// yesterday's files exactly as they were.
	if !c.dryRun {
		if err := EncodeHistory(history); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := ReplaceTrades(on, report.Trades); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	printMarkdown(renderer.DailyMarkdown(report))
	return subcommands.ExitSuccess
}

// tradingDay resolves the -d flag, mapping weekends to the last Friday when
// no date is given.
func (c *dailyCmd) tradingDay() (date.Date, error) {
	if c.date == "" {
		return date.LastTradingDay(timeNow()), nil
	}
	return date.Parse(c.date)
}

// openingLedger rebuilds the book from the latest snapshot strictly before
// the trading day, so re-running a recorded day opens on the same state it
// opened on the first time. Without an earlier snapshot the session is
// funded from the -cash flag.
func (c *dailyCmd) openingLedger(history *microcap.EquityHistory, on date.Date) (*microcap.Ledger, error) {
	if prior, ok := history.LatestBefore(on); ok {
		return prior.Ledger()
	}
	if c.cash == "" {
		if history.Len() > 0 {
			return nil, fmt.Errorf("no snapshot recorded before %s: pass -cash to fund the session", on)
		}
		return nil, fmt.Errorf("the journal is empty: pass -cash to fund the first session")
	}
	cash, err := microcap.ParseMoney(c.cash)
	if err != nil {
		return nil, fmt.Errorf("invalid -cash %q: %w", c.cash, err)
	}
	return microcap.NewLedger(cash, date.Date{})
}
