package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/petard/microcap"
)

// importCmd holds the flags for the 'import' subcommand.
type importCmd struct {
	portfolioCSV string
	logCSV       string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a legacy spreadsheet journal" }
func (*importCmd) Usage() string {
	return `mcj import [-portfolio <csv>] [-log <csv>]

  Imports the legacy CSV journal into the JSONL files. The portfolio CSV
  becomes the equity history, merged day by day with whatever is already
  recorded, and the trade log CSV is appended to the trade log. Days already
  present in the history are overwritten by the imported ones.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.portfolioCSV, "portfolio", "", "Legacy portfolio valuation CSV to import")
	f.StringVar(&c.logCSV, "log", "", "Legacy trade log CSV to import")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.portfolioCSV == "" && c.logCSV == "" {
		fmt.Fprintln(os.Stderr, "Error: nothing to import, pass -portfolio and/or -log.")
		return subcommands.ExitUsageError
	}

	if c.portfolioCSV != "" {
		if err := c.importHistory(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if c.logCSV != "" {
		if err := c.importTrades(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (c *importCmd) importHistory() error {
	f, err := os.Open(c.portfolioCSV)
	if err != nil {
		return err
	}
	defer f.Close()
	imported, err := microcap.ImportEquityCSV(f)
	if err != nil {
		return fmt.Errorf("cannot import %q: %w", c.portfolioCSV, err)
	}

	history, err := DecodeHistory()
	if err != nil {
		return err
	}
	for s := range imported.Snapshots() {
		history.Append(s)
	}
	if err := EncodeHistory(history); err != nil {
		return err
	}
	fmt.Printf("Imported %d days into %s\n", imported.Len(), *historyFile)
	return nil
}

func (c *importCmd) importTrades() error {
	f, err := os.Open(c.logCSV)
	if err != nil {
		return err
	}
	defer f.Close()
	trades, err := microcap.ImportTradeLogCSV(f)
	if err != nil {
		return fmt.Errorf("cannot import %q: %w", c.logCSV, err)
	}
	if err := AppendTrades(trades); err != nil {
		return err
	}
	fmt.Printf("Appended %d trades to %s\n", len(trades), *tradesFile)
	return nil
}
