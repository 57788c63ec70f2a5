package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/petard/microcap/renderer"
)

// logCmd holds the flags for the 'log' subcommand.
type logCmd struct{}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "display the trade log" }
func (*logCmd) Usage() string {
	return `mcj log

  Prints every executed trade in order: buys, sells and automatic
  stop-loss sells, with the cash balance after each.
`
}

func (*logCmd) SetFlags(f *flag.FlagSet) {}

func (c *logCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	trades, err := DecodeTrades()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.LogMarkdown(trades))
	return subcommands.ExitSuccess
}
