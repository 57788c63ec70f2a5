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

// historyCmd holds the flags for the 'history' subcommand.
type historyCmd struct {
	offline bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "display the recorded equity curve and its statistics" }
func (*historyCmd) Usage() string {
	return `mcj history [-offline]

  Prints every recorded day with its cash, holdings and total equity, and
  the performance statistics over the whole journal. -offline skips the
  benchmark download and computes the statistics without CAPM.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "Do not fetch benchmark prices")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	history, err := DecodeHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	benchmark, prices := c.benchmarkCloses(ctx, history)
	metrics := microcap.Analyze(microcap.DefaultAnalyzerConfig(), history.Equity(), benchmark, prices)
	printMarkdown(renderer.HistoryMarkdown(history, metrics))
	return subcommands.ExitSuccess
}

// benchmarkCloses fetches the CAPM benchmark's closes over the journal's
// span. Offline mode, a short journal, or a failed download all degrade to
// no benchmark, the statistics still render without CAPM.
func (c *historyCmd) benchmarkCloses(ctx context.Context, history *microcap.EquityHistory) (string, *date.History[float64]) {
	if c.offline || history.Len() < 2 {
		return "", nil
	}

	benchmark := microcap.DefaultBenchmark
	if benchmarks, err := Benchmarks(); err == nil && len(benchmarks) > 0 {
		benchmark = benchmarks[0]
	}

	var from date.Date
	for s := range history.Snapshots() {
		from = s.Date
		break
	}
	latest, _ := history.Latest()

	prices, err := NewResolver().Closes(ctx, benchmark, date.NewRange(from, latest.Date))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: benchmark %s unavailable: %v\n", benchmark, err)
		return "", nil
	}
	return benchmark, prices
}
