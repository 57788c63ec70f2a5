package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"google.golang.org/genai"

	"github.com/petard/microcap/agent"
)

// assistCmd holds the flags for the 'assist' subcommand.
type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `mcj assist [question]

  Starts an interactive session with the AI assistant. It can read the
  journal and research the held tickers. Requires Gemini credentials in the
  environment. An optional question is answered before the prompt appears.
`
}

func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	initialPrompt := ""
	if f.NArg() > 0 {
		initialPrompt = strings.Join(f.Args(), " ")
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
		return subcommands.ExitFailure
	}

	researcher := agent.NewResearcher()
	bookkeeper := agent.NewBookkeeper(agent.Journal{
		HistoryFile: *historyFile,
		TradesFile:  *tradesFile,
	})
	a := agent.New(os.Stdout, os.Stdin, researcher, bookkeeper)

	if err := a.Run(ctx, client, initialPrompt); err != nil {
		fmt.Fprintln(os.Stderr, "Agent failed:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
