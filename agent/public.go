package agent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"google.golang.org/genai"

	"github.com/petard/microcap"
	"github.com/petard/microcap/renderer"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert that owns the conversation and routes
// questions to the others.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			The user runs an experimental micro-cap trading journal: a small cash account,
			a handful of positions, daily valuations and a trade log. He is here to
			understand how the experiment is going and what recently happened to his tickers.

			Learn about each expert's skill from the Tools and ask them questions.
			They are at your service and keep context of your previous questions.

			Devise a plan of questions to ask each expert and come up with the best
			response to the user's request. Check the journal first so you know which
			tickers he actually holds before researching news about them.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewResearcher returns the expert that grounds answers in current market
// news through Google Search.
func NewResearcher() *Expert {
	return &Expert{
		Name: "Researcher",
		Description: `This is an equity researcher.
		Very well aware of listed companies, funds and indices, and of the latest
		news moving them. Micro-cap stocks are thinly covered, so ask the Researcher
		whenever you need recent or grounding information about a ticker.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an equity researcher specialised in small and micro-cap stocks.
			You can search and find anything related to listed companies, markets,
			funds and indices. You leverage Google Search to ground your assertions,
			and you know how to relate the latest news to the user's request.
				`}}},
		},
	}
}

// Journal gives the bookkeeping expert read access to the journal files.
type Journal struct {
	HistoryFile string
	TradesFile  string
}

// NewBookkeeper returns the expert that reads the user's journal files and
// answers questions about positions, equity and performance.
func NewBookkeeper(j Journal) *Expert {
	lib := []Function{j.equityHistory(), j.tradeLog()}

	return &Expert{
		Name: "Bookkeeper",
		Description: `This is the Bookkeeper. He reads the user's trading journal:
		the recorded equity curve with all open positions, and the full trade log.
		Ask him for anything factual about the portfolio, past trades, stop losses
		or performance statistics.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are the bookkeeper of the user's trading journal. You know how to
			use the Tools to read the journal and extract relevant figures. You are
			part of a team of experts, yours is everything recorded in the journal:
			equity, cash, positions, stop losses, trades and performance statistics.
			Pardon the other experts' approximative language and figure out what
			they meant.
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements Function from a declaration and a closure.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(id, args)
}

// equityHistory exposes the recorded equity curve and its statistics.
func (j Journal) equityHistory() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "EquityHistory",
			Description: `EquityHistory returns every recorded day of the journal with its cash,
			holdings and total equity, followed by performance statistics over the
			whole journal (total return, max drawdown, Sharpe and Sortino ratios).`,
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted report of the equity curve and its statistics.",
			},
		},
		Func: func(id string, args map[string]any) *genai.FunctionResponse {
			return textResponse(id, "EquityHistory", func() (string, error) {
				history, err := j.decodeHistory()
				if err != nil {
					return "", err
				}
				metrics := microcap.Analyze(microcap.DefaultAnalyzerConfig(), history.Equity(), "", nil)
				return renderer.HistoryMarkdown(history, metrics), nil
			})
		},
	}
}

// tradeLog exposes the full trade log.
func (j Journal) tradeLog() Function {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "TradeLog",
			Description: `TradeLog returns every executed trade in order: buys, sells and
			automatic stop-loss sells, with price, amount and the cash balance after each.`,
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted table of all trades.",
			},
		},
		Func: func(id string, args map[string]any) *genai.FunctionResponse {
			return textResponse(id, "TradeLog", func() (string, error) {
				trades, err := j.decodeTrades()
				if err != nil {
					return "", err
				}
				return renderer.LogMarkdown(trades), nil
			})
		},
	}
}

// textResponse wraps a journal read into a function response, moving any
// error into the response payload where the model can see it.
func textResponse(id, name string, read func() (string, error)) *genai.FunctionResponse {
	fresp := &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{}}
	out, err := read()
	if err != nil {
		fresp.Response["error"] = err.Error()
		return fresp
	}
	fresp.Response["output"] = out
	return fresp
}

func (j Journal) decodeHistory() (*microcap.EquityHistory, error) {
	f, err := os.Open(j.HistoryFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &microcap.EquityHistory{}, nil
		}
		return nil, fmt.Errorf("could not open history file %q: %w", j.HistoryFile, err)
	}
	defer f.Close()
	return microcap.DecodeEquityHistory(f)
}

func (j Journal) decodeTrades() ([]microcap.TradeRecord, error) {
	f, err := os.Open(j.TradesFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not open trade log %q: %w", j.TradesFile, err)
	}
	defer f.Close()
	return microcap.DecodeTradeLog(f)
}
