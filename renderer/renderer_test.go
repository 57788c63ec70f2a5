package renderer

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/petard/microcap"
	"github.com/petard/microcap/date"
)

func sampleReport() *microcap.DailyReport {
	on := date.MustParse("2025-08-04")
	return &microcap.DailyReport{
		Date: on,
		Trades: []microcap.TradeRecord{{
			Date:      on,
			Ticker:    "ABEO",
			Action:    microcap.ActionStopLossSell,
			Shares:    microcap.Q(10),
			Price:     microcap.M(0.95),
			Amount:    microcap.M(9.50),
			CashAfter: microcap.M(97),
		}},
		Snapshot: microcap.EquitySnapshot{
			Date:        on,
			Cash:        microcap.M(97),
			Holdings:    microcap.M(0),
			TotalEquity: microcap.M(97),
		},
		Metrics: microcap.Metrics{
			TotalReturn: microcap.Ratio{Value: -0.03, Defined: true},
		},
		Benchmarks: []microcap.BenchmarkPerformance{
			{Ticker: "^GSPC", Return: microcap.Ratio{Value: 0.012, Defined: true}},
			{Ticker: "^RUT", Return: microcap.Ratio{Reason: "no price history"}},
		},
	}
}

func TestDailyMarkdown(t *testing.T) {
	got := DailyMarkdown(sampleReport())
	for _, want := range []string{
		"# Daily Report 2025-08-04",
		"STOP_LOSS_SELL",
		"ABEO",
		"$97.00",
		"-3.00%",
		"^GSPC",
		"n/a", // the unpriced benchmark
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DailyMarkdown misses %q:\n%s", want, got)
		}
	}
}

func TestDailyMarkdownPriceTable(t *testing.T) {
	r := sampleReport()
	r.Prices = []microcap.PriceRow{
		{Ticker: "ABEO", Close: microcap.M(0.95), Change: microcap.Ratio{Value: -0.05, Defined: true}, Volume: microcap.Q(1000)},
		{Ticker: "CADL", Close: microcap.M(2.10), Change: microcap.Ratio{Reason: "no prior close"}},
	}
	got := DailyMarkdown(r)
	for _, want := range []string{"Price & Volume", "$0.95", "-5.00%", "1000"} {
		if !strings.Contains(got, want) {
			t.Errorf("price table misses %q:\n%s", want, got)
		}
	}
}

func TestDailyMarkdownUndefinedStatistics(t *testing.T) {
	r := sampleReport()
	r.Metrics = microcap.Metrics{
		TotalReturn:  microcap.Ratio{Reason: "no equity history"},
		SharpeAnnual: microcap.Ratio{Reason: "zero return variance"},
		CAPM:         microcap.CAPM{Reason: "no benchmark configured"},
	}
	got := DailyMarkdown(r)
	if !strings.Contains(got, "n/a") {
		t.Errorf("undefined statistics must render as n/a:\n%s", got)
	}
	if !strings.Contains(got, "no benchmark configured") {
		t.Errorf("the CAPM reason must be visible:\n%s", got)
	}
}

func TestHistoryMarkdown(t *testing.T) {
	h := &microcap.EquityHistory{}
	h.Append(microcap.EquitySnapshot{
		Date:        date.MustParse("2025-08-01"),
		Cash:        microcap.M(87.50),
		Holdings:    microcap.M(13.50),
		TotalEquity: microcap.M(101),
	})
	got := HistoryMarkdown(h, microcap.Metrics{})
	for _, want := range []string{"# Equity History", "2025-08-01", "$101.00"} {
		if !strings.Contains(got, want) {
			t.Errorf("HistoryMarkdown misses %q:\n%s", want, got)
		}
	}
}

func TestHistoryMarkdownEmpty(t *testing.T) {
	got := HistoryMarkdown(&microcap.EquityHistory{}, microcap.Metrics{})
	if !strings.Contains(got, "No days recorded yet.") {
		t.Errorf("empty history must say so:\n%s", got)
	}
}

func TestLogMarkdown(t *testing.T) {
	trades := []microcap.TradeRecord{{
		Date:      date.MustParse("2025-08-01"),
		Ticker:    "ABEO",
		Action:    microcap.ActionBuy,
		Shares:    microcap.Q(10),
		Price:     microcap.M(1.25),
		Amount:    microcap.M(12.50),
		CashAfter: microcap.M(87.50),
	}}
	got := LogMarkdown(trades)
	for _, want := range []string{"# Trade Log", "BUY", "1 trades: 1 buys, 0 sells, 0 stop-loss sells."} {
		if !strings.Contains(got, want) {
			t.Errorf("LogMarkdown misses %q:\n%s", want, got)
		}
	}
}

// TestDailyMarkdownStructure parses the generated markdown and checks the
// section skeleton, so a formatting regression in one table cannot silently
// swallow a whole section.
func TestDailyMarkdownStructure(t *testing.T) {
	src := []byte(DailyMarkdown(sampleReport()))
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var headings []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			var b strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if txt, ok := c.(*ast.Text); ok {
					b.Write(txt.Segment.Value(src))
				}
			}
			headings = append(headings, b.String())
		}
		return ast.WalkContinue, nil
	})

	want := []string{"Daily Report 2025-08-04", "Executed Trades", "Performance", "CAPM", "Benchmarks"}
	if len(headings) != len(want) {
		t.Fatalf("headings = %q, want %q", headings, want)
	}
	for i := range want {
		if headings[i] != want[i] {
			t.Errorf("headings[%d] = %q, want %q", i, headings[i], want[i])
		}
	}
}
