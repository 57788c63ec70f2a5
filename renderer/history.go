package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/petard/microcap"
)

// HistoryMarkdown renders the full equity curve, one row per recorded day,
// followed by the statistics over the whole journal.
func HistoryMarkdown(h *microcap.EquityHistory, m microcap.Metrics) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Equity History")

	if h.Len() == 0 {
		doc.PlainText("No days recorded yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Date", "Cash", "Holdings", "Total Equity"},
	}
	for s := range h.Snapshots() {
		table.Rows = append(table.Rows, []string{
			s.Date.String(), s.Cash.String(), s.Holdings.String(), s.TotalEquity.String(),
		})
	}
	doc.Table(table)

	renderMetrics(doc, m)
	return doc.String()
}

// LogMarkdown renders the trade log, newest last.
func LogMarkdown(trades []microcap.TradeRecord) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Trade Log")
	if len(trades) == 0 {
		doc.PlainText("No trades recorded yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Date", "Action", "Ticker", "Shares", "Price", "Amount", "Cash After"},
	}
	for _, t := range trades {
		table.Rows = append(table.Rows, []string{
			t.Date.String(), string(t.Action), t.Ticker,
			t.Shares.String(), t.Price.String(), t.Amount.String(), t.CashAfter.String(),
		})
	}
	doc.Table(table)

	buySellCounts := map[microcap.Action]int{}
	for _, t := range trades {
		buySellCounts[t.Action]++
	}
	doc.PlainText(fmt.Sprintf("%d trades: %d buys, %d sells, %d stop-loss sells.",
		len(trades),
		buySellCounts[microcap.ActionBuy],
		buySellCounts[microcap.ActionSell],
		buySellCounts[microcap.ActionStopLossSell]))

	return doc.String()
}
