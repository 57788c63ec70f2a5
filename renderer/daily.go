package renderer

import (
	"bytes"
	"fmt"

	md "github.com/nao1215/markdown"

	"github.com/petard/microcap"
)

// DailyMarkdown renders a daily report: the equity summary, the day's
// trades and rejections, the open positions, and the statistics block.
func DailyMarkdown(r *microcap.DailyReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Daily Report %s", r.Date))

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header: []string{
			md.Bold("Total Equity"),
			md.Bold(r.Snapshot.TotalEquity.String()),
		},
		Rows: [][]string{
			{"Cash", r.Snapshot.Cash.String()},
			{"Holdings", r.Snapshot.Holdings.String()},
		},
	})

	if len(r.Trades) > 0 {
		doc.H2("Executed Trades")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Action", "Ticker", "Shares", "Price", "Cash After"},
		}
		for _, t := range r.Trades {
			table.Rows = append(table.Rows, []string{
				string(t.Action), t.Ticker, t.Shares.String(), t.Price.String(), t.CashAfter.String(),
			})
		}
		doc.Table(table)
	}

	if len(r.Rejections) > 0 {
		doc.H2("Rejected Orders")
		var items []string
		for _, rej := range r.Rejections {
			items = append(items, rej.String())
		}
		doc.BulletList(items...)
	}

	if len(r.Snapshot.Positions) > 0 {
		doc.H2("Open Positions")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Ticker", "Shares", "Avg Cost", "Stop", "Close", "Value", "PnL"},
		}
		for _, p := range r.Snapshot.Positions {
			stop := "-"
			if p.StopLoss.IsPositive() {
				stop = p.StopLoss.String()
			}
			table.Rows = append(table.Rows, []string{
				p.Ticker, p.Shares.String(), p.AvgCost.String(), stop,
				p.Price.String(), p.Value.String(),
				fmt.Sprintf("%s (%s)", p.PnL.SignedString(), p.PnLPercent.SignedString()),
			})
		}
		doc.Table(table)
	}

	if len(r.Prices) > 0 {
		doc.H2("Price & Volume")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight},
			Header:    []string{"Ticker", "Close", "Change", "Volume"},
		}
		for _, p := range r.Prices {
			volume := "-"
			if p.Volume.IsPositive() {
				volume = p.Volume.String()
			}
			table.Rows = append(table.Rows, []string{
				p.Ticker, p.Close.String(), ratioPercent(p.Change), volume,
			})
		}
		doc.Table(table)
	}

	renderMetrics(doc, r.Metrics)

	if len(r.Benchmarks) > 0 {
		doc.H2("Benchmarks")
		table := md.TableSet{
			Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
			Header:    []string{"Index", "Return"},
		}
		for _, b := range r.Benchmarks {
			table.Rows = append(table.Rows, []string{b.Ticker, ratioPercent(b.Return)})
		}
		doc.Table(table)
	}

	return doc.String()
}

// renderMetrics writes the statistics block shared by the daily and history
// reports.
func renderMetrics(doc *md.Markdown, m microcap.Metrics) {
	doc.H2("Performance")
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Statistic", "Value"},
	}
	table.Rows = append(table.Rows, []string{"Total Return", ratioPercent(m.TotalReturn)})
	if m.MaxDrawdown.Defined {
		table.Rows = append(table.Rows, []string{"Max Drawdown",
			fmt.Sprintf("%.2f%% (%s)", 100*m.MaxDrawdown.Depth, m.MaxDrawdown.Trough)})
	} else {
		table.Rows = append(table.Rows, []string{"Max Drawdown", "n/a"})
	}
	table.Rows = append(table.Rows,
		[]string{"Sharpe (period)", ratio(m.SharpePeriod)},
		[]string{"Sharpe (annualized)", ratio(m.SharpeAnnual)},
		[]string{"Sortino (period)", ratio(m.SortinoPeriod)},
		[]string{"Sortino (annualized)", ratio(m.SortinoAnnual)},
	)
	doc.Table(table)

	doc.H2("CAPM")
	if !m.CAPM.Defined {
		doc.PlainText(fmt.Sprintf("Not available: %s.", m.CAPM.Reason))
		return
	}
	capm := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{md.Bold("Benchmark"), md.Bold(m.CAPM.Benchmark)},
	}
	capm.Rows = append(capm.Rows,
		[]string{"Beta", fmt.Sprintf("%.3f", m.CAPM.Beta)},
		[]string{"Alpha (annualized)", fmt.Sprintf("%.2f%%", 100*m.CAPM.Alpha)},
		[]string{"R²", fmt.Sprintf("%.3f", m.CAPM.RSquared)},
		[]string{"Observations", fmt.Sprintf("%d", m.CAPM.Observations)},
	)
	doc.Table(capm)
	if m.CAPM.LowConfidence {
		doc.PlainText("Low confidence: the sample is short or the fit is weak, read the estimates loosely.")
	}
}
