package microcap

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/petard/microcap/date"
)

// This file imports the legacy spreadsheet journal. Earlier experiments kept
// two CSV files, one portfolio valuation per day with a TOTAL row, and one
// trade log. Importing them bootstraps a JSONL journal without losing the
// recorded track record.

// ImportEquityCSV reads the legacy portfolio valuation CSV into an equity
// history. Each date contributes one snapshot: its TOTAL row carries cash and
// total equity, the ticker rows carry the open positions. Rows without a
// price (halted or delisted names) and same-day stop-loss sale rows describe
// no end-of-day holding, so they are skipped.
func ImportEquityCSV(r io.Reader) (*EquityHistory, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"Date", "Ticker", "Cash Balance", "Total Equity"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("legacy portfolio CSV is missing the %q column", col)
		}
	}

	snapshots := map[date.Date]*EquitySnapshot{}
	var order []date.Date
	snapshotFor := func(on date.Date) *EquitySnapshot {
		if s, ok := snapshots[on]; ok {
			return s
		}
		s := &EquitySnapshot{Date: on}
		snapshots[on] = s
		order = append(order, on)
		return s
	}

	for i, row := range rows {
		field := func(name string) string { return cell(row, header, name) }
		on, err := date.Parse(field("Date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+2, field("Date"), err)
		}
		s := snapshotFor(on)

		if field("Ticker") == "TOTAL" {
			if s.Cash, err = ParseMoney(field("Cash Balance")); err != nil {
				return nil, fmt.Errorf("row %d: bad cash balance: %w", i+2, err)
			}
			if s.TotalEquity, err = ParseMoney(field("Total Equity")); err != nil {
				return nil, fmt.Errorf("row %d: bad total equity: %w", i+2, err)
			}
			s.Holdings = s.TotalEquity.Sub(s.Cash)
			continue
		}
		if field("Current Price") == "" || strings.HasPrefix(field("Action"), "SELL") {
			continue
		}

		p := PositionValue{Ticker: field("Ticker")}
		numbers := []struct {
			col string
			dst *Money
		}{
			{"Buy Price", &p.AvgCost},
			{"Stop Loss", &p.StopLoss},
			{"Current Price", &p.Price},
			{"Total Value", &p.Value},
			{"PnL", &p.PnL},
		}
		for _, n := range numbers {
			v := field(n.col)
			if v == "" {
				continue
			}
			if *n.dst, err = ParseMoney(v); err != nil {
				return nil, fmt.Errorf("row %d: bad %s %q: %w", i+2, n.col, v, err)
			}
		}
		shares, err := ParseQuantity(field("Shares"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad shares %q: %w", i+2, field("Shares"), err)
		}
		p.Shares = shares
		if cost := p.AvgCost.Mul(p.Shares); !cost.IsZero() {
			p.PnLPercent = Percent(100 * p.PnL.InexactFloat64() / cost.InexactFloat64())
		}
		s.Positions = append(s.Positions, p)
	}

	h := &EquityHistory{}
	for _, on := range order {
		h.Append(*snapshots[on])
	}
	return h, nil
}

// ImportTradeLogCSV reads the legacy trade log CSV. Buy rows carry Shares
// Bought and Buy Price, sell rows carry Shares Sold and Sell Price, and the
// Reason column tells a stop-loss sale from a manual one. The legacy format
// never recorded the cash balance, so CashAfter stays zero on imported
// trades.
func ImportTradeLogCSV(r io.Reader) ([]TradeRecord, error) {
	rows, header, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"Date", "Ticker"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("legacy trade log CSV is missing the %q column", col)
		}
	}

	var trades []TradeRecord
	for i, row := range rows {
		field := func(name string) string { return cell(row, header, name) }
		on, err := date.Parse(field("Date"))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+2, field("Date"), err)
		}
		t := TradeRecord{Date: on, Ticker: field("Ticker")}

		switch {
		case field("Shares Bought") != "":
			t.Action = ActionBuy
			if t.Shares, err = ParseQuantity(field("Shares Bought")); err != nil {
				return nil, fmt.Errorf("row %d: bad shares bought: %w", i+2, err)
			}
			if t.Price, err = ParseMoney(field("Buy Price")); err != nil {
				return nil, fmt.Errorf("row %d: bad buy price: %w", i+2, err)
			}
		case field("Shares Sold") != "":
			t.Action = ActionSell
			if strings.Contains(strings.ToLower(field("Reason")), "stop loss") {
				t.Action = ActionStopLossSell
			}
			if t.Shares, err = ParseQuantity(field("Shares Sold")); err != nil {
				return nil, fmt.Errorf("row %d: bad shares sold: %w", i+2, err)
			}
			if t.Price, err = ParseMoney(field("Sell Price")); err != nil {
				return nil, fmt.Errorf("row %d: bad sell price: %w", i+2, err)
			}
		default:
			// Rows logging failed orders carry neither column.
			continue
		}
		t.Amount = t.Price.Mul(t.Shares)
		trades = append(trades, t)
	}
	return trades, nil
}

// readCSV reads all records and indexes the header row by column name.
func readCSV(r io.Reader) (rows [][]string, header map[string]int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty CSV")
	}
	header = make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}
	return records[1:], header, nil
}

// cell returns the trimmed value of a named column, empty when the column is
// absent or the row is short.
func cell(row []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
