package microcap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/petard/microcap/date"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// The equity history and the trade log are both persisted as JSONL: one
// JSON object per line, human-readable and git-friendly, so the journal can
// live in a plain repository and diffs show exactly which days changed.

// MarshalJSON implements the json.Marshaler interface for EquitySnapshot,
// keeping a stable field order across writes.
func (s EquitySnapshot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("on", s.Date)
	w.Append("cash", s.Cash)
	w.Append("holdings", s.Holdings)
	w.Append("totalEquity", s.TotalEquity)
	if len(s.Positions) > 0 {
		w.Append("positions", s.Positions)
	}
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for EquitySnapshot.
func (s *EquitySnapshot) UnmarshalJSON(b []byte) error {
	var temp snapshotLine
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	*s = temp.snapshot()
	return nil
}

// MarshalJSON implements the json.Marshaler interface for PositionValue.
func (p PositionValue) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("ticker", p.Ticker)
	w.Append("shares", p.Shares)
	w.Append("avgCost", p.AvgCost)
	w.Optional("stopLoss", p.StopLoss)
	w.Append("price", p.Price)
	w.Append("value", p.Value)
	w.Append("pnl", p.PnL)
	w.Append("pnlPercent", p.PnLPercent)
	w.Optional("source", p.QuoteSource)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for PositionValue.
func (p *PositionValue) UnmarshalJSON(b []byte) error {
	var temp positionLine
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	*p = temp.position()
	return nil
}

// snapshotLine and positionLine are the persisted shapes, separate from the
// domain types so the file format can evolve without touching them.
type snapshotLine struct {
	On          date.Date       `json:"on"`
	Cash        Money           `json:"cash"`
	Holdings    Money           `json:"holdings"`
	TotalEquity Money           `json:"totalEquity"`
	Positions   []PositionValue `json:"positions"`
}

func (l snapshotLine) snapshot() EquitySnapshot {
	return EquitySnapshot{
		Date:        l.On,
		Cash:        l.Cash,
		Holdings:    l.Holdings,
		TotalEquity: l.TotalEquity,
		Positions:   l.Positions,
	}
}

type positionLine struct {
	Ticker      string   `json:"ticker"`
	Shares      Quantity `json:"shares"`
	AvgCost     Money    `json:"avgCost"`
	StopLoss    Money    `json:"stopLoss"`
	Price       Money    `json:"price"`
	Value       Money    `json:"value"`
	PnL         Money    `json:"pnl"`
	PnLPercent  Percent  `json:"pnlPercent"`
	QuoteSource string   `json:"source"`
}

func (l positionLine) position() PositionValue {
	return PositionValue{
		Ticker:      l.Ticker,
		Shares:      l.Shares,
		AvgCost:     l.AvgCost,
		StopLoss:    l.StopLoss,
		Price:       l.Price,
		Value:       l.Value,
		PnL:         l.PnL,
		PnLPercent:  l.PnLPercent,
		QuoteSource: l.QuoteSource,
	}
}

// DecodeEquityHistory reads an equity history from a JSONL stream. Lines
// are applied in file order, so a duplicated date keeps the later line,
// matching the overwrite behaviour of Append.
func DecodeEquityHistory(r io.Reader) (*EquityHistory, error) {
	h := &EquityHistory{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var s EquitySnapshot
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("parse error on line %d: %w", i, err)
		}
		if s.Date.IsZero() {
			return nil, fmt.Errorf("parse error on line %d: missing the property %q with a date", i, "on")
		}
		h.Append(s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading equity history: %w", err)
	}
	return h, nil
}

// EncodeEquityHistory writes the full history as JSONL, one day per line in
// chronological order.
func EncodeEquityHistory(w io.Writer, h *EquityHistory) error {
	for s := range h.Snapshots() {
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot for %s: %w", s.Date, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
	}
	return nil
}
