package microcap

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/petard/microcap/date"
)

// Action identifies what a trade did.
type Action string

const (
	ActionBuy          Action = "BUY"
	ActionSell         Action = "SELL"
	ActionStopLossSell Action = "STOP_LOSS_SELL"
)

// OrderType selects how a manual instruction is priced against the day's range.
type OrderType string

const (
	// MOO is a market-on-open order: it fills at the day's open, whatever it is.
	MOO OrderType = "MOO"
	// Limit caps the execution price: a buy fills at or below the limit, a
	// sell at or above it, or not at all.
	Limit OrderType = "LIMIT"
)

// Instruction is one validated manual order for a trading day. The engine
// never parses free text; the interactive collaborator hands it fully
// structured instructions.
type Instruction struct {
	Action Action    `json:"action"`
	Ticker string    `json:"ticker"`
	Shares Quantity  `json:"shares"`
	Order  OrderType `json:"order"`
	// Limit is the cap price for Limit orders; ignored for MOO.
	Limit Money `json:"limit,omitempty"`
	// StopLoss is the protective level attached by a buy; ignored for sells.
	StopLoss Money `json:"stopLoss,omitempty"`
}

// Validate checks the structural sanity of an instruction, independent of
// any ledger or market state.
func (i Instruction) Validate() error {
	switch i.Action {
	case ActionBuy, ActionSell:
	default:
		return fmt.Errorf("instruction for %q: unknown action %q", i.Ticker, i.Action)
	}
	if i.Ticker == "" {
		return fmt.Errorf("instruction is missing a ticker")
	}
	if !i.Shares.IsPositive() {
		return fmt.Errorf("instruction for %q: share count %s is not positive", i.Ticker, i.Shares)
	}
	switch i.Order {
	case MOO:
	case Limit:
		if !i.Limit.IsPositive() {
			return fmt.Errorf("limit order for %q: limit price %s is not positive", i.Ticker, i.Limit)
		}
	default:
		return fmt.Errorf("instruction for %q: unknown order type %q", i.Ticker, i.Order)
	}
	if i.StopLoss.IsNegative() {
		return fmt.Errorf("instruction for %q: stop loss %s is negative", i.Ticker, i.StopLoss)
	}
	return nil
}

// TradeRecord is one immutable line of the trade log, written once per
// executed trade and never mutated or deleted.
type TradeRecord struct {
	Date      date.Date
	Ticker    string
	Action    Action
	Shares    Quantity
	Price     Money // execution price per share
	Amount    Money // proceeds for sells, cost for buys
	CashAfter Money
}

// MarshalJSON implements the json.Marshaler interface for TradeRecord,
// keeping a stable field order in the trade log.
func (t TradeRecord) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", t.Date)
	w.Append("ticker", t.Ticker)
	w.Append("action", t.Action)
	w.Append("shares", t.Shares)
	w.Append("price", t.Price)
	w.Append("amount", t.Amount)
	w.Append("cashAfter", t.CashAfter)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for TradeRecord.
func (t *TradeRecord) UnmarshalJSON(b []byte) error {
	var temp struct {
		Date      date.Date `json:"date"`
		Ticker    string    `json:"ticker"`
		Action    Action    `json:"action"`
		Shares    Quantity  `json:"shares"`
		Price     Money     `json:"price"`
		Amount    Money     `json:"amount"`
		CashAfter Money     `json:"cashAfter"`
	}
	if err := json.Unmarshal(b, &temp); err != nil {
		return err
	}
	*t = TradeRecord(temp)
	return nil
}

// DecodeInstructions reads manual orders from a JSONL stream, one
// instruction per line, validating each one.
func DecodeInstructions(r io.Reader) ([]Instruction, error) {
	var instructions []Instruction
	scanner := bufio.NewScanner(r)
	i := 0
	for scanner.Scan() {
		i++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ins Instruction
		if err := json.Unmarshal(line, &ins); err != nil {
			return nil, fmt.Errorf("parse error on line %d: %w", i, err)
		}
		if err := ins.Validate(); err != nil {
			return nil, fmt.Errorf("invalid instruction on line %d: %w", i, err)
		}
		instructions = append(instructions, ins)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading instructions: %w", err)
	}
	return instructions, nil
}
