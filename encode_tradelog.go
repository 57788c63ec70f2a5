package microcap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeTradeLog reads the trade log from a JSONL stream in file order.
func DecodeTradeLog(r io.Reader) ([]TradeRecord, error) {
	var trades []TradeRecord
	scanner := bufio.NewScanner(r)
	i := 0
	for scanner.Scan() {
		i++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var t TradeRecord
		if err := json.Unmarshal(line, &t); err != nil {
			return nil, fmt.Errorf("parse error on line %d: %w", i, err)
		}
		trades = append(trades, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading trade log: %w", err)
	}
	return trades, nil
}

// EncodeTradeRecord appends one trade to a JSONL stream. The log is
// append-only: existing lines are never rewritten.
func EncodeTradeRecord(w io.Writer, t TradeRecord) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write trade: %w", err)
	}
	return nil
}

// EncodeTradeLog writes trades as JSONL in the given order.
func EncodeTradeLog(w io.Writer, trades []TradeRecord) error {
	for _, t := range trades {
		if err := EncodeTradeRecord(w, t); err != nil {
			return err
		}
	}
	return nil
}
