package microcap

import (
	"fmt"
	"maps"
	"slices"

	"github.com/petard/microcap/date"
)

// Position is a single holding: a ticker, the number of shares held, the
// weighted average cost per share, and the stop-loss level protecting it.
// A stop of zero means the position is unprotected.
type Position struct {
	Ticker   string
	Shares   Quantity
	AvgCost  Money
	StopLoss Money
}

// CostBasis returns shares times average cost.
func (p Position) CostBasis() Money { return p.AvgCost.Mul(p.Shares) }

// InsufficientSharesError is returned when a sell asks for more shares than held.
type InsufficientSharesError struct {
	Ticker string
	Want   Quantity
	Have   Quantity
}

func (e InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares of %s: want %s, have %s", e.Ticker, e.Want, e.Have)
}

// InsufficientCashError is returned when a buy costs more than the cash balance.
type InsufficientCashError struct {
	Ticker string
	Need   Money
	Have   Money
}

func (e InsufficientCashError) Error() string {
	return fmt.Sprintf("insufficient cash for %s: need %s, have %s", e.Ticker, e.Need, e.Have)
}

// Ledger is the in-memory state of the portfolio: holdings keyed by ticker
// plus the cash balance, as of a given date.
//
// A Ledger is mutated exclusively by ApplyDay during a processing cycle;
// every other component receives it read-only. Structural operations reject
// anything that would drive shares or cash negative, they never clamp.
type Ledger struct {
	positions map[string]Position
	cash      Money
	asOf      date.Date
}

// NewLedger creates a ledger holding only cash.
func NewLedger(cash Money, on date.Date) (*Ledger, error) {
	if cash.IsNegative() {
		return nil, fmt.Errorf("starting cash %s is negative", cash)
	}
	return &Ledger{
		positions: make(map[string]Position),
		cash:      cash,
		asOf:      on,
	}, nil
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() Money { return l.cash }

// AsOf returns the date of the last applied trading day.
func (l *Ledger) AsOf() date.Date { return l.asOf }

// Position returns the position held for ticker, if any.
func (l *Ledger) Position(ticker string) (Position, bool) {
	p, ok := l.positions[ticker]
	return p, ok
}

// Positions returns all positions sorted by ticker.
func (l *Ledger) Positions() []Position {
	tickers := slices.Sorted(maps.Keys(l.positions))
	positions := make([]Position, 0, len(tickers))
	for _, t := range tickers {
		positions = append(positions, l.positions[t])
	}
	return positions
}

// Tickers returns the held tickers in sorted order.
func (l *Ledger) Tickers() []string {
	return slices.Sorted(maps.Keys(l.positions))
}

// HoldingsCost returns the total cost basis of all positions.
func (l *Ledger) HoldingsCost() Money {
	total := M(0)
	for _, p := range l.positions {
		total = total.Add(p.CostBasis())
	}
	return total
}

// Clone returns a deep copy. ApplyDay works on a clone so a failed batch
// leaves the caller's ledger untouched.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		positions: maps.Clone(l.positions),
		cash:      l.cash,
		asOf:      l.asOf,
	}
}

// credit adds the given amount to the cash balance.
func (l *Ledger) credit(m Money) {
	l.cash = l.cash.Add(m)
}

// debit removes cost from the cash balance, rejecting an overdraft.
// ticker is only used to build the error.
func (l *Ledger) debit(cost Money, ticker string) error {
	if cost.GreaterThan(l.cash) {
		return InsufficientCashError{Ticker: ticker, Need: cost, Have: l.cash}
	}
	l.cash = l.cash.Sub(cost)
	return nil
}

// addShares creates or augments a position, recomputing the average cost as
// the shares-weighted mean of the old and new cost. The stop-loss level is
// reset to the one carried by the buy.
func (l *Ledger) addShares(ticker string, shares Quantity, price, stop Money) error {
	if !shares.IsPositive() {
		return fmt.Errorf("buy of %s: share count %s is not positive", ticker, shares)
	}
	if stop.IsNegative() {
		return fmt.Errorf("buy of %s: stop loss %s is negative", ticker, stop)
	}
	p, ok := l.positions[ticker]
	if !ok {
		l.positions[ticker] = Position{Ticker: ticker, Shares: shares, AvgCost: price, StopLoss: stop}
		return nil
	}
	newShares := p.Shares.Add(shares)
	newCost := p.CostBasis().Add(price.Mul(shares))
	p.Shares = newShares
	p.AvgCost = newCost.Div(newShares)
	p.StopLoss = stop
	l.positions[ticker] = p
	return nil
}

// removeShares reduces a position, dropping it entirely when shares reach
// zero. The average cost is unaffected by sells.
func (l *Ledger) removeShares(ticker string, shares Quantity) error {
	if !shares.IsPositive() {
		return fmt.Errorf("sell of %s: share count %s is not positive", ticker, shares)
	}
	p, ok := l.positions[ticker]
	if !ok {
		return InsufficientSharesError{Ticker: ticker, Want: shares, Have: Q(0)}
	}
	if shares.GreaterThan(p.Shares) {
		return InsufficientSharesError{Ticker: ticker, Want: shares, Have: p.Shares}
	}
	p.Shares = p.Shares.Sub(shares)
	if p.Shares.IsZero() {
		delete(l.positions, ticker)
		return nil
	}
	l.positions[ticker] = p
	return nil
}
