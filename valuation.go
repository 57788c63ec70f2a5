package microcap

import (
	"github.com/petard/microcap/date"
)

// PositionValue is one valued holding inside an equity snapshot. It carries
// enough of the position (average cost, stop) that a snapshot can rebuild
// the ledger it was taken from.
type PositionValue struct {
	Ticker      string
	Shares      Quantity
	AvgCost     Money
	StopLoss    Money
	Price       Money // closing price used for the mark
	Value       Money // shares times price
	PnL         Money // value minus cost basis
	PnLPercent  Percent
	QuoteSource string
}

// EquitySnapshot is the end-of-day picture of the portfolio: every position
// marked at its close, plus cash, summing to total equity.
type EquitySnapshot struct {
	Date        date.Date
	Cash        Money
	Holdings    Money // market value of all positions
	TotalEquity Money // Holdings plus Cash
	Positions   []PositionValue
}

// Value marks every position in the ledger at its closing quote. It is all
// or nothing: a single held ticker without a quote yields a
// MissingQuoteError and no snapshot, because a partial mark would understate
// equity and poison every statistic derived from it.
func Value(ledger *Ledger, quotes QuoteSet, on date.Date) (EquitySnapshot, error) {
	snap := EquitySnapshot{Date: on, Cash: ledger.Cash()}
	holdings := M(0)
	for _, p := range ledger.Positions() {
		q, err := quotes.Require(p.Ticker)
		if err != nil {
			return EquitySnapshot{}, err
		}
		value := q.Close.Mul(p.Shares)
		pnl := value.Sub(p.CostBasis())
		var pct Percent
		if !p.CostBasis().IsZero() {
			pct = Percent(100 * pnl.InexactFloat64() / p.CostBasis().InexactFloat64())
		}
		snap.Positions = append(snap.Positions, PositionValue{
			Ticker:      p.Ticker,
			Shares:      p.Shares,
			AvgCost:     p.AvgCost,
			StopLoss:    p.StopLoss,
			Price:       q.Close,
			Value:       value,
			PnL:         pnl,
			PnLPercent:  pct,
			QuoteSource: q.Source,
		})
		holdings = holdings.Add(value)
	}
	snap.Holdings = holdings
	snap.TotalEquity = holdings.Add(snap.Cash)
	return snap, nil
}

// Ledger rebuilds the portfolio state the snapshot was taken from, so a run
// can start from yesterday's persisted snapshot instead of replaying the
// whole trade log.
func (s EquitySnapshot) Ledger() (*Ledger, error) {
	l, err := NewLedger(s.Cash, s.Date)
	if err != nil {
		return nil, err
	}
	for _, p := range s.Positions {
		if err := l.addShares(p.Ticker, p.Shares, p.AvgCost, p.StopLoss); err != nil {
			return nil, err
		}
	}
	return l, nil
}
