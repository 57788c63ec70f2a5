package microcap

import (
	"fmt"

	"github.com/petard/microcap/date"
)

// RejectionReason classifies why an instruction did not execute.
type RejectionReason string

const (
	// RejectUnfilled means a limit order never touched its price during the day.
	RejectUnfilled RejectionReason = "UNFILLED"
	// RejectInsufficientCash means the buy cost more than the cash on hand.
	RejectInsufficientCash RejectionReason = "INSUFFICIENT_CASH"
	// RejectInsufficientShares means the sell asked for more shares than held.
	RejectInsufficientShares RejectionReason = "INSUFFICIENT_SHARES"
	// RejectInvalid means the instruction failed structural validation.
	RejectInvalid RejectionReason = "INVALID"
)

// Rejection records an instruction that was skipped, with the reason. A
// rejection never aborts the batch; the remaining instructions still apply.
type Rejection struct {
	Instruction Instruction
	Reason      RejectionReason
	Err         error
}

func (r Rejection) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s %s: %s (%v)", r.Instruction.Action, r.Instruction.Shares, r.Instruction.Ticker, r.Reason, r.Err)
	}
	return fmt.Sprintf("%s %s %s: %s", r.Instruction.Action, r.Instruction.Shares, r.Instruction.Ticker, r.Reason)
}

// ApplyDay processes one trading day against the ledger: the automatic
// stop-loss sweep first, then manual sells, then manual buys. It works on a
// clone and returns it, so on error the input ledger is untouched.
//
// Every held ticker must have a quote for the day before the sweep can be
// trusted; a missing one aborts the whole day with a MissingQuoteError.
// Unexecutable instructions are returned as rejections, not errors.
func ApplyDay(ledger *Ledger, instructions []Instruction, quotes QuoteSet, on date.Date) (*Ledger, []TradeRecord, []Rejection, error) {
	if !on.After(ledger.AsOf()) {
		return nil, nil, nil, fmt.Errorf("cannot apply %s: ledger is already at %s", on, ledger.AsOf())
	}
	next := ledger.Clone()
	next.asOf = on

	// The whole book must be priced up front, stop or no stop, so a day
	// never half-executes before the gap is noticed.
	for _, ticker := range next.Tickers() {
		if _, err := quotes.Require(ticker); err != nil {
			return nil, nil, nil, err
		}
	}

	var trades []TradeRecord
	var rejections []Rejection

	// Stop-loss sweep. Deterministic ticker order so a re-run of the same
	// day yields the same trade log.
	for _, ticker := range next.Tickers() {
		p, _ := next.Position(ticker)
		if !p.StopLoss.IsPositive() {
			continue
		}
		q, err := quotes.Require(ticker)
		if err != nil {
			return nil, nil, nil, err
		}
		if q.Low.GreaterThan(p.StopLoss) {
			continue
		}
		// Triggered. A gap through the stop fills at the open, which is
		// worse than the stop itself.
		price := p.StopLoss
		if !q.Open.GreaterThan(p.StopLoss) {
			price = q.Open
		}
		shares := p.Shares
		if err := next.removeShares(ticker, shares); err != nil {
			return nil, nil, nil, fmt.Errorf("stop-loss sweep of %s: %w", ticker, err)
		}
		proceeds := price.Mul(shares)
		next.credit(proceeds)
		trades = append(trades, TradeRecord{
			Date:      on,
			Ticker:    ticker,
			Action:    ActionStopLossSell,
			Shares:    shares,
			Price:     price,
			Amount:    proceeds,
			CashAfter: next.Cash(),
		})
	}

	// Manual sells before manual buys, so proceeds can fund the day's buys.
	for _, ins := range instructions {
		if ins.Action != ActionSell {
			continue
		}
		t, rej, err := applySell(next, ins, quotes, on)
		if err != nil {
			return nil, nil, nil, err
		}
		if rej != nil {
			rejections = append(rejections, *rej)
			continue
		}
		trades = append(trades, t)
	}
	for _, ins := range instructions {
		if ins.Action != ActionBuy {
			continue
		}
		t, rej, err := applyBuy(next, ins, quotes, on)
		if err != nil {
			return nil, nil, nil, err
		}
		if rej != nil {
			rejections = append(rejections, *rej)
			continue
		}
		trades = append(trades, t)
	}
	for _, ins := range instructions {
		if ins.Action == ActionBuy || ins.Action == ActionSell {
			continue
		}
		rejections = append(rejections, Rejection{
			Instruction: ins,
			Reason:      RejectInvalid,
			Err:         fmt.Errorf("unknown action %q", ins.Action),
		})
	}

	return next, trades, rejections, nil
}

func applyBuy(l *Ledger, ins Instruction, quotes QuoteSet, on date.Date) (TradeRecord, *Rejection, error) {
	if err := ins.Validate(); err != nil {
		return TradeRecord{}, &Rejection{Instruction: ins, Reason: RejectInvalid, Err: err}, nil
	}
	q, err := quotes.Require(ins.Ticker)
	if err != nil {
		return TradeRecord{}, nil, err
	}
	price, filled := buyFillPrice(ins, q)
	if !filled {
		return TradeRecord{}, &Rejection{Instruction: ins, Reason: RejectUnfilled}, nil
	}
	cost := price.Mul(ins.Shares)
	if err := l.debit(cost, ins.Ticker); err != nil {
		return TradeRecord{}, &Rejection{Instruction: ins, Reason: RejectInsufficientCash, Err: err}, nil
	}
	if err := l.addShares(ins.Ticker, ins.Shares, price, ins.StopLoss); err != nil {
		l.credit(cost) // roll the debit back
		return TradeRecord{}, &Rejection{Instruction: ins, Reason: RejectInvalid, Err: err}, nil
	}
	return TradeRecord{
		Date:      on,
		Ticker:    ins.Ticker,
		Action:    ActionBuy,
		Shares:    ins.Shares,
		Price:     price,
		Amount:    cost,
		CashAfter: l.Cash(),
	}, nil, nil
}

func applySell(l *Ledger, ins Instruction, quotes QuoteSet, on date.Date) (TradeRecord, *Rejection, error) {
	if err := ins.Validate(); err != nil {
		return TradeRecord{}, &Rejection{Instruction: ins, Reason: RejectInvalid, Err: err}, nil
	}
	q, err := quotes.Require(ins.Ticker)
	if err != nil {
		return TradeRecord{}, nil, err
	}
	price, filled := sellFillPrice(ins, q)
	if !filled {
		return TradeRecord{}, &Rejection{Instruction: ins, Reason: RejectUnfilled}, nil
	}
	if err := l.removeShares(ins.Ticker, ins.Shares); err != nil {
		return TradeRecord{}, &Rejection{Instruction: ins, Reason: RejectInsufficientShares, Err: err}, nil
	}
	proceeds := price.Mul(ins.Shares)
	l.credit(proceeds)
	return TradeRecord{
		Date:      on,
		Ticker:    ins.Ticker,
		Action:    ActionSell,
		Shares:    ins.Shares,
		Price:     price,
		Amount:    proceeds,
		CashAfter: l.Cash(),
	}, nil, nil
}

// buyFillPrice prices a buy against the day's range. A limit buy that opens
// at or under the limit fills at the open (price improvement); one the low
// touches fills at the limit; otherwise it does not fill.
func buyFillPrice(ins Instruction, q PriceQuote) (Money, bool) {
	if ins.Order == MOO {
		return q.Open, true
	}
	if !q.Open.GreaterThan(ins.Limit) {
		return q.Open, true
	}
	if !q.Low.GreaterThan(ins.Limit) {
		return ins.Limit, true
	}
	return Money{}, false
}

// sellFillPrice mirrors buyFillPrice for sells: an open at or above the
// limit fills at the open, a high that touches it fills at the limit.
func sellFillPrice(ins Instruction, q PriceQuote) (Money, bool) {
	if ins.Order == MOO {
		return q.Open, true
	}
	if !q.Open.LessThan(ins.Limit) {
		return q.Open, true
	}
	if !q.High.LessThan(ins.Limit) {
		return ins.Limit, true
	}
	return Money{}, false
}
