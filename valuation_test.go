package microcap

import (
	"errors"
	"testing"

	"github.com/petard/microcap/date"
)

func TestValueMarksAtClose(t *testing.T) {
	l, _ := NewLedger(M(87.50), date.MustParse("2025-08-01"))
	l.addShares("ABEO", Q(10), M(1.25), M(1.00))

	on := date.MustParse("2025-08-01")
	quotes := NewQuoteSet(on, quote("ABEO", on, 1.25, 1.40, 1.20, 1.35))
	snap, err := Value(l, quotes, on)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Holdings.Equal(M(13.50)) {
		t.Errorf("Holdings = %s, want $13.50", snap.Holdings)
	}
	if !snap.TotalEquity.Equal(M(101)) {
		t.Errorf("TotalEquity = %s, want $101.00", snap.TotalEquity)
	}
	if len(snap.Positions) != 1 {
		t.Fatalf("positions = %v, want one", snap.Positions)
	}
	p := snap.Positions[0]
	if !p.PnL.Equal(M(1)) {
		t.Errorf("PnL = %s, want $1.00", p.PnL)
	}
	if !p.PnLPercent.Equal(Percent(8)) {
		t.Errorf("PnLPercent = %v, want 8%%", p.PnLPercent)
	}
}

func TestValueMissingQuoteIsFatal(t *testing.T) {
	l, _ := NewLedger(M(100), date.MustParse("2025-08-01"))
	l.addShares("ABEO", Q(10), M(1.25), M(0))
	l.addShares("CADL", Q(5), M(2), M(0))

	on := date.MustParse("2025-08-01")
	quotes := NewQuoteSet(on, quote("ABEO", on, 1.25, 1.40, 1.20, 1.35))
	_, err := Value(l, quotes, on)
	var missing MissingQuoteError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingQuoteError", err)
	}
	if missing.Ticker != "CADL" {
		t.Errorf("missing ticker = %s, want CADL", missing.Ticker)
	}
}

func TestSnapshotRebuildsLedger(t *testing.T) {
	l, _ := NewLedger(M(87.50), date.MustParse("2025-08-01"))
	l.addShares("ABEO", Q(10), M(1.25), M(1.00))

	on := date.MustParse("2025-08-01")
	quotes := NewQuoteSet(on, quote("ABEO", on, 1.25, 1.40, 1.20, 1.35))
	snap, err := Value(l, quotes, on)
	if err != nil {
		t.Fatal(err)
	}

	rebuilt, err := snap.Ledger()
	if err != nil {
		t.Fatal(err)
	}
	if !rebuilt.Cash().Equal(l.Cash()) {
		t.Errorf("rebuilt cash = %s, want %s", rebuilt.Cash(), l.Cash())
	}
	p, ok := rebuilt.Position("ABEO")
	if !ok {
		t.Fatal("rebuilt ledger lost the position")
	}
	if !p.Shares.Equal(Q(10)) || !p.AvgCost.Equal(M(1.25)) || !p.StopLoss.Equal(M(1.00)) {
		t.Errorf("rebuilt position = %+v, want 10 @ $1.25 stop $1.00", p)
	}
	if rebuilt.AsOf() != on {
		t.Errorf("rebuilt AsOf = %s, want %s", rebuilt.AsOf(), on)
	}
}
