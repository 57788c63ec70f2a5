package microcap

import (
	"errors"
	"testing"

	"github.com/petard/microcap/date"
)

func day(t *testing.T, s string) date.Date {
	t.Helper()
	return date.MustParse(s)
}

func TestNewLedgerRejectsNegativeCash(t *testing.T) {
	if _, err := NewLedger(M(-1), date.MustParse("2025-08-01")); err == nil {
		t.Fatal("NewLedger accepted negative cash")
	}
}

func TestDebitRejectsOverdraft(t *testing.T) {
	l, err := NewLedger(M(100), day(t, "2025-08-01"))
	if err != nil {
		t.Fatal(err)
	}
	err = l.debit(M(100.01), "ABEO")
	var insufficient InsufficientCashError
	if !errors.As(err, &insufficient) {
		t.Fatalf("debit error = %v, want InsufficientCashError", err)
	}
	if !l.Cash().Equal(M(100)) {
		t.Errorf("cash changed on rejected debit: %s", l.Cash())
	}
}

func TestAddSharesRecomputesAverageCost(t *testing.T) {
	l, _ := NewLedger(M(1000), day(t, "2025-08-01"))
	if err := l.addShares("ABEO", Q(10), M(5), M(4)); err != nil {
		t.Fatal(err)
	}
	if err := l.addShares("ABEO", Q(10), M(7), M(6)); err != nil {
		t.Fatal(err)
	}
	p, ok := l.Position("ABEO")
	if !ok {
		t.Fatal("position missing after two buys")
	}
	if !p.Shares.Equal(Q(20)) {
		t.Errorf("Shares = %s, want 20", p.Shares)
	}
	if !p.AvgCost.Equal(M(6)) {
		t.Errorf("AvgCost = %s, want $6.00", p.AvgCost)
	}
	if !p.StopLoss.Equal(M(6)) {
		t.Errorf("StopLoss = %s, want the level carried by the last buy", p.StopLoss)
	}
}

func TestRemoveSharesKeepsAverageCost(t *testing.T) {
	l, _ := NewLedger(M(1000), day(t, "2025-08-01"))
	if err := l.addShares("ABEO", Q(10), M(5), M(0)); err != nil {
		t.Fatal(err)
	}
	if err := l.removeShares("ABEO", Q(4)); err != nil {
		t.Fatal(err)
	}
	p, _ := l.Position("ABEO")
	if !p.Shares.Equal(Q(6)) || !p.AvgCost.Equal(M(5)) {
		t.Errorf("position after partial sell = %s @ %s, want 6 @ $5.00", p.Shares, p.AvgCost)
	}
	if err := l.removeShares("ABEO", Q(6)); err != nil {
		t.Fatal(err)
	}
	if _, ok := l.Position("ABEO"); ok {
		t.Error("fully sold position should be dropped")
	}
}

func TestRemoveSharesRejectsOverselling(t *testing.T) {
	l, _ := NewLedger(M(1000), day(t, "2025-08-01"))
	if err := l.addShares("ABEO", Q(10), M(5), M(0)); err != nil {
		t.Fatal(err)
	}
	err := l.removeShares("ABEO", Q(11))
	var insufficient InsufficientSharesError
	if !errors.As(err, &insufficient) {
		t.Fatalf("removeShares error = %v, want InsufficientSharesError", err)
	}
	p, _ := l.Position("ABEO")
	if !p.Shares.Equal(Q(10)) {
		t.Errorf("shares changed on rejected sell: %s", p.Shares)
	}
	if err := l.removeShares("CADL", Q(1)); !errors.As(err, &insufficient) {
		t.Errorf("sell of unheld ticker = %v, want InsufficientSharesError", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l, _ := NewLedger(M(1000), day(t, "2025-08-01"))
	if err := l.addShares("ABEO", Q(10), M(5), M(4)); err != nil {
		t.Fatal(err)
	}
	c := l.Clone()
	if err := c.removeShares("ABEO", Q(10)); err != nil {
		t.Fatal(err)
	}
	c.credit(M(50))
	if p, ok := l.Position("ABEO"); !ok || !p.Shares.Equal(Q(10)) {
		t.Error("mutating the clone touched the original positions")
	}
	if !l.Cash().Equal(M(1000)) {
		t.Error("mutating the clone touched the original cash")
	}
}

func TestHoldingsCost(t *testing.T) {
	l, _ := NewLedger(M(1000), day(t, "2025-08-01"))
	l.addShares("ABEO", Q(10), M(5), M(0))
	l.addShares("CADL", Q(4), M(7.5), M(0))
	if got, want := l.HoldingsCost(), M(80); !got.Equal(want) {
		t.Errorf("HoldingsCost() = %s, want %s", got, want)
	}
}
