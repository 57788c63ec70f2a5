package cmd

import (
	"path/filepath"
	"testing"

	"github.com/petard/microcap"
	"github.com/petard/microcap/date"
)

func tempTradeLog(t *testing.T) {
	t.Helper()
	restore := *tradesFile
	*tradesFile = filepath.Join(t.TempDir(), "trades.jsonl")
	t.Cleanup(func() { *tradesFile = restore })
}

func TestReplaceTradesDropsRerunDay(t *testing.T) {
	tempTradeLog(t)

	day1 := date.MustParse("2025-08-01")
	day2 := date.MustParse("2025-08-04")
	if err := AppendTrades([]microcap.TradeRecord{
		{Date: day1, Ticker: "ABEO", Action: microcap.ActionBuy, Shares: microcap.Q(10), Price: microcap.M(1.25), Amount: microcap.M(12.50), CashAfter: microcap.M(87.50)},
		{Date: day2, Ticker: "ABEO", Action: microcap.ActionSell, Shares: microcap.Q(10), Price: microcap.M(1.10), Amount: microcap.M(11), CashAfter: microcap.M(98.50)},
	}); err != nil {
		t.Fatal(err)
	}

	// The re-run of day two records a stop-out instead of the sell. The
	// old day-two line must be gone, not doubled.
	if err := ReplaceTrades(day2, []microcap.TradeRecord{
		{Date: day2, Ticker: "ABEO", Action: microcap.ActionStopLossSell, Shares: microcap.Q(10), Price: microcap.M(0.95), Amount: microcap.M(9.50), CashAfter: microcap.M(97)},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := DecodeTrades()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("trade log has %d lines, want 2: %v", len(got), got)
	}
	if got[0].Date != day1 || got[0].Action != microcap.ActionBuy {
		t.Errorf("first line = %+v, want the untouched day-one buy", got[0])
	}
	if got[1].Action != microcap.ActionStopLossSell || !got[1].Price.Equal(microcap.M(0.95)) {
		t.Errorf("second line = %+v, want the re-run stop-out", got[1])
	}
}

func TestReplaceTradesKeepsChronologicalOrder(t *testing.T) {
	tempTradeLog(t)

	day1 := date.MustParse("2025-08-01")
	day2 := date.MustParse("2025-08-04")
	if err := AppendTrades([]microcap.TradeRecord{
		{Date: day2, Ticker: "ABEO", Action: microcap.ActionSell, Shares: microcap.Q(10), Price: microcap.M(1.10), Amount: microcap.M(11), CashAfter: microcap.M(98.50)},
	}); err != nil {
		t.Fatal(err)
	}

	// A back-dated run slots in before the later day.
	if err := ReplaceTrades(day1, []microcap.TradeRecord{
		{Date: day1, Ticker: "ABEO", Action: microcap.ActionBuy, Shares: microcap.Q(10), Price: microcap.M(1.25), Amount: microcap.M(12.50), CashAfter: microcap.M(87.50)},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := DecodeTrades()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Date != day1 || got[1].Date != day2 {
		t.Fatalf("trade log = %v, want day one before day two", got)
	}
}
