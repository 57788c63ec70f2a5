package microcap

import (
	"testing"
)

func TestInstructionValidate(t *testing.T) {
	valid := Instruction{Action: ActionBuy, Ticker: "ABEO", Shares: Q(10), Order: Limit, Limit: M(1.30), StopLoss: M(1.00)}

	testCases := []struct {
		name    string
		mutate  func(*Instruction)
		wantErr bool
	}{
		{name: "valid limit buy", mutate: func(i *Instruction) {}},
		{name: "valid moo sell", mutate: func(i *Instruction) {
			i.Action = ActionSell
			i.Order = MOO
			i.Limit = Money{}
			i.StopLoss = Money{}
		}},
		{name: "stop loss sell is not a manual action", mutate: func(i *Instruction) { i.Action = ActionStopLossSell }, wantErr: true},
		{name: "missing ticker", mutate: func(i *Instruction) { i.Ticker = "" }, wantErr: true},
		{name: "zero shares", mutate: func(i *Instruction) { i.Shares = Q(0) }, wantErr: true},
		{name: "negative shares", mutate: func(i *Instruction) { i.Shares = Q(-5) }, wantErr: true},
		{name: "limit order without limit price", mutate: func(i *Instruction) { i.Limit = Money{} }, wantErr: true},
		{name: "unknown order type", mutate: func(i *Instruction) { i.Order = "GTC" }, wantErr: true},
		{name: "negative stop", mutate: func(i *Instruction) { i.StopLoss = M(-1) }, wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ins := valid
			tc.mutate(&ins)
			err := ins.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
