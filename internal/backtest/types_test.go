package backtest

import (
	"testing"
	"time"
)

func TestTrade_IsWin(t *testing.T) {
	tests := []struct {
		name string
		pl   float64
		want bool
	}{
		{"profit", 100, true},
		{"loss", -100, false},
		{"break even", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := Trade{ProfitLoss: tt.pl}
			if got := trade.IsWin(); got != tt.want {
				t.Errorf("IsWin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResult_TotalTrades(t *testing.T) {
	r := Result{Trades: []Trade{
		{ExitDate: time.Now(), ProfitLoss: 10},
		{ExitDate: time.Now(), ProfitLoss: -5},
	}}
	if r.TotalTrades() != 2 {
		t.Errorf("TotalTrades = %d, want 2", r.TotalTrades())
	}
}

func TestExitReason_Constants(t *testing.T) {
	reasons := []ExitReason{ExitSell, ExitStopLoss, ExitTakeProfit}
	expected := []string{"sell", "stop_loss", "take_profit"}

	for i, r := range reasons {
		if string(r) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], r)
		}
	}
}
