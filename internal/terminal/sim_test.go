package terminal

import (
	"math"
	"testing"
)

func eurusd() SymbolInfo {
	return SymbolInfo{
		Name:       "EURUSD",
		Ask:        1.1002,
		Bid:        1.1000,
		TickSize:   0.0001,
		TickValue:  1,
		MinVolume:  0.01,
		MaxVolume:  100,
		VolumeStep: 0.01,
	}
}

func TestOpenOrderAndMarkToMarket(t *testing.T) {
	sim := NewSim(Account{Number: "1", Balance: 10000, Currency: "USD"}, []SymbolInfo{eurusd()})

	ticket, err := sim.OpenOrder(OrderRequest{Symbol: "EURUSD", Type: Buy, Volume: 1, SL: 1.0950, TP: 1.1100})
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}
	if ticket == 0 {
		t.Fatalf("expected non-zero ticket")
	}

	positions := sim.Positions()
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].OpenPrice != 1.1002 {
		t.Fatalf("buy should fill at ask, got %.4f", positions[0].OpenPrice)
	}

	// 50 ticks in favor: profit = 50 * tickValue * volume.
	sim.SetPrice("EURUSD", 1.1052, 1.1054)
	positions = sim.Positions()
	if math.Abs(positions[0].Profit-50) > 1e-6 {
		t.Fatalf("expected profit 50, got %.4f", positions[0].Profit)
	}

	acct := sim.Account()
	if math.Abs(acct.Equity-10050) > 1e-6 {
		t.Fatalf("equity should include floating profit, got %.2f", acct.Equity)
	}
}

func TestClosePositionRealizesProfit(t *testing.T) {
	sim := NewSim(Account{Balance: 10000}, []SymbolInfo{eurusd()})
	ticket, err := sim.OpenOrder(OrderRequest{Symbol: "EURUSD", Type: Sell, Volume: 0.5})
	if err != nil {
		t.Fatalf("unexpected open error: %v", err)
	}

	// Sell filled at bid 1.1000; market drops 100 ticks.
	sim.SetPrice("EURUSD", 1.0898, 1.0900)
	if err := sim.ClosePosition(ticket); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if len(sim.Positions()) != 0 {
		t.Fatalf("position not removed")
	}
	acct := sim.Account()
	if math.Abs(acct.Balance-10050) > 1e-6 {
		t.Fatalf("expected balance 10050, got %.2f", acct.Balance)
	}
}

func TestOpenOrderRejectsUnknownSymbol(t *testing.T) {
	sim := NewSim(Account{Balance: 1000}, []SymbolInfo{eurusd()})
	if _, err := sim.OpenOrder(OrderRequest{Symbol: "XAUUSD", Type: Buy, Volume: 0.1}); err == nil {
		t.Fatalf("expected symbol not found error")
	}
}

func TestOpenOrderRejectsVolumeOutOfRange(t *testing.T) {
	sim := NewSim(Account{Balance: 1000}, []SymbolInfo{eurusd()})
	if _, err := sim.OpenOrder(OrderRequest{Symbol: "EURUSD", Type: Buy, Volume: 0.001}); err == nil {
		t.Fatalf("expected volume below minimum to fail")
	}
	if _, err := sim.OpenOrder(OrderRequest{Symbol: "EURUSD", Type: Buy, Volume: 500}); err == nil {
		t.Fatalf("expected volume above maximum to fail")
	}
}

func TestClosePositionUnknownTicket(t *testing.T) {
	sim := NewSim(Account{Balance: 1000}, []SymbolInfo{eurusd()})
	if err := sim.ClosePosition(99); err == nil {
		t.Fatalf("expected error for unknown ticket")
	}
}
