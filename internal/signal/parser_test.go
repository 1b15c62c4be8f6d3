package signal

import (
	"errors"
	"testing"

	"alpharai/internal/types"
)

func TestParseAlgopro(t *testing.T) {
	text := "EURUSD\nBuy Signal on 15 Minute timeframe\nEntry: 1.1000\nStop Loss: 1.0950\nTake Profit 1: 1.1100\n"

	intent, err := NewParser().Parse(text)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if intent.Symbol != "EURUSD" {
		t.Errorf("expected symbol EURUSD, got %s", intent.Symbol)
	}
	if intent.Direction != types.Long {
		t.Errorf("expected direction LONG, got %s", intent.Direction)
	}
	if intent.TimeframeMinutes != 15 {
		t.Errorf("expected timeframe 15, got %d", intent.TimeframeMinutes)
	}
	if intent.Entry != 1.1 {
		t.Errorf("expected entry 1.1, got %f", intent.Entry)
	}
	if intent.StopLoss != 1.095 {
		t.Errorf("expected stop loss 1.095, got %f", intent.StopLoss)
	}
	if intent.TakeProfit1 != 1.11 {
		t.Errorf("expected TP1 1.11, got %f", intent.TakeProfit1)
	}
}

func TestParseAlgoproOptionalFields(t *testing.T) {
	text := "XAUUSD\nSell Signal on 60 Minute timeframe\nEntry: 2400.5\nStop Loss: 2410\nTake Profit 1: 2390\nTake Profit 2: 2380\nTake Profit 3: 2370\nAI Confidence: 87.5%\n"

	intent, err := NewParser().Parse(text)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if intent.Direction != types.Short {
		t.Errorf("expected SHORT, got %s", intent.Direction)
	}
	if intent.TakeProfit2 == nil || *intent.TakeProfit2 != 2380 {
		t.Errorf("expected TP2 2380, got %v", intent.TakeProfit2)
	}
	if intent.TakeProfit3 == nil || *intent.TakeProfit3 != 2370 {
		t.Errorf("expected TP3 2370, got %v", intent.TakeProfit3)
	}
	if intent.AIConfidence == nil || *intent.AIConfidence != 87.5 {
		t.Errorf("expected AI confidence 87.5 with %% stripped, got %v", intent.AIConfidence)
	}
}

func TestParseAlpharai(t *testing.T) {
	text := "Symbol = GBPUSD\nDirection = SELL\nTimeframe = 60\nEntry = 1.2500\nStop Loss = 1.2550\nTake Profit 1 = 1.2400"

	intent, err := NewParser().Parse(text)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if intent.Symbol != "GBPUSD" {
		t.Errorf("expected symbol GBPUSD, got %s", intent.Symbol)
	}
	if intent.Direction != types.Short {
		t.Errorf("expected SELL to normalize to SHORT, got %s", intent.Direction)
	}
	if intent.TimeframeMinutes != 60 {
		t.Errorf("expected timeframe 60, got %d", intent.TimeframeMinutes)
	}
	if intent.Entry != 1.25 {
		t.Errorf("expected entry 1.25, got %f", intent.Entry)
	}
}

func TestParseAlpharaiRequiresEntry(t *testing.T) {
	text := "Symbol = GBPUSD\nDirection = SELL\nTimeframe = 60\nTake Profit 1 = 1.2400"

	_, err := NewParser().Parse(text)
	if err == nil {
		t.Fatal("expected missing entry to fail")
	}
}

func TestParseBothDialectsFail(t *testing.T) {
	_, err := NewParser().Parse("hello world")
	if err == nil {
		t.Fatal("expected parse error")
	}
	var perr *types.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *types.ParseError, got %T", err)
	}
}

func TestParseNonNumericValueSkipped(t *testing.T) {
	// A non-numeric stop loss ends up absent rather than failing the parse.
	text := "EURUSD\nBuy Signal on 15 Minute timeframe\nEntry: 1.1000\nStop Loss: soon\nTake Profit 1: 1.1100\n"

	intent, err := NewParser().Parse(text)
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if intent.StopLoss != 0 {
		t.Errorf("expected absent stop loss to stay zero, got %f", intent.StopLoss)
	}
}

func TestDirectionNormalizeIdempotent(t *testing.T) {
	for _, d := range []types.Direction{types.Buy, types.Sell, types.Long, types.Short, types.Neutral} {
		if d.Normalize() != d.Normalize().Normalize() {
			t.Errorf("normalize not idempotent for %s", d)
		}
	}
	if types.Buy.Normalize() != types.Long {
		t.Error("BUY should normalize to LONG")
	}
	if types.Sell.Normalize() != types.Short {
		t.Error("SELL should normalize to SHORT")
	}
}
