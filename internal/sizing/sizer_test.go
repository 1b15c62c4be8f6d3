package sizing

import (
	"math"
	"testing"

	"alpharai/internal/types"
)

func TestForexSizing(t *testing.T) {
	// 1% of 10000 = 100 risked; stop distance 0.0050 at a pip value of
	// 10/1e-4 = 100000 per lot gives 0.2 lots.
	lots, err := PositionSize(1.1000, 1.0950, 1.0, 10000, types.AssetForex, 5, 100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lots-0.2) > 1e-9 {
		t.Errorf("expected 0.2 lots, got %f", lots)
	}
}

func TestStockSizingFloorsToInteger(t *testing.T) {
	lots, err := PositionSize(150, 145, 1.0, 10000, types.AssetStock, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lots != math.Floor(lots) {
		t.Errorf("stock lots must be whole, got %f", lots)
	}
	// 100 / (5 * 1) = 20 shares.
	if lots != 20 {
		t.Errorf("expected 20 shares, got %f", lots)
	}
}

func TestCryptoSizing(t *testing.T) {
	lots, err := PositionSize(40000, 39000, 2.0, 50000, types.AssetCrypto, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000 / (1000 * 1) = 1.0
	if math.Abs(lots-1.0) > 1e-9 {
		t.Errorf("expected 1.0 lots, got %f", lots)
	}
}

func TestMinimumLotFloor(t *testing.T) {
	// A tiny risk budget still yields the 0.01 minimum for non-stock assets.
	lots, err := PositionSize(1.1000, 1.0000, 0.001, 100, types.AssetForex, 5, 100000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lots != 0.01 {
		t.Errorf("expected 0.01 lot floor, got %f", lots)
	}
}

func TestRejectsBadInputs(t *testing.T) {
	cases := []struct {
		name                            string
		entry, stop, risk, balance, lot float64
		asset                           types.AssetType
		decimals                        int
	}{
		{"zero entry", 0, 1.09, 1, 1000, 100000, types.AssetForex, 5},
		{"zero risk", 1.1, 1.09, 0, 1000, 100000, types.AssetForex, 5},
		{"negative balance", 1.1, 1.09, 1, -1, 100000, types.AssetForex, 5},
		{"entry equals stop", 1.1, 1.1, 1, 1000, 100000, types.AssetForex, 5},
		{"unknown asset", 1.1, 1.09, 1, 1000, 100000, types.AssetUnknown, 5},
		{"negative decimals", 1.1, 1.09, 1, 1000, 100000, types.AssetForex, -1},
	}
	for _, tc := range cases {
		if _, err := PositionSize(tc.entry, tc.stop, tc.risk, tc.balance, tc.asset, tc.decimals, tc.lot); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
