package history

import (
	"math"
	"testing"
	"time"

	"alpharai/internal/types"
)

func day(d int, hour int) time.Time {
	return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC)
}

func sampleTrades() []types.TradeRecord {
	return []types.TradeRecord{
		{AccountID: "acc1", Event: types.EventDeposit, Profit: 10000, OpenedAt: day(1, 0), ClosedAt: day(1, 0)},
		{AccountID: "acc2", Event: types.EventDeposit, Profit: 5000, OpenedAt: day(1, 0), ClosedAt: day(1, 0)},
		{AccountID: "acc1", Symbol: "EURUSD", Direction: types.Long, Event: types.EventTrade,
			OpenedAt: day(1, 9), ClosedAt: day(1, 15), Profit: 120, Commission: -2, Swap: -1},
		{AccountID: "acc1", Symbol: "EURUSD", Direction: types.Short, Event: types.EventTrade,
			OpenedAt: day(2, 10), ClosedAt: day(2, 18), Profit: -60, Commission: -2, Swap: 0},
		{AccountID: "acc1", Symbol: "XAUUSD", Direction: types.Long, Event: types.EventTrade,
			OpenedAt: day(4, 11), ClosedAt: day(5, 12), Profit: 300, Commission: -3, Swap: -2},
		{AccountID: "acc2", Symbol: "EURUSD", Direction: types.Long, Event: types.EventTrade,
			OpenedAt: day(3, 9), ClosedAt: day(3, 10), Profit: 80, Commission: -1, Swap: 0},
	}
}

func TestInitialBalances(t *testing.T) {
	balances := InitialBalances(sampleTrades())
	if balances["acc1"] != 10000 {
		t.Errorf("acc1 initial balance: got %f want 10000", balances["acc1"])
	}
	if balances["acc2"] != 5000 {
		t.Errorf("acc2 initial balance: got %f want 5000", balances["acc2"])
	}
}

func TestRollingWindowsCoverTickRange(t *testing.T) {
	trades := nonDeposits(sampleTrades())
	windows, err := GetRollingWindows(trades, 2, Daily, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// min(open) = Mar 1, max(close) = Mar 5 12:00 -> ticks Mar 1 .. Mar 6.
	if len(windows) == 0 {
		t.Fatal("expected windows")
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].Tick.Sub(windows[i-1].Tick) != 24*time.Hour {
			t.Fatalf("ticks not contiguous at %d", i)
		}
	}
	first := windows[0].Tick
	if first != day(1, 0) {
		t.Errorf("first tick: got %v want %v", first, day(1, 0))
	}
	// Every trade must be inside the slice of the tick right after close.
	for _, w := range windows {
		for _, tr := range w.Trades {
			if tr.ClosedAt.After(w.Tick) {
				t.Errorf("trade closed %v leaked into window tick %v", tr.ClosedAt, w.Tick)
			}
		}
	}
}

func TestRollingWindowsSkipHead(t *testing.T) {
	trades := nonDeposits(sampleTrades())
	full, _ := GetRollingWindows(trades, 2, Daily, false)
	skipped, _ := GetRollingWindows(trades, 2, Daily, true)
	if len(skipped) != len(full)-2 {
		t.Errorf("skip_head should drop the first 2 ticks: %d vs %d", len(skipped), len(full))
	}
}

func TestBalanceOverTimeEndingBalance(t *testing.T) {
	trades := sampleTrades()
	rows, err := NewBalanceOverTime().Calculate(trades, []Dimension{ByAccount}, 0, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ending absolute balance per account equals initial + sum of net
	// profits over non-deposit rows.
	last := map[string]float64{}
	for _, r := range rows {
		last[r.Group[ByAccount]] = r.Values["absolute_balance"]
	}
	want1 := 10000.0 + (120 - 2 - 1) + (-60 - 2) + (300 - 3 - 2)
	if math.Abs(last["acc1"]-want1) > 1e-9 {
		t.Errorf("acc1 ending balance: got %f want %f", last["acc1"], want1)
	}
	want2 := 5000.0 + (80 - 1)
	if math.Abs(last["acc2"]-want2) > 1e-9 {
		t.Errorf("acc2 ending balance: got %f want %f", last["acc2"], want2)
	}

	for _, r := range rows {
		if r.Values["relative_baseline"] != 100 {
			t.Errorf("relative baseline must be 100, got %f", r.Values["relative_baseline"])
		}
	}
}

func TestBalanceRowsPerTrade(t *testing.T) {
	trades := sampleTrades()
	rows, _ := NewBalanceOverTime().Calculate(trades, nil, 0, Daily)
	if len(rows) != 4 {
		t.Errorf("cumulative balance should emit one row per non-deposit trade, got %d", len(rows))
	}
}

func TestExpectancyWindowLattice(t *testing.T) {
	trades := sampleTrades()
	groupBy := []Dimension{ByAccount, ByDirection}
	rows, err := NewExpectancyOverTime().Calculate(trades, groupBy, 3, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	windows, _ := GetRollingWindows(nonDeposits(trades), 3, Daily, false)
	combos := groupCombinations(nonDeposits(trades), groupBy)
	if len(rows) != len(windows)*len(combos) {
		t.Errorf("expected %d rows (%d windows x %d combos), got %d",
			len(windows)*len(combos), len(windows), len(combos), len(rows))
	}
}

func TestExpectancyFormula(t *testing.T) {
	trades := sampleTrades()
	rows, err := NewExpectancyOverTime().Calculate(trades, nil, 30, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The last window spans every trade: 3 wins (120, 300, 80), 1 loss (-60).
	last := rows[len(rows)-1].Values
	if math.Abs(last["win_rate"]-0.75) > 1e-9 {
		t.Errorf("win rate: got %f want 0.75", last["win_rate"])
	}
	wantAvgWin := (120.0 + 300.0 + 80.0) / 3
	if math.Abs(last["avg_win"]-wantAvgWin) > 1e-9 {
		t.Errorf("avg win: got %f want %f", last["avg_win"], wantAvgWin)
	}
	if math.Abs(last["avg_loss"]-60) > 1e-9 {
		t.Errorf("avg loss: got %f want 60", last["avg_loss"])
	}
	wantExpectancy := 0.75*wantAvgWin - 0.25*60
	if math.Abs(last["expectancy"]-wantExpectancy) > 1e-9 {
		t.Errorf("expectancy: got %f want %f", last["expectancy"], wantExpectancy)
	}
}

func TestFeesCumulative(t *testing.T) {
	trades := sampleTrades()
	rows, err := NewFeesOverTime(true).Calculate(trades, nil, 0, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected one row per trade, got %d", len(rows))
	}
	last := rows[len(rows)-1].Values
	if math.Abs(last["commission"]-(-8)) > 1e-9 {
		t.Errorf("cumulative commission: got %f want -8", last["commission"])
	}
	if math.Abs(last["fees"]-(-11)) > 1e-9 {
		t.Errorf("cumulative fees: got %f want -11", last["fees"])
	}
}

func TestFeesWindowedZeroFill(t *testing.T) {
	trades := sampleTrades()
	groupBy := []Dimension{BySymbol}
	rows, err := NewFeesOverTime(false).Calculate(trades, groupBy, 1, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	windows, _ := GetRollingWindows(nonDeposits(trades), 1, Daily, false)
	// Two symbols -> every tick emits exactly two rows, zero-filled.
	if len(rows) != len(windows)*2 {
		t.Fatalf("expected %d rows, got %d", len(windows)*2, len(rows))
	}
	seenZero := false
	for _, r := range rows {
		if r.Values["fees"] == 0 {
			seenZero = true
		}
	}
	if !seenZero {
		t.Error("expected zero-filled rows for empty group slices")
	}
}

func TestProfitFactor(t *testing.T) {
	trades := sampleTrades()
	rows, err := NewProfitFactorOverTime().Calculate(trades, nil, 30, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := rows[len(rows)-1].Values
	want := (120.0 + 300.0 + 80.0) / 60.0
	if math.Abs(last["profit_factor"]-want) > 1e-9 {
		t.Errorf("profit factor: got %f want %f", last["profit_factor"], want)
	}
}

func TestSharpeSortinoOverTrades(t *testing.T) {
	trades := sampleTrades()
	sharpe, err := NewSharpeOverTime().Calculate(trades, nil, 30, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := sharpe[len(sharpe)-1].Values
	if last["trades"] != 4 {
		t.Errorf("expected 4 trades in the widest window, got %f", last["trades"])
	}
	if last["sharpe"] == 0 {
		t.Error("expected nonzero sharpe over mixed profits")
	}

	sortino, err := NewSortinoOverTime().Calculate(trades, nil, 30, Daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only one losing trade -> downside deviation undefined -> 0.
	lastSortino := sortino[len(sortino)-1].Values
	if lastSortino["sortino"] != 0 {
		t.Errorf("single loss should yield zero sortino, got %f", lastSortino["sortino"])
	}
}

func TestClassifyAsset(t *testing.T) {
	cases := map[string]types.AssetType{
		"EURUSD":  types.AssetForex,
		"BTCUSDT": types.AssetCrypto,
		"XAUUSD":  types.AssetCommodities,
		"US500":   types.AssetIndices,
		"ZZZ":     types.AssetUnknown,
	}
	for symbol, want := range cases {
		if got := ClassifyAsset(symbol); got != want {
			t.Errorf("ClassifyAsset(%s) = %s, want %s", symbol, got, want)
		}
	}
}
