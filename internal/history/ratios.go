package history

import (
	"math"

	"alpharai/internal/types"
)

// ProfitFactorOverTime computes gross wins over gross losses per rolling
// window and group combination. No losses in a window with wins present
// yields +Inf capped to a large sentinel so tables stay plottable.
type ProfitFactorOverTime struct{}

func NewProfitFactorOverTime() *ProfitFactorOverTime { return &ProfitFactorOverTime{} }

const profitFactorCap = 1000.0

func (m *ProfitFactorOverTime) Calculate(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error) {
	return windowedMetric(trades, groupBy, rollingWindow, aggregation, func(slice []types.TradeRecord) map[string]float64 {
		var grossWin, grossLoss float64
		for _, t := range slice {
			if t.Profit > 0 {
				grossWin += t.Profit
			} else {
				grossLoss += -t.Profit
			}
		}
		pf := 0.0
		switch {
		case grossLoss > 0:
			pf = math.Min(grossWin/grossLoss, profitFactorCap)
		case grossWin > 0:
			pf = profitFactorCap
		}
		return map[string]float64{
			"gross_win":     grossWin,
			"gross_loss":    grossLoss,
			"profit_factor": pf,
		}
	})
}

// SharpeOverTime computes the mean over standard deviation of per-trade net
// profits in each rolling window; SortinoOverTime restricts the deviation
// to losing trades.
type SharpeOverTime struct{}

func NewSharpeOverTime() *SharpeOverTime { return &SharpeOverTime{} }

func (m *SharpeOverTime) Calculate(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error) {
	return windowedMetric(trades, groupBy, rollingWindow, aggregation, func(slice []types.TradeRecord) map[string]float64 {
		profits := netProfits(slice)
		return map[string]float64{
			"trades": float64(len(slice)),
			"sharpe": ratioOf(profits, profits),
		}
	})
}

type SortinoOverTime struct{}

func NewSortinoOverTime() *SortinoOverTime { return &SortinoOverTime{} }

func (m *SortinoOverTime) Calculate(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error) {
	return windowedMetric(trades, groupBy, rollingWindow, aggregation, func(slice []types.TradeRecord) map[string]float64 {
		profits := netProfits(slice)
		var negatives []float64
		for _, p := range profits {
			if p < 0 {
				negatives = append(negatives, p)
			}
		}
		return map[string]float64{
			"trades":  float64(len(slice)),
			"sortino": ratioOf(profits, negatives),
		}
	})
}

func netProfits(slice []types.TradeRecord) []float64 {
	out := make([]float64, len(slice))
	for i, t := range slice {
		out[i] = t.NetProfit()
	}
	return out
}

// ratioOf is mean(values) / std(denomValues), zero when undefined.
func ratioOf(values, denomValues []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := meanOf(values)
	sd := stdOf(denomValues)
	if sd == 0 {
		return 0
	}
	return m / sd
}

func stdOf(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := meanOf(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// windowedMetric runs the shared window/group scaffolding: every tick gets
// one row per expected group combination, aggregated by fn over the slice.
func windowedMetric(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution, fn func([]types.TradeRecord) map[string]float64) ([]Row, error) {
	tradeable := nonDeposits(trades)
	windows, err := GetRollingWindows(tradeable, rollingWindow, aggregation, false)
	if err != nil {
		return nil, err
	}
	combos := groupCombinations(tradeable, groupBy)

	var out []Row
	for _, w := range windows {
		byKey := map[string][]types.TradeRecord{}
		for _, t := range w.Trades {
			key := groupKey(groupOf(t, groupBy), groupBy)
			byKey[key] = append(byKey[key], t)
		}
		for _, combo := range combos {
			slice := byKey[groupKey(combo, groupBy)]
			out = append(out, Row{Tick: w.Tick, Group: combo, Values: fn(slice)})
		}
	}
	return out, nil
}
