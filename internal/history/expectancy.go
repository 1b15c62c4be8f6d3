package history

import (
	"math"

	"alpharai/internal/types"
)

// ExpectancyOverTime computes, per rolling window and group combination,
// the win rate, average win, average loss and the resulting expectancy per
// trade, absolute and relative to initial balance.
type ExpectancyOverTime struct{}

func NewExpectancyOverTime() *ExpectancyOverTime { return &ExpectancyOverTime{} }

func (m *ExpectancyOverTime) Calculate(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error) {
	initial := InitialBalances(trades)
	tradeable := nonDeposits(trades)

	windows, err := GetRollingWindows(tradeable, rollingWindow, aggregation, false)
	if err != nil {
		return nil, err
	}
	combos := groupCombinations(tradeable, groupBy)

	totalInitial := 0.0
	for _, v := range initial {
		totalInitial += v
	}

	var out []Row
	for _, w := range windows {
		byKey := map[string][]types.TradeRecord{}
		for _, t := range w.Trades {
			key := groupKey(groupOf(t, groupBy), groupBy)
			byKey[key] = append(byKey[key], t)
		}

		for _, combo := range combos {
			key := groupKey(combo, groupBy)
			slice := byKey[key]

			values := map[string]float64{
				"trades":         float64(len(slice)),
				"win_rate":       0,
				"avg_win":        0,
				"avg_loss":       0,
				"expectancy":     0,
				"expectancy_pct": 0,
			}

			if len(slice) > 0 {
				var wins, losses []float64
				for _, t := range slice {
					if t.Profit > 0 {
						wins = append(wins, t.Profit)
					} else if t.Profit < 0 {
						losses = append(losses, t.Profit)
					}
				}
				winRate := float64(len(wins)) / float64(len(slice))
				avgWin := meanOf(wins)
				avgLoss := math.Abs(meanOf(losses))
				expectancy := winRate*avgWin - (1-winRate)*avgLoss

				values["win_rate"] = winRate
				values["avg_win"] = avgWin
				values["avg_loss"] = avgLoss
				values["expectancy"] = expectancy

				base := totalInitial
				if acc, ok := combo[ByAccount]; ok {
					base = initial[acc]
				}
				if base != 0 {
					values["expectancy_pct"] = expectancy / base
				}
			}

			out = append(out, Row{Tick: w.Tick, Group: combo, Values: values})
		}
	}
	return out, nil
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
