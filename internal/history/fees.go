package history

import (
	"alpharai/internal/types"
)

// FeesOverTime reports commission, swap and their sum either cumulatively
// (one row per trade, running totals per group) or per rolling window (one
// row per tick and group combination, zero-filled where the slice is empty).
type FeesOverTime struct {
	Cumulative bool
}

func NewFeesOverTime(cumulative bool) *FeesOverTime {
	return &FeesOverTime{Cumulative: cumulative}
}

func (m *FeesOverTime) Calculate(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error) {
	tradeable := nonDeposits(trades)
	if m.Cumulative {
		return m.cumulative(tradeable, groupBy), nil
	}
	return m.windowed(tradeable, groupBy, rollingWindow, aggregation)
}

func (m *FeesOverTime) cumulative(trades []types.TradeRecord, groupBy []Dimension) []Row {
	type running struct{ commission, swap float64 }
	totals := map[string]*running{}

	var out []Row
	for _, t := range sortedByClose(trades) {
		group := groupOf(t, groupBy)
		key := groupKey(group, groupBy)
		r, ok := totals[key]
		if !ok {
			r = &running{}
			totals[key] = r
		}
		r.commission += t.Commission
		r.swap += t.Swap

		out = append(out, Row{
			Tick:  t.ClosedAt,
			Group: group,
			Values: map[string]float64{
				"commission": r.commission,
				"swap":       r.swap,
				"fees":       r.commission + r.swap,
			},
		})
	}
	return out
}

func (m *FeesOverTime) windowed(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error) {
	windows, err := GetRollingWindows(trades, rollingWindow, aggregation, false)
	if err != nil {
		return nil, err
	}
	combos := groupCombinations(trades, groupBy)

	var out []Row
	for _, w := range windows {
		sums := map[string]*Row{}
		for _, combo := range combos {
			key := groupKey(combo, groupBy)
			sums[key] = &Row{
				Tick:  w.Tick,
				Group: combo,
				Values: map[string]float64{
					"commission": 0,
					"swap":       0,
					"fees":       0,
				},
			}
		}
		for _, t := range w.Trades {
			key := groupKey(groupOf(t, groupBy), groupBy)
			if row, ok := sums[key]; ok {
				row.Values["commission"] += t.Commission
				row.Values["swap"] += t.Swap
				row.Values["fees"] += t.Commission + t.Swap
			}
		}
		for _, combo := range combos {
			out = append(out, *sums[groupKey(combo, groupBy)])
		}
	}
	return out, nil
}
