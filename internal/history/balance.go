package history

import (
	"alpharai/internal/types"
)

// BalanceOverTime accumulates net profit (profit + commission + swap) per
// group on top of each account's initial balance, one row per closed trade.
// DEPOSIT rows establish the initial balance and are excluded from the
// cumulative sum.
type BalanceOverTime struct{}

func NewBalanceOverTime() *BalanceOverTime { return &BalanceOverTime{} }

// Calculate ignores the rolling window: balance is inherently cumulative.
func (m *BalanceOverTime) Calculate(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error) {
	initial := InitialBalances(trades)
	ordered := sortedByClose(nonDeposits(trades))

	cumByGroup := map[string]float64{}
	var out []Row
	for _, t := range ordered {
		group := groupOf(t, groupBy)
		key := groupKey(group, groupBy)
		cumByGroup[key] += t.NetProfit()

		// The group's balance baseline is the account's initial balance;
		// without account grouping it is the sum across accounts.
		base := 0.0
		if contains(groupBy, ByAccount) {
			base = initial[t.AccountID]
		} else {
			for _, v := range initial {
				base += v
			}
		}

		absolute := base + cumByGroup[key]
		relative := 100.0
		if base != 0 {
			relative = 100 + (absolute-base)/base*100
		}

		out = append(out, Row{
			Tick:  t.ClosedAt,
			Group: group,
			Values: map[string]float64{
				"initial_balance":   base,
				"absolute_balance":  absolute,
				"relative_balance":  relative,
				"relative_baseline": 100,
			},
		})
	}
	return out, nil
}

func contains(dims []Dimension, want Dimension) bool {
	for _, d := range dims {
		if d == want {
			return true
		}
	}
	return false
}
