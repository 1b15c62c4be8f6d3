package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"alpharai/internal/types"
)

// Resolution is the tick spacing of rolling-window metrics.
type Resolution string

const (
	Daily  Resolution = "D"
	Hourly Resolution = "H"
)

func (r Resolution) step() (time.Duration, error) {
	switch r {
	case Daily:
		return 24 * time.Hour, nil
	case Hourly:
		return time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown aggregation resolution %q", r)
	}
}

// Dimension is one grouping axis over closed trades.
type Dimension string

const (
	ByAccount   Dimension = "account_id"
	BySymbol    Dimension = "symbol"
	ByAssetType Dimension = "asset_type"
	ByDirection Dimension = "direction"
	ByHour      Dimension = "hour"
	ByWeekday   Dimension = "weekday"
)

// Row is one output row of a metric: a tick, a group assignment and the
// metric's named values.
type Row struct {
	Tick   time.Time
	Group  map[Dimension]string
	Values map[string]float64
}

// Metric is the shared contract of every trade-history aggregate.
type Metric interface {
	Calculate(trades []types.TradeRecord, groupBy []Dimension, rollingWindow int, aggregation Resolution) ([]Row, error)
}

// dimensionValue extracts a trade's value on one grouping axis. Hour and
// weekday refer to the trade's open time.
func dimensionValue(t types.TradeRecord, dim Dimension) string {
	switch dim {
	case ByAccount:
		return t.AccountID
	case BySymbol:
		return t.Symbol
	case ByAssetType:
		return string(ClassifyAsset(t.Symbol))
	case ByDirection:
		return string(t.Direction.Normalize())
	case ByHour:
		return fmt.Sprintf("%02d", t.OpenedAt.UTC().Hour())
	case ByWeekday:
		return t.OpenedAt.UTC().Weekday().String()
	default:
		return ""
	}
}

func groupOf(t types.TradeRecord, dims []Dimension) map[Dimension]string {
	out := make(map[Dimension]string, len(dims))
	for _, d := range dims {
		out[d] = dimensionValue(t, d)
	}
	return out
}

func groupKey(g map[Dimension]string, dims []Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = g[d]
	}
	return strings.Join(parts, "|")
}

// groupCombinations is the full cross product of observed values per
// dimension. Windowed metrics emit a row for every combination in every
// tick, zero-filled where the slice is empty, so downstream graphs stay
// dense.
func groupCombinations(trades []types.TradeRecord, dims []Dimension) []map[Dimension]string {
	if len(dims) == 0 {
		return []map[Dimension]string{{}}
	}

	valuesPerDim := make([][]string, len(dims))
	for i, d := range dims {
		seen := map[string]bool{}
		var values []string
		for _, t := range trades {
			v := dimensionValue(t, d)
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		sort.Strings(values)
		valuesPerDim[i] = values
	}

	combos := []map[Dimension]string{{}}
	for i, d := range dims {
		var next []map[Dimension]string
		for _, combo := range combos {
			for _, v := range valuesPerDim[i] {
				extended := make(map[Dimension]string, len(combo)+1)
				for k, val := range combo {
					extended[k] = val
				}
				extended[d] = v
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

// InitialBalances sums DEPOSIT events per account.
func InitialBalances(trades []types.TradeRecord) map[string]float64 {
	out := map[string]float64{}
	for _, t := range trades {
		if t.Event == types.EventDeposit {
			out[t.AccountID] += t.Profit
		}
	}
	return out
}

// nonDeposits filters out balance events, which never contribute to profit
// or return sums.
func nonDeposits(trades []types.TradeRecord) []types.TradeRecord {
	out := make([]types.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if t.Event != types.EventDeposit {
			out = append(out, t)
		}
	}
	return out
}

func sortedByClose(trades []types.TradeRecord) []types.TradeRecord {
	out := make([]types.TradeRecord, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClosedAt.Before(out[j].ClosedAt) })
	return out
}

// ClassifyAsset derives a coarse asset class from a symbol name. Used only
// for the asset_type grouping axis.
func ClassifyAsset(symbol string) types.AssetType {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, "USDT") || strings.Contains(s, "BTC") || strings.Contains(s, "ETH"):
		return types.AssetCrypto
	case strings.HasPrefix(s, "XAU") || strings.HasPrefix(s, "XAG") || strings.HasPrefix(s, "WTI"):
		return types.AssetCommodities
	case len(s) == 6 && isAlpha(s):
		return types.AssetForex
	case strings.HasSuffix(s, "100") || strings.HasSuffix(s, "500") || strings.HasSuffix(s, "30"):
		return types.AssetIndices
	default:
		return types.AssetUnknown
	}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
