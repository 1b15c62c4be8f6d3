package sizing

import (
	"fmt"
	"math"

	"alpharai/internal/types"
)

// tickSemantics carries the per-asset-class tick value and size used to
// convert a stop distance into currency risk per lot.
type tickSemantics struct {
	tickValue func(decimalPoints int) float64
	tickSize  func(decimalPoints int) float64
}

var semanticsByAsset = map[types.AssetType]tickSemantics{
	types.AssetForex: {
		tickValue: func(int) float64 { return 10.0 },
		tickSize:  func(dp int) float64 { return math.Pow(10, float64(-dp+1)) },
	},
	types.AssetCrypto: {
		tickValue: func(int) float64 { return 1.0 },
		tickSize:  func(int) float64 { return 1.0 },
	},
	types.AssetCommodities: {
		tickValue: func(int) float64 { return 1.0 },
		tickSize:  func(dp int) float64 { return math.Pow(10, float64(-dp)) },
	},
	types.AssetStock: {
		tickValue: func(int) float64 { return 1.0 },
		tickSize:  func(int) float64 { return 1.0 },
	},
	types.AssetIndices: {
		tickValue: func(int) float64 { return 1.0 },
		tickSize:  func(int) float64 { return 1.0 },
	},
}

// PositionSize converts a risk budget into lots for one ladder rung.
// riskPercent is percent of balance (0.5 means 0.5%). STOCK lots are floored
// to whole shares; all other asset classes round to two decimals with a
// 0.01 lot floor.
func PositionSize(entry, stopLoss, riskPercent, balance float64, assetType types.AssetType, decimalPoints int, lotSize float64) (float64, error) {
	if entry <= 0 || stopLoss <= 0 {
		return 0, fmt.Errorf("entry and stop loss must be positive, got %f / %f", entry, stopLoss)
	}
	if riskPercent <= 0 {
		return 0, fmt.Errorf("risk percent must be positive, got %f", riskPercent)
	}
	if balance <= 0 {
		return 0, fmt.Errorf("balance must be positive, got %f", balance)
	}
	if lotSize <= 0 {
		return 0, fmt.Errorf("lot size must be positive, got %f", lotSize)
	}
	if decimalPoints < 0 {
		return 0, fmt.Errorf("decimal points must be >= 0, got %d", decimalPoints)
	}

	stopDistance := math.Abs(entry - stopLoss)
	if stopDistance == 0 {
		return 0, fmt.Errorf("entry equals stop loss at %f", entry)
	}

	sem, ok := semanticsByAsset[assetType]
	if !ok {
		return 0, fmt.Errorf("no tick semantics for asset type %q", assetType)
	}

	pipValuePerLot := sem.tickValue(decimalPoints) / sem.tickSize(decimalPoints)
	riskAmount := riskPercent / 100 * balance
	lots := riskAmount / (stopDistance * pipValuePerLot)

	if assetType == types.AssetStock {
		return math.Floor(lots), nil
	}
	return math.Round(math.Max(lots, 0.01)*100) / 100, nil
}
