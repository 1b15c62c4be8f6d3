package features

import (
	"fmt"

	"alpharai/internal/bars"
)

// SuperTrend is the classic banded trend follower: basic bands at
// mid ± factor·ATR, carried forward while price stays inside, with the
// active band flipping when close crosses it.
type SuperTrend struct {
	Factor    float64
	ATRPeriod int
}

func NewSuperTrend(factor float64, atrPeriod int) *SuperTrend {
	return &SuperTrend{Factor: factor, ATRPeriod: atrPeriod}
}

func (s *SuperTrend) Slug() string { return "supertrend" }

func (s *SuperTrend) prefix() string {
	return fmt.Sprintf("supertrend_%s_%d", formatParam(s.Factor), s.ATRPeriod)
}

func (s *SuperTrend) ValueColumn() string     { return s.prefix() }
func (s *SuperTrend) DirectionColumn() string { return s.prefix() + "_direction" }

func (s *SuperTrend) Columns() []string {
	return []string{s.ValueColumn(), s.DirectionColumn()}
}

func (s *SuperTrend) FeatureColumns() []string {
	return []string{s.ValueColumn() + "_feature"}
}

func (s *SuperTrend) Add(f *bars.Frame) error {
	if f.HasAll(s.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	atr := NewATR(s.ATRPeriod)
	if err := atr.Add(f); err != nil {
		return err
	}
	atrVals, err := f.Column(atr.column())
	if err != nil {
		return err
	}

	values, direction := computeSuperTrend(f.Highs(), f.Lows(), f.Closes(), atrVals, s.Factor)

	return setColumns(f, map[string][]float64{
		s.ValueColumn():     values,
		s.DirectionColumn(): direction,
	})
}

func (s *SuperTrend) Normalize(f *bars.Frame) error {
	if f.HasAll(s.FeatureColumns()...) {
		return nil
	}
	values, err := f.Column(s.ValueColumn())
	if err != nil {
		return err
	}
	return f.SetColumn(s.ValueColumn()+"_feature", normalizeAgainstClose(values, f.Closes()))
}

// computeSuperTrend runs the band carry-forward and flip logic. The
// direction column is 1 while the trend is up (tracking the lower band) and
// 0 while it is down; the initial direction is up.
func computeSuperTrend(highs, lows, closes, atr []float64, factor float64) (values, direction []float64) {
	n := len(closes)
	values = make([]float64, n)
	direction = make([]float64, n)

	finalUpper := make([]float64, n)
	finalLower := make([]float64, n)
	for i := 0; i < n; i++ {
		mid := (highs[i] + lows[i]) / 2
		basicUpper := mid + factor*atr[i]
		basicLower := mid - factor*atr[i]

		if i == 0 {
			finalUpper[i] = basicUpper
			finalLower[i] = basicLower
			direction[i] = 1
			values[i] = finalLower[i]
			continue
		}

		if closes[i-1] <= finalUpper[i-1] {
			finalUpper[i] = min(basicUpper, finalUpper[i-1])
		} else {
			finalUpper[i] = basicUpper
		}
		if closes[i-1] >= finalLower[i-1] {
			finalLower[i] = max(basicLower, finalLower[i-1])
		} else {
			finalLower[i] = basicLower
		}

		direction[i] = direction[i-1]
		if direction[i-1] == 1 && closes[i] < finalLower[i] {
			direction[i] = 0
		} else if direction[i-1] == 0 && closes[i] > finalUpper[i] {
			direction[i] = 1
		}

		if direction[i] == 1 {
			values[i] = finalLower[i]
		} else {
			values[i] = finalUpper[i]
		}
	}
	return values, direction
}
