package features

import (
	"fmt"
	"math"

	"alpharai/internal/bars"
)

// ATR is the exponentially smoothed Average True Range.
type ATR struct {
	Period int
}

func NewATR(period int) *ATR { return &ATR{Period: period} }

func (a *ATR) Slug() string { return "atr" }

func (a *ATR) column() string { return fmt.Sprintf("atr_%d", a.Period) }

func (a *ATR) Columns() []string { return []string{a.column()} }

func (a *ATR) FeatureColumns() []string { return []string{a.column() + "_feature"} }

// Add computes True Range and its EMA with span Period.
func (a *ATR) Add(f *bars.Frame) error {
	if f.HasAll(a.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	highs, lows, closes := f.Highs(), f.Lows(), f.Closes()
	tr := make([]float64, f.Len())
	for i := range tr {
		hl := highs[i] - lows[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	return f.SetColumn(a.column(), emaSpan(tr, a.Period))
}

// Normalize adds ATR relative to close.
func (a *ATR) Normalize(f *bars.Frame) error {
	if f.HasAll(a.FeatureColumns()...) {
		return nil
	}
	atr, err := f.Column(a.column())
	if err != nil {
		return err
	}
	closes := f.Closes()
	out := nanSlice(len(atr))
	for i := range atr {
		if closes[i] != 0 {
			out[i] = atr[i] / closes[i]
		}
	}
	return f.SetColumn(a.column()+"_feature", out)
}
