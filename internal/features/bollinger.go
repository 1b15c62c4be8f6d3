package features

import (
	"fmt"

	"alpharai/internal/bars"
)

// BollingerBands is a rolling mean of close with bands at Mult standard
// deviations.
type BollingerBands struct {
	Length int
	Mult   float64
}

func NewBollingerBands(length int, mult float64) *BollingerBands {
	return &BollingerBands{Length: length, Mult: mult}
}

func (b *BollingerBands) Slug() string { return "bollinger_bands" }

func (b *BollingerBands) prefix() string {
	return fmt.Sprintf("bb_%d_%s", b.Length, formatParam(b.Mult))
}

func (b *BollingerBands) midColumn() string   { return b.prefix() + "_mid" }
func (b *BollingerBands) UpperColumn() string { return b.prefix() + "_upper" }
func (b *BollingerBands) LowerColumn() string { return b.prefix() + "_lower" }

func (b *BollingerBands) Columns() []string {
	return []string{b.midColumn(), b.UpperColumn(), b.LowerColumn()}
}

func (b *BollingerBands) FeatureColumns() []string {
	return []string{b.UpperColumn() + "_feature", b.LowerColumn() + "_feature"}
}

func (b *BollingerBands) Add(f *bars.Frame) error {
	if f.HasAll(b.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	closes := f.Closes()
	mid := rollingMean(closes, b.Length)
	sd := rollingStd(closes, b.Length)
	upper := make([]float64, len(mid))
	lower := make([]float64, len(mid))
	for i := range mid {
		upper[i] = mid[i] + b.Mult*sd[i]
		lower[i] = mid[i] - b.Mult*sd[i]
	}

	return setColumns(f, map[string][]float64{
		b.midColumn():   mid,
		b.UpperColumn(): upper,
		b.LowerColumn(): lower,
	})
}

func (b *BollingerBands) Normalize(f *bars.Frame) error {
	if f.HasAll(b.FeatureColumns()...) {
		return nil
	}
	closes := f.Closes()
	upper, err := f.Column(b.UpperColumn())
	if err != nil {
		return err
	}
	lower, err := f.Column(b.LowerColumn())
	if err != nil {
		return err
	}
	if err := f.SetColumn(b.UpperColumn()+"_feature", normalizeAgainstClose(upper, closes)); err != nil {
		return err
	}
	return f.SetColumn(b.LowerColumn()+"_feature", normalizeAgainstClose(lower, closes))
}
