package features

import (
	"fmt"

	"alpharai/internal/bars"
)

// KeltnerChannel is an EMA of close with bands at Mult times the ATR of the
// same length. The ATR dependency is expressed by composition; idempotence
// on the ATR columns makes the call order irrelevant.
type KeltnerChannel struct {
	Length int
	Mult   float64
}

func NewKeltnerChannel(length int, mult float64) *KeltnerChannel {
	return &KeltnerChannel{Length: length, Mult: mult}
}

func (k *KeltnerChannel) Slug() string { return "keltner_channel" }

func (k *KeltnerChannel) prefix() string {
	return fmt.Sprintf("kc_%d_%s", k.Length, formatParam(k.Mult))
}

func (k *KeltnerChannel) midColumn() string   { return k.prefix() + "_mid" }
func (k *KeltnerChannel) UpperColumn() string { return k.prefix() + "_upper" }
func (k *KeltnerChannel) LowerColumn() string { return k.prefix() + "_lower" }

func (k *KeltnerChannel) Columns() []string {
	return []string{k.midColumn(), k.UpperColumn(), k.LowerColumn()}
}

func (k *KeltnerChannel) FeatureColumns() []string {
	return []string{k.UpperColumn() + "_feature", k.LowerColumn() + "_feature"}
}

func (k *KeltnerChannel) Add(f *bars.Frame) error {
	if f.HasAll(k.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	atr := NewATR(k.Length)
	if err := atr.Add(f); err != nil {
		return err
	}
	atrVals, err := f.Column(atr.column())
	if err != nil {
		return err
	}

	mid := emaSpan(f.Closes(), k.Length)
	upper := make([]float64, len(mid))
	lower := make([]float64, len(mid))
	for i := range mid {
		upper[i] = mid[i] + k.Mult*atrVals[i]
		lower[i] = mid[i] - k.Mult*atrVals[i]
	}

	return setColumns(f, map[string][]float64{
		k.midColumn():   mid,
		k.UpperColumn(): upper,
		k.LowerColumn(): lower,
	})
}

func (k *KeltnerChannel) Normalize(f *bars.Frame) error {
	if f.HasAll(k.FeatureColumns()...) {
		return nil
	}
	closes := f.Closes()
	upper, err := f.Column(k.UpperColumn())
	if err != nil {
		return err
	}
	lower, err := f.Column(k.LowerColumn())
	if err != nil {
		return err
	}
	if err := f.SetColumn(k.UpperColumn()+"_feature", normalizeAgainstClose(upper, closes)); err != nil {
		return err
	}
	return f.SetColumn(k.LowerColumn()+"_feature", normalizeAgainstClose(lower, closes))
}
