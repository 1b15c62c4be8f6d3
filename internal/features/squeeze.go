package features

import (
	"fmt"
	"math"

	"alpharai/internal/bars"
)

// SqueezeMomentum flags Bollinger-inside-Keltner squeezes and scores
// momentum as the linear-regression endpoint of close minus a blended
// midline. Depends on BollingerBands and KeltnerChannel by composition.
type SqueezeMomentum struct {
	BBLength int
	BBMult   float64
	KCLength int
	KCMult   float64
	Window   int
}

func NewSqueezeMomentum(bbLength int, bbMult float64, kcLength int, kcMult float64, window int) *SqueezeMomentum {
	return &SqueezeMomentum{
		BBLength: bbLength, BBMult: bbMult,
		KCLength: kcLength, KCMult: kcMult,
		Window: window,
	}
}

func (s *SqueezeMomentum) Slug() string { return "squeeze_momentum" }

func (s *SqueezeMomentum) prefix() string {
	return fmt.Sprintf("sqz_%d_%s_%d_%s_%d",
		s.BBLength, formatParam(s.BBMult), s.KCLength, formatParam(s.KCMult), s.Window)
}

func (s *SqueezeMomentum) OnColumn() string       { return s.prefix() + "_on" }
func (s *SqueezeMomentum) OffColumn() string      { return s.prefix() + "_off" }
func (s *SqueezeMomentum) NoneColumn() string     { return s.prefix() + "_none" }
func (s *SqueezeMomentum) MomentumColumn() string { return s.prefix() + "_momentum" }

func (s *SqueezeMomentum) Columns() []string {
	return []string{s.OnColumn(), s.OffColumn(), s.NoneColumn(), s.MomentumColumn()}
}

func (s *SqueezeMomentum) FeatureColumns() []string {
	return []string{s.MomentumColumn() + "_feature"}
}

func (s *SqueezeMomentum) Add(f *bars.Frame) error {
	if f.HasAll(s.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	bb := NewBollingerBands(s.BBLength, s.BBMult)
	kc := NewKeltnerChannel(s.KCLength, s.KCMult)
	if err := bb.Add(f); err != nil {
		return err
	}
	if err := kc.Add(f); err != nil {
		return err
	}

	bbUpper, _ := f.Column(bb.UpperColumn())
	bbLower, _ := f.Column(bb.LowerColumn())
	kcUpper, _ := f.Column(kc.UpperColumn())
	kcLower, _ := f.Column(kc.LowerColumn())

	n := f.Len()
	on := make([]float64, n)
	off := make([]float64, n)
	none := make([]float64, n)
	for i := 0; i < n; i++ {
		sqzOn := bbLower[i] > kcLower[i] && bbUpper[i] < kcUpper[i]
		sqzOff := bbLower[i] < kcLower[i] && bbUpper[i] > kcUpper[i]
		on[i] = boolToFloat(sqzOn)
		off[i] = boolToFloat(sqzOff)
		none[i] = boolToFloat(!sqzOn && !sqzOff)
	}

	// Momentum source: close minus the mean of the Donchian midline and the
	// rolling mean close.
	highs, lows, closes := f.Highs(), f.Lows(), f.Closes()
	maxHigh := rollingMax(highs, s.Window)
	minLow := rollingMin(lows, s.Window)
	meanClose := rollingMean(closes, s.Window)
	source := make([]float64, n)
	for i := 0; i < n; i++ {
		donchianMid := 0.5 * (maxHigh[i] + minLow[i])
		source[i] = closes[i] - 0.5*(donchianMid+meanClose[i])
	}
	momentum := rollingApply(source, s.Window, linregEndpoint)

	return setColumns(f, map[string][]float64{
		s.OnColumn():       on,
		s.OffColumn():      off,
		s.NoneColumn():     none,
		s.MomentumColumn(): momentum,
	})
}

func (s *SqueezeMomentum) Normalize(f *bars.Frame) error {
	if f.HasAll(s.FeatureColumns()...) {
		return nil
	}
	momentum, err := f.Column(s.MomentumColumn())
	if err != nil {
		return err
	}
	closes := f.Closes()
	out := nanSlice(len(momentum))
	for i := range momentum {
		if closes[i] != 0 && !math.IsNaN(momentum[i]) {
			out[i] = momentum[i] / closes[i]
		}
	}
	return f.SetColumn(s.MomentumColumn()+"_feature", out)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
