package features

import "alpharai/internal/bars"

// HeikinAshi adds the smoothed candle representation.
type HeikinAshi struct{}

func NewHeikinAshi() *HeikinAshi { return &HeikinAshi{} }

func (h *HeikinAshi) Slug() string { return "heikin_ashi" }

func (h *HeikinAshi) Columns() []string {
	return []string{"ha_open", "ha_high", "ha_low", "ha_close"}
}

func (h *HeikinAshi) FeatureColumns() []string {
	return []string{"ha_open_feature", "ha_close_feature"}
}

func (h *HeikinAshi) Add(f *bars.Frame) error {
	if f.HasAll(h.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	opens, highs, lows, closes := f.Opens(), f.Highs(), f.Lows(), f.Closes()
	n := f.Len()
	haOpen := make([]float64, n)
	haHigh := make([]float64, n)
	haLow := make([]float64, n)
	haClose := make([]float64, n)

	for i := 0; i < n; i++ {
		haClose[i] = (opens[i] + highs[i] + lows[i] + closes[i]) / 4
		if i == 0 {
			haOpen[i] = (opens[i] + closes[i]) / 2
		} else {
			haOpen[i] = (haOpen[i-1] + haClose[i-1]) / 2
		}
		haHigh[i] = max(highs[i], max(haOpen[i], haClose[i]))
		haLow[i] = min(lows[i], min(haOpen[i], haClose[i]))
	}

	return setColumns(f, map[string][]float64{
		"ha_open":  haOpen,
		"ha_high":  haHigh,
		"ha_low":   haLow,
		"ha_close": haClose,
	})
}

func (h *HeikinAshi) Normalize(f *bars.Frame) error {
	if f.HasAll(h.FeatureColumns()...) {
		return nil
	}
	closes := f.Closes()
	haOpen, err := f.Column("ha_open")
	if err != nil {
		return err
	}
	haClose, err := f.Column("ha_close")
	if err != nil {
		return err
	}
	if err := f.SetColumn("ha_open_feature", normalizeAgainstClose(haOpen, closes)); err != nil {
		return err
	}
	return f.SetColumn("ha_close_feature", normalizeAgainstClose(haClose, closes))
}
