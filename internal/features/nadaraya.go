package features

import (
	"fmt"
	"math"

	"alpharai/internal/bars"
)

// NadarayaWatson fits a Gaussian-kernel regression over the trailing Window
// closes and draws an envelope at Mult times the mean absolute error.
type NadarayaWatson struct {
	Bandwidth float64
	Mult      float64
	Window    int
}

func NewNadarayaWatson(bandwidth, mult float64, window int) *NadarayaWatson {
	return &NadarayaWatson{Bandwidth: bandwidth, Mult: mult, Window: window}
}

func (n *NadarayaWatson) Slug() string { return "nadaraya_watson" }

func (n *NadarayaWatson) prefix() string {
	return fmt.Sprintf("nw_%s_%s_%d", formatParam(n.Bandwidth), formatParam(n.Mult), n.Window)
}

func (n *NadarayaWatson) EstimateColumn() string { return n.prefix() }
func (n *NadarayaWatson) UpperColumn() string    { return n.prefix() + "_upper" }
func (n *NadarayaWatson) LowerColumn() string    { return n.prefix() + "_lower" }

func (n *NadarayaWatson) Columns() []string {
	return []string{n.EstimateColumn(), n.UpperColumn(), n.LowerColumn()}
}

func (n *NadarayaWatson) FeatureColumns() []string {
	return []string{n.UpperColumn() + "_feature", n.LowerColumn() + "_feature"}
}

func (n *NadarayaWatson) Add(f *bars.Frame) error {
	if f.HasAll(n.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	closes := f.Closes()
	total := len(closes)
	start := 0
	if total > n.Window {
		start = total - n.Window
	}
	window := closes[start:]

	// Kernel regression over the window only; the fit is O(window^2) and
	// the confluence needs just the trailing region.
	estimate := make([]float64, len(window))
	for i := range window {
		var num, den float64
		for j := range window {
			w := gaussianKernel(float64(i-j), n.Bandwidth)
			num += window[j] * w
			den += w
		}
		estimate[i] = num / den
	}

	var mae float64
	for i := range window {
		mae += math.Abs(window[i] - estimate[i])
	}
	mae = mae / float64(len(window)) * n.Mult

	est := nanSlice(total)
	upper := nanSlice(total)
	lower := nanSlice(total)
	for i := range window {
		est[start+i] = estimate[i]
		upper[start+i] = estimate[i] + mae
		lower[start+i] = estimate[i] - mae
	}

	return setColumns(f, map[string][]float64{
		n.EstimateColumn(): est,
		n.UpperColumn():    upper,
		n.LowerColumn():    lower,
	})
}

func (n *NadarayaWatson) Normalize(f *bars.Frame) error {
	if f.HasAll(n.FeatureColumns()...) {
		return nil
	}
	closes := f.Closes()
	upper, err := f.Column(n.UpperColumn())
	if err != nil {
		return err
	}
	lower, err := f.Column(n.LowerColumn())
	if err != nil {
		return err
	}
	if err := f.SetColumn(n.UpperColumn()+"_feature", normalizeAgainstClose(upper, closes)); err != nil {
		return err
	}
	return f.SetColumn(n.LowerColumn()+"_feature", normalizeAgainstClose(lower, closes))
}

func gaussianKernel(distance, bandwidth float64) float64 {
	return math.Exp(-(distance * distance) / (2 * bandwidth * bandwidth))
}
