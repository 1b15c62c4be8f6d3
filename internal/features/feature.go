package features

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"alpharai/internal/bars"
)

// Feature is one indicator in the pipeline. Add must be idempotent: when
// every declared column is already on the frame it returns without
// recomputing, which doubles as the memoization mechanism for dependent
// features. Columns and FeatureColumns are deterministic functions of the
// feature's parameters and must be disjoint sets.
type Feature interface {
	Slug() string
	Columns() []string
	FeatureColumns() []string
	Add(f *bars.Frame) error
	Normalize(f *bars.Frame) error
}

// Apply runs Add then Normalize for each feature in order.
func Apply(f *bars.Frame, feats ...Feature) error {
	for _, feat := range feats {
		if err := feat.Add(f); err != nil {
			return fmt.Errorf("feature %s: %w", feat.Slug(), err)
		}
	}
	for _, feat := range feats {
		if err := feat.Normalize(f); err != nil {
			return fmt.Errorf("feature %s: %w", feat.Slug(), err)
		}
	}
	return nil
}

// precheck is the shared precondition of every Add that actually computes:
// a sorted series of at least bars.MinRows rows.
func precheck(f *bars.Frame) error {
	if err := bars.CheckSorted(f); err != nil {
		return err
	}
	return bars.CheckEnoughRows(f, bars.MinRows)
}

// Registry maps feature slugs to constructors with default parameters so
// confluences can resolve their indicator dependencies by name.
type Registry struct {
	builders map[string]func() Feature
	slugs    []string
}

func NewRegistry() *Registry {
	return &Registry{builders: map[string]func() Feature{}}
}

func (r *Registry) Register(slug string, build func() Feature) {
	if _, ok := r.builders[slug]; !ok {
		r.slugs = append(r.slugs, slug)
	}
	r.builders[slug] = build
}

func (r *Registry) Build(slug string) (Feature, bool) {
	b, ok := r.builders[slug]
	if !ok {
		return nil, false
	}
	return b(), true
}

func (r *Registry) Slugs() []string {
	out := make([]string, len(r.slugs))
	copy(out, r.slugs)
	sort.Strings(out)
	return out
}

// DefaultRegistry registers every built-in feature under its slug.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("atr", func() Feature { return NewATR(14) })
	r.Register("bollinger_bands", func() Feature { return NewBollingerBands(20, 2.0) })
	r.Register("keltner_channel", func() Feature { return NewKeltnerChannel(20, 1.5) })
	r.Register("squeeze_momentum", func() Feature { return NewSqueezeMomentum(20, 2.0, 20, 1.5, 50) })
	r.Register("supertrend", func() Feature { return NewSuperTrend(3.0, 10) })
	r.Register("adaptive_supertrend", func() Feature { return NewAdaptiveSuperTrend(DefaultAdaptiveSuperTrendParams()) })
	r.Register("heikin_ashi", func() Feature { return NewHeikinAshi() })
	r.Register("nadaraya_watson", func() Feature { return NewNadarayaWatson(8.0, 3.0, 500) })
	return r
}

// formatParam renders a float parameter for column names, with "." replaced
// by "_" so names stay portable (2.0 -> "2", 1.5 -> "1_5").
func formatParam(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	return strings.ReplaceAll(s, ".", "_")
}

// --- shared numeric helpers ---

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// emaSpan is an exponentially weighted mean with alpha = 2/(span+1), seeded
// with the first finite value.
func emaSpan(values []float64, span int) []float64 {
	return emaAlpha(values, 2.0/(float64(span)+1.0))
}

func emaAlpha(values []float64, alpha float64) []float64 {
	out := nanSlice(len(values))
	started := false
	var prev float64
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !started {
			prev = v
			started = true
		} else {
			prev = prev + alpha*(v-prev)
		}
		out[i] = prev
	}
	return out
}

func rollingApply(values []float64, window int, fn func([]float64) float64) []float64 {
	out := nanSlice(len(values))
	for i := window - 1; i < len(values); i++ {
		out[i] = fn(values[i-window+1 : i+1])
	}
	return out
}

func rollingMean(values []float64, window int) []float64 {
	return rollingApply(values, window, mean)
}

func rollingStd(values []float64, window int) []float64 {
	return rollingApply(values, window, stddev)
}

func rollingMax(values []float64, window int) []float64 {
	return rollingApply(values, window, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
}

func rollingMin(values []float64, window int) []float64 {
	return rollingApply(values, window, func(w []float64) float64 {
		m := w[0]
		for _, v := range w[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})
}

func mean(w []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range w {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// stddev is the sample standard deviation, NaN-aware.
func stddev(w []float64) float64 {
	m := mean(w)
	if math.IsNaN(m) {
		return math.NaN()
	}
	sum, n := 0.0, 0
	for _, v := range w {
		if math.IsNaN(v) {
			continue
		}
		d := v - m
		sum += d * d
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n-1))
}

// linregEndpoint is the fitted value of an ordinary least-squares line at
// the final index of the window.
func linregEndpoint(w []float64) float64 {
	n := float64(len(w))
	if n < 2 {
		return math.NaN()
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range w {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return math.NaN()
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n
	return intercept + slope*(n-1)
}

// normalizeAgainstClose produces the scale-free variant (value − close)/close.
func normalizeAgainstClose(values, closes []float64) []float64 {
	out := nanSlice(len(values))
	for i := range values {
		if closes[i] != 0 {
			out[i] = (values[i] - closes[i]) / closes[i]
		}
	}
	return out
}

// setColumns writes each named column; lengths are pre-validated by the
// frame itself.
func setColumns(f *bars.Frame, cols map[string][]float64) error {
	for name, vals := range cols {
		if err := f.SetColumn(name, vals); err != nil {
			return err
		}
	}
	return nil
}
