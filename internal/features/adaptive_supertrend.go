package features

import (
	"fmt"
	"math"

	"alpharai/internal/bars"
)

// PerformanceCluster selects which KMeans cluster of factor performances the
// adaptive pass should follow.
type PerformanceCluster string

const (
	ClusterBest    PerformanceCluster = "BEST"
	ClusterAverage PerformanceCluster = "AVERAGE"
	ClusterWorst   PerformanceCluster = "WORST"
)

// AdaptiveSuperTrendParams configures the factor grid and the performance
// memory of the adaptive pass.
type AdaptiveSuperTrendParams struct {
	ATRPeriod  int
	FactorMin  float64
	FactorMax  float64
	FactorStep float64
	PerfAlpha  float64
	Cluster    PerformanceCluster
	MaxData    int
}

func DefaultAdaptiveSuperTrendParams() AdaptiveSuperTrendParams {
	return AdaptiveSuperTrendParams{
		ATRPeriod:  10,
		FactorMin:  1.0,
		FactorMax:  5.0,
		FactorStep: 0.5,
		PerfAlpha:  10.0 / 2.0 / 100.0,
		Cluster:    ClusterBest,
		MaxData:    bars.MinRows,
	}
}

// AdaptiveSuperTrend runs one SuperTrend per factor in the grid over the
// most recent MaxData bars, scores each by a running performance EMA,
// clusters the scores with KMeans(k=3) and re-runs with the representative
// factor of the chosen cluster. An AMA-smoothed variant of the final output
// is emitted alongside.
type AdaptiveSuperTrend struct {
	Params AdaptiveSuperTrendParams
}

func NewAdaptiveSuperTrend(params AdaptiveSuperTrendParams) *AdaptiveSuperTrend {
	return &AdaptiveSuperTrend{Params: params}
}

func (a *AdaptiveSuperTrend) Slug() string { return "adaptive_supertrend" }

func (a *AdaptiveSuperTrend) prefix() string {
	p := a.Params
	return fmt.Sprintf("ast_%d_%s_%s_%s", p.ATRPeriod,
		formatParam(p.FactorMin), formatParam(p.FactorMax), formatParam(p.FactorStep))
}

func (a *AdaptiveSuperTrend) ValueColumn() string     { return a.prefix() }
func (a *AdaptiveSuperTrend) DirectionColumn() string { return a.prefix() + "_direction" }
func (a *AdaptiveSuperTrend) AMAColumn() string       { return a.prefix() + "_ama" }

func (a *AdaptiveSuperTrend) Columns() []string {
	return []string{a.ValueColumn(), a.DirectionColumn(), a.AMAColumn()}
}

func (a *AdaptiveSuperTrend) FeatureColumns() []string {
	return []string{a.ValueColumn() + "_feature"}
}

func (a *AdaptiveSuperTrend) Add(f *bars.Frame) error {
	if f.HasAll(a.Columns()...) {
		return nil
	}
	if err := precheck(f); err != nil {
		return err
	}

	atr := NewATR(a.Params.ATRPeriod)
	if err := atr.Add(f); err != nil {
		return err
	}
	atrVals, err := f.Column(atr.column())
	if err != nil {
		return err
	}

	n := f.Len()
	window := n
	if a.Params.MaxData > 0 && n > a.Params.MaxData {
		window = a.Params.MaxData
	}
	tail := f.Tail(window)
	highs := tail.Highs()
	lows := tail.Lows()
	closes := tail.Closes()
	atrTail := atrVals[n-window:]

	factors := a.factorGrid()
	perfs := make([]float64, len(factors))
	for i, factor := range factors {
		values, _ := computeSuperTrend(highs, lows, closes, atrTail, factor)
		perfs[i] = a.trailingPerformance(closes, values)
	}

	factor, avgPerf := a.pickFactor(factors, perfs)

	values, direction := computeSuperTrend(highs, lows, closes, atrTail, factor)
	ama := a.smooth(closes, values, avgPerf)

	// Rows before the adaptive window carry NaN.
	fullValues := nanSlice(n)
	fullDirection := nanSlice(n)
	fullAMA := nanSlice(n)
	copy(fullValues[n-window:], values)
	copy(fullDirection[n-window:], direction)
	copy(fullAMA[n-window:], ama)

	return setColumns(f, map[string][]float64{
		a.ValueColumn():     fullValues,
		a.DirectionColumn(): fullDirection,
		a.AMAColumn():       fullAMA,
	})
}

func (a *AdaptiveSuperTrend) Normalize(f *bars.Frame) error {
	if f.HasAll(a.FeatureColumns()...) {
		return nil
	}
	values, err := f.Column(a.ValueColumn())
	if err != nil {
		return err
	}
	return f.SetColumn(a.ValueColumn()+"_feature", normalizeAgainstClose(values, f.Closes()))
}

func (a *AdaptiveSuperTrend) factorGrid() []float64 {
	var out []float64
	for factor := a.Params.FactorMin; factor <= a.Params.FactorMax+1e-9; factor += a.Params.FactorStep {
		out = append(out, factor)
	}
	return out
}

// trailingPerformance is the running EMA of the signed per-bar move,
// positive when price moves away from the supertrend output.
func (a *AdaptiveSuperTrend) trailingPerformance(closes, outputs []float64) float64 {
	perf := 0.0
	for i := 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		sign := 0.0
		if closes[i-1] > outputs[i-1] {
			sign = 1
		} else if closes[i-1] < outputs[i-1] {
			sign = -1
		}
		perf += a.Params.PerfAlpha * (diff*sign - perf)
	}
	return perf
}

// pickFactor clusters performances with KMeans(k=3) and returns the mean
// factor of the selected cluster plus that cluster's mean performance.
func (a *AdaptiveSuperTrend) pickFactor(factors, perfs []float64) (factor, avgPerf float64) {
	assignments, centroids := kmeans1D(perfs, 3)

	// Rank clusters by centroid: worst, average, best.
	order := []int{0, 1, 2}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if centroids[order[j]] < centroids[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}
	var target int
	switch a.Params.Cluster {
	case ClusterWorst:
		target = order[0]
	case ClusterAverage:
		target = order[1]
	default:
		target = order[2]
	}

	sumFactor, sumPerf, count := 0.0, 0.0, 0
	for i, cluster := range assignments {
		if cluster == target {
			sumFactor += factors[i]
			sumPerf += perfs[i]
			count++
		}
	}
	if count == 0 {
		// Degenerate clustering; fall back to the full grid mean.
		for i := range factors {
			sumFactor += factors[i]
			sumPerf += perfs[i]
		}
		count = len(factors)
	}
	return sumFactor / float64(count), sumPerf / float64(count)
}

// smooth produces the AMA variant: the chosen cluster's performance scaled
// by the EMA of absolute close deltas drives the smoothing constant.
func (a *AdaptiveSuperTrend) smooth(closes, outputs []float64, avgPerf float64) []float64 {
	absDeltas := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		absDeltas[i] = math.Abs(closes[i] - closes[i-1])
	}
	denom := emaAlpha(absDeltas, a.Params.PerfAlpha)

	out := make([]float64, len(outputs))
	out[0] = outputs[0]
	for i := 1; i < len(outputs); i++ {
		perfIdx := 0.0
		if denom[i] > 0 {
			perfIdx = math.Max(avgPerf, 0) / denom[i]
		}
		if perfIdx > 1 {
			perfIdx = 1
		}
		out[i] = out[i-1] + perfIdx*(outputs[i]-out[i-1])
	}
	return out
}

// kmeans1D clusters scalar values into k groups. Centroids start spread
// across [min, max]; iteration stops on assignment convergence.
func kmeans1D(values []float64, k int) (assignments []int, centroids []float64) {
	assignments = make([]int, len(values))
	centroids = make([]float64, k)

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i := 0; i < k; i++ {
		if k == 1 {
			centroids[i] = lo
		} else {
			centroids[i] = lo + (hi-lo)*float64(i)/float64(k-1)
		}
	}

	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, v := range values {
			best, bestDist := 0, math.Abs(v-centroids[0])
			for c := 1; c < k; c++ {
				if d := math.Abs(v - centroids[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		for c := 0; c < k; c++ {
			sum, count := 0.0, 0
			for i, v := range values {
				if assignments[i] == c {
					sum += v
					count++
				}
			}
			if count > 0 {
				centroids[c] = sum / float64(count)
			}
		}
	}
	return assignments, centroids
}
